package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akistler/finboard/internal/domain"
	"github.com/akistler/finboard/internal/modules/positions"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE positions (
    id TEXT PRIMARY KEY, symbol TEXT NOT NULL UNIQUE, currency TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1, created_at INTEGER NOT NULL
);
CREATE TABLE transactions (
    id TEXT PRIMARY KEY, position_id TEXT NOT NULL, kind TEXT NOT NULL,
    quantity TEXT NOT NULL, price TEXT NOT NULL,
    fees TEXT NOT NULL DEFAULT '0', taxes TEXT NOT NULL DEFAULT '0',
    executed_at INTEGER NOT NULL
);
CREATE TABLE position_metrics (
    position_id TEXT PRIMARY KEY, quantity TEXT NOT NULL, average_price TEXT NOT NULL,
    total_invested TEXT NOT NULL, current_value TEXT NOT NULL, total_gain_loss TEXT NOT NULL,
    total_gain_loss_percent TEXT NOT NULL, day_gain_loss TEXT NOT NULL,
    currency TEXT NOT NULL, computed_at INTEGER NOT NULL
);
`

type stubQuotes struct {
	quote *domain.Quote
}

func (s *stubQuotes) GetQuote(symbol string) (*domain.Quote, error) {
	if s.quote == nil {
		return nil, errors.New("quote source down")
	}
	return s.quote, nil
}

func setupRouter(t *testing.T, quotes positions.QuoteSource) chi.Router {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	logger := zerolog.New(nil).Level(zerolog.Disabled)
	service := positions.NewService(positions.NewRepository(db), quotes, logger)
	handler := NewHandler(service, logger)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router chi.Router, path string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func buyPayload(symbol string, quantity, price float64) map[string]interface{} {
	return map[string]interface{}{
		"symbol":   symbol,
		"currency": "USD",
		"quantity": quantity,
		"price":    price,
	}
}

func TestHandleBuyAndList(t *testing.T) {
	router := setupRouter(t, &stubQuotes{})

	w := postJSON(t, router, "/positions/buy", buyPayload("AAPL", 10, 150))
	assert.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Contains(t, created, "data")
	assert.Contains(t, created, "metadata")

	req := httptest.NewRequest("GET", "/positions/", nil)
	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, req)
	assert.Equal(t, http.StatusOK, lw.Code)

	var listed map[string]interface{}
	require.NoError(t, json.NewDecoder(lw.Body).Decode(&listed))
	data := listed["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestHandleSell_OversellRejected(t *testing.T) {
	router := setupRouter(t, &stubQuotes{})

	w := postJSON(t, router, "/positions/buy", buyPayload("AAPL", 10, 150))
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/positions/sell", buyPayload("AAPL", 11, 160))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRefresh_QuoteFailure(t *testing.T) {
	router := setupRouter(t, &stubQuotes{}) // no quote configured

	w := postJSON(t, router, "/positions/buy", buyPayload("AAPL", 10, 150))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data positions.Position `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	rw := postJSON(t, router, "/positions/"+created.Data.ID+"/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, rw.Code)
}

func TestHandleRefreshAndGet(t *testing.T) {
	router := setupRouter(t, &stubQuotes{quote: &domain.Quote{
		Symbol: "AAPL", Price: 200, DayChange: 2, Currency: "USD",
	}})

	w := postJSON(t, router, "/positions/buy", buyPayload("AAPL", 10, 150))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data positions.Position `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	rw := postJSON(t, router, "/positions/"+created.Data.ID+"/refresh", nil)
	assert.Equal(t, http.StatusOK, rw.Code)

	req := httptest.NewRequest("GET", "/positions/"+created.Data.ID, nil)
	gw := httptest.NewRecorder()
	router.ServeHTTP(gw, req)
	assert.Equal(t, http.StatusOK, gw.Code)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(gw.Body).Decode(&got))
	data := got["data"].(map[string]interface{})
	metrics := data["metrics"].(map[string]interface{})
	assert.Equal(t, "2000", metrics["current_value"])
}

func TestHandleDelete(t *testing.T) {
	router := setupRouter(t, &stubQuotes{})

	w := postJSON(t, router, "/positions/buy", buyPayload("AAPL", 1, 100))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data positions.Position `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	req := httptest.NewRequest("DELETE", "/positions/"+created.Data.ID, nil)
	dw := httptest.NewRecorder()
	router.ServeHTTP(dw, req)
	assert.Equal(t, http.StatusOK, dw.Code)

	req = httptest.NewRequest("DELETE", "/positions/"+created.Data.ID, nil)
	dw = httptest.NewRecorder()
	router.ServeHTTP(dw, req)
	assert.Equal(t, http.StatusNotFound, dw.Code)
}
