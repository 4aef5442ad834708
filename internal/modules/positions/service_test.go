package positions

import (
	"errors"
	"testing"
	"time"

	"github.com/akistler/finboard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockQuotes returns configured quotes per symbol and counts calls.
type mockQuotes struct {
	quotes map[string]*domain.Quote
	err    error
	calls  int
}

func (m *mockQuotes) GetQuote(symbol string) (*domain.Quote, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if q, ok := m.quotes[symbol]; ok {
		return q, nil
	}
	return nil, errors.New("unknown symbol")
}

func newTestService(t *testing.T, quotes QuoteSource) *Service {
	repo := NewRepository(setupTestDB(t))
	return NewService(repo, quotes, zerolog.New(nil).Level(zerolog.Disabled))
}

func buy(symbol, quantity, price string) TradeInput {
	return TradeInput{
		Symbol:     symbol,
		Currency:   "USD",
		Quantity:   d(quantity),
		Price:      d(price),
		ExecutedAt: time.Now(),
	}
}

func TestService_FirstBuyOpensPosition(t *testing.T) {
	svc := newTestService(t, &mockQuotes{})

	pos, err := svc.RecordBuy(buy("AAPL", "10", "150"))
	require.NoError(t, err)
	assert.True(t, pos.Active)
	assert.Equal(t, "AAPL", pos.Symbol)
	assert.Equal(t, "USD", pos.Currency)

	// Second buy reuses the same position.
	again, err := svc.RecordBuy(buy("AAPL", "5", "155"))
	require.NoError(t, err)
	assert.Equal(t, pos.ID, again.ID)

	_, _, history, err := svc.Get(pos.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestService_BuyValidation(t *testing.T) {
	svc := newTestService(t, &mockQuotes{})

	_, err := svc.RecordBuy(TradeInput{Symbol: "", Quantity: d("1"), Price: d("1"), Currency: "USD"})
	assert.Error(t, err)

	in := buy("AAPL", "0", "150")
	_, err = svc.RecordBuy(in)
	assert.Error(t, err)

	in = buy("AAPL", "1", "-5")
	_, err = svc.RecordBuy(in)
	assert.Error(t, err)

	in = buy("AAPL", "1", "150")
	in.Currency = "DOLLARS"
	_, err = svc.RecordBuy(in)
	assert.ErrorIs(t, err, domain.ErrInvalidMoney)
}

func TestService_OversellRejectedNothingWritten(t *testing.T) {
	svc := newTestService(t, &mockQuotes{})

	pos, err := svc.RecordBuy(buy("AAPL", "10", "150"))
	require.NoError(t, err)

	_, err = svc.RecordSell(buy("AAPL", "11", "160"))
	assert.Error(t, err)

	_, _, history, err := svc.Get(pos.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "rejected sell must not be recorded")
}

func TestService_SellToZeroClosesAndBuyReopens(t *testing.T) {
	svc := newTestService(t, &mockQuotes{})

	pos, err := svc.RecordBuy(buy("AAPL", "10", "150"))
	require.NoError(t, err)

	closed, err := svc.RecordSell(buy("AAPL", "10", "160"))
	require.NoError(t, err)
	assert.False(t, closed.Active)

	// History survives the close.
	_, _, history, err := svc.Get(pos.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	reopened, err := svc.RecordBuy(buy("AAPL", "3", "140"))
	require.NoError(t, err)
	assert.True(t, reopened.Active)
	assert.Equal(t, pos.ID, reopened.ID)
}

func TestService_SellUnknownSymbol(t *testing.T) {
	svc := newTestService(t, &mockQuotes{})

	_, err := svc.RecordSell(buy("NOPE", "1", "10"))
	assert.Error(t, err)
}

func TestService_RefreshMetricsComputesAndStores(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 200, DayChange: 2, Currency: "USD"},
	}}
	svc := newTestService(t, quotes)

	pos, err := svc.RecordBuy(buy("AAPL", "10", "150"))
	require.NoError(t, err)
	_, err = svc.RecordSell(buy("AAPL", "4", "180"))
	require.NoError(t, err)

	m, err := svc.RefreshMetrics(pos.ID)
	require.NoError(t, err)

	assert.Equal(t, "6", m.Quantity.String())
	assert.Equal(t, "1200", m.CurrentValue.String())
	assert.Equal(t, "12", m.DayGainLoss.String())
	assert.Equal(t, "USD", m.Currency)
	assert.False(t, m.ComputedAt.IsZero())

	// Stored copy matches the returned one.
	stored, err := svc.Metrics(pos.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.CurrentValue.Equal(m.CurrentValue))
}

func TestService_RefreshMetricsQuoteFailureKeepsStoredMetrics(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 200, DayChange: 0, Currency: "USD"},
	}}
	svc := newTestService(t, quotes)

	pos, err := svc.RecordBuy(buy("AAPL", "10", "150"))
	require.NoError(t, err)
	_, err = svc.RefreshMetrics(pos.ID)
	require.NoError(t, err)

	// Quote source goes down; refresh must fail without touching stored metrics.
	quotes.err = errors.New("feed down")
	_, err = svc.RefreshMetrics(pos.ID)
	require.Error(t, err)

	stored, err := svc.Metrics(pos.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "2000", stored.CurrentValue.String())
}

func TestService_RefreshAllContinuesPastFailures(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 200, Currency: "USD"},
		// MSFT intentionally missing so its refresh fails.
	}}
	svc := newTestService(t, quotes)

	_, err := svc.RecordBuy(buy("AAPL", "1", "100"))
	require.NoError(t, err)
	_, err = svc.RecordBuy(buy("MSFT", "1", "100"))
	require.NoError(t, err)

	refreshed, err := svc.RefreshAllMetrics()
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
}

func TestService_DeleteRemovesPosition(t *testing.T) {
	svc := newTestService(t, &mockQuotes{})

	pos, err := svc.RecordBuy(buy("AAPL", "1", "100"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(pos.ID))

	_, _, _, err = svc.Get(pos.ID)
	assert.Error(t, err)
}
