package positions

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE positions (
    id         TEXT PRIMARY KEY,
    symbol     TEXT NOT NULL UNIQUE,
    currency   TEXT NOT NULL,
    active     INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL
);

CREATE TABLE transactions (
    id          TEXT PRIMARY KEY,
    position_id TEXT NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
    kind        TEXT NOT NULL CHECK (kind IN ('buy', 'sell')),
    quantity    TEXT NOT NULL,
    price       TEXT NOT NULL,
    fees        TEXT NOT NULL DEFAULT '0',
    taxes       TEXT NOT NULL DEFAULT '0',
    executed_at INTEGER NOT NULL
);

CREATE INDEX idx_transactions_position ON transactions(position_id, executed_at);

CREATE TABLE position_metrics (
    position_id             TEXT PRIMARY KEY REFERENCES positions(id) ON DELETE CASCADE,
    quantity                TEXT NOT NULL,
    average_price           TEXT NOT NULL,
    total_invested          TEXT NOT NULL,
    current_value           TEXT NOT NULL,
    total_gain_loss         TEXT NOT NULL,
    total_gain_loss_percent TEXT NOT NULL,
    day_gain_loss           TEXT NOT NULL,
    currency                TEXT NOT NULL,
    computed_at             INTEGER NOT NULL
);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func testPosition(symbol string) Position {
	return Position{
		ID:        "pos-" + symbol,
		Symbol:    symbol,
		Currency:  "USD",
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Create(testPosition("AAPL")))

	byID, err := repo.GetByID("pos-AAPL")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "AAPL", byID.Symbol)
	assert.Equal(t, "USD", byID.Currency)
	assert.True(t, byID.Active)

	bySymbol, err := repo.GetBySymbol("aapl")
	require.NoError(t, err)
	require.NotNil(t, bySymbol)
	assert.Equal(t, byID.ID, bySymbol.ID)

	missing, err := repo.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_DuplicateSymbolRejected(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Create(testPosition("AAPL")))

	dup := testPosition("AAPL")
	dup.ID = "pos-other"
	assert.Error(t, repo.Create(dup))
}

func TestRepository_GetAllFiltersActive(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Create(testPosition("AAPL")))
	require.NoError(t, repo.Create(testPosition("MSFT")))
	require.NoError(t, repo.SetActive("pos-MSFT", false))

	all, err := repo.GetAll(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := repo.GetAll(true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "AAPL", active[0].Symbol)
}

func TestRepository_TransactionsChronological(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Create(testPosition("AAPL")))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := Transaction{
		ID: "tx-2", PositionID: "pos-AAPL", Kind: TransactionSell,
		Quantity: d("2"), Price: d("110"), Fees: d("0"), Taxes: d("0"),
		ExecutedAt: base.Add(time.Hour),
	}
	earlier := Transaction{
		ID: "tx-1", PositionID: "pos-AAPL", Kind: TransactionBuy,
		Quantity: d("5"), Price: d("100"), Fees: d("1"), Taxes: d("0.5"),
		ExecutedAt: base,
	}

	// Insert out of order; reads must come back chronological.
	require.NoError(t, repo.AddTransaction(later))
	require.NoError(t, repo.AddTransaction(earlier))

	history, err := repo.GetTransactions("pos-AAPL")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "tx-1", history[0].ID)
	assert.Equal(t, "tx-2", history[1].ID)
	assert.Equal(t, TransactionBuy, history[0].Kind)
	assert.Equal(t, "5", history[0].Quantity.String())
	assert.Equal(t, "0.5", history[0].Taxes.String())
	assert.Equal(t, base.Unix(), history[0].ExecutedAt.Unix())
}

func TestRepository_TransactionsSameTimestampKeepInsertionOrder(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Create(testPosition("AAPL")))

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"tx-a", "tx-b", "tx-c"} {
		require.NoError(t, repo.AddTransaction(Transaction{
			ID: id, PositionID: "pos-AAPL", Kind: TransactionBuy,
			Quantity: d("1"), Price: d("10"), Fees: d("0"), Taxes: d("0"),
			ExecutedAt: at,
		}))
	}

	history, err := repo.GetTransactions("pos-AAPL")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "tx-a", history[0].ID)
	assert.Equal(t, "tx-b", history[1].ID)
	assert.Equal(t, "tx-c", history[2].ID)
}

func TestRepository_MetricsRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Create(testPosition("AAPL")))

	none, err := repo.GetMetrics("pos-AAPL")
	require.NoError(t, err)
	assert.Nil(t, none)

	m := Metrics{
		Quantity:             d("6"),
		AveragePrice:         d("90.3"),
		TotalInvested:        d("903"),
		CurrentValue:         d("1200"),
		TotalGainLoss:        d("658.2"),
		TotalGainLossPercent: d("121.48"),
		DayGainLoss:          d("12"),
		Currency:             "USD",
		ComputedAt:           time.Now(),
	}
	require.NoError(t, repo.StoreMetrics("pos-AAPL", m))

	got, err := repo.GetMetrics("pos-AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.AveragePrice.Equal(m.AveragePrice))
	assert.True(t, got.TotalGainLoss.Equal(m.TotalGainLoss))
	assert.Equal(t, "USD", got.Currency)

	// Upsert replaces in full.
	m.CurrentValue = d("1300")
	require.NoError(t, repo.StoreMetrics("pos-AAPL", m))
	got, err = repo.GetMetrics("pos-AAPL")
	require.NoError(t, err)
	assert.Equal(t, "1300", got.CurrentValue.String())
}

func TestRepository_DeleteRemovesEverything(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Create(testPosition("AAPL")))
	require.NoError(t, repo.AddTransaction(Transaction{
		ID: "tx-1", PositionID: "pos-AAPL", Kind: TransactionBuy,
		Quantity: d("1"), Price: d("10"), Fees: d("0"), Taxes: d("0"),
		ExecutedAt: time.Now(),
	}))
	require.NoError(t, repo.StoreMetrics("pos-AAPL", Metrics{
		Quantity: d("1"), AveragePrice: d("10"), TotalInvested: d("10"),
		CurrentValue: d("10"), TotalGainLoss: d("0"), TotalGainLossPercent: d("0"),
		DayGainLoss: d("0"), Currency: "USD", ComputedAt: time.Now(),
	}))

	require.NoError(t, repo.Delete("pos-AAPL"))

	pos, err := repo.GetByID("pos-AAPL")
	require.NoError(t, err)
	assert.Nil(t, pos)

	history, err := repo.GetTransactions("pos-AAPL")
	require.NoError(t, err)
	assert.Empty(t, history)

	metrics, err := repo.GetMetrics("pos-AAPL")
	require.NoError(t, err)
	assert.Nil(t, metrics)
}

func TestRepository_DeleteMissingPosition(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	assert.Error(t, repo.Delete("nope"))
}
