package positions

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/akistler/finboard/internal/database"
	"github.com/shopspring/decimal"
)

// Repository provides position and transaction data access on portfolio.db.
// Transactions are append-only; Delete is the only destructive operation.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new position repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new position.
func (r *Repository) Create(pos Position) error {
	active := 0
	if pos.Active {
		active = 1
	}
	_, err := r.db.Exec(
		"INSERT INTO positions (id, symbol, currency, active, created_at) VALUES (?, ?, ?, ?, ?)",
		pos.ID, strings.ToUpper(pos.Symbol), pos.Currency, active, pos.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert position %s: %w", pos.Symbol, err)
	}
	return nil
}

// GetByID returns a position by id, or nil if it does not exist.
func (r *Repository) GetByID(id string) (*Position, error) {
	row := r.db.QueryRow(
		"SELECT id, symbol, currency, active, created_at FROM positions WHERE id = ?", id)
	return scanPosition(row)
}

// GetBySymbol returns a position by symbol, or nil if it does not exist.
func (r *Repository) GetBySymbol(symbol string) (*Position, error) {
	row := r.db.QueryRow(
		"SELECT id, symbol, currency, active, created_at FROM positions WHERE symbol = ?",
		strings.ToUpper(strings.TrimSpace(symbol)))
	return scanPosition(row)
}

func scanPosition(row *sql.Row) (*Position, error) {
	var pos Position
	var active int
	var createdAt int64
	err := row.Scan(&pos.ID, &pos.Symbol, &pos.Currency, &active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	pos.Active = active != 0
	pos.CreatedAt = time.Unix(createdAt, 0)
	return &pos, nil
}

// GetAll returns all positions, optionally only active ones.
func (r *Repository) GetAll(activeOnly bool) ([]Position, error) {
	query := "SELECT id, symbol, currency, active, created_at FROM positions ORDER BY symbol"
	if activeOnly {
		query = "SELECT id, symbol, currency, active, created_at FROM positions WHERE active = 1 ORDER BY symbol"
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var pos Position
		var active int
		var createdAt int64
		if err := rows.Scan(&pos.ID, &pos.Symbol, &pos.Currency, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pos.Active = active != 0
		pos.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return out, nil
}

// SetActive flips a position's active flag.
func (r *Repository) SetActive(id string, active bool) error {
	val := 0
	if active {
		val = 1
	}
	if _, err := r.db.Exec("UPDATE positions SET active = ? WHERE id = ?", val, id); err != nil {
		return fmt.Errorf("failed to update position %s active flag: %w", id, err)
	}
	return nil
}

// AddTransaction appends one transaction to a position's history.
func (r *Repository) AddTransaction(txn Transaction) error {
	_, err := r.db.Exec(
		`INSERT INTO transactions (id, position_id, kind, quantity, price, fees, taxes, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.PositionID, string(txn.Kind),
		txn.Quantity.String(), txn.Price.String(), txn.Fees.String(), txn.Taxes.String(),
		txn.ExecutedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction for position %s: %w", txn.PositionID, err)
	}
	return nil
}

// GetTransactions returns a position's full history in chronological order.
// Rows sharing a timestamp keep insertion order.
func (r *Repository) GetTransactions(positionID string) ([]Transaction, error) {
	rows, err := r.db.Query(
		`SELECT id, position_id, kind, quantity, price, fees, taxes, executed_at
		 FROM transactions WHERE position_id = ? ORDER BY executed_at, rowid`,
		positionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", positionID, err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var txn Transaction
		var kind string
		var quantity, price, fees, taxes string
		var executedAt int64
		if err := rows.Scan(&txn.ID, &txn.PositionID, &kind, &quantity, &price, &fees, &taxes, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Kind = TransactionKind(kind)
		if txn.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("bad quantity on transaction %s: %w", txn.ID, err)
		}
		if txn.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("bad price on transaction %s: %w", txn.ID, err)
		}
		if txn.Fees, err = decimal.NewFromString(fees); err != nil {
			return nil, fmt.Errorf("bad fees on transaction %s: %w", txn.ID, err)
		}
		if txn.Taxes, err = decimal.NewFromString(taxes); err != nil {
			return nil, fmt.Errorf("bad taxes on transaction %s: %w", txn.ID, err)
		}
		txn.ExecutedAt = time.Unix(executedAt, 0)
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

// StoreMetrics upserts the derived metrics for a position.
func (r *Repository) StoreMetrics(positionID string, m Metrics) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO position_metrics
		 (position_id, quantity, average_price, total_invested, current_value,
		  total_gain_loss, total_gain_loss_percent, day_gain_loss, currency, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		positionID,
		m.Quantity.String(), m.AveragePrice.String(), m.TotalInvested.String(),
		m.CurrentValue.String(), m.TotalGainLoss.String(), m.TotalGainLossPercent.String(),
		m.DayGainLoss.String(), m.Currency, m.ComputedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store metrics for position %s: %w", positionID, err)
	}
	return nil
}

// GetMetrics returns the stored metrics for a position, or nil if none have
// been computed yet.
func (r *Repository) GetMetrics(positionID string) (*Metrics, error) {
	row := r.db.QueryRow(
		`SELECT quantity, average_price, total_invested, current_value,
		        total_gain_loss, total_gain_loss_percent, day_gain_loss, currency, computed_at
		 FROM position_metrics WHERE position_id = ?`,
		positionID,
	)

	var m Metrics
	var quantity, averagePrice, totalInvested, currentValue string
	var totalGainLoss, totalGainLossPercent, dayGainLoss string
	var computedAt int64
	err := row.Scan(&quantity, &averagePrice, &totalInvested, &currentValue,
		&totalGainLoss, &totalGainLossPercent, &dayGainLoss, &m.Currency, &computedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan metrics for %s: %w", positionID, err)
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&m.Quantity, quantity},
		{&m.AveragePrice, averagePrice},
		{&m.TotalInvested, totalInvested},
		{&m.CurrentValue, currentValue},
		{&m.TotalGainLoss, totalGainLoss},
		{&m.TotalGainLossPercent, totalGainLossPercent},
		{&m.DayGainLoss, dayGainLoss},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("bad metrics value for %s: %w", positionID, err)
		}
	}
	m.ComputedAt = time.Unix(computedAt, 0)
	return &m, nil
}

// Delete hard-deletes a position, its transaction history and metrics in one
// transaction. This is irrevocable.
func (r *Repository) Delete(positionID string) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM transactions WHERE position_id = ?", positionID); err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM position_metrics WHERE position_id = ?", positionID); err != nil {
			return fmt.Errorf("failed to delete metrics: %w", err)
		}
		result, err := tx.Exec("DELETE FROM positions WHERE id = ?", positionID)
		if err != nil {
			return fmt.Errorf("failed to delete position: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("position %s not found", positionID)
		}
		return nil
	})
}
