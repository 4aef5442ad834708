package positions

import (
	"fmt"
	"time"

	"github.com/akistler/finboard/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// QuoteSource is the live price surface the service depends on.
type QuoteSource interface {
	GetQuote(symbol string) (*domain.Quote, error)
}

// Service owns the position lifecycle: first buy creates, selling to zero
// closes (deactivates, history retained), a later buy reopens.
type Service struct {
	repo   *Repository
	quotes QuoteSource
	log    zerolog.Logger
}

// NewService creates a position service.
func NewService(repo *Repository, quotes QuoteSource, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		log:    log.With().Str("service", "positions").Logger(),
	}
}

// TradeInput is one buy or sell to record.
type TradeInput struct {
	Symbol     string          `json:"symbol"`
	Currency   string          `json:"currency"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fees       decimal.Decimal `json:"fees"`
	Taxes      decimal.Decimal `json:"taxes"`
	ExecutedAt time.Time       `json:"executed_at"`
}

func (in *TradeInput) validate() error {
	if in.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if in.Fees.IsNegative() || in.Taxes.IsNegative() {
		return fmt.Errorf("fees and taxes must not be negative")
	}
	if in.ExecutedAt.IsZero() {
		in.ExecutedAt = time.Now()
	}
	return nil
}

// RecordBuy appends a buy. The position is created on the first buy and
// reactivated if it had been closed.
func (s *Service) RecordBuy(in TradeInput) (*Position, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	currency, err := domain.NormalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}

	pos, err := s.repo.GetBySymbol(in.Symbol)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{
			ID:        uuid.New().String(),
			Symbol:    in.Symbol,
			Currency:  currency,
			Active:    true,
			CreatedAt: time.Now(),
		}
		if err := s.repo.Create(*pos); err != nil {
			return nil, err
		}
		s.log.Info().Str("symbol", pos.Symbol).Str("currency", currency).Msg("Position opened")
	} else if !pos.Active {
		if err := s.repo.SetActive(pos.ID, true); err != nil {
			return nil, err
		}
		pos.Active = true
		s.log.Info().Str("symbol", pos.Symbol).Msg("Position reopened")
	}

	txn := Transaction{
		ID:         uuid.New().String(),
		PositionID: pos.ID,
		Kind:       TransactionBuy,
		Quantity:   in.Quantity,
		Price:      in.Price,
		Fees:       in.Fees,
		Taxes:      in.Taxes,
		ExecutedAt: in.ExecutedAt,
	}
	if err := s.repo.AddTransaction(txn); err != nil {
		return nil, err
	}
	return pos, nil
}

// RecordSell appends a sell. Selling more than the held quantity is rejected
// before anything is written; selling the position to exactly zero closes it.
func (s *Service) RecordSell(in TradeInput) (*Position, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	pos, err := s.repo.GetBySymbol(in.Symbol)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, fmt.Errorf("no position for symbol %s", in.Symbol)
	}

	history, err := s.repo.GetTransactions(pos.ID)
	if err != nil {
		return nil, err
	}
	held := HeldQuantity(history)
	if in.Quantity.GreaterThan(held) {
		return nil, fmt.Errorf("cannot sell %s of %s, only %s held",
			in.Quantity, pos.Symbol, held)
	}

	txn := Transaction{
		ID:         uuid.New().String(),
		PositionID: pos.ID,
		Kind:       TransactionSell,
		Quantity:   in.Quantity,
		Price:      in.Price,
		Fees:       in.Fees,
		Taxes:      in.Taxes,
		ExecutedAt: in.ExecutedAt,
	}
	if err := s.repo.AddTransaction(txn); err != nil {
		return nil, err
	}

	if in.Quantity.Equal(held) {
		if err := s.repo.SetActive(pos.ID, false); err != nil {
			return nil, err
		}
		pos.Active = false
		s.log.Info().Str("symbol", pos.Symbol).Msg("Position closed")
	}
	return pos, nil
}

// Get returns one position with its stored metrics and history.
func (s *Service) Get(id string) (*Position, *Metrics, []Transaction, error) {
	pos, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, nil, err
	}
	if pos == nil {
		return nil, nil, nil, fmt.Errorf("position %s not found", id)
	}
	metrics, err := s.repo.GetMetrics(id)
	if err != nil {
		return nil, nil, nil, err
	}
	history, err := s.repo.GetTransactions(id)
	if err != nil {
		return nil, nil, nil, err
	}
	return pos, metrics, history, nil
}

// List returns all positions, optionally only active ones.
func (s *Service) List(activeOnly bool) ([]Position, error) {
	return s.repo.GetAll(activeOnly)
}

// Metrics returns the stored metrics for a position, nil if none exist yet.
func (s *Service) Metrics(positionID string) (*Metrics, error) {
	return s.repo.GetMetrics(positionID)
}

// RefreshMetrics recomputes and stores one position's metrics from its full
// history plus a live price sample. The recompute is idempotent.
//
// Fail-soft: if the quote cannot be fetched the error is returned and the
// previously stored metrics stay untouched, so a flaky price feed never
// corrupts stored figures.
func (s *Service) RefreshMetrics(positionID string) (*Metrics, error) {
	pos, err := s.repo.GetByID(positionID)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, fmt.Errorf("position %s not found", positionID)
	}

	quote, err := s.quotes.GetQuote(pos.Symbol)
	if err != nil {
		return nil, fmt.Errorf("quote unavailable for %s, keeping stored metrics: %w", pos.Symbol, err)
	}
	if quote.Currency != "" && quote.Currency != pos.Currency {
		s.log.Warn().
			Str("symbol", pos.Symbol).
			Str("position_currency", pos.Currency).
			Str("quote_currency", quote.Currency).
			Msg("Quote currency differs from position currency")
	}

	history, err := s.repo.GetTransactions(positionID)
	if err != nil {
		return nil, err
	}

	metrics := Replay(history, decimal.NewFromFloat(quote.Price), decimal.NewFromFloat(quote.DayChange))
	metrics.Currency = pos.Currency
	metrics.ComputedAt = time.Now()

	if err := s.repo.StoreMetrics(positionID, metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// RefreshAllMetrics refreshes every active position, continuing past
// individual failures. It returns how many positions refreshed successfully.
func (s *Service) RefreshAllMetrics() (int, error) {
	active, err := s.repo.GetAll(true)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, pos := range active {
		if _, err := s.RefreshMetrics(pos.ID); err != nil {
			s.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Metrics refresh failed for position")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// Delete hard-deletes a position with its history and metrics.
func (s *Service) Delete(positionID string) error {
	if err := s.repo.Delete(positionID); err != nil {
		return err
	}
	s.log.Info().Str("position_id", positionID).Msg("Position hard-deleted")
	return nil
}
