package positions

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Replay folds an ordered transaction history into position metrics using
// the weighted-average cost method (not FIFO/LIFO lot accounting): a sell
// removes invested capital proportionally instead of consuming lots.
//
// AveragePrice divides by the cumulative quantity ever bought, not the
// currently held quantity. After partial sells this understates the
// historical cost basis, but reported gain/loss figures depend on it, so the
// divisor must not change without product sign-off.
//
// Replay is a pure function: the same history and price sample always
// produce identical metrics.
func Replay(transactions []Transaction, currentPrice, dayChange decimal.Decimal) Metrics {
	ordered := make([]Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
	})

	quantity := decimal.Zero
	totalInvested := decimal.Zero
	totalBuyQuantity := decimal.Zero

	for _, txn := range ordered {
		if txn.Kind == TransactionBuy {
			quantity = quantity.Add(txn.Quantity)
			totalBuyQuantity = totalBuyQuantity.Add(txn.Quantity)
			totalInvested = totalInvested.Add(
				txn.Quantity.Mul(txn.Price).Add(txn.Fees).Add(txn.Taxes))
		} else {
			quantity = quantity.Sub(txn.Quantity)
			if totalBuyQuantity.IsPositive() {
				totalInvested = totalInvested.Sub(
					totalInvested.Div(totalBuyQuantity).Mul(txn.Quantity))
			}
		}
	}

	averagePrice := decimal.Zero
	if totalBuyQuantity.IsPositive() {
		averagePrice = totalInvested.Div(totalBuyQuantity)
	}

	currentValue := quantity.Mul(currentPrice)
	costBasis := quantity.Mul(averagePrice)
	totalGainLoss := currentValue.Sub(costBasis)

	totalGainLossPercent := decimal.Zero
	if costBasis.IsPositive() {
		totalGainLossPercent = totalGainLoss.Div(costBasis).Mul(hundred)
	}

	return Metrics{
		Quantity:             quantity,
		AveragePrice:         averagePrice,
		TotalInvested:        totalInvested,
		CurrentValue:         currentValue,
		TotalGainLoss:        totalGainLoss,
		TotalGainLossPercent: totalGainLossPercent,
		DayGainLoss:          quantity.Mul(dayChange),
	}
}

// HeldQuantity replays only the quantity leg of a history. Used to enforce
// the quantity >= 0 invariant before appending a sell.
func HeldQuantity(transactions []Transaction) decimal.Decimal {
	quantity := decimal.Zero
	for _, txn := range transactions {
		if txn.Kind == TransactionBuy {
			quantity = quantity.Add(txn.Quantity)
		} else {
			quantity = quantity.Sub(txn.Quantity)
		}
	}
	return quantity
}
