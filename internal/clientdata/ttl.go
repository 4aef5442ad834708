package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLExchangeRate - currency exchange rates change intraday
	TTLExchangeRate = time.Hour

	// TTLQuote - current price cache for display and metrics refresh
	TTLQuote = 15 * time.Minute
)
