// Package quotes provides the client for the external quote source, which
// supplies price, previous close, day change and currency for a symbol.
package quotes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akistler/finboard/internal/clientdata"
	"github.com/akistler/finboard/internal/domain"
	"github.com/rs/zerolog"
)

// Client for the quote source API.
// cacheRepo is optional - if nil, caching is disabled.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new quote source client.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "quotes").Logger(),
		cacheRepo: cacheRepo,
	}
}

// GetQuote fetches the current quote for a symbol with cache-first behavior.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetQuote(symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("quotes", symbol)
		if err == nil && data != nil {
			var cached domain.Quote
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().
					Str("symbol", symbol).
					Float64("price", cached.Price).
					Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	reqURL := fmt.Sprintf("%s/v1/quote?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	c.log.Debug().Str("url", reqURL).Msg("Fetching quote")

	resp, err := c.client.Get(reqURL)
	if err != nil {
		if stale, ok := c.getStaleFromCache(symbol); ok {
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Msg("Quote API failed, using stale cached quote")
			return stale, nil
		}
		return nil, fmt.Errorf("quote API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStaleFromCache(symbol); ok {
			c.log.Warn().
				Int("status", resp.StatusCode).
				Str("symbol", symbol).
				Msg("Quote API error, using stale cached quote")
			return stale, nil
		}
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	var quote domain.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		if stale, ok := c.getStaleFromCache(symbol); ok {
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Msg("Failed to parse quote response, using stale cached quote")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	if quote.Price <= 0 {
		return nil, fmt.Errorf("quote for %s has no usable price", symbol)
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("quotes", symbol, quote, clientdata.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", quote.Price).
		Str("currency", quote.Currency).
		Msg("Fetched quote")

	return &quote, nil
}

// getStaleFromCache retrieves a cached quote even if expired.
// Used as a fallback when API calls fail.
func (c *Client) getStaleFromCache(symbol string) (*domain.Quote, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get("quotes", symbol)
	if err != nil || data == nil {
		return nil, false
	}

	var cached domain.Quote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &cached, true
}
