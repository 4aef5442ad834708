// Package frankfurter provides a client for the Frankfurter-style exchange
// rate API: GET /v1/latest and GET /v1/{date} with base and symbols params.
package frankfurter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Result is the validated payload of one rate API response.
type Result struct {
	Base  string
	Date  string // ISO date the rates apply to
	Rates map[string]float64
}

// Client for the rate API.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new rate API client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "frankfurter").Logger(),
	}
}

// ratesResponse mirrors the wire format of the rate API.
type ratesResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Latest fetches current rates for one base against a set of target symbols.
// One HTTP request regardless of how many symbols are asked for.
func (c *Client) Latest(base string, symbols []string) (*Result, error) {
	return c.fetch("latest", base, symbols)
}

// Historical fetches rates for a past date (ISO format, e.g. 2024-03-01).
func (c *Client) Historical(date, base string, symbols []string) (*Result, error) {
	if date == "" {
		return nil, fmt.Errorf("historical rate fetch requires a date")
	}
	return c.fetch(date, base, symbols)
}

func (c *Client) fetch(path, base string, symbols []string) (*Result, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no target symbols requested")
	}

	params := url.Values{}
	params.Set("base", base)
	params.Set("symbols", strings.Join(symbols, ","))

	reqURL := fmt.Sprintf("%s/v1/%s?%s", c.baseURL, path, params.Encode())
	c.log.Debug().Str("url", reqURL).Msg("Fetching rates")

	resp, err := c.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("rate API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse rate API response: %w", err)
	}

	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate API response contained no rates for base %s", base)
	}

	c.log.Debug().
		Str("base", body.Base).
		Str("date", body.Date).
		Int("rates", len(body.Rates)).
		Msg("Fetched rates")

	return &Result{
		Base:  body.Base,
		Date:  body.Date,
		Rates: body.Rates,
	}, nil
}
