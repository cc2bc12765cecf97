// Package feed fetches live end-of-day quotes from the exchange's
// public JSON API and shapes them into canonical records for the merge
// pipeline.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"gsewatch/internal/config"
	"gsewatch/pkg/contracts/domain"
)

// liveEquity is the upstream API's document shape for one listing.
type liveEquity struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	Volume int64   `json:"volume"`
}

// Client fetches live quotes. Requests are rate limited so scheduled
// and manual runs together stay polite to the upstream API.
type Client struct {
	cfg     config.FeedConfig
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a feed client from configuration.
func NewClient(cfg config.FeedConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		logger:  logger.With(slog.String("component", "feed")),
		now:     time.Now,
	}
}

// FetchLive retrieves the current quote list and shapes it into
// records dated today. The upstream publishes price, change and volume
// only, so the previous close is reconstructed as price minus change
// and turnover as price times volume; fields the feed cannot supply
// stay nil.
func (c *Client) FetchLive(ctx context.Context) ([]domain.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := c.now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch live quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	var equities []liveEquity
	if err := json.NewDecoder(resp.Body).Decode(&equities); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	today := c.now()
	quotes := make([]domain.Quote, 0, len(equities))
	for _, eq := range equities {
		if eq.Name == "" || eq.Price <= 0 {
			continue
		}
		prevClose := eq.Price - eq.Change
		q := domain.Quote{
			Symbol:    eq.Name,
			Date:      time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
			Close:     eq.Price,
			Change:    domain.Float64(eq.Change),
			Volume:    domain.Int64(eq.Volume),
			Turnover:  domain.Float64(eq.Price * float64(eq.Volume)),
			PrevClose: domain.Float64(prevClose),
			Open:      domain.Float64(prevClose),
		}
		quotes = append(quotes, q)
	}

	c.logger.InfoContext(ctx, "fetched live quotes",
		slog.Int("listings", len(equities)),
		slog.Int("usable", len(quotes)),
		slog.Duration("elapsed", c.now().Sub(start)))
	return quotes, nil
}
