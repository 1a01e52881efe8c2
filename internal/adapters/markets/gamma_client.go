// Package markets provides the Polymarket Gamma API client used by the
// prediction-market feed worker.
package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/internal/infrastructure/config"
)

const (
	defaultBaseURL     = "https://gamma-api.polymarket.com"
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
)

// GammaClient implements ports.MarketFeed against the Gamma REST API
type GammaClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	maxRetries  int
	backoffBase time.Duration
	clock       shared.Clock
}

// NewGammaClient creates a Gamma client with default settings.
// Rate limit: 2 requests per second with burst of 5.
func NewGammaClient() *GammaClient {
	return NewGammaClientWithConfig(&config.GammaConfig{
		BaseURL: defaultBaseURL,
		Timeout: defaultTimeout,
		RateLimit: config.RateLimitConfig{
			Requests: 2,
			Burst:    5,
		},
		Retry: config.RetryConfig{
			MaxAttempts: defaultMaxRetries,
			BackoffBase: defaultBackoffBase,
		},
	}, nil)
}

// NewGammaClientWithConfig creates a Gamma client from configuration.
// If clock is nil, uses RealClock.
func NewGammaClientWithConfig(cfg *config.GammaConfig, clock shared.Clock) *GammaClient {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GammaClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.Requests), cfg.RateLimit.Burst),
		baseURL:     cfg.BaseURL,
		maxRetries:  cfg.Retry.MaxAttempts,
		backoffBase: cfg.Retry.BackoffBase,
		clock:       clock,
	}
}

// gammaMarket is the wire shape of one Gamma market row
type gammaMarket struct {
	ID          string  `json:"id"`
	Question    string  `json:"question"`
	Volume24Hr  float64 `json:"volume24hr"`
	Liquidity   float64 `json:"liquidityNum"`
	EndDate     string  `json:"endDate"`
	Active      bool    `json:"active"`
	Closed      bool    `json:"closed"`
	Description string  `json:"description"`
}

// FetchMarkets returns up to limit active markets sorted by 24h volume
func (c *GammaClient) FetchMarkets(ctx context.Context, limit int) ([]ports.Market, error) {
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{}
	query.Set("active", "true")
	query.Set("closed", "false")
	query.Set("order", "volume24hr")
	query.Set("ascending", "false")
	query.Set("limit", strconv.Itoa(limit))

	var rows []gammaMarket
	if err := c.request(ctx, "/markets?"+query.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}

	markets := make([]ports.Market, 0, len(rows))
	for _, row := range rows {
		if row.Closed {
			continue
		}
		markets = append(markets, ports.Market{
			ID:        row.ID,
			Question:  row.Question,
			Volume24h: row.Volume24Hr,
			Liquidity: row.Liquidity,
			EndDate:   row.EndDate,
			Raw: map[string]interface{}{
				"id":          row.ID,
				"question":    row.Question,
				"volume24hr":  row.Volume24Hr,
				"liquidity":   row.Liquidity,
				"end_date":    row.EndDate,
				"active":      row.Active,
				"description": row.Description,
			},
		})
	}
	return markets, nil
}

// request performs a GET with rate limiting and exponential backoff + jitter
func (c *GammaClient) request(ctx context.Context, path string, result interface{}) error {
	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("gamma API returned %d", resp.StatusCode)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			delay := addJitter(c.backoffBase * time.Duration(1<<attempt))
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					delay = time.Duration(seconds) * time.Second
				}
			}
			c.clock.Sleep(delay)
			continue

		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("gamma API returned %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// addJitter adds up to 25% random jitter to a backoff delay
func addJitter(d time.Duration) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(d) / 4))
	return d + jitter
}
