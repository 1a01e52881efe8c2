package helpers

import (
	"context"
	"sync"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
)

// MockMarketFeed simulates the Gamma market feed for testing
type MockMarketFeed struct {
	mu sync.Mutex

	markets []ports.Market
	err     error
	fetches int
}

// NewMockMarketFeed creates an empty mock feed
func NewMockMarketFeed() *MockMarketFeed {
	return &MockMarketFeed{}
}

// SetMarkets configures the markets returned by FetchMarkets
func (m *MockMarketFeed) SetMarkets(markets []ports.Market) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets = markets
}

// SetError configures FetchMarkets to fail
func (m *MockMarketFeed) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Fetches returns how many times FetchMarkets ran
func (m *MockMarketFeed) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

func (m *MockMarketFeed) FetchMarkets(ctx context.Context, limit int) ([]ports.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.markets) {
		return m.markets[:limit], nil
	}
	return m.markets, nil
}

var _ ports.MarketFeed = (*MockMarketFeed)(nil)
