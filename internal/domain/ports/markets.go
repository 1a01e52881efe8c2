package ports

import "context"

// Market is one observed prediction market
type Market struct {
	ID        string                 `json:"id"`
	Question  string                 `json:"question"`
	Volume24h float64                `json:"volume_24h"`
	Liquidity float64                `json:"liquidity"`
	EndDate   string                 `json:"end_date,omitempty"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
}

// MarketFeed fetches currently observable markets
type MarketFeed interface {
	FetchMarkets(ctx context.Context, limit int) ([]Market, error)
}

// PositionRefresher optionally refreshes held positions before a scan
type PositionRefresher interface {
	RefreshPositions(ctx context.Context) error
}
