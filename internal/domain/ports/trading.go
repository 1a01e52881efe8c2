package ports

import "context"

// SwapClient executes on-chain swap operations for the DEX manager.
// Implementations impose their own deadlines; the core does not.
type SwapClient interface {
	// QuoteExactIn quotes the output amount for an exact-input swap
	QuoteExactIn(ctx context.Context, tokenIn, tokenOut string, amountIn float64, fee int) (float64, error)

	// ExecuteWatchlistExit closes the on-chain position behind a watchlist
	// notification and returns {success, tx_hash, …}
	ExecuteWatchlistExit(ctx context.Context, positionID, triggerType string) (map[string]interface{}, error)

	// RegisterStopLossTakeProfit arms protective triggers for a position
	RegisterStopLossTakeProfit(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)
}

// WatchlistClient is the external position-monitoring component
type WatchlistClient interface {
	ListPositions(ctx context.Context) ([]map[string]interface{}, error)

	// ClosePosition marks a position closed after an executed exit
	ClosePosition(ctx context.Context, positionID, triggerType string) error

	// EvaluateTriggers returns per-position notifications that fired
	EvaluateTriggers(ctx context.Context) ([]map[string]interface{}, error)

	// EvaluateGlobalROITrigger returns a global ROI notification, or nil
	EvaluateGlobalROITrigger(ctx context.Context) (map[string]interface{}, error)
}

// WalletClient exposes wallet/balance analysis reads
type WalletClient interface {
	GetWalletFeedback(ctx context.Context, walletAddress string) (map[string]interface{}, error)
	GetGlobalWalletState(ctx context.Context) (map[string]interface{}, error)
}

// TradeLedger records executed trades durably
type TradeLedger interface {
	RecordTrade(ctx context.Context, trade Trade) error
}

// Trade is one executed trade row
type Trade struct {
	System      string
	PositionID  string
	TokenSymbol string
	TriggerType string
	Mode        string
	EntryPrice  float64
	ExitPrice   float64
	PctChange   float64
	TxHash      string
	Success     bool
}
