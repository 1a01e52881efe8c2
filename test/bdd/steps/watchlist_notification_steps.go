package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/dex"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/test/helpers"
)

// watchlistNotificationContext holds the dex manager and its mocked trading
// clients for the watchlist notification scenarios
type watchlistNotificationContext struct {
	manager   *dex.Manager
	kv        *store.MemoryStore
	swap      *helpers.MockSwapClient
	watchlist *helpers.MockWatchlistClient
	workforce *helpers.MockWorkforce
	result    pipeline.Document
}

func (wc *watchlistNotificationContext) reset() {
	wc.manager = nil
	wc.kv = nil
	wc.swap = nil
	wc.watchlist = nil
	wc.workforce = nil
	wc.result = nil
}

func (wc *watchlistNotificationContext) aDexManagerWithMockedTradingClients() error {
	wc.kv = store.NewMemoryStore()
	wc.swap = helpers.NewMockSwapClient()
	wc.watchlist = helpers.NewMockWatchlistClient()
	wc.workforce = helpers.NewMockWorkforce()

	manager, err := dex.NewManager(nil, dex.Deps{
		Clock:            shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)),
		Store:            store.NewManagerStore(wc.kv, nil, "dex", ""),
		Swap:             wc.swap,
		Watchlist:        wc.watchlist,
		Wallet:           helpers.NewMockWalletClient(),
		WorkforceFactory: func() interface{} { return wc.workforce },
		WalletAddress:    "0xwallet",
	})
	if err != nil {
		return fmt.Errorf("build dex manager: %w", err)
	}
	wc.manager = manager
	return nil
}

func (wc *watchlistNotificationContext) aNotificationFiresForPosition(triggerType, positionID string, pctMove int) error {
	if wc.manager == nil {
		return fmt.Errorf("no dex manager available")
	}
	wc.result = wc.manager.Triggers().Run(context.Background(), "watchlist_notification", pipeline.Document{
		"trigger_type": triggerType,
		"position_id":  positionID,
		"token_symbol": "WETH",
		"pct_change":   float64(pctMove) / 100,
	})
	return nil
}

func (wc *watchlistNotificationContext) aGlobalROINotificationFires() error {
	if wc.manager == nil {
		return fmt.Errorf("no dex manager available")
	}
	wc.result = wc.manager.Triggers().Run(context.Background(), "watchlist_notification", pipeline.Document{
		"trigger_type": "global_roi",
	})
	return nil
}

func (wc *watchlistNotificationContext) theSwapExitExecutesExactlyOnceFor(positionID string) error {
	calls := wc.swap.ExitCalls()
	if len(calls) != 1 {
		return fmt.Errorf("expected exactly one swap exit, got %d", len(calls))
	}
	if calls[0] != positionID {
		return fmt.Errorf("expected exit for position %s, got %s", positionID, calls[0])
	}
	return nil
}

func (wc *watchlistNotificationContext) noSwapExitExecutes() error {
	if calls := wc.swap.ExitCalls(); len(calls) != 0 {
		return fmt.Errorf("expected no swap exits, got %d", len(calls))
	}
	return nil
}

func (wc *watchlistNotificationContext) positionIsClosedOnTheWatchlist(positionID string) error {
	for _, id := range wc.watchlist.Closed() {
		if id == positionID {
			return nil
		}
	}
	return fmt.Errorf("position %s was not closed on the watchlist", positionID)
}

func (wc *watchlistNotificationContext) theTradeIsRecordedInTheTradeHistory() error {
	entries, err := wc.kv.LRange(context.Background(), "dex:history:trades", 0, -1)
	if err != nil {
		return fmt.Errorf("read trade history: %w", err)
	}
	if len(entries) != 1 {
		return fmt.Errorf("expected one trade history entry, got %d", len(entries))
	}
	return nil
}

func (wc *watchlistNotificationContext) theFollowUpReviewRunsInMode(mode string) error {
	got, _ := wc.result["review_mode"].(string)
	if got != mode {
		return fmt.Errorf("expected review mode %s, got %s", mode, got)
	}
	return nil
}

func (wc *watchlistNotificationContext) aFullTraderCycleRunsInstead() error {
	tasks, ok := wc.result["tasks"].(map[string]pipeline.Document)
	if !ok {
		return fmt.Errorf("expected cycle task results on the notification document")
	}
	if _, ok := tasks["cycle_pipeline"]; !ok {
		return fmt.Errorf("expected the cycle pipeline to run")
	}
	for _, entry := range wc.manager.Triggers().History(0) {
		if entry.TriggerID == "cycle" {
			return nil
		}
	}
	return fmt.Errorf("no cycle trigger invocation recorded")
}

// InitializeWatchlistNotificationScenario registers the watchlist
// notification steps
func InitializeWatchlistNotificationScenario(ctx *godog.ScenarioContext) {
	wc := &watchlistNotificationContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		wc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a dex manager with mocked trading clients$`, wc.aDexManagerWithMockedTradingClients)

	// When steps
	ctx.Step(`^a "([^"]*)" notification fires for position "([^"]*)" with a price move of (\d+) percent$`, wc.aNotificationFiresForPosition)
	ctx.Step(`^a global ROI notification fires$`, wc.aGlobalROINotificationFires)

	// Then steps
	ctx.Step(`^the swap exit executes exactly once for position "([^"]*)"$`, wc.theSwapExitExecutesExactlyOnceFor)
	ctx.Step(`^no swap exit executes$`, wc.noSwapExitExecutes)
	ctx.Step(`^position "([^"]*)" is closed on the watchlist$`, wc.positionIsClosedOnTheWatchlist)
	ctx.Step(`^the trade is recorded in the trade history$`, wc.theTradeIsRecordedInTheTradeHistory)
	ctx.Step(`^the follow-up review runs in "([^"]*)" mode$`, wc.theFollowUpReviewRunsInMode)
	ctx.Step(`^a full trader cycle runs instead$`, wc.aFullTraderCycleRunsInstead)
}
