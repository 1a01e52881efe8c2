package dex

import (
	"context"
	"fmt"
	"strings"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/metrics"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/settings"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/trigger"
)

func (m *Manager) triggerSpecs() []*trigger.FlowSpec {
	return []*trigger.FlowSpec{
		{
			TriggerID:     "cycle",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			SchedulerType: pipeline.SchedulerInterval,
			Description:   "Run the full trader cycle pipeline",
			Resolver:      m.resolveCycle,
		},
		{
			TriggerID:     "watchlist_review",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			SchedulerType: pipeline.SchedulerEvent,
			Description:   "Review watchlist positions; fast mode escalates to a full cycle",
			Resolver:      m.resolveWatchlistReview,
		},
		{
			TriggerID:     "watchlist_notification",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			SchedulerType: pipeline.SchedulerEvent,
			Description:   "Handle a fired watchlist notification: exit, record, review",
			Resolver:      m.resolveWatchlistNotification,
		},
	}
}

// resolveCycle runs only cycle_pipeline and flattens its result into the
// trigger document. The trigger type can be overridden by re-dispatching
// flows (global ROI).
func (m *Manager) resolveCycle(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
	triggerType := common.StringValue(args, "trigger_type", "cycle")
	results := m.hub.Run(ctx, triggerType, args, m.snapshotFlags(), []string{"cycle_pipeline"})
	m.recordTaskResults(results)

	out := pipeline.Document{}
	for k, v := range results["cycle_pipeline"] {
		out[k] = v
	}
	out["tasks"] = results

	if m.store != nil {
		if err := m.store.PushCycleHistory(ctx, out); err != nil {
			m.emit("WARN", fmt.Sprintf("Cycle history persistence failed: %v", err), nil)
		}
	}
	return out, nil
}

// resolveWatchlistReview runs the review pipeline, or escalates fast mode
// to the cycle trigger.
func (m *Manager) resolveWatchlistReview(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
	mode := common.StringValue(args, "mode", "long_study")
	if mode == "fast_decision" {
		return m.triggers.Run(ctx, "cycle", pipeline.Document{
			"mode":   mode,
			"reason": "watchlist_fast_trigger",
		}), nil
	}

	results := m.hub.Run(ctx, "watchlist_review", args, m.snapshotFlags(), []string{"watchlist_review_pipeline"})
	m.recordTaskResults(results)

	out := pipeline.Document{}
	for k, v := range results["watchlist_review_pipeline"] {
		out[k] = v
	}
	return out, nil
}

// resolveWatchlistNotification handles one fired notification. Global ROI
// redirects to a full cycle; anything else executes the on-chain exit,
// records the trade, closes the position and follows up with a review in
// fast or long mode depending on the move's magnitude.
func (m *Manager) resolveWatchlistNotification(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
	triggerType := common.StringValue(args, "trigger_type", "")
	if triggerType == "global_roi" {
		return m.triggers.Run(ctx, "cycle", pipeline.Document{
			"trigger_type": "watchlist_global_roi_trigger",
			"mode":         common.StringValue(args, "mode", "fast_decision"),
			"reason":       "global_roi_trigger",
		}), nil
	}

	if m.swap == nil {
		return pipeline.Document{
			"status": pipeline.StatusSkipped,
			"reason": "swap_client_unavailable",
		}, nil
	}

	positionID := common.StringValue(args, "position_id", "")
	exitResult, err := m.swap.ExecuteWatchlistExit(ctx, positionID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("execute watchlist exit for %s: %w", positionID, err)
	}

	m.recordTrade(ctx, args, exitResult, triggerType)

	if m.watchlist != nil {
		if err := m.watchlist.ClosePosition(ctx, positionID, triggerType); err != nil {
			m.emit("WARN", fmt.Sprintf("Close position failed: %v", err), map[string]interface{}{
				"position_id": positionID,
			})
		}
	}

	pct := common.FloatValue(args, "pct_change", 0)
	if pct < 0 {
		pct = -pct
	}
	mode := "long_study"
	if pct >= m.configFloat(settings.DexKeyWatchlistFastPct, 0.10) {
		mode = "fast_decision"
	}
	review := m.triggers.Run(ctx, "watchlist_review", pipeline.Document{
		"mode":   mode,
		"reason": "watchlist_" + triggerType,
	})

	return pipeline.Document{
		"status":      pipeline.StatusCompleted,
		"position_id": positionID,
		"exit":        exitResult,
		"review":      review,
		"review_mode": mode,
	}, nil
}

// recordTrade persists one executed trade to the capped history list, the
// durable ledger and the metrics pipeline. All failures are WARN-level.
func (m *Manager) recordTrade(ctx context.Context, args, exitResult pipeline.Document, triggerType string) {
	success := common.BoolValue(exitResult, "success", false)
	trade := ports.Trade{
		System:      SystemName,
		PositionID:  common.StringValue(args, "position_id", ""),
		TokenSymbol: common.StringValue(args, "token_symbol", ""),
		TriggerType: triggerType,
		Mode:        common.StringValue(args, "mode", ""),
		EntryPrice:  common.FloatValue(args, "entry_price", 0),
		ExitPrice:   common.FloatValue(args, "current_price", 0),
		PctChange:   common.FloatValue(args, "pct_change", 0),
		TxHash:      common.StringValue(exitResult, "tx_hash", ""),
		Success:     success,
	}

	if m.store != nil {
		doc := map[string]interface{}{
			"position_id":  trade.PositionID,
			"token_symbol": trade.TokenSymbol,
			"trigger_type": trade.TriggerType,
			"entry_price":  trade.EntryPrice,
			"exit_price":   trade.ExitPrice,
			"pct_change":   trade.PctChange,
			"tx_hash":      trade.TxHash,
			"success":      trade.Success,
		}
		if err := m.store.PushTradeHistory(ctx, doc); err != nil {
			m.emit("WARN", fmt.Sprintf("Trade history persistence failed: %v", err), nil)
		}
		if pair := common.StringValue(args, "pool_pair", ""); pair != "" {
			if err := m.store.SetPoolIndex(ctx, pair, strings.Split(pair, "/"), doc); err != nil {
				m.emit("WARN", fmt.Sprintf("Pool index write failed: %v", err), nil)
			}
		}
	}
	if m.ledger != nil {
		if err := m.ledger.RecordTrade(ctx, trade); err != nil {
			m.emit("WARN", fmt.Sprintf("Trade ledger write failed: %v", err), nil)
		}
	}
	metrics.RecordTrade(PipelineName, triggerType, success)
}

func (m *Manager) recordTaskResults(results map[string]pipeline.Document) {
	for id, doc := range results {
		status, _ := doc["status"].(string)
		metrics.RecordTaskRun(PipelineName, id, status)
	}
}
