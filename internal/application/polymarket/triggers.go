package polymarket

import (
	"context"
	"fmt"

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
			TriggerID:     "market_batch",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			SchedulerType: pipeline.SchedulerInterval,
			Description:   "Serialised market scan with threshold gate and daily trade limit",
			Resolver:      m.resolveMarketBatch,
		},
	}
}

// resolveMarketBatch is the single entry point for market scans. Scans are
// strictly serial; concurrent triggers return immediately. Manual triggers
// bypass the interval throttle, the threshold gate and the daily limit, and
// do not consume the cache.
func (m *Manager) resolveMarketBatch(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
	if !m.scanMu.TryLock() {
		return pipeline.Document{
			"status": "in_progress",
			"reason": "scan_in_progress",
		}, nil
	}
	defer m.scanMu.Unlock()

	m.rolloverTradeCounter()

	mode := common.StringValue(args, "mode", "interval")
	manual := mode == "manual"
	now := m.clock.Now()

	if mode == "interval" {
		m.mu.Lock()
		last := m.lastScanAt
		m.mu.Unlock()
		if !last.IsZero() && now.Sub(last) < m.scanInterval() {
			return pipeline.Document{
				"status": pipeline.StatusSkipped,
				"reason": "interval_throttle",
			}, nil
		}
	}

	if m.positions != nil && m.configBool(settings.PolyKeyRefreshPositions, true) {
		if err := m.positions.RefreshPositions(ctx); err != nil {
			m.emit("WARN", fmt.Sprintf("Position refresh failed: %v", err), nil)
		}
	}

	if m.feed == nil {
		return pipeline.Document{
			"status": pipeline.StatusSkipped,
			"reason": "market_feed_unavailable",
		}, nil
	}
	markets, err := m.feed.FetchMarkets(ctx, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	m.mu.Lock()
	m.lastScanAt = now
	m.mu.Unlock()

	if len(markets) == 0 {
		return pipeline.Document{
			"status": pipeline.StatusSkipped,
			"reason": "no_markets",
		}, nil
	}

	m.cache.Update(markets)
	m.persistFeedCache()

	if !manual && !m.cache.Ready() {
		return pipeline.Document{
			"status":     pipeline.StatusSkipped,
			"reason":     "threshold_not_met",
			"cache_size": m.cache.Len(),
		}, nil
	}

	candidates, candidateKeys := m.selectCandidates(markets, manual)
	maxTrades := m.configInt(settings.PolyKeyMaxTradesPerDay, 5)
	executionEnabled := manual || m.TradesToday() < maxTrades

	input := pipeline.Document{
		"mode":              mode,
		"reason":            common.StringValue(args, "reason", ""),
		"execution_id":      common.StringValue(args, "execution_id", ""),
		"candidates":        candidates,
		"execution_enabled": executionEnabled,
		"trades_today":      m.TradesToday(),
		"max_trades_today":  maxTrades,
	}
	results := m.hub.Run(ctx, "market_batch", input, m.snapshotFlags(), []string{"batch_orchestration"})
	m.recordTaskResults(results)

	out := pipeline.Document{}
	for k, v := range results["batch_orchestration"] {
		out[k] = v
	}

	if out["status"] == pipeline.StatusCompleted {
		if !manual {
			m.cache.MarkProcessedKeys(candidateKeys)
			m.persistFeedCache()
		}
		if executionEnabled && len(candidates) > 0 {
			m.bumpTradeCounter()
		}
	}

	if m.store != nil {
		if err := m.store.PushCycleHistory(ctx, out); err != nil {
			m.emit("WARN", fmt.Sprintf("Scan history persistence failed: %v", err), nil)
		}
	}
	return out, nil
}

// selectCandidates filters markets by the configured volume and liquidity
// floors. Manual scans read the fresh fetch; scheduled scans read the
// accumulated cache so the threshold gate and the candidate set agree.
func (m *Manager) selectCandidates(markets []ports.Market, manual bool) ([]map[string]interface{}, []string) {
	minVolume := m.configFloat(settings.PolyKeyMinVolume24h, 5000)
	minLiquidity := m.configFloat(settings.PolyKeyMinLiquidity, 1000)

	var candidates []map[string]interface{}
	var keys []string

	if manual {
		for _, market := range markets {
			if market.Volume24h < minVolume || market.Liquidity < minLiquidity {
				continue
			}
			candidates = append(candidates, map[string]interface{}{
				"id":         market.ID,
				"question":   market.Question,
				"volume_24h": market.Volume24h,
				"liquidity":  market.Liquidity,
				"end_date":   market.EndDate,
			})
			keys = append(keys, market.ID)
		}
		return candidates, keys
	}

	for _, entry := range m.cache.PendingItems() {
		volume := common.FloatValue(entry.Data, "volume_24h", 0)
		liquidity := common.FloatValue(entry.Data, "liquidity", 0)
		if volume < minVolume || liquidity < minLiquidity {
			continue
		}
		doc := map[string]interface{}{
			"id":         entry.ID,
			"first_seen": entry.FirstSeen,
			"last_seen":  entry.LastSeen,
		}
		for k, v := range entry.Data {
			doc[k] = v
		}
		candidates = append(candidates, doc)
		keys = append(keys, entry.ID)
	}
	return candidates, keys
}

func (m *Manager) recordTaskResults(results map[string]pipeline.Document) {
	for id, doc := range results {
		status, _ := doc["status"].(string)
		metrics.RecordTaskRun(PipelineName, id, status)
	}
}
