// Package polymarket implements the prediction-market manager: the market
// feed cache, the threshold-gated batch scan and its worker loops.
package polymarket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/metrics"
	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/settings"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/worker"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/feed"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/trigger"
)

const (
	// PipelineName identifies this manager in specs and metrics
	PipelineName = "polymarket"
	// SystemName is the owning system label on task and trigger specs
	SystemName = "polymarket_trader"

	// FeedCacheFile is the disk mirror of the in-memory feed cache
	FeedCacheFile = "logs/polymarket_feed_cache.json"

	// minScanInterval floors the interval scan worker
	minScanInterval = 30 * time.Second

	// fetchLimit is how many markets one scan requests from the feed
	fetchLimit = 100
)

// Deps are the collaborators injected into the manager. Store, Files, Feed
// and Positions may be nil; affected paths degrade to skips and WARN events.
type Deps struct {
	Clock            shared.Clock
	Logger           common.EventLogger
	Store            *store.ManagerStore
	Files            *store.FileStore
	Feed             ports.MarketFeed
	Positions        ports.PositionRefresher
	WorkforceFactory func() interface{}
}

// Manager owns the Polymarket pipeline: feed cache, batch trigger, daily
// trade counter and the scan worker loops.
type Manager struct {
	mu      sync.Mutex
	running bool
	flags   map[string]bool
	config  *common.ManagerConfig

	// scanMu serialises market scans; concurrent triggers bounce off it
	scanMu sync.Mutex

	lastScanAt  time.Time
	tradesToday int
	tradeDay    time.Time // UTC midnight of the counted day

	hub      *pipeline.Hub
	triggers *trigger.Registry
	tracker  *execution.Tracker
	workers  *worker.HybridWorker
	cache    *worker.FeedThresholdWorker[ports.Market]

	scanWorker *worker.IntervalWorker

	clock     shared.Clock
	logger    common.EventLogger
	store     *store.ManagerStore
	files     *store.FileStore
	feed      ports.MarketFeed
	positions ports.PositionRefresher

	workforceOnce    sync.Once
	workforce        interface{}
	workforceFactory func() interface{}
}

// NewManager creates a Polymarket manager around the given config snapshot
// and restores the feed cache from its disk mirror when present.
func NewManager(cfg *common.ManagerConfig, deps Deps) (*Manager, error) {
	clock := deps.Clock
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if cfg == nil {
		cfg = common.NewManagerConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}

	m := &Manager{
		flags:            make(map[string]bool),
		config:           cfg.Clone(),
		hub:              pipeline.NewHub(),
		triggers:         trigger.NewRegistry(clock),
		tracker:          execution.NewTracker(clock),
		clock:            clock,
		logger:           logger,
		store:            deps.Store,
		files:            deps.Files,
		feed:             deps.Feed,
		positions:        deps.Positions,
		workforceFactory: deps.WorkforceFactory,
	}

	m.cache = worker.NewFeedThresholdWorker(
		m.configInt(settings.PolyKeyMaxCache, 50),
		m.configInt(settings.PolyKeyReviewThreshold, 5),
		func(market ports.Market) string { return market.ID },
		buildMarketEntry,
		nil,
		clock,
	)
	m.restoreFeedCache()

	if err := m.hub.RegisterMany(m.taskSpecs()); err != nil {
		return nil, fmt.Errorf("register polymarket task flows: %w", err)
	}
	if err := m.triggers.RegisterMany(m.triggerSpecs()); err != nil {
		return nil, fmt.Errorf("register polymarket trigger flows: %w", err)
	}

	m.triggers.SetObserver(func(triggerID, status string, elapsed time.Duration) {
		metrics.RecordTriggerRun(PipelineName, triggerID, status, elapsed.Seconds())
	})
	m.tracker.SetObserver(func(mode string, status execution.Status, elapsed time.Duration) {
		metrics.RecordExecution(mode, status, elapsed)
		metrics.SetInFlight(m.tracker.InFlight())
	})

	m.scanWorker = worker.NewIntervalWorker(
		"polymarket_scan",
		m.scanInterval(),
		minScanInterval,
		m.scanTick,
		clock,
	)
	return m, nil
}

// buildMarketEntry folds one observed market into its cache entry
func buildMarketEntry(market ports.Market, existing *feed.Entry, now time.Time) *feed.Entry {
	entry := &feed.Entry{
		ID:       market.ID,
		LastSeen: now,
		Data: map[string]interface{}{
			"question":   market.Question,
			"volume_24h": market.Volume24h,
			"liquidity":  market.Liquidity,
			"end_date":   market.EndDate,
		},
	}
	if existing != nil {
		entry.FirstSeen = existing.FirstSeen
		entry.Exhausted = existing.Exhausted
	} else {
		entry.FirstSeen = now
	}
	return entry
}

// Running reports whether the worker set is active
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Config returns a deep copy of the current config snapshot
func (m *Manager) Config() *common.ManagerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Clone()
}

// Tracker exposes the execution tracker to the service layer
func (m *Manager) Tracker() *execution.Tracker {
	return m.tracker
}

// Triggers exposes the trigger flow registry to the service layer
func (m *Manager) Triggers() *trigger.Registry {
	return m.triggers
}

// CacheLen returns the current feed cache size
func (m *Manager) CacheLen() int {
	return m.cache.Len()
}

// ListTaskFlows returns the registered task flows with resolved enabled
// status
func (m *Manager) ListTaskFlows() []pipeline.Row {
	return m.hub.List(m.snapshotFlags())
}

// UpdateTaskFlows merges boolean overrides into the flag map and returns
// the updated flow list
func (m *Manager) UpdateTaskFlows(updates map[string]bool) []pipeline.Row {
	m.mu.Lock()
	for k, v := range updates {
		m.flags[k] = v
	}
	m.mu.Unlock()
	return m.hub.List(m.snapshotFlags())
}

// Start spawns the scan worker loops selected by the hybrid settings.
// Idempotent.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}

	intervalEnabled := common.BoolValue(m.config.Process, settings.PolyKeyIntervalEnabled, true)
	signalEnabled := common.BoolValue(m.config.Process, settings.PolyKeySignalEnabled, true)
	if !intervalEnabled && !signalEnabled {
		m.mu.Unlock()
		m.emit("WARN", "Polymarket manager start requested with no scan components enabled", nil)
		return nil
	}
	m.running = true

	workers := worker.NewHybridWorker()
	if intervalEnabled {
		workers.RegisterRunner("interval_scan", func(ctx context.Context) error {
			return m.scanWorker.Run(ctx, m.Running)
		})
	}
	if signalEnabled {
		signalWorker := m.newSignalWorker()
		workers.RegisterRunner("signal_scan", func(ctx context.Context) error {
			return signalWorker.Run(ctx, m.Running)
		})
	}
	m.workers = workers
	m.mu.Unlock()

	if err := workers.Start(common.WithLogger(ctx, m.logger)); err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return fmt.Errorf("start polymarket workers: %w", err)
	}

	m.emit("INFO", "Polymarket manager started", map[string]interface{}{
		"interval_enabled": intervalEnabled,
		"signal_enabled":   signalEnabled,
	})
	return nil
}

// Stop clears the running flag, stops the worker loops, persists the feed
// cache and cancels in-flight executions. Idempotent.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	workers := m.workers
	m.mu.Unlock()

	if workers != nil {
		workers.Stop()
	}
	m.tracker.CancelAll(ctx)
	m.persistFeedCache()
	m.emit("INFO", "Polymarket manager stopped", nil)
}

// TriggerBatch launches a tracked asynchronous market batch and returns an
// acceptance document with the execution id.
func (m *Manager) TriggerBatch(mode, reason string) map[string]interface{} {
	id := m.tracker.Launch(mode, reason, func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		doc := m.RunMarketBatch(common.WithLogger(ctx, m.logger), mode, reason, executionID)
		if doc["status"] == pipeline.StatusFailed {
			return doc, fmt.Errorf("market batch failed: %v", doc["error"])
		}
		return doc, nil
	})
	return map[string]interface{}{
		"status":       "accepted",
		"execution_id": id,
	}
}

// RunMarketBatch delegates to the market_batch trigger flow
func (m *Manager) RunMarketBatch(ctx context.Context, mode, reason, executionID string) map[string]interface{} {
	args := pipeline.Document{
		"mode":   mode,
		"reason": reason,
	}
	if executionID != "" {
		args["execution_id"] = executionID
	}
	return m.triggers.Run(ctx, "market_batch", args)
}

// ApplyConfig replaces the config snapshot and projects tunables into the
// cache bounds and the running scan worker.
func (m *Manager) ApplyConfig(cfg *common.ManagerConfig) {
	m.mu.Lock()
	m.config = cfg.Clone()
	m.mu.Unlock()

	m.cache.SetLimits(
		m.configInt(settings.PolyKeyMaxCache, 50),
		m.configInt(settings.PolyKeyReviewThreshold, 5),
	)
	m.scanWorker.SetInterval(m.scanInterval())
	m.emit("INFO", "Polymarket config applied", map[string]interface{}{
		"scan_interval_seconds": m.scanWorker.Interval().Seconds(),
		"max_cache":             m.configInt(settings.PolyKeyMaxCache, 50),
		"review_threshold":      m.configInt(settings.PolyKeyReviewThreshold, 5),
	})
}

// scanTick runs one interval-typed market batch
func (m *Manager) scanTick(ctx context.Context) error {
	doc := m.RunMarketBatch(ctx, "interval", "scheduled_scan", "")
	if doc["status"] == pipeline.StatusFailed {
		return fmt.Errorf("scheduled scan failed: %v", doc["error"])
	}
	return nil
}

// newSignalWorker polls the cache for threshold readiness and fires a
// signal-typed batch when it is reached.
func (m *Manager) newSignalWorker() *worker.IntervalWorker {
	return worker.NewIntervalWorker(
		"polymarket_signal",
		minScanInterval,
		minScanInterval,
		func(ctx context.Context) error {
			if !m.cache.Ready() {
				return nil
			}
			doc := m.RunMarketBatch(ctx, "signal", "threshold_reached", "")
			if doc["status"] == pipeline.StatusFailed {
				return fmt.Errorf("signal scan failed: %v", doc["error"])
			}
			return nil
		},
		m.clock,
	)
}

// rolloverTradeCounter resets the daily counter at UTC midnight
func (m *Manager) rolloverTradeCounter() {
	today := m.clock.Now().UTC().Truncate(24 * time.Hour)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tradeDay.Equal(today) {
		m.tradeDay = today
		m.tradesToday = 0
	}
}

// TradesToday returns the current daily trade count
func (m *Manager) TradesToday() int {
	m.rolloverTradeCounter()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tradesToday
}

func (m *Manager) bumpTradeCounter() {
	m.mu.Lock()
	m.tradesToday++
	count := m.tradesToday
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.IncrMetric(context.Background(), "trades_today", 1); err != nil {
			m.emit("WARN", fmt.Sprintf("Trade counter persistence failed: %v", err), nil)
		}
	}
	m.emit("INFO", "Polymarket trade counted", map[string]interface{}{
		"trades_today": count,
	})
}

// ensureWorkforce builds the workforce collaborator lazily on first use
func (m *Manager) ensureWorkforce() interface{} {
	m.workforceOnce.Do(func() {
		if m.workforceFactory != nil {
			m.workforce = m.workforceFactory()
		}
	})
	return m.workforce
}

// persistFeedCache mirrors the cache to disk; failures are WARN-level
func (m *Manager) persistFeedCache() {
	if m.files == nil {
		return
	}
	if err := m.files.SaveJSON(FeedCacheFile, m.cache.Snapshot()); err != nil {
		m.emit("WARN", fmt.Sprintf("Feed cache persistence failed: %v", err), nil)
	}
}

// restoreFeedCache loads the disk mirror when present
func (m *Manager) restoreFeedCache() {
	if m.files == nil {
		return
	}
	var snap feed.Snapshot
	if err := m.files.LoadJSON(FeedCacheFile, &snap); err != nil {
		if err != store.ErrNotFound {
			m.emit("WARN", fmt.Sprintf("Feed cache restore failed: %v", err), nil)
		}
		return
	}
	m.cache.Restore(snap)
}

func (m *Manager) scanInterval() time.Duration {
	return time.Duration(m.configInt(settings.PolyKeyScanInterval, 1800)) * time.Second
}

func (m *Manager) snapshotFlags() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	flags := make(map[string]bool, len(m.flags))
	for k, v := range m.flags {
		flags[k] = v
	}
	return flags
}

func (m *Manager) configFloat(key string, def float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return common.FloatValue(m.config.Process, key, def)
}

func (m *Manager) configInt(key string, def int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return common.IntValue(m.config.Process, key, def)
}

func (m *Manager) configBool(key string, def bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return common.BoolValue(m.config.Process, key, def)
}

// emit sends one event to the logger and the durable log list. Persistence
// failures are logged at WARN and never block the caller.
func (m *Manager) emit(level, message string, ctx map[string]interface{}) {
	m.logger.Log(level, message, ctx)
	if m.store == nil {
		return
	}
	event := common.Event{
		Timestamp: m.clock.Now().UTC(),
		Level:     level,
		Message:   message,
		Context:   ctx,
	}
	if err := m.store.AppendLog(context.Background(), event); err != nil {
		m.logger.Log("WARN", fmt.Sprintf("Event log persistence failed: %v", err), nil)
	}
}
