// Package dex implements the autonomous DEX trading manager: cycle and
// watchlist worker loops, pipeline tasks, trigger flows and execution
// tracking.
package dex

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
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/trigger"
)

const (
	// PipelineName identifies this manager in specs and metrics
	PipelineName = "dex"
	// SystemName is the owning system label on task and trigger specs
	SystemName = "uviswap_trader"

	// minCycleInterval floors the cycle worker
	minCycleInterval = 60 * time.Second
	// defaultWalletReviewTTL bounds how often wallet feedback is refetched
	defaultWalletReviewTTL = 15 * time.Minute
)

// Deps are the collaborators injected into the manager. Store, Ledger and
// the trading clients may be nil; the affected paths degrade to skips and
// WARN events.
type Deps struct {
	Clock            shared.Clock
	Logger           common.EventLogger
	Store            *store.ManagerStore
	Ledger           ports.TradeLedger
	Swap             ports.SwapClient
	Watchlist        ports.WatchlistClient
	Wallet           ports.WalletClient
	WorkforceFactory func() interface{}
	WalletAddress    string
}

type cachedDoc struct {
	doc       map[string]interface{}
	fetchedAt time.Time
}

// Manager owns the DEX pipeline: task-flow hub, trigger registry, execution
// tracker and the cycle/watchlist worker loops. The service layer is the
// only config mutator; tasks read snapshots.
type Manager struct {
	mu           sync.Mutex
	running      bool
	cycleEnabled bool
	watchEnabled bool
	flags        map[string]bool
	config       *common.ManagerConfig
	lastCycleAt  time.Time

	hub      *pipeline.Hub
	triggers *trigger.Registry
	tracker  *execution.Tracker
	workers  *worker.HybridWorker

	cycleWorker *worker.IntervalWorker

	clock         shared.Clock
	logger        common.EventLogger
	store         *store.ManagerStore
	ledger        ports.TradeLedger
	swap          ports.SwapClient
	watchlist     ports.WatchlistClient
	wallet        ports.WalletClient
	walletAddress string

	workforceOnce    sync.Once
	workforce        interface{}
	workforceFactory func() interface{}

	walletReviews map[string]cachedDoc
	lastHintAt    time.Time
}

// NewManager creates a DEX manager around the given config snapshot.
// If deps.Clock is nil, uses RealClock.
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
		ledger:           deps.Ledger,
		swap:             deps.Swap,
		watchlist:        deps.Watchlist,
		wallet:           deps.Wallet,
		walletAddress:    deps.WalletAddress,
		workforceFactory: deps.WorkforceFactory,
		walletReviews:    make(map[string]cachedDoc),
	}

	if err := m.hub.RegisterMany(m.taskSpecs()); err != nil {
		return nil, fmt.Errorf("register dex task flows: %w", err)
	}
	if err := m.triggers.RegisterMany(m.triggerSpecs()); err != nil {
		return nil, fmt.Errorf("register dex trigger flows: %w", err)
	}

	m.triggers.SetObserver(func(triggerID, status string, elapsed time.Duration) {
		metrics.RecordTriggerRun(PipelineName, triggerID, status, elapsed.Seconds())
	})
	m.tracker.SetObserver(func(mode string, status execution.Status, elapsed time.Duration) {
		metrics.RecordExecution(mode, status, elapsed)
		metrics.SetInFlight(m.tracker.InFlight())
	})

	m.cycleWorker = worker.NewIntervalWorker(
		"dex_cycle",
		m.cycleInterval(),
		minCycleInterval,
		m.cycleTick,
		clock,
	)
	return m, nil
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

// ListTaskFlows returns the registered task flows with resolved enabled
// status
func (m *Manager) ListTaskFlows() []pipeline.Row {
	m.mu.Lock()
	flags := make(map[string]bool, len(m.flags))
	for k, v := range m.flags {
		flags[k] = v
	}
	m.mu.Unlock()
	return m.hub.List(flags)
}

// UpdateTaskFlows merges boolean overrides into the flag map and returns
// the updated flow list
func (m *Manager) UpdateTaskFlows(updates map[string]bool) []pipeline.Row {
	m.mu.Lock()
	for k, v := range updates {
		m.flags[k] = v
	}
	flags := make(map[string]bool, len(m.flags))
	for k, v := range m.flags {
		flags[k] = v
	}
	m.mu.Unlock()

	m.emit("INFO", "Task flow flags updated", map[string]interface{}{
		"updates": updates,
	})
	return m.hub.List(flags)
}

// Start spawns the cycle and/or watchlist loops. Idempotent; both flags
// false emits a warning and starts nothing.
func (m *Manager) Start(ctx context.Context, cycleEnabled, watchlistEnabled bool) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	if !cycleEnabled && !watchlistEnabled {
		m.mu.Unlock()
		m.emit("WARN", "DEX manager start requested with no loops enabled", nil)
		return nil
	}
	m.cycleEnabled = cycleEnabled
	m.watchEnabled = watchlistEnabled
	m.running = true

	// A fresh worker set per start keeps restart steady-state identical to
	// the initial start.
	workers := worker.NewHybridWorker()
	if cycleEnabled {
		workers.RegisterRunner("cycle", func(ctx context.Context) error {
			return m.cycleWorker.Run(ctx, m.Running)
		})
	}
	if watchlistEnabled {
		watchWorker := m.newWatchlistWorker()
		workers.RegisterRunner("watchlist", func(ctx context.Context) error {
			return watchWorker.Run(ctx, m.watchlistActive)
		})
	}
	m.workers = workers
	m.mu.Unlock()

	if err := workers.Start(common.WithLogger(ctx, m.logger)); err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return fmt.Errorf("start dex workers: %w", err)
	}

	m.emit("INFO", "DEX manager started", map[string]interface{}{
		"cycle_enabled":     cycleEnabled,
		"watchlist_enabled": watchlistEnabled,
	})
	return nil
}

// Stop clears the running flag, stops the worker loops and cancels in-flight
// executions. Idempotent.
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
	m.emit("INFO", "DEX manager stopped", nil)
}

// TriggerCycle launches a tracked asynchronous trader cycle and returns an
// acceptance document with the execution id.
func (m *Manager) TriggerCycle(mode, reason string) map[string]interface{} {
	id := m.LaunchExecution(mode, reason)
	return map[string]interface{}{
		"status":       "accepted",
		"execution_id": id,
	}
}

// LaunchExecution hands a trader cycle to the execution tracker
func (m *Manager) LaunchExecution(mode, reason string) string {
	return m.tracker.Launch(mode, reason, func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		doc := m.RunTraderCycle(common.WithLogger(ctx, m.logger), mode, reason, executionID)
		if doc["status"] == pipeline.StatusFailed {
			return doc, fmt.Errorf("trader cycle failed: %v", doc["error"])
		}
		return doc, nil
	})
}

// RunTraderCycle delegates to the cycle trigger flow
func (m *Manager) RunTraderCycle(ctx context.Context, mode, reason, executionID string) map[string]interface{} {
	args := pipeline.Document{
		"mode":   mode,
		"reason": reason,
	}
	if executionID != "" {
		args["execution_id"] = executionID
	}
	return m.triggers.Run(ctx, "cycle", args)
}

// ApplyConfig replaces the config snapshot and projects tunables into the
// running workers. The cycle interval updates live; the next sleep observes
// the new value.
func (m *Manager) ApplyConfig(cfg *common.ManagerConfig) {
	m.mu.Lock()
	m.config = cfg.Clone()
	m.mu.Unlock()

	m.cycleWorker.SetInterval(m.cycleInterval())
	m.emit("INFO", "DEX config applied", map[string]interface{}{
		"cycle_interval_seconds": m.cycleWorker.Interval().Seconds(),
	})
}

// cycleTick runs one scheduled trader cycle synchronously so cycles never
// pile up behind a slow workforce.
func (m *Manager) cycleTick(ctx context.Context) error {
	doc := m.RunTraderCycle(ctx, "long_study", "scheduled_cycle", "")
	if doc["status"] == pipeline.StatusFailed {
		return fmt.Errorf("scheduled cycle failed: %v", doc["error"])
	}
	m.mu.Lock()
	m.lastCycleAt = m.clock.Now()
	m.mu.Unlock()
	return nil
}

// newWatchlistWorker builds the conditional notification loop from the
// current config snapshot.
func (m *Manager) newWatchlistWorker() *worker.ConditionalWorker[map[string]interface{}] {
	interval := time.Duration(m.configInt(settings.DexKeyWatchlistScanInterval, 60)) * time.Second
	return worker.NewConditionalWorker(
		"dex_watchlist",
		interval,
		m.fetchWatchlistNotifications,
		m.notificationFires,
		m.handleWatchlistNotification,
		m.clock,
	)
}

// fetchWatchlistNotifications collects the global ROI notification (if any)
// followed by per-position trigger notifications.
func (m *Manager) fetchWatchlistNotifications(ctx context.Context) ([]map[string]interface{}, error) {
	if m.watchlist == nil {
		return nil, nil
	}

	var items []map[string]interface{}
	global, err := m.watchlist.EvaluateGlobalROITrigger(ctx)
	if err != nil {
		m.emit("WARN", fmt.Sprintf("Global ROI evaluation failed: %v", err), nil)
	} else if len(global) > 0 {
		if _, ok := global["trigger_type"]; !ok {
			global["trigger_type"] = "global_roi"
		}
		items = append(items, global)
	}

	perPosition, err := m.watchlist.EvaluateTriggers(ctx)
	if err != nil {
		return items, fmt.Errorf("evaluate watchlist triggers: %w", err)
	}
	return append(items, perPosition...), nil
}

// notificationFires applies the configured trigger threshold. A threshold
// of zero disables per-position triggers; global ROI notifications always
// pass.
func (m *Manager) notificationFires(item map[string]interface{}) bool {
	if common.StringValue(item, "trigger_type", "") == "global_roi" {
		return true
	}
	threshold := m.configFloat(settings.DexKeyWatchlistTriggerPct, 0.05)
	if threshold <= 0 {
		return false
	}
	pct := common.FloatValue(item, "pct_change", 0)
	if pct < 0 {
		pct = -pct
	}
	return pct >= threshold
}

// handleWatchlistNotification dispatches one notification through the
// watchlist_notification trigger flow.
func (m *Manager) handleWatchlistNotification(ctx context.Context, item map[string]interface{}) error {
	doc := m.triggers.Run(ctx, "watchlist_notification", item)
	if doc["status"] == pipeline.StatusFailed {
		return fmt.Errorf("watchlist notification failed: %v", doc["error"])
	}
	return nil
}

func (m *Manager) watchlistActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return false
	}
	return common.BoolValue(m.config.Runtime, settings.DexKeyWatchlistEnabled, true)
}

// ensureWorkforce builds the workforce collaborator lazily on first use;
// concurrent first-callers serialise on the once-guard.
func (m *Manager) ensureWorkforce() interface{} {
	m.workforceOnce.Do(func() {
		if m.workforceFactory != nil {
			m.workforce = m.workforceFactory()
		}
	})
	return m.workforce
}

// walletReview returns wallet feedback for the address, cached with a TTL
// so back-to-back cycles reuse one fetch.
func (m *Manager) walletReview(ctx context.Context, address string) map[string]interface{} {
	if m.wallet == nil || address == "" {
		return nil
	}

	ttl := time.Duration(m.configInt("wallet_review_ttl_seconds", int(defaultWalletReviewTTL.Seconds()))) * time.Second
	now := m.clock.Now()

	m.mu.Lock()
	cached, ok := m.walletReviews[address]
	m.mu.Unlock()
	if ok && now.Sub(cached.fetchedAt) < ttl {
		return cached.doc
	}

	doc, err := m.wallet.GetWalletFeedback(ctx, address)
	if err != nil {
		m.emit("WARN", fmt.Sprintf("Wallet feedback fetch failed: %v", err), map[string]interface{}{
			"wallet_address": address,
		})
		if ok {
			return cached.doc
		}
		return nil
	}

	m.mu.Lock()
	m.walletReviews[address] = cachedDoc{doc: doc, fetchedAt: now}
	m.mu.Unlock()
	return doc
}

// strategyHintDue reports whether a strategy hint stage should run this
// cycle and consumes the interval when it is.
func (m *Manager) strategyHintDue() bool {
	if !m.configBool(settings.DexKeyStrategyEnabled, true) {
		return false
	}
	interval := time.Duration(m.configFloat(settings.DexKeyStrategyHintHours, 12) * float64(time.Hour))
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.lastHintAt.IsZero() && now.Sub(m.lastHintAt) < interval {
		return false
	}
	m.lastHintAt = now
	return true
}

func (m *Manager) cycleInterval() time.Duration {
	hours := m.configFloat(settings.DexKeyCycleHours, 4)
	return time.Duration(hours * float64(time.Hour))
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
