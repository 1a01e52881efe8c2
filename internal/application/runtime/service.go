// Package runtime wires the managers, settings registry and persistence
// into the single service the daemon exposes.
package runtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/dex"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/polymarket"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/settings"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/trigger"
)

// Config mirror paths under the data directory
const (
	DexConfigFile        = "config/dex_manager_config.json"
	PolymarketConfigFile = "config/polymarket_manager_config.json"
)

// Options are the collaborators injected into the service at boot.
// Initialisation order: KV client → settings registry → managers → service.
type Options struct {
	Clock shared.Clock
	KV    store.KVStore
	Files *store.FileStore

	Ledger    ports.TradeLedger
	Swap      ports.SwapClient
	Watchlist ports.WatchlistClient
	Wallet    ports.WalletClient
	Feed      ports.MarketFeed
	Positions ports.PositionRefresher

	WorkforceFactory func() interface{}
	WalletAddress    string

	// Archiver receives terminal execution records on shutdown; may be nil
	Archiver ExecutionArchiver

	// Stdout disables the console logger when false is wanted; defaults on
	Quiet bool
}

// ExecutionArchiver persists terminal execution records for later audit
type ExecutionArchiver interface {
	Archive(ctx context.Context, rec execution.Record) error
}

// Service owns the two managers and is the only mutator of their configs.
type Service struct {
	mu sync.Mutex

	clock    shared.Clock
	logger   common.EventLogger
	ring     *common.EventRing
	mediator common.Mediator
	settings *settings.Registry

	dex  *dex.Manager
	poly *polymarket.Manager

	dexStore  *store.ManagerStore
	polyStore *store.ManagerStore

	dexConfig  *common.ManagerConfig
	polyConfig *common.ManagerConfig

	archiver ExecutionArchiver
}

// NewService loads configs (KV store → filesystem mirror → defaults),
// builds both managers and registers the command handlers.
func NewService(opts Options) (*Service, error) {
	clock := opts.Clock
	if clock == nil {
		clock = shared.NewRealClock()
	}

	s := &Service{
		clock:     clock,
		ring:      common.NewEventRing(common.MaxRingEvents, clock),
		mediator:  common.NewMediator(),
		settings:  settings.NewRegistry(),
		dexStore:  store.NewManagerStore(opts.KV, opts.Files, "dex", DexConfigFile),
		polyStore: store.NewManagerStore(opts.KV, opts.Files, "polymarket", PolymarketConfigFile),
		archiver:  opts.Archiver,
	}

	loggers := common.MultiLogger{s.ring}
	if !opts.Quiet {
		loggers = append(loggers, common.LoggerFunc(func(level, message string, metadata map[string]interface{}) {
			if len(metadata) > 0 {
				log.Printf("[%s] %s %v", level, message, metadata)
			} else {
				log.Printf("[%s] %s", level, message)
			}
		}))
	}
	s.logger = loggers

	if err := s.settings.RegisterMany(settings.DexSpecs()); err != nil {
		return nil, fmt.Errorf("register dex settings: %w", err)
	}
	if err := s.settings.RegisterMany(settings.PolymarketSpecs()); err != nil {
		return nil, fmt.Errorf("register polymarket settings: %w", err)
	}

	ctx := context.Background()
	s.dexConfig = s.loadConfig(ctx, s.dexStore, "dex")
	s.polyConfig = s.loadConfig(ctx, s.polyStore, "polymarket")

	var err error
	s.dex, err = dex.NewManager(s.dexConfig, dex.Deps{
		Clock:            clock,
		Logger:           s.logger,
		Store:            s.dexStore,
		Ledger:           opts.Ledger,
		Swap:             opts.Swap,
		Watchlist:        opts.Watchlist,
		Wallet:           opts.Wallet,
		WorkforceFactory: opts.WorkforceFactory,
		WalletAddress:    opts.WalletAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("build dex manager: %w", err)
	}

	s.poly, err = polymarket.NewManager(s.polyConfig, polymarket.Deps{
		Clock:            clock,
		Logger:           s.logger,
		Store:            s.polyStore,
		Files:            opts.Files,
		Feed:             opts.Feed,
		Positions:        opts.Positions,
		WorkforceFactory: opts.WorkforceFactory,
	})
	if err != nil {
		return nil, fmt.Errorf("build polymarket manager: %w", err)
	}

	if err := s.registerHandlers(); err != nil {
		return nil, fmt.Errorf("register command handlers: %w", err)
	}
	return s, nil
}

// loadConfig reads the manager config from the KV store, the filesystem
// mirror, or builds normalized defaults from the settings registry.
func (s *Service) loadConfig(ctx context.Context, st *store.ManagerStore, pipelineName string) *common.ManagerConfig {
	cfg, err := st.LoadConfig(ctx)
	if err == nil {
		return cfg
	}
	if err != store.ErrNotFound {
		s.ring.Log("WARN", fmt.Sprintf("Config load for %s failed, using defaults: %v", pipelineName, err), nil)
	}

	cfg = common.NewManagerConfig()
	for _, row := range s.settings.List() {
		if row.Pipeline != pipelineName {
			continue
		}
		payload, err := s.settings.Extract(row.Key, cfg)
		if err != nil {
			continue
		}
		if _, err := s.settings.Apply(row.Key, cfg, payload); err != nil {
			s.ring.Log("WARN", fmt.Sprintf("Default settings for %s rejected: %v", row.Key, err), nil)
		}
	}
	cfg.Touch(s.clock.Now())
	return cfg
}

// Mediator exposes the command bus to transport layers
func (s *Service) Mediator() common.Mediator {
	return s.mediator
}

// Events returns up to limit audit events, newest first
func (s *Service) Events(limit int) []common.Event {
	return s.ring.List(limit)
}

// Start boots the managers according to their runtime toggles
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	cycleEnabled := common.BoolValue(s.dexConfig.Runtime, "cycle_enabled", true)
	watchlistEnabled := common.BoolValue(s.dexConfig.Runtime, settings.DexKeyWatchlistEnabled, true)
	s.mu.Unlock()

	if err := s.dex.Start(ctx, cycleEnabled, watchlistEnabled); err != nil {
		return err
	}
	if err := s.poly.Start(ctx); err != nil {
		s.dex.Stop(ctx)
		return err
	}
	return nil
}

// AutoStart starts only the managers whose configs request it
func (s *Service) AutoStart(ctx context.Context) error {
	s.mu.Lock()
	dexAuto := common.BoolValue(s.dexConfig.Runtime, "auto_start_on_boot", false)
	polyAuto := common.BoolValue(s.polyConfig.Runtime, "auto_start_on_boot", false)
	cycleEnabled := common.BoolValue(s.dexConfig.Runtime, "cycle_enabled", true)
	watchlistEnabled := common.BoolValue(s.dexConfig.Runtime, settings.DexKeyWatchlistEnabled, true)
	s.mu.Unlock()

	if dexAuto {
		if err := s.dex.Start(ctx, cycleEnabled, watchlistEnabled); err != nil {
			return err
		}
	}
	if polyAuto {
		if err := s.poly.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops both managers, cancels in-flight executions and archives the
// terminal records
func (s *Service) Stop(ctx context.Context) {
	s.dex.Stop(ctx)
	s.poly.Stop(ctx)
	s.archiveExecutions(ctx)
}

func (s *Service) archiveExecutions(ctx context.Context) {
	if s.archiver == nil {
		return
	}
	for _, tracker := range []*execution.Tracker{s.dex.Tracker(), s.poly.Tracker()} {
		for _, rec := range tracker.List(0) {
			if rec.Status == execution.StatusQueued || rec.Status == execution.StatusRunning {
				continue
			}
			if err := s.archiver.Archive(ctx, rec); err != nil {
				s.logger.Log("WARN", fmt.Sprintf("Execution archive failed: %v", err), nil)
				return
			}
		}
	}
}

// ListTriggerSpecs returns the registered settings surfaces
func (s *Service) ListTriggerSpecs() []settings.Row {
	return s.settings.List()
}

// GetTriggerSettings extracts the current settings for a pipeline.trigger
// key
func (s *Service) GetTriggerSettings(key string) (map[string]interface{}, error) {
	spec, ok := s.settings.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown trigger settings: %s", key)
	}
	cfg, _, err := s.configFor(spec.Pipeline)
	if err != nil {
		return nil, err
	}
	return s.settings.Extract(key, cfg)
}

// UpdateTriggerSettings validates and applies a settings payload, persists
// the config to both stores and projects it into the owning manager.
// Invalid payloads leave everything untouched.
func (s *Service) UpdateTriggerSettings(ctx context.Context, key string, payload map[string]interface{}) (map[string]interface{}, error) {
	spec, ok := s.settings.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown trigger settings: %s", key)
	}
	cfg, st, err := s.configFor(spec.Pipeline)
	if err != nil {
		return nil, err
	}

	next := cfg.Clone()
	normalized, err := s.settings.Apply(key, next, payload)
	if err != nil {
		return nil, err
	}
	next.Touch(s.clock.Now())

	s.setConfig(spec.Pipeline, next)
	s.persistConfig(ctx, st, next, spec.Pipeline)
	s.applyConfig(spec.Pipeline, next)

	s.logger.Log("INFO", fmt.Sprintf("Trigger settings %s updated", key), map[string]interface{}{
		"settings": normalized,
	})
	return normalized, nil
}

// UpdateConfig merges raw process/runtime updates, persists and applies
func (s *Service) UpdateConfig(ctx context.Context, pipelineName string, process, runtime map[string]interface{}) (*common.ManagerConfig, error) {
	cfg, st, err := s.configFor(pipelineName)
	if err != nil {
		return nil, err
	}

	next := cfg.Clone()
	next.MergeProcess(process)
	next.MergeRuntime(runtime)
	next.Touch(s.clock.Now())

	s.setConfig(pipelineName, next)
	s.persistConfig(ctx, st, next, pipelineName)
	s.applyConfig(pipelineName, next)
	return next.Clone(), nil
}

// GetConfig returns a copy of the current config for a pipeline
func (s *Service) GetConfig(pipelineName string) (*common.ManagerConfig, error) {
	cfg, _, err := s.configFor(pipelineName)
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// LaunchExecution starts a tracked run on the named pipeline
func (s *Service) LaunchExecution(pipelineName, mode, reason string) (map[string]interface{}, error) {
	switch pipelineName {
	case dex.PipelineName:
		return s.dex.TriggerCycle(mode, reason), nil
	case polymarket.PipelineName:
		return s.poly.TriggerBatch(mode, reason), nil
	default:
		return nil, fmt.Errorf("unknown pipeline: %s", pipelineName)
	}
}

// GetExecution returns the tracked record, or {status: not_found}
func (s *Service) GetExecution(pipelineName, executionID string) (map[string]interface{}, error) {
	tracker, err := s.trackerFor(pipelineName)
	if err != nil {
		return nil, err
	}
	rec, ok := tracker.Get(executionID)
	if !ok {
		return map[string]interface{}{"status": "not_found"}, nil
	}
	return executionDoc(rec), nil
}

// ListExecutions returns up to limit tracked records, newest first
func (s *Service) ListExecutions(pipelineName string, limit int) ([]map[string]interface{}, error) {
	tracker, err := s.trackerFor(pipelineName)
	if err != nil {
		return nil, err
	}
	records := tracker.List(limit)
	out := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		out[i] = executionDoc(rec)
	}
	return out, nil
}

// ListTaskFlows returns the registered task flows for a pipeline
func (s *Service) ListTaskFlows(pipelineName string) ([]pipeline.Row, error) {
	switch pipelineName {
	case dex.PipelineName:
		return s.dex.ListTaskFlows(), nil
	case polymarket.PipelineName:
		return s.poly.ListTaskFlows(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline: %s", pipelineName)
	}
}

// UpdateTaskFlows merges enable/disable overrides for a pipeline
func (s *Service) UpdateTaskFlows(pipelineName string, flags map[string]bool) ([]pipeline.Row, error) {
	switch pipelineName {
	case dex.PipelineName:
		return s.dex.UpdateTaskFlows(flags), nil
	case polymarket.PipelineName:
		return s.poly.UpdateTaskFlows(flags), nil
	default:
		return nil, fmt.Errorf("unknown pipeline: %s", pipelineName)
	}
}

// TriggerHistory returns recent trigger invocations for a pipeline
func (s *Service) TriggerHistory(pipelineName string, limit int) ([]trigger.HistoryEntry, error) {
	switch pipelineName {
	case dex.PipelineName:
		return s.dex.Triggers().History(limit), nil
	case polymarket.PipelineName:
		return s.poly.Triggers().History(limit), nil
	default:
		return nil, fmt.Errorf("unknown pipeline: %s", pipelineName)
	}
}

func (s *Service) configFor(pipelineName string) (*common.ManagerConfig, *store.ManagerStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch pipelineName {
	case dex.PipelineName:
		return s.dexConfig, s.dexStore, nil
	case polymarket.PipelineName:
		return s.polyConfig, s.polyStore, nil
	default:
		return nil, nil, fmt.Errorf("unknown pipeline: %s", pipelineName)
	}
}

func (s *Service) setConfig(pipelineName string, cfg *common.ManagerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch pipelineName {
	case dex.PipelineName:
		s.dexConfig = cfg
	case polymarket.PipelineName:
		s.polyConfig = cfg
	}
}

func (s *Service) applyConfig(pipelineName string, cfg *common.ManagerConfig) {
	switch pipelineName {
	case dex.PipelineName:
		s.dex.ApplyConfig(cfg)
	case polymarket.PipelineName:
		s.poly.ApplyConfig(cfg)
	}
}

// persistConfig writes to the KV store and the filesystem mirror. Failures
// are WARN-level; in-memory state stays authoritative.
func (s *Service) persistConfig(ctx context.Context, st *store.ManagerStore, cfg *common.ManagerConfig, pipelineName string) {
	if err := st.SaveConfig(ctx, cfg); err != nil {
		s.logger.Log("WARN", fmt.Sprintf("Config persistence for %s failed: %v", pipelineName, err), nil)
	}
}

func (s *Service) trackerFor(pipelineName string) (*execution.Tracker, error) {
	switch pipelineName {
	case dex.PipelineName:
		return s.dex.Tracker(), nil
	case polymarket.PipelineName:
		return s.poly.Tracker(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline: %s", pipelineName)
	}
}

func executionDoc(rec execution.Record) map[string]interface{} {
	doc := map[string]interface{}{
		"execution_id": rec.ExecutionID,
		"mode":         rec.Mode,
		"reason":       rec.Reason,
		"status":       string(rec.Status),
		"created_at":   rec.CreatedAt,
		"updated_at":   rec.UpdatedAt,
	}
	if rec.Stage != "" {
		doc["stage"] = rec.Stage
	}
	if rec.Result != "" {
		doc["result"] = rec.Result
	}
	if rec.Error != "" {
		doc["error"] = rec.Error
	}
	return doc
}
