package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// Caps on the durable history lists
const (
	MaxLogEntries   = 1000
	MaxCycleHistory = 500
	MaxTaskHistory  = 1000
	MaxTradeHistory = 1000
)

// ManagerStore namespaces KV keys for one manager (dex:… / polymarket:…)
// and mirrors the config document to the filesystem. All methods return the
// persistence error for the caller to log at WARN; in-memory state stays
// authoritative regardless.
type ManagerStore struct {
	kv         KVStore
	files      *FileStore
	prefix     string
	configFile string
}

// NewManagerStore creates a store for the given key prefix. configFile is
// the relative filesystem mirror path (e.g. "config/dex_manager_config.json").
func NewManagerStore(kv KVStore, files *FileStore, prefix, configFile string) *ManagerStore {
	return &ManagerStore{kv: kv, files: files, prefix: prefix, configFile: configFile}
}

func (m *ManagerStore) key(suffix string) string {
	return m.prefix + ":" + suffix
}

// SaveConfig writes the full config document to the KV store and the
// filesystem mirror. Both targets are attempted; errors are joined.
func (m *ManagerStore) SaveConfig(ctx context.Context, cfg *common.ManagerConfig) error {
	var errs []error
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if m.kv != nil {
		if err := m.kv.Set(ctx, m.key("config"), string(data)); err != nil {
			errs = append(errs, fmt.Errorf("kv store: %w", err))
		}
	}
	if m.files != nil {
		if err := m.files.SaveJSON(m.configFile, cfg); err != nil {
			errs = append(errs, fmt.Errorf("file mirror: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads the config from the KV store, falling back to the
// filesystem mirror. Returns ErrNotFound when neither has a document.
func (m *ManagerStore) LoadConfig(ctx context.Context) (*common.ManagerConfig, error) {
	if m.kv != nil {
		raw, err := m.kv.Get(ctx, m.key("config"))
		if err == nil {
			cfg := common.NewManagerConfig()
			if err := json.Unmarshal([]byte(raw), cfg); err == nil {
				return cfg, nil
			}
		}
	}
	if m.files != nil {
		cfg := common.NewManagerConfig()
		if err := m.files.LoadJSON(m.configFile, cfg); err == nil {
			return cfg, nil
		}
	}
	return nil, ErrNotFound
}

// AppendLog pushes an event onto the capped durable log list
func (m *ManagerStore) AppendLog(ctx context.Context, event common.Event) error {
	if m.kv == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := m.key("logs")
	if err := m.kv.LPush(ctx, key, string(data)); err != nil {
		return err
	}
	return m.kv.LTrim(ctx, key, 0, MaxLogEntries-1)
}

// IncrMetric bumps an integer counter in the metrics hash
func (m *ManagerStore) IncrMetric(ctx context.Context, name string, delta int64) error {
	if m.kv == nil {
		return nil
	}
	_, err := m.kv.HIncrBy(ctx, m.key("metrics"), name, delta)
	return err
}

// Metrics reads the full counter hash
func (m *ManagerStore) Metrics(ctx context.Context) (map[string]string, error) {
	if m.kv == nil {
		return map[string]string{}, nil
	}
	return m.kv.HGetAll(ctx, m.key("metrics"))
}

func (m *ManagerStore) pushCapped(ctx context.Context, suffix string, doc interface{}, limit int64) error {
	if m.kv == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	key := m.key(suffix)
	if err := m.kv.LPush(ctx, key, string(data)); err != nil {
		return err
	}
	return m.kv.LTrim(ctx, key, 0, limit-1)
}

// PushCycleHistory records one cycle summary (capped at 500)
func (m *ManagerStore) PushCycleHistory(ctx context.Context, doc interface{}) error {
	return m.pushCapped(ctx, "history:cycles", doc, MaxCycleHistory)
}

// PushTaskHistory records one task-flow run summary (capped at 1000)
func (m *ManagerStore) PushTaskHistory(ctx context.Context, doc interface{}) error {
	return m.pushCapped(ctx, "history:tasks", doc, MaxTaskHistory)
}

// PushTradeHistory records one executed trade (capped at 1000)
func (m *ManagerStore) PushTradeHistory(ctx context.Context, doc interface{}) error {
	return m.pushCapped(ctx, "history:trades", doc, MaxTradeHistory)
}

// History reads up to limit entries from a history list, newest first
func (m *ManagerStore) History(ctx context.Context, suffix string, limit int64) ([]string, error) {
	if m.kv == nil {
		return []string{}, nil
	}
	return m.kv.LRange(ctx, m.key("history:"+suffix), 0, limit-1)
}

// SetPoolIndex writes the DEX pool index entries for a pair and its symbols
// under uviswap:pools:…
func (m *ManagerStore) SetPoolIndex(ctx context.Context, pair string, symbols []string, doc interface{}) error {
	if m.kv == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal pool entry: %w", err)
	}
	if err := m.kv.Set(ctx, "uviswap:pools:pair:"+pair, string(data)); err != nil {
		return err
	}
	for _, sym := range symbols {
		if err := m.kv.HSet(ctx, "uviswap:pools:symbol:"+sym, pair, string(data)); err != nil {
			return err
		}
	}
	return nil
}
