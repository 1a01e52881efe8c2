package settings

import (
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// Config keys consumed by the DEX manager
const (
	DexKeyCycleHours            = "cycle_hours"
	DexKeyWatchlistScanInterval = "watchlist_scan_interval_seconds"
	DexKeyWatchlistTriggerPct   = "watchlist_trigger_pct"
	DexKeyWatchlistFastPct      = "watchlist_fast_trigger_pct"
	DexKeyStrategyEnabled       = "strategy_feedback_enabled"
	DexKeyStrategyHintHours     = "strategy_hint_interval_hours"
	DexKeyWatchlistEnabled      = "watchlist_enabled"
)

// DexSpecs returns the trigger settings surfaces for the DEX pipeline:
// cycle_interval, watchlist, strategy_feedback.
func DexSpecs() []*Spec {
	return []*Spec{
		{
			Pipeline:    "dex",
			Trigger:     "cycle_interval",
			Description: "Interval of the autonomous trader cycle",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"cycle_hours": map[string]interface{}{
						"type":    "number",
						"minimum": 1,
						"maximum": 168,
					},
				},
			},
			Extract: func(cfg *common.ManagerConfig) map[string]interface{} {
				return map[string]interface{}{
					"cycle_hours": common.FloatValue(cfg.Process, DexKeyCycleHours, 4),
				}
			},
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["cycle_hours"]; ok {
					cfg.Process[DexKeyCycleHours] = v
				}
				return map[string]interface{}{
					"cycle_hours": common.FloatValue(cfg.Process, DexKeyCycleHours, 4),
				}, nil
			},
		},
		{
			Pipeline:    "dex",
			Trigger:     "watchlist",
			Description: "Watchlist scan cadence and per-position trigger thresholds",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"watchlist_enabled": map[string]interface{}{"type": "boolean"},
					"trigger_pct": map[string]interface{}{
						"type":    "number",
						"minimum": 0.0,
						"maximum": 1.0,
					},
					"fast_trigger_pct": map[string]interface{}{
						"type":    "number",
						"minimum": 0.0,
						"maximum": 1.0,
					},
					"scan_interval_seconds": map[string]interface{}{
						"type":    "integer",
						"minimum": 5,
						"maximum": 3600,
					},
				},
			},
			Extract: extractDexWatchlist,
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["watchlist_enabled"]; ok {
					cfg.Runtime[DexKeyWatchlistEnabled] = v
				}
				if v, ok := payload["trigger_pct"]; ok {
					cfg.Process[DexKeyWatchlistTriggerPct] = v
				}
				if v, ok := payload["fast_trigger_pct"]; ok {
					cfg.Process[DexKeyWatchlistFastPct] = v
				}
				if v, ok := payload["scan_interval_seconds"]; ok {
					cfg.Process[DexKeyWatchlistScanInterval] = v
				}
				return extractDexWatchlist(cfg), nil
			},
		},
		{
			Pipeline:    "dex",
			Trigger:     "strategy_feedback",
			Description: "Strategy hint generation cadence",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"enabled": map[string]interface{}{"type": "boolean"},
					"hint_interval_hours": map[string]interface{}{
						"type":    "number",
						"minimum": 1,
						"maximum": 168,
					},
				},
			},
			Extract: extractDexStrategy,
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["enabled"]; ok {
					cfg.Process[DexKeyStrategyEnabled] = v
				}
				if v, ok := payload["hint_interval_hours"]; ok {
					cfg.Process[DexKeyStrategyHintHours] = v
				}
				return extractDexStrategy(cfg), nil
			},
		},
	}
}

func extractDexWatchlist(cfg *common.ManagerConfig) map[string]interface{} {
	return map[string]interface{}{
		"watchlist_enabled":     common.BoolValue(cfg.Runtime, DexKeyWatchlistEnabled, true),
		"trigger_pct":           common.FloatValue(cfg.Process, DexKeyWatchlistTriggerPct, 0.05),
		"fast_trigger_pct":      common.FloatValue(cfg.Process, DexKeyWatchlistFastPct, 0.10),
		"scan_interval_seconds": common.IntValue(cfg.Process, DexKeyWatchlistScanInterval, 60),
	}
}

func extractDexStrategy(cfg *common.ManagerConfig) map[string]interface{} {
	return map[string]interface{}{
		"enabled":             common.BoolValue(cfg.Process, DexKeyStrategyEnabled, true),
		"hint_interval_hours": common.FloatValue(cfg.Process, DexKeyStrategyHintHours, 12),
	}
}
