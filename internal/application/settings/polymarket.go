package settings

import (
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// Config keys consumed by the Polymarket manager
const (
	PolyKeyScanInterval     = "scan_interval_seconds"
	PolyKeyReviewThreshold  = "review_threshold"
	PolyKeyMaxCache         = "max_cache"
	PolyKeyMinVolume24h     = "min_volume_24h"
	PolyKeyMinLiquidity     = "min_liquidity"
	PolyKeyMaxTradesPerDay  = "max_trades_per_day"
	PolyKeyRefreshPositions = "refresh_positions"
	PolyKeyIntervalEnabled  = "interval_enabled"
	PolyKeySignalEnabled    = "signal_enabled"
)

// PolymarketSpecs returns the trigger settings surfaces for the Polymarket
// pipeline: interval, signal, market, hybrid.
func PolymarketSpecs() []*Spec {
	return []*Spec{
		{
			Pipeline:    "polymarket",
			Trigger:     "interval",
			Description: "Market scan interval and throttle window",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"scan_interval_seconds": map[string]interface{}{
						"type":    "integer",
						"minimum": 30,
						"maximum": 86400,
					},
				},
			},
			Extract: func(cfg *common.ManagerConfig) map[string]interface{} {
				return map[string]interface{}{
					"scan_interval_seconds": common.IntValue(cfg.Process, PolyKeyScanInterval, 1800),
				}
			},
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["scan_interval_seconds"]; ok {
					cfg.Process[PolyKeyScanInterval] = v
				}
				return map[string]interface{}{
					"scan_interval_seconds": common.IntValue(cfg.Process, PolyKeyScanInterval, 1800),
				}, nil
			},
		},
		{
			Pipeline:    "polymarket",
			Trigger:     "signal",
			Description: "Feed cache bound and batch readiness threshold",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"review_threshold": map[string]interface{}{
						"type":    "integer",
						"minimum": 1,
						"maximum": 100,
					},
					"max_cache": map[string]interface{}{
						"type":    "integer",
						"minimum": 1,
						"maximum": 500,
					},
				},
			},
			Extract: extractPolySignal,
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["review_threshold"]; ok {
					cfg.Process[PolyKeyReviewThreshold] = v
				}
				if v, ok := payload["max_cache"]; ok {
					cfg.Process[PolyKeyMaxCache] = v
				}
				return extractPolySignal(cfg), nil
			},
		},
		{
			Pipeline:    "polymarket",
			Trigger:     "market",
			Description: "Candidate market filters and daily trade limit",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"min_volume_24h": map[string]interface{}{
						"type":    "number",
						"minimum": 0,
					},
					"min_liquidity": map[string]interface{}{
						"type":    "number",
						"minimum": 0,
					},
					"max_trades_per_day": map[string]interface{}{
						"type":    "integer",
						"minimum": 0,
						"maximum": 100,
					},
				},
			},
			Extract: extractPolyMarket,
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["min_volume_24h"]; ok {
					cfg.Process[PolyKeyMinVolume24h] = v
				}
				if v, ok := payload["min_liquidity"]; ok {
					cfg.Process[PolyKeyMinLiquidity] = v
				}
				if v, ok := payload["max_trades_per_day"]; ok {
					cfg.Process[PolyKeyMaxTradesPerDay] = v
				}
				return extractPolyMarket(cfg), nil
			},
		},
		{
			Pipeline:    "polymarket",
			Trigger:     "hybrid",
			Description: "Which scan components the hybrid worker runs",
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"interval_enabled":  map[string]interface{}{"type": "boolean"},
					"signal_enabled":    map[string]interface{}{"type": "boolean"},
					"refresh_positions": map[string]interface{}{"type": "boolean"},
				},
			},
			Extract: extractPolyHybrid,
			Apply: func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
				if v, ok := payload["interval_enabled"]; ok {
					cfg.Process[PolyKeyIntervalEnabled] = v
				}
				if v, ok := payload["signal_enabled"]; ok {
					cfg.Process[PolyKeySignalEnabled] = v
				}
				if v, ok := payload["refresh_positions"]; ok {
					cfg.Process[PolyKeyRefreshPositions] = v
				}
				return extractPolyHybrid(cfg), nil
			},
		},
	}
}

func extractPolySignal(cfg *common.ManagerConfig) map[string]interface{} {
	return map[string]interface{}{
		"review_threshold": common.IntValue(cfg.Process, PolyKeyReviewThreshold, 5),
		"max_cache":        common.IntValue(cfg.Process, PolyKeyMaxCache, 50),
	}
}

func extractPolyMarket(cfg *common.ManagerConfig) map[string]interface{} {
	return map[string]interface{}{
		"min_volume_24h":     common.FloatValue(cfg.Process, PolyKeyMinVolume24h, 5000),
		"min_liquidity":      common.FloatValue(cfg.Process, PolyKeyMinLiquidity, 1000),
		"max_trades_per_day": common.IntValue(cfg.Process, PolyKeyMaxTradesPerDay, 5),
	}
}

func extractPolyHybrid(cfg *common.ManagerConfig) map[string]interface{} {
	return map[string]interface{}{
		"interval_enabled":  common.BoolValue(cfg.Process, PolyKeyIntervalEnabled, true),
		"signal_enabled":    common.BoolValue(cfg.Process, PolyKeySignalEnabled, true),
		"refresh_positions": common.BoolValue(cfg.Process, PolyKeyRefreshPositions, true),
	}
}
