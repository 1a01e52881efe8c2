package common

import (
	"encoding/json"
	"time"
)

// ManagerConfig is the persisted configuration document for one manager.
// The service layer is the only mutator; managers and tasks read immutable
// snapshots obtained via Clone.
type ManagerConfig struct {
	Process     map[string]interface{} `json:"process"`
	Runtime     map[string]interface{} `json:"runtime"`
	LastUpdated string                 `json:"last_updated"`
}

// NewManagerConfig creates an empty config with initialized maps
func NewManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		Process: make(map[string]interface{}),
		Runtime: make(map[string]interface{}),
	}
}

// Clone returns a deep copy of the config document
func (c *ManagerConfig) Clone() *ManagerConfig {
	if c == nil {
		return NewManagerConfig()
	}
	out := &ManagerConfig{
		Process:     deepCopyMap(c.Process),
		Runtime:     deepCopyMap(c.Runtime),
		LastUpdated: c.LastUpdated,
	}
	return out
}

// Touch stamps LastUpdated with the given UTC time in ISO-8601
func (c *ManagerConfig) Touch(now time.Time) {
	c.LastUpdated = now.UTC().Format(time.RFC3339)
}

// MergeProcess overlays updates onto the process map
func (c *ManagerConfig) MergeProcess(updates map[string]interface{}) {
	if c.Process == nil {
		c.Process = make(map[string]interface{})
	}
	for k, v := range updates {
		c.Process[k] = v
	}
}

// MergeRuntime overlays updates onto the runtime map
func (c *ManagerConfig) MergeRuntime(updates map[string]interface{}) {
	if c.Runtime == nil {
		c.Runtime = make(map[string]interface{})
	}
	for k, v := range updates {
		c.Runtime[k] = v
	}
}

func deepCopyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	if len(in) == 0 {
		return out
	}
	// JSON round-trip keeps the copy independent of nested maps/slices
	data, err := json.Marshal(in)
	if err != nil {
		for k, v := range in {
			out[k] = v
		}
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		for k, v := range in {
			out[k] = v
		}
	}
	return out
}

// FloatValue reads a numeric value from a settings map with a default.
// JSON decoding produces float64; int and json.Number are tolerated.
func FloatValue(m map[string]interface{}, key string, def float64) float64 {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// IntValue reads an integer value from a settings map with a default
func IntValue(m map[string]interface{}, key string, def int) int {
	if m == nil {
		return def
	}
	if _, ok := m[key]; !ok {
		return def
	}
	return int(FloatValue(m, key, float64(def)))
}

// BoolValue reads a boolean value from a settings map with a default
func BoolValue(m map[string]interface{}, key string, def bool) bool {
	if m == nil {
		return def
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

// StringValue reads a string value from a settings map with a default
func StringValue(m map[string]interface{}, key string, def string) string {
	if m == nil {
		return def
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}
