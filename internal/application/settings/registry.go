// Package settings hosts the typed trigger-configuration registry. Each spec
// projects a slice of the manager config into a validated settings model and
// back; Apply always validates before mutating, so invalid payloads leave the
// config untouched.
package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// ExtractFunc reads the relevant config fields into a settings mapping
type ExtractFunc func(cfg *common.ManagerConfig) map[string]interface{}

// ApplyFunc writes validated, normalized settings back into the config and
// returns them. The payload has already passed schema validation.
type ApplyFunc func(cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error)

// Spec is one typed configuration surface, keyed "pipeline.trigger"
type Spec struct {
	Pipeline    string
	Trigger     string
	Description string
	// Schema is the JSON-schema document for the settings model
	Schema  map[string]interface{}
	Extract ExtractFunc
	Apply   ApplyFunc

	compiled *jsonschema.Schema
}

// Key returns the registry key "pipeline.trigger"
func (s *Spec) Key() string {
	return s.Pipeline + "." + s.Trigger
}

// Row is the List projection of a Spec
type Row struct {
	Key         string                 `json:"key"`
	Pipeline    string                 `json:"pipeline"`
	Trigger     string                 `json:"trigger"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
}

// Registry maps pipeline.trigger keys to settings specs. It is constructed
// at boot by the service and passed into managers; there is no global
// instance.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
}

// NewRegistry creates an empty settings registry
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register compiles the spec's schema and indexes it by key
func (r *Registry) Register(spec *Spec) error {
	if spec == nil || spec.Pipeline == "" || spec.Trigger == "" {
		return fmt.Errorf("settings spec requires pipeline and trigger names")
	}
	compiled, err := compileSchema(spec.Schema)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", spec.Key(), err)
	}
	spec.compiled = compiled

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Key()] = spec
	return nil
}

// RegisterMany registers all specs, stopping at the first error
func (r *Registry) RegisterMany(specs []*Spec) error {
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the spec registered under the given key
func (r *Registry) Get(key string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[key]
	return spec, ok
}

// List returns spec metadata sorted by key
func (r *Registry) List() []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]Row, 0, len(r.specs))
	for _, spec := range r.specs {
		rows = append(rows, Row{
			Key:         spec.Key(),
			Pipeline:    spec.Pipeline,
			Trigger:     spec.Trigger,
			Description: spec.Description,
			Schema:      spec.Schema,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

// Extract projects the manager config into the spec's settings mapping
func (r *Registry) Extract(key string, cfg *common.ManagerConfig) (map[string]interface{}, error) {
	spec, ok := r.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown trigger settings: %s", key)
	}
	return spec.Extract(cfg), nil
}

// Apply validates the payload against the spec's schema and then writes the
// normalized settings into the config. Invalid payloads return an error and
// leave the config unchanged.
func (r *Registry) Apply(key string, cfg *common.ManagerConfig, payload map[string]interface{}) (map[string]interface{}, error) {
	spec, ok := r.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown trigger settings: %s", key)
	}
	normalized, err := normalizePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid settings payload: %w", err)
	}
	if err := spec.compiled.Validate(normalized); err != nil {
		return nil, fmt.Errorf("settings validation failed for %s: %w", key, err)
	}
	doc, ok := normalized.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("settings payload must be an object")
	}
	return spec.Apply(cfg, doc)
}

func compileSchema(doc map[string]interface{}) (*jsonschema.Schema, error) {
	normalized, err := normalizePayload(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", normalized); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile("schema.json")
}

// normalizePayload round-trips the payload through JSON so the validator
// sees canonical types (float64 numbers, generic maps).
func normalizePayload(payload map[string]interface{}) (interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
