// Package projector turns an element registry into the Screenshot column of
// the wizard configuration.
package projector

import (
	"encoding/json"
	"fmt"

	"annotator/internal/annotate/registry"
)

const ColumnName = "Screenshot"

// Config is the in-progress wizard configuration:
// variant -> activity -> column -> column spec.
type Config map[string]map[string]map[string]any

type ScreenshotColumn struct {
	InitValue string            `json:"initValue"`
	Name      string            `json:"name"`
	Variate   int               `json:"variate"`
	Args      registry.Registry `json:"args"`
}

func NewScreenshotColumn(initValue string, reg registry.Registry) ScreenshotColumn {
	return ScreenshotColumn{
		InitValue: initValue,
		Name:      ColumnName,
		Variate:   1,
		Args:      reg,
	}
}

// Project merges the registry into cfg at [variant][activity]["Screenshot"].
// An empty registry leaves cfg as is and reports false. Otherwise a new Config
// is returned in which only that leaf differs; cfg itself is not modified.
func Project(cfg Config, variant, activity string, reg registry.Registry, initValue string) (Config, bool) {
	if reg.Empty() {
		return cfg, false
	}
	out := make(Config, len(cfg)+1)
	for k, v := range cfg {
		out[k] = v
	}
	activities := make(map[string]map[string]any, len(cfg[variant])+1)
	for k, v := range cfg[variant] {
		activities[k] = v
	}
	columns := make(map[string]any, len(cfg[variant][activity])+1)
	for k, v := range cfg[variant][activity] {
		columns[k] = v
	}
	columns[ColumnName] = NewScreenshotColumn(initValue, reg)
	activities[activity] = columns
	out[variant] = activities
	return out, true
}

// SeedRegistry reads back a previously projected Screenshot column. Missing
// levels yield an empty registry and false.
func SeedRegistry(cfg Config, variant, activity string, opts ...registry.Option) (registry.Registry, bool, error) {
	reg := registry.New(opts...)
	col, ok := cfg[variant][activity][ColumnName]
	if !ok || col == nil {
		return reg, false, nil
	}
	raw, err := json.Marshal(col)
	if err != nil {
		return reg, false, fmt.Errorf("encode screenshot column: %w", err)
	}
	var parsed struct {
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return reg, false, fmt.Errorf("decode screenshot column: %w", err)
	}
	if len(parsed.Args) == 0 {
		return reg, false, nil
	}
	if err := json.Unmarshal(parsed.Args, &reg); err != nil {
		return reg, false, fmt.Errorf("decode screenshot args: %w", err)
	}
	return reg, !reg.Empty(), nil
}

// Variants lists the top-level keys of cfg.
func (c Config) Variants() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	return out
}
