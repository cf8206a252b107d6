package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// PlaceholderFunctionID selects a dependency binding instead of a function.
const PlaceholderFunctionID = 0

type Category struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type GUIComponent struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}

type Function struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"function_name" yaml:"function_name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Params      []int  `json:"params" yaml:"params"`
}

type Param struct {
	ID              int    `json:"id" yaml:"id"`
	Label           string `json:"label" yaml:"label"`
	Placeholder     string `json:"placeholder" yaml:"placeholder"`
	DataType        string `json:"data_type" yaml:"data_type"`
	ValidationNeeds string `json:"validation_needs" yaml:"validation_needs"`
	Description     string `json:"description" yaml:"description"`
}

func (p Param) Required() bool {
	return strings.EqualFold(strings.TrimSpace(p.ValidationNeeds), "required")
}

var (
	ErrUnknownFunction = errors.New("function not in catalog")
	ErrUnknownParam    = errors.New("param not in catalog")
)

// Snapshot is the read-only reference data loaded once per screen mount.
type Snapshot struct {
	Categories []Category     `json:"categories"`
	Components []GUIComponent `json:"components"`
	Functions  []Function     `json:"functions"`
	Params     []Param        `json:"params"`
}

func (s Snapshot) Function(id int) (Function, bool) {
	for _, f := range s.Functions {
		if f.ID == id {
			return f, true
		}
	}
	return Function{}, false
}

func (s Snapshot) Component(name string) (GUIComponent, bool) {
	for _, c := range s.Components {
		if c.Name == name {
			return c, true
		}
	}
	return GUIComponent{}, false
}

// ResolveParams expands the function's declared parameter ids, keeping the
// declaration order.
func (s Snapshot) ResolveParams(functionID int) ([]Param, error) {
	fn, ok := s.Function(functionID)
	if !ok {
		return nil, fmt.Errorf("function %d: %w", functionID, ErrUnknownFunction)
	}
	byID := make(map[int]Param, len(s.Params))
	for _, p := range s.Params {
		byID[p.ID] = p
	}
	out := make([]Param, 0, len(fn.Params))
	for _, id := range fn.Params {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("function %d declares param %d: %w", functionID, id, ErrUnknownParam)
		}
		out = append(out, p)
	}
	return out, nil
}
