package registry

import (
	"errors"
	"maps"
)

var ErrInvalidBehavior = errors.New("behavior must carry exactly one of function or dependency")

type FunctionBinding struct {
	FunctionID int               `json:"function_id"`
	Params     map[string]string `json:"params"`
}

type DependencyBinding struct {
	Variant  string `json:"variant"`
	Activity string `json:"activity"`
}

// Behavior is a tagged union: exactly one field is set.
type Behavior struct {
	Function   *FunctionBinding   `json:"function,omitempty"`
	Dependency *DependencyBinding `json:"dependency,omitempty"`
}

func FunctionBehavior(functionID int, params map[string]string) Behavior {
	return Behavior{Function: &FunctionBinding{FunctionID: functionID, Params: maps.Clone(params)}}
}

func DependencyBehavior(variant, activity string) Behavior {
	return Behavior{Dependency: &DependencyBinding{Variant: variant, Activity: activity}}
}

func (b Behavior) Validate() error {
	if (b.Function == nil) == (b.Dependency == nil) {
		return ErrInvalidBehavior
	}
	return nil
}

func (b Behavior) clone() Behavior {
	out := Behavior{}
	if b.Function != nil {
		out.Function = &FunctionBinding{FunctionID: b.Function.FunctionID, Params: maps.Clone(b.Function.Params)}
		if out.Function.Params == nil {
			out.Function.Params = map[string]string{}
		}
	}
	if b.Dependency != nil {
		dep := *b.Dependency
		out.Dependency = &dep
	}
	return out
}
