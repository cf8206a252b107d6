// Package annotate holds the error taxonomy shared by the screenshot
// annotation packages. Invalid registry indexes live in package registry.
package annotate

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrValidation marks operator input that cannot be committed yet. It is
	// never fatal; the operator corrects the form and retries.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork marks a failed fetch or save against an external service.
	// Prior state is kept and the operator may retry the action.
	ErrNetwork = errors.New("network failure")
)

const (
	FlagComponentRequired = "component_required"
	FlagComponentUnknown  = "component_unknown"
	FlagFunctionUnknown   = "function_unknown"
	FlagParamRequired     = "param_required"
	FlagVariantRequired   = "variant_required"
	FlagVariantUnknown    = "variant_unknown"
	FlagActivityRequired  = "activity_required"
	FlagActivityUnknown   = "activity_unknown"
	FlagRegionMissing     = "region_missing"
	FlagEmptyRegion       = "empty_region"
)

// ValidationError lists every flag raised for one commit attempt.
type ValidationError struct {
	Flags []string `json:"flags"`
}

func (e *ValidationError) Add(flag string) {
	e.Flags = append(e.Flags, flag)
}

func (e *ValidationError) Has(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// Err returns nil when no flag was raised.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Flags) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Flags, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
