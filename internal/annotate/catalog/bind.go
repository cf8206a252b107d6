package catalog

import (
	"strings"

	"annotator/internal/annotate"
	"annotator/internal/annotate/registry"
)

// Draft is what the operator filled in for the pending region.
type Draft struct {
	ComponentKey string            `json:"component_key"`
	FunctionID   int               `json:"function_id"`
	Params       map[string]string `json:"params"`
	Variant      string            `json:"variant"`
	Activity     string            `json:"activity"`
}

// Bind validates a draft against the catalogs and builds the region behavior.
// Failures come back as *annotate.ValidationError carrying every flag raised.
// When the component catalog is empty any non-empty key is accepted.
func Bind(snap Snapshot, deps Dependencies, d Draft) (registry.Behavior, error) {
	verr := &annotate.ValidationError{}
	key := strings.TrimSpace(d.ComponentKey)
	switch {
	case key == "":
		verr.Add(annotate.FlagComponentRequired)
	case len(snap.Components) > 0:
		if _, ok := snap.Component(key); !ok {
			verr.Add(annotate.FlagComponentUnknown)
		}
	}

	if d.FunctionID != PlaceholderFunctionID {
		params, err := snap.ResolveParams(d.FunctionID)
		if err != nil {
			verr.Add(annotate.FlagFunctionUnknown)
			return registry.Behavior{}, verr
		}
		values := make(map[string]string, len(params))
		for _, p := range params {
			v := strings.TrimSpace(d.Params[p.Label])
			if v == "" {
				if p.Required() {
					verr.Add(annotate.FlagParamRequired + ":" + p.Label)
				}
				continue
			}
			values[p.Label] = v
		}
		if err := verr.Err(); err != nil {
			return registry.Behavior{}, err
		}
		return registry.FunctionBehavior(d.FunctionID, values), nil
	}

	variant := strings.TrimSpace(d.Variant)
	activity := strings.TrimSpace(d.Activity)
	switch {
	case variant == "":
		verr.Add(annotate.FlagVariantRequired)
	case !deps.HasVariant(variant):
		verr.Add(annotate.FlagVariantUnknown)
	}
	switch {
	case activity == "":
		verr.Add(annotate.FlagActivityRequired)
	case variant != "" && deps.HasVariant(variant) && !deps.Has(variant, activity):
		verr.Add(annotate.FlagActivityUnknown)
	}
	if err := verr.Err(); err != nil {
		return registry.Behavior{}, err
	}
	return registry.DependencyBehavior(variant, activity), nil
}
