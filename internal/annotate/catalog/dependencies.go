package catalog

import (
	"encoding/json"
	"slices"

	"annotator/internal/annotate/projector"
)

// Dependencies is the variant/activity catalog derived from the seed
// configuration: variants are its top-level keys, activities the keys nested
// under each variant.
type Dependencies struct {
	variants   []string
	activities map[string][]string
}

func NewDependencies(seed projector.Config) Dependencies {
	d := Dependencies{activities: make(map[string][]string, len(seed))}
	for variant, acts := range seed {
		d.variants = append(d.variants, variant)
		names := make([]string, 0, len(acts))
		for a := range acts {
			names = append(names, a)
		}
		slices.Sort(names)
		d.activities[variant] = names
	}
	slices.Sort(d.variants)
	return d
}

func (d Dependencies) Variants() []string {
	return slices.Clone(d.variants)
}

func (d Dependencies) Activities(variant string) []string {
	return slices.Clone(d.activities[variant])
}

func (d Dependencies) Has(variant, activity string) bool {
	return slices.Contains(d.activities[variant], activity)
}

func (d Dependencies) HasVariant(variant string) bool {
	_, ok := d.activities[variant]
	return ok
}

// MarshalJSON renders variant -> activities.
func (d Dependencies) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(d.activities))
	for v, acts := range d.activities {
		out[v] = acts
	}
	return json.Marshal(out)
}
