// Package registry keeps the ordered mapping from GUI element key to the
// regions annotated for it. A Registry is an immutable value: Add and Remove
// return a new snapshot and never write into the receiver's storage.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"annotator/internal/annotate/geometry"
)

var ErrInvalidIndex = errors.New("invalid region index")

type Region struct {
	ID int `json:"id"`
	geometry.Rect
	Color    string   `json:"color"`
	Behavior Behavior `json:"behavior"`
}

type Entry struct {
	Key     string   `json:"key"`
	Regions []Region `json:"regions"`
}

// ColorFunc produces a display color for a new region. Colors only help the
// operator tell regions apart.
type ColorFunc func() string

func RandomColor() string {
	return colorful.FastHappyColor().Hex()
}

type Registry struct {
	keys    []string
	entries map[string][]Region
	lastID  int
	colors  ColorFunc
}

type Option func(*Registry)

func WithColors(fn ColorFunc) Option {
	return func(r *Registry) {
		r.colors = fn
	}
}

func New(opts ...Option) Registry {
	r := Registry{}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Add appends a region under key, creating the key on first use. Each call
// assigns the next sequence ID and a fresh color.
func (r Registry) Add(key string, rect geometry.Rect, b Behavior) (Registry, Region) {
	next := r.copyHeader()
	region := Region{
		ID:       r.lastID + 1,
		Rect:     rect,
		Color:    r.color(),
		Behavior: b.clone(),
	}
	next.lastID = region.ID

	existing, ok := r.entries[key]
	if !ok {
		next.keys = append(next.keys, key)
	}
	list := make([]Region, 0, len(existing)+1)
	list = append(list, existing...)
	next.entries[key] = append(list, region)
	return next, region
}

// Remove drops the region at index under key. Removing the last region of a
// key deletes the key. An unknown key or out-of-range index is a caller bug
// and reported as ErrInvalidIndex; the receiver is returned unchanged.
func (r Registry) Remove(key string, index int) (Registry, error) {
	existing, ok := r.entries[key]
	if !ok || index < 0 || index >= len(existing) {
		return r, fmt.Errorf("remove %q[%d] (have %d): %w", key, index, len(existing), ErrInvalidIndex)
	}
	next := r.copyHeader()
	if len(existing) == 1 {
		delete(next.entries, key)
		next.keys = slices.DeleteFunc(next.keys, func(k string) bool { return k == key })
		return next, nil
	}
	list := make([]Region, 0, len(existing)-1)
	list = append(list, existing[:index]...)
	next.entries[key] = append(list, existing[index+1:]...)
	return next, nil
}

func (r Registry) Keys() []string {
	return slices.Clone(r.keys)
}

func (r Registry) Regions(key string) []Region {
	return slices.Clone(r.entries[key])
}

// Entries lists keys with their regions in insertion order.
func (r Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Entry{Key: k, Regions: r.Regions(k)})
	}
	return out
}

func (r Registry) Len() int { return len(r.keys) }

func (r Registry) Empty() bool { return len(r.keys) == 0 }

// LastID is the highest sequence ID handed out so far.
func (r Registry) LastID() int { return r.lastID }

func (r Registry) color() string {
	if r.colors != nil {
		return r.colors()
	}
	return RandomColor()
}

// copyHeader clones the key order and the key->slice map. Region slices are
// shared until a mutation replaces them with a fresh slice.
func (r Registry) copyHeader() Registry {
	entries := make(map[string][]Region, len(r.entries)+1)
	for k, v := range r.entries {
		entries[k] = v
	}
	return Registry{
		keys:    slices.Clone(r.keys),
		entries: entries,
		lastID:  r.lastID,
		colors:  r.colors,
	}
}

// MarshalJSON writes an object whose member order is the key insertion order.
func (r Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON seeds a registry from a saved configuration, keeping document
// order and resuming the ID sequence after the highest stored ID. A region
// whose behavior is not exactly one binding fails with ErrInvalidBehavior and
// leaves the receiver unchanged.
func (r *Registry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = Registry{colors: r.colors}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("registry: expected object, got %v", tok)
	}
	next := Registry{entries: map[string][]Region{}, colors: r.colors}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("registry: expected key, got %v", tok)
		}
		var regions []Region
		if err := dec.Decode(&regions); err != nil {
			return fmt.Errorf("registry: decode %q: %w", key, err)
		}
		if len(regions) == 0 {
			continue
		}
		for i := range regions {
			if err := regions[i].Behavior.Validate(); err != nil {
				return fmt.Errorf("registry: %q region %d: %w", key, regions[i].ID, err)
			}
			if regions[i].ID > next.lastID {
				next.lastID = regions[i].ID
			}
			regions[i].Behavior = regions[i].Behavior.clone()
		}
		if _, seen := next.entries[key]; !seen {
			next.keys = append(next.keys, key)
		}
		next.entries[key] = append(next.entries[key], regions...)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = next
	return nil
}
