package session

import (
	"annotator/internal/annotate/geometry"
	"annotator/internal/annotate/registry"
	"annotator/internal/gateway/repository/screenshot"
)

// Overlay is a committed region positioned for the current display size.
type Overlay struct {
	Key       string        `json:"key"`
	Index     int           `json:"index"`
	ID        int           `json:"id"`
	Color     string        `json:"color"`
	Display   geometry.Rect `json:"display"`
	Reference geometry.Rect `json:"reference"`
}

type View struct {
	ID       string            `json:"id"`
	Params   Params            `json:"params"`
	Image    screenshot.Image  `json:"image"`
	Display  geometry.Size     `json:"display"`
	State    string            `json:"state"`
	Anchor   *geometry.Point   `json:"anchor,omitempty"`
	Pending  *geometry.Rect    `json:"pending,omitempty"`
	Elements registry.Registry `json:"elements"`
	Overlays []Overlay         `json:"overlays"`
	Mounted  bool              `json:"mounted"`
	Finished bool              `json:"finished"`
}

// View snapshots the session for rendering. Overlay rectangles are mapped to
// display space with the metrics current at call time; before the display
// size is known they are omitted.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:       s.id,
		Params:   s.params,
		Image:    s.image,
		Display:  s.metrics.Display,
		State:    s.machine.State().String(),
		Elements: s.reg,
		Overlays: []Overlay{},
		Mounted:  s.mounted,
		Finished: s.finished,
	}
	if p, ok := s.machine.Anchor(); ok {
		v.Anchor = &p
	}
	if r, ok := s.machine.Region(); ok {
		v.Pending = &r
	}
	if !s.metrics.Ready() {
		return v
	}
	for _, e := range s.reg.Entries() {
		for i, r := range e.Regions {
			v.Overlays = append(v.Overlays, Overlay{
				Key:       e.Key,
				Index:     i,
				ID:        r.ID,
				Color:     r.Color,
				Display:   geometry.RectToDisplay(r.Rect, s.metrics),
				Reference: r.Rect,
			})
		}
	}
	return v
}
