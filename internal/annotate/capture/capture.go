package capture

import (
	"errors"
	"fmt"

	"annotator/internal/annotate/geometry"
)

type State int

const (
	Idle State = iota
	Capturing
	RegionReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case RegionReady:
		return "region_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNotCapturing = errors.New("no capture in progress")
	ErrNoRegion     = errors.New("no region ready")
)

// Machine tracks a single-pointer drag gesture. The zero value is Idle.
// It is not safe for concurrent use; callers serialize access.
type Machine struct {
	state  State
	anchor geometry.Point
	rect   geometry.Rect
}

func (m *Machine) State() State { return m.state }

// Anchor is the display-space press point while Capturing.
func (m *Machine) Anchor() (geometry.Point, bool) {
	return m.anchor, m.state == Capturing
}

// Region is the reference-space rectangle while RegionReady.
func (m *Machine) Region() (geometry.Rect, bool) {
	return m.rect, m.state == RegionReady
}

// PointerDown starts (or restarts) a capture. A press while already
// capturing or with an uncommitted region replaces the anchor.
func (m *Machine) PointerDown(p geometry.Point) {
	m.state = Capturing
	m.anchor = p
	m.rect = geometry.Rect{}
}

// PointerUp closes the gesture, normalizes the drag in display space and maps
// it to reference space with the metrics current at release time.
func (m *Machine) PointerUp(q geometry.Point, metrics geometry.Metrics) (geometry.Rect, error) {
	if m.state != Capturing {
		return geometry.Rect{}, fmt.Errorf("pointer up in %s: %w", m.state, ErrNotCapturing)
	}
	display := geometry.NewRect(m.anchor, q)
	m.rect = geometry.RectToReference(display, metrics)
	m.state = RegionReady
	return m.rect, nil
}

// Confirm hands out the ready region and resets to Idle. Call it only after
// the region has been committed.
func (m *Machine) Confirm() (geometry.Rect, error) {
	if m.state != RegionReady {
		return geometry.Rect{}, fmt.Errorf("confirm in %s: %w", m.state, ErrNoRegion)
	}
	r := m.rect
	m.Discard()
	return r, nil
}

func (m *Machine) Discard() {
	*m = Machine{}
}

// ClampOffset applies the viewport-edge policy shared by every gesture
// handler: an undefined or negative pointer offset becomes 1.
func ClampOffset(v *int) int {
	if v == nil || *v < 0 {
		return 1
	}
	return *v
}

func ClampPoint(x, y *int) geometry.Point {
	return geometry.Point{X: ClampOffset(x), Y: ClampOffset(y)}
}
