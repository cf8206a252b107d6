// Package geometry maps points and rectangles between display space (the
// rendered, possibly scaled screenshot) and reference space (the original
// image's pixel grid).
package geometry

import "math"

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is stored in reference space. X1 <= X2 and Y1 <= Y2 always hold for
// values built with NewRect.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewRect normalizes two arbitrary corners into (top-left, bottom-right).
func NewRect(p, q Point) Rect {
	return Rect{
		X1: min(p.X, q.X),
		Y1: min(p.Y, q.Y),
		X2: max(p.X, q.X),
		Y2: max(p.Y, q.Y),
	}
}

func (r Rect) TopLeft() Point     { return Point{X: r.X1, Y: r.Y1} }
func (r Rect) BottomRight() Point { return Point{X: r.X2, Y: r.Y2} }
func (r Rect) Width() int         { return r.X2 - r.X1 }
func (r Rect) Height() int        { return r.Y2 - r.Y1 }

// Empty reports a zero-area selection.
func (r Rect) Empty() bool {
	return r.X1 == r.X2 || r.Y1 == r.Y2
}

func (r Rect) Normalized() bool {
	return r.X1 <= r.X2 && r.Y1 <= r.Y2
}

// Metrics pairs the current viewport size with the natural image size. It is
// recomputed on every resize and image load and never persisted.
type Metrics struct {
	Display   Size `json:"display"`
	Reference Size `json:"reference"`
}

func (m Metrics) Ready() bool {
	return m.Display.Valid() && m.Reference.Valid()
}

func ToReference(p Point, m Metrics) Point {
	return Point{
		X: scale(p.X, m.Reference.Width, m.Display.Width),
		Y: scale(p.Y, m.Reference.Height, m.Display.Height),
	}
}

func ToDisplay(p Point, m Metrics) Point {
	return Point{
		X: scale(p.X, m.Display.Width, m.Reference.Width),
		Y: scale(p.Y, m.Display.Height, m.Reference.Height),
	}
}

func RectToReference(r Rect, m Metrics) Rect {
	return NewRect(ToReference(r.TopLeft(), m), ToReference(r.BottomRight(), m))
}

func RectToDisplay(r Rect, m Metrics) Rect {
	return NewRect(ToDisplay(r.TopLeft(), m), ToDisplay(r.BottomRight(), m))
}

// scale returns round(v * to / from); a zero source extent yields 0.
func scale(v, to, from int) int {
	if from == 0 {
		return 0
	}
	return int(math.Round(float64(v) * float64(to) / float64(from)))
}
