package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotator/internal/annotate/geometry"
)

var halfScale = geometry.Metrics{
	Display:   geometry.Size{Width: 400, Height: 300},
	Reference: geometry.Size{Width: 800, Height: 600},
}

func TestDragUpLeftCommitsCanonicalReferenceRect(t *testing.T) {
	var m Machine
	m.PointerDown(geometry.Point{X: 100, Y: 150})
	assert.Equal(t, Capturing, m.State())

	rect, err := m.PointerUp(geometry.Point{X: 50, Y: 50}, halfScale)
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{X1: 100, Y1: 100, X2: 200, Y2: 300}, rect)
	assert.Equal(t, RegionReady, m.State())

	got, err := m.Confirm()
	require.NoError(t, err)
	assert.Equal(t, rect, got)
	assert.Equal(t, Idle, m.State())
}

func TestDragDirectionDoesNotMatter(t *testing.T) {
	p := geometry.Point{X: 10, Y: 200}
	q := geometry.Point{X: 300, Y: 20}

	var a, b Machine
	a.PointerDown(p)
	ra, err := a.PointerUp(q, halfScale)
	require.NoError(t, err)
	b.PointerDown(q)
	rb, err := b.PointerUp(p, halfScale)
	require.NoError(t, err)

	assert.Equal(t, ra, rb)
	assert.True(t, ra.Normalized())
}

func TestSecondPressRestartsAnchor(t *testing.T) {
	var m Machine
	m.PointerDown(geometry.Point{X: 1, Y: 1})
	m.PointerDown(geometry.Point{X: 40, Y: 40})

	anchor, ok := m.Anchor()
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 40, Y: 40}, anchor)

	rect, err := m.PointerUp(geometry.Point{X: 50, Y: 60}, halfScale)
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{X1: 80, Y1: 80, X2: 100, Y2: 120}, rect)
}

func TestPointerUpWithoutPressIsRejected(t *testing.T) {
	var m Machine
	_, err := m.PointerUp(geometry.Point{X: 5, Y: 5}, halfScale)
	assert.ErrorIs(t, err, ErrNotCapturing)
	assert.Equal(t, Idle, m.State())
}

func TestDiscardDropsRegion(t *testing.T) {
	var m Machine
	m.PointerDown(geometry.Point{X: 1, Y: 1})
	_, err := m.PointerUp(geometry.Point{X: 9, Y: 9}, halfScale)
	require.NoError(t, err)

	m.Discard()
	assert.Equal(t, Idle, m.State())
	_, err = m.Confirm()
	assert.ErrorIs(t, err, ErrNoRegion)
}

func TestClampOffset(t *testing.T) {
	neg, zero, pos := -4, 0, 17
	assert.Equal(t, 1, ClampOffset(nil))
	assert.Equal(t, 1, ClampOffset(&neg))
	assert.Equal(t, 0, ClampOffset(&zero))
	assert.Equal(t, 17, ClampOffset(&pos))
	assert.Equal(t, geometry.Point{X: 1, Y: 17}, ClampPoint(&neg, &pos))
}
