package editor

import (
	"math"
)

// ============================================================
// Hit Testing
// ============================================================

// DefaultEdgeThreshold is the handle radius in logical pixels at zoom 1.
const DefaultEdgeThreshold = 5.0

// minThresholdZoom caps how far the handle radius grows when zoomed out.
const minThresholdZoom = 0.5

// Handle identifies a resize handle of a box.
type Handle string

const (
	HandleNone Handle = ""
	HandleTL   Handle = "tl"
	HandleTR   Handle = "tr"
	HandleBL   Handle = "bl"
	HandleBR   Handle = "br"
	HandleN    Handle = "n"
	HandleS    Handle = "s"
	HandleW    Handle = "w"
	HandleE    Handle = "e"
)

// Cursor is the pointer affordance shown for a hover position.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorCrosshair Cursor = "crosshair"
	CursorMove      Cursor = "move"
	CursorNWSE      Cursor = "nwse-resize"
	CursorNESW      Cursor = "nesw-resize"
	CursorNS        Cursor = "ns-resize"
	CursorEW        Cursor = "ew-resize"
)

// Hit is the classification of a point against one box.
type Hit struct {
	Handle Handle
	Inside bool
}

// Miss reports whether the point is neither on a handle nor inside.
func (h Hit) Miss() bool {
	return h.Handle == HandleNone && !h.Inside
}

// Threshold returns the handle radius for the given zoom. It shrinks as zoom
// grows so the on-screen target stays roughly constant.
func Threshold(edgeThreshold, zoom float64) float64 {
	return edgeThreshold / math.Max(zoom, minThresholdZoom)
}

// HandleAt returns the handle of b under p, testing corners before edge
// midpoints. HandleNone means no handle is within threshold.
func HandleAt(b BoundingBox, p Point, zoom, edgeThreshold float64) Handle {
	x1, y1, x2, y2 := b.Normalized()
	t := Threshold(edgeThreshold, zoom)
	mx, my := (x1+x2)/2, (y1+y2)/2

	anchors := [...]struct {
		h    Handle
		x, y float64
	}{
		{HandleTL, x1, y1},
		{HandleTR, x2, y1},
		{HandleBL, x1, y2},
		{HandleBR, x2, y2},
		{HandleN, mx, y1},
		{HandleS, mx, y2},
		{HandleW, x1, my},
		{HandleE, x2, my},
	}
	for _, a := range anchors {
		if math.Abs(p.X-a.x) <= t && math.Abs(p.Y-a.y) <= t {
			return a.h
		}
	}
	return HandleNone
}

// Inside reports whether p lies strictly within b. Boundary points are outside.
func Inside(b BoundingBox, p Point) bool {
	x1, y1, x2, y2 := b.Normalized()
	return x1 < p.X && p.X < x2 && y1 < p.Y && p.Y < y2
}

// Classify combines HandleAt and Inside. A handle hit takes priority.
func Classify(b BoundingBox, p Point, zoom, edgeThreshold float64) Hit {
	if h := HandleAt(b, p, zoom, edgeThreshold); h != HandleNone {
		return Hit{Handle: h}
	}
	return Hit{Inside: Inside(b, p)}
}

// BoxAt finds the box a click at p targets. The active box (index active,
// -1 for none) is tested first so its handles are never stolen by a box
// beneath it; the rest are scanned topmost (last) first.
func BoxAt(boxes []BoundingBox, active int, p Point, zoom, edgeThreshold float64) (int, Hit) {
	if active >= 0 && active < len(boxes) {
		if hit := Classify(boxes[active], p, zoom, edgeThreshold); !hit.Miss() {
			return active, hit
		}
	}
	for i := len(boxes) - 1; i >= 0; i-- {
		if i == active {
			continue
		}
		if hit := Classify(boxes[i], p, zoom, edgeThreshold); !hit.Miss() {
			return i, hit
		}
	}
	return -1, Hit{}
}

// CursorFor maps a handle to its resize cursor.
func CursorFor(h Handle) Cursor {
	switch h {
	case HandleTL, HandleBR:
		return CursorNWSE
	case HandleTR, HandleBL:
		return CursorNESW
	case HandleN, HandleS:
		return CursorNS
	case HandleW, HandleE:
		return CursorEW
	}
	return CursorCrosshair
}

// resize moves exactly the fields the handle controls to p. b must be the box
// as it was when the gesture began, so the handle keeps driving the same
// fields after the box flips. The stored orientation of b is preserved.
func resize(b BoundingBox, h Handle, p Point) BoundingBox {
	left, right := &b.StartX, &b.EndX
	if b.StartX > b.EndX {
		left, right = right, left
	}
	top, bottom := &b.StartY, &b.EndY
	if b.StartY > b.EndY {
		top, bottom = bottom, top
	}
	switch h {
	case HandleTL:
		*left, *top = p.X, p.Y
	case HandleTR:
		*right, *top = p.X, p.Y
	case HandleBL:
		*left, *bottom = p.X, p.Y
	case HandleBR:
		*right, *bottom = p.X, p.Y
	case HandleN:
		*top = p.Y
	case HandleS:
		*bottom = p.Y
	case HandleW:
		*left = p.X
	case HandleE:
		*right = p.X
	}
	return b
}
