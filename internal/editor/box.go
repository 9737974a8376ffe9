package editor

import (
	"fmt"
	"math"
	"time"
)

// ============================================================
// Geometry
// ============================================================

// MinBoxSize is the smallest normalized width and height a drawn box may have.
const MinBoxSize = 5.0

// Point is a position in logical (unscaled image pixel) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is a rectangle in logical coordinates. Start may be greater than
// end on either axis; use Normalized when the ordered corners are needed.
type BoundingBox struct {
	StartX float64 `json:"startX" yaml:"start_x"`
	StartY float64 `json:"startY" yaml:"start_y"`
	EndX   float64 `json:"endX" yaml:"end_x"`
	EndY   float64 `json:"endY" yaml:"end_y"`
	ID     string  `json:"id,omitempty" yaml:"id,omitempty"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Normalized returns the box corners ordered so that x1 <= x2 and y1 <= y2.
func (b BoundingBox) Normalized() (x1, y1, x2, y2 float64) {
	return math.Min(b.StartX, b.EndX), math.Min(b.StartY, b.EndY),
		math.Max(b.StartX, b.EndX), math.Max(b.StartY, b.EndY)
}

func (b BoundingBox) Width() float64 {
	return math.Abs(b.EndX - b.StartX)
}

func (b BoundingBox) Height() float64 {
	return math.Abs(b.EndY - b.StartY)
}

// Equal compares every field of both boxes.
func (b BoundingBox) Equal(o BoundingBox) bool {
	return b.StartX == o.StartX && b.StartY == o.StartY &&
		b.EndX == o.EndX && b.EndY == o.EndY &&
		b.ID == o.ID && b.Label == o.Label
}

// SameGeometry compares only the four coordinates.
func (b BoundingBox) SameGeometry(o BoundingBox) bool {
	return b.StartX == o.StartX && b.StartY == o.StartY &&
		b.EndX == o.EndX && b.EndY == o.EndY
}

// Translate returns the box shifted by (dx, dy).
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	b.StartX += dx
	b.EndX += dx
	b.StartY += dy
	b.EndY += dy
	return b
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%s{%g,%g,%g,%g}", b.ID, b.StartX, b.StartY, b.EndX, b.EndY)
}

// ClientToLogical maps a pointer position given relative to the page into
// logical canvas coordinates, using the canvas origin on the page and the zoom.
func ClientToLogical(client, origin Point, zoom float64) Point {
	if zoom <= 0 {
		zoom = 1
	}
	return Point{
		X: (client.X - origin.X) / zoom,
		Y: (client.Y - origin.Y) / zoom,
	}
}

// EqualBoxes reports whether both collections hold equal boxes in the same order.
func EqualBoxes(a, b []BoundingBox) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func cloneBoxes(boxes []BoundingBox) []BoundingBox {
	out := make([]BoundingBox, len(boxes))
	copy(out, boxes)
	return out
}

func indexOf(boxes []BoundingBox, id string) int {
	if id == "" {
		return -1
	}
	for i := range boxes {
		if boxes[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// idFor formats interactive box ids as box-<unix millis>.
func idFor(t time.Time) string {
	return fmt.Sprintf("box-%d", t.UnixMilli())
}
