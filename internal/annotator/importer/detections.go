package importer

import (
	"fmt"

	"fabric-annotator/internal/annotator/models"
	"fabric-annotator/internal/editor"
)

// FromDetections converts detector rows to boxes. Rows under minConfidence
// and rows smaller than editor.MinBoxSize on either axis are dropped. Kept
// boxes get ids det-1, det-2, ... in input order.
func FromDetections(dets []models.Detection, minConfidence float64) []editor.BoundingBox {
	boxes := []editor.BoundingBox{}
	for _, d := range dets {
		if d.Confidence < minConfidence {
			continue
		}
		if d.Width < editor.MinBoxSize || d.Height < editor.MinBoxSize {
			continue
		}
		boxes = append(boxes, editor.BoundingBox{
			StartX: d.X,
			StartY: d.Y,
			EndX:   d.X + d.Width,
			EndY:   d.Y + d.Height,
			ID:     fmt.Sprintf("det-%d", len(boxes)+1),
			Label:  d.Label,
		})
	}
	return boxes
}

// Clip limits boxes to a width x height image, dropping boxes that end up
// smaller than editor.MinBoxSize.
func Clip(boxes []editor.BoundingBox, width, height float64) []editor.BoundingBox {
	out := make([]editor.BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		x1, y1, x2, y2 := b.Normalized()
		if width > 0 {
			x1, x2 = limit(x1, width), limit(x2, width)
		}
		if height > 0 {
			y1, y2 = limit(y1, height), limit(y2, height)
		}
		if x2-x1 < editor.MinBoxSize || y2-y1 < editor.MinBoxSize {
			continue
		}
		b.StartX, b.StartY, b.EndX, b.EndY = x1, y1, x2, y2
		out = append(out, b)
	}
	return out
}

func limit(v, hi float64) float64 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
