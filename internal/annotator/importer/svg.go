// Package importer turns external annotations (SVG overlays, detector
// output) into editor boxes.
package importer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"fabric-annotator/internal/editor"
)

// ============================================================
// XML Structures
// ============================================================

type Rect struct {
	ID     string  `xml:"id,attr"`
	Class  string  `xml:"class,attr"`
	Label  string  `xml:"data-label,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

// ErrNotSVG is returned when the document root is not <svg>.
var ErrNotSVG = errors.New("document is not an svg")

// ============================================================
// Parser
// ============================================================

// ParseSVG reads every <rect> of an SVG overlay, at any depth, as a box.
// Rects without a positive size are skipped. A repeated id gets a numeric
// suffix ("roll_1", "roll_1-2").
func ParseSVG(r io.Reader) ([]editor.BoundingBox, error) {
	decoder := xml.NewDecoder(r)
	boxes := []editor.BoundingBox{}
	seen := map[string]bool{}
	rooted := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !rooted {
			if start.Name.Local != "svg" {
				return nil, ErrNotSVG
			}
			rooted = true
			continue
		}
		if start.Name.Local != "rect" {
			continue
		}

		var rect Rect
		if err := decoder.DecodeElement(&rect, &start); err != nil {
			return nil, fmt.Errorf("parse rect %q: %w", rect.ID, err)
		}
		if rect.Width <= 0 || rect.Height <= 0 {
			continue
		}
		boxes = append(boxes, editor.BoundingBox{
			StartX: rect.X,
			StartY: rect.Y,
			EndX:   rect.X + rect.Width,
			EndY:   rect.Y + rect.Height,
			ID:     uniqueID(rect.ID, seen),
			Label:  labelFor(rect),
		})
	}

	if !rooted {
		return nil, ErrNotSVG
	}
	return boxes, nil
}

// labelFor picks data-label, then the first class, then the id prefix
// ("roll_12" -> "roll").
func labelFor(rect Rect) string {
	if l := strings.TrimSpace(rect.Label); l != "" {
		return l
	}
	if fields := strings.Fields(rect.Class); len(fields) > 0 {
		return fields[0]
	}
	if i := strings.IndexAny(rect.ID, "_-"); i > 0 {
		return strings.ToLower(rect.ID[:i])
	}
	return ""
}

func uniqueID(id string, seen map[string]bool) string {
	if id == "" {
		return ""
	}
	out := id
	for n := 2; seen[out]; n++ {
		out = fmt.Sprintf("%s-%d", id, n)
	}
	seen[out] = true
	return out
}
