package importer

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"fabric-annotator/internal/editor"
)

// ============================================================
// Renderer
// ============================================================

// RenderSVG draws boxes as an SVG overlay of a width x height image. The
// output reads back through ParseSVG to the same normalized boxes.
func RenderSVG(width, height float64, boxes []editor.BoundingBox) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height))
	b.WriteString("\n")

	for _, box := range boxes {
		x1, y1, x2, y2 := box.Normalized()
		b.WriteString("  <rect")
		if box.ID != "" {
			writeAttr(&b, "id", box.ID)
		}
		if box.Label != "" {
			writeAttr(&b, "data-label", box.Label)
		}
		writeAttr(&b, "x", formatFloat(x1))
		writeAttr(&b, "y", formatFloat(y1))
		writeAttr(&b, "width", formatFloat(x2-x1))
		writeAttr(&b, "height", formatFloat(y2-y1))
		b.WriteString(` fill="none" stroke="#e6194b" />` + "\n")
	}

	b.WriteString(`</svg>` + "\n")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(b, []byte(value))
	b.WriteString(`"`)
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
