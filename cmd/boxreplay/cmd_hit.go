package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fabric-annotator/internal/editor"
)

// =============================================================================
// HIT COMMAND - probe hit-testing
// =============================================================================

var (
	hitBox       string
	hitAt        string
	hitZoom      float64
	hitThreshold float64
)

var hitCmd = &cobra.Command{
	Use:   "hit",
	Short: "Report which handle of a box a point hits",
	Args:  cobra.NoArgs,
	RunE:  runHit,
}

func init() {
	hitCmd.Flags().StringVar(&hitBox, "box", "", "box corners as x1,y1,x2,y2")
	hitCmd.Flags().StringVar(&hitAt, "at", "", "point as x,y")
	hitCmd.Flags().Float64Var(&hitZoom, "zoom", 1, "zoom level")
	hitCmd.Flags().Float64Var(&hitThreshold, "threshold", editor.DefaultEdgeThreshold, "edge threshold in screen pixels")
	_ = hitCmd.MarkFlagRequired("box")
	_ = hitCmd.MarkFlagRequired("at")
}

func runHit(cmd *cobra.Command, args []string) error {
	box, err := parseFloats(hitBox, 4)
	if err != nil {
		return fmt.Errorf("--box: %w", err)
	}
	at, err := parseFloats(hitAt, 2)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}

	b := editor.BoundingBox{StartX: box[0], StartY: box[1], EndX: box[2], EndY: box[3]}
	p := editor.Point{X: at[0], Y: at[1]}
	hit := editor.Classify(b, p, hitZoom, hitThreshold)

	cursor := editor.CursorCrosshair
	switch {
	case hit.Handle != editor.HandleNone:
		cursor = editor.CursorFor(hit.Handle)
	case hit.Inside:
		cursor = editor.CursorMove
	}

	handle := string(hit.Handle)
	if handle == "" {
		handle = "none"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "handle=%s inside=%t cursor=%s threshold=%g\n",
		handle, hit.Inside, cursor, editor.Threshold(hitThreshold, hitZoom))
	return nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
