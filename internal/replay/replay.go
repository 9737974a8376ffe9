// Package replay runs a YAML script of pointer gestures and box edits
// against an editor, to reproduce an editing session offline.
package replay

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"fabric-annotator/internal/editor"
)

// ============================================================
// Script
// ============================================================

type Script struct {
	Width         float64              `yaml:"width"`
	Height        float64              `yaml:"height"`
	Zoom          float64              `yaml:"zoom"`
	EdgeThreshold float64              `yaml:"edge_threshold"`
	MultipleBoxes *bool                `yaml:"multiple_boxes"`
	HistoryLimit  int                  `yaml:"history_limit"`
	Epoch         int64                `yaml:"epoch"` // generated ids start at box-<epoch+1>
	Boxes         []editor.BoundingBox `yaml:"boxes"`
	Steps         []Step               `yaml:"steps"`
}

// Step is one scripted action. Op selects which of the other fields apply:
// down/move (X, Y), up, cancel, undo, redo, add (Box), update (ID plus the
// set fields), remove (ID), clear, select (ID), zoom (Zoom), enable, disable.
type Step struct {
	Op   string              `yaml:"op"`
	X    float64             `yaml:"x"`
	Y    float64             `yaml:"y"`
	ID   string              `yaml:"id"`
	Box  *editor.BoundingBox `yaml:"box"`
	Zoom float64             `yaml:"zoom"`

	StartX *float64 `yaml:"start_x"`
	StartY *float64 `yaml:"start_y"`
	EndX   *float64 `yaml:"end_x"`
	EndY   *float64 `yaml:"end_y"`
	Label  *string  `yaml:"label"`
}

func (s Step) update() editor.BoxUpdate {
	return editor.BoxUpdate{StartX: s.StartX, StartY: s.StartY, EndX: s.EndX, EndY: s.EndY, Label: s.Label}
}

// Load decodes a script. Unknown keys are rejected.
func Load(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty script")
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return &s, nil
}

// ============================================================
// Run
// ============================================================

type StepResult struct {
	Index   int                   `json:"index"`
	Op      string                `json:"op"`
	Changed bool                  `json:"changed"`
	History *editor.HistoryResult `json:"history,omitempty"`
	Mode    editor.Mode           `json:"mode"`
	Boxes   int                   `json:"boxes"`
}

type Result struct {
	Steps        []StepResult         `json:"steps"`
	Boxes        []editor.BoundingBox `json:"boxes"`
	History      []editor.PatchOp     `json:"history"`
	HistoryIndex int                  `json:"historyIndex"`
}

// Run applies every step in order. Ids generated during the run come from a
// clock starting at Epoch and advancing one millisecond per id.
func Run(s *Script) (*Result, error) {
	multiple := true
	if s.MultipleBoxes != nil {
		multiple = *s.MultipleBoxes
	}
	tick := time.UnixMilli(s.Epoch)
	ed := editor.New(editor.Options{
		Width:         s.Width,
		Height:        s.Height,
		Zoom:          s.Zoom,
		EdgeThreshold: s.EdgeThreshold,
		MultipleBoxes: multiple,
		HistoryLimit:  s.HistoryLimit,
		Now: func() time.Time {
			tick = tick.Add(time.Millisecond)
			return tick
		},
	})
	ed.Load(s.Boxes)

	res := &Result{Steps: make([]StepResult, 0, len(s.Steps))}
	for i, step := range s.Steps {
		sr := StepResult{Index: i, Op: step.Op}

		switch step.Op {
		case "down":
			sr.Changed = ed.PointerDown(editor.Point{X: step.X, Y: step.Y})
		case "move":
			sr.Changed = ed.PointerMove(editor.Point{X: step.X, Y: step.Y})
		case "up":
			sr.Changed = ed.PointerUp()
		case "cancel":
			sr.Changed = ed.CancelGesture()
		case "undo":
			sr.History = ed.Undo()
			sr.Changed = sr.History != nil
		case "redo":
			sr.History = ed.Redo()
			sr.Changed = sr.History != nil
		case "add":
			if step.Box == nil {
				return nil, fmt.Errorf("step %d: add needs a box", i)
			}
			before := ed.Boxes()
			ed.AddBox(*step.Box)
			sr.Changed = !editor.EqualBoxes(before, ed.Boxes())
		case "update":
			sr.Changed = ed.UpdateBox(step.ID, step.update())
		case "remove":
			sr.Changed = ed.RemoveBox(step.ID)
		case "clear":
			sr.Changed = ed.ClearBoxes()
		case "select":
			sr.Changed = ed.Select(step.ID)
		case "zoom":
			ed.SetZoom(step.Zoom)
		case "enable":
			ed.SetEnabled(true)
		case "disable":
			ed.SetEnabled(false)
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}

		sr.Mode = ed.Mode()
		sr.Boxes = len(ed.Boxes())
		res.Steps = append(res.Steps, sr)
	}

	res.Boxes = ed.Boxes()
	res.History = ed.History()
	res.HistoryIndex = ed.HistoryIndex()
	return res, nil
}
