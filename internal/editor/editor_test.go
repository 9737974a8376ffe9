package editor

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances one millisecond per call so generated ids are stable.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestEditor(multiple bool) *Editor {
	clock := &fakeClock{t: time.UnixMilli(1_000)}
	return New(Options{
		Width:         200,
		Height:        200,
		MultipleBoxes: multiple,
		Now:           clock.now,
	})
}

func drag(e *Editor, from, to Point) bool {
	e.PointerDown(from)
	e.PointerMove(to)
	return e.PointerUp()
}

func geometry(b BoundingBox) [4]float64 {
	return [4]float64{b.StartX, b.StartY, b.EndX, b.EndY}
}

func TestEditor_WorkedScenario(t *testing.T) {
	e := newTestEditor(true)

	require.True(t, drag(e, Point{0, 0}, Point{50, 50}))
	require.Len(t, e.Boxes(), 1)
	a := e.Boxes()[0]
	assert.Equal(t, [4]float64{0, 0, 50, 50}, geometry(a))
	assert.Equal(t, "box-1001", a.ID)
	require.Len(t, e.History(), 1)
	assert.Equal(t, OpAdd, e.History()[0].Kind)
	assert.Equal(t, 0, e.HistoryIndex())

	require.True(t, drag(e, Point{25, 25}, Point{35, 35}))
	require.Len(t, e.History(), 2)
	assert.Equal(t, OpUpdate, e.History()[1].Kind)
	assert.Equal(t, 1, e.HistoryIndex())
	assert.Equal(t, [4]float64{10, 10, 60, 60}, geometry(e.Boxes()[0]))

	res := e.Undo()
	require.NotNil(t, res)
	assert.Equal(t, DirectionUndo, res.Direction)
	assert.Equal(t, OpUpdate, res.Op.Kind)
	assert.Equal(t, [4]float64{0, 0, 50, 50}, geometry(e.Boxes()[0]))
	assert.Equal(t, 0, e.HistoryIndex())

	res = e.Undo()
	require.NotNil(t, res)
	assert.Equal(t, OpAdd, res.Op.Kind)
	assert.Empty(t, e.Boxes())
	assert.Equal(t, -1, e.HistoryIndex())
	assert.Nil(t, e.Undo())

	require.NotNil(t, e.Redo())
	res = e.Redo()
	require.NotNil(t, res)
	assert.Equal(t, DirectionRedo, res.Direction)
	assert.Equal(t, [4]float64{10, 10, 60, 60}, geometry(e.Boxes()[0]))
	assert.Equal(t, 1, e.HistoryIndex())
	assert.Nil(t, e.Redo())
}

func TestEditor_TinyBoxDiscarded(t *testing.T) {
	e := newTestEditor(true)

	assert.False(t, drag(e, Point{10, 10}, Point{14, 60}))
	assert.False(t, drag(e, Point{10, 10}, Point{60, 14.9}))
	assert.False(t, drag(e, Point{10, 10}, Point{10, 10}))

	assert.Empty(t, e.Boxes())
	assert.Empty(t, e.History())
	assert.Nil(t, e.ActiveBox())
	assert.Equal(t, ModeIdle, e.Mode())

	// exactly the minimum is accepted
	assert.True(t, drag(e, Point{10, 10}, Point{15, 15}))
	assert.Len(t, e.Boxes(), 1)
}

func TestEditor_DrawingShowsLiveBox(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 100, StartY: 100, EndX: 150, EndY: 150, ID: "keep"})

	require.True(t, e.PointerDown(Point{10, 10}))
	assert.True(t, e.Capturing())
	assert.Equal(t, ModeDrawing, e.Mode())

	e.PointerMove(Point{40, 30})
	boxes := e.Boxes()
	require.Len(t, boxes, 2)
	assert.Equal(t, [4]float64{10, 10, 40, 30}, geometry(boxes[1]))
	require.NotNil(t, e.ActiveBox())
	assert.Equal(t, boxes[1], *e.ActiveBox())

	// the pointer may leave the canvas; the live box is clamped to it
	e.PointerMove(Point{500, -20})
	assert.Equal(t, [4]float64{10, 10, 200, 0}, geometry(e.Boxes()[1]))

	require.True(t, e.PointerUp())
	assert.False(t, e.Capturing())
	assert.Len(t, e.Boxes(), 2)
	assert.Equal(t, "keep", e.Boxes()[0].ID)
}

func TestEditor_SingleBoxModeReplacesAll(t *testing.T) {
	e := newTestEditor(false)

	require.True(t, drag(e, Point{0, 0}, Point{20, 20}))
	require.True(t, drag(e, Point{100, 100}, Point{150, 130}))

	boxes := e.Boxes()
	require.Len(t, boxes, 1)
	assert.Equal(t, [4]float64{100, 100, 150, 130}, geometry(boxes[0]))

	hist := e.History()
	require.Len(t, hist, 2)
	assert.Equal(t, OpReplaceAll, hist[0].Kind)
	assert.Equal(t, OpReplaceAll, hist[1].Kind)
	assert.Len(t, hist[1].PrevAll, 1)

	e.Undo()
	assert.Equal(t, [4]float64{0, 0, 20, 20}, geometry(e.Boxes()[0]))
}

func TestEditor_SingleBoxDiscardRestoresPrevious(t *testing.T) {
	e := newTestEditor(false)
	require.True(t, drag(e, Point{0, 0}, Point{20, 20}))
	before := e.Boxes()

	e.PointerDown(Point{100, 100})
	e.PointerMove(Point{102, 102})
	assert.Len(t, e.Boxes(), 1)
	assert.False(t, e.PointerUp())

	if diff := cmp.Diff(before, e.Boxes()); diff != "" {
		t.Fatalf("boxes changed after discarded draw (-want +got):\n%s", diff)
	}
	assert.Len(t, e.History(), 1)
}

func TestEditor_MoveClampsToCanvas(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"})

	require.True(t, e.PointerDown(Point{30, 30}))
	assert.Equal(t, ModeMoving, e.Mode())

	e.PointerMove(Point{-100, -100})
	assert.Equal(t, [4]float64{0, 0, 40, 40}, geometry(e.Boxes()[0]))

	e.PointerMove(Point{200, 200})
	assert.Equal(t, [4]float64{160, 160, 200, 200}, geometry(e.Boxes()[0]))

	require.True(t, e.PointerUp())
	op := e.History()[1]
	assert.Equal(t, OpUpdate, op.Kind)
	assert.Equal(t, "a", op.ID)
	assert.Equal(t, [4]float64{10, 10, 50, 50}, geometry(op.Prev))
	assert.Equal(t, [4]float64{160, 160, 200, 200}, geometry(op.Next))
}

func TestEditor_ResizeMovesOnlyHandleSides(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"})

	tests := []struct {
		name string
		from Point
		to   Point
		want [4]float64
	}{
		{"north", Point{30, 10}, Point{30, 0}, [4]float64{10, 0, 50, 50}},
		{"east", Point{50, 30}, Point{80, 90}, [4]float64{10, 10, 80, 50}},
		{"bottom right", Point{50, 50}, Point{70, 65}, [4]float64{10, 10, 70, 65}},
		{"top left flips", Point{10, 10}, Point{70, 70}, [4]float64{70, 70, 50, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Load([]BoundingBox{{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"}})
			require.True(t, e.PointerDown(tt.from))
			require.Equal(t, ModeResizing, e.Mode())
			e.PointerMove(tt.to)
			require.True(t, e.PointerUp())
			assert.Equal(t, tt.want, geometry(e.Boxes()[0]))

			x1, y1, x2, y2 := e.Boxes()[0].Normalized()
			assert.GreaterOrEqual(t, x2-x1, 0.0)
			assert.GreaterOrEqual(t, y2-y1, 0.0)
		})
	}
}

func TestEditor_ResizeKeepsHandleAfterFlip(t *testing.T) {
	e := newTestEditor(true)
	e.Load([]BoundingBox{{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"}})

	e.PointerDown(Point{10, 10})
	e.PointerMove(Point{70, 70})
	e.PointerMove(Point{60, 30})
	e.PointerUp()

	// the handle still drives the original top-left corner
	assert.Equal(t, [4]float64{60, 30, 50, 50}, geometry(e.Boxes()[0]))
}

func TestEditor_ClickWithoutDragRecordsNothing(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"})

	e.PointerDown(Point{30, 30})
	assert.False(t, e.PointerUp())
	assert.Len(t, e.History(), 1)
	require.NotNil(t, e.ActiveBox())
	assert.Equal(t, "a", e.ActiveBox().ID)
}

func TestEditor_CancelGestureRestores(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"})
	before := e.Boxes()

	e.PointerDown(Point{30, 30})
	e.PointerMove(Point{60, 60})
	require.True(t, e.CancelGesture())
	assert.Equal(t, before, e.Boxes())
	assert.Equal(t, ModeIdle, e.Mode())

	e.PointerDown(Point{120, 120})
	e.PointerMove(Point{160, 160})
	require.True(t, e.CancelGesture())
	assert.Equal(t, before, e.Boxes())
	assert.Nil(t, e.ActiveBox())
	assert.Len(t, e.History(), 1)
	assert.False(t, e.CancelGesture())
}

func TestEditor_DisabledIgnoresPointer(t *testing.T) {
	e := newTestEditor(true)
	e.SetEnabled(false)

	assert.False(t, e.PointerDown(Point{10, 10}))
	assert.False(t, e.PointerMove(Point{50, 50}))
	assert.False(t, e.PointerUp())
	assert.Empty(t, e.Boxes())
	assert.Equal(t, CursorDefault, e.CursorAt(Point{10, 10}))
}

func TestEditor_CursorOnlyForActiveBox(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 10, StartY: 10, EndX: 100, EndY: 100, ID: "a"})
	e.AddBox(BoundingBox{StartX: 120, StartY: 120, EndX: 180, EndY: 180, ID: "b"})

	// nothing active: everything is a crosshair
	assert.Equal(t, CursorCrosshair, e.CursorAt(Point{10, 10}))
	assert.Equal(t, CursorCrosshair, e.CursorAt(Point{50, 50}))

	require.True(t, e.Select("a"))
	assert.Equal(t, CursorNWSE, e.CursorAt(Point{10, 10}))
	assert.Equal(t, CursorNESW, e.CursorAt(Point{100, 10}))
	assert.Equal(t, CursorNS, e.CursorAt(Point{55, 100}))
	assert.Equal(t, CursorEW, e.CursorAt(Point{10, 55}))
	assert.Equal(t, CursorMove, e.CursorAt(Point{50, 50}))
	// hovering a box that is not active
	assert.Equal(t, CursorCrosshair, e.CursorAt(Point{150, 150}))

	e.PointerMove(Point{50, 50})
	assert.Equal(t, CursorMove, e.Cursor())
}

func TestEditor_ActiveHandleBeatsBoxAbove(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{StartX: 0, StartY: 0, EndX: 50, EndY: 50, ID: "under"})
	e.AddBox(BoundingBox{StartX: 20, StartY: 20, EndX: 120, EndY: 120, ID: "top"})
	require.True(t, e.Select("under"))

	e.PointerDown(Point{50, 50})
	assert.Equal(t, ModeResizing, e.Mode())
	assert.Equal(t, "under", e.ActiveBox().ID)
	e.PointerMove(Point{60, 60})
	e.PointerUp()

	assert.Equal(t, [4]float64{0, 0, 60, 60}, geometry(e.Boxes()[0]))
	assert.Equal(t, [4]float64{20, 20, 120, 120}, geometry(e.Boxes()[1]))
}

func TestEditor_NewEditAfterUndoDropsRedo(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{EndX: 10, EndY: 10, ID: "a"})
	e.AddBox(BoundingBox{EndX: 20, EndY: 20, ID: "b"})

	require.NotNil(t, e.Undo())
	assert.True(t, e.CanRedo())

	e.AddBox(BoundingBox{EndX: 30, EndY: 30, ID: "c"})
	assert.False(t, e.CanRedo())
	assert.Nil(t, e.Redo())

	ids := []string{}
	for _, b := range e.Boxes() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestEditor_HistoryCap(t *testing.T) {
	e := newTestEditor(true)
	for i := 0; i <= DefaultHistoryLimit; i++ {
		e.AddBox(BoundingBox{EndX: 10, EndY: 10, ID: fmt.Sprintf("b%d", i)})
	}
	require.Len(t, e.History(), DefaultHistoryLimit)
	assert.Equal(t, DefaultHistoryLimit-1, e.HistoryIndex())

	undone := 0
	for e.Undo() != nil {
		undone++
	}
	assert.Equal(t, DefaultHistoryLimit, undone)
	// the first add fell off the log and can no longer be undone
	require.Len(t, e.Boxes(), 1)
	assert.Equal(t, "b0", e.Boxes()[0].ID)
}

func TestEditor_DirectAPI(t *testing.T) {
	e := newTestEditor(true)

	a := e.AddBox(BoundingBox{EndX: 10, EndY: 10, Label: "roll"})
	assert.NotEmpty(t, a.ID)
	b := e.AddBox(BoundingBox{StartX: 20, EndX: 40, EndY: 10})
	c := e.AddBox(BoundingBox{StartX: 50, EndX: 70, EndY: 10})
	require.Len(t, e.History(), 3)

	label := "bolt"
	endX := 45.0
	require.True(t, e.UpdateBox(b.ID, BoxUpdate{EndX: &endX, Label: &label}))
	got := e.Boxes()[1]
	assert.Equal(t, 45.0, got.EndX)
	assert.Equal(t, "bolt", got.Label)
	assert.Equal(t, b.ID, got.ID)

	// the same values again change nothing
	assert.False(t, e.UpdateBox(b.ID, BoxUpdate{EndX: &endX}))

	require.True(t, e.RemoveBox(b.ID))
	assert.Len(t, e.Boxes(), 2)
	require.Len(t, e.History(), 5)
	assert.Equal(t, RemoveOp(got, 1), e.History()[4])

	// undoing the removal puts the box back at its old index
	e.Undo()
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, idsOf(e.Boxes()))

	require.True(t, e.ClearBoxes())
	assert.Empty(t, e.Boxes())
	assert.False(t, e.ClearBoxes())
	assert.Equal(t, OpReplaceAll, e.History()[e.HistoryIndex()].Kind)

	e.Undo()
	assert.Len(t, e.Boxes(), 3)
}

func TestEditor_UnknownIDsAreNoops(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{EndX: 10, EndY: 10, ID: "a"})
	before := e.Boxes()

	label := "x"
	assert.False(t, e.UpdateBox("missing", BoxUpdate{Label: &label}))
	assert.False(t, e.RemoveBox("missing"))
	assert.Equal(t, before, e.Boxes())
	assert.Len(t, e.History(), 1)
}

func TestEditor_AddExistingIDOverwrites(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{EndX: 10, EndY: 10, ID: "a"})
	e.AddBox(BoundingBox{EndX: 30, EndY: 30, ID: "a"})

	require.Len(t, e.Boxes(), 1)
	assert.Equal(t, 30.0, e.Boxes()[0].EndX)
	assert.Equal(t, OpUpdate, e.History()[1].Kind)

	e.Undo()
	assert.Equal(t, 10.0, e.Boxes()[0].EndX)
}

func TestEditor_UndoClearsActiveBox(t *testing.T) {
	e := newTestEditor(true)
	drag(e, Point{0, 0}, Point{50, 50})
	drag(e, Point{100, 100}, Point{150, 150})
	require.NotNil(t, e.ActiveBox())

	e.Undo()
	assert.Nil(t, e.ActiveBox())

	require.True(t, e.Select(e.Boxes()[0].ID))
	e.Redo()
	assert.Nil(t, e.ActiveBox())
}

func TestEditor_LoadResetsHistory(t *testing.T) {
	e := newTestEditor(true)
	e.AddBox(BoundingBox{EndX: 10, EndY: 10})

	e.Load([]BoundingBox{{EndX: 5, EndY: 5}, {StartX: 10, EndX: 20, EndY: 20, ID: "x"}})
	assert.Empty(t, e.History())
	assert.False(t, e.CanUndo())
	boxes := e.Boxes()
	require.Len(t, boxes, 2)
	assert.NotEmpty(t, boxes[0].ID)
	assert.Equal(t, "x", boxes[1].ID)
}

func TestEditor_GeneratedIDsAreUnique(t *testing.T) {
	frozen := time.UnixMilli(42)
	e := New(Options{MultipleBoxes: true, Now: func() time.Time { return frozen }})

	a := e.AddBox(BoundingBox{EndX: 10, EndY: 10})
	b := e.AddBox(BoundingBox{EndX: 10, EndY: 10})
	assert.Equal(t, "box-42", a.ID)
	assert.Equal(t, "box-42-2", b.ID)
}

func TestEditor_UndoRedoRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 20; run++ {
		e := newTestEditor(rng.Intn(4) != 0)
		for step := 0; step < 40; step++ {
			randomEdit(rng, e)
		}

		before := e.Boxes()
		n := rng.Intn(e.HistoryIndex() + 2)
		undone := 0
		for i := 0; i < n; i++ {
			if e.Undo() != nil {
				undone++
			}
		}
		for i := 0; i < undone; i++ {
			require.NotNil(t, e.Redo())
		}
		if diff := cmp.Diff(before, e.Boxes()); diff != "" {
			t.Fatalf("run %d: undo/redo of %d ops changed boxes (-want +got):\n%s", run, undone, diff)
		}
	}
}

func randomEdit(rng *rand.Rand, e *Editor) {
	pt := func() Point { return Point{float64(rng.Intn(200)), float64(rng.Intn(200))} }
	boxes := e.Boxes()
	switch rng.Intn(7) {
	case 0, 1:
		drag(e, pt(), pt())
	case 2:
		x, y := float64(rng.Intn(150)), float64(rng.Intn(150))
		e.AddBox(BoundingBox{StartX: x, StartY: y, EndX: x + 20, EndY: y + 20})
	case 3:
		if len(boxes) > 0 {
			v := float64(rng.Intn(200))
			e.UpdateBox(boxes[rng.Intn(len(boxes))].ID, BoxUpdate{EndX: &v})
		}
	case 4:
		if len(boxes) > 0 {
			e.RemoveBox(boxes[rng.Intn(len(boxes))].ID)
		}
	case 5:
		if rng.Intn(5) == 0 {
			e.ClearBoxes()
		}
	case 6:
		if rng.Intn(2) == 0 {
			e.Undo()
		} else {
			e.Redo()
		}
	}
}

func idsOf(boxes []BoundingBox) []string {
	out := make([]string, len(boxes))
	for i, b := range boxes {
		out[i] = b.ID
	}
	return out
}

func TestEditor_MutationDuringGesture(t *testing.T) {
	a := BoundingBox{StartX: 10, StartY: 10, EndX: 50, EndY: 50, ID: "a"}
	b := BoundingBox{StartX: 0, StartY: 100, EndX: 20, EndY: 120, ID: "b"}
	labelled := a
	labelled.Label = "roll"

	gestures := []struct {
		name     string
		multiple bool
		seed     []BoundingBox
		from, to Point
		mode     Mode
		ownsA    bool
	}{
		{"drawing", true, []BoundingBox{a}, Point{120, 120}, Point{160, 160}, ModeDrawing, false},
		{"drawing single box", false, []BoundingBox{a}, Point{120, 120}, Point{160, 160}, ModeDrawing, false},
		{"drawing single box empty", false, []BoundingBox{}, Point{10, 10}, Point{60, 60}, ModeDrawing, false},
		{"moving", true, []BoundingBox{a}, Point{30, 30}, Point{40, 40}, ModeMoving, true},
		{"resizing", true, []BoundingBox{a}, Point{50, 50}, Point{70, 70}, ModeResizing, true},
	}

	type outcome struct {
		changed bool
		boxes   []BoundingBox
	}
	mutations := []struct {
		name  string
		apply func(e *Editor, target string) bool
		want  func(seed []BoundingBox, multiple, ownsA bool) outcome
	}{
		{
			"update",
			func(e *Editor, target string) bool {
				label := "roll"
				return e.UpdateBox(target, BoxUpdate{Label: &label})
			},
			func(seed []BoundingBox, _, ownsA bool) outcome {
				if ownsA {
					return outcome{true, []BoundingBox{labelled}}
				}
				return outcome{false, seed}
			},
		},
		{
			"remove",
			func(e *Editor, target string) bool { return e.RemoveBox(target) },
			func(seed []BoundingBox, _, ownsA bool) outcome {
				if ownsA {
					return outcome{true, []BoundingBox{}}
				}
				return outcome{false, seed}
			},
		},
		{
			"add",
			func(e *Editor, _ string) bool {
				e.AddBox(b)
				return true
			},
			func(seed []BoundingBox, multiple, _ bool) outcome {
				if multiple {
					return outcome{true, append(cloneBoxes(seed), b)}
				}
				return outcome{true, []BoundingBox{b}}
			},
		},
		{
			"clear",
			func(e *Editor, _ string) bool { return e.ClearBoxes() },
			func(seed []BoundingBox, _, _ bool) outcome {
				return outcome{len(seed) > 0, []BoundingBox{}}
			},
		},
	}

	for _, g := range gestures {
		for _, m := range mutations {
			t.Run(g.name+"/"+m.name, func(t *testing.T) {
				e := newTestEditor(g.multiple)
				e.Load(g.seed)

				require.True(t, e.PointerDown(g.from))
				e.PointerMove(g.to)
				require.Equal(t, g.mode, e.Mode())
				require.NotNil(t, e.ActiveBox())
				target := e.ActiveBox().ID

				want := m.want(g.seed, g.multiple, g.ownsA)
				var changed bool
				require.NotPanics(t, func() { changed = m.apply(e, target) })

				assert.Equal(t, want.changed, changed)
				assert.Equal(t, ModeIdle, e.Mode())
				if diff := cmp.Diff(want.boxes, e.Boxes()); diff != "" {
					t.Errorf("boxes mismatch (-want +got):\n%s", diff)
				}

				if want.changed {
					require.NotNil(t, e.Undo())
					if diff := cmp.Diff(g.seed, e.Boxes()); diff != "" {
						t.Errorf("undo mismatch (-want +got):\n%s", diff)
					}
				} else {
					assert.Empty(t, e.History())
				}
			})
		}
	}
}

func TestEditor_LoadRenamesRepeatedIDs(t *testing.T) {
	e := newTestEditor(true)
	loaded := []BoundingBox{
		{StartX: 0, StartY: 0, EndX: 20, EndY: 20, ID: "roll"},
		{StartX: 100, StartY: 100, EndX: 150, EndY: 150, ID: "roll"},
	}
	e.Load(loaded)
	assert.Equal(t, []string{"roll", "box-1001"}, idsOf(e.Boxes()))

	require.True(t, drag(e, Point{125, 125}, Point{135, 135}))
	assert.Equal(t, [4]float64{110, 110, 160, 160}, geometry(e.Boxes()[1]))
	assert.Equal(t, [4]float64{0, 0, 20, 20}, geometry(e.Boxes()[0]))

	require.NotNil(t, e.Undo())
	assert.Equal(t, [4]float64{0, 0, 20, 20}, geometry(e.Boxes()[0]))
	assert.Equal(t, [4]float64{100, 100, 150, 150}, geometry(e.Boxes()[1]))
}

func TestEditor_ResizeKeepsStoredOrientation(t *testing.T) {
	e := newTestEditor(true)
	e.Load([]BoundingBox{{StartX: 100, StartY: 100, EndX: 20, EndY: 20, ID: "a"}})
	require.True(t, e.Select("a"))

	// grabbing the top-left handle and letting go on the same spot
	require.True(t, e.PointerDown(Point{20, 20}))
	require.Equal(t, ModeResizing, e.Mode())
	assert.False(t, e.PointerMove(Point{20, 20}))
	assert.False(t, e.PointerUp())
	assert.Empty(t, e.History())
	assert.Equal(t, [4]float64{100, 100, 20, 20}, geometry(e.Boxes()[0]))

	require.True(t, e.PointerDown(Point{20, 20}))
	e.PointerMove(Point{30, 40})
	require.True(t, e.PointerUp())
	assert.Equal(t, [4]float64{100, 100, 30, 40}, geometry(e.Boxes()[0]))
}

func TestEqualBoxes(t *testing.T) {
	a := BoundingBox{EndX: 10, EndY: 10, ID: "a"}
	b := BoundingBox{EndX: 10, EndY: 10, ID: "b"}

	assert.True(t, EqualBoxes(nil, []BoundingBox{}))
	assert.True(t, EqualBoxes([]BoundingBox{a, b}, []BoundingBox{a, b}))
	assert.False(t, EqualBoxes([]BoundingBox{a, b}, []BoundingBox{b, a}))
	assert.False(t, EqualBoxes([]BoundingBox{a}, []BoundingBox{a, b}))
}
