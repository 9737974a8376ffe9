// Package editor implements the interactive bounding-box editor used to
// correct fabric detections: hit-testing, a pointer-driven gesture state
// machine and a patch-based undo/redo log.
//
// An Editor is owned by a single caller and is not safe for concurrent use.
// Pointer positions are logical (image pixel) coordinates; use
// ClientToLogical to convert from page coordinates.
package editor

import (
	"fmt"
	"time"
)

// ============================================================
// Editor
// ============================================================

// Mode is the gesture state of an Editor.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDrawing  Mode = "drawing"
	ModeResizing Mode = "resizing"
	ModeMoving   Mode = "moving"
)

// Options configures an Editor. Zero values select the defaults.
type Options struct {
	// Width and Height are the logical canvas size. Zero disables clamping on that axis.
	Width  float64
	Height float64

	Zoom          float64
	EdgeThreshold float64
	MultipleBoxes bool
	Disabled      bool
	HistoryLimit  int

	// Now stamps interactive box ids. Defaults to time.Now.
	Now func() time.Time
}

// BoxUpdate carries the fields UpdateBox should change. Nil fields are kept.
type BoxUpdate struct {
	StartX *float64 `json:"startX,omitempty"`
	StartY *float64 `json:"startY,omitempty"`
	EndX   *float64 `json:"endX,omitempty"`
	EndY   *float64 `json:"endY,omitempty"`
	Label  *string  `json:"label,omitempty"`
}

func (u BoxUpdate) applyTo(b BoundingBox) BoundingBox {
	if u.StartX != nil {
		b.StartX = *u.StartX
	}
	if u.StartY != nil {
		b.StartY = *u.StartY
	}
	if u.EndX != nil {
		b.EndX = *u.EndX
	}
	if u.EndY != nil {
		b.EndY = *u.EndY
	}
	if u.Label != nil {
		b.Label = *u.Label
	}
	return b
}

// State is a copy of everything a renderer needs to redraw.
type State struct {
	Boxes        []BoundingBox `json:"boxes"`
	ActiveBox    *BoundingBox  `json:"activeBox"`
	Mode         Mode          `json:"mode"`
	Handle       Handle        `json:"handle,omitempty"`
	Cursor       Cursor        `json:"cursor"`
	Enabled      bool          `json:"enabled"`
	CanUndo      bool          `json:"canUndo"`
	CanRedo      bool          `json:"canRedo"`
	HistoryIndex int           `json:"historyIndex"`
	HistoryLen   int           `json:"historyLen"`
}

type Editor struct {
	width, height float64
	zoom          float64
	threshold     float64
	multiple      bool
	enabled       bool
	now           func() time.Time

	boxes  []BoundingBox
	active int

	mode         Mode
	handle       Handle
	last         Point
	gestureStart BoundingBox
	gestureBoxes []BoundingBox

	hover Point

	history   *History
	replaying bool
}

func New(opts Options) *Editor {
	e := &Editor{
		width:     opts.Width,
		height:    opts.Height,
		zoom:      opts.Zoom,
		threshold: opts.EdgeThreshold,
		multiple:  opts.MultipleBoxes,
		enabled:   !opts.Disabled,
		now:       opts.Now,
		boxes:     []BoundingBox{},
		active:    -1,
		mode:      ModeIdle,
		history:   NewHistory(opts.HistoryLimit),
	}
	if e.zoom <= 0 {
		e.zoom = 1
	}
	if e.threshold <= 0 {
		e.threshold = DefaultEdgeThreshold
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// ============================================================
// Pointer Gestures
// ============================================================

// PointerDown starts a gesture at p: resizing when a handle is hit, moving
// when the interior of a box is hit, drawing a new box otherwise. It reports
// whether a gesture started.
func (e *Editor) PointerDown(p Point) bool {
	if !e.enabled || e.mode != ModeIdle {
		return false
	}
	e.hover = p
	e.last = p
	e.gestureBoxes = cloneBoxes(e.boxes)

	idx, hit := BoxAt(e.boxes, e.active, p, e.zoom, e.threshold)
	switch {
	case idx >= 0 && hit.Handle != HandleNone:
		e.mode, e.handle = ModeResizing, hit.Handle
		e.active = idx
		e.gestureStart = e.boxes[idx]
	case idx >= 0 && hit.Inside:
		e.mode = ModeMoving
		e.active = idx
		e.gestureStart = e.boxes[idx]
	default:
		q := e.clampPoint(p)
		draft := BoundingBox{StartX: q.X, StartY: q.Y, EndX: q.X, EndY: q.Y, ID: e.newID()}
		if e.multiple {
			e.boxes = append(e.boxes, draft)
			e.active = len(e.boxes) - 1
		} else {
			e.boxes = []BoundingBox{draft}
			e.active = 0
		}
		e.mode = ModeDrawing
		e.gestureStart = draft
	}
	return true
}

// PointerMove updates the live box of the current gesture. Positions outside
// the canvas are accepted while a gesture owns the pointer. When idle it only
// records the hover position. It reports whether the box collection changed.
func (e *Editor) PointerMove(p Point) bool {
	e.hover = p
	if e.mode == ModeIdle || e.active < 0 || e.active >= len(e.boxes) {
		return false
	}

	cur := e.boxes[e.active]
	var next BoundingBox
	switch e.mode {
	case ModeMoving:
		dx, dy := e.clampDelta(cur, p.X-e.last.X, p.Y-e.last.Y)
		next = cur.Translate(dx, dy)
		e.last = p
	case ModeResizing:
		next = resize(e.gestureStart, e.handle, e.clampPoint(p))
	case ModeDrawing:
		q := e.clampPoint(p)
		next = cur
		next.EndX, next.EndY = q.X, q.Y
	}
	if next.Equal(cur) {
		return false
	}
	e.boxes[e.active] = next
	return true
}

// PointerUp ends the current gesture and records it in history. A drawn box
// smaller than MinBoxSize on either axis is discarded without a history
// entry. It reports whether an operation was recorded.
func (e *Editor) PointerUp() bool {
	mode := e.mode
	if mode == ModeIdle {
		return false
	}
	e.mode, e.handle = ModeIdle, HandleNone
	before := e.gestureBoxes
	e.gestureBoxes = nil

	if e.active < 0 || e.active >= len(e.boxes) {
		return false
	}
	cur := e.boxes[e.active]

	if mode == ModeDrawing {
		e.boxes = before
		e.active = -1
		if cur.Width() < MinBoxSize || cur.Height() < MinBoxSize {
			return false
		}
		return e.commitNew(cur)
	}

	if cur.SameGeometry(e.gestureStart) {
		return false
	}
	return e.record(UpdateOp(cur.ID, e.gestureStart, cur))
}

// CancelGesture abandons the current gesture and restores the collection as
// it was when the gesture began. Nothing is recorded.
func (e *Editor) CancelGesture() bool {
	if e.mode == ModeIdle {
		return false
	}
	if e.mode == ModeDrawing {
		e.active = -1
	}
	e.boxes = e.gestureBoxes
	e.gestureBoxes = nil
	e.mode, e.handle = ModeIdle, HandleNone
	e.fixActive()
	return true
}

// Capturing reports whether a gesture currently owns the pointer, i.e.
// whether moves outside the canvas must still be delivered.
func (e *Editor) Capturing() bool {
	return e.mode != ModeIdle
}

func (e *Editor) commitNew(b BoundingBox) bool {
	if !e.multiple {
		prev := e.boxes
		e.boxes = []BoundingBox{b}
		e.active = 0
		return e.record(ReplaceAllOp(prev, e.boxes))
	}
	if i := indexOf(e.boxes, b.ID); i >= 0 {
		prev := e.boxes[i]
		e.boxes = replaceByID(e.boxes, b.ID, b)
		e.active = i
		return e.record(UpdateOp(b.ID, prev, b))
	}
	e.boxes = insertAt(e.boxes, len(e.boxes), b)
	e.active = len(e.boxes) - 1
	return e.record(AddOp(b, e.active))
}

// ============================================================
// Direct Mutations
// ============================================================

// AddBox inserts b, assigning an id when it has none, and returns the stored
// box. In single-box mode it replaces the whole collection. A box whose id
// already exists overwrites that box.
func (e *Editor) AddBox(b BoundingBox) BoundingBox {
	e.CancelGesture()
	if b.ID == "" {
		b.ID = e.newID()
	}
	if !e.multiple {
		prev := e.boxes
		e.boxes = []BoundingBox{b}
		e.active = -1
		if !EqualBoxes(prev, e.boxes) {
			e.record(ReplaceAllOp(prev, e.boxes))
		}
		return b
	}
	if i := indexOf(e.boxes, b.ID); i >= 0 {
		prev := e.boxes[i]
		if !prev.Equal(b) {
			e.boxes = replaceByID(e.boxes, b.ID, b)
			e.record(UpdateOp(b.ID, prev, b))
		}
		return b
	}
	e.boxes = insertAt(e.boxes, len(e.boxes), b)
	e.record(AddOp(b, len(e.boxes)-1))
	return b
}

// UpdateBox applies u to the box with id. Unknown ids and updates that change
// nothing are no-ops.
func (e *Editor) UpdateBox(id string, u BoxUpdate) bool {
	e.CancelGesture()
	i := indexOf(e.boxes, id)
	if i < 0 {
		return false
	}
	prev := e.boxes[i]
	next := u.applyTo(prev)
	if next.Equal(prev) {
		return false
	}
	e.boxes = replaceByID(e.boxes, id, next)
	e.record(UpdateOp(id, prev, next))
	return true
}

// RemoveBox deletes the box with id. Unknown ids are a no-op.
func (e *Editor) RemoveBox(id string) bool {
	e.CancelGesture()
	i := indexOf(e.boxes, id)
	if i < 0 {
		return false
	}
	removed := e.boxes[i]
	e.boxes = removeByID(e.boxes, id, i)
	switch {
	case e.active == i:
		e.active = -1
	case e.active > i:
		e.active--
	}
	e.record(RemoveOp(removed, i))
	return true
}

// ClearBoxes removes every box. Clearing an empty collection records nothing.
func (e *Editor) ClearBoxes() bool {
	e.CancelGesture()
	if len(e.boxes) == 0 {
		return false
	}
	prev := e.boxes
	e.boxes = []BoundingBox{}
	e.active = -1
	e.record(ReplaceAllOp(prev, e.boxes))
	return true
}

// Load replaces the collection without recording it and resets history.
// Boxes without an id, or repeating an earlier one, get a fresh id.
func (e *Editor) Load(boxes []BoundingBox) {
	e.CancelGesture()
	e.boxes = make([]BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		if b.ID == "" || indexOf(e.boxes, b.ID) >= 0 {
			b.ID = e.newID()
		}
		e.boxes = append(e.boxes, b)
	}
	e.active = -1
	e.history.Reset()
}

// Select makes the box with id active. An empty id clears the selection.
func (e *Editor) Select(id string) bool {
	if e.mode != ModeIdle {
		return false
	}
	if id == "" {
		e.active = -1
		return true
	}
	i := indexOf(e.boxes, id)
	if i < 0 {
		return false
	}
	e.active = i
	return true
}

// ============================================================
// Undo / Redo
// ============================================================

// Undo reverts the operation at the history cursor. It returns nil when there
// is nothing to undo. The active box is cleared.
func (e *Editor) Undo() *HistoryResult {
	e.CancelGesture()
	op, ok := e.history.stepBack()
	if !ok {
		return nil
	}
	e.replay(func() { e.boxes = revert(e.boxes, op) })
	return &HistoryResult{Op: op, Direction: DirectionUndo}
}

// Redo reapplies the operation after the history cursor. It returns nil when
// there is nothing to redo. The active box is cleared.
func (e *Editor) Redo() *HistoryResult {
	e.CancelGesture()
	op, ok := e.history.stepForward()
	if !ok {
		return nil
	}
	e.replay(func() { e.boxes = apply(e.boxes, op) })
	return &HistoryResult{Op: op, Direction: DirectionRedo}
}

func (e *Editor) replay(fn func()) {
	e.replaying = true
	defer func() { e.replaying = false }()
	fn()
	e.active = -1
}

func (e *Editor) record(op PatchOp) bool {
	if e.replaying {
		return false
	}
	return e.history.Push(op)
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// History returns a copy of the recorded operations.
func (e *Editor) History() []PatchOp { return e.history.Ops() }

func (e *Editor) HistoryIndex() int { return e.history.Index() }

// ============================================================
// Accessors
// ============================================================

// Boxes returns a copy of the collection, including the live box of a gesture.
func (e *Editor) Boxes() []BoundingBox { return cloneBoxes(e.boxes) }

// ActiveBox returns a copy of the active box, or nil.
func (e *Editor) ActiveBox() *BoundingBox {
	if e.active < 0 || e.active >= len(e.boxes) {
		return nil
	}
	b := e.boxes[e.active]
	return &b
}

func (e *Editor) Mode() Mode { return e.mode }

// Cursor returns the cursor for the last known pointer position.
func (e *Editor) Cursor() Cursor { return e.CursorAt(e.hover) }

// CursorAt returns the cursor for hovering p. Only the active box offers
// resize and move cursors; everything else shows a crosshair.
func (e *Editor) CursorAt(p Point) Cursor {
	if !e.enabled {
		return CursorDefault
	}
	switch e.mode {
	case ModeMoving:
		return CursorMove
	case ModeResizing:
		return CursorFor(e.handle)
	case ModeDrawing:
		return CursorCrosshair
	}
	b := e.ActiveBox()
	if b == nil {
		return CursorCrosshair
	}
	hit := Classify(*b, p, e.zoom, e.threshold)
	if hit.Handle != HandleNone {
		return CursorFor(hit.Handle)
	}
	if hit.Inside {
		return CursorMove
	}
	return CursorCrosshair
}

func (e *Editor) State() State {
	return State{
		Boxes:        e.Boxes(),
		ActiveBox:    e.ActiveBox(),
		Mode:         e.mode,
		Handle:       e.handle,
		Cursor:       e.Cursor(),
		Enabled:      e.enabled,
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
		HistoryIndex: e.history.Index(),
		HistoryLen:   e.history.Len(),
	}
}

// ============================================================
// Settings
// ============================================================

func (e *Editor) SetZoom(zoom float64) {
	if zoom <= 0 {
		zoom = 1
	}
	e.zoom = zoom
}

func (e *Editor) Zoom() float64 { return e.zoom }

func (e *Editor) SetCanvasSize(width, height float64) {
	e.width, e.height = width, height
}

func (e *Editor) SetEdgeThreshold(t float64) {
	if t <= 0 {
		t = DefaultEdgeThreshold
	}
	e.threshold = t
}

// SetEnabled toggles pointer handling. Disabling abandons a running gesture.
func (e *Editor) SetEnabled(enabled bool) {
	if !enabled {
		e.CancelGesture()
	}
	e.enabled = enabled
}

func (e *Editor) Enabled() bool { return e.enabled }

// SetMultipleBoxes switches between multi-box and single-box mode.
func (e *Editor) SetMultipleBoxes(multiple bool) {
	if multiple != e.multiple {
		e.CancelGesture()
	}
	e.multiple = multiple
}

func (e *Editor) MultipleBoxes() bool { return e.multiple }

func (e *Editor) SetHistoryLimit(limit int) { e.history.SetLimit(limit) }

// ============================================================
// Helpers
// ============================================================

func (e *Editor) clampPoint(p Point) Point {
	if e.width > 0 {
		p.X = clamp(p.X, 0, e.width)
	}
	if e.height > 0 {
		p.Y = clamp(p.Y, 0, e.height)
	}
	return p
}

// clampDelta limits a translation so b stays inside the canvas.
func (e *Editor) clampDelta(b BoundingBox, dx, dy float64) (float64, float64) {
	x1, y1, x2, y2 := b.Normalized()
	if e.width > 0 {
		if x2+dx > e.width {
			dx = e.width - x2
		}
		if x1+dx < 0 {
			dx = -x1
		}
	}
	if e.height > 0 {
		if y2+dy > e.height {
			dy = e.height - y2
		}
		if y1+dy < 0 {
			dy = -y1
		}
	}
	return dx, dy
}

func (e *Editor) fixActive() {
	if e.active >= len(e.boxes) {
		e.active = -1
	}
}

// newID returns box-<unix millis>, suffixed when that id is already taken.
func (e *Editor) newID() string {
	base := idFor(e.now())
	id := base
	for n := 2; indexOf(e.boxes, id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}
