package editor

import (
	"encoding/json"
)

// ============================================================
// Patch Operations
// ============================================================

// DefaultHistoryLimit is the number of operations kept before the oldest is dropped.
const DefaultHistoryLimit = 500

// OpKind tags a PatchOp.
type OpKind string

const (
	OpAdd        OpKind = "add"
	OpRemove     OpKind = "remove"
	OpUpdate     OpKind = "update"
	OpReplaceAll OpKind = "replace_all"
)

// PatchOp is one undoable mutation of the box collection. Which fields are
// meaningful depends on Kind:
//
//	add, remove:  Box, Index
//	update:       ID, Prev, Next
//	replace_all:  PrevAll, NextAll
type PatchOp struct {
	Kind    OpKind
	Box     BoundingBox
	Index   int
	ID      string
	Prev    BoundingBox
	Next    BoundingBox
	PrevAll []BoundingBox
	NextAll []BoundingBox
}

func AddOp(box BoundingBox, index int) PatchOp {
	return PatchOp{Kind: OpAdd, Box: box, Index: index}
}

func RemoveOp(box BoundingBox, index int) PatchOp {
	return PatchOp{Kind: OpRemove, Box: box, Index: index}
}

func UpdateOp(id string, prev, next BoundingBox) PatchOp {
	return PatchOp{Kind: OpUpdate, ID: id, Prev: prev, Next: next}
}

func ReplaceAllOp(prev, next []BoundingBox) PatchOp {
	return PatchOp{Kind: OpReplaceAll, PrevAll: cloneBoxes(prev), NextAll: cloneBoxes(next)}
}

// Equal compares the fields relevant to the op kind.
func (op PatchOp) Equal(o PatchOp) bool {
	if op.Kind != o.Kind {
		return false
	}
	switch op.Kind {
	case OpAdd, OpRemove:
		return op.Index == o.Index && op.Box.Equal(o.Box)
	case OpUpdate:
		return op.ID == o.ID && op.Prev.Equal(o.Prev) && op.Next.Equal(o.Next)
	case OpReplaceAll:
		return EqualBoxes(op.PrevAll, o.PrevAll) && EqualBoxes(op.NextAll, o.NextAll)
	}
	return false
}

func (op PatchOp) clone() PatchOp {
	if op.Kind == OpReplaceAll {
		op.PrevAll = cloneBoxes(op.PrevAll)
		op.NextAll = cloneBoxes(op.NextAll)
	}
	return op
}

// MarshalJSON emits only the fields of the op's kind.
func (op PatchOp) MarshalJSON() ([]byte, error) {
	switch op.Kind {
	case OpAdd, OpRemove:
		return json.Marshal(struct {
			Type  OpKind      `json:"type"`
			Box   BoundingBox `json:"box"`
			Index int         `json:"index"`
		}{op.Kind, op.Box, op.Index})
	case OpUpdate:
		return json.Marshal(struct {
			Type OpKind      `json:"type"`
			ID   string      `json:"id"`
			Prev BoundingBox `json:"prev"`
			Next BoundingBox `json:"next"`
		}{op.Kind, op.ID, op.Prev, op.Next})
	default:
		prev, next := op.PrevAll, op.NextAll
		if prev == nil {
			prev = []BoundingBox{}
		}
		if next == nil {
			next = []BoundingBox{}
		}
		return json.Marshal(struct {
			Type OpKind        `json:"type"`
			Prev []BoundingBox `json:"prev"`
			Next []BoundingBox `json:"next"`
		}{op.Kind, prev, next})
	}
}

// apply performs op forward on boxes and returns the new collection.
func apply(boxes []BoundingBox, op PatchOp) []BoundingBox {
	switch op.Kind {
	case OpAdd:
		return insertAt(boxes, op.Index, op.Box)
	case OpRemove:
		return removeByID(boxes, op.Box.ID, op.Index)
	case OpUpdate:
		return replaceByID(boxes, op.ID, op.Next)
	case OpReplaceAll:
		return cloneBoxes(op.NextAll)
	}
	return boxes
}

// revert applies the inverse of op.
func revert(boxes []BoundingBox, op PatchOp) []BoundingBox {
	switch op.Kind {
	case OpAdd:
		return removeByID(boxes, op.Box.ID, op.Index)
	case OpRemove:
		return insertAt(boxes, op.Index, op.Box)
	case OpUpdate:
		return replaceByID(boxes, op.ID, op.Prev)
	case OpReplaceAll:
		return cloneBoxes(op.PrevAll)
	}
	return boxes
}

func insertAt(boxes []BoundingBox, index int, b BoundingBox) []BoundingBox {
	index = max(0, min(index, len(boxes)))
	out := make([]BoundingBox, 0, len(boxes)+1)
	out = append(out, boxes[:index]...)
	out = append(out, b)
	return append(out, boxes[index:]...)
}

// removeByID drops the box with id. Boxes without an id fall back to the
// recorded index.
func removeByID(boxes []BoundingBox, id string, index int) []BoundingBox {
	i := indexOf(boxes, id)
	if i < 0 && id == "" && index >= 0 && index < len(boxes) {
		i = index
	}
	if i < 0 {
		return boxes
	}
	out := make([]BoundingBox, 0, len(boxes)-1)
	out = append(out, boxes[:i]...)
	return append(out, boxes[i+1:]...)
}

func replaceByID(boxes []BoundingBox, id string, b BoundingBox) []BoundingBox {
	i := indexOf(boxes, id)
	if i < 0 {
		return boxes
	}
	out := cloneBoxes(boxes)
	out[i] = b
	return out
}

// ============================================================
// History
// ============================================================

// Direction says which way a history step was applied.
type Direction string

const (
	DirectionUndo Direction = "undo"
	DirectionRedo Direction = "redo"
)

// HistoryResult pairs an applied op with its direction.
type HistoryResult struct {
	Op        PatchOp   `json:"op"`
	Direction Direction `json:"direction"`
}

// History is a flat, bounded operation log with a single cursor. Index -1
// means nothing can be undone.
type History struct {
	ops   []PatchOp
	index int
	limit int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{index: -1, limit: limit}
}

// Push records op after the cursor, discarding the redo branch. An op equal
// to the one at the cursor is coalesced and Push returns false.
func (h *History) Push(op PatchOp) bool {
	if h.index >= 0 && h.ops[h.index].Equal(op) {
		return false
	}
	h.ops = append(h.ops[:h.index+1], op)
	if len(h.ops) > h.limit {
		drop := len(h.ops) - h.limit
		h.ops = append([]PatchOp(nil), h.ops[drop:]...)
	}
	h.index = len(h.ops) - 1
	return true
}

// stepBack returns the op at the cursor and moves the cursor back.
func (h *History) stepBack() (PatchOp, bool) {
	if h.index < 0 {
		return PatchOp{}, false
	}
	op := h.ops[h.index]
	h.index--
	return op.clone(), true
}

// stepForward moves the cursor forward and returns the op there.
func (h *History) stepForward() (PatchOp, bool) {
	if h.index+1 >= len(h.ops) {
		return PatchOp{}, false
	}
	h.index++
	return h.ops[h.index].clone(), true
}

func (h *History) CanUndo() bool { return h.index >= 0 }
func (h *History) CanRedo() bool { return h.index+1 < len(h.ops) }
func (h *History) Len() int      { return len(h.ops) }
func (h *History) Index() int    { return h.index }
func (h *History) Limit() int    { return h.limit }

// Ops returns a copy of the recorded operations. Callers may modify it freely.
func (h *History) Ops() []PatchOp {
	out := make([]PatchOp, len(h.ops))
	for i, op := range h.ops {
		out[i] = op.clone()
	}
	return out
}

// SetLimit changes the capacity, dropping the oldest entries if needed.
func (h *History) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h.limit = limit
	if drop := len(h.ops) - limit; drop > 0 {
		h.ops = append([]PatchOp(nil), h.ops[drop:]...)
		h.index = max(h.index-drop, -1)
	}
}

func (h *History) Reset() {
	h.ops = nil
	h.index = -1
}
