package editor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_PushCoalescesIdenticalOps(t *testing.T) {
	h := NewHistory(0)
	op := AddOp(BoundingBox{EndX: 10, EndY: 10, ID: "a"}, 0)

	assert.True(t, h.Push(op))
	assert.False(t, h.Push(op))
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 0, h.Index())
}

func TestHistory_PushDiscardsRedoBranch(t *testing.T) {
	h := NewHistory(0)
	h.Push(AddOp(BoundingBox{ID: "a"}, 0))
	h.Push(AddOp(BoundingBox{ID: "b"}, 1))
	h.Push(AddOp(BoundingBox{ID: "c"}, 2))

	_, ok := h.stepBack()
	require.True(t, ok)
	_, ok = h.stepBack()
	require.True(t, ok)
	assert.True(t, h.CanRedo())

	h.Push(AddOp(BoundingBox{ID: "d"}, 1))
	assert.False(t, h.CanRedo())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "d", h.Ops()[1].Box.ID)
}

func TestHistory_CapDropsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		h.Push(AddOp(BoundingBox{ID: id}, 0))
	}
	require.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Index())
	assert.Equal(t, "c", h.Ops()[0].Box.ID)

	h.SetLimit(2)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Index())
	assert.Equal(t, "d", h.Ops()[0].Box.ID)
}

func TestHistory_EmptyStepsFail(t *testing.T) {
	h := NewHistory(0)
	_, ok := h.stepBack()
	assert.False(t, ok)
	_, ok = h.stepForward()
	assert.False(t, ok)
	assert.Equal(t, -1, h.Index())
	assert.Equal(t, DefaultHistoryLimit, h.Limit())
}

func TestPatchOp_Equal(t *testing.T) {
	a := BoundingBox{EndX: 5, EndY: 5, ID: "a"}
	b := BoundingBox{EndX: 6, EndY: 5, ID: "a"}

	assert.True(t, UpdateOp("a", a, b).Equal(UpdateOp("a", a, b)))
	assert.False(t, UpdateOp("a", a, b).Equal(UpdateOp("a", b, a)))
	assert.False(t, AddOp(a, 0).Equal(RemoveOp(a, 0)))
	assert.False(t, AddOp(a, 0).Equal(AddOp(a, 1)))
	assert.True(t, ReplaceAllOp([]BoundingBox{a}, nil).Equal(ReplaceAllOp([]BoundingBox{a}, []BoundingBox{})))
}

func TestPatchOp_ApplyRevert(t *testing.T) {
	a := BoundingBox{EndX: 10, EndY: 10, ID: "a"}
	b := BoundingBox{StartX: 20, EndX: 30, EndY: 10, ID: "b"}
	moved := b.Translate(5, 5)
	start := []BoundingBox{a, b}

	tests := []struct {
		name string
		op   PatchOp
		want []BoundingBox
	}{
		{"add", AddOp(BoundingBox{ID: "c"}, 1), []BoundingBox{a, {ID: "c"}, b}},
		{"remove", RemoveOp(a, 0), []BoundingBox{b}},
		{"update", UpdateOp("b", b, moved), []BoundingBox{a, moved}},
		{"replace all", ReplaceAllOp(start, nil), []BoundingBox{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := apply(cloneBoxes(start), tt.op)
			assert.Equal(t, tt.want, forward)
			assert.Equal(t, start, revert(forward, tt.op))
		})
	}
}

func TestPatchOp_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(UpdateOp("a", BoundingBox{ID: "a"}, BoundingBox{EndX: 1, ID: "a"}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "update", got["type"])
	assert.Equal(t, "a", got["id"])
	assert.Contains(t, got, "prev")
	assert.NotContains(t, got, "index")

	data, err = json.Marshal(ReplaceAllOp(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"replace_all","prev":[],"next":[]}`, string(data))
}

func TestHistory_OpsAreDetached(t *testing.T) {
	h := NewHistory(0)
	prev := []BoundingBox{{EndX: 10, EndY: 10, ID: "a", Label: "roll"}}
	h.Push(ReplaceAllOp(prev, []BoundingBox{}))

	ops := h.Ops()
	ops[0].PrevAll[0].Label = "changed"
	assert.Equal(t, "roll", h.Ops()[0].PrevAll[0].Label)

	op, ok := h.stepBack()
	require.True(t, ok)
	op.PrevAll[0].EndX = 99
	assert.Equal(t, 10.0, h.Ops()[0].PrevAll[0].EndX)
}
