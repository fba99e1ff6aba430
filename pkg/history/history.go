// Package history adds bounded undo/redo to a store by snapshotting the whole
// state tree around each operation. The store itself knows nothing about it.
package history

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/store"
)

// DefaultLimit is the number of undo steps kept when none is configured
const DefaultLimit = 50

// The clipboard is scratch space: copying is not an undoable step and
// undo/redo leave the current clipboard in place.
var stateEqual = cmp.Options{
	cmpopts.IgnoreFields(model.State{}, "Clipboard"),
	cmpopts.EquateEmpty(),
}

// History records past and future snapshots of a store's state
type History struct {
	store  *store.Store
	limit  int
	past   []*model.State
	future []*model.State
}

// New wraps s. A limit <= 0 uses DefaultLimit.
func New(s *store.Store, limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{store: s, limit: limit}
}

// Store returns the wrapped store
func (h *History) Store() *store.Store {
	return h.store
}

// Do runs fn against the store and records an undo step if fn changed the
// state. Any recorded step clears the redo stack. Returns true if the state changed.
func (h *History) Do(fn func(*store.Store)) bool {
	before := h.store.State().Clone()
	fn(h.store)

	if cmp.Equal(before, h.store.State(), stateEqual) {
		return false
	}

	h.past = append(h.past, before)
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
	return true
}

// Undo restores the previous snapshot. Returns false if there is none.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]

	h.future = append(h.future, h.store.State())
	h.restore(prev)
	return true
}

// Redo re-applies the most recently undone snapshot
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]

	h.past = append(h.past, h.store.State())
	h.restore(next)
	return true
}

func (h *History) restore(s *model.State) {
	s.Clipboard = h.store.State().Clipboard
	h.store.Replace(s)
}

// CanUndo reports whether Undo would do anything
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether Redo would do anything
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// Len returns the number of undo and redo steps held
func (h *History) Len() (undo, redo int) {
	return len(h.past), len(h.future)
}

// Clear forgets every snapshot, typically after loading a different project
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}
