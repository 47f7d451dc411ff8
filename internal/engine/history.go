package engine

import "github.com/reframe/reframe/backend-go/internal/document"

// historyLimit bounds the undo stack; the oldest snapshot is dropped when a
// commit would exceed it.
const historyLimit = 20

// History is the undo/redo store. Every committed edit pushes the pre-edit
// document snapshot; undo and redo are symmetric pops. Underflow is a no-op.
type History struct {
	undo []*document.LayoutDefinition
	redo []*document.LayoutDefinition
}

// Push records the pre-edit snapshot of a committed change and invalidates
// the redo stack.
func (h *History) Push(snapshot *document.LayoutDefinition) {
	h.undo = append(h.undo, snapshot.Clone())
	if len(h.undo) > historyLimit {
		h.undo = h.undo[len(h.undo)-historyLimit:]
	}
	h.redo = nil
}

// Undo returns the previous snapshot, moving the current document onto the
// redo stack. ok is false when there is nothing to undo.
func (h *History) Undo(current *document.LayoutDefinition) (*document.LayoutDefinition, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return prev, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current *document.LayoutDefinition) (*document.LayoutDefinition, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current.Clone())
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Reset drops both stacks (document reload).
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
