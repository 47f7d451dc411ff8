package engine

import (
	"fmt"
	"testing"

	"github.com/reframe/reframe/backend-go/internal/document"
)

func layoutNamed(name string) *document.LayoutDefinition {
	d := document.NewEmptyLayout("layout_test", name)
	return d
}

func TestHistoryUndoRedo(t *testing.T) {
	var h History

	v1 := layoutNamed("v1")
	v2 := layoutNamed("v2")

	h.Push(v1)

	prev, ok := h.Undo(v2)
	if !ok || prev.Name != "v1" {
		t.Fatalf("undo = %v, %v", prev, ok)
	}

	next, ok := h.Redo(prev)
	if !ok || next.Name != "v2" {
		t.Fatalf("redo = %v, %v", next, ok)
	}
}

func TestHistoryUnderflowIsNoop(t *testing.T) {
	var h History
	cur := layoutNamed("cur")

	if _, ok := h.Undo(cur); ok {
		t.Error("undo on empty stack succeeded")
	}
	if _, ok := h.Redo(cur); ok {
		t.Error("redo on empty stack succeeded")
	}
}

func TestHistoryPushClearsRedo(t *testing.T) {
	var h History

	h.Push(layoutNamed("v1"))
	h.Undo(layoutNamed("v2"))
	if !h.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	h.Push(layoutNamed("v3"))
	if h.CanRedo() {
		t.Error("push did not clear the redo stack")
	}
}

func TestHistoryCapDropsOldest(t *testing.T) {
	var h History

	for i := 0; i < historyLimit+5; i++ {
		h.Push(layoutNamed(fmt.Sprintf("v%d", i)))
	}

	count := 0
	cur := layoutNamed("cur")
	for {
		prev, ok := h.Undo(cur)
		if !ok {
			break
		}
		cur = prev
		count++
	}

	if count != historyLimit {
		t.Errorf("undo depth = %d, want %d", count, historyLimit)
	}
	// The oldest surviving snapshot is v5, not v0.
	if cur.Name != "v5" {
		t.Errorf("oldest snapshot = %q, want v5", cur.Name)
	}
}

func TestHistoryPushSnapshotsAreIsolated(t *testing.T) {
	var h History

	doc := layoutNamed("before")
	h.Push(doc)
	doc.Name = "mutated"

	prev, ok := h.Undo(layoutNamed("cur"))
	if !ok {
		t.Fatal("undo failed")
	}
	if prev.Name != "before" {
		t.Errorf("snapshot shared state with the live document: %q", prev.Name)
	}
}
