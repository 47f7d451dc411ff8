package engine

import (
	"math"
	"testing"

	"github.com/reframe/reframe/backend-go/internal/document"
)

func testLayout(items ...document.LayoutItem) *document.LayoutDefinition {
	d := document.NewEmptyLayout("layout_test", "test")
	d.Items = items
	return d
}

func shapeItem(id string, f document.Frame, z int) document.LayoutItem {
	return document.LayoutItem{
		ID:     id,
		Kind:   document.ItemKindShape,
		Frame:  f,
		ZIndex: z,
		Shape:  &document.ShapeProps{Color: "#333333"},
	}
}

type transformRecord struct {
	transforms []ItemTransform
	commit     bool
}

func recordTransforms(s *Session) *[]transformRecord {
	var records []transformRecord
	s.SetCallbacks(Callbacks{
		OnTransform: func(tr []ItemTransform, commit bool, _ TransformTarget) {
			cp := append([]ItemTransform(nil), tr...)
			records = append(records, transformRecord{transforms: cp, commit: commit})
		},
	})
	return &records
}

func TestMoveDragCommits(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.4, Height: 0.3}, 0),
	))
	records := recordTransforms(s)

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.2, Y: 0.2})
	if !s.Dragging() {
		t.Fatal("pointer down on an item should start a drag")
	}

	s.PointerMove(PointerEvent{PointerID: 1, X: 0.3, Y: 0.3})
	if !s.Tick() {
		t.Fatal("expected a pending transient update")
	}
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.3, Y: 0.3})

	got := s.Document().Item("a").Frame
	want := document.Frame{X: 0.2, Y: 0.2, Width: 0.4, Height: 0.3}
	if !framesEqual(got, want, 1e-9) {
		t.Errorf("frame = %+v, want %+v", got, want)
	}

	commits := 0
	transients := 0
	for _, r := range *records {
		if r.commit {
			commits++
		} else {
			transients++
		}
	}
	if commits != 1 {
		t.Errorf("commit callbacks = %d, want exactly 1", commits)
	}
	if transients < 1 {
		t.Error("expected at least one transient callback")
	}
	if s.Dragging() {
		t.Error("drag still live after pointer up")
	}
}

func TestMoveDeltasRelativeToDragStart(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})

	// Many intermediate moves; only the final pointer position matters.
	for i := 0; i < 50; i++ {
		s.PointerMove(PointerEvent{PointerID: 1, X: 0.15 + float64(i)*0.001, Y: 0.15})
		s.Tick()
	}
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.26, Y: 0.15})
	s.Tick()
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.26, Y: 0.15})

	got := s.Document().Item("a").Frame
	if math.Abs(got.X-0.21) > 1e-9 {
		t.Errorf("x = %v, want 0.21 (no drift)", got.X)
	}
}

func TestUnmovedClickDoesNotCommit(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.4, Height: 0.3}, 0),
	))
	records := recordTransforms(s)

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.2, Y: 0.2})
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.2, Y: 0.2})

	if len(*records) != 0 {
		t.Errorf("click produced %d transform callbacks, want 0", len(*records))
	}
	if s.Undo() {
		t.Error("click entered history")
	}
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "a" {
		t.Errorf("selection = %v, want [a]", sel)
	}
}

func TestPointerCancelRestores(t *testing.T) {
	orig := document.Frame{X: 0.1, Y: 0.1, Width: 0.4, Height: 0.3}
	s := NewSession(testLayout(shapeItem("a", orig, 0)))
	records := recordTransforms(s)

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.2, Y: 0.2})
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.4, Y: 0.4})
	s.Tick()
	s.PointerCancel(PointerEvent{PointerID: 1, X: 0.4, Y: 0.4})

	if got := s.Document().Item("a").Frame; !framesEqual(got, orig, 0) {
		t.Errorf("frame = %+v, want restored %+v", got, orig)
	}
	if s.Undo() {
		t.Error("abandoned drag entered history")
	}

	last := (*records)[len(*records)-1]
	if last.commit {
		t.Error("abandon reported commit=true")
	}
	if !framesEqual(last.transforms[0].Frame, orig, 0) {
		t.Errorf("restore callback carried %+v, want %+v", last.transforms[0].Frame, orig)
	}
}

func TestNoTransientAfterCommit(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.4, Height: 0.3}, 0),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.2, Y: 0.2})
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.3, Y: 0.3})
	// Pointer up before the host ticked: the pending transient is discarded.
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.3, Y: 0.3})

	committed := s.Document().Item("a").Frame
	if s.Tick() {
		t.Error("a transient fired after the commit")
	}
	if got := s.Document().Item("a").Frame; !framesEqual(got, committed, 0) {
		t.Errorf("document changed after commit: %+v", got)
	}
}

func TestSingleDragAtATime(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
		shapeItem("b", document.Frame{X: 0.6, Y: 0.6, Width: 0.2, Height: 0.2}, 1),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})
	s.PointerDown(PointerEvent{PointerID: 2, X: 0.65, Y: 0.65})

	// Second press ignored: moves from pointer 2 do nothing.
	s.PointerMove(PointerEvent{PointerID: 2, X: 0.75, Y: 0.75})
	s.Tick()
	if got := s.Document().Item("b").Frame.X; got != 0.6 {
		t.Errorf("second pointer moved an item: x = %v", got)
	}

	s.PointerUp(PointerEvent{PointerID: 2, X: 0.75, Y: 0.75})
	if !s.Dragging() {
		t.Error("stale pointer up ended the live drag")
	}
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})
}

func TestResizeDragViaHandle(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.2, Y: 0.2, Width: 0.3, Height: 0.3}, 0),
	))

	s.HandleDown(PointerEvent{PointerID: 1, X: 0.5, Y: 0.5}, "a", HandleSE)
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.6, Y: 0.6})
	s.Tick()
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.6, Y: 0.6})

	got := s.Document().Item("a").Frame
	want := document.Frame{X: 0.2, Y: 0.2, Width: 0.4, Height: 0.4}
	if !framesEqual(got, want, 1e-9) {
		t.Errorf("frame = %+v, want %+v", got, want)
	}
}

func TestAltDisablesSnapping(t *testing.T) {
	orig := document.Frame{X: 0.1, Y: 0.4, Width: 0.1, Height: 0.1}
	s := NewSession(testLayout(shapeItem("a", orig, 0)))

	// Final left edge lands at 0.24, inside the snap threshold of 0.25.
	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.45, Alt: true})
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.29, Y: 0.45, Alt: true})
	s.Tick()
	if len(s.Guides()) != 0 {
		t.Error("guides shown while snapping disabled")
	}
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.29, Y: 0.45, Alt: true})

	if got := s.Document().Item("a").Frame.X; math.Abs(got-0.24) > 1e-9 {
		t.Errorf("x = %v, want unsnapped 0.24", got)
	}
}

func TestSnappingShowsGuides(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.4, Width: 0.1, Height: 0.1}, 0),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.45})
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.29, Y: 0.45})
	s.Tick()

	if len(s.Guides()) == 0 {
		t.Fatal("expected guides during a snapping drag")
	}
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.29, Y: 0.45})

	if got := s.Document().Item("a").Frame.X; math.Abs(got-0.25) > 1e-9 {
		t.Errorf("x = %v, want snapped 0.25", got)
	}
}

func TestOverlapClickCycling(t *testing.T) {
	f := document.Frame{X: 0.3, Y: 0.3, Width: 0.3, Height: 0.3}
	s := NewSession(testLayout(
		shapeItem("low", f, 1),
		shapeItem("high", f, 5),
	))

	click := func() {
		s.PointerDown(PointerEvent{PointerID: 1, X: 0.4, Y: 0.4})
		s.PointerUp(PointerEvent{PointerID: 1, X: 0.4, Y: 0.4})
	}

	click()
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "high" {
		t.Fatalf("first click selected %v, want [high]", sel)
	}

	click()
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "low" {
		t.Fatalf("second click selected %v, want [low]", sel)
	}

	// Third click wraps back to the top of the stack.
	click()
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "high" {
		t.Fatalf("third click selected %v, want [high]", sel)
	}
}

func TestClickElsewhereResetsCycle(t *testing.T) {
	f := document.Frame{X: 0.3, Y: 0.3, Width: 0.3, Height: 0.3}
	s := NewSession(testLayout(
		shapeItem("low", f, 1),
		shapeItem("high", f, 5),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.4, Y: 0.4})
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.4, Y: 0.4})
	s.PointerDown(PointerEvent{PointerID: 1, X: 0.55, Y: 0.55})
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.55, Y: 0.55})

	// A distant click restarts from the topmost candidate.
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "high" {
		t.Errorf("selection = %v, want [high]", sel)
	}
}

func TestShiftClickTogglesMembership(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
		shapeItem("b", document.Frame{X: 0.6, Y: 0.6, Width: 0.2, Height: 0.2}, 1),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})
	s.PointerDown(PointerEvent{PointerID: 1, X: 0.65, Y: 0.65, Shift: true})
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.65, Y: 0.65, Shift: true})

	if sel := s.Selection(); len(sel) != 2 {
		t.Fatalf("selection = %v, want both items", sel)
	}

	// Shift-clicking a selected item removes it and starts no drag.
	s.PointerDown(PointerEvent{PointerID: 1, X: 0.65, Y: 0.65, Shift: true})
	if s.Dragging() {
		t.Error("drag started from a deselecting shift-click")
	}
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "a" {
		t.Errorf("selection = %v, want [a]", sel)
	}
}

func TestGroupMoveRigid(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
		shapeItem("b", document.Frame{X: 0.5, Y: 0.5, Width: 0.2, Height: 0.2}, 1),
	))
	s.SetSelection([]string{"a", "b"})

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15, Alt: true})
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.25, Y: 0.15, Alt: true})
	s.Tick()
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.25, Y: 0.15, Alt: true})

	a := s.Document().Item("a").Frame
	b := s.Document().Item("b").Frame
	if math.Abs(a.X-0.2) > 1e-9 || math.Abs(b.X-0.6) > 1e-9 {
		t.Errorf("group move broke rigidity: a.x=%v b.x=%v", a.X, b.X)
	}
}

func TestEmptyClickClearsSelection(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
	))
	s.SetSelection([]string{"a"})

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.9, Y: 0.9})
	if len(s.Selection()) != 0 {
		t.Error("click on empty canvas kept the selection")
	}
}

func TestEscapeClearsSelection(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
	))
	s.SetSelection([]string{"a"})
	s.Escape()
	if len(s.Selection()) != 0 {
		t.Error("escape kept the selection")
	}
}

func TestSelectionPrunesOnDelete(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
		shapeItem("b", document.Frame{X: 0.5, Y: 0.5, Width: 0.2, Height: 0.2}, 1),
	))
	s.SetSelection([]string{"a", "b"})

	s.UpdateLayout(func(d *document.LayoutDefinition) { d.RemoveItem("b") }, false)

	if sel := s.Selection(); len(sel) != 1 || sel[0] != "a" {
		t.Errorf("selection = %v, want [a]", sel)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.4, Height: 0.3}, 0),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.2, Y: 0.2})
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.3, Y: 0.3})
	s.Tick()
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.3, Y: 0.3})

	moved := s.Document().Item("a").Frame

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	if got := s.Document().Item("a").Frame; math.Abs(got.X-0.1) > 1e-9 {
		t.Errorf("undo frame = %+v, want x=0.1", got)
	}

	if !s.Redo() {
		t.Fatal("redo failed")
	}
	if got := s.Document().Item("a").Frame; !framesEqual(got, moved, 1e-9) {
		t.Errorf("redo frame = %+v, want %+v", got, moved)
	}
}

func TestDuplicateOffsetsAndSelects(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
	))
	s.SetSelection([]string{"a"})

	n := 0
	s.Duplicate(func() string { n++; return "copy" })

	dup := s.Document().Item("copy")
	if dup == nil {
		t.Fatal("duplicate not created")
	}
	if math.Abs(dup.Frame.X-0.13) > 1e-9 || math.Abs(dup.Frame.Y-0.13) > 1e-9 {
		t.Errorf("duplicate frame = %+v, want offset by 0.03", dup.Frame)
	}
	if sel := s.Selection(); len(sel) != 1 || sel[0] != "copy" {
		t.Errorf("selection = %v, want [copy]", sel)
	}
}

func TestTransformTargetLockedMidDrag(t *testing.T) {
	s := NewSession(testLayout(
		shapeItem("a", document.Frame{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}, 0),
	))

	s.PointerDown(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})
	s.SetTransformTarget(TargetCrop)
	if s.TransformTarget() != TargetFrame {
		t.Error("transform target switched during a live drag")
	}
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.15, Y: 0.15})

	s.SetTransformTarget(TargetCrop)
	if s.TransformTarget() != TargetCrop {
		t.Error("transform target did not switch after the drag ended")
	}
}

func TestCropDragWritesCrop(t *testing.T) {
	item := document.LayoutItem{
		ID:    "v",
		Kind:  document.ItemKindVideo,
		Frame: document.Frame{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.5},
		Video: &document.VideoProps{Source: "clip:primary"},
	}
	s := NewSession(testLayout(item))
	s.SetTransformTarget(TargetCrop)

	// Crop defaults to the full source; drag the east handle inward.
	s.HandleDown(PointerEvent{PointerID: 1, X: 1, Y: 0.5}, "v", HandleE)
	s.PointerMove(PointerEvent{PointerID: 1, X: 0.6, Y: 0.5, Alt: true})
	s.Tick()
	s.PointerUp(PointerEvent{PointerID: 1, X: 0.6, Y: 0.5, Alt: true})

	it := s.Document().Item("v")
	if it.Video.Crop == nil {
		t.Fatal("crop not written")
	}
	if math.Abs(it.Video.Crop.Width-0.6) > 1e-9 {
		t.Errorf("crop width = %v, want 0.6", it.Video.Crop.Width)
	}
	// The frame itself is untouched by a crop drag.
	if !framesEqual(it.Frame, item.Frame, 0) {
		t.Errorf("frame changed during crop drag: %+v", it.Frame)
	}
}

func TestHitTestTopmost(t *testing.T) {
	f := document.Frame{X: 0.3, Y: 0.3, Width: 0.3, Height: 0.3}
	s := NewSession(testLayout(
		shapeItem("low", f, 1),
		shapeItem("high", f, 5),
	))

	if got := s.HitTest(0.4, 0.4); got != "high" {
		t.Errorf("hit = %q, want high", got)
	}
	if got := s.HitTest(0.95, 0.95); got != "" {
		t.Errorf("hit = %q, want empty", got)
	}
}
