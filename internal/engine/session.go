package engine

import (
	"time"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// ItemTransform is one item's candidate rectangle, reported to the host on
// every drag frame and once more on commit.
type ItemTransform struct {
	ItemID string         `json:"itemId"`
	Frame  document.Frame `json:"frame"`
}

// Callbacks are the session's outbound interface to the host UI. Any field
// may be nil.
type Callbacks struct {
	// OnTransform fires on every flushed drag frame (commit=false) and once
	// on release (commit=true).
	OnTransform func(transforms []ItemTransform, commit bool, target TransformTarget)
	// OnSelectionChange fires whenever the selection set changes.
	OnSelectionChange func(selection []string)
	// OnLayoutChange fires on every committed edit with the new document.
	OnLayoutChange func(doc *document.LayoutDefinition)
}

// Session owns one layout document and all interactive editor state:
// selection, drag session, undo history, guide overlay. The document is only
// ever mutated through UpdateLayout or the drag commit path, never in place.
//
// Session is single-goroutine by design: it models a UI-thread event loop and
// must be driven from one goroutine (the wasm bridge or a test).
type Session struct {
	doc       *document.LayoutDefinition
	selection []string

	history   History
	drag      *DragSession
	dragBase  *document.LayoutDefinition // committed doc at drag start
	cycler    clickCycler
	guides    GuideOverlay
	coalescer Coalescer

	target    TransformTarget
	callbacks Callbacks

	now func() time.Time
}

// NewSession creates a session owning doc.
func NewSession(doc *document.LayoutDefinition) *Session {
	return &Session{
		doc:    doc,
		target: TargetFrame,
		now:    time.Now,
	}
}

// SetCallbacks installs the host-facing callbacks.
func (s *Session) SetCallbacks(cb Callbacks) { s.callbacks = cb }

// SetClock replaces the session clock (tests drive guide fade with this).
func (s *Session) SetClock(now func() time.Time) { s.now = now }

// Document returns the current committed (or transient, mid-drag) document.
// Callers must not mutate it.
func (s *Session) Document() *document.LayoutDefinition { return s.doc }

// Selection returns the selected item ids in selection order.
func (s *Session) Selection() []string {
	return append([]string(nil), s.selection...)
}

// Guides returns the alignment guides currently visible.
func (s *Session) Guides() []GuideLine { return s.guides.Active(s.now()) }

// Dragging reports whether a drag session is live.
func (s *Session) Dragging() bool { return s.drag != nil }

// TransformTarget returns what drags currently edit (frame or crop).
func (s *Session) TransformTarget() TransformTarget { return s.target }

// SetTransformTarget switches between frame and crop editing. Rejected while
// a drag is live.
func (s *Session) SetTransformTarget(t TransformTarget) {
	if s.drag != nil {
		return
	}
	if t == TargetFrame || t == TargetCrop {
		s.target = t
	}
}

// LoadLayout replaces the document and resets all interactive state.
func (s *Session) LoadLayout(doc *document.LayoutDefinition) {
	s.abandonDrag()
	s.doc = doc
	s.history.Reset()
	s.setSelection(nil)
	s.guides.Clear()
	s.cycler.reset()
}

// UpdateLayout applies a pure updater to a cloned snapshot of the document.
// Transient updates skip history and the layout-change callback; commits push
// the pre-edit snapshot and propagate.
func (s *Session) UpdateLayout(update func(*document.LayoutDefinition), transient bool) {
	next := s.doc.Clone()
	update(next)

	if !transient {
		s.history.Push(s.doc)
	}
	s.doc = next
	s.pruneSelection()

	if !transient && s.callbacks.OnLayoutChange != nil {
		s.callbacks.OnLayoutChange(s.doc)
	}
}

// --- Selection ---

// SetSelection replaces the selection, dropping ids that reference no item.
func (s *Session) SetSelection(ids []string) {
	var pruned []string
	for _, id := range ids {
		if s.doc.Item(id) != nil {
			pruned = append(pruned, id)
		}
	}
	s.setSelection(pruned)
}

// Escape clears the selection from any state, with no other side effects.
func (s *Session) Escape() { s.setSelection(nil) }

func (s *Session) setSelection(ids []string) {
	if sameSet(s.selection, ids) {
		return
	}
	s.selection = ids
	if s.callbacks.OnSelectionChange != nil {
		s.callbacks.OnSelectionChange(s.Selection())
	}
}

func (s *Session) isSelected(id string) bool {
	for _, sel := range s.selection {
		if sel == id {
			return true
		}
	}
	return false
}

// pruneSelection drops selection entries whose items no longer exist.
// Self-healing per the error model: never an error, runs after every
// document change.
func (s *Session) pruneSelection() {
	var kept []string
	for _, id := range s.selection {
		if s.doc.Item(id) != nil {
			kept = append(kept, id)
		}
	}
	if len(kept) != len(s.selection) {
		s.setSelection(kept)
	}
}

// --- Pointer state machine ---

// PointerDown begins a move drag (or just updates selection) for a press on
// the canvas body. A press while another pointer's drag is live is rejected:
// single-drag-at-a-time is the invariant.
func (s *Session) PointerDown(ev PointerEvent) {
	if s.drag != nil {
		return
	}

	candidates := hitCandidates(s.doc, ev.X, ev.Y)
	if len(candidates) == 0 {
		s.cycler.reset()
		s.setSelection(nil)
		return
	}

	picked := s.cycler.pick(ev.X, ev.Y, candidates)

	if ev.Shift {
		s.toggleSelected(picked)
	} else if !s.isSelected(picked) {
		s.setSelection([]string{picked})
	}
	if !s.isSelected(picked) {
		// Shift-click deselected the pressed item; no drag starts.
		return
	}

	originals := make(map[string]document.Frame, len(s.selection))
	for _, id := range s.selection {
		it := s.doc.Item(id)
		if it == nil {
			continue
		}
		originals[id] = s.targetRect(it)
	}
	if len(originals) == 0 {
		return
	}

	s.dragBase = s.doc
	s.drag = &DragSession{
		Mode:        DragMove,
		PointerID:   ev.PointerID,
		Target:      s.target,
		StartX:      ev.X,
		StartY:      ev.Y,
		original:    originals,
		anchorID:    picked,
		snapEnabled: !ev.Alt,
	}
}

// HandleDown begins a resize drag for a press on one of an item's resize
// handles. The item becomes the sole selection. Aspect lock is forced on for
// items that carry a locked ratio; otherwise shift locks it for the drag.
func (s *Session) HandleDown(ev PointerEvent, itemID string, h Handle) {
	if s.drag != nil || !h.Valid() {
		return
	}
	it := s.doc.Item(itemID)
	if it == nil {
		return
	}

	s.setSelection([]string{itemID})
	s.cycler.reset()

	maintain := ev.Shift
	ratio := 0.0
	if it.Kind == document.ItemKindVideo && it.Video != nil {
		locked := it.Video.LockAspectRatio
		if s.target == TargetCrop {
			locked = it.Video.LockCropAspectRatio
		}
		if locked {
			maintain = true
		}
		if cached := s.cachedRatio(it); cached > 0 {
			ratio = cached
		}
	}

	s.dragBase = s.doc
	s.drag = &DragSession{
		Mode:           DragResize,
		PointerID:      ev.PointerID,
		Handle:         h,
		Target:         s.target,
		StartX:         ev.X,
		StartY:         ev.Y,
		original:       map[string]document.Frame{itemID: s.targetRect(it)},
		anchorID:       itemID,
		maintainAspect: maintain,
		snapEnabled:    !ev.Alt,
	}
	s.drag.aspectRatio = ratio
}

// PointerMove recomputes candidate rectangles and schedules a coalesced
// transient update. Events from a stale pointer id are ignored.
func (s *Session) PointerMove(ev PointerEvent) {
	if s.drag == nil || s.drag.PointerID != ev.PointerID {
		return
	}
	s.drag.moved = true

	transforms, guides := s.solve(ev)
	if s.drag.snapEnabled {
		s.guides.Set(guides)
	} else {
		s.guides.Clear()
	}

	// Only the latest pending frame is ever applied; the host fires it via
	// Tick on its frame clock.
	s.coalescer.Schedule(func() {
		s.applyTransient(transforms)
	})
}

// PointerUp commits the drag: the final rectangles are clamped, applied
// through the mutation layer with history, and reported once with
// commit=true. No transient update can fire after the commit.
func (s *Session) PointerUp(ev PointerEvent) {
	if s.drag == nil || s.drag.PointerID != ev.PointerID {
		return
	}
	drag := s.drag
	s.coalescer.Cancel()

	if !drag.moved {
		// A plain click: selection already handled on pointer-down.
		s.doc = s.dragBase
		s.drag = nil
		s.dragBase = nil
		s.guides.Clear()
		return
	}

	transforms, _ := s.solve(ev)
	for i := range transforms {
		transforms[i].Frame = ClampFrameToCanvas(transforms[i].Frame)
	}

	next := s.dragBase.Clone()
	applyTransforms(next, drag.Target, transforms)

	s.history.Push(s.dragBase)
	s.doc = next
	s.drag = nil
	s.dragBase = nil
	s.pruneSelection()
	s.guides.BeginFade(s.now())
	s.cycler.reset()

	if s.callbacks.OnTransform != nil {
		s.callbacks.OnTransform(transforms, true, drag.Target)
	}
	if s.callbacks.OnLayoutChange != nil {
		s.callbacks.OnLayoutChange(s.doc)
	}
}

// PointerCancel abandons the drag without committing: the drag-start
// rectangles are restored and any scheduled transient update is dropped.
// Pointer-leave without an up event takes the same path.
func (s *Session) PointerCancel(ev PointerEvent) {
	if s.drag == nil || s.drag.PointerID != ev.PointerID {
		return
	}
	s.abandonDrag()
}

func (s *Session) abandonDrag() {
	if s.drag == nil {
		return
	}
	drag := s.drag
	s.coalescer.Cancel()
	s.doc = s.dragBase
	s.drag = nil
	s.dragBase = nil
	s.guides.Clear()
	s.cycler.reset()

	if drag.moved && s.callbacks.OnTransform != nil {
		// Tell the host the items are back where they started.
		restored := make([]ItemTransform, 0, len(drag.original))
		for id, f := range drag.original {
			restored = append(restored, ItemTransform{ItemID: id, Frame: f})
		}
		s.callbacks.OnTransform(restored, false, drag.Target)
	}
}

// Tick fires at most one pending transient update. The host calls this once
// per animation frame.
func (s *Session) Tick() bool { return s.coalescer.Fire() }

// --- Drag solving ---

// solve computes candidate rectangles for the current drag at the given
// pointer position, plus the guides produced by snapping.
func (s *Session) solve(ev PointerEvent) ([]ItemTransform, []GuideLine) {
	drag := s.drag
	dx, dy := drag.delta(ev)

	var guides []GuideLine

	switch drag.Mode {
	case DragResize:
		orig := drag.original[drag.anchorID]
		var f document.Frame
		if drag.maintainAspect {
			f = MaintainAspectResize(orig, drag.Handle, dx, dy, drag.aspectRatio)
		} else {
			f = Resize(orig, drag.Handle, dx, dy)
		}
		if drag.snapEnabled {
			f, guides = SnapFrame(f)
		}
		return []ItemTransform{{ItemID: drag.anchorID, Frame: f}}, guides

	default: // DragMove
		// Snap against the grabbed item, then apply the adjusted delta to
		// every selected item so the group moves rigidly.
		anchor := drag.original[drag.anchorID]
		moved := Move(anchor, dx, dy)
		if drag.snapEnabled {
			var snapped document.Frame
			snapped, guides = SnapFrame(moved)
			dx += snapped.X - moved.X
			dy += snapped.Y - moved.Y
		}

		out := make([]ItemTransform, 0, len(drag.original))
		for _, id := range s.selection {
			orig, ok := drag.original[id]
			if !ok {
				continue
			}
			out = append(out, ItemTransform{ItemID: id, Frame: Move(orig, dx, dy)})
		}
		return out, guides
	}
}

// applyTransient swaps in a preview document built from the drag-start
// snapshot plus the candidate rectangles. Not historized, not propagated.
func (s *Session) applyTransient(transforms []ItemTransform) {
	if s.drag == nil || s.dragBase == nil {
		return
	}
	next := s.dragBase.Clone()
	applyTransforms(next, s.drag.Target, transforms)
	s.doc = next

	if s.callbacks.OnTransform != nil {
		s.callbacks.OnTransform(transforms, false, s.drag.Target)
	}
}

// applyTransforms writes candidate rectangles into the document, routing
// through the aspect-coupling mutation helpers.
func applyTransforms(doc *document.LayoutDefinition, target TransformTarget, transforms []ItemTransform) {
	for _, tr := range transforms {
		it := doc.Item(tr.ItemID)
		if it == nil {
			continue
		}
		switch target {
		case TargetCrop:
			if it.Kind != document.ItemKindVideo || it.Video == nil {
				continue
			}
			crop := document.Crop{
				X: tr.Frame.X, Y: tr.Frame.Y,
				Width: tr.Frame.Width, Height: tr.Frame.Height,
				Units: document.CropUnitsFraction,
			}
			it.Video.Crop = &crop
			ratio := crop.AspectRatio()
			if ratio > 0 {
				it.Video.CropAspectRatio = &ratio
			}
		default:
			document.SetItemFrame(it, tr.Frame)
		}
	}
}

// targetRect returns the rectangle the current transform target edits.
func (s *Session) targetRect(it *document.LayoutItem) document.Frame {
	if s.target == TargetCrop {
		return NormalizeCropFrame(it)
	}
	return it.Frame
}

// cachedRatio returns the item's cached aspect ratio for the current target,
// 0 when absent.
func (s *Session) cachedRatio(it *document.LayoutItem) float64 {
	if it.Video == nil {
		return 0
	}
	if s.target == TargetCrop {
		if it.Video.CropAspectRatio != nil {
			return *it.Video.CropAspectRatio
		}
		return 0
	}
	if it.Video.FrameAspectRatio != nil {
		return *it.Video.FrameAspectRatio
	}
	return 0
}

func (s *Session) toggleSelected(id string) {
	for i, sel := range s.selection {
		if sel == id {
			s.setSelection(append(append([]string(nil), s.selection[:i]...), s.selection[i+1:]...))
			return
		}
	}
	s.setSelection(append(s.Selection(), id))
}

// --- Committed operations ---

// Undo restores the previous committed snapshot. No-op on an empty stack.
func (s *Session) Undo() bool {
	prev, ok := s.history.Undo(s.doc)
	if !ok {
		return false
	}
	s.doc = prev
	s.pruneSelection()
	if s.callbacks.OnLayoutChange != nil {
		s.callbacks.OnLayoutChange(s.doc)
	}
	return true
}

// Redo re-applies the last undone snapshot. No-op on an empty stack.
func (s *Session) Redo() bool {
	next, ok := s.history.Redo(s.doc)
	if !ok {
		return false
	}
	s.doc = next
	s.pruneSelection()
	if s.callbacks.OnLayoutChange != nil {
		s.callbacks.OnLayoutChange(s.doc)
	}
	return true
}

// BringForward raises every selected item one z step.
func (s *Session) BringForward() {
	ids := s.Selection()
	if len(ids) == 0 {
		return
	}
	s.UpdateLayout(func(d *document.LayoutDefinition) { d.BringForward(ids) }, false)
}

// SendBackward lowers every selected item one z step, floored at 0.
func (s *Session) SendBackward() {
	ids := s.Selection()
	if len(ids) == 0 {
		return
	}
	s.UpdateLayout(func(d *document.LayoutDefinition) { d.SendBackward(ids) }, false)
}

// Duplicate clones the selected items with offset frames and fresh ids from
// newID, then selects the copies.
func (s *Session) Duplicate(newID func() string) {
	ids := s.Selection()
	if len(ids) == 0 {
		return
	}
	var created []string
	s.UpdateLayout(func(d *document.LayoutDefinition) {
		for _, id := range ids {
			fresh := newID()
			if d.DuplicateItem(id, fresh) != nil {
				created = append(created, fresh)
			}
		}
	}, false)
	s.SetSelection(created)
}

// DeleteSelection removes the selected items; selection self-prunes.
func (s *Session) DeleteSelection() {
	ids := s.Selection()
	if len(ids) == 0 {
		return
	}
	s.UpdateLayout(func(d *document.LayoutDefinition) {
		for _, id := range ids {
			d.RemoveItem(id)
		}
	}, false)
}

// HitTest returns the topmost item id at the point, or "".
func (s *Session) HitTest(x, y float64) string {
	if c := hitCandidates(s.doc, x, y); len(c) > 0 {
		return c[0]
	}
	return ""
}
