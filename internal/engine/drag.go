package engine

import "github.com/reframe/reframe/backend-go/internal/document"

type DragMode int

const (
	DragNone DragMode = iota
	DragMove
	DragResize
)

// TransformTarget selects whether a drag edits the item's placement on the
// canvas or the crop region sampled from its source.
type TransformTarget string

const (
	TargetFrame TransformTarget = "frame"
	TargetCrop  TransformTarget = "crop"
)

// PointerEvent is a normalized pointer sample from the host UI. Coordinates
// are canvas fractions. Shift toggles selection membership and overrides
// aspect lock on resize; Alt disables snapping for the drag.
type PointerEvent struct {
	PointerID int
	X, Y      float64
	Shift     bool
	Alt       bool
}

// DragSession is the ephemeral state of one pointer interaction. It is
// created on pointer-down over an editable item, read on every move, and must
// not outlive pointer-up/cancel.
type DragSession struct {
	Mode      DragMode
	PointerID int
	Handle    Handle
	Target    TransformTarget

	StartX, StartY float64

	// original rectangles at drag start, keyed by item id; move deltas are
	// always applied against these, never the previous transient state.
	original map[string]document.Frame
	anchorID string // the grabbed item; snapping is resolved against it

	maintainAspect bool
	snapEnabled    bool
	aspectRatio    float64 // 0 = derive from the frame

	moved bool
}

// delta returns the accumulated pointer delta since drag start.
func (d *DragSession) delta(ev PointerEvent) (float64, float64) {
	return finiteOr(ev.X-d.StartX, 0), finiteOr(ev.Y-d.StartY, 0)
}

// clickEpsilon is how close (canvas fraction) two clicks must land to count
// as "the same spot" for overlap cycling.
const clickEpsilon = 0.01

// clickCycler implements click-to-cycle-through-overlaps: the first click at
// a point selects the topmost candidate, repeated clicks at the same spot
// with the same candidate set walk down the stack and wrap around.
type clickCycler struct {
	x, y       float64
	candidates []string
	index      int
	armed      bool
}

func (c *clickCycler) pick(x, y float64, candidates []string) string {
	if len(candidates) == 0 {
		c.armed = false
		return ""
	}

	if c.armed && samePoint(c.x, c.y, x, y) && sameSet(c.candidates, candidates) {
		c.index = (c.index + 1) % len(candidates)
	} else {
		c.x, c.y = x, y
		c.candidates = append([]string(nil), candidates...)
		c.index = 0
		c.armed = true
	}
	return candidates[c.index]
}

func (c *clickCycler) reset() { c.armed = false }

func samePoint(ax, ay, bx, by float64) bool {
	dx, dy := ax-bx, ay-by
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= clickEpsilon && dy <= clickEpsilon
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// hitCandidates returns ids of all items containing the point, topmost first
// (descending render order, so the highest (zIndex, id) wins the first click).
func hitCandidates(doc *document.LayoutDefinition, x, y float64) []string {
	order := doc.RenderOrder()
	var out []string
	for i := len(order) - 1; i >= 0; i-- {
		it := &doc.Items[order[i]]
		if PointWithinFrame(it.Frame, x, y) {
			out = append(out, it.ID)
		}
	}
	return out
}
