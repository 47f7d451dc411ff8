package engine

import (
	"math"
	"time"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// SnapPoints are the fixed canvas fractions frames align to.
var SnapPoints = []float64{0, 0.25, 0.5, 0.75, 1}

// SnapThreshold is the maximum distance, as a fraction of the canvas
// dimension, at which an edge or center snaps to a snap point.
const SnapThreshold = 0.02

// GuideFadeDelay is how long guides linger after dragging stops.
const GuideFadeDelay = 200 * time.Millisecond

type GuideOrientation string

const (
	GuideVertical   GuideOrientation = "vertical"
	GuideHorizontal GuideOrientation = "horizontal"
)

// GuideLine is one alignment guide to display. Visual-only, never persisted.
type GuideLine struct {
	Orientation GuideOrientation `json:"orientation"`
	Position    float64          `json:"position"`
}

// nearestSnap returns the closest snap point within SnapThreshold of v.
func nearestSnap(v float64) (float64, bool) {
	best := 0.0
	bestDist := math.Inf(1)
	for _, p := range SnapPoints {
		d := math.Abs(v - p)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	if bestDist <= SnapThreshold {
		return best, true
	}
	return 0, false
}

// SnapFrame tests, in order: left edge, top edge, right edge, bottom edge,
// horizontal center, vertical center. Each successful snap translates the
// frame on that axis and emits one guide line. A later test on the same axis
// works from the already-snapped position.
func SnapFrame(f document.Frame) (document.Frame, []GuideLine) {
	out := f
	var guides []GuideLine

	if p, ok := nearestSnap(out.X); ok {
		out.X = p
		guides = append(guides, GuideLine{GuideVertical, p})
	}
	if p, ok := nearestSnap(out.Y); ok {
		out.Y = p
		guides = append(guides, GuideLine{GuideHorizontal, p})
	}
	if p, ok := nearestSnap(out.X + out.Width); ok {
		out.X = p - out.Width
		guides = append(guides, GuideLine{GuideVertical, p})
	}
	if p, ok := nearestSnap(out.Y + out.Height); ok {
		out.Y = p - out.Height
		guides = append(guides, GuideLine{GuideHorizontal, p})
	}
	if p, ok := nearestSnap(out.X + out.Width/2); ok {
		out.X = p - out.Width/2
		guides = append(guides, GuideLine{GuideVertical, p})
	}
	if p, ok := nearestSnap(out.Y + out.Height/2); ok {
		out.Y = p - out.Height/2
		guides = append(guides, GuideLine{GuideHorizontal, p})
	}

	return out, guides
}

// GuideOverlay holds the currently visible guides. While a drag is live the
// guides have no expiry; once the drag ends they fade out after
// GuideFadeDelay.
type GuideOverlay struct {
	guides    []GuideLine
	expiresAt time.Time // zero = no expiry
}

// Set replaces the visible guides with no expiry (drag in progress).
func (o *GuideOverlay) Set(guides []GuideLine) {
	o.guides = guides
	o.expiresAt = time.Time{}
}

// BeginFade schedules the current guides to clear after the fade delay.
func (o *GuideOverlay) BeginFade(now time.Time) {
	if len(o.guides) == 0 {
		return
	}
	o.expiresAt = now.Add(GuideFadeDelay)
}

// Clear drops all guides immediately.
func (o *GuideOverlay) Clear() {
	o.guides = nil
	o.expiresAt = time.Time{}
}

// Active returns the guides still visible at now.
func (o *GuideOverlay) Active(now time.Time) []GuideLine {
	if len(o.guides) == 0 {
		return nil
	}
	if !o.expiresAt.IsZero() && now.After(o.expiresAt) {
		o.Clear()
		return nil
	}
	return o.guides
}
