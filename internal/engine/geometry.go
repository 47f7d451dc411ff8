package engine

import (
	"math"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Clamp01 restricts v to the unit interval.
func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// finiteOr replaces NaN/Inf with the fallback. Pointer deltas arrive from an
// external event source and a single non-finite value must never reach the
// document.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// sanitizeFrame replaces any non-finite component with zero.
func sanitizeFrame(f document.Frame) document.Frame {
	f.X = finiteOr(f.X, 0)
	f.Y = finiteOr(f.Y, 0)
	f.Width = finiteOr(f.Width, 0)
	f.Height = finiteOr(f.Height, 0)
	return f
}

// ClampFrameToCanvas clamps width/height to [0,1] and then position so the
// frame never exits canvas bounds. Idempotent.
func ClampFrameToCanvas(f document.Frame) document.Frame {
	f = sanitizeFrame(f)
	f.Width = Clamp01(f.Width)
	f.Height = Clamp01(f.Height)
	f.X = Clamp(f.X, 0, 1-f.Width)
	f.Y = Clamp(f.Y, 0, 1-f.Height)
	return f
}

// PointWithinFrame is the inclusive bounds test used for hit-testing.
func PointWithinFrame(f document.Frame, x, y float64) bool {
	return f.Contains(x, y)
}

// NormalizeCropFrame returns the rectangle crop editing operates on. For
// non-video items the crop is meaningless, so the item frame is returned
// unchanged; for video the crop is clamped per-axis to [0,1], defaulting to
// the full source.
func NormalizeCropFrame(it *document.LayoutItem) document.Frame {
	if it.Kind != document.ItemKindVideo || it.Video == nil {
		return it.Frame
	}
	c := it.Video.EffectiveCrop()
	f := document.Frame{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
	f = sanitizeFrame(f)
	f.Width = Clamp01(f.Width)
	f.Height = Clamp01(f.Height)
	f.X = Clamp(f.X, 0, 1-f.Width)
	f.Y = Clamp(f.Y, 0, 1-f.Height)
	return f
}

// EffectiveAspectRatio resolves the ratio an aspect-locked operation should
// hold: an explicit finite positive ratio wins, then the frame's own ratio,
// then 1.
func EffectiveAspectRatio(explicit float64, f document.Frame) float64 {
	if !math.IsNaN(explicit) && !math.IsInf(explicit, 0) && explicit > 0 {
		return explicit
	}
	if r := f.AspectRatio(); r > 0 {
		return r
	}
	return 1
}
