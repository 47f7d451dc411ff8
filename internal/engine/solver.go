package engine

import (
	"math"
	"strings"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// Handle names the edge or corner a resize drag grabbed.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

func (h Handle) hasNorth() bool { return strings.ContainsRune(string(h), 'n') }
func (h Handle) hasSouth() bool { return strings.ContainsRune(string(h), 's') }
func (h Handle) hasEast() bool  { return strings.ContainsRune(string(h), 'e') }
func (h Handle) hasWest() bool  { return strings.ContainsRune(string(h), 'w') }

// Valid reports whether h is one of the eight resize handles.
func (h Handle) Valid() bool {
	switch h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

// Resize applies a pointer delta to the edges named by the handle. East and
// south grow the size with the opposite edge fixed; west and north shrink
// from the near edge and recompute the position so the far edge stays put.
// Corner handles combine both axis rules independently.
func Resize(f document.Frame, h Handle, dx, dy float64) document.Frame {
	f = sanitizeFrame(f)
	dx = finiteOr(dx, 0)
	dy = finiteOr(dy, 0)

	out := f
	if h.hasEast() {
		out.Width = Clamp(f.Width+dx, 0, 1-f.X)
	}
	if h.hasSouth() {
		out.Height = Clamp(f.Height+dy, 0, 1-f.Y)
	}
	if h.hasWest() {
		far := f.X + f.Width
		w := Clamp(f.Width-dx, 0, far)
		out.Width = w
		out.X = far - w
	}
	if h.hasNorth() {
		far := f.Y + f.Height
		hh := Clamp(f.Height-dy, 0, far)
		out.Height = hh
		out.Y = far - hh
	}
	return out
}

// MaintainAspectResize resizes with the width/height ratio held. The order of
// operations is load-bearing: unlocked resize first, then pick the driven
// dimension from the handle orientation, then re-clamp proportionally against
// the far canvas bound, then re-anchor west/north handles so the opposite
// edge stays fixed. Swapping any two steps changes which edge anchors during
// a locked corner drag.
//
// ratio <= 0 (or non-finite) means "derive from the frame, else 1".
func MaintainAspectResize(f document.Frame, h Handle, dx, dy, ratio float64) document.Frame {
	f = sanitizeFrame(f)
	r := EffectiveAspectRatio(ratio, f)

	c := Resize(f, h, dx, dy)

	// Collapsed candidates skip aspect correction entirely; re-deriving a
	// dimension from a zero size would teleport the frame.
	if c.Width <= 0 || c.Height <= 0 {
		return ClampFrameToCanvas(c)
	}

	switch {
	case h == HandleE || h == HandleW:
		c.Height = c.Width / r
	case h == HandleN || h == HandleS:
		c.Width = c.Height * r
	default:
		// Corner: drive whichever dimension needs the smaller correction,
		// minimizing the visible jump.
		dh := math.Abs(c.Width/r - c.Height)
		dw := math.Abs(c.Height*r - c.Width)
		if dh <= dw {
			c.Height = c.Width / r
		} else {
			c.Width = c.Height * r
		}
	}

	if c.Width > 1-c.X {
		s := (1 - c.X) / c.Width
		c.Width *= s
		c.Height *= s
	}
	if c.Height > 1-c.Y {
		s := (1 - c.Y) / c.Height
		c.Width *= s
		c.Height *= s
	}

	if h.hasWest() {
		c.X = f.Right() - c.Width
	}
	if h.hasNorth() {
		c.Y = f.Bottom() - c.Height
	}

	return c
}

// Move translates the drag-start frame by the accumulated pointer delta and
// clamps to canvas. Deltas are always relative to the original frame, never
// the previous transient one, so error cannot accumulate across events.
func Move(f document.Frame, dx, dy float64) document.Frame {
	f = sanitizeFrame(f)
	dx = finiteOr(dx, 0)
	dy = finiteOr(dy, 0)

	out := f
	out.Width = Clamp01(f.Width)
	out.Height = Clamp01(f.Height)
	out.X = Clamp(f.X+dx, 0, 1-out.Width)
	out.Y = Clamp(f.Y+dy, 0, 1-out.Height)
	return out
}
