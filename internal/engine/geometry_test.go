package engine

import (
	"math"
	"testing"

	"github.com/reframe/reframe/backend-go/internal/document"
)

func framesEqual(a, b document.Frame, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Width-b.Width) <= eps &&
		math.Abs(a.Height-b.Height) <= eps
}

func TestClampFrameToCanvas(t *testing.T) {
	cases := []struct {
		name string
		in   document.Frame
		want document.Frame
	}{
		{
			name: "inside unchanged",
			in:   document.Frame{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
			want: document.Frame{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		},
		{
			name: "pushed past right edge",
			in:   document.Frame{X: 0.9, Y: 0, Width: 0.3, Height: 0.3},
			want: document.Frame{X: 0.7, Y: 0, Width: 0.3, Height: 0.3},
		},
		{
			name: "negative position",
			in:   document.Frame{X: -0.2, Y: -0.5, Width: 0.3, Height: 0.3},
			want: document.Frame{X: 0, Y: 0, Width: 0.3, Height: 0.3},
		},
		{
			name: "oversized shrinks to canvas",
			in:   document.Frame{X: 0.5, Y: 0.5, Width: 2, Height: 3},
			want: document.Frame{X: 0, Y: 0, Width: 1, Height: 1},
		},
		{
			name: "negative size collapses",
			in:   document.Frame{X: 0.5, Y: 0.5, Width: -1, Height: -1},
			want: document.Frame{X: 0.5, Y: 0.5, Width: 0, Height: 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClampFrameToCanvas(tc.in)
			if !framesEqual(got, tc.want, 1e-9) {
				t.Errorf("ClampFrameToCanvas(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestClampFrameToCanvasIdempotent(t *testing.T) {
	frames := []document.Frame{
		{X: 0.9, Y: -0.3, Width: 0.5, Height: 1.7},
		{X: -2, Y: 2, Width: 3, Height: 0.1},
		{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5},
	}
	for _, f := range frames {
		once := ClampFrameToCanvas(f)
		twice := ClampFrameToCanvas(once)
		if !framesEqual(once, twice, 0) {
			t.Errorf("clamp not idempotent for %+v: %+v then %+v", f, once, twice)
		}
	}
}

func TestClampFrameToCanvasNonFinite(t *testing.T) {
	got := ClampFrameToCanvas(document.Frame{X: math.NaN(), Y: math.Inf(1), Width: 0.5, Height: math.Inf(-1)})
	for _, v := range []float64{got.X, got.Y, got.Width, got.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite value survived clamp: %+v", got)
		}
	}
}

func TestNormalizeCropFrame(t *testing.T) {
	video := &document.LayoutItem{
		Kind: document.ItemKindVideo,
		Frame: document.Frame{
			X: 0.1, Y: 0.1, Width: 0.5, Height: 0.5,
		},
		Video: &document.VideoProps{},
	}

	// No crop defaults to the full source.
	got := NormalizeCropFrame(video)
	want := document.Frame{X: 0, Y: 0, Width: 1, Height: 1}
	if !framesEqual(got, want, 1e-9) {
		t.Errorf("default crop = %+v, want %+v", got, want)
	}

	video.Video.Crop = &document.Crop{X: 0.6, Y: 0, Width: 0.8, Height: 0.5}
	got = NormalizeCropFrame(video)
	if got.X+got.Width > 1+1e-9 {
		t.Errorf("crop exceeds source: %+v", got)
	}

	// Non-video items hand back their frame untouched.
	shape := &document.LayoutItem{
		Kind:  document.ItemKindShape,
		Frame: document.Frame{X: 0.2, Y: 0.3, Width: 0.1, Height: 0.1},
	}
	if got := NormalizeCropFrame(shape); !framesEqual(got, shape.Frame, 0) {
		t.Errorf("shape crop frame = %+v, want %+v", got, shape.Frame)
	}
}

func TestEffectiveAspectRatio(t *testing.T) {
	f := document.Frame{Width: 0.4, Height: 0.2}

	if got := EffectiveAspectRatio(1.5, f); got != 1.5 {
		t.Errorf("explicit ratio = %v, want 1.5", got)
	}
	if got := EffectiveAspectRatio(0, f); math.Abs(got-2) > 1e-9 {
		t.Errorf("frame-derived ratio = %v, want 2", got)
	}
	if got := EffectiveAspectRatio(0, document.Frame{}); got != 1 {
		t.Errorf("degenerate ratio = %v, want 1", got)
	}
	if got := EffectiveAspectRatio(math.NaN(), f); math.Abs(got-2) > 1e-9 {
		t.Errorf("NaN ratio fell through to %v, want 2", got)
	}
}
