package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// FrameSource supplies decoded pixels for the current playback position.
// Implementations return nil for media that is not (yet) available; the
// renderer paints a placeholder instead of failing.
type FrameSource interface {
	// Live returns the current frame of the live video feed, used by
	// feed-derived backgrounds.
	Live() image.Image
	// Frame returns the current frame for an item's source reference.
	Frame(source string) image.Image
}

// Options configures a Renderer.
type Options struct {
	// DevicePixelRatio scales the output raster; 0 means 1.
	DevicePixelRatio float64
}

// Renderer paints a layout document plus live video state into an RGBA
// buffer. Rendering is a pure function of its inputs: the same document and
// frames always produce the same raster.
type Renderer struct {
	dpr float64
}

// New creates a renderer.
func New(opts Options) *Renderer {
	dpr := opts.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	return &Renderer{dpr: dpr}
}

// Render composes the document at canvas.width × canvas.height × dpr:
// background first, then every item in ascending (zIndex, id) order.
func (r *Renderer) Render(doc *document.LayoutDefinition, src FrameSource) *image.RGBA {
	w := int(math.Round(float64(doc.Canvas.Width) * r.dpr))
	h := int(math.Round(float64(doc.Canvas.Height) * r.dpr))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	r.paintBackground(dst, doc, src)

	for _, idx := range doc.RenderOrder() {
		it := &doc.Items[idx]
		dr := fracRect(it.Frame, w, h)
		if dr.Empty() {
			continue
		}
		switch it.Kind {
		case document.ItemKindVideo:
			r.paintVideo(dst, it, dr, src)
		case document.ItemKindShape:
			r.paintShape(dst, it, dr, w, h)
		case document.ItemKindText:
			paintText(dst, it, dr, h)
		}
	}

	return dst
}

// --- Background ---

func (r *Renderer) paintBackground(dst *image.RGBA, doc *document.LayoutDefinition, src FrameSource) {
	bg := doc.Canvas.Background
	switch bg.Kind {
	case document.BackgroundColor:
		c := color.NRGBA{0, 0, 0, 255}
		if bg.Color != nil {
			c = hexColor(bg.Color.Color, bg.Color.Opacity)
		}
		fillRect(dst, dst.Bounds(), c)

	case document.BackgroundBlur:
		live := srcLive(src)
		if live == nil {
			fillRect(dst, dst.Bounds(), color.NRGBA{16, 16, 20, 255})
			return
		}
		var cfg document.BlurBackground
		if bg.Blur != nil {
			cfg = *bg.Blur
		}

		// Cover-crop the feed to the canvas aspect, scale, then blur.
		sr := CoverSourceRect(live.Bounds(), dst.Bounds().Dx(), dst.Bounds().Dy())
		scaled := image.NewRGBA(dst.Bounds())
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), live, sr, xdraw.Src, nil)

		radius := int(math.Round(float64(cfg.Radius) * r.dpr))
		if radius > 0 {
			boxBlur(scaled, radius)
		}
		adjustBrightnessSaturation(scaled, cfg.Brightness, cfg.Saturation)

		opacity := cfg.Opacity
		if opacity <= 0 || opacity > 1 {
			opacity = 1
		}
		fillRect(dst, dst.Bounds(), color.NRGBA{0, 0, 0, 255})
		drawWithOpacity(dst, dst.Bounds(), scaled, scaled.Bounds().Min, opacity)

	case document.BackgroundImage:
		// Still-image backgrounds are decoded by the host; without decoded
		// pixels the tint stands in.
		tint := color.NRGBA{24, 24, 28, 255}
		if bg.Image != nil && bg.Image.Tint != "" {
			tint = hexColor(bg.Image.Tint, 1)
		}
		fillRect(dst, dst.Bounds(), tint)

	default:
		fillRect(dst, dst.Bounds(), color.NRGBA{0, 0, 0, 255})
	}
}

// CoverSourceRect computes the sub-rectangle of src to sample so that it
// covers a dstW×dstH surface without letterboxing: a source wider than the
// target aspect is cropped horizontally, a taller one vertically. The crop is
// centered.
func CoverSourceRect(src image.Rectangle, dstW, dstH int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 || dstW <= 0 || dstH <= 0 {
		return src
	}

	srcAspect := float64(sw) / float64(sh)
	dstAspect := float64(dstW) / float64(dstH)

	out := src
	if srcAspect > dstAspect {
		cw := int(math.Round(float64(sh) * dstAspect))
		off := (sw - cw) / 2
		out.Min.X = src.Min.X + off
		out.Max.X = out.Min.X + cw
	} else {
		ch := int(math.Round(float64(sw) / dstAspect))
		off := (sh - ch) / 2
		out.Min.Y = src.Min.Y + off
		out.Max.Y = out.Min.Y + ch
	}
	return out
}

// --- Video items ---

func (r *Renderer) paintVideo(dst *image.RGBA, it *document.LayoutItem, dr image.Rectangle, src FrameSource) {
	opacity := itemOpacity(it)

	var img image.Image
	if src != nil && it.Video != nil {
		img = src.Frame(it.Video.Source)
	}
	if img == nil {
		// Missing media never blocks geometry editing; paint a placeholder.
		fillWithOpacity(dst, dr, color.NRGBA{32, 32, 32, 255}, opacity)
		return
	}

	sr := cropToPixels(it.Video.EffectiveCrop(), img.Bounds())
	if sr.Empty() {
		return
	}

	switch it.Video.ScaleMode {
	case document.ScaleModeContain:
		dr = containDestRect(dr, sr)
	case document.ScaleModeFill:
		// Stretch: sample rect maps onto dr as-is.
	default: // cover
		sr = CoverSourceRect(sr, dr.Dx(), dr.Dy())
	}
	if dr.Empty() || sr.Empty() {
		return
	}

	rotation := 0.0
	if it.Video.Rotation != nil {
		rotation = *it.Video.Rotation
	}

	if rotation == 0 && !it.Video.Mirror {
		if opacity >= 1 {
			xdraw.ApproxBiLinear.Scale(dst, dr, img, sr, xdraw.Over, nil)
			return
		}
		tmp := image.NewRGBA(dr)
		xdraw.ApproxBiLinear.Scale(tmp, dr, img, sr, xdraw.Src, nil)
		drawWithOpacity(dst, dr, tmp, dr.Min, opacity)
		return
	}

	m := itemMatrix(
		float64(sr.Min.X), float64(sr.Min.Y), float64(sr.Dx()), float64(sr.Dy()),
		float64(dr.Min.X), float64(dr.Min.Y), float64(dr.Dx()), float64(dr.Dy()),
		rotation, it.Video.Mirror,
	)

	if opacity >= 1 {
		xdraw.BiLinear.Transform(dst, m.Aff3(), img, sr, xdraw.Over, nil)
		return
	}
	tmp := image.NewRGBA(rotatedBounds(m, sr).Intersect(dst.Bounds()))
	if tmp.Bounds().Empty() {
		return
	}
	xdraw.BiLinear.Transform(tmp, m.Aff3(), img, sr, xdraw.Src, nil)
	drawWithOpacity(dst, tmp.Bounds(), tmp, tmp.Bounds().Min, opacity)
}

// cropToPixels converts a crop into a pixel sample rect against the actual
// decoded bounds. Fractional crops scale by the bounds; pixel crops offset by
// the bounds origin. The result is intersected with the bounds.
func cropToPixels(c document.Crop, bounds image.Rectangle) image.Rectangle {
	var out image.Rectangle
	if c.Units == document.CropUnitsPixel {
		out = image.Rect(
			bounds.Min.X+int(math.Round(c.X)),
			bounds.Min.Y+int(math.Round(c.Y)),
			bounds.Min.X+int(math.Round(c.X+c.Width)),
			bounds.Min.Y+int(math.Round(c.Y+c.Height)),
		)
	} else {
		w := float64(bounds.Dx())
		h := float64(bounds.Dy())
		out = image.Rect(
			bounds.Min.X+int(math.Round(c.X*w)),
			bounds.Min.Y+int(math.Round(c.Y*h)),
			bounds.Min.X+int(math.Round((c.X+c.Width)*w)),
			bounds.Min.Y+int(math.Round((c.Y+c.Height)*h)),
		)
	}
	return out.Intersect(bounds)
}

// containDestRect shrinks the destination so the sample rect fits without
// cropping, centered.
func containDestRect(dr, sr image.Rectangle) image.Rectangle {
	if sr.Dx() <= 0 || sr.Dy() <= 0 {
		return dr
	}
	srcAspect := float64(sr.Dx()) / float64(sr.Dy())
	dstAspect := float64(dr.Dx()) / float64(dr.Dy())

	out := dr
	if srcAspect > dstAspect {
		ch := int(math.Round(float64(dr.Dx()) / srcAspect))
		off := (dr.Dy() - ch) / 2
		out.Min.Y = dr.Min.Y + off
		out.Max.Y = out.Min.Y + ch
	} else {
		cw := int(math.Round(float64(dr.Dy()) * srcAspect))
		off := (dr.Dx() - cw) / 2
		out.Min.X = dr.Min.X + off
		out.Max.X = out.Min.X + cw
	}
	return out
}

// rotatedBounds returns the axis-aligned box covering the transformed sample
// rect.
func rotatedBounds(m Matrix2D, sr image.Rectangle) image.Rectangle {
	x0, y0 := m.TransformPoint(float64(sr.Min.X), float64(sr.Min.Y))
	x1, y1 := m.TransformPoint(float64(sr.Max.X), float64(sr.Min.Y))
	x2, y2 := m.TransformPoint(float64(sr.Max.X), float64(sr.Max.Y))
	x3, y3 := m.TransformPoint(float64(sr.Min.X), float64(sr.Max.Y))

	minX := math.Min(x0, math.Min(x1, math.Min(x2, x3)))
	minY := math.Min(y0, math.Min(y1, math.Min(y2, y3)))
	maxX := math.Max(x0, math.Max(x1, math.Max(x2, x3)))
	maxY := math.Max(y0, math.Max(y1, math.Max(y2, y3)))

	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// --- Shape items ---

func (r *Renderer) paintShape(dst *image.RGBA, it *document.LayoutItem, dr image.Rectangle, w, h int) {
	c := color.NRGBA{0, 0, 0, 255}
	radius := 0.0
	if it.Shape != nil {
		c = hexColor(it.Shape.Color, 1)
		radius = it.Shape.BorderRadius
	}
	opacity := itemOpacity(it)

	minDim := w
	if h < minDim {
		minDim = h
	}
	radiusPx := radius * float64(minDim)
	maxRadius := math.Min(float64(dr.Dx()), float64(dr.Dy())) / 2
	if radiusPx > maxRadius {
		radiusPx = maxRadius
	}

	if radiusPx < 1 {
		fillWithOpacity(dst, dr, c, opacity)
		return
	}
	fillRoundedRect(dst, dr, c, radiusPx, opacity)
}

// fillRoundedRect fills a rectangle with circular corner cutouts via a
// per-pixel distance test. Scanline-interior rows skip the test.
func fillRoundedRect(dst *image.RGBA, dr image.Rectangle, c color.NRGBA, radius, opacity float64) {
	clipped := dr.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	px := applyAlpha(c, opacity)
	r2 := radius * radius

	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		inCornerBand := float64(y-dr.Min.Y) < radius || float64(dr.Max.Y-1-y) < radius
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			if inCornerBand {
				dx := cornerDist(float64(x), float64(dr.Min.X)+radius, float64(dr.Max.X)-radius)
				dy := cornerDist(float64(y), float64(dr.Min.Y)+radius, float64(dr.Max.Y)-radius)
				if dx > 0 && dy > 0 && dx*dx+dy*dy > r2 {
					continue
				}
			}
			blendPixel(dst, x, y, px)
		}
	}
}

// cornerDist returns how far v sits outside the [lo, hi] interior band.
func cornerDist(v, lo, hi float64) float64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return v - hi
	}
	return 0
}

// --- Pixel helpers ---

func itemOpacity(it *document.LayoutItem) float64 {
	if it.Opacity <= 0 || it.Opacity > 1 {
		return 1
	}
	return it.Opacity
}

func fracRect(f document.Frame, w, h int) image.Rectangle {
	return image.Rect(
		int(math.Round(f.X*float64(w))),
		int(math.Round(f.Y*float64(h))),
		int(math.Round((f.X+f.Width)*float64(w))),
		int(math.Round((f.Y+f.Height)*float64(h))),
	)
}

func fillRect(dst *image.RGBA, dr image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, dr, image.NewUniform(c), image.Point{}, draw.Over)
}

func fillWithOpacity(dst *image.RGBA, dr image.Rectangle, c color.NRGBA, opacity float64) {
	fillRect(dst, dr, applyAlpha(c, opacity))
}

// drawWithOpacity draws src through a uniform alpha mask.
func drawWithOpacity(dst *image.RGBA, dr image.Rectangle, src image.Image, sp image.Point, opacity float64) {
	if opacity >= 1 {
		draw.Draw(dst, dr, src, sp, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
	draw.DrawMask(dst, dr, src, sp, mask, image.Point{}, draw.Over)
}

func applyAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity < 1 {
		c.A = uint8(math.Round(float64(c.A) * opacity))
	}
	return c
}

func blendPixel(dst *image.RGBA, x, y int, c color.NRGBA) {
	if c.A == 255 {
		dst.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 255})
		return
	}
	dst.Set(x, y, c)
}

func srcLive(src FrameSource) image.Image {
	if src == nil {
		return nil
	}
	return src.Live()
}

// hexColor parses "#rgb" or "#rrggbb" with an opacity multiplier. Unparsable
// input falls back to opaque white.
func hexColor(s string, opacity float64) color.NRGBA {
	c := color.NRGBA{255, 255, 255, 255}
	if len(s) == 4 && s[0] == '#' {
		r, okR := hexNibble(s[1])
		g, okG := hexNibble(s[2])
		b, okB := hexNibble(s[3])
		if okR && okG && okB {
			c = color.NRGBA{r * 17, g * 17, b * 17, 255}
		}
	} else if len(s) == 7 && s[0] == '#' {
		r, okR := hexByte(s[1], s[2])
		g, okG := hexByte(s[3], s[4])
		b, okB := hexByte(s[5], s[6])
		if okR && okG && okB {
			c = color.NRGBA{r, g, b, 255}
		}
	}
	if opacity > 0 && opacity < 1 {
		c.A = uint8(math.Round(opacity * 255))
	}
	return c
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

func hexByte(hi, lo byte) (uint8, bool) {
	h, okH := hexNibble(hi)
	l, okL := hexNibble(lo)
	return h<<4 | l, okH && okL
}
