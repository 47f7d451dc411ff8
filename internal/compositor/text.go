package compositor

import (
	"image"
	"image/color"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// Text is rendered with the fixed 7x13 bitmap face: each line is drawn at
// native size into a strip, then the strip is scaled up to the requested
// fontSize. Preview quality only; final render substitutes real fonts
// host-side.

const (
	defaultFontSize   = 0.04 // canvas-height fraction
	defaultLineHeight = 1.2
)

func paintText(dst *image.RGBA, it *document.LayoutItem, dr image.Rectangle, canvasH int) {
	if it.Text == nil || strings.TrimSpace(it.Text.Content) == "" {
		return
	}
	tp := it.Text
	opacity := itemOpacity(it)

	fontSize := tp.FontSize
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	linePx := int(math.Round(fontSize * float64(canvasH)))
	if linePx < 4 {
		linePx = 4
	}
	lineHeight := tp.LineHeight
	if lineHeight <= 0 {
		lineHeight = defaultLineHeight
	}
	advance := int(math.Round(float64(linePx) * lineHeight))
	if advance < linePx {
		advance = linePx
	}

	face := basicfont.Face7x13
	// Wrapping happens in native face units; scale the box width down to match.
	scale := float64(linePx) / float64(face.Height)
	nativeWidth := int(float64(dr.Dx()) / scale)
	if nativeWidth < face.Advance {
		return
	}

	lines := wrapLines(face, tp.Content, nativeWidth)
	maxLines := dr.Dy() / advance
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	if len(lines) == 0 {
		return
	}

	col := hexColor(tp.Color, 1)
	blockH := len(lines) * advance
	y := dr.Min.Y + (dr.Dy()-blockH)/2
	if y < dr.Min.Y {
		y = dr.Min.Y
	}

	for _, line := range lines {
		drawLine(dst, face, line, dr, y, linePx, scale, tp.Align, col, opacity)
		y += advance
	}
}

// drawLine rasterizes one line into a native-size strip and scales it into
// place.
func drawLine(dst *image.RGBA, face *basicfont.Face, line string, dr image.Rectangle, y, linePx int, scale float64, align document.TextAlign, col color.NRGBA, opacity float64) {
	if line == "" {
		return
	}
	nativeW := font.MeasureString(face, line).Ceil()
	if nativeW <= 0 {
		return
	}

	strip := image.NewRGBA(image.Rect(0, 0, nativeW, face.Height))
	d := font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(line)

	outW := int(math.Round(float64(nativeW) * scale))
	if outW < 1 {
		outW = 1
	}
	if outW > dr.Dx() {
		outW = dr.Dx()
	}

	var x int
	switch align {
	case document.TextAlignLeft:
		x = dr.Min.X
	case document.TextAlignRight:
		x = dr.Max.X - outW
	default:
		x = dr.Min.X + (dr.Dx()-outW)/2
	}

	out := image.Rect(x, y, x+outW, y+linePx).Intersect(dst.Bounds())
	if out.Empty() {
		return
	}
	if opacity >= 1 {
		xdraw.ApproxBiLinear.Scale(dst, out, strip, strip.Bounds(), xdraw.Over, nil)
		return
	}
	tmp := image.NewRGBA(out)
	xdraw.ApproxBiLinear.Scale(tmp, out, strip, strip.Bounds(), xdraw.Src, nil)
	drawWithOpacity(dst, out, tmp, out.Min, opacity)
}

// wrapLines greedily wraps words to the given width in face units. A single
// word wider than the line stands alone rather than being split.
func wrapLines(face font.Face, content string, width int) []string {
	var lines []string
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			joined := cur + " " + w
			if font.MeasureString(face, joined).Ceil() <= width {
				cur = joined
			} else {
				lines = append(lines, cur)
				cur = w
			}
		}
		lines = append(lines, cur)
	}
	return lines
}
