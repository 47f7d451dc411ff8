package compositor

import "image"

// boxBlur blurs img in place with a separable sliding-window box filter of
// the given radius. Two passes (horizontal then vertical) approximate a
// gaussian well enough for a background layer.
func boxBlur(img *image.RGBA, radius int) {
	if radius < 1 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}

	tmp := make([]uint8, len(img.Pix))
	copy(tmp, img.Pix)

	blurAxis(img.Pix, tmp, w, h, img.Stride, radius, true)
	copy(tmp, img.Pix)
	blurAxis(img.Pix, tmp, w, h, img.Stride, radius, false)
}

func blurAxis(dst, src []uint8, w, h, stride, radius int, horizontal bool) {
	length := w
	lines := h
	if !horizontal {
		length = h
		lines = w
	}
	window := 2*radius + 1

	at := func(line, i int) int {
		if horizontal {
			return line*stride + i*4
		}
		return i*stride + line*4
	}

	for line := 0; line < lines; line++ {
		var sumR, sumG, sumB, sumA int
		// Prime the window with edge-clamped samples.
		for i := -radius; i <= radius; i++ {
			idx := at(line, clampInt(i, 0, length-1))
			sumR += int(src[idx])
			sumG += int(src[idx+1])
			sumB += int(src[idx+2])
			sumA += int(src[idx+3])
		}
		for i := 0; i < length; i++ {
			idx := at(line, i)
			dst[idx] = uint8(sumR / window)
			dst[idx+1] = uint8(sumG / window)
			dst[idx+2] = uint8(sumB / window)
			dst[idx+3] = uint8(sumA / window)

			leave := at(line, clampInt(i-radius, 0, length-1))
			enter := at(line, clampInt(i+radius+1, 0, length-1))
			sumR += int(src[enter]) - int(src[leave])
			sumG += int(src[enter+1]) - int(src[leave+1])
			sumB += int(src[enter+2]) - int(src[leave+2])
			sumA += int(src[enter+3]) - int(src[leave+3])
		}
	}
}

// adjustBrightnessSaturation scales channel values and mixes toward luma in
// place. A non-positive factor means "leave unchanged".
func adjustBrightnessSaturation(img *image.RGBA, brightness, saturation float64) {
	if brightness <= 0 {
		brightness = 1
	}
	if saturation <= 0 {
		saturation = 1
	}
	if brightness == 1 && saturation == 1 {
		return
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			r := float64(row[x])
			g := float64(row[x+1])
			bl := float64(row[x+2])

			if saturation != 1 {
				// Rec. 601 luma.
				luma := 0.299*r + 0.587*g + 0.114*bl
				r = luma + (r-luma)*saturation
				g = luma + (g-luma)*saturation
				bl = luma + (bl-luma)*saturation
			}
			if brightness != 1 {
				r *= brightness
				g *= brightness
				bl *= brightness
			}

			row[x] = clampByte(r)
			row[x+1] = clampByte(g)
			row[x+2] = clampByte(bl)
		}
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
