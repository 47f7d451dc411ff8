package compositor

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix2D is a 2D affine transform.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// RotateDegrees returns a rotation matrix.
func RotateDegrees(degrees float64) Matrix2D {
	rad := degrees * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other.
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Aff3 converts to the row-major form x/image/draw transforms expect.
func (m Matrix2D) Aff3() f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// itemMatrix composes the source→destination mapping for an item: scale the
// source sample rect onto the destination rect, mirror horizontally if asked,
// and rotate about the destination center.
func itemMatrix(srcX, srcY, srcW, srcH, dstX, dstY, dstW, dstH, rotation float64, mirror bool) Matrix2D {
	sx := dstW / srcW
	sy := dstH / srcH
	if mirror {
		sx = -sx
	}

	dcx := dstX + dstW/2
	dcy := dstY + dstH/2
	scx := srcX + srcW/2
	scy := srcY + srcH/2

	m := Translate(dcx, dcy)
	if rotation != 0 {
		m = m.Multiply(RotateDegrees(rotation))
	}
	m = m.Multiply(Scale(sx, sy))
	m = m.Multiply(Translate(-scx, -scy))
	return m
}
