// Package filter provides the color-matrix filters applied by the filter
// brush and the Gaussian reference weights used to set up blur tasks.
//
// Matrices work on unpremultiplied colors with channels in [0, 1]:
//
//	R' = m[0]*R + m[1]*G + m[2]*B + m[3]*A + m[4]
//	G' = m[5]*R + ...
package filter

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
)

// Texels is the number of cache texels in an encoded matrix.
const Texels = 5

// Matrix is a 4x5 color matrix in row-major order.
type Matrix [20]float32

// Identity leaves colors unchanged.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Brightness scales the color channels.
func Brightness(f float32) Matrix {
	return Matrix{
		f, 0, 0, 0, 0,
		0, f, 0, 0, 0,
		0, 0, f, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Contrast scales the channels around mid gray.
func Contrast(f float32) Matrix {
	o := 0.5 * (1 - f)
	return Matrix{
		f, 0, 0, 0, o,
		0, f, 0, 0, o,
		0, 0, f, 0, o,
		0, 0, 0, 1, 0,
	}
}

// Saturate mixes toward Rec. 709 luminance. 0 is grayscale, 1 is the
// identity and values above 1 oversaturate.
func Saturate(f float32) Matrix {
	const (
		lr = 0.2126
		lg = 0.7152
		lb = 0.0722
	)
	i := 1 - f
	return Matrix{
		lr*i + f, lg * i, lb * i, 0, 0,
		lr * i, lg*i + f, lb * i, 0, 0,
		lr * i, lg * i, lb*i + f, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Grayscale desaturates by amount in [0, 1].
func Grayscale(amount float32) Matrix {
	return Saturate(1 - geom.Clamp(amount, 0, 1))
}

// Sepia tones by amount in [0, 1].
func Sepia(amount float32) Matrix {
	a := geom.Clamp(amount, 0, 1)
	sepia := Matrix{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
	return Identity().Lerp(sepia, a)
}

// Invert blends each channel toward its inverse by amount.
func Invert(amount float32) Matrix {
	a := geom.Clamp(amount, 0, 1)
	s := 1 - 2*a
	return Matrix{
		s, 0, 0, 0, a,
		0, s, 0, 0, a,
		0, 0, s, 0, a,
		0, 0, 0, 1, 0,
	}
}

// HueRotate rotates hue by degrees.
func HueRotate(degrees float32) Matrix {
	sin, cos := math32.Sincos(degrees * math32.Pi / 180)
	const (
		lr = 0.213
		lg = 0.715
		lb = 0.072
	)
	return Matrix{
		lr + cos*(1-lr) - sin*lr, lg - cos*lg - sin*lg, lb - cos*lb + sin*(1-lb), 0, 0,
		lr - cos*lr + sin*0.143, lg + cos*(1-lg) + sin*0.140, lb - cos*lb - sin*0.283, 0, 0,
		lr - cos*lr - sin*(1-lr), lg - cos*lg + sin*lg, lb + cos*(1-lb) + sin*lb, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Opacity scales alpha.
func Opacity(f float32) Matrix {
	return Matrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, f, 0,
	}
}

// Lerp interpolates the coefficients of m and o.
func (m Matrix) Lerp(o Matrix, t float32) Matrix {
	var r Matrix
	for i := range m {
		r[i] = m[i] + (o[i]-m[i])*t
	}
	return r
}

// Then returns the matrix applying m first and o second.
func (m Matrix) Then(o Matrix) Matrix {
	var r Matrix
	for row := range 4 {
		for col := range 5 {
			var s float32
			for k := range 4 {
				s += o[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				s += o[row*5+4]
			}
			r[row*5+col] = s
		}
	}
	return r
}

// Apply filters a premultiplied color. The result is clamped and
// premultiplied.
func (m *Matrix) Apply(c geom.Vec4) geom.Vec4 {
	if c.W > 0 {
		inv := 1 / c.W
		c = geom.V4(c.X*inv, c.Y*inv, c.Z*inv, c.W)
	}
	var out [4]float32
	for row := range 4 {
		r := m[row*5 : row*5+5]
		out[row] = geom.Clamp(r[0]*c.X+r[1]*c.Y+r[2]*c.Z+r[3]*c.W+r[4], 0, 1)
	}
	a := out[3]
	return geom.V4(out[0]*a, out[1]*a, out[2]*a, a)
}

// Encode packs the matrix into cache texels: one texel per output row
// holding the RGBA coefficients, then the offsets.
func (m *Matrix) Encode() [Texels]geom.Vec4 {
	var t [Texels]geom.Vec4
	for row := range 4 {
		r := m[row*5 : row*5+5]
		t[row] = geom.V4(r[0], r[1], r[2], r[3])
		switch row {
		case 0:
			t[4].X = r[4]
		case 1:
			t[4].Y = r[4]
		case 2:
			t[4].Z = r[4]
		case 3:
			t[4].W = r[4]
		}
	}
	return t
}

// Decode is the inverse of Encode.
func Decode(t []geom.Vec4) Matrix {
	var m Matrix
	offsets := [4]float32{t[4].X, t[4].Y, t[4].Z, t[4].W}
	for row := range 4 {
		m[row*5+0] = t[row].X
		m[row*5+1] = t[row].Y
		m[row*5+2] = t[row].Z
		m[row*5+3] = t[row].W
		m[row*5+4] = offsets[row]
	}
	return m
}
