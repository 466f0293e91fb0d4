package coverage

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/compositor/geom"
)

// SignedDistanceEllipse returns the signed distance from p to the
// axis-aligned ellipse centered at the origin with the given radii.
//
// Circles use length(p) - r exactly. Other ellipses use the closed-form
// root of the quartic nearest-point equation (Quilez), split on the sign
// of its discriminant. The sign comes from the implicit inside test so
// it stays exact where the root loses precision.
func SignedDistanceEllipse(p, radii geom.Vec2) float32 {
	if radii.X == radii.Y {
		return p.Len() - radii.X
	}
	if radii.X <= 0 || radii.Y <= 0 {
		return p.Len()
	}

	q := p.Abs()
	ab := radii
	if q.X > q.Y {
		q = geom.V2(q.Y, q.X)
		ab = geom.V2(ab.Y, ab.X)
	}

	l := ab.Y*ab.Y - ab.X*ab.X
	m := ab.X * q.X / l
	m2 := m * m
	n := ab.Y * q.Y / l
	n2 := n * n
	c := (m2 + n2 - 1) / 3
	c3 := c * c * c
	qq := c3 + m2*n2*2
	d := c3 + m2*n2
	g := m + m*n2

	var co float32
	if d < 0 {
		h := math32.Acos(geom.Clamp(qq/c3, -1, 1)) / 3
		s := math32.Cos(h)
		t := math32.Sin(h) * math32.Sqrt(3)
		rx := math32.Sqrt(max(-c*(s+t+2)+m2, 0))
		ry := math32.Sqrt(max(-c*(s-t+2)+m2, 0))
		sl := float32(1)
		if l < 0 {
			sl = -1
		}
		co = (ry + sl*rx + math32.Abs(g)/max(rx*ry, 1e-12) - m) / 2
	} else {
		h := 2 * m * n * math32.Sqrt(d)
		s := math32.Cbrt(qq + h)
		u := math32.Cbrt(qq - h)
		rx := -s - u - c*4 + 2*m2
		ry := (s - u) * math32.Sqrt(3)
		rm := math32.Sqrt(rx*rx + ry*ry)
		co = (ry/math32.Sqrt(max(rm-rx, 1e-12)) + 2*g/max(rm, 1e-12) - m) / 2
	}
	co = geom.Clamp(co, 0, 1)

	r := ab.Mul(geom.V2(co, math32.Sqrt(1-co*co)))
	dist := r.Sub(q).Len()
	if (q.X*q.X)/(ab.X*ab.X)+(q.Y*q.Y)/(ab.Y*ab.Y) < 1 {
		return -dist
	}
	return dist
}
