package geom

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix stored as four columns, matching the layout of
// transform records in the data cache.
type Mat4 struct {
	Cols [4]Vec4
}

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{Cols: [4]Vec4{
		{X: 1}, {Y: 1}, {Z: 1}, {W: 1},
	}}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m.Cols[3] = Vec4{X: x, Y: y, Z: z, W: 1}
	return m
}

// ScaleMat returns a scale matrix.
func ScaleMat(x, y, z float32) Mat4 {
	return Mat4{Cols: [4]Vec4{
		{X: x}, {Y: y}, {Z: z}, {W: 1},
	}}
}

// RotateZ returns a rotation around the Z axis by angle radians.
func RotateZ(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	m := Identity()
	m.Cols[0] = Vec4{X: c, Y: s}
	m.Cols[1] = Vec4{X: -s, Y: c}
	return m
}

// RotateY returns a rotation around the Y axis by angle radians.
func RotateY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	m := Identity()
	m.Cols[0] = Vec4{X: c, Z: -s}
	m.Cols[2] = Vec4{X: s, Z: c}
	return m
}

// Perspective returns a CSS-style perspective matrix with the given
// distance to the z=0 plane.
func Perspective(d float32) Mat4 {
	m := Identity()
	m.Cols[2].W = -1 / d
	return m
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float32 {
	col := m.Cols[c]
	switch r {
	case 0:
		return col.X
	case 1:
		return col.Y
	case 2:
		return col.Z
	default:
		return col.W
	}
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return m.Cols[0].Scale(v.X).
		Add(m.Cols[1].Scale(v.Y)).
		Add(m.Cols[2].Scale(v.Z)).
		Add(m.Cols[3].Scale(v.W))
}

// MulPoint transforms the local point (p, 0, 1).
func (m Mat4) MulPoint(p Vec2) Vec4 {
	return m.MulVec4(Vec4{X: p.X, Y: p.Y, W: 1})
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := range 4 {
		r.Cols[i] = m.MulVec4(o.Cols[i])
	}
	return r
}

// Transpose3Col returns column c of the transposed upper-left 3x3 block.
func (m Mat4) Transpose3Col(c int) Vec3 {
	return Vec3{X: m.At(c, 0), Y: m.At(c, 1), Z: m.At(c, 2)}
}

// IsAxisAligned reports whether m maps axis-aligned rects to axis-aligned
// rects without perspective.
func (m Mat4) IsAxisAligned() bool {
	c := m.Cols
	if c[0].W != 0 || c[1].W != 0 || c[3].W != 1 {
		return false
	}
	return (c[0].Y == 0 && c[1].X == 0) || (c[0].X == 0 && c[1].Y == 0)
}

// Inverse returns the inverse of m. A singular matrix yields the zero
// matrix and ok == false.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	var a [16]float32
	for c := range 4 {
		for r := range 4 {
			a[c*4+r] = m.At(r, c)
		}
	}

	var o [16]float32
	o[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	o[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	o[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	o[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	o[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	o[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	o[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	o[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	o[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	o[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	o[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	o[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	o[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	o[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	o[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	o[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*o[0] + a[1]*o[4] + a[2]*o[8] + a[3]*o[12]
	if det == 0 {
		return Mat4{}, false
	}
	invDet := 1 / det
	for i := range 4 {
		inv.Cols[i] = Vec4{X: o[i*4] * invDet, Y: o[i*4+1] * invDet, Z: o[i*4+2] * invDet, W: o[i*4+3] * invDet}
	}
	return inv, true
}
