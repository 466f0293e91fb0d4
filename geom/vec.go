// Package geom provides the float32 vector, rectangle and matrix types
// shared by the cache decoders, the vertex stage and the coverage kernels.
//
// All types are small values. Operations mirror the component-wise
// semantics of shading languages so kernel code reads close to its
// mathematical definition.
package geom

import "github.com/chewxy/math32"

// Vec2 is a 2D vector or point.
type Vec2 struct {
	X, Y float32
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Splat2 returns a Vec2 with both components set to s.
func Splat2(s float32) Vec2 {
	return Vec2{X: s, Y: s}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns the component-wise product.
func (v Vec2) Mul(w Vec2) Vec2 {
	return Vec2{X: v.X * w.X, Y: v.Y * w.Y}
}

// Div returns the component-wise quotient.
func (v Vec2) Div(w Vec2) Vec2 {
	return Vec2{X: v.X / w.X, Y: v.Y / w.Y}
}

// Scale returns the vector scaled by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product.
func (v Vec2) Dot(w Vec2) float32 {
	return v.X*w.X + v.Y*w.Y
}

// Len returns the Euclidean length.
func (v Vec2) Len() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Abs returns the component-wise absolute value.
func (v Vec2) Abs() Vec2 {
	return Vec2{X: math32.Abs(v.X), Y: math32.Abs(v.Y)}
}

// Floor returns the component-wise floor.
func (v Vec2) Floor() Vec2 {
	return Vec2{X: math32.Floor(v.X), Y: math32.Floor(v.Y)}
}

// Min returns the component-wise minimum.
func (v Vec2) Min(w Vec2) Vec2 {
	return Vec2{X: min(v.X, w.X), Y: min(v.Y, w.Y)}
}

// Max returns the component-wise maximum.
func (v Vec2) Max(w Vec2) Vec2 {
	return Vec2{X: max(v.X, w.X), Y: max(v.Y, w.Y)}
}

// Clamp clamps each component into [lo, hi].
func (v Vec2) Clamp(lo, hi Vec2) Vec2 {
	return v.Max(lo).Min(hi)
}

// MaxComponent returns the larger component.
func (v Vec2) MaxComponent() float32 {
	return max(v.X, v.Y)
}

// MinComponent returns the smaller component.
func (v Vec2) MinComponent() float32 {
	return min(v.X, v.Y)
}

// Lerp is the component-wise mix(v, w, t).
func (v Vec2) Lerp(w, t Vec2) Vec2 {
	return Vec2{X: Mix(v.X, w.X, t.X), Y: Mix(v.Y, w.Y, t.Y)}
}

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// V3 is a convenience function to create a Vec3.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// XY returns the first two components.
func (v Vec3) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Scale returns the vector scaled by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(w Vec3) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Vec4 is a 4D vector. It doubles as a premultiplied RGBA color and as a
// texel of the data cache.
type Vec4 struct {
	X, Y, Z, W float32
}

// V4 is a convenience function to create a Vec4.
func V4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Splat4 returns a Vec4 with every component set to s.
func Splat4(s float32) Vec4 {
	return Vec4{X: s, Y: s, Z: s, W: s}
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// ZW returns the last two components.
func (v Vec4) ZW() Vec2 {
	return Vec2{X: v.Z, Y: v.W}
}

// XYZ returns the first three components.
func (v Vec4) XYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Add returns the sum of two vectors.
func (v Vec4) Add(w Vec4) Vec4 {
	return Vec4{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, W: v.W + w.W}
}

// Sub returns the difference of two vectors.
func (v Vec4) Sub(w Vec4) Vec4 {
	return Vec4{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z, W: v.W - w.W}
}

// Mul returns the component-wise product.
func (v Vec4) Mul(w Vec4) Vec4 {
	return Vec4{X: v.X * w.X, Y: v.Y * w.Y, Z: v.Z * w.Z, W: v.W * w.W}
}

// Scale returns the vector scaled by s.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}

// Dot returns the dot product.
func (v Vec4) Dot(w Vec4) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z + v.W*w.W
}

// Lerp is mix(v, w, t) with a scalar t.
func (v Vec4) Lerp(w Vec4, t float32) Vec4 {
	return Vec4{
		X: Mix(v.X, w.X, t),
		Y: Mix(v.Y, w.Y, t),
		Z: Mix(v.Z, w.Z, t),
		W: Mix(v.W, w.W, t),
	}
}

// Premultiply multiplies the color channels by alpha.
func (v Vec4) Premultiply() Vec4 {
	return Vec4{X: v.X * v.W, Y: v.Y * v.W, Z: v.Z * v.W, W: v.W}
}

// Mix returns a*(1-t) + b*t.
func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp clamps x into [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	return min(max(x, lo), hi)
}

// Fract returns x - floor(x).
func Fract(x float32) float32 {
	return x - math32.Floor(x)
}

// Step returns 0 if x < edge, otherwise 1.
func Step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

// Smoothstep is the Hermite interpolation between edge0 and edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
