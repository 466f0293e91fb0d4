// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "github.com/gogpu/compositor/geom"

// MaxVaryings is the number of float varyings a kernel can pass from the
// vertex stage to the fragment stage.
const MaxVaryings = 40

// Varyings holds the per-vertex outputs of a kernel.
type Varyings [MaxVaryings]float32

// Vec2 reads two consecutive varyings.
func (v *Varyings) Vec2(i int) geom.Vec2 {
	return geom.V2(v[i], v[i+1])
}

// Vec4 reads four consecutive varyings.
func (v *Varyings) Vec4(i int) geom.Vec4 {
	return geom.V4(v[i], v[i+1], v[i+2], v[i+3])
}

// SetVec2 writes two consecutive varyings.
func (v *Varyings) SetVec2(i int, a geom.Vec2) {
	v[i], v[i+1] = a.X, a.Y
}

// SetVec4 writes four consecutive varyings.
func (v *Varyings) SetVec4(i int, a geom.Vec4) {
	v[i], v[i+1], v[i+2], v[i+3] = a.X, a.Y, a.Z, a.W
}

// Rect reads a rect stored as four varyings, P0 first.
func (v *Varyings) Rect(i int) geom.Rect {
	return geom.Rect{P0: v.Vec2(i), P1: v.Vec2(i + 2)}
}

// SetRect writes a rect as four varyings.
func (v *Varyings) SetRect(i int, r geom.Rect) {
	v.SetVec2(i, r.P0)
	v.SetVec2(i+2, r.P1)
}

// Layout says how many varyings a kernel uses. The first Flat varyings
// are taken from the provoking vertex unchanged; the rest, up to Count,
// are interpolated with perspective correction.
type Layout struct {
	Flat  int
	Count int
}

func (l Layout) valid() bool {
	return l.Flat >= 0 && l.Flat <= l.Count && l.Count <= MaxVaryings
}

// Vertex is the output of the vertex stage for one quad corner.
type Vertex struct {
	// Position is in device pixels before the divide by W. Z carries the
	// depth value.
	Position geom.Vec4

	Varyings Varyings
}

// Output is what the fragment stage writes for one pixel.
type Output struct {
	// Color is premultiplied.
	Color geom.Vec4

	// Blend is the second source used by BlendDualSource.
	Blend geom.Vec4
}

// Kernel is a programmable pair of vertex and fragment stages.
type Kernel interface {
	// Layout reports the varyings the kernel writes.
	Layout() Layout

	// Vertex fills out for one corner of an instance. Corner is one of
	// (0, 0), (1, 0), (0, 1) and (1, 1).
	Vertex(instance int, corner geom.Vec2, out *Vertex)

	// Fragment shades one pixel. Returning false discards it.
	Fragment(f *Fragment, out *Output) bool
}

// quadCorners are the unit-square corners in vertex order.
var quadCorners = [4]geom.Vec2{
	{X: 0, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
}

// quadTriangles index quadCorners.
var quadTriangles = [2][3]int{{0, 1, 2}, {2, 1, 3}}
