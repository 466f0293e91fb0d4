// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "github.com/gogpu/compositor/geom"

// Fragment is one pixel handed to a kernel's fragment stage.
type Fragment struct {
	// X and Y are the integer pixel coordinates on the target.
	X, Y int

	// Pos is the pixel center in device space.
	Pos geom.Vec2

	// Depth is the interpolated Z over W.
	Depth float32

	// Instance is the index of the instance being shaded.
	Instance int

	// In holds the interpolated varyings.
	In *Varyings

	quad *[4]Varyings
	lane int
}

// Derivatives returns the screen-space derivatives of fn across the 2x2
// quad the fragment belongs to. Lanes outside the primitive carry
// extrapolated varyings, so the result is defined on edges too.
func (f *Fragment) Derivatives(fn func(v *Varyings) geom.Vec2) (dx, dy geom.Vec2) {
	row := f.lane &^ 1
	col := f.lane & 1
	dx = fn(&f.quad[row|1]).Sub(fn(&f.quad[row]))
	dy = fn(&f.quad[2|col]).Sub(fn(&f.quad[col]))
	return dx, dy
}

// Fwidth returns |d/dx| + |d/dy| of fn.
func (f *Fragment) Fwidth(fn func(v *Varyings) geom.Vec2) geom.Vec2 {
	dx, dy := f.Derivatives(fn)
	return dx.Abs().Add(dy.Abs())
}
