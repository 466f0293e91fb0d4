// Package clipmask evaluates clip alpha for primitives and describes the
// clip records drawn into clip-mask targets.
//
// A primitive either reads a pre-rendered mask through its clip area or,
// for simple shapes, combines analytic signed distances directly.
package clipmask

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/task"
)

// Sampler reads mask texels at integer coordinates. The first channel
// holds the mask value.
type Sampler interface {
	Fetch(x, y, layer int) geom.Vec4
}

// MaskPos maps a device-space position to the clip target.
func MaskPos(area task.ClipArea, global geom.Vec2) geom.Vec2 {
	return global.Sub(area.ScreenOrigin).Add(area.Rect.P0)
}

// Evaluate returns the clip alpha at mask position pos. The no-clip
// sentinel yields 1, positions outside the area yield 0, anything else
// reads the mask.
func Evaluate(mask Sampler, area task.ClipArea, pos geom.Vec2) float32 {
	if area.IsNoClip() {
		return 1
	}
	r := area.Rect
	if pos.X < r.P0.X || pos.Y < r.P0.Y || pos.X > r.P1.X || pos.Y > r.P1.Y {
		return 0
	}
	if mask == nil {
		return 0
	}
	x := int(math32.Floor(pos.X))
	y := int(math32.Floor(pos.Y))
	return mask.Fetch(x, y, area.Layer).X
}

// Combine intersects analytic clip shapes given by their signed
// distances and converts the result to coverage.
func Combine(aaRange float32, distances ...float32) float32 {
	if len(distances) == 0 {
		return 1
	}
	return coverage.DistanceToCoverage(aaRange, coverage.Intersect(distances...))
}

// Multiply combines pre-rendered mask values.
func Multiply(values ...float32) float32 {
	a := float32(1)
	for _, v := range values {
		a *= v
	}
	return a
}
