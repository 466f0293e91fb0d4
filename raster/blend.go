// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "github.com/gogpu/compositor/geom"

// BlendMode is the fixed-function color blend of a draw.
type BlendMode uint8

const (
	// BlendReplace writes the source.
	BlendReplace BlendMode = iota

	// BlendAlpha composites premultiplied source over destination.
	BlendAlpha

	// BlendMultiply multiplies destination by source. Clip masks
	// accumulate this way.
	BlendMultiply

	// BlendDualSource computes src + dst*(1-blend), used by subpixel text.
	BlendDualSource
)

var blendNames = [...]string{"replace", "alpha", "multiply", "dual-source"}

func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return "unknown"
}

func (m BlendMode) apply(dst geom.Vec4, o *Output) geom.Vec4 {
	switch m {
	case BlendAlpha:
		return o.Color.Add(dst.Scale(1 - o.Color.W))
	case BlendMultiply:
		return o.Color.Mul(dst)
	case BlendDualSource:
		return o.Color.Add(dst.Mul(geom.Splat4(1).Sub(o.Blend)))
	default:
		return o.Color
	}
}

// DepthMode controls the depth test of a draw. A fragment passes when
// its depth is at least the stored depth.
type DepthMode uint8

const (
	DepthNone DepthMode = iota
	DepthTest
	DepthTestWrite
)
