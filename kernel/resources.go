package kernel

import (
	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/render"
)

// ImageSampler is an image source outside the texture cache, such as a
// video frame. UV is in texels.
type ImageSampler interface {
	Sample(uv geom.Vec2, layer int) geom.Vec4
}

// Resources is the read-only pass snapshot a bound kernel reads.
type Resources struct {
	Tables *prim.Tables

	// DevicePixelRatio scales world units to device pixels. Zero means 1.
	DevicePixelRatio float32

	// ClipMask is the clip target of the pass.
	ClipMask clipmask.Sampler

	// Color is the image atlas.
	Color *render.TextureArray

	// Glyphs is the glyph atlas.
	Glyphs *render.TextureArray

	// Input is the intermediate target read by blurs, composites and
	// filters. It must not be the draw target.
	Input *render.TextureArray

	// External backs images drawn with SamplerExternal.
	External ImageSampler
}

func (r *Resources) dpr() float32 {
	if r.DevicePixelRatio > 0 {
		return r.DevicePixelRatio
	}
	return 1
}

// sample reads tex bilinearly, or returns zero when tex is missing.
func sample(tex *render.TextureArray, uv geom.Vec2, layer int) geom.Vec4 {
	if tex == nil {
		return geom.Vec4{}
	}
	return tex.Sample(uv, layer)
}

// maskValue returns the coverage stored in a mask texel: the single
// channel of alpha targets, alpha otherwise.
func maskValue(tex *render.TextureArray, v geom.Vec4) float32 {
	if tex != nil && tex.IsAlpha() {
		return v.X
	}
	return v.W
}

// clampUV keeps uv half a texel inside r so bilinear taps never read
// across the rect.
func clampUV(uv geom.Vec2, r geom.Rect) geom.Vec2 {
	lo := r.P0.Add(geom.Splat2(0.5))
	hi := r.P1.Sub(geom.Splat2(0.5))
	return uv.Clamp(lo, hi.Max(lo))
}
