// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/gputypes"
)

// ErrInvalidTarget is returned for zero-sized or mismatched targets.
var ErrInvalidTarget = errors.New("render: invalid target")

// Target is where the executor writes fragments.
type Target interface {
	// Width returns the layer width in pixels.
	Width() int

	// Height returns the layer height in pixels.
	Height() int

	// Layers returns the number of array layers.
	Layers() int

	// Format returns the device format the target corresponds to.
	Format() gputypes.TextureFormat
}

// TextureArray is a CPU-backed layered texture of premultiplied float
// texels.
//
// Thread safety: reads are safe for concurrent use. Writes to disjoint
// pixels are safe concurrently; the executor relies on this to shade
// tiles in parallel.
type TextureArray struct {
	width  int
	height int
	layers int
	format gputypes.TextureFormat

	// pix holds layers*width*height texels, layer-major then row-major.
	pix []geom.Vec4

	// depth holds one float per pixel per layer once enabled.
	depth []float32
}

// NewTextureArray allocates a zeroed texture array.
func NewTextureArray(width, height, layers int, format gputypes.TextureFormat) (*TextureArray, error) {
	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidTarget, width, height, layers)
	}
	return &TextureArray{
		width:  width,
		height: height,
		layers: layers,
		format: format,
		pix:    make([]geom.Vec4, width*height*layers),
	}, nil
}

// NewColorTarget allocates an RGBA color target.
func NewColorTarget(width, height, layers int) (*TextureArray, error) {
	return NewTextureArray(width, height, layers, gputypes.TextureFormatRGBA8Unorm)
}

// NewAlphaTarget allocates a single-channel target for clip and glyph
// masks.
func NewAlphaTarget(width, height, layers int) (*TextureArray, error) {
	return NewTextureArray(width, height, layers, gputypes.TextureFormatR8Unorm)
}

// Width returns the layer width in pixels.
func (t *TextureArray) Width() int { return t.width }

// Height returns the layer height in pixels.
func (t *TextureArray) Height() int { return t.height }

// Layers returns the number of layers.
func (t *TextureArray) Layers() int { return t.layers }

// Format returns the device format.
func (t *TextureArray) Format() gputypes.TextureFormat { return t.format }

// IsAlpha reports whether the target stores a single channel.
func (t *TextureArray) IsAlpha() bool {
	return t.format == gputypes.TextureFormatR8Unorm
}

// Layer returns the texels of one layer, row-major with stride Width.
// The slice aliases the array.
func (t *TextureArray) Layer(layer int) []geom.Vec4 {
	n := t.width * t.height
	return t.pix[layer*n : (layer+1)*n : (layer+1)*n]
}

// Fetch returns the texel at integer coordinates, or zero outside the
// array.
func (t *TextureArray) Fetch(x, y, layer int) geom.Vec4 {
	if x < 0 || y < 0 || x >= t.width || y >= t.height || layer < 0 || layer >= t.layers {
		return geom.Vec4{}
	}
	return t.pix[(layer*t.height+y)*t.width+x]
}

// Set stores a texel. Out-of-range writes are ignored.
func (t *TextureArray) Set(x, y, layer int, v geom.Vec4) {
	if x < 0 || y < 0 || x >= t.width || y >= t.height || layer < 0 || layer >= t.layers {
		return
	}
	t.pix[(layer*t.height+y)*t.width+x] = v
}

// clampFetch reads with clamp-to-edge addressing.
func (t *TextureArray) clampFetch(x, y, layer int) geom.Vec4 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.Fetch(x, y, layer)
}

// Sample filters bilinearly at uv, given in texels, with clamp-to-edge
// addressing. Texel centers sit at half-integer coordinates.
func (t *TextureArray) Sample(uv geom.Vec2, layer int) geom.Vec4 {
	x := uv.X - 0.5
	y := uv.Y - 0.5
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	fx := x - x0
	fy := y - y0
	ix, iy := int(x0), int(y0)

	a := t.clampFetch(ix, iy, layer)
	b := t.clampFetch(ix+1, iy, layer)
	c := t.clampFetch(ix, iy+1, layer)
	d := t.clampFetch(ix+1, iy+1, layer)
	return a.Lerp(b, fx).Lerp(c.Lerp(d, fx), fy)
}

// Clear fills a layer with v.
func (t *TextureArray) Clear(layer int, v geom.Vec4) {
	px := t.Layer(layer)
	for i := range px {
		px[i] = v
	}
}

// ClearRect fills a pixel rect of one layer with v. The rect is clamped
// to the layer.
func (t *TextureArray) ClearRect(layer, x0, y0, x1, y1 int, v geom.Vec4) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, t.width), min(y1, t.height)
	px := t.Layer(layer)
	for y := y0; y < y1; y++ {
		row := px[y*t.width : y*t.width+t.width]
		for x := x0; x < x1; x++ {
			row[x] = v
		}
	}
}

// DepthLayer returns the depth values of a layer, allocating the depth
// buffer on first use. New depth buffers are cleared to the farthest
// value.
func (t *TextureArray) DepthLayer(layer int) []float32 {
	n := t.width * t.height
	if t.depth == nil {
		t.depth = make([]float32, n*t.layers)
		for i := range t.depth {
			t.depth[i] = -math32.MaxFloat32
		}
	}
	return t.depth[layer*n : (layer+1)*n : (layer+1)*n]
}

// ClearDepth resets a depth layer to the farthest value.
func (t *TextureArray) ClearDepth(layer int) {
	d := t.DepthLayer(layer)
	for i := range d {
		d[i] = -math32.MaxFloat32
	}
}

// Ensure TextureArray implements Target.
var _ Target = (*TextureArray)(nil)
