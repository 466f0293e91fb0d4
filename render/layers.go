// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/compositor/geom"
)

// to8 quantizes a normalized channel.
func to8(v float32) uint8 {
	return uint8(geom.Clamp(v*255+0.5, 0, 255))
}

// Image converts a layer to an 8-bit image. Color targets produce an
// *image.RGBA, which is premultiplied like the texels; alpha targets
// produce an *image.Gray of the first channel.
func (t *TextureArray) Image(layer int) image.Image {
	px := t.Layer(layer)
	r := image.Rect(0, 0, t.width, t.height)
	if t.IsAlpha() {
		img := image.NewGray(r)
		for i, v := range px {
			img.Pix[i] = to8(v.X)
		}
		return img
	}
	img := image.NewRGBA(r)
	for i, v := range px {
		o := i * 4
		img.Pix[o+0] = to8(v.X)
		img.Pix[o+1] = to8(v.Y)
		img.Pix[o+2] = to8(v.Z)
		img.Pix[o+3] = to8(v.W)
	}
	return img
}

// LoadImage copies img into a layer with its top-left corner at (x, y).
// Pixels falling outside the layer are dropped. Alpha targets keep the
// image alpha in the first channel.
func (t *TextureArray) LoadImage(img image.Image, layer, x, y int) error {
	if layer < 0 || layer >= t.layers {
		return fmt.Errorf("%w: layer %d of %d", ErrInvalidTarget, layer, t.layers)
	}
	b := img.Bounds()
	px := t.Layer(layer)
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		dy := y + sy - b.Min.Y
		if dy < 0 || dy >= t.height {
			continue
		}
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			dx := x + sx - b.Min.X
			if dx < 0 || dx >= t.width {
				continue
			}
			c := color.RGBA64Model.Convert(img.At(sx, sy)).(color.RGBA64)
			v := geom.V4(float32(c.R)/0xffff, float32(c.G)/0xffff, float32(c.B)/0xffff, float32(c.A)/0xffff)
			if t.IsAlpha() {
				v = geom.V4(v.W, 0, 0, 0)
			}
			px[dy*t.width+dx] = v
		}
	}
	return nil
}

// CopyRect copies a pixel rect between layers of possibly different
// arrays. Both rects are clamped to their layers.
func CopyRect(dst *TextureArray, dstLayer, dx, dy int, src *TextureArray, srcLayer int, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if x < 0 || y < 0 || x >= src.width || y >= src.height {
				continue
			}
			dst.Set(dx+x-r.Min.X, dy+y-r.Min.Y, dstLayer, src.Fetch(x, y, srcLayer))
		}
	}
}
