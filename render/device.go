// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle is an alias for gpucontext.DeviceProvider, the host's GPU
// device as seen by this package.
type DeviceHandle = gpucontext.DeviceProvider

// TextureUpdater receives encoded texel data. gpucontext.TextureUpdater
// satisfies it.
type TextureUpdater interface {
	UpdateData(data []byte) error
}

// TextureDescriptor describes the device texture that can hold a target.
type TextureDescriptor struct {
	Width  uint32
	Height uint32

	// Layers is the array layer count.
	Layers uint32

	Format gputypes.TextureFormat
}

// Descriptor returns the device texture description for the array.
func (t *TextureArray) Descriptor() TextureDescriptor {
	return TextureDescriptor{
		Width:  uint32(t.width),
		Height: uint32(t.height),
		Layers: uint32(t.layers),
		Format: t.format,
	}
}

// Bytes encodes a layer as 8-bit texels in the given format. RGBA8 and
// BGRA8 encode four channels, R8 encodes the first channel only.
func (t *TextureArray) Bytes(layer int, format gputypes.TextureFormat) ([]byte, error) {
	px := t.Layer(layer)
	switch format {
	case gputypes.TextureFormatR8Unorm:
		out := make([]byte, len(px))
		for i, v := range px {
			out[i] = to8(v.X)
		}
		return out, nil
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		out := make([]byte, len(px)*4)
		bgra := format == gputypes.TextureFormatBGRA8Unorm
		for i, v := range px {
			r, b := v.X, v.Z
			if bgra {
				r, b = b, r
			}
			o := i * 4
			out[o+0] = to8(r)
			out[o+1] = to8(v.Y)
			out[o+2] = to8(b)
			out[o+3] = to8(v.W)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %v", ErrInvalidTarget, format)
	}
}

// SurfaceFormat picks the byte order for presenting on the host surface.
// Hosts without a known surface format get the target's own format.
func (t *TextureArray) SurfaceFormat(h DeviceHandle) gputypes.TextureFormat {
	if h == nil || t.IsAlpha() {
		return t.format
	}
	if f := h.SurfaceFormat(); f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatRGBA8Unorm {
		return f
	}
	return t.format
}

// Upload encodes a layer in the given format and hands it to a device
// texture.
func (t *TextureArray) Upload(dst TextureUpdater, layer int, format gputypes.TextureFormat) error {
	data, err := t.Bytes(layer, format)
	if err != nil {
		return err
	}
	if err := dst.UpdateData(data); err != nil {
		return fmt.Errorf("render: upload layer %d: %w", layer, err)
	}
	return nil
}

// SoftwareDevice is the host seen by a renderer that has no GPU. It has
// no device or queue, reports a software adapter and no surface format,
// so targets keep their own format.
type SoftwareDevice struct{}

var _ DeviceHandle = SoftwareDevice{}

func (SoftwareDevice) Device() gpucontext.Device   { return nil }
func (SoftwareDevice) Queue() gpucontext.Queue     { return nil }
func (SoftwareDevice) Adapter() gpucontext.Adapter { return nil }

func (SoftwareDevice) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo describes the CPU rasterizer.
func (SoftwareDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "compositor software raster", Type: gpucontext.AdapterTypeSoftware}
}
