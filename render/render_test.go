// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestNewTextureArrayInvalid(t *testing.T) {
	if _, err := NewColorTarget(0, 10, 1); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("NewColorTarget(0, 10, 1) error = %v, want ErrInvalidTarget", err)
	}
}

func TestFetchOutsideIsZero(t *testing.T) {
	tex, _ := NewColorTarget(4, 4, 2)
	tex.Clear(1, geom.V4(1, 1, 1, 1))
	if got := tex.Fetch(-1, 0, 1); got != (geom.Vec4{}) {
		t.Errorf("Fetch(-1, 0) = %v, want zero", got)
	}
	if got := tex.Fetch(3, 3, 1); got.W != 1 {
		t.Errorf("Fetch(3, 3, 1).W = %v, want 1", got.W)
	}
	if got := tex.Fetch(3, 3, 0); got.W != 0 {
		t.Errorf("layer 0 changed by Clear(1): %v", got)
	}
}

func TestSampleBilinear(t *testing.T) {
	tex, _ := NewAlphaTarget(2, 1, 1)
	tex.Set(0, 0, 0, geom.V4(0, 0, 0, 0))
	tex.Set(1, 0, 0, geom.V4(1, 0, 0, 0))
	tests := []struct {
		u    float32
		want float32
	}{
		{0.5, 0},
		{1.0, 0.5},
		{1.5, 1},
		{5, 1},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := tex.Sample(geom.V2(tt.u, 0.5), 0).X; got != tt.want {
			t.Errorf("Sample(%v).X = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 128, A: 255})
	tex, _ := NewColorTarget(4, 4, 1)
	if err := tex.LoadImage(src, 0, 2, 2); err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	out := tex.Image(0).(*image.RGBA)
	if got := out.RGBAAt(3, 3); got != (color.RGBA{R: 128, A: 255}) {
		t.Errorf("pixel (3, 3) = %v, want {128 0 0 255}", got)
	}
}

func TestBytesSwizzle(t *testing.T) {
	tex, _ := NewColorTarget(1, 1, 1)
	tex.Set(0, 0, 0, geom.V4(1, 0, 0.5, 1))
	rgba, _ := tex.Bytes(0, gputypes.TextureFormatRGBA8Unorm)
	bgra, _ := tex.Bytes(0, gputypes.TextureFormatBGRA8Unorm)
	if rgba[0] != 255 || rgba[2] != 128 {
		t.Errorf("RGBA bytes = %v", rgba)
	}
	if bgra[0] != 128 || bgra[2] != 255 {
		t.Errorf("BGRA bytes = %v", bgra)
	}
	if _, err := tex.Bytes(0, gputypes.TextureFormatUndefined); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Bytes(Undefined) error = %v, want ErrInvalidTarget", err)
	}
}

type bgraDevice struct{ SoftwareDevice }

func (bgraDevice) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

type updater struct{ n int }

func (u *updater) UpdateData(data []byte) error {
	u.n = len(data)
	return nil
}

func TestSurfaceFormatAndUpload(t *testing.T) {
	tex, _ := NewColorTarget(8, 2, 1)
	if got := tex.SurfaceFormat(SoftwareDevice{}); got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("SurfaceFormat(software) = %v, want RGBA8Unorm", got)
	}
	f := tex.SurfaceFormat(bgraDevice{})
	if f != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("SurfaceFormat(bgra) = %v, want BGRA8Unorm", f)
	}
	var u updater
	if err := tex.Upload(&u, 0, f); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if u.n != 8*2*4 {
		t.Errorf("uploaded %d bytes, want %d", u.n, 8*2*4)
	}
}

func TestDepthLayerStartsFar(t *testing.T) {
	tex, _ := NewColorTarget(2, 2, 2)
	d := tex.DepthLayer(1)
	d[0] = 5
	tex.ClearDepth(1)
	if d[0] >= 0 {
		t.Errorf("depth after ClearDepth = %v, want far", d[0])
	}
}

func TestSoftwareDevice(t *testing.T) {
	var h DeviceHandle = SoftwareDevice{}
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("SoftwareDevice exposes a GPU object")
	}
	if got := h.AdapterInfo().Type; got != gpucontext.AdapterTypeSoftware {
		t.Errorf("AdapterInfo().Type = %v, want Software", got)
	}
	if got := h.SurfaceFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want Undefined", got)
	}
}
