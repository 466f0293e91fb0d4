// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"honnef.co/go/safeish"
)

// Format is the texel format of the cache texture.
const Format = gputypes.TextureFormatRGBA32Float

// Texture is an immutable snapshot of the cache for one pass.
//
// Thread safety: all read methods are safe for concurrent use.
type Texture struct {
	// texels is rows*Width texels, row-major.
	texels []geom.Vec4

	// rows is the number of rows holding data.
	rows int

	// faults counts out-of-range fetches in non-strict builds.
	faults atomic.Uint64
}

// NewTexture wraps texels as a snapshot. The slice is retained and must
// not be modified afterwards. Its length is rounded down to whole rows.
func NewTexture(texels []geom.Vec4) *Texture {
	rows := len(texels) / Width
	return &Texture{texels: texels[:rows*Width], rows: rows}
}

// Rows returns the texture height in texels.
func (t *Texture) Rows() int {
	return t.rows
}

// Fetch returns the single texel at a.
func (t *Texture) Fetch(a Address) geom.Vec4 {
	return t.FetchN(a, 1)[0]
}

// FetchN returns the n texels of the record starting at a. The returned
// slice aliases the texture and must be treated as read-only.
func (t *Texture) FetchN(a Address, n int) []geom.Vec4 {
	u, v := UV(a)
	return t.FetchUV(u, v, n)
}

// FetchUV reads a record by raw texel coordinates, bypassing the linear
// address decode. Used for records located by earlier passes.
func (t *Texture) FetchUV(u, v, n int) []geom.Vec4 {
	if u < 0 || v < 0 || n <= 0 || u+n > Width || v >= t.rows {
		return t.fault(u, v, n)
	}
	i := v*Width + u
	return t.texels[i : i+n : i+n]
}

// Faults returns how many out-of-range fetches were answered with zeros.
func (t *Texture) Faults() uint64 {
	return t.faults.Load()
}

func (t *Texture) fault(u, v, n int) []geom.Vec4 {
	if strictBounds {
		panic(fmt.Sprintf("gpucache: fetch of %d texels at (%d, %d) outside %dx%d cache", n, u, v, Width, t.rows))
	}
	t.faults.Add(1)
	return make([]geom.Vec4, max(n, 1))
}

// Bytes returns the raw RGBA32Float contents, row-major.
func (t *Texture) Bytes() []byte {
	return safeish.SliceCast[[]byte](t.texels)
}

// Descriptor returns the extent and format for creating a device texture
// that can hold the snapshot.
func (t *Texture) Descriptor() (width, height uint32, format gputypes.TextureFormat) {
	return Width, uint32(max(t.rows, 1)), Format
}

// Upload copies the snapshot into a device texture.
func (t *Texture) Upload(dst gpucontext.TextureUpdater) error {
	if err := dst.UpdateData(t.Bytes()); err != nil {
		return fmt.Errorf("gpucache: upload %d rows: %w", t.rows, err)
	}
	return nil
}
