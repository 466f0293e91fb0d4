// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"errors"
	"testing"

	"github.com/gogpu/compositor/geom"
)

func TestAddressRoundTrip(t *testing.T) {
	for _, a := range []Address{0, 1, Width - 1, Width, Width + 7, 5*Width + 1023, DefaultMaxRows*Width - 1} {
		u, v := UV(a)
		if u < 0 || u >= Width {
			t.Errorf("UV(%d) u = %d, want in [0, %d)", a, u, Width)
		}
		if got := FromUV(u, v); got != a {
			t.Errorf("FromUV(UV(%d)) = %d, want %d", a, got, a)
		}
	}
}

func TestBuilderNoRowStraddle(t *testing.T) {
	b := NewBuilder(4)
	first, err := b.Reserve(Width - 2)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if first != 0 {
		t.Errorf("first address = %d, want 0", first)
	}
	second, err := b.Push(geom.V4(1, 2, 3, 4), geom.V4(5, 6, 7, 8), geom.V4(9, 10, 11, 12))
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if second != Width {
		t.Errorf("second address = %d, want %d (next row)", second, Width)
	}
	tex := b.Freeze()
	got := tex.FetchN(second, 3)
	if got[2] != geom.V4(9, 10, 11, 12) {
		t.Errorf("FetchN()[2] = %v, want {9 10 11 12}", got[2])
	}
}

func TestBuilderLimits(t *testing.T) {
	b := NewBuilder(1)
	if _, err := b.Reserve(Width + 1); !errors.Is(err, ErrRecordTooLarge) {
		t.Errorf("Reserve(Width+1) error = %v, want ErrRecordTooLarge", err)
	}
	if _, err := b.Reserve(Width); err != nil {
		t.Fatalf("Reserve(Width) error = %v", err)
	}
	if _, err := b.Reserve(1); !errors.Is(err, ErrCacheFull) {
		t.Errorf("Reserve() on full cache error = %v, want ErrCacheFull", err)
	}
}

func TestFreezeIsSnapshot(t *testing.T) {
	b := NewBuilder(0)
	a, _ := b.Push(geom.V4(1, 1, 1, 1))
	tex := b.Freeze()
	b.Set(a, geom.V4(2, 2, 2, 2))
	if got := tex.Fetch(a); got != geom.V4(1, 1, 1, 1) {
		t.Errorf("snapshot changed after Set: got %v", got)
	}
}

func TestFetchUVMatchesAddress(t *testing.T) {
	b := NewBuilder(0)
	b.Reserve(Width + 10)
	a, _ := b.Push(geom.V4(3, 0, 0, 0))
	tex := b.Freeze()
	u, v := UV(a)
	if got := tex.FetchUV(u, v, 1)[0]; got.X != 3 {
		t.Errorf("FetchUV(%d, %d) = %v, want X = 3", u, v, got)
	}
}

func TestBytesLayout(t *testing.T) {
	b := NewBuilder(0)
	b.Push(geom.V4(1, 0, 0, 0))
	tex := b.Freeze()
	if got, want := len(tex.Bytes()), Width*16; got != want {
		t.Errorf("len(Bytes()) = %d, want %d", got, want)
	}
	w, h, f := tex.Descriptor()
	if w != Width || h != 1 || f != Format {
		t.Errorf("Descriptor() = %d, %d, %v", w, h, f)
	}
}

type recordingUpdater struct {
	data []byte
}

func (r *recordingUpdater) UpdateData(data []byte) error {
	r.data = data
	return nil
}

func TestUpload(t *testing.T) {
	b := NewBuilder(0)
	b.Push(geom.V4(1, 2, 3, 4))
	tex := b.Freeze()
	var dst recordingUpdater
	if err := tex.Upload(&dst); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(dst.data) != len(tex.Bytes()) {
		t.Errorf("uploaded %d bytes, want %d", len(dst.data), len(tex.Bytes()))
	}
}
