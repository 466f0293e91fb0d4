// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/geom"
)

var (
	// ErrCacheFull is returned when a record does not fit in the
	// remaining rows.
	ErrCacheFull = errors.New("gpucache: cache full")

	// ErrRecordTooLarge is returned for records wider than one row.
	ErrRecordTooLarge = errors.New("gpucache: record wider than a row")
)

// Builder accumulates records for the next snapshot.
//
// Records are appended linearly. A record that would straddle a row
// boundary starts at the next row instead, leaving the tail of the
// previous row unused.
//
// Thread safety: Builder is NOT thread-safe.
type Builder struct {
	texels  []geom.Vec4
	next    Address
	maxRows int
}

// NewBuilder returns an empty builder limited to maxRows rows.
// A maxRows of 0 or less selects DefaultMaxRows.
func NewBuilder(maxRows int) *Builder {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Builder{maxRows: maxRows}
}

// Reserve allocates n zeroed texels and returns the record address.
func (b *Builder) Reserve(n int) (Address, error) {
	if n <= 0 || n > Width {
		return 0, fmt.Errorf("%w: %d texels", ErrRecordTooLarge, n)
	}
	a := b.next
	if int(a%Width)+n > Width {
		a = alignUp(a, Width)
	}
	end := int(a) + n
	if end > b.maxRows*Width {
		return 0, fmt.Errorf("%w: %d texels at %d", ErrCacheFull, n, a)
	}
	if need := alignUp(end, Width); need > len(b.texels) {
		b.texels = append(b.texels, make([]geom.Vec4, need-len(b.texels))...)
	}
	b.next = Address(end)
	return a, nil
}

// Push appends a record and returns its address.
func (b *Builder) Push(texels ...geom.Vec4) (Address, error) {
	a, err := b.Reserve(len(texels))
	if err != nil {
		return 0, err
	}
	b.Set(a, texels...)
	return a, nil
}

// Set overwrites texels starting at a previously reserved address.
func (b *Builder) Set(a Address, texels ...geom.Vec4) {
	copy(b.texels[a:], texels)
}

// Len returns the number of texels consumed, including row padding.
func (b *Builder) Len() int {
	return int(b.next)
}

// Reset discards all records while keeping allocated storage.
func (b *Builder) Reset() {
	clear(b.texels)
	b.texels = b.texels[:0]
	b.next = 0
}

// Freeze returns a snapshot of the records written so far. The builder
// may keep being used for the following pass.
func (b *Builder) Freeze() *Texture {
	texels := make([]geom.Vec4, len(b.texels))
	copy(texels, b.texels)
	return NewTexture(texels)
}
