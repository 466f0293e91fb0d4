// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import "golang.org/x/exp/constraints"

// Width is the fixed texel width of a cache row. Kernel sources are built
// against the same value.
const Width = 1024

// DefaultMaxRows bounds the height of a cache built with NewBuilder(0).
const DefaultMaxRows = 1024

// Address is a linear texel index into the cache.
type Address uint32

// UV decodes an address into texel coordinates.
func UV(a Address) (u, v int) {
	return int(a % Width), int(a / Width)
}

// FromUV re-linearizes texel coordinates into an address.
func FromUV(u, v int) Address {
	return Address(u + v*Width)
}

// Offset returns the address n texels further along the same record.
func (a Address) Offset(n int) Address {
	return a + Address(n)
}

// alignUp rounds x up to the next multiple of m.
func alignUp[T constraints.Integer](x, m T) T {
	if r := x % m; r != 0 {
		return x + m - r
	}
	return x
}
