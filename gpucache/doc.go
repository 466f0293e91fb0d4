// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucache implements the flat, address-indexed data cache that
// every kernel reads its records from.
//
// The cache is a 2D texture of RGBA32Float texels, Width texels per row.
// A record is a run of texels starting at an Address and never crosses a
// row boundary, so a record of n texels is read with n horizontally
// adjacent fetches:
//
//	coord = (address mod Width, address div Width)
//
// A [Builder] is the CPU-side writer. [Builder.Freeze] produces an
// immutable [Texture] snapshot that stays valid for one rendering pass.
//
// # Bounds checking
//
// Reads outside the written area are a precondition violation by the
// cache writer. Default builds return zeroed texels and count the fault,
// see [Texture.Faults]. Builds with the gpucachestrict tag panic instead,
// which is the recommended setting for development and tests.
package gpucache
