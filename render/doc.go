// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the texture arrays that kernels draw into and
// sample from.
//
// A [TextureArray] is a stack of equally sized layers of premultiplied
// float texels. Color targets hold RGBA; alpha targets (clip masks, glyph
// masks) use only the first channel. Intermediate render tasks live in
// layers of shared arrays, and later passes sample them.
//
// # Device integration
//
// The arrays are CPU resident. Hosts that present on a GPU surface pass
// a [DeviceHandle] to pick the byte order of the surface and upload a
// layer through [TextureArray.Upload]. The package never creates a
// device of its own.
package render
