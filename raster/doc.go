// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster is the fixed-function pipeline that runs primitive
// kernels on the CPU.
//
// A Draw expands every instance into a four-corner quad by calling the
// kernel's vertex stage, splits the quad into the triangles (0, 1, 2) and
// (2, 1, 3) and scan converts them with the top-left fill rule. Fragments
// are shaded in 2x2 quads so kernels can take screen-space derivatives of
// their varyings, which the analytic anti-aliasing depends on.
//
// Kernels are called from several goroutines at once and must not mutate
// shared state. Within one tile, instances are shaded in submission order,
// so blending follows draw order exactly.
package raster
