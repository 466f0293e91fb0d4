// Package compositor draws anti-aliased primitives with analytic
// coverage: rects, rounded clips, borders, gradients, box shadows,
// images and text.
//
// # Overview
//
// Primitives are encoded as compact instance records that refer into a
// shared cache of float4 texels. Kernels, one per primitive kind and
// feature variant, expand each instance into a quad, transform and snap
// it, and shade its fragments with exact distance-based coverage. The
// software executor in package raster runs the kernels tile by tile on a
// worker pool.
//
// # Quick Start
//
//	r, err := compositor.New(compositor.WithDevicePixelRatio(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	fb, _ := r.NewFrame(800, 600)
//	fb.Rect(compositor.Common{Node: fb.Root(), Rect: geom.R(10, 10, 200, 100)}, geom.V4(1, 0, 0, 1))
//	f, _ := fb.Finish()
//
//	res, err := r.RenderPass(ctx, f)
//	png.Encode(w, res.Image())
//
// # Packages
//
//   - gpucache, task, prim: the record layouts and table lookups
//   - vertex, coverage, clipmask: the shared kernel stages
//   - kernel: the primitive kinds and the variant selector
//   - raster, render: the software executor and its targets
//   - text: glyph shaping, rasterization and the glyph atlas
//   - shader: WGSL sources of the kernels for GPU backends
//   - debug: the websocket debug server
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package compositor
