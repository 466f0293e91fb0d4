// Package text turns strings into glyph records for the text-run kernel.
//
// A [Shaper] lays a string out into bidi runs of positioned glyph ids
// using HarfBuzz shaping. A [GlyphCache] rasterizes each glyph at one of
// four horizontal subpixel offsets, packs the mask into an [Atlas] and
// returns the [kernel.Glyph] resource the kernel samples. Glyphs unused
// for a number of frames are evicted.
//
// The kernels never shape. Everything here runs on the CPU while a frame
// is built.
package text
