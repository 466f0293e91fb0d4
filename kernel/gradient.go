package kernel

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/cache"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// Gradient color table layout. Entry 0 holds the first stop color for
// offsets below zero, entries 1 to 128 the ramp over [0, 1) and entry 129
// the last stop color. Each entry is a start and end color.
const (
	LUTEntries = 128
	lutFirst   = 0
	lutBegin   = 1
	lutEnd     = lutBegin + LUTEntries
	lutLast    = lutEnd
	lutSize    = lutLast + 1

	// VecsPerLUT is the texel count of a gradient color table.
	VecsPerLUT = 2 * lutSize

	// VecsPerGradient is the texel count of a gradient header, the
	// table follows it.
	VecsPerGradient = 2
)

// Stop is one gradient color stop.
type Stop struct {
	Offset float32

	// Color is straight alpha. Tables interpolate premultiplied colors.
	Color geom.Vec4
}

// LUT is a gradient color table.
type LUT [VecsPerLUT]geom.Vec4

func lutIndex(offset float32) int {
	return int(math32.Round(geom.Clamp(offset, 0, 1)*LUTEntries + lutBegin))
}

func (l *LUT) fill(start, end int, from, to geom.Vec4) {
	step := to.Sub(from).Scale(1 / float32(end-start))
	c := from
	for i := start; i < end; i++ {
		l[2*i] = c
		c = c.Add(step)
		l[2*i+1] = c
	}
}

// BuildLUT renders stops, sorted by offset, into a color table. Stops
// closer than one entry apart produce a hard transition. No stops give a
// transparent table.
func BuildLUT(stops []Stop) *LUT {
	var l LUT
	if len(stops) == 0 {
		return &l
	}
	cur := stops[0].Color.Premultiply()
	l.fill(lutFirst, lutFirst+1, cur, cur)

	idx := lutBegin
	for _, s := range stops {
		next := s.Color.Premultiply()
		if n := lutIndex(s.Offset); n > idx {
			l.fill(idx, n, cur, next)
			idx = n
		}
		cur = next
	}
	if idx != lutEnd {
		l.fill(idx, lutEnd, cur, cur)
	}
	l.fill(lutLast, lutLast+1, cur, cur)
	return &l
}

// Sample returns the table color at offset without dithering. Repeating
// gradients wrap the offset into [0, 1).
func (l *LUT) Sample(offset float32, repeat bool) geom.Vec4 {
	return sampleLUT(l[:], offset, repeat)
}

func sampleLUT(l []geom.Vec4, offset float32, repeat bool) geom.Vec4 {
	x := offset
	if repeat {
		x = geom.Fract(x)
	}
	x = lutBegin + x*LUTEntries
	e := int(math32.Floor(x))
	e = min(max(e, 0), lutLast)
	return l[2*e].Lerp(l[2*e+1], geom.Fract(x))
}

// ditherMatrix is an 8x8 ordered dither pattern with values in [0, 64).
var ditherMatrix = [64]float32{
	0, 48, 12, 60, 3, 51, 15, 63,
	32, 16, 44, 28, 35, 19, 47, 31,
	8, 56, 4, 52, 11, 59, 7, 55,
	40, 24, 36, 20, 43, 27, 39, 23,
	2, 50, 14, 62, 1, 49, 13, 61,
	34, 18, 46, 30, 33, 17, 45, 29,
	10, 58, 6, 54, 9, 57, 5, 53,
	42, 26, 38, 22, 41, 25, 37, 21,
}

// dither adds at most half an 8-bit step of ordered noise to the color
// channels at pixel (x, y).
func dither(c geom.Vec4, x, y int) geom.Vec4 {
	v := ditherMatrix[(y&7)*8+x&7]
	noise := ((v+0.5)/64 - 0.5) / 256
	return geom.V4(c.X+noise, c.Y+noise, c.Z+noise, c.W)
}

// LUTCache shares color tables between gradients with equal stops.
// Tables unused for more than the retain count of frames are released.
//
// Not safe for concurrent use.
type LUTCache struct {
	entries *cache.Epoch[string, *LUT]
}

// NewLUTCache creates a cache that keeps tables for retain frames.
func NewLUTCache(retain int) *LUTCache {
	return &LUTCache{entries: cache.NewEpoch[string, *LUT](retain)}
}

func stopsKey(stops []Stop) string {
	buf := make([]byte, 0, len(stops)*20)
	for _, s := range stops {
		for _, f := range [5]float32{s.Offset, s.Color.X, s.Color.Y, s.Color.Z, s.Color.W} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return string(buf)
}

// Get returns the table for stops, building it on first use.
func (c *LUTCache) Get(stops []Stop) *LUT {
	l, _ := c.entries.GetOrCreate(stopsKey(stops), func() (*LUT, error) {
		return BuildLUT(stops), nil
	})
	return l
}

// EndFrame advances the frame counter and releases stale tables. It
// returns the number released.
func (c *LUTCache) EndFrame() int {
	c.entries.Advance()
	return len(c.entries.Evict())
}

// Len returns the number of cached tables.
func (c *LUTCache) Len() int {
	return c.entries.Len()
}

// SortStops orders stops by offset, keeping the order of equal offsets.
func SortStops(stops []Stop) {
	slices.SortStableFunc(stops, func(a, b Stop) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
}

// gradientShape maps a local position to a gradient offset.
type gradientShape interface {
	decode(d []geom.Vec4) gradientParams
	offset(g *gradientParams, p geom.Vec2) (float32, bool)
}

// gradientParams is a decoded gradient header.
type gradientParams struct {
	a, b    geom.Vec4
	repeat  bool
	stretch geom.Vec2
	lut     []geom.Vec4
}

type gradientBrush struct {
	b      *brush
	shape  gradientShape
	params []gradientParams
}

func (k *gradientBrush) prepare(b *brush) {
	k.b = b
	k.params = make([]gradientParams, len(b.prims))
	for i := range b.prims {
		d := b.res.Tables.Cache.FetchN(b.prims[i].DataAddress(), VecsPerGradient+VecsPerLUT)
		k.params[i] = k.shape.decode(d)
		k.params[i].lut = d[VecsPerGradient:]
	}
}

func (k *gradientBrush) varyings() int { return 0 }

func (k *gradientBrush) vertex(int, *vertex.Input, *vertex.Result, *raster.Varyings) {}

func (k *gradientBrush) fragment(s *shading, out *raster.Output) bool {
	g := &k.params[s.f.Instance]
	p := s.local.Sub(s.primitive().LocalRect.P0)
	if g.stretch.X > 0 && g.stretch.Y > 0 {
		p = geom.V2(geom.Fract(p.X/g.stretch.X)*g.stretch.X, geom.Fract(p.Y/g.stretch.Y)*g.stretch.Y)
	}
	offset, ok := k.shape.offset(g, p)
	if !ok {
		return false
	}
	c := sampleLUT(g.lut, offset, g.repeat)
	if k.b.prog.has(Dither) {
		c = dither(c, s.f.X, s.f.Y)
	}
	out.Color = c
	return true
}

func boolFlag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
