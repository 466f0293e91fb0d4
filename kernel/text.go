package kernel

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// Text run record layout: two header texels, then glyph offsets packed
// two per texel.
const (
	VecsPerTextRunHeader = 2
	VecsPerGlyph         = 2
)

// TextRun is a run of glyphs sharing a color. Each glyph is drawn as
// its own instance.
type TextRun struct {
	// Color is premultiplied.
	Color geom.Vec4

	// Background is the opaque color the run is known to be drawn on,
	// used by GlyphSubpixelBackground.
	Background geom.Vec4

	// Offsets are the glyph pen positions in local space.
	Offsets []geom.Vec2
}

// Encode returns the record texels.
func (t TextRun) Encode() []geom.Vec4 {
	d := make([]geom.Vec4, VecsPerTextRunHeader, VecsPerTextRunHeader+(len(t.Offsets)+1)/2)
	d[0], d[1] = t.Color, t.Background
	for i := 0; i < len(t.Offsets); i += 2 {
		v := geom.Vec4{X: t.Offsets[i].X, Y: t.Offsets[i].Y}
		if i+1 < len(t.Offsets) {
			v.Z, v.W = t.Offsets[i+1].X, t.Offsets[i+1].Y
		}
		d = append(d, v)
	}
	return d
}

// Glyph is a rasterized glyph in the glyph atlas.
type Glyph struct {
	// UV is the atlas rect in texels.
	UV    geom.Rect
	Layer int

	// Offset places the bitmap relative to the pen position, in bitmap
	// pixels.
	Offset geom.Vec2

	// Scale is the number of device pixels per bitmap pixel. Zero means 1.
	Scale float32
}

// Encode returns the record texels.
func (g Glyph) Encode() [VecsPerGlyph]geom.Vec4 {
	return [VecsPerGlyph]geom.Vec4{
		g.UV.Texel(),
		{X: float32(g.Layer), Y: g.Offset.X, Z: g.Offset.Y, W: g.Scale},
	}
}

// DecodeGlyph reads a glyph record.
func DecodeGlyph(d []geom.Vec4) Glyph {
	return Glyph{
		UV:     geom.RectFromTexel(d[0]),
		Layer:  int(d[1].X),
		Offset: geom.V2(d[1].Y, d[1].Z),
		Scale:  d[1].W,
	}
}

// SubpixelDir says along which axes glyphs were rasterized at a
// subpixel offset. Those axes are not snapped to whole pixels.
type SubpixelDir uint8

const (
	SubpixelNone SubpixelDir = iota
	SubpixelHorizontal
	SubpixelVertical
	SubpixelMixed
)

// snapBias is added before flooring the glyph origin. Subpixel axes use
// an eighth of a pixel, half of the quarter-pixel quantization step.
var snapBias = [4]geom.Vec2{
	{X: 0.5, Y: 0.5},
	{X: 0.125, Y: 0.5},
	{X: 0.5, Y: 0.125},
	{X: 0.125, Y: 0.125},
}

// GlyphMode selects how glyph texels combine with the run color.
type GlyphMode uint8

const (
	// GlyphAlpha treats the texel as coverage.
	GlyphAlpha GlyphMode = iota

	// GlyphSubpixel treats the texel as per-channel coverage. It needs
	// DualSource for exact results.
	GlyphSubpixel

	// GlyphSubpixelBackground blends per-channel coverage against the
	// run background in one pass.
	GlyphSubpixelBackground

	// GlyphBitmap treats the texel as a premultiplied color image.
	GlyphBitmap
)

// TextUserData packs the instance user data of one glyph.
func TextUserData(glyph int, resource gpucache.Address, dir SubpixelDir, mode GlyphMode) [3]int32 {
	return [3]int32{int32(glyph), int32(resource), int32(mode)<<8 | int32(dir)}
}

type glyphState struct {
	color, background geom.Vec4
	glyph             Glyph
	rect              geom.Rect
	mode              GlyphMode
}

type textBrush struct {
	b      *brush
	glyphs []glyphState
}

func (k *textBrush) prepare(b *brush) {
	k.b = b
	k.glyphs = make([]glyphState, len(b.prims))
	cache := b.res.Tables.Cache
	for i := range b.prims {
		p := &b.prims[i]
		ud := p.Header.UserData
		index := int(ud[0])
		head := cache.FetchN(p.DataAddress(), VecsPerTextRunHeader)
		packed := cache.Fetch(p.DataAddress().Offset(VecsPerTextRunHeader + index/2))
		offset := packed.XY()
		if index%2 == 1 {
			offset = packed.ZW()
		}
		g := DecodeGlyph(cache.FetchN(gpucache.Address(ud[1]), VecsPerGlyph))
		st := &k.glyphs[i]
		st.color, st.background = head[0], head[1]
		st.glyph = g
		st.mode = GlyphMode(ud[2] >> 8 & 0xff)
		st.rect = glyphRect(p, g, offset, SubpixelDir(ud[2]&3), b.res.dpr(), b.prog.has(Transform))
	}
}

// glyphRect places a glyph bitmap in local space. On the axis-aligned
// path the origin is floored to whole device pixels per axis, with the
// bias of the subpixel direction.
func glyphRect(p *prim.Primitive, g Glyph, pen geom.Vec2, dir SubpixelDir, dpr float32, transform bool) geom.Rect {
	scale := g.Scale
	if scale <= 0 {
		scale = 1
	}
	m := p.Node.Transform
	var ds geom.Vec2
	if transform || !p.Node.AxisAligned {
		ds = geom.V2(m.Cols[0].XY().Len(), m.Cols[1].XY().Len()).Scale(dpr)
	} else {
		ds = geom.V2(m.Cols[0].X, m.Cols[1].Y).Scale(dpr)
	}
	if ds.X == 0 || ds.Y == 0 {
		return geom.Rect{P0: pen, P1: pen}
	}

	origin := pen
	if !transform && p.Node.AxisAligned {
		w := m.MulPoint(pen)
		dev := w.XY().Scale(dpr / w.W)
		snapped := dev.Add(snapBias[dir&3]).Floor()
		origin = pen.Add(snapped.Sub(dev).Div(ds))
	}
	p0 := origin.Add(g.Offset.Scale(scale).Div(ds))
	p1 := p0.Add(g.UV.Size().Scale(scale).Div(ds))
	return geom.Rect{P0: p0.Min(p1), P1: p0.Max(p1)}
}

func (k *textBrush) segment(i int) (geom.Rect, vertex.EdgeMask) {
	return k.glyphs[i].rect, vertex.AllEdges
}

func (k *textBrush) varyings() int { return 0 }

func (k *textBrush) vertex(int, *vertex.Input, *vertex.Result, *raster.Varyings) {}

func (k *textBrush) fragment(s *shading, out *raster.Output) bool {
	st := &k.glyphs[s.f.Instance]
	atlas := k.b.res.Glyphs
	if atlas == nil || st.rect.Empty() {
		return false
	}
	t := st.rect.Normalize(s.local)
	uv := clampUV(st.glyph.UV.Lerp(t), st.glyph.UV)
	texel := atlas.Sample(uv, st.glyph.Layer)

	mask := texel
	if atlas.IsAlpha() {
		mask = geom.Splat4(texel.X)
	}
	c := st.color
	switch st.mode {
	case GlyphBitmap:
		out.Color = texel.Scale(c.W)
	case GlyphSubpixel:
		if k.b.prog.has(DualSource) {
			out.Color = c.Mul(mask)
			out.Blend = mask.Scale(c.W)
			return true
		}
		out.Color = c.Scale((mask.X + mask.Y + mask.Z) / 3)
	case GlyphSubpixelBackground:
		bg := st.background
		m := max(mask.X, mask.Y, mask.Z)
		out.Color = geom.V4(
			geom.Mix(bg.X, c.X, mask.X),
			geom.Mix(bg.Y, c.Y, mask.Y),
			geom.Mix(bg.Z, c.Z, mask.Z),
			geom.Mix(bg.W, c.W, m),
		).Scale(m)
	default:
		out.Color = c.Scale(maskValue(atlas, texel))
	}
	if k.b.prog.has(DualSource) {
		out.Blend = geom.Splat4(out.Color.W)
	}
	return true
}
