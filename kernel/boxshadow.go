package kernel

import (
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// VecsPerBoxShadow is the texel count of a box shadow record.
const VecsPerBoxShadow = 5

// shadowCornerPadding pads the drawn rect of an outset shadow beyond
// the blur region.
const shadowCornerPadding = 4

// BoxShadow is the blurred shadow of a rounded box.
type BoxShadow struct {
	// Color is premultiplied.
	Color geom.Vec4

	// Box is the shadow-casting box before spread, in local space.
	Box geom.Rect

	// Radii are the corner radii tl, tr, br, bl of Box.
	Radii [4]float32

	Sigma  float32
	Spread float32
	Inset  bool

	// Clip is the element rect. Outset shadows are not drawn inside it
	// and inset shadows are not drawn outside it. An empty Clip
	// disables clipping.
	Clip geom.Rect
}

// Encode returns the record texels.
func (b BoxShadow) Encode() [VecsPerBoxShadow]geom.Vec4 {
	return [VecsPerBoxShadow]geom.Vec4{
		b.Color,
		b.Box.Texel(),
		{X: b.Radii[0], Y: b.Radii[1], Z: b.Radii[2], W: b.Radii[3]},
		{X: b.Sigma, Y: b.Spread, Z: boolFlag(b.Inset)},
		b.Clip.Texel(),
	}
}

// DecodeBoxShadow reads a box shadow record.
func DecodeBoxShadow(d []geom.Vec4) BoxShadow {
	return BoxShadow{
		Color:  d[0],
		Box:    geom.RectFromTexel(d[1]),
		Radii:  [4]float32{d[2].X, d[2].Y, d[2].Z, d[2].W},
		Sigma:  d[3].X,
		Spread: d[3].Y,
		Inset:  d[3].Z != 0,
		Clip:   geom.RectFromTexel(d[4]),
	}
}

// Bounds returns the local rect a primitive must cover to draw the
// whole shadow.
func (b BoxShadow) Bounds() geom.Rect {
	if b.Inset && !b.Clip.Empty() {
		return b.Clip
	}
	pad := b.Spread + coverage.BlurExtent*b.Sigma + shadowCornerPadding
	return b.Box.Inflate(geom.Splat2(pad))
}

// shadowBox returns the box after spread and the radius of the corner
// quadrant containing p.
func (b *BoxShadow) shadowBox(p geom.Vec2) (geom.Rect, float32) {
	spread := b.Spread
	if b.Inset {
		spread = -spread
	}
	box := b.Box.Inflate(geom.Splat2(spread))
	if box.Empty() {
		c := box.Center()
		box = geom.Rect{P0: c, P1: c}
	}
	c := b.Box.Center()
	var r float32
	switch {
	case p.X < c.X && p.Y < c.Y:
		r = b.Radii[0]
	case p.Y < c.Y:
		r = b.Radii[1]
	case p.X >= c.X:
		r = b.Radii[2]
	default:
		r = b.Radii[3]
	}
	if r > 0 {
		r = max(r+spread, 0)
	}
	r = min(r, box.Size().MinComponent()*0.5)
	return box, r
}

func (b *BoxShadow) clipRadii() coverage.Corners {
	return coverage.Corners{
		geom.Splat2(b.Radii[0]),
		geom.Splat2(b.Radii[1]),
		geom.Splat2(b.Radii[2]),
		geom.Splat2(b.Radii[3]),
	}
}

type boxShadowBrush struct {
	shadows []BoxShadow
}

func (k *boxShadowBrush) prepare(b *brush) {
	k.shadows = make([]BoxShadow, len(b.prims))
	for i := range b.prims {
		k.shadows[i] = DecodeBoxShadow(b.res.Tables.Cache.FetchN(b.prims[i].DataAddress(), VecsPerBoxShadow))
	}
}

func (k *boxShadowBrush) varyings() int { return 0 }

func (k *boxShadowBrush) vertex(int, *vertex.Input, *vertex.Result, *raster.Varyings) {}

func (k *boxShadowBrush) fragment(s *shading, out *raster.Output) bool {
	sh := &k.shadows[s.f.Instance]
	box, r := sh.shadowBox(s.local)
	a := coverage.BoxShadow(box, s.local, sh.Sigma, r)
	if sh.Inset {
		a = 1 - a
	}
	if !sh.Clip.Empty() {
		inside := s.alpha(coverage.SignedDistanceRoundedRect(s.local, sh.Clip, sh.clipRadii()))
		if sh.Inset {
			a *= inside
		} else {
			a *= 1 - inside
		}
	}
	if a <= 0 {
		return false
	}
	out.Color = sh.Color.Scale(a)
	return true
}
