package kernel

import (
	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// Interpolated varyings shared by all brushes. Kind-specific varyings
// start at vUser.
const (
	vMaskPos = 0
	vLocal   = 2 // x, y, w
	vUser    = 5
)

// brushImpl is the kind-specific half of a brush.
type brushImpl interface {
	// prepare decodes the kind records of every primitive.
	prepare(b *brush)

	// varyings is the number of kind-specific varyings.
	varyings() int

	// vertex writes the kind-specific varyings of one corner.
	vertex(i int, in *vertex.Input, r *vertex.Result, v *raster.Varyings)

	// fragment shades one pixel. Returning false discards it.
	fragment(s *shading, out *raster.Output) bool
}

// segmenter is implemented by brushes that emit a rect other than the
// primitive rect, such as one border segment or one glyph.
type segmenter interface {
	segment(i int) (geom.Rect, vertex.EdgeMask)
}

// brush runs the shared vertex and fragment stages around a brushImpl.
type brush struct {
	prog  *Program
	res   *Resources
	prims []prim.Primitive

	// bounds is the rect coverage is measured against, per instance.
	bounds []geom.Rect

	impl brushImpl
}

func newBrush(p *Program, res *Resources, instances []prim.Instance) *brush {
	b := &brush{
		prog:   p,
		res:    res,
		prims:  make([]prim.Primitive, len(instances)),
		bounds: make([]geom.Rect, len(instances)),
		impl:   newBrushImpl(p),
	}
	for i, inst := range instances {
		b.prims[i] = prim.Decode(res.Tables, inst)
	}
	b.impl.prepare(b)
	for i := range b.prims {
		in, edges := b.input(i, geom.Vec2{})
		b.bounds[i] = vertex.LocalBounds(in, edges)
	}
	return b
}

func newBrushImpl(p *Program) brushImpl {
	switch p.kind {
	case KindSolid:
		return &solidBrush{}
	case KindImage:
		return &imageBrush{}
	case KindLinearGradient:
		return &gradientBrush{shape: linearShape{}}
	case KindRadialGradient:
		return &gradientBrush{shape: radialShape{}}
	case KindConicGradient:
		return &gradientBrush{shape: conicShape{}}
	case KindBorderCorner:
		return &borderBrush{corners: true}
	case KindBorderEdge:
		return &borderBrush{}
	case KindTextRun:
		return &textBrush{}
	case KindBoxShadow:
		return &boxShadowBrush{}
	case KindMixBlend:
		return &mixBlendBrush{}
	case KindFilter:
		return &filterBrush{}
	}
	panic("kernel: no brush for " + p.kind.String())
}

func (b *brush) input(i int, corner geom.Vec2) (vertex.Input, vertex.EdgeMask) {
	p := &b.prims[i]
	in := vertex.FromPrimitive(p, corner, b.res.dpr())
	edges := vertex.AllEdges
	if s, ok := b.impl.(segmenter); ok {
		in.LocalRect, edges = s.segment(i)
		in.SnapRect = in.LocalRect
	}
	return in, edges
}

func (b *brush) Layout() raster.Layout {
	return raster.Layout{Count: vUser + b.impl.varyings()}
}

func (b *brush) Vertex(i int, corner geom.Vec2, out *raster.Vertex) {
	in, edges := b.input(i, corner)
	r := vertex.Write(in, b.prog.has(Transform), edges)
	out.Position = r.Device
	v := &out.Varyings
	v.SetVec2(vMaskPos, clipmask.MaskPos(b.prims[i].ClipArea, r.Global))
	v[vLocal], v[vLocal+1], v[vLocal+2] = r.Local.X, r.Local.Y, r.Local.Z
	b.impl.vertex(i, &in, &r, v)
}

func (b *brush) Fragment(f *raster.Fragment, out *raster.Output) bool {
	s := shading{f: f, brush: b, local: localPos(f.In)}
	if !b.impl.fragment(&s, out) {
		return false
	}
	a := float32(1)
	if b.prog.has(Transform) {
		r := b.bounds[f.Instance]
		a = clipmask.Combine(s.aaRange(), coverage.SignedDistanceRect(s.local, r.P0, r.P1))
	}
	if b.prog.has(AlphaPass) {
		a = clipmask.Multiply(a, clipmask.Evaluate(b.res.ClipMask, b.prims[f.Instance].ClipArea, f.In.Vec2(vMaskPos)))
	}
	if a != 1 {
		out.Color = out.Color.Scale(a)
		out.Blend = out.Blend.Scale(a)
	}
	return true
}

func localPos(v *raster.Varyings) geom.Vec2 {
	return v.Vec2(vLocal).Scale(1 / v[vLocal+2])
}

// shading is the per-fragment state handed to a brushImpl.
type shading struct {
	f     *raster.Fragment
	brush *brush
	local geom.Vec2

	aa    float32
	aaSet bool
}

func (s *shading) primitive() *prim.Primitive {
	return &s.brush.prims[s.f.Instance]
}

// aaRange is the antialiasing range of the local position.
func (s *shading) aaRange() float32 {
	if !s.aaSet {
		s.aa = coverage.AARange(s.f.Fwidth(localPos))
		s.aaSet = true
	}
	return s.aa
}

// alpha converts a signed local distance into coverage.
func (s *shading) alpha(d float32) float32 {
	return coverage.DistanceToCoverage(s.aaRange(), d)
}
