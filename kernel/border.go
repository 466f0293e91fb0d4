package kernel

import (
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// VecsPerBorder is the texel count of a border record.
const VecsPerBorder = 8

// BorderStyle is the style of one border side.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderSolid
	BorderDouble
	BorderDotted
	BorderDashed
	BorderHidden
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

var borderStyleNames = [...]string{"none", "solid", "double", "dotted", "dashed", "hidden", "groove", "ridge", "inset", "outset"}

func (s BorderStyle) String() string {
	if int(s) < len(borderStyleNames) {
		return borderStyleNames[s]
	}
	return "unknown"
}

// ParseBorderStyle returns the style with the given CSS name.
func ParseBorderStyle(name string) (BorderStyle, bool) {
	for i, n := range borderStyleNames {
		if n == name {
			return BorderStyle(i), true
		}
	}
	return 0, false
}

// Border sides, in record order.
const (
	SideLeft = iota
	SideTop
	SideRight
	SideBottom
)

// BorderSide is one side of a border.
type BorderSide struct {
	Style BorderStyle
	Width float32

	// Color is premultiplied.
	Color geom.Vec4
}

func (s BorderSide) visible() bool {
	return s.Width > 0 && s.Color.W > 0 && s.Style != BorderNone && s.Style != BorderHidden
}

// Border is a border record. The primitive rect is the outer edge of the
// border.
type Border struct {
	// Sides are left, top, right and bottom.
	Sides [4]BorderSide

	// Radii are the outer corner radii.
	Radii coverage.Corners
}

// Encode returns the record texels.
func (b Border) Encode() [VecsPerBorder]geom.Vec4 {
	s := &b.Sides
	return [VecsPerBorder]geom.Vec4{
		{X: float32(s[0].Style), Y: float32(s[1].Style), Z: float32(s[2].Style), W: float32(s[3].Style)},
		{X: s[0].Width, Y: s[1].Width, Z: s[2].Width, W: s[3].Width},
		s[0].Color,
		s[1].Color,
		s[2].Color,
		s[3].Color,
		{X: b.Radii[0].X, Y: b.Radii[0].Y, Z: b.Radii[1].X, W: b.Radii[1].Y},
		{X: b.Radii[2].X, Y: b.Radii[2].Y, Z: b.Radii[3].X, W: b.Radii[3].Y},
	}
}

// DecodeBorder reads a border record.
func DecodeBorder(d []geom.Vec4) Border {
	var b Border
	styles := [4]float32{d[0].X, d[0].Y, d[0].Z, d[0].W}
	widths := [4]float32{d[1].X, d[1].Y, d[1].Z, d[1].W}
	for i := range b.Sides {
		b.Sides[i] = BorderSide{Style: BorderStyle(styles[i]), Width: widths[i], Color: d[2+i]}
	}
	b.Radii = coverage.Corners{d[6].XY(), d[6].ZW(), d[7].XY(), d[7].ZW()}
	return b
}

// Segment is one of the eight pieces a border is drawn in. It is carried
// in the first user data word of the instance.
type Segment int32

const (
	SegmentTopLeft Segment = iota
	SegmentTopRight
	SegmentBottomRight
	SegmentBottomLeft
	SegmentLeft
	SegmentTop
	SegmentRight
	SegmentBottom
)

// IsCorner reports whether s is drawn by the corner kernel.
func (s Segment) IsCorner() bool {
	return s >= SegmentTopLeft && s <= SegmentBottomLeft
}

// cornerSides are the sides meeting at each corner. The first side runs
// from the corner along cornerAlong.
var cornerSides = [4][2]int{
	{SideLeft, SideTop},
	{SideTop, SideRight},
	{SideRight, SideBottom},
	{SideBottom, SideLeft},
}

// cornerAlong is the direction of the first side of each corner, away
// from the corner point.
var cornerAlong = [4]geom.Vec2{{X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1}, {X: 1, Y: 0}}

// cornerInward points from each corner into the rect.
var cornerInward = [4]geom.Vec2{{X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}}

// Segments lists the segments that draw anything. A corner is skipped
// when either side has no width or is invisible in style, or when both
// sides are transparent.
func (b Border) Segments() []Segment {
	var segs []Segment
	for c, sides := range cornerSides {
		s0, s1 := b.Sides[sides[0]], b.Sides[sides[1]]
		if s0.Width == 0 || s1.Width == 0 || (s0.Color.W == 0 && s1.Color.W == 0) {
			continue
		}
		if !styleVisible(s0.Style) || !styleVisible(s1.Style) {
			continue
		}
		segs = append(segs, Segment(c))
	}
	for side := range b.Sides {
		if b.Sides[side].visible() {
			segs = append(segs, SegmentLeft+Segment(side))
		}
	}
	return segs
}

func styleVisible(s BorderStyle) bool {
	return s != BorderNone && s != BorderHidden
}

func (b *Border) widths() [4]float32 {
	return [4]float32{b.Sides[0].Width, b.Sides[1].Width, b.Sides[2].Width, b.Sides[3].Width}
}

// cornerSizes returns the extent of each corner segment: the radius, but
// at least the widths of the adjoining sides.
func (b *Border) cornerSizes() [4]geom.Vec2 {
	w := b.widths()
	return [4]geom.Vec2{
		b.Radii[0].Max(geom.V2(w[SideLeft], w[SideTop])),
		b.Radii[1].Max(geom.V2(w[SideRight], w[SideTop])),
		b.Radii[2].Max(geom.V2(w[SideRight], w[SideBottom])),
		b.Radii[3].Max(geom.V2(w[SideLeft], w[SideBottom])),
	}
}

// innerRadii returns the radii of the inner edge of the border.
func (b *Border) innerRadii() coverage.Corners {
	w := b.widths()
	sub := [4]geom.Vec2{
		{X: w[SideLeft], Y: w[SideTop]},
		{X: w[SideRight], Y: w[SideTop]},
		{X: w[SideRight], Y: w[SideBottom]},
		{X: w[SideLeft], Y: w[SideBottom]},
	}
	var r coverage.Corners
	for i := range r {
		r[i] = b.Radii[i].Sub(sub[i]).Max(geom.Vec2{})
	}
	return r
}

// SegmentRect returns the local rect of segment s within the outer rect.
func (b *Border) SegmentRect(outer geom.Rect, s Segment) geom.Rect {
	w := b.widths()
	c := b.cornerSizes()
	p0, p1 := outer.P0, outer.P1
	var r geom.Rect
	switch s {
	case SegmentTopLeft:
		r = geom.Rect{P0: p0, P1: p0.Add(c[0])}
	case SegmentTopRight:
		r = geom.Rect{P0: geom.V2(p1.X-c[1].X, p0.Y), P1: geom.V2(p1.X, p0.Y+c[1].Y)}
	case SegmentBottomRight:
		r = geom.Rect{P0: p1.Sub(c[2]), P1: p1}
	case SegmentBottomLeft:
		r = geom.Rect{P0: geom.V2(p0.X, p1.Y-c[3].Y), P1: geom.V2(p0.X+c[3].X, p1.Y)}
	case SegmentLeft:
		r = geom.Rect{P0: geom.V2(p0.X, p0.Y+c[0].Y), P1: geom.V2(p0.X+w[SideLeft], p1.Y-c[3].Y)}
	case SegmentTop:
		r = geom.Rect{P0: geom.V2(p0.X+c[0].X, p0.Y), P1: geom.V2(p1.X-c[1].X, p0.Y+w[SideTop])}
	case SegmentRight:
		r = geom.Rect{P0: geom.V2(p1.X-w[SideRight], p0.Y+c[1].Y), P1: geom.V2(p1.X, p1.Y-c[2].Y)}
	case SegmentBottom:
		r = geom.Rect{P0: geom.V2(p0.X+c[3].X, p1.Y-w[SideBottom]), P1: geom.V2(p1.X-c[2].X, p1.Y)}
	default:
		return geom.Rect{P0: p0, P1: p0}
	}
	r.P1 = r.P1.Max(r.P0)
	return r
}

// segmentEdges are the antialiased edges of each segment: the outer
// border edge and the inner edge of side segments. Seams between
// segments stay hard.
var segmentEdges = [8]vertex.EdgeMask{
	{true, true, false, false},
	{false, true, true, false},
	{false, false, true, true},
	{true, false, false, true},
	{true, false, true, false},
	{false, true, false, true},
	{true, false, true, false},
	{false, true, false, true},
}

// Dash and dot periods in multiples of the side width.
const (
	dashInterval = 6
	dotInterval  = 2
)

type borderState struct {
	border  Border
	segment Segment
	rect    geom.Rect
	inner   geom.Rect
	iradii  coverage.Corners
}

type borderBrush struct {
	corners bool
	states  []borderState
}

func (k *borderBrush) prepare(b *brush) {
	k.states = make([]borderState, len(b.prims))
	for i := range b.prims {
		p := &b.prims[i]
		st := &k.states[i]
		st.border = DecodeBorder(b.res.Tables.Cache.FetchN(p.DataAddress(), VecsPerBorder))
		st.segment = Segment(p.Header.UserData[0])
		w := st.border.widths()
		outer := p.LocalRect
		st.inner = geom.Rect{
			P0: outer.P0.Add(geom.V2(w[SideLeft], w[SideTop])),
			P1: outer.P1.Sub(geom.V2(w[SideRight], w[SideBottom])),
		}
		st.iradii = st.border.innerRadii()
		if st.segment.IsCorner() == k.corners {
			st.rect = st.border.SegmentRect(outer, st.segment)
		} else {
			st.rect = geom.Rect{P0: outer.P0, P1: outer.P0}
		}
	}
}

func (k *borderBrush) segment(i int) (geom.Rect, vertex.EdgeMask) {
	st := &k.states[i]
	edges := vertex.AllEdges
	if st.segment >= 0 && int(st.segment) < len(segmentEdges) {
		edges = segmentEdges[st.segment]
	}
	return st.rect, edges
}

func (k *borderBrush) varyings() int { return 0 }

func (k *borderBrush) vertex(int, *vertex.Input, *vertex.Result, *raster.Varyings) {}

func (k *borderBrush) fragment(s *shading, out *raster.Output) bool {
	st := &k.states[s.f.Instance]
	outer := s.primitive().LocalRect
	p := s.local

	dOuter := coverage.SignedDistanceRoundedRect(p, outer, st.border.Radii)
	dInner := coverage.SignedDistanceRoundedRect(p, st.inner, st.iradii)
	ring := s.alpha(max(dOuter, -dInner))
	if ring <= 0 {
		return false
	}

	var c geom.Vec4
	if st.segment.IsCorner() {
		c = k.corner(s, st, outer, -dOuter)
	} else {
		side := int(st.segment - SegmentLeft)
		var across, along float32
		switch side {
		case SideLeft:
			across, along = p.X-outer.P0.X, p.Y-st.rect.P0.Y
		case SideTop:
			across, along = p.Y-outer.P0.Y, p.X-st.rect.P0.X
		case SideRight:
			across, along = outer.P1.X-p.X, p.Y-st.rect.P0.Y
		default:
			across, along = outer.P1.Y-p.Y, p.X-st.rect.P0.X
		}
		size := st.rect.Size()
		length := size.Y
		if side == SideTop || side == SideBottom {
			length = size.X
		}
		c = k.side(s, &st.border, side, across, along, length)
	}
	out.Color = c.Scale(ring)
	return true
}

// corner mixes the colors of the two sides meeting at a corner across
// the line from the outer corner point to the inner one.
func (k *borderBrush) corner(s *shading, st *borderState, outer geom.Rect, across float32) geom.Vec4 {
	ci := int(st.segment)
	sides := cornerSides[ci]
	w := st.border.widths()
	o := [4]geom.Vec2{outer.P0, {X: outer.P1.X, Y: outer.P0.Y}, outer.P1, {X: outer.P0.X, Y: outer.P1.Y}}[ci]
	wv := w[SideLeft]
	if ci == 1 || ci == 2 {
		wv = w[SideRight]
	}
	wh := w[SideTop]
	if ci >= 2 {
		wh = w[SideBottom]
	}
	dir := cornerInward[ci].Mul(geom.V2(wv, wh))

	t0 := float32(0.5)
	if l := dir.Len(); l > 0 {
		n := geom.V2(dir.Y, -dir.X).Scale(1 / l)
		d := s.local.Sub(o).Dot(n)
		if cornerAlong[ci].Dot(n) > 0 {
			d = -d
		}
		t0 = s.alpha(d)
	}

	var c [2]geom.Vec4
	for j, side := range sides {
		if j == 0 && t0 <= 0 || j == 1 && t0 >= 1 {
			continue
		}
		if st.border.Sides[side].Style == BorderDotted {
			c[j] = k.cornerDot(s, st, ci, o, side)
			continue
		}
		c[j] = k.side(s, &st.border, side, across, 0, 0)
	}
	return c[1].Lerp(c[0], t0)
}

// cornerDot draws the single dot of a dotted side that falls in a
// corner, centered on the middle of the border ring.
func (k *borderBrush) cornerDot(s *shading, st *borderState, ci int, o geom.Vec2, side int) geom.Vec4 {
	bs := st.border.Sides[side]
	r := st.border.Radii[ci]
	in := cornerInward[ci]
	var center geom.Vec2
	if r.X <= 0 || r.Y <= 0 {
		center = o.Add(in.Scale(bs.Width * 0.5))
	} else {
		mid := r.Sub(geom.Splat2(bs.Width * 0.5)).Max(geom.Vec2{})
		ec := o.Add(in.Mul(r))
		center = ec.Sub(in.Mul(mid).Scale(0.70710677))
	}
	d := s.local.Sub(center).Len() - bs.Width*0.5
	return bs.Color.Scale(s.alpha(d))
}

// side returns the premultiplied color of one side at a point across
// units inside the outer edge and along units from the segment start.
// A zero length marks a corner, where dashes render solid.
func (k *borderBrush) side(s *shading, b *Border, side int, across, along, length float32) geom.Vec4 {
	bs := b.Sides[side]
	c := bs.Color
	w := bs.Width
	if w <= 0 {
		return geom.Vec4{}
	}
	switch bs.Style {
	case BorderNone, BorderHidden:
		return geom.Vec4{}
	case BorderDouble:
		if w < coverage.MinDoubleWidth {
			return c
		}
		bands := coverage.SplitDouble(w)
		gap := max(bands.Outer-across, across-(w-bands.Inner))
		return c.Scale(1 - s.alpha(gap))
	case BorderDashed:
		if length <= 0 {
			return c
		}
		l := coverage.LayoutDashes(length, dashInterval*w)
		return c.Scale(s.alpha(l.DashDistance(along)))
	case BorderDotted:
		if length <= 0 {
			return c
		}
		l := coverage.LayoutDashes(length, dotInterval*w)
		return c.Scale(s.alpha(l.DotDistance(geom.V2(along, across-w*0.5))))
	case BorderGroove, BorderRidge:
		outer, inner := grooveColors(c, side, bs.Style == BorderRidge)
		t := s.alpha(across - coverage.SplitGroove(w))
		return inner.Lerp(outer, t)
	case BorderInset, BorderOutset:
		dark := side == SideLeft || side == SideTop
		if bs.Style == BorderOutset {
			dark = !dark
		}
		if dark {
			return shade(c, 2.0/3, 0.3)
		}
		return shade(c, 1, 0.7)
	}
	return c
}

// grooveColors returns the outer and inner colors of a groove or ridge
// side. Bottom and right sides swap them so the border reads as carved
// or raised.
func grooveColors(c geom.Vec4, side int, ridge bool) (outer, inner geom.Vec4) {
	if ridge {
		outer, inner = shade(c, 1, 0.7), shade(c, 2.0/3, 0.3)
	} else {
		outer, inner = shade(c, 1.0/3, 0.3), shade(c, 1, 0.7)
	}
	if side == SideRight || side == SideBottom {
		outer, inner = inner, outer
	}
	return outer, inner
}

// shade scales the color channels of premultiplied c by f. Black has
// nothing to scale and becomes the grey level black instead.
func shade(c geom.Vec4, f, black float32) geom.Vec4 {
	if c.X == 0 && c.Y == 0 && c.Z == 0 {
		g := black * c.W
		return geom.V4(g, g, g, c.W)
	}
	return geom.V4(c.X*f, c.Y*f, c.Z*f, c.W)
}
