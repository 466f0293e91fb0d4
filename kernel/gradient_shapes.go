package kernel

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
)

// LinearGradient is a gradient along the line from Start to End. Points
// are relative to the primitive origin.
type LinearGradient struct {
	Start, End geom.Vec2
	Repeat     bool

	// Stretch is the size of one tile of the gradient. Zero disables
	// tiling.
	Stretch geom.Vec2
}

// Encode returns the header texels followed by the color table.
func (g LinearGradient) Encode(lut *LUT) []geom.Vec4 {
	return withLUT([VecsPerGradient]geom.Vec4{
		{X: g.Start.X, Y: g.Start.Y, Z: g.End.X, W: g.End.Y},
		{X: boolFlag(g.Repeat), Y: g.Stretch.X, Z: g.Stretch.Y},
	}, lut)
}

// RadialGradient is a gradient between two concentric circles. RatioY
// scales the vertical axis, making the circles ellipses.
type RadialGradient struct {
	Center                 geom.Vec2
	StartRadius, EndRadius float32
	RatioY                 float32
	Repeat                 bool
	Stretch                geom.Vec2
}

// Encode returns the header texels followed by the color table.
func (g RadialGradient) Encode(lut *LUT) []geom.Vec4 {
	ratio := g.RatioY
	if ratio == 0 {
		ratio = 1
	}
	return withLUT([VecsPerGradient]geom.Vec4{
		{X: g.Center.X, Y: g.Center.Y, Z: g.StartRadius, W: g.EndRadius},
		{X: ratio, Y: boolFlag(g.Repeat), Z: g.Stretch.X, W: g.Stretch.Y},
	}, lut)
}

// ConicGradient sweeps clockwise around Center starting at Angle, in
// radians from the upward direction. StartOffset and EndOffset select the
// part of the turn the stops span.
type ConicGradient struct {
	Center                 geom.Vec2
	Angle                  float32
	StartOffset, EndOffset float32
	Repeat                 bool
}

// Encode returns the header texels followed by the color table.
func (g ConicGradient) Encode(lut *LUT) []geom.Vec4 {
	return withLUT([VecsPerGradient]geom.Vec4{
		{X: g.Center.X, Y: g.Center.Y, Z: g.Angle},
		{X: g.StartOffset, Y: g.EndOffset, Z: boolFlag(g.Repeat)},
	}, lut)
}

func withLUT(header [VecsPerGradient]geom.Vec4, lut *LUT) []geom.Vec4 {
	d := make([]geom.Vec4, 0, VecsPerGradient+VecsPerLUT)
	d = append(d, header[:]...)
	if lut == nil {
		lut = &LUT{}
	}
	return append(d, lut[:]...)
}

type linearShape struct{}

func (linearShape) decode(d []geom.Vec4) gradientParams {
	return gradientParams{
		a:       d[0],
		repeat:  d[1].X != 0,
		stretch: geom.V2(d[1].Y, d[1].Z),
	}
}

func (linearShape) offset(g *gradientParams, p geom.Vec2) (float32, bool) {
	start, end := g.a.XY(), g.a.ZW()
	dir := end.Sub(start)
	dd := dir.Dot(dir)
	if dd == 0 {
		return 0, true
	}
	return p.Sub(start).Dot(dir) / dd, true
}

type radialShape struct{}

func (radialShape) decode(d []geom.Vec4) gradientParams {
	return gradientParams{
		a:       d[0],
		b:       d[1],
		repeat:  d[1].Y != 0,
		stretch: geom.V2(d[1].Z, d[1].W),
	}
}

// offset solves length(pd) = r0 + t*(r1 - r0) for t, preferring the
// larger root whose radius is not negative.
func (radialShape) offset(g *gradientParams, p geom.Vec2) (float32, bool) {
	center := g.a.XY()
	r0, r1 := g.a.Z, g.a.W
	pd := p.Sub(center)
	pd.Y *= g.b.X
	rd := r1 - r0

	a := -(rd * rd)
	b := r0 * rd
	c := pd.Dot(pd) - r0*r0
	if a == 0 {
		if b == 0 {
			return geom.Step(r0, pd.Len()), true
		}
		t := 0.5 * c / b
		return t, r0+rd*t >= 0
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	disc = math32.Sqrt(disc)
	hi := (b + disc) / a
	lo := (b - disc) / a
	if hi < lo {
		hi, lo = lo, hi
	}
	switch {
	case r0+rd*hi >= 0:
		return hi, true
	case r0+rd*lo >= 0:
		return lo, true
	}
	return 0, false
}

type conicShape struct{}

func (conicShape) decode(d []geom.Vec4) gradientParams {
	return gradientParams{
		a:      d[0],
		b:      d[1],
		repeat: d[1].Z != 0,
	}
}

func (conicShape) offset(g *gradientParams, p geom.Vec2) (float32, bool) {
	d := p.Sub(g.a.XY())
	angle := math32.Atan2(d.Y, d.X) + math32.Pi/2 - g.a.Z
	turn := geom.Fract(angle / (2 * math32.Pi))
	start, end := g.b.X, g.b.Y
	if span := end - start; math32.Abs(span) > 1e-6 {
		return (turn - start) / span, true
	}
	return geom.Step(start, turn), true
}
