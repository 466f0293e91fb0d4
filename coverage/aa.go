// Package coverage holds the analytic distance and antialiasing math
// shared by all coverage kernels.
//
// Signed distances are negative inside a shape and positive outside.
// Coverage is the fraction of a unit pixel covered, in [0, 1].
package coverage

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/compositor/geom"
)

// AAScale converts the screen-space derivative of a position into an
// antialiasing range, 0.5/sqrt(2). A sample at least half a pixel inside
// an edge is then fully covered.
const AAScale = 0.35355

// epsilon widens the saturated ends of the coverage curve.
const epsilon = 0.0001

// AARange returns the antialiasing range for a position whose
// per-component fwidth over the 2x2 neighborhood is fw.
func AARange(fw geom.Vec2) float32 {
	return AAScale * fw.Len()
}

// DistanceToCoverage maps a signed distance to pixel coverage.
//
// Distances at or below -aaRange give 1 and distances at or above
// aaRange give 0. In between the curve is the cubic
//
//	0.5 + t*(0.8431027*t*t - 1.14453603), t = 0.5*d/aaRange
//
// which is a least-squares fit of the area of a unit square cut by a line
// at distance d (error at most 3.53%). A non-positive range degrades to a
// hard step.
func DistanceToCoverage(aaRange, d float32) float32 {
	if !(aaRange > 0) {
		if d < 0 {
			return 1
		}
		return 0
	}
	t := 0.5 * d / aaRange
	if t <= -0.5+epsilon {
		return 1
	}
	if t >= 0.5-epsilon {
		return 0
	}
	return 0.5 + t*(0.8431027*t*t-1.14453603)
}

// SignedDistanceRect returns the signed distance from p to the box
// [p0, p1]: the Euclidean distance outside plus the (negative) interior
// depth.
func SignedDistanceRect(p, p0, p1 geom.Vec2) float32 {
	d := p0.Sub(p).Max(p.Sub(p1))
	return d.Max(geom.Vec2{}).Len() + min(0, d.MaxComponent())
}

// Corners holds per-corner ellipse radii in the order top-left,
// top-right, bottom-right, bottom-left.
type Corners [4]geom.Vec2

// Uniform returns corners with the same circular radius.
func Uniform(r float32) Corners {
	v := geom.Splat2(r)
	return Corners{v, v, v, v}
}

// CornerCenters returns the ellipse centers of each rounded corner of r.
func (c Corners) CornerCenters(r geom.Rect) [4]geom.Vec2 {
	return [4]geom.Vec2{
		r.P0.Add(c[0]),
		{X: r.P1.X - c[1].X, Y: r.P0.Y + c[1].Y},
		r.P1.Sub(c[2]),
		{X: r.P0.X + c[3].X, Y: r.P1.Y - c[3].Y},
	}
}

// SignedDistanceRoundedRect returns the signed distance from p to a
// rect with elliptical corners. Points in a corner's quadrant beyond the
// ellipse center measure against the ellipse.
func SignedDistanceRoundedRect(p geom.Vec2, r geom.Rect, radii Corners) float32 {
	centers := radii.CornerCenters(r)
	dirs := [4]geom.Vec2{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	for i, c := range centers {
		rad := radii[i]
		if rad.X <= 0 || rad.Y <= 0 {
			continue
		}
		q := p.Sub(c).Mul(dirs[i])
		if q.X > 0 && q.Y > 0 {
			return SignedDistanceEllipse(q, rad)
		}
	}
	return SignedDistanceRect(p, r.P0, r.P1)
}

// Intersect combines the signed distances of several clip shapes into
// the distance to the intersection of their insides.
func Intersect(distances ...float32) float32 {
	d := float32(-math32.MaxFloat32)
	for _, v := range distances {
		d = max(d, v)
	}
	return d
}
