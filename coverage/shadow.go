package coverage

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/compositor/geom"
)

// BlurExtent is how many standard deviations a blurred edge spreads.
const BlurExtent = 3

// Erf approximates the error function with the rational polynomial
//
//	s - s/(1 + (0.278393 + (0.230389 + 0.078108*a*a)*a)*a)^4
//
// where s is the sign of x and a = |x| (Abramowitz and Stegun 7.1.27).
func Erf(x float32) float32 {
	s := float32(1)
	if x < 0 {
		s = -1
	}
	a := math32.Abs(x)
	v := 1 + (0.278393+(0.230389+0.078108*a*a)*a)*a
	v *= v
	return s - s/(v*v)
}

// Gaussian is the normal density with standard deviation sigma.
func Gaussian(x, sigma float32) float32 {
	return math32.Exp(-(x*x)/(2*sigma*sigma)) / (math32.Sqrt(2*math32.Pi) * sigma)
}

// RoundedBoxShadowX integrates the blurred mask of a rounded box along x
// at height y, relative to the box center.
func RoundedBoxShadowX(x, y, sigma, corner float32, halfSize geom.Vec2) float32 {
	delta := min(halfSize.Y-corner-math32.Abs(y), 0)
	curved := halfSize.X - corner + math32.Sqrt(max(0, corner*corner-delta*delta))
	k := math32.Sqrt(0.5) / sigma
	lo := 0.5 + 0.5*Erf((x-curved)*k)
	hi := 0.5 + 0.5*Erf((x+curved)*k)
	return hi - lo
}

// shadowSteps is the number of samples integrated along y.
const shadowSteps = 4

// BoxShadow returns the brightness of a Gaussian-blurred rounded box at
// point. The y integral is approximated with four samples over the
// support of the kernel; the x integral is closed form. A zero sigma
// falls back to the hard rounded-box coverage.
func BoxShadow(box geom.Rect, point geom.Vec2, sigma, corner float32) float32 {
	if sigma <= 0 {
		d := SignedDistanceRoundedRect(point, box, Uniform(corner))
		if d < 0 {
			return 1
		}
		return 0
	}
	center := box.Center()
	halfSize := box.Size().Scale(0.5)
	p := point.Sub(center)

	low := p.Y - halfSize.Y
	high := p.Y + halfSize.Y
	start := geom.Clamp(-BlurExtent*sigma, low, high)
	end := geom.Clamp(BlurExtent*sigma, low, high)

	step := (end - start) / shadowSteps
	y := start + step*0.5
	var value float32
	for range shadowSteps {
		value += RoundedBoxShadowX(p.X, p.Y-y, sigma, corner, halfSize) * Gaussian(y, sigma) * step
		y += step
	}
	return value
}
