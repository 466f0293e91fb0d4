// Package blend implements the separable and non-separable mix-blend
// modes of the compositing model on premultiplied float colors.
//
// Mix returns the source layer recolored by a mode. Compositing the
// result over the backdrop with premultiplied source-over yields the
// standard formula
//
//	(1 - Sa)*D + (1 - Da)*S + Sa*Da*B(Cb, Cs)
//
// References:
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
)

// Mode is a mix-blend mode. The numbering matches the mode field of
// mix-blend primitive records.
type Mode uint8

const (
	Normal Mode = iota
	Multiply
	Screen
	Overlay
	Darken
	Lighten
	ColorDodge
	ColorBurn
	HardLight
	SoftLight
	Difference
	Exclusion
	Hue
	Saturation
	Color
	Luminosity
)

var modeNames = [...]string{
	"normal", "multiply", "screen", "overlay", "darken", "lighten",
	"color-dodge", "color-burn", "hard-light", "soft-light", "difference",
	"exclusion", "hue", "saturation", "color", "luminosity",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode looks a mode up by its CSS name.
func ParseMode(s string) (Mode, bool) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), true
		}
	}
	return Normal, false
}

// Separable reports whether the mode works per channel.
func (m Mode) Separable() bool {
	return m < Hue
}

func unpremultiply(c geom.Vec4) geom.Vec3 {
	if c.W == 0 {
		return c.XYZ()
	}
	return c.XYZ().Scale(1 / c.W)
}

// Mix blends the premultiplied source src against backdrop and returns
// the premultiplied layer to composite over the backdrop.
func Mix(backdrop, src geom.Vec4, m Mode) geom.Vec4 {
	cb := unpremultiply(backdrop)
	cs := unpremultiply(src)

	var b geom.Vec3
	if m.Separable() {
		f := channelFunc(m)
		b = geom.V3(f(cb.X, cs.X), f(cb.Y, cs.Y), f(cb.Z, cs.Z))
	} else {
		b = nonSeparable(m, cb, cs)
	}

	rgb := cs.Scale(1 - backdrop.W).Add(b.Scale(backdrop.W)).Scale(src.W)
	return geom.V4(rgb.X, rgb.Y, rgb.Z, src.W)
}

// Composite is Mix followed by source-over onto the backdrop.
func Composite(backdrop, src geom.Vec4, m Mode) geom.Vec4 {
	l := Mix(backdrop, src, m)
	return l.Add(backdrop.Scale(1 - l.W))
}

func channelFunc(m Mode) func(cb, cs float32) float32 {
	switch m {
	case Multiply:
		return func(cb, cs float32) float32 { return cb * cs }
	case Screen:
		return screen
	case Overlay:
		return func(cb, cs float32) float32 { return hardLight(cs, cb) }
	case Darken:
		return func(cb, cs float32) float32 { return min(cb, cs) }
	case Lighten:
		return func(cb, cs float32) float32 { return max(cb, cs) }
	case ColorDodge:
		return colorDodge
	case ColorBurn:
		return colorBurn
	case HardLight:
		return hardLight
	case SoftLight:
		return softLight
	case Difference:
		return func(cb, cs float32) float32 { return math32.Abs(cb - cs) }
	case Exclusion:
		return func(cb, cs float32) float32 { return cb + cs - 2*cb*cs }
	default:
		return func(_, cs float32) float32 { return cs }
	}
}

func screen(cb, cs float32) float32 {
	return cb + cs - cb*cs
}

func hardLight(cb, cs float32) float32 {
	if cs <= 0.5 {
		return cb * 2 * cs
	}
	return screen(cb, 2*cs-1)
}

func colorDodge(cb, cs float32) float32 {
	switch {
	case cb == 0:
		return 0
	case cs >= 1:
		return 1
	default:
		return min(1, cb/(1-cs))
	}
}

func colorBurn(cb, cs float32) float32 {
	switch {
	case cb >= 1:
		return 1
	case cs <= 0:
		return 0
	default:
		return 1 - min(1, (1-cb)/cs)
	}
}

func softLight(cb, cs float32) float32 {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	var d float32
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	} else {
		d = math32.Sqrt(cb)
	}
	return cb + (2*cs-1)*(d-cb)
}
