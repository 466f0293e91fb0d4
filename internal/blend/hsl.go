package blend

import "github.com/gogpu/compositor/geom"

// Lum is the BT.601 luminance of an unpremultiplied color.
func Lum(c geom.Vec3) float32 {
	return 0.3*c.X + 0.59*c.Y + 0.11*c.Z
}

// Sat is max minus min of the channels.
func Sat(c geom.Vec3) float32 {
	return max(c.X, c.Y, c.Z) - min(c.X, c.Y, c.Z)
}

// ClipColor pulls out-of-range channels back into [0, 1] along the line
// to the luminance, keeping the luminance.
func ClipColor(c geom.Vec3) geom.Vec3 {
	l := Lum(c)
	n := min(c.X, c.Y, c.Z)
	x := max(c.X, c.Y, c.Z)
	gray := geom.V3(l, l, l)
	if n < 0 {
		c = gray.Add(c.Sub(gray).Scale(l / (l - n)))
	}
	if x > 1 {
		c = gray.Add(c.Sub(gray).Scale((1 - l) / (x - l)))
	}
	return c
}

// SetLum shifts c to luminance l.
func SetLum(c geom.Vec3, l float32) geom.Vec3 {
	d := l - Lum(c)
	return ClipColor(c.Add(geom.V3(d, d, d)))
}

// SetSat rescales c to saturation s, keeping the channel order.
func SetSat(c geom.Vec3, s float32) geom.Vec3 {
	ch := [3]float32{c.X, c.Y, c.Z}
	lo, mid, hi := order(ch)
	var out [3]float32
	if ch[hi] > ch[lo] {
		out[mid] = (ch[mid] - ch[lo]) * s / (ch[hi] - ch[lo])
		out[hi] = s
	}
	return geom.V3(out[0], out[1], out[2])
}

// order returns the indices of the smallest, middle and largest channel.
func order(c [3]float32) (lo, mid, hi int) {
	lo, mid, hi = 0, 1, 2
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	if c[mid] > c[hi] {
		mid, hi = hi, mid
	}
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	return lo, mid, hi
}

func nonSeparable(m Mode, cb, cs geom.Vec3) geom.Vec3 {
	switch m {
	case Hue:
		return SetLum(SetSat(cs, Sat(cb)), Lum(cb))
	case Saturation:
		return SetLum(SetSat(cb, Sat(cs)), Lum(cb))
	case Color:
		return SetLum(cs, Lum(cb))
	case Luminosity:
		return SetLum(cb, Lum(cs))
	default:
		return cs
	}
}
