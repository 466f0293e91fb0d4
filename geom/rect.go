package geom

// Rect is an axis-aligned rectangle stored by its endpoints.
// A rect with P1 <= P0 on either axis is empty.
type Rect struct {
	P0, P1 Vec2
}

// RectFromSize builds a rect from an origin and a size, the form used by
// data-cache records.
func RectFromSize(origin, size Vec2) Rect {
	return Rect{P0: origin, P1: origin.Add(size)}
}

// R is a convenience function to create a Rect from origin and size.
func R(x, y, w, h float32) Rect {
	return Rect{P0: Vec2{X: x, Y: y}, P1: Vec2{X: x + w, Y: y + h}}
}

// Size returns the rectangle extent.
func (r Rect) Size() Vec2 {
	return r.P1.Sub(r.P0)
}

// Center returns the midpoint.
func (r Rect) Center() Vec2 {
	return r.P0.Add(r.P1).Scale(0.5)
}

// Empty reports whether the rect encloses no area.
func (r Rect) Empty() bool {
	return r.P1.X <= r.P0.X || r.P1.Y <= r.P0.Y
}

// Contains reports whether p lies inside [P0, P1).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.P0.X && p.X < r.P1.X && p.Y >= r.P0.Y && p.Y < r.P1.Y
}

// Intersect returns the overlap of r and o. The result may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{P0: r.P0.Max(o.P0), P1: r.P1.Min(o.P1)}
}

// Union returns the smallest rect containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{P0: r.P0.Min(o.P0), P1: r.P1.Max(o.P1)}
}

// Inflate grows the rect by d on every side.
func (r Rect) Inflate(d Vec2) Rect {
	return Rect{P0: r.P0.Sub(d), P1: r.P1.Add(d)}
}

// Translate moves the rect by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{P0: r.P0.Add(d), P1: r.P1.Add(d)}
}

// Clamp clamps p into the rect.
func (r Rect) Clamp(p Vec2) Vec2 {
	return p.Clamp(r.P0, r.P1)
}

// Lerp maps a unit-square coordinate into the rect.
func (r Rect) Lerp(t Vec2) Vec2 {
	return r.P0.Lerp(r.P1, t)
}

// Normalize maps p into unit-square coordinates relative to the rect.
func (r Rect) Normalize(p Vec2) Vec2 {
	return p.Sub(r.P0).Div(r.Size())
}

// Texel returns the rect packed as [p0.x, p0.y, p1.x, p1.y].
func (r Rect) Texel() Vec4 {
	return Vec4{X: r.P0.X, Y: r.P0.Y, Z: r.P1.X, W: r.P1.Y}
}

// SizeTexel returns the rect packed as [p0.x, p0.y, w, h].
func (r Rect) SizeTexel() Vec4 {
	s := r.Size()
	return Vec4{X: r.P0.X, Y: r.P0.Y, Z: s.X, W: s.Y}
}

// RectFromTexel unpacks an endpoint texel.
func RectFromTexel(t Vec4) Rect {
	return Rect{P0: t.XY(), P1: t.ZW()}
}

// RectFromSizeTexel unpacks an origin/size texel.
func RectFromSizeTexel(t Vec4) Rect {
	return RectFromSize(t.XY(), t.ZW())
}
