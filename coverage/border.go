package coverage

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/compositor/geom"
)

// DoubleBands splits a double border of width w into an outer band, a
// gap and an inner band. Bands are max(round(w/3), 1) wide and always sum
// with the gap to w.
type DoubleBands struct {
	Outer, Gap, Inner float32
}

// MinDoubleWidth is the narrowest double border that keeps a visible gap.
// Narrower double borders render solid.
const MinDoubleWidth = 3

// SplitDouble returns the bands of a double border of width w.
func SplitDouble(w float32) DoubleBands {
	band := max(math32.Floor(0.5+w/3), 1)
	return DoubleBands{Outer: band, Gap: w - 2*band, Inner: band}
}

// SplitGroove returns the offset of the color split of a groove or ridge
// border of width w.
func SplitGroove(w float32) float32 {
	return math32.Floor(0.5 + w*0.5)
}

// DashLayout places dashes, or dots, along one edge of a border.
// Dashes are interval/2 long, Count of them fit the edge and the whole
// pattern is centered by Nudge.
type DashLayout struct {
	Interval float32
	Dash     float32
	Nudge    float32
	Count    int
}

// LayoutDashes lays out dashes of period interval along an edge of the
// given length. At least one dash is placed.
func LayoutDashes(length, interval float32) DashLayout {
	count := max(int(math32.Floor(length/interval)), 1)
	dash := interval * 0.5
	gap := interval - dash
	return DashLayout{
		Interval: interval,
		Dash:     dash,
		Nudge:    (length - (float32(count)*interval - gap)) * 0.5,
		Count:    count,
	}
}

// index returns the dash nearest to the left of x and x relative to its
// start.
func (l DashLayout) index(x float32) (int, float32) {
	u := x - l.Nudge
	k := int(math32.Floor(u / l.Interval))
	k = min(max(k, 0), l.Count-1)
	return k, u - float32(k)*l.Interval
}

// DashDistance returns the signed distance along the edge from x to the
// nearest dash.
func (l DashLayout) DashDistance(x float32) float32 {
	k, local := l.index(x)
	d := max(-local, local-l.Dash)
	if k+1 < l.Count {
		d = min(d, l.Interval-local)
	}
	return d
}

// DotCenter returns the along-edge position of the dot nearest x. Dots
// have diameter Dash.
func (l DashLayout) DotCenter(x float32) float32 {
	k, local := l.index(x)
	if k+1 < l.Count && local > (l.Dash+l.Interval)*0.5 {
		k++
	}
	return l.Nudge + float32(k)*l.Interval + l.Dash*0.5
}

// DotDistance returns the signed distance from p to the nearest dot. p.X
// runs along the edge and p.Y across it, measured from the edge center
// line.
func (l DashLayout) DotDistance(p geom.Vec2) float32 {
	c := l.DotCenter(p.X)
	return geom.V2(p.X-c, p.Y).Len() - l.Dash*0.5
}
