// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
)

// edge is the doubled signed area of (a, b, p). It is positive for p on
// the inner side of a counter-clockwise edge in y-down space.
func edge(a, b, p geom.Vec2) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// topLeft reports whether pixels exactly on edge a->b belong to the
// triangle.
func topLeft(a, b geom.Vec2) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	return (dy == 0 && dx > 0) || dy < 0
}

func inside(e float32, owns bool) bool {
	return e > 0 || (e == 0 && owns)
}

// setup is a triangle prepared for scan conversion.
type setup struct {
	v    [3]*Vertex
	p    [3]geom.Vec2
	invW [3]float32
	z    [3]float32
	area float32
	owns [3]bool
}

func newSetup(a, b, c *Vertex) (setup, bool) {
	var t setup
	t.v = [3]*Vertex{a, b, c}
	for k, v := range t.v {
		w := v.Position.W
		if !(w > 0) {
			return t, false
		}
		t.invW[k] = 1 / w
		t.p[k] = v.Position.XY().Scale(t.invW[k])
		t.z[k] = v.Position.Z * t.invW[k]
	}
	t.area = edge(t.p[0], t.p[1], t.p[2])
	if t.area == 0 {
		return t, false
	}
	if t.area < 0 {
		t.v[1], t.v[2] = t.v[2], t.v[1]
		t.p[1], t.p[2] = t.p[2], t.p[1]
		t.invW[1], t.invW[2] = t.invW[2], t.invW[1]
		t.z[1], t.z[2] = t.z[2], t.z[1]
		t.area = -t.area
	}
	t.owns[0] = topLeft(t.p[1], t.p[2])
	t.owns[1] = topLeft(t.p[2], t.p[0])
	t.owns[2] = topLeft(t.p[0], t.p[1])
	return t, true
}

// weights returns the edge values at p, one per opposite vertex.
func (t *setup) weights(p geom.Vec2) [3]float32 {
	return [3]float32{
		edge(t.p[1], t.p[2], p),
		edge(t.p[2], t.p[0], p),
		edge(t.p[0], t.p[1], p),
	}
}

func (t *setup) covers(e [3]float32) bool {
	return inside(e[0], t.owns[0]) && inside(e[1], t.owns[1]) && inside(e[2], t.owns[2])
}

// interpolate writes perspective-correct varyings for edge values e and
// returns the screen-linear depth.
func (t *setup) interpolate(e [3]float32, l Layout, out *Varyings) float32 {
	inv := 1 / t.area
	b0, b1, b2 := e[0]*inv, e[1]*inv, e[2]*inv

	copy(out[:l.Flat], t.v[0].Varyings[:l.Flat])

	w0, w1, w2 := b0*t.invW[0], b1*t.invW[1], b2*t.invW[2]
	norm := 1 / (w0 + w1 + w2)
	w0, w1, w2 = w0*norm, w1*norm, w2*norm
	a, b, c := &t.v[0].Varyings, &t.v[1].Varyings, &t.v[2].Varyings
	for i := l.Flat; i < l.Count; i++ {
		out[i] = a[i]*w0 + b[i]*w1 + c[i]*w2
	}
	return t.z[0]*b0 + t.z[1]*b1 + t.z[2]*b2
}

// bounds is the pixel box of the triangle clipped to clip.
func (t *setup) bounds(clip image.Rectangle) image.Rectangle {
	lo := t.p[0].Min(t.p[1]).Min(t.p[2])
	hi := t.p[0].Max(t.p[1]).Max(t.p[2])
	r := image.Rect(
		int(math32.Floor(lo.X)), int(math32.Floor(lo.Y)),
		int(math32.Ceil(hi.X)), int(math32.Ceil(hi.Y)),
	)
	return r.Intersect(clip)
}

// shader runs the fragment stage of one draw.
type shader struct {
	draw   *Draw
	layout Layout
	verts  []Vertex
	pix    []geom.Vec4
	depth  []float32
	width  int
}

var laneOffsets = [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// instance shades the two triangles of one instance inside clip.
func (s *shader) instance(inst int, clip image.Rectangle, c *counters) {
	q := s.verts[inst*4 : inst*4+4]
	for _, tri := range quadTriangles {
		t, ok := newSetup(&q[tri[0]], &q[tri[1]], &q[tri[2]])
		if !ok {
			continue
		}
		s.triangle(inst, &t, clip, c)
	}
}

func (s *shader) triangle(inst int, t *setup, clip image.Rectangle, c *counters) {
	b := t.bounds(clip)
	if b.Empty() {
		return
	}
	var (
		quad  [4]Varyings
		edges [4][3]float32
		depth [4]float32
		mask  [4]bool
		out   Output
	)
	frag := Fragment{Instance: inst, quad: &quad}

	for y := b.Min.Y &^ 1; y < b.Max.Y; y += 2 {
		for x := b.Min.X &^ 1; x < b.Max.X; x += 2 {
			hit := false
			for lane, off := range laneOffsets {
				px, py := x+off[0], y+off[1]
				p := geom.V2(float32(px)+0.5, float32(py)+0.5)
				edges[lane] = t.weights(p)
				mask[lane] = px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y &&
					t.covers(edges[lane])
				hit = hit || mask[lane]
			}
			if !hit {
				continue
			}
			for lane := range quad {
				depth[lane] = t.interpolate(edges[lane], s.layout, &quad[lane])
			}
			for lane, off := range laneOffsets {
				if !mask[lane] {
					continue
				}
				px, py := x+off[0], y+off[1]
				idx := py*s.width + px
				if s.depth != nil && depth[lane] < s.depth[idx] {
					c.rejects++
					continue
				}
				frag.X, frag.Y = px, py
				frag.Pos = geom.V2(float32(px)+0.5, float32(py)+0.5)
				frag.Depth = depth[lane]
				frag.In = &quad[lane]
				frag.lane = lane
				out = Output{}
				if !s.draw.Kernel.Fragment(&frag, &out) {
					c.discarded++
					continue
				}
				c.fragments++
				s.pix[idx] = s.draw.Blend.apply(s.pix[idx], &out)
				if s.depth != nil && s.draw.Depth == DepthTestWrite {
					s.depth[idx] = depth[lane]
				}
			}
		}
	}
}
