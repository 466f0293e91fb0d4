// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
)

type rectKernel struct {
	rects  []geom.Rect
	colors []geom.Vec4
	z      []float32
}

func (k *rectKernel) Layout() Layout { return Layout{Flat: 4, Count: 4} }

func (k *rectKernel) Vertex(i int, corner geom.Vec2, out *Vertex) {
	p := k.rects[i].Lerp(corner)
	var z float32
	if k.z != nil {
		z = k.z[i]
	}
	out.Position = geom.V4(p.X, p.Y, z, 1)
	out.Varyings.SetVec4(0, k.colors[i])
}

func (k *rectKernel) Fragment(f *Fragment, out *Output) bool {
	out.Color = f.In.Vec4(0)
	return true
}

type countKernel struct {
	rect   geom.Rect
	width  int
	counts []int
}

func (k *countKernel) Layout() Layout { return Layout{} }

func (k *countKernel) Vertex(_ int, corner geom.Vec2, out *Vertex) {
	p := k.rect.Lerp(corner)
	out.Position = geom.V4(p.X, p.Y, 0, 1)
}

func (k *countKernel) Fragment(f *Fragment, _ *Output) bool {
	k.counts[f.Y*k.width+f.X]++
	return false
}

func newTarget(t *testing.T, w, h int) *render.TextureArray {
	t.Helper()
	tex, err := render.NewColorTarget(w, h, 1)
	if err != nil {
		t.Fatalf("NewColorTarget() error = %v", err)
	}
	return tex
}

func run(t *testing.T, d *Draw) Stats {
	t.Helper()
	e := NewExecutor(4)
	defer e.Close()
	s, err := e.Run(context.Background(), d)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return s
}

func TestSolidRect(t *testing.T) {
	tex := newTarget(t, 16, 16)
	red := geom.V4(1, 0, 0, 1)
	k := &rectKernel{rects: []geom.Rect{{P0: geom.V2(2, 2), P1: geom.V2(12, 12)}}, colors: []geom.Vec4{red}}
	s := run(t, &Draw{Kernel: k, Instances: 1, Target: tex, Blend: BlendAlpha})

	if s.Fragments != 100 {
		t.Errorf("Fragments = %d, want 100", s.Fragments)
	}
	for y := range 16 {
		for x := range 16 {
			want := geom.Vec4{}
			if x >= 2 && x < 12 && y >= 2 && y < 12 {
				want = red
			}
			if got := tex.Fetch(x, y, 0); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestTopLeftRule(t *testing.T) {
	tests := []struct {
		name  string
		rect  geom.Rect
		count int
	}{
		{"integer", geom.Rect{P0: geom.V2(0, 0), P1: geom.V2(8, 8)}, 64},
		{"centers on edges", geom.Rect{P0: geom.V2(0.5, 0.5), P1: geom.V2(7.5, 7.5)}, 49},
		{"across tiles", geom.Rect{P0: geom.V2(40, 40), P1: geom.V2(90, 90)}, 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const w = 128
			tex := newTarget(t, w, w)
			k := &countKernel{rect: tt.rect, width: w, counts: make([]int, w*w)}
			s := run(t, &Draw{Kernel: k, Instances: 1, Target: tex})

			total := 0
			for i, c := range k.counts {
				if c > 1 {
					t.Fatalf("pixel %d shaded %d times", i, c)
				}
				total += c
			}
			if total != tt.count {
				t.Errorf("shaded %d pixels, want %d", total, tt.count)
			}
			if s.Discarded != int64(tt.count) {
				t.Errorf("Discarded = %d, want %d", s.Discarded, tt.count)
			}
		})
	}
}

func TestDrawOrder(t *testing.T) {
	tex := newTarget(t, 200, 200)
	k := &rectKernel{}
	for i := range 50 {
		k.rects = append(k.rects, geom.R(float32(i), float32(i), 120, 120))
		k.colors = append(k.colors, geom.V4(float32(i)/49, 0, 0, 1))
	}
	run(t, &Draw{Kernel: k, Instances: len(k.rects), Target: tex, Blend: BlendReplace})

	if got := tex.Fetch(100, 100, 0); got != k.colors[49] {
		t.Errorf("overlap pixel = %v, want last instance %v", got, k.colors[49])
	}
	if got := tex.Fetch(0, 0, 0); got != k.colors[0] {
		t.Errorf("pixel (0, 0) = %v, want first instance %v", got, k.colors[0])
	}
}

type gradientKernel struct{}

func (gradientKernel) Layout() Layout { return Layout{Count: 2} }

func (gradientKernel) Vertex(_ int, corner geom.Vec2, out *Vertex) {
	p := corner.Scale(16)
	out.Position = geom.V4(p.X, p.Y, 0, 1)
	out.Varyings.SetVec2(0, p.Scale(3))
}

func (gradientKernel) Fragment(f *Fragment, out *Output) bool {
	fw := f.Fwidth(func(v *Varyings) geom.Vec2 { return v.Vec2(0) })
	out.Color = geom.V4(fw.X, fw.Y, 0, 1)
	return true
}

func TestFwidth(t *testing.T) {
	tex := newTarget(t, 16, 16)
	run(t, &Draw{Kernel: gradientKernel{}, Instances: 1, Target: tex})
	for _, p := range [][2]int{{0, 0}, {5, 9}, {15, 15}, {8, 7}} {
		got := tex.Fetch(p[0], p[1], 0)
		if math32.Abs(got.X-3) > 1e-3 || math32.Abs(got.Y-3) > 1e-3 {
			t.Errorf("fwidth at %v = (%v, %v), want (3, 3)", p, got.X, got.Y)
		}
	}
}

type perspectiveKernel struct{}

func (perspectiveKernel) Layout() Layout { return Layout{Count: 1} }

func (perspectiveKernel) Vertex(_ int, corner geom.Vec2, out *Vertex) {
	w := 1 + 2*corner.X
	p := corner.Scale(16)
	out.Position = geom.V4(p.X*w, p.Y*w, 0, w)
	out.Varyings[0] = corner.X
}

func (perspectiveKernel) Fragment(f *Fragment, out *Output) bool {
	out.Color = geom.V4(f.In[0], 0, 0, 1)
	return true
}

func TestPerspectiveInterpolation(t *testing.T) {
	tex := newTarget(t, 16, 16)
	run(t, &Draw{Kernel: perspectiveKernel{}, Instances: 1, Target: tex})

	s := float32(7.5) / 16
	want := s / (3 - 2*s)
	if got := tex.Fetch(7, 3, 0).X; math32.Abs(got-want) > 1e-4 {
		t.Errorf("varying at (7, 3) = %v, want %v", got, want)
	}
}

func TestDepthTest(t *testing.T) {
	tex := newTarget(t, 8, 8)
	red, blue := geom.V4(1, 0, 0, 1), geom.V4(0, 0, 1, 1)
	full := geom.R(0, 0, 8, 8)
	k := &rectKernel{
		rects:  []geom.Rect{full, full, geom.R(0, 0, 4, 8)},
		colors: []geom.Vec4{red, blue, blue},
		z:      []float32{0.5, 0.2, 0.7},
	}
	s := run(t, &Draw{Kernel: k, Instances: 3, Target: tex, Blend: BlendReplace, Depth: DepthTestWrite})

	if s.DepthRejects != 64 {
		t.Errorf("DepthRejects = %d, want 64", s.DepthRejects)
	}
	if got := tex.Fetch(6, 0, 0); got != red {
		t.Errorf("pixel (6, 0) = %v, want red", got)
	}
	if got := tex.Fetch(1, 0, 0); got != blue {
		t.Errorf("pixel (1, 0) = %v, want blue", got)
	}
}

func TestScissor(t *testing.T) {
	tex := newTarget(t, 16, 16)
	k := &rectKernel{rects: []geom.Rect{geom.R(0, 0, 16, 16)}, colors: []geom.Vec4{geom.Splat4(1)}}
	d := &Draw{Kernel: k, Instances: 1, Target: tex}
	d.Scissor.Min.X, d.Scissor.Min.Y = 4, 4
	d.Scissor.Max.X, d.Scissor.Max.Y = 8, 6
	if s := run(t, d); s.Fragments != 8 {
		t.Errorf("Fragments = %d, want 8", s.Fragments)
	}
}

func TestBlendModes(t *testing.T) {
	dst := geom.V4(0.2, 0.4, 0.6, 0.8)
	src := geom.V4(0.5, 0, 0, 0.5)
	tests := []struct {
		mode BlendMode
		out  Output
		want geom.Vec4
	}{
		{BlendReplace, Output{Color: src}, src},
		{BlendAlpha, Output{Color: src}, geom.V4(0.6, 0.2, 0.3, 0.9)},
		{BlendMultiply, Output{Color: src}, geom.V4(0.1, 0, 0, 0.4)},
		{BlendDualSource, Output{Color: src, Blend: geom.V4(1, 0, 0.5, 0.5)}, geom.V4(0.5, 0.4, 0.3, 0.9)},
	}
	for _, tt := range tests {
		got := tt.mode.apply(dst, &tt.out)
		d := got.Sub(tt.want).Dot(got.Sub(tt.want))
		if d > 1e-10 {
			t.Errorf("%v.apply() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	e := NewExecutor(1)
	defer e.Close()
	tex := newTarget(t, 4, 4)

	if _, err := e.Run(context.Background(), &Draw{Target: tex}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("missing kernel error = %v, want ErrNoTarget", err)
	}
	k := &rectKernel{}
	if _, err := e.Run(context.Background(), &Draw{Kernel: k, Target: tex, Layer: 2}); !errors.Is(err, ErrLayer) {
		t.Errorf("bad layer error = %v, want ErrLayer", err)
	}
}
