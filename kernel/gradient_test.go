package kernel

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
)

func TestBuildLUT(t *testing.T) {
	lut := BuildLUT([]Stop{{0, red}, {0.5, green}, {1, blue}})
	tests := []struct {
		offset float32
		repeat bool
		want   geom.Vec4
	}{
		{0, false, red},
		{0.25, false, geom.V4(0.5, 0.5, 0, 1)},
		{0.5, false, green},
		{0.75, false, geom.V4(0, 0.5, 0.5, 1)},
		{1, false, blue},
		{-0.5, false, red},
		{1.5, false, blue},
		{1.25, true, geom.V4(0.5, 0.5, 0, 1)},
	}
	for _, tt := range tests {
		if got := lut.Sample(tt.offset, tt.repeat); !near(got, tt.want, 1e-5) {
			t.Errorf("Sample(%v, %v) = %v, want %v", tt.offset, tt.repeat, got, tt.want)
		}
	}
}

func TestBuildLUTHardStop(t *testing.T) {
	lut := BuildLUT([]Stop{{0, red}, {0.5, red}, {0.5, blue}, {1, blue}})
	if got := lut.Sample(0.49, false); !near(got, red, 1e-5) {
		t.Errorf("Sample(0.49) = %v, want red", got)
	}
	if got := lut.Sample(0.51, false); !near(got, blue, 1e-5) {
		t.Errorf("Sample(0.51) = %v, want blue", got)
	}
}

func TestBuildLUTPremultiplies(t *testing.T) {
	lut := BuildLUT([]Stop{{0, geom.V4(1, 1, 1, 0.5)}, {1, geom.V4(1, 1, 1, 0.5)}})
	if got := lut.Sample(0.3, false); !near(got, geom.Splat4(0.5), 1e-5) {
		t.Errorf("Sample(0.3) = %v, want premultiplied half white", got)
	}
	if got := BuildLUT(nil).Sample(0.5, false); got != (geom.Vec4{}) {
		t.Errorf("empty table Sample = %v, want transparent", got)
	}
}

func TestLUTCache(t *testing.T) {
	c := NewLUTCache(1)
	stops := []Stop{{0, red}, {1, blue}}
	a := c.Get(stops)
	if b := c.Get([]Stop{{0, red}, {1, blue}}); a != b {
		t.Error("equal stops built separate tables")
	}
	if c.Get([]Stop{{0, green}, {1, blue}}) == a {
		t.Error("different stops share a table")
	}
	if n := c.EndFrame(); n != 0 {
		t.Errorf("first EndFrame() = %d, want 0", n)
	}
	c.Get(stops)
	if n := c.EndFrame(); n != 1 {
		t.Errorf("second EndFrame() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestSortStops(t *testing.T) {
	stops := []Stop{{1, blue}, {0.5, red}, {0.5, green}, {0, red}}
	SortStops(stops)
	want := []float32{0, 0.5, 0.5, 1}
	for i, s := range stops {
		if s.Offset != want[i] {
			t.Fatalf("stop %d offset = %v, want %v", i, s.Offset, want[i])
		}
	}
	if stops[1].Color != red || stops[2].Color != green {
		t.Error("SortStops reordered equal offsets")
	}
}

func TestGradientOffsets(t *testing.T) {
	tests := []struct {
		name  string
		shape gradientShape
		rec   []geom.Vec4
		p     geom.Vec2
		want  float32
		ok    bool
	}{
		{"linear start", linearShape{}, LinearGradient{End: geom.V2(10, 0)}.Encode(nil), geom.V2(0, 5), 0, true},
		{"linear mid", linearShape{}, LinearGradient{End: geom.V2(10, 0)}.Encode(nil), geom.V2(5, 3), 0.5, true},
		{"linear diagonal", linearShape{}, LinearGradient{End: geom.V2(4, 4)}.Encode(nil), geom.V2(4, 0), 0.5, true},
		{"radial center", radialShape{}, RadialGradient{EndRadius: 10}.Encode(nil), geom.V2(0, 0), 0, true},
		{"radial mid", radialShape{}, RadialGradient{EndRadius: 10}.Encode(nil), geom.V2(5, 0), 0.5, true},
		{"radial outside", radialShape{}, RadialGradient{EndRadius: 10}.Encode(nil), geom.V2(0, 20), 2, true},
		{"radial ellipse", radialShape{}, RadialGradient{EndRadius: 10, RatioY: 2}.Encode(nil), geom.V2(0, 2.5), 0.5, true},
		{"radial ring", radialShape{}, RadialGradient{StartRadius: 5, EndRadius: 10}.Encode(nil), geom.V2(7.5, 0), 0.5, true},
		{"radial flat", radialShape{}, RadialGradient{StartRadius: 5, EndRadius: 5}.Encode(nil), geom.V2(6, 0), 1, true},
		{"radial no root", radialShape{}, RadialGradient{EndRadius: 10}.Encode(nil), geom.V2(math32.NaN(), 0), 0, false},
		{"conic up", conicShape{}, ConicGradient{EndOffset: 1}.Encode(nil), geom.V2(0, -1), 0, true},
		{"conic right", conicShape{}, ConicGradient{EndOffset: 1}.Encode(nil), geom.V2(1, 0), 0.25, true},
		{"conic down", conicShape{}, ConicGradient{EndOffset: 1}.Encode(nil), geom.V2(0, 1), 0.5, true},
		{"conic rotated", conicShape{}, ConicGradient{Angle: math32.Pi / 2, EndOffset: 1}.Encode(nil), geom.V2(1, 0), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.shape.decode(tt.rec)
			got, ok := tt.shape.offset(&g, tt.p)
			if ok != tt.ok || math32.Abs(got-tt.want) > 1e-4 {
				t.Errorf("offset(%v) = %v, %v, want %v, %v", tt.p, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLinearGradientDraw(t *testing.T) {
	s := newScene(t, 16, 2)
	black, white := geom.V4(0, 0, 0, 1), geom.V4(1, 1, 1, 1)
	rec := LinearGradient{End: geom.V2(16, 0)}.Encode(BuildLUT([]Stop{{0, black}, {1, white}}))
	a := s.prim(geom.R(0, 0, 16, 2), rec...)
	tex := newColor(t, 16, 2)
	drawInto(t, MustBuild(KindLinearGradient, 0), s.resources(), []prim.Instance{s.instance(a, [3]int32{})}, tex)

	for _, x := range []int{0, 5, 8, 15} {
		v := (float32(x) + 0.5) / 16
		checkPixel(t, tex, x, 1, geom.V4(v, v, v, 1), 1e-4)
	}
}

func TestRadialGradientDraw(t *testing.T) {
	s := newScene(t, 48, 48)
	rec := RadialGradient{Center: geom.V2(24.5, 24.5), EndRadius: 10}.Encode(BuildLUT([]Stop{{0, red}, {1, blue}}))
	a := s.prim(geom.R(0, 0, 48, 48), rec...)
	tex := newColor(t, 48, 48)
	drawInto(t, MustBuild(KindRadialGradient, 0), s.resources(), []prim.Instance{s.instance(a, [3]int32{})}, tex)

	tests := []struct {
		name string
		x, y int
		want geom.Vec4
	}{
		{"center", 24, 24, red},
		{"end radius", 34, 24, blue},
		{"end radius vertical", 24, 14, blue},
		{"clamped", 44, 24, blue},
		{"clamped corner", 0, 0, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkPixel(t, tex, tt.x, tt.y, tt.want, 0.02)
		})
	}
	mid := tex.Fetch(29, 24, 0)
	if math32.Abs(mid.X-0.5) > 0.02 || math32.Abs(mid.Z-0.5) > 0.02 {
		t.Errorf("Fetch(29, 24) = %v, want halfway between red and blue", mid)
	}
}

func TestDitherIsBounded(t *testing.T) {
	c := geom.V4(0.5, 0.5, 0.5, 1)
	for y := range 8 {
		for x := range 8 {
			d := dither(c, x, y).Sub(c)
			if math32.Abs(d.X) > 0.5/256 || d.W != 0 {
				t.Fatalf("dither(%d, %d) moved color by %v", x, y, d)
			}
		}
	}
}
