package kernel

import (
	"testing"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
)

func uniformBorder(style BorderStyle, w float32, c geom.Vec4) Border {
	side := BorderSide{Style: style, Width: w, Color: c}
	return Border{Sides: [4]BorderSide{side, side, side, side}}
}

func TestBorderSegments(t *testing.T) {
	b := uniformBorder(BorderSolid, 2, red)
	if got := len(b.Segments()); got != 8 {
		t.Errorf("solid border has %d segments, want 8", got)
	}

	b.Sides[SideTop].Style = BorderNone
	got := b.Segments()
	want := []Segment{SegmentBottomRight, SegmentBottomLeft, SegmentLeft, SegmentRight, SegmentBottom}
	if len(got) != len(want) {
		t.Fatalf("Segments() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Segments()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBorderSegmentRects(t *testing.T) {
	b := uniformBorder(BorderSolid, 2, red)
	b.Radii[0] = geom.V2(6, 4)
	outer := geom.R(0, 0, 40, 20)
	tests := []struct {
		seg  Segment
		want geom.Rect
	}{
		{SegmentTopLeft, geom.R(0, 0, 6, 4)},
		{SegmentTopRight, geom.R(38, 0, 2, 2)},
		{SegmentTop, geom.R(6, 0, 32, 2)},
		{SegmentLeft, geom.R(0, 4, 2, 14)},
		{SegmentBottom, geom.R(2, 18, 36, 2)},
	}
	for _, tt := range tests {
		if got := b.SegmentRect(outer, tt.seg); got != tt.want {
			t.Errorf("SegmentRect(%v) = %v, want %v", tt.seg, got, tt.want)
		}
	}
}

func renderBorder(t *testing.T, b Border, outer geom.Rect, seg Segment, w, h int) func(x, y int, want geom.Vec4) {
	t.Helper()
	s := newScene(t, w, h)
	rec := b.Encode()
	a := s.prim(outer, rec[:]...)
	kind := KindBorderEdge
	if seg.IsCorner() {
		kind = KindBorderCorner
	}
	tex := newColor(t, w, h)
	drawInto(t, MustBuild(kind, 0), s.resources(), []prim.Instance{s.instance(a, [3]int32{int32(seg)})}, tex)
	return func(x, y int, want geom.Vec4) {
		t.Helper()
		checkPixel(t, tex, x, y, want, 1e-3)
	}
}

func TestBorderDashedEdge(t *testing.T) {
	// Width 2 gives a 12px period and 6px dashes. The top segment runs
	// from x=2 to x=62, so five dashes fit with a 3px nudge.
	check := renderBorder(t, uniformBorder(BorderDashed, 2, red), geom.R(0, 0, 64, 40), SegmentTop, 64, 40)
	for _, x := range []int{5, 7, 10, 17, 53} {
		check(x, 0, red)
		check(x, 1, red)
	}
	for _, x := range []int{13, 15, 25, 60} {
		check(x, 0, transparent)
	}
	check(7, 2, transparent)
}

func TestBorderDoubleEdge(t *testing.T) {
	// Width 6 splits into 2px bands around a 2px gap.
	check := renderBorder(t, uniformBorder(BorderDouble, 6, red), geom.R(0, 0, 40, 40), SegmentLeft, 40, 40)
	check(0, 20, red)
	check(1, 20, red)
	check(2, 20, transparent)
	check(3, 20, transparent)
	check(4, 20, red)
	check(5, 20, red)
}

func TestBorderCornerMixesSides(t *testing.T) {
	b := uniformBorder(BorderSolid, 4, red)
	b.Sides[SideTop].Color = blue
	check := renderBorder(t, b, geom.R(0, 0, 20, 20), SegmentTopLeft, 20, 20)
	// Below the diagonal belongs to the left side, above it to the top.
	check(0, 3, red)
	check(3, 0, blue)
}

func TestShadeBlack(t *testing.T) {
	black := geom.V4(0, 0, 0, 1)
	if got := shade(black, 2.0/3, 0.3); !near(got, geom.V4(0.3, 0.3, 0.3, 1), 1e-6) {
		t.Errorf("shade(black, dark) = %v", got)
	}
	if got := shade(red, 2.0/3, 0.3); !near(got, geom.V4(2.0/3, 0, 0, 1), 1e-6) {
		t.Errorf("shade(red, dark) = %v", got)
	}
}
