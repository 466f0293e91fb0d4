package kernel

import (
	"testing"

	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/task"
)

// renderClip draws one clip record into a 16x8 alpha target cleared to
// one and returns the mask.
func renderClip(t *testing.T, kind Kind, rec []geom.Vec4, setup func(res *Resources)) *render.TextureArray {
	t.Helper()
	s := newScene(t, 16, 8)
	area := s.task(task.ClipArea{Rect: geom.R(0, 0, 16, 8)}.Encode())
	a := s.push(rec...)
	res := s.resources()
	if setup != nil {
		setup(res)
	}
	mask, err := render.NewAlphaTarget(16, 8, 1)
	if err != nil {
		t.Fatalf("NewAlphaTarget() error = %v", err)
	}
	mask.Clear(0, geom.Splat4(1))
	inst := clipmask.Instance{Task: area, Node: s.node, Address: a}.Pack()
	drawInto(t, MustBuild(kind, 0), res, []prim.Instance{inst}, mask)
	return mask
}

func checkMask(t *testing.T, mask *render.TextureArray, want map[[2]int]float32) {
	t.Helper()
	for p, w := range want {
		if got := mask.Fetch(p[0], p[1], 0).X; got < w-1e-3 || got > w+1e-3 {
			t.Errorf("mask (%d, %d) = %v, want %v", p[0], p[1], got, w)
		}
	}
}

func TestClipRectangle(t *testing.T) {
	tests := []struct {
		name string
		mode clipmask.Mode
		want map[[2]int]float32
	}{
		{"in", clipmask.ClipIn, map[[2]int]float32{{6, 4}: 1, {4, 4}: 1, {3, 4}: 0, {12, 4}: 0, {1, 1}: 0}},
		{"out", clipmask.ClipOut, map[[2]int]float32{{6, 4}: 0, {3, 4}: 1, {12, 4}: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := clipmask.Rectangle{Rect: geom.R(4, 2, 8, 4), Mode: tt.mode}.Encode()
			checkMask(t, renderClip(t, KindClipRectangle, rec[:], nil), tt.want)
		})
	}
}

func TestClipRectangleRoundedCorner(t *testing.T) {
	rec := clipmask.Rectangle{Rect: geom.R(0, 0, 16, 8), Radii: [4]geom.Vec2{{X: 4, Y: 4}}}.Encode()
	mask := renderClip(t, KindClipRectangle, rec[:], nil)
	checkMask(t, mask, map[[2]int]float32{{0, 0}: 0, {4, 4}: 1, {15, 0}: 1})
}

func TestClipImage(t *testing.T) {
	src, err := render.NewAlphaTarget(4, 4, 1)
	if err != nil {
		t.Fatalf("NewAlphaTarget() error = %v", err)
	}
	for y := range 4 {
		src.Set(0, y, 0, geom.Splat4(1))
		src.Set(1, y, 0, geom.Splat4(1))
	}
	rec := clipmask.Image{Rect: geom.R(0, 0, 8, 8), UV: geom.R(0, 0, 4, 4)}.Encode()
	mask := renderClip(t, KindClipImage, rec[:], func(res *Resources) { res.Color = src })
	checkMask(t, mask, map[[2]int]float32{{1, 4}: 1, {6, 4}: 0, {12, 4}: 0})
}

func TestClipBoxShadow(t *testing.T) {
	rec := clipmask.BoxShadow{Box: geom.R(4, 2, 8, 4)}.Encode()
	mask := renderClip(t, KindClipBoxShadow, rec[:], nil)
	checkMask(t, mask, map[[2]int]float32{{6, 4}: 1, {1, 1}: 0})

	rec = clipmask.BoxShadow{Box: geom.R(4, 2, 8, 4), Mode: clipmask.ClipOut}.Encode()
	mask = renderClip(t, KindClipBoxShadow, rec[:], nil)
	checkMask(t, mask, map[[2]int]float32{{6, 4}: 0, {1, 1}: 1})
}

func TestSolidReadsClipMask(t *testing.T) {
	s := newScene(t, 16, 8)
	area := s.task(task.ClipArea{Rect: geom.R(0, 0, 16, 8)}.Encode())
	rec := Solid{Color: red}.Encode()
	a := s.prim(geom.R(0, 0, 16, 8), rec[:]...)
	inst := s.instance(a, [3]int32{})
	h := inst.Unpack()
	h.ClipTask = area
	inst = h.Pack()

	mask, err := render.NewAlphaTarget(16, 8, 1)
	if err != nil {
		t.Fatalf("NewAlphaTarget() error = %v", err)
	}
	mask.Clear(0, geom.Splat4(1))
	mask.ClearRect(0, 0, 0, 8, 8, geom.Splat4(0.5))
	res := s.resources()
	res.ClipMask = mask
	tex := newColor(t, 16, 8)
	drawInto(t, MustBuild(KindSolid, AlphaPass|Transform), res, []prim.Instance{inst}, tex)

	tests := []struct {
		name string
		x, y int
		want geom.Vec4
	}{
		{"half mask", 4, 4, red.Scale(0.5)},
		{"full mask", 12, 4, red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkPixel(t, tex, tt.x, tt.y, tt.want, 1e-3)
		})
	}
}
