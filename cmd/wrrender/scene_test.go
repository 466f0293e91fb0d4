package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/compositor"
)

const testScene = `
size: [64, 48]
nodes:
  - name: tilted
    translate: [40, 24]
    rotate: 20
items:
  - type: rect
    rect: [0, 0, 32, 24]
    color: [1, 0, 0, 1]
  - type: linear-gradient
    rect: [0, 24, 64, 24]
    start: [0, 0]
    end: [64, 0]
    stops:
      - {offset: 0, color: [0, 0, 1, 1]}
      - {offset: 1, color: [0, 1, 0, 1]}
  - type: rect
    node: tilted
    rect: [-8, -8, 16, 16]
    color: [0, 0, 0, 0.5]
    clips:
      - {rect: [-8, -8, 16, 16], radius: 4}
  - type: border
    rect: [2, 2, 28, 20]
    width: 2
    style: dashed
    color: [0, 0, 0, 1]
`

func renderScene(t *testing.T, s *Scene, im *images) *compositor.Result {
	t.Helper()
	r, err := compositor.New(compositor.WithWorkers(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	if im == nil {
		im = &images{}
	}
	r.SetImages(im.tex)
	f, err := s.Build(r, im)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	res, err := r.RenderPass(context.Background(), f)
	if err != nil {
		t.Fatalf("RenderPass() error = %v", err)
	}
	return res
}

func TestParseScene(t *testing.T) {
	s, err := ParseScene(strings.NewReader(testScene))
	if err != nil {
		t.Fatalf("ParseScene() error = %v", err)
	}
	if s.Size != [2]int{64, 48} || len(s.Nodes) != 1 || len(s.Items) != 4 {
		t.Errorf("ParseScene() = %+v", s)
	}
	if got := s.Items[1].Stops[1].Color; got != [4]float32{0, 1, 0, 1} {
		t.Errorf("stop color = %v", got)
	}
}

func TestParseSceneErrors(t *testing.T) {
	for _, doc := range []string{
		"size: [0, 10]\n",
		"size: [10, 10]\nitems:\n  - type: rect\n    colour: [1, 0, 0, 1]\n",
		"size: [10, 10, 10]\n",
	} {
		if _, err := ParseScene(strings.NewReader(doc)); err == nil {
			t.Errorf("ParseScene(%q) succeeded", doc)
		}
	}
}

func TestBuildScene(t *testing.T) {
	s, err := ParseScene(strings.NewReader(testScene))
	if err != nil {
		t.Fatalf("ParseScene() error = %v", err)
	}
	res := renderScene(t, s, nil)
	if got := res.Color.Fetch(16, 12, 0); got.X < 0.99 || got.Y > 0.01 {
		t.Errorf("rect pixel = %v, want red", got)
	}
	left, right := res.Color.Fetch(1, 40, 0), res.Color.Fetch(62, 40, 0)
	if left.Z < left.Y || right.Y < right.Z {
		t.Errorf("gradient ends = %v, %v, want blue to green", left, right)
	}
	if res.Batches < 4 {
		t.Errorf("Batches = %d, want at least one per kind", res.Batches)
	}
}

func TestBuildSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		item ItemSpec
	}{
		{"type", ItemSpec{Type: "ellipse"}},
		{"node", ItemSpec{Type: "rect", Node: "missing"}},
		{"image", ItemSpec{Type: "image", Image: "missing"}},
		{"clip mode", ItemSpec{Type: "rect", Clips: []ClipSpec{{Mode: "xor"}}}},
		{"border style", ItemSpec{Type: "border", Style: "wavy", Width: 1}},
	}
	r, err := compositor.New(compositor.WithWorkers(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scene{Size: [2]int{8, 8}, Items: []ItemSpec{tt.item}}
			if _, err := s.Build(r, &images{}); err == nil {
				t.Error("Build() succeeded")
			}
		})
	}
}

func TestSceneImage(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range 16 {
		src.Set(i%4, i/4, color.NRGBA{G: 255, A: 255})
	}
	f, err := os.Create(filepath.Join(dir, "green.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s := &Scene{
		Size:   [2]int{16, 16},
		Images: map[string]string{"green": "green.png"},
		Items:  []ItemSpec{{Type: "image", Image: "green", Rect: [4]float32{0, 0, 16, 16}}},
	}
	im, err := loadImages(s, dir)
	if err != nil {
		t.Fatalf("loadImages() error = %v", err)
	}
	if got := im.byName["green"].UV.Size(); got.X != 4 || got.Y != 4 {
		t.Errorf("image UV size = %v, want 4x4", got)
	}
	res := renderScene(t, s, im)
	if got := res.Color.Fetch(8, 8, 0); got.Y < 0.9 || got.X > 0.1 {
		t.Errorf("image pixel = %v, want green", got)
	}
}

func TestWriteShaders(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spirv")
	names, err := writeShaders(dir)
	if err != nil {
		t.Skipf("shader compilation unavailable: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("writeShaders() wrote nothing")
	}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if len(data) < 4 || data[0] != 0x03 || data[1] != 0x02 || data[2] != 0x23 || data[3] != 0x07 {
			t.Errorf("%s: missing SPIR-V magic", name)
		}
	}
}

func TestWritePNG(t *testing.T) {
	s, err := ParseScene(strings.NewReader(testScene))
	if err != nil {
		t.Fatalf("ParseScene() error = %v", err)
	}
	res := renderScene(t, s, nil)
	tests := []struct {
		name    string
		out     string
		wantErr bool
	}{
		{"file", filepath.Join(t.TempDir(), "out.png"), false},
		{"missing dir", filepath.Join(t.TempDir(), "none", "out.png"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writePNG(tt.out, res)
			if (err != nil) != tt.wantErr {
				t.Fatalf("writePNG() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			f, err := os.Open(tt.out)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				t.Fatalf("png.Decode() error = %v", err)
			}
			if got := img.Bounds().Size(); got != image.Pt(64, 48) {
				t.Errorf("image size = %v, want (64,48)", got)
			}
		})
	}
}
