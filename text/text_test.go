package text

import (
	"errors"
	"testing"

	"github.com/gogpu/compositor/geom"
)

func TestSubpixelStep(t *testing.T) {
	tests := []struct {
		x    float32
		want int
	}{
		{0, 0},
		{0.2, 1},
		{0.5, 2},
		{0.8, 3},
		{0.9, 0},
		{12.5, 2},
		{-0.3, 3},
	}
	for _, tt := range tests {
		if got := SubpixelStep(tt.x); got != tt.want {
			t.Errorf("SubpixelStep(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestAtlasAllocate(t *testing.T) {
	a, err := NewAtlas(16, 2)
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	tests := []struct {
		w, h  int
		want  geom.Rect
		layer int
	}{
		{4, 4, geom.R(1, 1, 4, 4), 0},
		{4, 4, geom.R(7, 1, 4, 4), 0},
		{2, 3, geom.R(13, 1, 2, 3), 0},
		{14, 14, geom.R(1, 1, 14, 14), 1},
		{4, 4, geom.R(1, 7, 4, 4), 0},
	}
	for _, tt := range tests {
		r, layer, err := a.Allocate(tt.w, tt.h)
		if err != nil {
			t.Fatalf("Allocate(%d, %d) error = %v", tt.w, tt.h, err)
		}
		if r != tt.want || layer != tt.layer {
			t.Errorf("Allocate(%d, %d) = %v layer %d, want %v layer %d", tt.w, tt.h, r, layer, tt.want, tt.layer)
		}
	}

	if _, _, err := a.Allocate(16, 4); !errors.Is(err, ErrGlyphTooLarge) {
		t.Errorf("Allocate(16, 4) error = %v, want ErrGlyphTooLarge", err)
	}
	if _, _, err := a.Allocate(10, 10); !errors.Is(err, ErrAtlasFull) {
		t.Errorf("Allocate(10, 10) error = %v, want ErrAtlasFull", err)
	}

	a.Reset()
	if a.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", a.Used())
	}
	if r, layer, _ := a.Allocate(10, 10); r != geom.R(1, 1, 10, 10) || layer != 0 {
		t.Errorf("Allocate after Reset = %v layer %d", r, layer)
	}
}

func TestAtlasUpload(t *testing.T) {
	a, err := NewAtlas(8, 1)
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	m := &Mask{Width: 2, Height: 1, Pix: []uint8{255, 51}}
	r, layer, err := a.Allocate(2, 1)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	a.Upload(m, r, layer)
	tex := a.Texture()
	if got := tex.Fetch(1, 1, 0).X; got != 1 {
		t.Errorf("texel (1, 1) = %v, want 1", got)
	}
	if got := tex.Fetch(2, 1, 0).X; got != 0.2 {
		t.Errorf("texel (2, 1) = %v, want 0.2", got)
	}
	if got := tex.Fetch(0, 1, 0).X; got != 0 {
		t.Errorf("padding texel = %v, want 0", got)
	}
}

func TestRasterizeGlyph(t *testing.T) {
	f := DefaultFont()
	r := NewRasterizer()
	m, err := r.Rasterize(f, f.GlyphIndex('H'), 32, 0)
	if err != nil {
		t.Fatalf("Rasterize(H) error = %v", err)
	}
	if m.Empty() {
		t.Fatal("Rasterize(H) returned an empty mask")
	}
	if m.Offset.Y >= 0 || m.Offset.Y+float32(m.Height) > 1 {
		t.Errorf("H spans y %v..%v, want above the baseline", m.Offset.Y, m.Offset.Y+float32(m.Height))
	}
	var solid int
	for y := range m.Height {
		for x := range m.Width {
			if m.At(x, y) > 0.99 {
				solid++
			}
		}
	}
	if solid == 0 {
		t.Error("H has no fully covered pixels")
	}

	space, err := r.Rasterize(f, f.GlyphIndex(' '), 32, 0)
	if err != nil {
		t.Fatalf("Rasterize(space) error = %v", err)
	}
	if !space.Empty() {
		t.Errorf("space mask is %dx%d, want empty", space.Width, space.Height)
	}
}

func centroidX(m *Mask) float32 {
	var sum, wsum float32
	for y := range m.Height {
		for x := range m.Width {
			c := m.At(x, y)
			sum += c
			wsum += c * (float32(x) + 0.5 + m.Offset.X)
		}
	}
	return wsum / sum
}

func TestRasterizeSubpixelShift(t *testing.T) {
	f := DefaultFont()
	r := NewRasterizer()
	id := f.GlyphIndex('l')
	a, err := r.Rasterize(f, id, 24, 0)
	if err != nil {
		t.Fatalf("Rasterize(step 0) error = %v", err)
	}
	b, err := r.Rasterize(f, id, 24, 2)
	if err != nil {
		t.Fatalf("Rasterize(step 2) error = %v", err)
	}
	if d := centroidX(b) - centroidX(a); d < 0.2 || d > 0.8 {
		t.Errorf("half pixel step moved the glyph by %v", d)
	}
}

func TestLayoutLatin(t *testing.T) {
	f := DefaultFont()
	line := NewShaper().Layout(f, "Hello", 16)
	if len(line.Runs) != 1 || line.Runs[0].RTL {
		t.Fatalf("Layout(Hello) runs = %+v, want one LTR run", line.Runs)
	}
	glyphs := line.Glyphs()
	if len(glyphs) != 5 {
		t.Fatalf("Layout(Hello) has %d glyphs, want 5", len(glyphs))
	}
	prev := float32(-1)
	for i, g := range glyphs {
		if g.Pen.X <= prev {
			t.Errorf("glyph %d pen %v not after %v", i, g.Pen.X, prev)
		}
		if g.Advance <= 0 {
			t.Errorf("glyph %d advance = %v, want > 0", i, g.Advance)
		}
		if want := f.GlyphIndex(rune("Hello"[i])); g.ID != want {
			t.Errorf("glyph %d id = %d, want %d", i, g.ID, want)
		}
		prev = g.Pen.X
	}
	if last := glyphs[4]; line.Advance < last.Pen.X+last.Advance-1e-3 {
		t.Errorf("line advance %v shorter than its glyphs", line.Advance)
	}
}

func TestLayoutEmpty(t *testing.T) {
	if line := NewShaper().Layout(DefaultFont(), "", 16); len(line.Runs) != 0 || line.Advance != 0 {
		t.Errorf("Layout(\"\") = %+v, want empty", line)
	}
}

func TestLayoutBidi(t *testing.T) {
	line := NewShaper().Layout(DefaultFont(), "abc אבג", 16)
	var ltr, rtl bool
	for _, r := range line.Runs {
		ltr = ltr || !r.RTL
		rtl = rtl || r.RTL
	}
	if !ltr || !rtl {
		t.Errorf("runs = %+v, want both directions", line.Runs)
	}
	if n := len(line.Glyphs()); n != 7 {
		t.Errorf("glyph count = %d, want 7", n)
	}
}

func TestGlyphCache(t *testing.T) {
	a, err := NewAtlas(64, 1)
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	c := NewGlyphCache(a, 1)
	f := DefaultFont()

	g, ok, err := c.Get(f, f.GlyphIndex('H'), 16, 0)
	if err != nil || !ok {
		t.Fatalf("Get(H) = %v, %v", ok, err)
	}
	if g.UV.Empty() || g.Scale != 1 {
		t.Errorf("Get(H) = %+v", g)
	}
	if again, _, _ := c.Get(f, f.GlyphIndex('H'), 16, 0); again != g {
		t.Errorf("second Get(H) = %+v, want cached %+v", again, g)
	}
	if other, _, _ := c.Get(f, f.GlyphIndex('H'), 16, 1); other.UV == g.UV {
		t.Error("different subpixel steps share an atlas rect")
	}
	if _, ok, err := c.Get(f, f.GlyphIndex(' '), 16, 0); ok || err != nil {
		t.Errorf("Get(space) = %v, %v, want no glyph", ok, err)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	c.EndFrame()
	if n := c.EndFrame(); n != 3 {
		t.Errorf("EndFrame() evicted %d, want 3", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after eviction = %d, want 0", c.Len())
	}
}

func TestGlyphCacheResetsWhenFull(t *testing.T) {
	a, err := NewAtlas(24, 1)
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	c := NewGlyphCache(a, 4)
	f := DefaultFont()
	for _, r := range "ABCDEFGH" {
		if _, _, err := c.Get(f, f.GlyphIndex(r), 16, 0); err != nil {
			t.Fatalf("Get(%q) error = %v", r, err)
		}
	}
	if c.Generation() == 0 {
		t.Error("atlas was never reset")
	}
	if c.Len() == 0 || c.Len() >= 8 {
		t.Errorf("Len() = %d after reset", c.Len())
	}
}
