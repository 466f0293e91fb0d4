package text

import (
	"image"
	"image/draw"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
)

// SubpixelSteps is the number of horizontal positions a glyph is
// rasterized at within one pixel.
const SubpixelSteps = 4

// SubpixelStep quantizes the fractional part of a device x position.
// It matches the kernel's horizontal snapping, which floors x plus an
// eighth of a pixel.
func SubpixelStep(x float32) int {
	f := x + 0.125 - math32.Floor(x+0.125)
	return min(int(f*SubpixelSteps), SubpixelSteps-1)
}

// Mask is a rasterized glyph coverage bitmap.
type Mask struct {
	Width, Height int
	Pix           []uint8

	// Offset is the top-left of the bitmap relative to the pen, in
	// pixels with y down.
	Offset geom.Vec2
}

// Empty reports whether the glyph has no pixels, as for a space.
func (m *Mask) Empty() bool { return m.Width == 0 || m.Height == 0 }

// At returns the coverage at (x, y) in [0, 1].
func (m *Mask) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return float32(m.Pix[y*m.Width+x]) / 255
}

// Rasterizer renders glyph outlines into coverage masks. It is safe for
// concurrent use.
type Rasterizer struct {
	bufs sync.Pool
}

// NewRasterizer returns a rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{bufs: sync.Pool{New: func() any { return new(sfnt.Buffer) }}}
}

// Rasterize renders glyph id of f at size pixels per em, shifted right
// by step/SubpixelSteps of a pixel.
func (r *Rasterizer) Rasterize(f *Font, id uint16, size float32, step int) (*Mask, error) {
	buf := r.bufs.Get().(*sfnt.Buffer)
	defer r.bufs.Put(buf)

	ppem := fixed.Int26_6(size * 64)
	gi := sfnt.GlyphIndex(id)
	bounds, _, err := f.outl.GlyphBounds(buf, gi, ppem, xfont.HintingNone)
	if err != nil {
		return nil, err
	}
	segs, err := f.outl.LoadGlyph(buf, gi, ppem, nil)
	if err != nil {
		return nil, err
	}

	dx := float32(step%SubpixelSteps) / SubpixelSteps
	x0 := math32.Floor(fromFixed(bounds.Min.X) + dx)
	y0 := math32.Floor(fromFixed(bounds.Min.Y))
	x1 := math32.Ceil(fromFixed(bounds.Max.X) + dx)
	y1 := math32.Ceil(fromFixed(bounds.Max.Y))
	w, h := int(x1-x0), int(y1-y0)
	m := &Mask{Offset: geom.V2(x0, y0)}
	if w <= 0 || h <= 0 || len(segs) == 0 {
		return m, nil
	}

	// Outline coordinates are y down, relative to the pen.
	pt := func(p fixed.Point26_6) (float32, float32) {
		return fromFixed(p.X) + dx - x0, fromFixed(p.Y) - y0
	}
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			z.ClosePath()
			z.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			ax, ay := pt(s.Args[0])
			bx, by := pt(s.Args[1])
			z.QuadTo(ax, ay, bx, by)
		case sfnt.SegmentOpCubeTo:
			ax, ay := pt(s.Args[0])
			bx, by := pt(s.Args[1])
			cx, cy := pt(s.Args[2])
			z.CubeTo(ax, ay, bx, by, cx, cy)
		}
	}
	z.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	m.Width, m.Height, m.Pix = w, h, dst.Pix
	return m, nil
}
