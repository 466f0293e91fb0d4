package text

import (
	"fmt"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/shelf"
	"github.com/gogpu/compositor/render"
)

// atlasPadding is the empty border kept around each glyph so bilinear
// samples at the glyph edge read zero.
const atlasPadding = 1

// Atlas packs glyph masks into the layers of an alpha texture array with
// a shelf allocator. Allocations are released all at once by Reset.
type Atlas struct {
	tex  *render.TextureArray
	pack *shelf.Packer
}

// NewAtlas returns an atlas of layers layers, each size x size texels.
func NewAtlas(size, layers int) (*Atlas, error) {
	tex, err := render.NewAlphaTarget(size, size, layers)
	if err != nil {
		return nil, fmt.Errorf("text: atlas: %w", err)
	}
	return &Atlas{tex: tex, pack: shelf.New(size, size, layers)}, nil
}

// Texture returns the atlas texture sampled by the text-run kernel.
func (a *Atlas) Texture() *render.TextureArray { return a.tex }

// Used returns the number of texels allocated, padding included.
func (a *Atlas) Used() int { return a.pack.Used() }

// Allocate reserves a w x h rect and returns its texel rect and layer.
func (a *Atlas) Allocate(w, h int) (geom.Rect, int, error) {
	pw, ph := w+2*atlasPadding, h+2*atlasPadding
	if !a.pack.Fits(pw, ph) {
		return geom.Rect{}, 0, fmt.Errorf("%w: %dx%d", ErrGlyphTooLarge, w, h)
	}
	x, y, layer, ok := a.pack.Allocate(pw, ph)
	if !ok {
		return geom.Rect{}, 0, ErrAtlasFull
	}
	return geom.R(float32(x+atlasPadding), float32(y+atlasPadding), float32(w), float32(h)), layer, nil
}

// Upload copies m into the texel rect r of layer.
func (a *Atlas) Upload(m *Mask, r geom.Rect, layer int) {
	x0, y0 := int(r.P0.X), int(r.P0.Y)
	for y := range m.Height {
		for x := range m.Width {
			a.tex.Set(x0+x, y0+y, layer, geom.Splat4(m.At(x, y)))
		}
	}
}

// Reset frees all allocations and clears the texture.
func (a *Atlas) Reset() {
	a.pack.Reset()
	for i := range a.tex.Layers() {
		a.tex.Clear(i, geom.Vec4{})
	}
}
