package text

import (
	"errors"
	"sync"

	"github.com/gogpu/compositor/internal/cache"
	"github.com/gogpu/compositor/kernel"
)

// GlyphKey identifies one rasterization of a glyph.
type GlyphKey struct {
	Font uint64
	ID   uint16
	Size int32 // 26.6 fixed point pixels per em
	Step uint8
}

type glyphEntry struct {
	glyph kernel.Glyph
	area  int
	empty bool
}

// GlyphCache rasterizes glyphs on demand into an [Atlas] and keeps them
// for a number of frames after their last use. It is safe for concurrent
// use.
//
// When the atlas fills up, or when evicted glyphs waste more than half
// of it, the atlas is reset and every glyph is rasterized again. Glyph
// records obtained before a reset are stale; compare [GlyphCache.Generation]
// before and after building a frame.
type GlyphCache struct {
	mu      sync.Mutex
	raster  *Rasterizer
	atlas   *Atlas
	retain  int
	entries *cache.Epoch[GlyphKey, glyphEntry]
	dead    int
	gen     uint64
}

// NewGlyphCache returns a cache drawing into atlas that keeps glyphs for
// retain frames after their last use.
func NewGlyphCache(atlas *Atlas, retain int) *GlyphCache {
	c := &GlyphCache{raster: NewRasterizer(), atlas: atlas, retain: retain}
	c.resetEntries()
	return c
}

func (c *GlyphCache) resetEntries() {
	c.entries = cache.NewEpoch[GlyphKey, glyphEntry](c.retain)
	c.entries.OnEvict(func(_ GlyphKey, e glyphEntry) { c.dead += e.area })
	c.dead = 0
}

// Atlas returns the atlas glyphs are packed into.
func (c *GlyphCache) Atlas() *Atlas { return c.atlas }

// Generation increases every time the atlas is reset.
func (c *GlyphCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Len returns the number of cached glyphs.
func (c *GlyphCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Get returns the atlas record of glyph id of f at size pixels per em
// and subpixel step. ok is false for glyphs without pixels, which need
// no instance.
func (c *GlyphCache) Get(f *Font, id uint16, size float32, step int) (g kernel.Glyph, ok bool, err error) {
	key := GlyphKey{Font: f.ID(), ID: id, Size: int32(size * 64), Step: uint8(step % SubpixelSteps)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, hit := c.entries.Get(key); hit {
		return e.glyph, !e.empty, nil
	}

	m, err := c.raster.Rasterize(f, id, size, int(key.Step))
	if err != nil {
		return kernel.Glyph{}, false, err
	}
	if m.Empty() {
		c.entries.Set(key, glyphEntry{empty: true})
		return kernel.Glyph{}, false, nil
	}

	r, layer, err := c.atlas.Allocate(m.Width, m.Height)
	if errors.Is(err, ErrAtlasFull) {
		slogger().Warn("text: glyph atlas full, resetting", "glyphs", c.entries.Len(), "generation", c.gen+1)
		c.reset()
		r, layer, err = c.atlas.Allocate(m.Width, m.Height)
	}
	if err != nil {
		return kernel.Glyph{}, false, err
	}
	c.atlas.Upload(m, r, layer)
	e := glyphEntry{
		glyph: kernel.Glyph{UV: r, Layer: layer, Offset: m.Offset, Scale: 1},
		area:  (m.Width + 2*atlasPadding) * (m.Height + 2*atlasPadding),
	}
	c.entries.Set(key, e)
	return e.glyph, true, nil
}

func (c *GlyphCache) reset() {
	c.atlas.Reset()
	c.resetEntries()
	c.gen++
}

// EndFrame ages the cache by one frame and evicts glyphs unused for
// longer than the retention window. It returns the number of evicted
// glyphs.
func (c *GlyphCache) EndFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Advance()
	n := len(c.entries.Evict())
	capacity := c.atlas.tex.Width() * c.atlas.tex.Height() * c.atlas.tex.Layers()
	if c.dead > capacity/2 {
		slogger().Debug("text: compacting glyph atlas", "dead", c.dead, "capacity", capacity)
		c.reset()
	}
	return n
}
