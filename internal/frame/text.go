package frame

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/text"
)

// maxGlyphsPerRun caps the offsets of one text run record so it fits a
// cache row.
const maxGlyphsPerRun = 1024

// ErrNoGlyphCache is returned for text added to a builder without a
// glyph cache and shaper.
var ErrNoGlyphCache = errors.New("frame: text needs a glyph cache and a shaper")

// textItem is a shaped run whose glyphs are looked up at Finish, once
// every string of the frame is known.
type textItem struct {
	slot   int
	p      placement
	rect   geom.Rect
	origin geom.Vec2
	line   text.Line
	font   *text.Font
	size   float32
	color  geom.Vec4
}

// Text adds str laid out on a baseline starting at origin, with size in
// local units per em. Color is premultiplied.
func (b *Builder) Text(c Common, origin geom.Vec2, str string, f *text.Font, size float32, color geom.Vec4) error {
	if b.opts.Glyphs == nil || b.opts.Shaper == nil {
		return ErrNoGlyphCache
	}
	if str == "" || size <= 0 || color.W <= 0 {
		return nil
	}
	line := b.opts.Shaper.Layout(f, str, size)
	if len(line.Runs) == 0 {
		return nil
	}
	// Loose bounds: ascent, descent and overhang stay within one em.
	rect := geom.Rect{
		P0: origin.Sub(geom.V2(size, 1.5*size)),
		P1: origin.Add(geom.V2(line.Advance+size, size)),
	}
	p, ok, err := b.place(c, rect)
	if err != nil || !ok {
		return err
	}
	prog, err := b.program(kernel.KindTextRun, b.textVariant(c.Node))
	if err != nil {
		return err
	}
	b.texts = append(b.texts, textItem{
		slot:   len(b.items),
		p:      p,
		rect:   rect,
		origin: origin,
		line:   line,
		font:   f,
		size:   size,
		color:  color,
	})
	b.items = append(b.items, item{prog: prog, bounds: p.device})
	return nil
}

func (b *Builder) textVariant(node prim.NodeIndex) kernel.Variant {
	v := kernel.AlphaPass
	if !b.aligned[node] {
		v |= kernel.Transform
	}
	return v
}

// resolveText rasterizes the glyphs of every queued run. A glyph atlas
// reset invalidates records written before it, so a frame that caused
// one is resolved again from scratch.
func (b *Builder) resolveText() error {
	if len(b.texts) == 0 {
		return nil
	}
	for range 2 {
		gen := b.opts.Glyphs.Generation()
		records := make(map[kernel.Glyph]gpucache.Address)
		for i := range b.texts {
			if err := b.resolveRun(&b.texts[i], records); err != nil {
				return err
			}
		}
		if b.opts.Glyphs.Generation() == gen {
			return nil
		}
	}
	return ErrGlyphChurn
}

func (b *Builder) resolveRun(t *textItem, records map[kernel.Glyph]gpucache.Address) error {
	node := t.p.header.Node
	it := &b.items[t.slot]
	it.instances = it.instances[:0]

	ds := b.deviceScale(node)
	if ds <= 0 {
		return nil
	}
	dir := kernel.SubpixelNone
	if b.opts.SubpixelText && b.aligned[node] {
		dir = kernel.SubpixelHorizontal
	}
	m := b.transforms[node]
	dpr := b.opts.dpr()

	glyphs := t.line.Glyphs()
	for start := 0; start < len(glyphs); start += maxGlyphsPerRun {
		chunk := glyphs[start:min(start+maxGlyphsPerRun, len(glyphs))]
		run := kernel.TextRun{Color: t.color, Offsets: make([]geom.Vec2, len(chunk))}
		for i, g := range chunk {
			run.Offsets[i] = t.origin.Add(g.Pen)
		}
		addr, err := b.push(t.p, t.rect, run.Encode())
		if err != nil {
			return err
		}
		h := t.p.header
		h.Address = addr
		for i, g := range chunk {
			var step int
			if dir == kernel.SubpixelHorizontal {
				w := m.MulPoint(run.Offsets[i])
				step = text.SubpixelStep(w.X / w.W * dpr)
			}
			glyph, ok, err := b.opts.Glyphs.Get(t.font, g.ID, t.size*ds, step)
			if errors.Is(err, text.ErrGlyphTooLarge) {
				// Drawn as nothing, like a glyph without outline.
				continue
			}
			if err != nil {
				return fmt.Errorf("frame: glyph %d of %s: %w", g.ID, t.font.Name(), err)
			}
			if !ok {
				continue
			}
			ga, seen := records[glyph]
			if !seen {
				rec := glyph.Encode()
				if ga, err = b.cache.Push(rec[:]...); err != nil {
					return err
				}
				records[glyph] = ga
			}
			h.UserData = kernel.TextUserData(i, ga, dir, kernel.GlyphAlpha)
			it.instances = append(it.instances, h.Pack())
		}
	}
	return nil
}
