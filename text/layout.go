package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/compositor/geom"
)

// PositionedGlyph is a shaped glyph. Pen is relative to the line origin
// on the baseline, in pixels with y down.
type PositionedGlyph struct {
	ID      uint16
	Pen     geom.Vec2
	Advance float32

	// Cluster is the rune index of the first character the glyph
	// belongs to.
	Cluster int
}

// Run is a sequence of glyphs with one direction, in visual order.
type Run struct {
	Glyphs []PositionedGlyph
	RTL    bool

	// Start and End are the rune range of the run in the source text.
	Start, End int
}

// Line is a laid out string. Runs are in visual order and their pens
// continue from one run to the next.
type Line struct {
	Runs    []Run
	Advance float32
}

// Glyphs returns all glyphs of the line in visual order.
func (l Line) Glyphs() []PositionedGlyph {
	var n int
	for _, r := range l.Runs {
		n += len(r.Glyphs)
	}
	out := make([]PositionedGlyph, 0, n)
	for _, r := range l.Runs {
		out = append(out, r.Glyphs...)
	}
	return out
}

// Shaper lays out strings with HarfBuzz. It is safe for concurrent use.
type Shaper struct {
	pool sync.Pool
}

// NewShaper returns a shaper.
func NewShaper() *Shaper {
	return &Shaper{pool: sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }}}
}

// Layout shapes s at size pixels per em. The base direction is taken
// from the first strong character.
func (s *Shaper) Layout(f *Font, str string, size float32) Line {
	if str == "" || f == nil {
		return Line{}
	}
	runes := []rune(str)
	face := font.NewFace(f.shape)
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	defer s.pool.Put(hb)

	var line Line
	pen := float32(0)
	for _, br := range bidiRuns(str, len(runes)) {
		dir := di.DirectionLTR
		if br.rtl {
			dir = di.DirectionRTL
		}
		out := hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  br.start,
			RunEnd:    br.end,
			Direction: dir,
			Face:      face,
			Size:      fixed.Int26_6(size * 64),
			Script:    scriptOf(runes[br.start:br.end]),
			Language:  language.NewLanguage("en"),
		})
		run := Run{RTL: br.rtl, Start: br.start, End: br.end, Glyphs: make([]PositionedGlyph, len(out.Glyphs))}
		for i, g := range out.Glyphs {
			adv := fromFixed(g.Advance)
			run.Glyphs[i] = PositionedGlyph{
				ID:      uint16(g.GlyphID),
				Pen:     geom.V2(pen+fromFixed(g.XOffset), -fromFixed(g.YOffset)),
				Advance: adv,
				Cluster: g.TextIndex(),
			}
			pen += adv
		}
		line.Runs = append(line.Runs, run)
	}
	line.Advance = pen
	return line
}

type bidiRun struct {
	start, end int
	rtl        bool
}

// bidiRuns splits text into directional runs in visual order. Pos
// returns inclusive rune indices.
func bidiRuns(str string, n int) []bidiRun {
	var p bidi.Paragraph
	if _, err := p.SetString(str, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return []bidiRun{{0, n, false}}
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return []bidiRun{{0, n, false}}
	}
	runs := make([]bidiRun, 0, ordering.NumRuns())
	for i := range ordering.NumRuns() {
		r := ordering.Run(i)
		start, end := r.Pos()
		end = min(end+1, n)
		if start >= end {
			continue
		}
		runs = append(runs, bidiRun{start, end, r.Direction() == bidi.RightToLeft})
	}
	return runs
}

func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fromFixed(v fixed.Int26_6) float32 { return float32(v) / 64 }
