package text

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

var fontIDs atomic.Uint64

// Font is a parsed font usable for both shaping and rasterization. It
// is safe for concurrent use.
type Font struct {
	id    uint64
	name  string
	outl  *opentype.Font
	shape *font.Font
}

// ParseFont parses TrueType or OpenType data.
func ParseFont(data []byte) (*Font, error) {
	outl, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	f := &Font{id: fontIDs.Add(1), outl: outl, shape: face.Font}
	if name, err := outl.Name(nil, sfnt.NameIDFull); err == nil {
		f.name = name
	}
	return f, nil
}

// DefaultFont returns Go Regular.
var DefaultFont = sync.OnceValue(func() *Font {
	f, err := ParseFont(goregular.TTF)
	if err != nil {
		panic(err)
	}
	return f
})

// ID identifies the font within the process.
func (f *Font) ID() uint64 { return f.id }

// Name returns the full font name, or "" if the font has none.
func (f *Font) Name() string { return f.name }

// GlyphIndex maps a rune to a glyph id. Zero means the font has no glyph
// for it.
func (f *Font) GlyphIndex(r rune) uint16 {
	var b sfnt.Buffer
	g, err := f.outl.GlyphIndex(&b, r)
	if err != nil {
		return 0
	}
	return uint16(g)
}
