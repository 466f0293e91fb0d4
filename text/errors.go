package text

import "errors"

var (
	// ErrAtlasFull is returned when a glyph mask does not fit in any
	// atlas layer.
	ErrAtlasFull = errors.New("text: glyph atlas full")

	// ErrGlyphTooLarge is returned for a mask larger than an atlas layer.
	ErrGlyphTooLarge = errors.New("text: glyph larger than atlas layer")

	// ErrInvalidFont is returned when font data cannot be parsed.
	ErrInvalidFont = errors.New("text: invalid font")
)
