package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/compositor/geom"
)

// Config is the file form of the renderer options.
//
// Example config.toml:
//
//	workers = 8
//	device_pixel_ratio = 2.0
//	dither = true
//	clear_color = [1.0, 1.0, 1.0, 1.0]
//
//	[debug]
//	enabled = true
//	addr = "127.0.0.1:3583"
//
//	[glyph_cache]
//	atlas_size = 1024
//	retain_frames = 60
type Config struct {
	Workers          int        `toml:"workers"`
	DevicePixelRatio float32    `toml:"device_pixel_ratio"`
	Dither           bool       `toml:"dither"`
	SubpixelText     bool       `toml:"subpixel_text"`
	ClearColor       [4]float32 `toml:"clear_color"`
	ClipLayers       int        `toml:"clip_layers"`

	Debug      DebugConfig      `toml:"debug"`
	GlyphCache GlyphCacheConfig `toml:"glyph_cache"`

	// GradientRetainFrames is how long unused gradient tables are kept.
	GradientRetainFrames int `toml:"gradient_retain_frames"`
}

// DebugConfig configures the debug server.
type DebugConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// GlyphCacheConfig sizes the glyph atlas.
type GlyphCacheConfig struct {
	AtlasSize    int `toml:"atlas_size"`
	Layers       int `toml:"layers"`
	RetainFrames int `toml:"retain_frames"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		DevicePixelRatio: 1,
		Dither:           true,
		SubpixelText:     true,
		ClearColor:       [4]float32{1, 1, 1, 1},
		ClipLayers:       4,
		GlyphCache: GlyphCacheConfig{
			AtlasSize:    1024,
			Layers:       2,
			RetainFrames: 60,
		},
		GradientRetainFrames: 60,
	}
}

// LoadConfig reads a TOML config file. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("compositor: unable to read config: %w", err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseConfig decodes a TOML document over DefaultConfig. Unknown keys
// are rejected.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.DevicePixelRatio <= 0:
		return fmt.Errorf("%w: device_pixel_ratio %v must be positive", ErrInvalidConfig, c.DevicePixelRatio)
	case c.ClipLayers < 1:
		return fmt.Errorf("%w: clip_layers %d must be at least 1", ErrInvalidConfig, c.ClipLayers)
	case c.GlyphCache.AtlasSize < 64:
		return fmt.Errorf("%w: glyph_cache.atlas_size %d is below 64", ErrInvalidConfig, c.GlyphCache.AtlasSize)
	case c.GlyphCache.Layers < 1:
		return fmt.Errorf("%w: glyph_cache.layers %d must be at least 1", ErrInvalidConfig, c.GlyphCache.Layers)
	case c.GlyphCache.RetainFrames < 1 || c.GradientRetainFrames < 1:
		return fmt.Errorf("%w: retain frames must be at least 1", ErrInvalidConfig)
	}
	for _, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear_color %v out of [0, 1]", ErrInvalidConfig, c.ClearColor)
		}
	}
	return nil
}

// Marshal encodes c as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c Config) apply(o *options) {
	o.workers = c.Workers
	o.dpr = c.DevicePixelRatio
	o.dither = c.Dither
	o.subpixelText = c.SubpixelText
	o.clearColor = geom.V4(c.ClearColor[0], c.ClearColor[1], c.ClearColor[2], c.ClearColor[3])
	o.clipLayers = c.ClipLayers
	o.debug = c.Debug.Enabled
	o.debugAddr = c.Debug.Addr
	o.atlasSize = c.GlyphCache.AtlasSize
	o.atlasLayers = c.GlyphCache.Layers
	o.glyphRetain = c.GlyphCache.RetainFrames
	o.lutRetain = c.GradientRetainFrames
}
