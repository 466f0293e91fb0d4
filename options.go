package compositor

import (
	"log/slog"

	"github.com/gogpu/compositor/geom"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := compositor.New(
//	    compositor.WithWorkers(4),
//	    compositor.WithDevicePixelRatio(2),
//	)
type Option func(*options)

// options holds the configuration of a Renderer.
type options struct {
	workers      int
	dpr          float32
	logger       *slog.Logger
	debug        bool
	debugAddr    string
	dither       bool
	subpixelText bool
	clearColor   geom.Vec4

	atlasSize   int
	atlasLayers int
	glyphRetain int
	lutRetain   int
	clipLayers  int
}

// defaultOptions returns the configuration of DefaultConfig.
func defaultOptions() options {
	var o options
	DefaultConfig().apply(&o)
	return o
}

// WithWorkers sets the number of rasterization workers. Zero or negative
// uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithDevicePixelRatio sets the number of device pixels per world unit.
// Non-positive values are ignored.
func WithDevicePixelRatio(dpr float32) Option {
	return func(o *options) {
		if dpr > 0 {
			o.dpr = dpr
		}
	}
}

// WithLogger installs l as the package logger when the renderer is
// created. See SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDebugServer starts a debug server on addr. An empty addr listens
// on debug.DefaultAddr.
//
// Example:
//
//	r, _ := compositor.New(compositor.WithDebugServer(""))
//	// connect a websocket client to ws://127.0.0.1:3583
func WithDebugServer(addr string) Option {
	return func(o *options) {
		o.debug = true
		o.debugAddr = addr
	}
}

// WithDither enables or disables gradient dithering.
func WithDither(enabled bool) Option {
	return func(o *options) {
		o.dither = enabled
	}
}

// WithSubpixelText enables quarter-pixel horizontal glyph positioning.
func WithSubpixelText(enabled bool) Option {
	return func(o *options) {
		o.subpixelText = enabled
	}
}

// WithClearColor sets the premultiplied color the color target is
// cleared to before each pass.
func WithClearColor(c geom.Vec4) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithConfig applies every setting of c.
func WithConfig(c Config) Option {
	return func(o *options) {
		c.apply(o)
	}
}
