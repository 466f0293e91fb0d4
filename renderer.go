package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/compositor/debug"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/frame"
	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/text"
)

// Frame building types.
type (
	// FrameBuilder collects the primitives of one frame.
	FrameBuilder = frame.Builder

	// Frame is a built frame ready for RenderPass.
	Frame = frame.Frame

	// Common holds the node, rect and clips of a primitive.
	Common = frame.Common

	// Clip is a rounded-rect clip.
	Clip = frame.Clip
)

// Renderer draws frames with the software rasterizer. It owns the glyph
// and gradient caches shared by consecutive frames and the targets the
// last frame was drawn into.
//
// RenderPass calls are serialized. The caches are not, so frames must
// not be built while a pass runs.
type Renderer struct {
	opts   options
	exec   *raster.Executor
	glyphs *text.GlyphCache
	shaper *text.Shaper
	luts   *kernel.LUTCache
	dbg    *debug.Server
	done   chan struct{}

	mu     sync.Mutex
	images *render.TextureArray
	color  *render.TextureArray
	clip   *render.TextureArray
	last   *Frame
	frames uint64
	closed bool
}

// Result is the output of a pass. Its targets are reused by the next
// RenderPass.
type Result struct {
	Color *render.TextureArray

	// ClipMask is the clip target the pass read masks from.
	ClipMask *render.TextureArray

	Stats   raster.Stats
	Batches int
}

// Image returns the color target as an image.
func (r *Result) Image() image.Image {
	return r.Color.Image(0)
}

// New creates a renderer.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	atlas, err := text.NewAtlas(max(o.atlasSize, 64), max(o.atlasLayers, 1))
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	r := &Renderer{
		opts:   o,
		exec:   raster.NewExecutor(o.workers),
		glyphs: text.NewGlyphCache(atlas, max(o.glyphRetain, 1)),
		shaper: text.NewShaper(),
		luts:   kernel.NewLUTCache(max(o.lutRetain, 1)),
		done:   make(chan struct{}),
	}
	if o.debug {
		r.dbg = debug.NewServer(16)
		go func() {
			if err := r.dbg.ListenAndServe(o.debugAddr); err != nil && !errors.Is(err, debug.ErrClosed) {
				Logger().Warn("compositor: debug server stopped", "err", err)
			}
		}()
		go r.serveDebug()
	}
	Logger().Debug("compositor: renderer created", "workers", r.exec.Workers(), "dpr", o.dpr)
	return r, nil
}

// Close stops the workers and the debug server.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	r.exec.Close()
	if r.dbg != nil {
		return r.dbg.Close()
	}
	return nil
}

// Debug returns the debug server, or nil when it is disabled.
func (r *Renderer) Debug() *debug.Server { return r.dbg }

// Glyphs returns the glyph cache shared by all frames.
func (r *Renderer) Glyphs() *text.GlyphCache { return r.glyphs }

// SetImages sets the image atlas read by image primitives of frames
// built afterwards.
func (r *Renderer) SetImages(t *render.TextureArray) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = t
}

// NewFrame starts a frame of width x height device pixels.
func (r *Renderer) NewFrame(width, height int) (*FrameBuilder, error) {
	r.mu.Lock()
	closed, images := r.closed, r.images
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return frame.New(width, height, frame.Options{
		DevicePixelRatio: r.opts.dpr,
		Dither:           r.opts.dither,
		SubpixelText:     r.opts.subpixelText,
		Glyphs:           r.glyphs,
		Shaper:           r.shaper,
		LUTs:             r.luts,
		Images:           images,
		ClipLayers:       r.opts.clipLayers,
	})
}

// RenderPass draws f. The clip pass runs first, with the batches of
// each clip target layer drawn concurrently. The color pass then draws
// opaque batches front to back followed by alpha batches back to front.
// Cancellation is checked between batches.
func (r *Renderer) RenderPass(ctx context.Context, f *Frame) (*Result, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if err := r.ensureTargets(f); err != nil {
		return nil, err
	}
	res := f.Resources
	res.ClipMask = r.clip

	var (
		stats   raster.Stats
		statsMu sync.Mutex
	)
	for _, a := range f.ClipAreas {
		r.clip.ClearRect(a.Layer, a.Rect.Min.X, a.Rect.Min.Y, a.Rect.Max.X, a.Rect.Max.Y, geom.Splat4(1))
	}
	byLayer := make(map[int][]frame.Batch)
	for _, b := range f.Clips {
		byLayer[b.Layer] = append(byLayer[b.Layer], b)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, batches := range byLayer {
		g.Go(func() error {
			s, err := r.run(gctx, &res, batches, r.clip)
			statsMu.Lock()
			stats.Add(s)
			statsMu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compositor: clip pass: %w", err)
	}

	r.color.Clear(0, r.opts.clearColor)
	r.color.ClearDepth(0)
	for _, batches := range [][]frame.Batch{f.Opaque, f.Alpha} {
		s, err := r.run(ctx, &res, batches, r.color)
		stats.Add(s)
		if err != nil {
			return nil, fmt.Errorf("compositor: color pass: %w", err)
		}
	}

	r.last = f
	r.frames++
	evicted := r.glyphs.EndFrame()
	evicted += r.luts.EndFrame()
	r.report(f, stats, evicted)

	return &Result{
		Color:    r.color,
		ClipMask: r.clip,
		Stats:    stats,
		Batches:  len(f.Clips) + len(f.Opaque) + len(f.Alpha),
	}, nil
}

// ensureTargets reallocates the targets when f does not fit them.
func (r *Renderer) ensureTargets(f *Frame) error {
	if r.color == nil || r.color.Width() != f.Width || r.color.Height() != f.Height {
		t, err := render.NewColorTarget(f.Width, f.Height, 1)
		if err != nil {
			return fmt.Errorf("compositor: color target: %w", err)
		}
		r.color = t
		r.clip = nil
	}
	layers := max(f.ClipLayers, 1)
	if r.clip == nil || r.clip.Layers() < layers {
		t, err := render.NewAlphaTarget(f.Width, f.Height, layers)
		if err != nil {
			return fmt.Errorf("compositor: clip target: %w", err)
		}
		r.clip = t
	}
	return nil
}

func (r *Renderer) run(ctx context.Context, res *kernel.Resources, batches []frame.Batch, target *render.TextureArray) (raster.Stats, error) {
	var total raster.Stats
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		s, err := r.exec.Run(ctx, b.Program.Draw(res, b.Instances, target, b.Layer))
		total.Add(s)
		if err != nil {
			return total, fmt.Errorf("%s: %w", b.Program.Name(), err)
		}
	}
	return total, nil
}

// report logs frame statistics and publishes the frame to debug clients.
func (r *Renderer) report(f *Frame, stats raster.Stats, evicted int) {
	log := Logger()
	log.Debug("compositor: frame",
		"frame", r.frames,
		"batches", len(f.Clips)+len(f.Opaque)+len(f.Alpha),
		"instances", stats.Instances,
		"fragments", stats.Fragments)
	if r.dbg == nil {
		return
	}
	flags := r.dbg.Flags()
	if flags.Profiler {
		log.Info("compositor: profile",
			"frame", r.frames,
			"fragments", stats.Fragments,
			"discarded", stats.Discarded,
			"depth_rejects", stats.DepthRejects,
			"tiles", stats.Tiles)
	}
	if flags.TextureCacheDebug {
		log.Info("compositor: texture cache",
			"glyphs", r.glyphs.Len(),
			"atlas_used", r.glyphs.Atlas().Used(),
			"generation", r.glyphs.Generation(),
			"gradients", r.luts.Len(),
			"evicted", evicted)
	}
	if flags.RenderTargetDebug {
		log.Info("compositor: render targets",
			"color", fmt.Sprintf("%dx%d", r.color.Width(), r.color.Height()),
			"clip_layers", r.clip.Layers(),
			"clip_areas", len(f.ClipAreas))
	}
	if err := r.dbg.Publish(f.Passes()); err != nil && !errors.Is(err, debug.ErrClosed) {
		log.Warn("compositor: publish passes", "err", err)
	}
}

// serveDebug answers fetch commands from debug clients.
func (r *Renderer) serveDebug() {
	for {
		select {
		case <-r.done:
			return
		case cmd := <-r.dbg.Commands():
			r.mu.Lock()
			f, frames := r.last, r.frames
			r.mu.Unlock()
			var msg debug.Message
			switch cmd {
			case debug.FetchPasses:
				if f != nil {
					msg = f.Passes()
				}
			case debug.FetchBatches:
				if f != nil {
					msg = f.Batches()
				}
			case debug.FetchDocuments:
				msg = documents(f, frames)
			case debug.FetchClipScrollTree:
				if f != nil {
					msg = debug.ClipScrollTree{Root: f.Tree()}
				}
			}
			if msg == nil {
				continue
			}
			if err := r.dbg.Publish(msg); err != nil {
				Logger().Debug("compositor: debug publish", "cmd", string(cmd), "err", err)
			}
		}
	}
}

func documents(f *Frame, frames uint64) debug.DocumentList {
	root := debug.NewTreeNode("documents")
	doc := debug.NewTreeNode(fmt.Sprintf("document 0 (%d frames)", frames))
	if f != nil {
		doc.AddItem(fmt.Sprintf("size %dx%d", f.Width, f.Height))
		doc.AddItem(fmt.Sprintf("%d primitives", f.Primitives))
	}
	root.AddChild(doc)
	return debug.DocumentList{Root: root}
}
