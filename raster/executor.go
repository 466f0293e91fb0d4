// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/parallel"
	"github.com/gogpu/compositor/render"
)

var (
	// ErrNoTarget is returned for a draw without a target or kernel.
	ErrNoTarget = errors.New("raster: draw has no target or kernel")

	// ErrLayout is returned when a kernel reports an impossible varying
	// layout.
	ErrLayout = errors.New("raster: invalid varying layout")

	// ErrLayer is returned when the draw layer is outside the target.
	ErrLayer = errors.New("raster: layer out of range")
)

// vertexChunk is the number of instances per vertex-stage job.
const vertexChunk = 256

// Draw is one instanced draw call.
type Draw struct {
	// Name labels the draw in logs and debug output.
	Name string

	Kernel    Kernel
	Instances int

	Target *render.TextureArray
	Layer  int

	Blend BlendMode
	Depth DepthMode

	// Scissor restricts the pixels written. The zero rect disables it.
	Scissor image.Rectangle
}

// Stats counts the work done by one draw.
type Stats struct {
	Instances    int
	Fragments    int64
	Discarded    int64
	DepthRejects int64
	Tiles        int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Instances += other.Instances
	s.Fragments += other.Fragments
	s.Discarded += other.Discarded
	s.DepthRejects += other.DepthRejects
	s.Tiles += other.Tiles
}

// Executor runs draws on a worker pool.
type Executor struct {
	pool *parallel.WorkerPool
}

// NewExecutor starts an executor with the given number of workers. Zero
// or negative uses GOMAXPROCS.
func NewExecutor(workers int) *Executor {
	return &Executor{pool: parallel.NewWorkerPool(workers)}
}

// Close stops the workers.
func (e *Executor) Close() {
	e.pool.Close()
}

// Workers returns the worker count.
func (e *Executor) Workers() int {
	return e.pool.Workers()
}

// Run executes d and returns once every fragment is written.
func (e *Executor) Run(ctx context.Context, d *Draw) (Stats, error) {
	if d == nil || d.Kernel == nil || d.Target == nil {
		return Stats{}, ErrNoTarget
	}
	layout := d.Kernel.Layout()
	if !layout.valid() {
		return Stats{}, fmt.Errorf("%w: flat %d count %d", ErrLayout, layout.Flat, layout.Count)
	}
	if d.Layer < 0 || d.Layer >= d.Target.Layers() {
		return Stats{}, fmt.Errorf("%w: %d of %d", ErrLayer, d.Layer, d.Target.Layers())
	}
	stats := Stats{Instances: d.Instances}
	if d.Instances <= 0 {
		return stats, ctx.Err()
	}

	verts := make([]Vertex, d.Instances*4)
	chunks := (d.Instances + vertexChunk - 1) / vertexChunk
	err := e.pool.Run(ctx, chunks, func(c int) error {
		end := min((c+1)*vertexChunk, d.Instances)
		for i := c * vertexChunk; i < end; i++ {
			for k, corner := range quadCorners {
				d.Kernel.Vertex(i, corner, &verts[i*4+k])
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	region := image.Rect(0, 0, d.Target.Width(), d.Target.Height())
	if d.Scissor != (image.Rectangle{}) {
		region = region.Intersect(d.Scissor)
	}
	tiles := parallel.Tiles(region)
	if len(tiles) == 0 {
		return stats, nil
	}
	bins := binInstances(verts, d.Instances, tiles, region)

	var depth []float32
	if d.Depth != DepthNone {
		depth = d.Target.DepthLayer(d.Layer)
	}
	s := shader{
		draw:   d,
		layout: layout,
		verts:  verts,
		pix:    d.Target.Layer(d.Layer),
		depth:  depth,
		width:  d.Target.Width(),
	}

	var fragments, discarded, rejects atomic.Int64
	err = e.pool.Run(ctx, len(tiles), func(i int) error {
		if len(bins[i]) == 0 {
			return nil
		}
		var c counters
		for _, inst := range bins[i] {
			s.instance(inst, tiles[i].Bounds, &c)
		}
		fragments.Add(c.fragments)
		discarded.Add(c.discarded)
		rejects.Add(c.rejects)
		return nil
	})
	for _, b := range bins {
		if len(b) > 0 {
			stats.Tiles++
		}
	}
	stats.Fragments = fragments.Load()
	stats.Discarded = discarded.Load()
	stats.DepthRejects = rejects.Load()

	slogger().Debug("raster: draw",
		"name", d.Name,
		"instances", d.Instances,
		"tiles", stats.Tiles,
		"fragments", stats.Fragments,
		"blend", d.Blend.String())
	return stats, err
}

// binInstances lists, per tile, the instances whose screen bounds touch
// it. Instance order is kept within each bin.
func binInstances(verts []Vertex, n int, tiles []parallel.Tile, region image.Rectangle) [][]int {
	bins := make([][]int, len(tiles))
	tx0, ty0 := tiles[0].X, tiles[0].Y
	cols := tiles[len(tiles)-1].X - tx0 + 1

	for i := range n {
		b, ok := screenBounds(verts[i*4 : i*4+4])
		if !ok {
			continue
		}
		b = b.Intersect(region)
		if b.Empty() {
			continue
		}
		c0 := b.Min.X/parallel.TileWidth - tx0
		r0 := b.Min.Y/parallel.TileHeight - ty0
		c1 := (b.Max.X-1)/parallel.TileWidth - tx0
		r1 := (b.Max.Y-1)/parallel.TileHeight - ty0
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				bins[r*cols+c] = append(bins[r*cols+c], i)
			}
		}
	}
	return bins
}

// screenBounds is the pixel bounding box of a quad. Quads with a corner
// behind the eye are dropped.
func screenBounds(q []Vertex) (image.Rectangle, bool) {
	lo := geom.Splat2(math32.MaxFloat32)
	hi := geom.Splat2(-math32.MaxFloat32)
	for k := range q {
		p := q[k].Position
		if !(p.W > 0) {
			return image.Rectangle{}, false
		}
		s := p.XY().Scale(1 / p.W)
		lo = lo.Min(s)
		hi = hi.Max(s)
	}
	r := image.Rect(
		int(math32.Floor(lo.X)), int(math32.Floor(lo.Y)),
		int(math32.Ceil(hi.X)), int(math32.Ceil(hi.Y)),
	)
	return r, !r.Empty()
}

type counters struct {
	fragments, discarded, rejects int64
}
