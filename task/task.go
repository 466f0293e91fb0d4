// Package task decodes the render-task table: the rectangles the external
// scheduler allocated in intermediate targets, plus per-kind metadata.
//
// Each task occupies three texels. Tasks are packed so that none crosses
// a cache row, which gives index i the coordinate
//
//	(3 * (i mod 341), i div 341)
//
// for a 1024-texel row.
package task

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
)

// VecsPerTask is the number of texels in one task record.
const VecsPerTask = 3

// perRow is the number of task records in one cache row.
const perRow = gpucache.Width / VecsPerTask

// Index identifies a task within a pass.
type Index int32

// Invalid marks "no task". A clip task index of Invalid decodes to the
// no-clip sentinel area.
const Invalid Index = 0x7fff

// ErrTaskOutOfRange is returned when a task table overflows.
var ErrTaskOutOfRange = errors.New("task: index out of range")

// Address returns the cache address of task i.
func Address(i Index) gpucache.Address {
	return gpucache.FromUV(VecsPerTask*int(i%perRow), int(i/perRow))
}

// Picture is a color or alpha target region that primitives are drawn
// into.
type Picture struct {
	// Rect is the allocated region in target pixels.
	Rect geom.Rect

	// Layer is the texture-array layer of the target.
	Layer int

	// ContentOrigin is the device-space position mapped to Rect.P0.
	ContentOrigin geom.Vec2

	// Color is the clear or tint color of the task.
	Color geom.Vec4
}

// ClipArea is the mask region a primitive's clip alpha is read from.
type ClipArea struct {
	// Rect is the mask region in the clip target.
	Rect geom.Rect

	// ScreenOrigin is the device-space position that maps to Rect.P0.
	ScreenOrigin geom.Vec2

	// Layer is the clip target layer.
	Layer int

	// DeviceSpace is set when mask coordinates derive from device
	// rather than local positions.
	DeviceSpace bool

	// Inner is the fully opaque region inside the mask, in target pixels.
	Inner geom.Rect
}

// IsNoClip reports whether the area is the no-clip sentinel, a rect whose
// start equals its end.
func (c ClipArea) IsNoClip() bool {
	return c.Rect.P0 == c.Rect.P1
}

// Blur is a blur pass target.
type Blur struct {
	// Rect is the destination region.
	Rect geom.Rect

	// Layer is the destination layer.
	Layer int

	// Sigma is the blur standard deviation in pixels of the picture
	// before any downscaling.
	Sigma float32

	// ScaleFactor is the number of picture pixels per target pixel. Zero
	// means 1.
	ScaleFactor float32

	// Color tints the blurred result, used by drop shadows.
	Color geom.Vec4
}

// Encode returns the three texels of the task record.
func (p Picture) Encode() [VecsPerTask]geom.Vec4 {
	return [VecsPerTask]geom.Vec4{
		p.Rect.SizeTexel(),
		{X: float32(p.Layer), Y: p.ContentOrigin.X, Z: p.ContentOrigin.Y},
		p.Color,
	}
}

// Encode returns the three texels of the task record.
func (c ClipArea) Encode() [VecsPerTask]geom.Vec4 {
	var device float32
	if c.DeviceSpace {
		device = 1
	}
	return [VecsPerTask]geom.Vec4{
		c.Rect.SizeTexel(),
		{X: c.ScreenOrigin.X, Y: c.ScreenOrigin.Y, Z: float32(c.Layer), W: device},
		c.Inner.Texel(),
	}
}

// Encode returns the three texels of the task record.
func (b Blur) Encode() [VecsPerTask]geom.Vec4 {
	return [VecsPerTask]geom.Vec4{
		b.Rect.SizeTexel(),
		{X: float32(b.Layer), Y: b.Sigma, Z: b.ScaleFactor},
		b.Color,
	}
}

// PassSigma returns Sigma in target pixels.
func (b Blur) PassSigma() float32 {
	if b.ScaleFactor > 0 {
		return b.Sigma / b.ScaleFactor
	}
	return b.Sigma
}

// Table is the read-only view of the task records for one pass.
type Table struct {
	tex *gpucache.Texture
}

// NewTable wraps a frozen task texture.
func NewTable(tex *gpucache.Texture) *Table {
	return &Table{tex: tex}
}

func (t *Table) fetch(i Index) []geom.Vec4 {
	return t.tex.FetchN(Address(i), VecsPerTask)
}

// Picture decodes task i as a picture task.
func (t *Table) Picture(i Index) Picture {
	d := t.fetch(i)
	return Picture{
		Rect:          geom.RectFromSizeTexel(d[0]),
		Layer:         int(d[1].X),
		ContentOrigin: geom.V2(d[1].Y, d[1].Z),
		Color:         d[2],
	}
}

// ClipArea decodes task i as a clip area. Invalid yields the no-clip
// sentinel without touching the table.
func (t *Table) ClipArea(i Index) ClipArea {
	if i == Invalid || i < 0 {
		return ClipArea{}
	}
	d := t.fetch(i)
	return ClipArea{
		Rect:         geom.RectFromSizeTexel(d[0]),
		ScreenOrigin: d[1].XY(),
		Layer:        int(d[1].Z),
		DeviceSpace:  d[1].W != 0,
		Inner:        geom.RectFromTexel(d[2]),
	}
}

// Blur decodes task i as a blur task.
func (t *Table) Blur(i Index) Blur {
	d := t.fetch(i)
	return Blur{
		Rect:        geom.RectFromSizeTexel(d[0]),
		Layer:       int(d[1].X),
		Sigma:       d[1].Y,
		ScaleFactor: d[1].Z,
		Color:       d[2],
	}
}

// Builder collects task records in index order.
type Builder struct {
	cache *gpucache.Builder
	next  Index
}

// NewBuilder returns an empty task table builder.
func NewBuilder() *Builder {
	return &Builder{cache: gpucache.NewBuilder(0)}
}

// Add appends a record and returns its index.
func (b *Builder) Add(texels [VecsPerTask]geom.Vec4) (Index, error) {
	if b.next >= Invalid {
		return 0, fmt.Errorf("%w: %d tasks", ErrTaskOutOfRange, b.next)
	}
	a, err := b.cache.Push(texels[:]...)
	if err != nil {
		return 0, fmt.Errorf("task: add %d: %w", b.next, err)
	}
	i := b.next
	if a != Address(i) {
		return 0, fmt.Errorf("%w: record %d placed at %d", ErrTaskOutOfRange, i, a)
	}
	b.next++
	return i, nil
}

// Len returns the number of tasks added.
func (b *Builder) Len() int {
	return int(b.next)
}

// Freeze returns the task table for the pass.
func (b *Builder) Freeze() *Table {
	return NewTable(b.cache.Freeze())
}
