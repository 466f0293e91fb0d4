package kernel

import (
	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/blend"
	"github.com/gogpu/compositor/internal/filter"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/task"
	"github.com/gogpu/compositor/vertex"
)

// Record sizes of the compositing kinds.
const (
	VecsPerSplitComposite = 4
	VecsPerMixBlend       = 1
	VecsPerFilter         = 1 + filter.Texels
)

// SplitComposite draws one plane-split polygon of a 3D-transformed
// picture. The corners of the source task map to Points in order
// top-left, top-right, bottom-right, bottom-left.
type SplitComposite struct {
	// Points are in device space.
	Points [4]geom.Vec2
	Source task.Index
	Z      float32
}

// Encode returns the record texels.
func (c SplitComposite) Encode() [VecsPerSplitComposite]geom.Vec4 {
	p := c.Points
	return [VecsPerSplitComposite]geom.Vec4{
		{X: p[0].X, Y: p[0].Y, Z: p[1].X, W: p[1].Y},
		{X: p[2].X, Y: p[2].Y, Z: p[3].X, W: p[3].Y},
		{X: float32(c.Source), Y: c.Z},
		{},
	}
}

// DecodeSplitComposite reads a split composite record.
func DecodeSplitComposite(d []geom.Vec4) SplitComposite {
	return SplitComposite{
		Points: [4]geom.Vec2{d[0].XY(), d[0].ZW(), d[1].XY(), d[1].ZW()},
		Source: task.Index(d[2].X),
		Z:      d[2].Y,
	}
}

// Point returns the bilinear interpolation of the polygon corners at a
// unit-square position.
func (c SplitComposite) Point(t geom.Vec2) geom.Vec2 {
	top := c.Points[0].Lerp(c.Points[1], geom.Splat2(t.X))
	bottom := c.Points[3].Lerp(c.Points[2], geom.Splat2(t.X))
	return top.Lerp(bottom, geom.Splat2(t.Y))
}

type splitState struct {
	rec  SplitComposite
	dst  task.Picture
	src  task.Picture
	area task.ClipArea
}

// splitKernel reads the instance record at the header address directly,
// without a geometry header.
type splitKernel struct {
	prog  *Program
	res   *Resources
	polys []splitState
}

func newSplitKernel(p *Program, res *Resources, instances []prim.Instance) *splitKernel {
	k := &splitKernel{prog: p, res: res, polys: make([]splitState, len(instances))}
	t := res.Tables
	for i, inst := range instances {
		h := inst.Unpack()
		st := &k.polys[i]
		st.rec = DecodeSplitComposite(t.Cache.FetchN(h.Address, VecsPerSplitComposite))
		st.dst = t.Tasks.Picture(h.Task)
		st.src = t.Tasks.Picture(st.rec.Source)
		st.area = t.Tasks.ClipArea(h.ClipTask)
	}
	return k
}

const (
	vSplitUV   = 0
	vSplitMask = 2
)

func (k *splitKernel) Layout() raster.Layout {
	return raster.Layout{Count: 4}
}

func (k *splitKernel) Vertex(i int, corner geom.Vec2, out *raster.Vertex) {
	st := &k.polys[i]
	global := st.rec.Point(corner)
	p := global.Sub(st.dst.ContentOrigin).Add(st.dst.Rect.P0)
	out.Position = geom.V4(p.X, p.Y, st.rec.Z, 1)
	out.Varyings.SetVec2(vSplitUV, st.src.Rect.Lerp(corner))
	out.Varyings.SetVec2(vSplitMask, clipmask.MaskPos(st.area, global))
}

func (k *splitKernel) Fragment(f *raster.Fragment, out *raster.Output) bool {
	st := &k.polys[f.Instance]
	if k.res.Input == nil {
		return false
	}
	uv := clampUV(f.In.Vec2(vSplitUV), st.src.Rect)
	c := k.res.Input.Sample(uv, st.src.Layer)
	if k.prog.has(AlphaPass) {
		c = c.Scale(clipmask.Evaluate(k.res.ClipMask, st.area, f.In.Vec2(vSplitMask)))
	}
	out.Color = c
	return true
}

// taskUV maps a device position to the texels of picture task p.
func taskUV(p task.Picture, global geom.Vec2) geom.Vec2 {
	return global.Sub(p.ContentOrigin).Add(p.Rect.P0)
}

const vGlobal = vUser

// readSource samples a picture task of the input target at a device
// position.
func readSource(res *Resources, p task.Picture, global geom.Vec2) geom.Vec4 {
	return sample(res.Input, clampUV(taskUV(p, global), p.Rect), p.Layer)
}

// MixBlend composites a source picture over a backdrop picture with a
// blend mode. Both are read from the input target.
type MixBlend struct {
	Backdrop task.Index
	Source   task.Index
	Mode     blend.Mode
}

// Encode returns the record texels.
func (m MixBlend) Encode() [VecsPerMixBlend]geom.Vec4 {
	return [VecsPerMixBlend]geom.Vec4{
		{X: float32(m.Backdrop), Y: float32(m.Source), Z: float32(m.Mode)},
	}
}

type mixState struct {
	backdrop, source task.Picture
	mode             blend.Mode
}

type mixBlendBrush struct {
	res   *Resources
	mixes []mixState
}

func (k *mixBlendBrush) prepare(b *brush) {
	k.res = b.res
	k.mixes = make([]mixState, len(b.prims))
	tasks := b.res.Tables.Tasks
	for i := range b.prims {
		d := b.res.Tables.Cache.Fetch(b.prims[i].DataAddress())
		k.mixes[i] = mixState{
			backdrop: tasks.Picture(task.Index(d.X)),
			source:   tasks.Picture(task.Index(d.Y)),
			mode:     blend.Mode(d.Z),
		}
	}
}

func (k *mixBlendBrush) varyings() int { return 2 }

func (k *mixBlendBrush) vertex(_ int, _ *vertex.Input, r *vertex.Result, v *raster.Varyings) {
	v.SetVec2(vGlobal, r.Global)
}

func (k *mixBlendBrush) fragment(s *shading, out *raster.Output) bool {
	m := &k.mixes[s.f.Instance]
	global := s.f.In.Vec2(vGlobal)
	backdrop := readSource(k.res, m.backdrop, global)
	src := readSource(k.res, m.source, global)
	out.Color = blend.Mix(backdrop, src, m.mode)
	return true
}

// Filter applies a color matrix to a source picture.
type Filter struct {
	Source task.Index
	Matrix filter.Matrix
}

// Encode returns the record texels.
func (f Filter) Encode() [VecsPerFilter]geom.Vec4 {
	var d [VecsPerFilter]geom.Vec4
	d[0] = geom.Vec4{X: float32(f.Source)}
	m := f.Matrix.Encode()
	copy(d[1:], m[:])
	return d
}

type filterState struct {
	source task.Picture
	matrix filter.Matrix
}

type filterBrush struct {
	res     *Resources
	filters []filterState
}

func (k *filterBrush) prepare(b *brush) {
	k.res = b.res
	k.filters = make([]filterState, len(b.prims))
	for i := range b.prims {
		d := b.res.Tables.Cache.FetchN(b.prims[i].DataAddress(), VecsPerFilter)
		k.filters[i] = filterState{
			source: b.res.Tables.Tasks.Picture(task.Index(d[0].X)),
			matrix: filter.Decode(d[1:]),
		}
	}
}

func (k *filterBrush) varyings() int { return 2 }

func (k *filterBrush) vertex(_ int, _ *vertex.Input, r *vertex.Result, v *raster.Varyings) {
	v.SetVec2(vGlobal, r.Global)
}

func (k *filterBrush) fragment(s *shading, out *raster.Output) bool {
	st := &k.filters[s.f.Instance]
	out.Color = st.matrix.Apply(readSource(k.res, st.source, s.f.In.Vec2(vGlobal)))
	return true
}
