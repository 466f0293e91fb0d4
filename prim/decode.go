package prim

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/task"
)

// VecsPerGeometry is the size of the primitive header record that every
// primitive starts with. Kind-specific data follows at Address + 2.
const VecsPerGeometry = 2

// NoClipChain is the clip-chain rect index meaning "unbounded".
const NoClipChain = 0

// Tables is the immutable snapshot of everything an instance may refer
// to. It is shared by all kernels of a pass.
type Tables struct {
	// Cache holds geometry and kind-specific primitive records.
	Cache *gpucache.Texture

	// Tasks holds render-task and clip-area records.
	Tasks *task.Table

	// Nodes holds coordinate-space records.
	Nodes *NodeTable

	// ClipChains holds one endpoint texel per clip-chain rect, in the
	// local space of the primitives that use it. Entry 0 is unbounded.
	ClipChains *gpucache.Texture
}

// Geometry is the local-space header of a primitive.
type Geometry struct {
	LocalRect geom.Rect
	LocalClip geom.Rect
}

// Encode returns the geometry record.
func (g Geometry) Encode() [VecsPerGeometry]geom.Vec4 {
	return [VecsPerGeometry]geom.Vec4{g.LocalRect.SizeTexel(), g.LocalClip.SizeTexel()}
}

// FetchGeometry reads the header record at a.
func FetchGeometry(tex *gpucache.Texture, a gpucache.Address) Geometry {
	d := tex.FetchN(a, VecsPerGeometry)
	return Geometry{
		LocalRect: geom.RectFromSizeTexel(d[0]),
		LocalClip: geom.RectFromSizeTexel(d[1]),
	}
}

// Primitive is a fully resolved instance.
type Primitive struct {
	Header   Header
	Node     Node
	ClipArea task.ClipArea
	Task     task.Picture

	// LocalRect is the primitive rect in node space.
	LocalRect geom.Rect

	// LocalClip is the primitive's local clip intersected with its
	// clip-chain rect.
	LocalClip geom.Rect

	// Z is the depth value of the instance.
	Z float32
}

// DataAddress returns the address of the kind-specific record following
// the geometry header.
func (p *Primitive) DataAddress() gpucache.Address {
	return p.Header.Address.Offset(VecsPerGeometry)
}

// Decode resolves an instance against the pass tables. Lookups happen in
// the fixed order node, clip area, render task, geometry.
func Decode(t *Tables, inst Instance) Primitive {
	h := inst.Unpack()
	p := Primitive{Header: h, Z: float32(h.Z)}
	p.Node = t.Nodes.Node(h.Node)
	p.ClipArea = t.Tasks.ClipArea(h.ClipTask)
	p.Task = t.Tasks.Picture(h.Task)

	g := FetchGeometry(t.Cache, h.Address)
	p.LocalRect = g.LocalRect
	p.LocalClip = g.LocalClip
	if h.ClipChainRect != NoClipChain && t.ClipChains != nil {
		chain := geom.RectFromTexel(t.ClipChains.Fetch(gpucache.Address(h.ClipChainRect)))
		p.LocalClip = p.LocalClip.Intersect(chain)
	}
	return p
}

// ClipChainBuilder collects clip-chain rects. Index 0 is reserved for the
// unbounded rect.
type ClipChainBuilder struct {
	cache *gpucache.Builder
}

// NewClipChainBuilder returns a builder holding only the unbounded rect.
func NewClipChainBuilder() *ClipChainBuilder {
	b := &ClipChainBuilder{cache: gpucache.NewBuilder(0)}
	b.cache.Push(geom.V4(-1e9, -1e9, 1e9, 1e9))
	return b
}

// Add appends a rect and returns its index.
func (b *ClipChainBuilder) Add(r geom.Rect) (int, error) {
	a, err := b.cache.Push(r.Texel())
	if err != nil {
		return 0, err
	}
	return int(a), nil
}

// Freeze returns the clip-chain texture for the pass.
func (b *ClipChainBuilder) Freeze() *gpucache.Texture {
	return b.cache.Freeze()
}
