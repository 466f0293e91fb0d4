package frame

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/internal/shelf"
	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/task"
	"github.com/gogpu/compositor/text"
)

// DefaultClipLayers is the clip target depth used when Options leaves
// it unset.
const DefaultClipLayers = 4

// unbounded is the local clip of primitives without one.
var unbounded = geom.Rect{P0: geom.Splat2(-1e9), P1: geom.Splat2(1e9)}

// Options configures a Builder.
type Options struct {
	// DevicePixelRatio scales world units to device pixels. Zero means 1.
	DevicePixelRatio float32

	// Dither enables gradient dithering.
	Dither bool

	// SubpixelText positions glyphs at quarter-pixel horizontal offsets
	// on axis-aligned nodes.
	SubpixelText bool

	// Glyphs and Shaper are required for text.
	Glyphs *text.GlyphCache
	Shaper *text.Shaper

	// LUTs shares gradient color tables across frames. Nil builds a
	// table per gradient.
	LUTs *kernel.LUTCache

	// Images is the image atlas read by image primitives.
	Images *render.TextureArray

	// ClipLayers bounds the number of clip target layers.
	ClipLayers int
}

func (o *Options) dpr() float32 {
	if o.DevicePixelRatio > 0 {
		return o.DevicePixelRatio
	}
	return 1
}

// Clip is a rounded-rect clip in the node space of the primitive it is
// attached to.
type Clip struct {
	Rect  geom.Rect
	Radii coverage.Corners
	Mode  clipmask.Mode
}

// simple reports whether the clip is a plain rect that the clip-chain
// rect can express without a mask.
func (c Clip) simple() bool {
	return c.Mode == clipmask.ClipIn && c.Radii == coverage.Corners{}
}

// Common holds the properties every primitive has.
type Common struct {
	Node prim.NodeIndex
	Rect geom.Rect

	// Clip is a hard clip rect in node space. The zero rect means none.
	Clip geom.Rect

	// Clips are applied in addition to Clip. Plain rects become the
	// clip-chain rect, anything else is rendered into a clip mask.
	Clips []Clip
}

type item struct {
	prog      *kernel.Program
	instances []prim.Instance
	opaque    bool

	// bounds is the device rect the instances may touch.
	bounds geom.Rect
}

type programKey struct {
	kind    kernel.Kind
	variant kernel.Variant
}

// Builder collects the primitives of one frame. It is not safe for
// concurrent use.
type Builder struct {
	opts          Options
	width, height int

	cache  *gpucache.Builder
	tasks  *task.Builder
	nodes  *prim.NodeBuilder
	chains *prim.ClipChainBuilder

	// Node transforms by index, kept to compute device bounds.
	transforms []geom.Mat4
	aligned    []bool

	picture task.Index
	root    prim.NodeIndex

	chainIndex map[geom.Rect]int

	clipPack      *shelf.Packer
	clipAreas     []ClipArea
	clipInstances [][]prim.Instance

	programs map[programKey]*kernel.Program
	items    []item
	texts    []textItem
	z        int32
	done     bool
}

// New returns a builder for a width x height device-pixel frame with an
// identity root node.
func New(width, height int, opts Options) (*Builder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame: invalid size %dx%d", width, height)
	}
	layers := opts.ClipLayers
	if layers <= 0 {
		layers = DefaultClipLayers
	}
	b := &Builder{
		opts:          opts,
		width:         width,
		height:        height,
		cache:         gpucache.NewBuilder(0),
		tasks:         task.NewBuilder(),
		nodes:         prim.NewNodeBuilder(),
		chains:        prim.NewClipChainBuilder(),
		chainIndex:    make(map[geom.Rect]int),
		clipPack:      shelf.New(width, height, layers),
		clipInstances: make([][]prim.Instance, layers),
		programs:      make(map[programKey]*kernel.Program),
	}
	pic := task.Picture{Rect: geom.R(0, 0, float32(width), float32(height))}
	var err error
	if b.picture, err = b.tasks.Add(pic.Encode()); err != nil {
		return nil, err
	}
	if b.root, err = b.Node(geom.Identity()); err != nil {
		return nil, err
	}
	return b, nil
}

// Root returns the identity node.
func (b *Builder) Root() prim.NodeIndex { return b.root }

// Node adds a coordinate space with the given local-to-world transform.
func (b *Builder) Node(m geom.Mat4) (prim.NodeIndex, error) {
	n := prim.NewNode(m)
	i, err := b.nodes.Add(n)
	if err != nil {
		return 0, err
	}
	b.transforms = append(b.transforms, m)
	b.aligned = append(b.aligned, n.AxisAligned)
	return i, nil
}

// Rect adds a solid color rect. Color is premultiplied.
func (b *Builder) Rect(c Common, color geom.Vec4) error {
	p, ok, err := b.place(c, c.Rect)
	if err != nil || !ok {
		return err
	}
	opaque := color.W >= 1 && !p.masked && !p.clipped && b.aligned[c.Node] && pixelAligned(p.device)
	rec := kernel.Solid{Color: color}.Encode()
	return b.add(kernel.KindSolid, 0, opaque, p, c.Rect, rec[:], nil)
}

// Image adds an image rect.
func (b *Builder) Image(c Common, img kernel.Image) error {
	p, ok, err := b.place(c, c.Rect)
	if err != nil || !ok {
		return err
	}
	var v kernel.Variant
	if img.Tile != (geom.Vec2{}) {
		v |= kernel.Repeat
	}
	rec := img.Encode()
	return b.add(kernel.KindImage, v, false, p, c.Rect, rec[:], nil)
}

// LinearGradient adds a linear gradient rect.
func (b *Builder) LinearGradient(c Common, g kernel.LinearGradient, stops []kernel.Stop) error {
	return b.gradient(c, kernel.KindLinearGradient, stops, g.Encode)
}

// RadialGradient adds a radial gradient rect.
func (b *Builder) RadialGradient(c Common, g kernel.RadialGradient, stops []kernel.Stop) error {
	return b.gradient(c, kernel.KindRadialGradient, stops, g.Encode)
}

// ConicGradient adds a conic gradient rect.
func (b *Builder) ConicGradient(c Common, g kernel.ConicGradient, stops []kernel.Stop) error {
	return b.gradient(c, kernel.KindConicGradient, stops, g.Encode)
}

func (b *Builder) gradient(c Common, kind kernel.Kind, stops []kernel.Stop, encode func(*kernel.LUT) []geom.Vec4) error {
	if len(stops) == 0 {
		return errors.New("frame: gradient without stops")
	}
	p, ok, err := b.place(c, c.Rect)
	if err != nil || !ok {
		return err
	}
	sorted := slices.Clone(stops)
	kernel.SortStops(sorted)
	var lut *kernel.LUT
	if b.opts.LUTs != nil {
		lut = b.opts.LUTs.Get(sorted)
	} else {
		lut = kernel.BuildLUT(sorted)
	}
	var v kernel.Variant
	if b.opts.Dither {
		v |= kernel.Dither
	}
	return b.add(kind, v, false, p, c.Rect, encode(lut), nil)
}

// Border adds a border whose outer edge is c.Rect. Each visible segment
// is drawn as its own instance.
func (b *Builder) Border(c Common, border kernel.Border) error {
	segs := border.Segments()
	if len(segs) == 0 {
		return nil
	}
	p, ok, err := b.place(c, c.Rect)
	if err != nil || !ok {
		return err
	}
	var corners, edges [][3]int32
	for _, s := range segs {
		if s.IsCorner() {
			corners = append(corners, [3]int32{int32(s)})
		} else {
			edges = append(edges, [3]int32{int32(s)})
		}
	}
	rec := border.Encode()
	addr, err := b.push(p, c.Rect, rec[:])
	if err != nil {
		return err
	}
	for _, group := range []struct {
		kind kernel.Kind
		ud   [][3]int32
	}{{kernel.KindBorderCorner, corners}, {kernel.KindBorderEdge, edges}} {
		if len(group.ud) == 0 {
			continue
		}
		if err := b.addAt(group.kind, 0, false, p, addr, group.ud); err != nil {
			return err
		}
	}
	return nil
}

// BoxShadow adds a box shadow. The primitive rect is derived from the
// shadow, c.Rect is ignored.
func (b *Builder) BoxShadow(c Common, s kernel.BoxShadow) error {
	rect := s.Bounds()
	if rect.Empty() {
		return nil
	}
	p, ok, err := b.place(c, rect)
	if err != nil || !ok {
		return err
	}
	rec := s.Encode()
	return b.add(kernel.KindBoxShadow, 0, false, p, rect, rec[:], nil)
}

// placement is the resolved header and bounds of a visible primitive.
type placement struct {
	header prim.Header
	clip   geom.Rect

	// device is the unrounded device rect of the visible part.
	device geom.Rect

	// clipped is set when a clip cuts into the primitive rect.
	clipped bool

	// masked is set when the primitive reads a clip mask.
	masked bool
}

// place resolves the clips of a primitive and assigns its depth. It
// returns false when nothing of rect is visible.
func (b *Builder) place(c Common, rect geom.Rect) (placement, bool, error) {
	if b.done {
		return placement{}, false, ErrFinished
	}
	if int(c.Node) >= len(b.transforms) {
		return placement{}, false, fmt.Errorf("frame: unknown node %d", c.Node)
	}
	p := placement{clip: c.Clip}
	if p.clip == (geom.Rect{}) {
		p.clip = unbounded
	}
	visible := rect.Intersect(p.clip)

	chain := unbounded
	var masks []Clip
	for _, cl := range c.Clips {
		if cl.simple() {
			chain = chain.Intersect(cl.Rect)
			continue
		}
		if cl.Mode == clipmask.ClipIn {
			visible = visible.Intersect(cl.Rect)
		}
		masks = append(masks, cl)
	}
	visible = visible.Intersect(chain)
	if visible.Empty() {
		return placement{}, false, nil
	}
	p.clipped = visible != rect

	p.device = b.deviceBounds(c.Node, visible)
	frame := geom.R(0, 0, float32(b.width), float32(b.height))
	if p.device.Intersect(frame).Empty() {
		return placement{}, false, nil
	}

	clipTask := task.Invalid
	if len(masks) > 0 {
		var err error
		if clipTask, err = b.renderMask(c.Node, p.device.Intersect(frame), masks); err != nil {
			return placement{}, false, err
		}
		p.masked = true
	}

	chainRect := prim.NoClipChain
	if chain != unbounded {
		var err error
		if chainRect, err = b.chainRect(chain); err != nil {
			return placement{}, false, err
		}
	}

	b.z++
	p.header = prim.Header{
		Task:          b.picture,
		ClipTask:      clipTask,
		ClipChainRect: chainRect,
		Node:          c.Node,
		Z:             b.z,
	}
	return p, true, nil
}

func (b *Builder) chainRect(r geom.Rect) (int, error) {
	if i, ok := b.chainIndex[r]; ok {
		return i, nil
	}
	i, err := b.chains.Add(r)
	if err != nil {
		return 0, err
	}
	b.chainIndex[r] = i
	return i, nil
}

// deviceBounds returns the device rect covering the local rect r of
// node. Rects crossing the w = 0 plane cover the whole frame.
func (b *Builder) deviceBounds(node prim.NodeIndex, r geom.Rect) geom.Rect {
	m := b.transforms[node]
	dpr := b.opts.dpr()
	corners := [4]geom.Vec2{r.P0, {X: r.P1.X, Y: r.P0.Y}, r.P1, {X: r.P0.X, Y: r.P1.Y}}
	var out geom.Rect
	for i, c := range corners {
		w := m.MulPoint(c)
		if w.W <= 0 {
			return geom.R(0, 0, float32(b.width), float32(b.height))
		}
		d := w.XY().Scale(dpr / w.W)
		if i == 0 {
			out = geom.Rect{P0: d, P1: d}
			continue
		}
		out.P0, out.P1 = out.P0.Min(d), out.P1.Max(d)
	}
	return out
}

// deviceScale is the number of device pixels per local unit along the
// longer node axis.
func (b *Builder) deviceScale(node prim.NodeIndex) float32 {
	m := b.transforms[node]
	return geom.V2(m.Cols[0].XY().Len(), m.Cols[1].XY().Len()).MaxComponent() * b.opts.dpr()
}

func pixelAligned(r geom.Rect) bool {
	const eps = 1.0 / 256
	for _, v := range [4]float32{r.P0.X, r.P0.Y, r.P1.X, r.P1.Y} {
		if math32.Abs(v-math32.Round(v)) > eps {
			return false
		}
	}
	return true
}

func (b *Builder) program(kind kernel.Kind, v kernel.Variant) (*kernel.Program, error) {
	v &= kernel.Supported(kind)
	key := programKey{kind, v}
	if p, ok := b.programs[key]; ok {
		return p, nil
	}
	p, err := kernel.Build(kind, v)
	if err != nil {
		return nil, err
	}
	b.programs[key] = p
	return p, nil
}

// push writes the geometry header of a placed primitive and its kind
// record.
func (b *Builder) push(p placement, rect geom.Rect, data []geom.Vec4) (gpucache.Address, error) {
	g := prim.Geometry{LocalRect: rect, LocalClip: p.clip}.Encode()
	return b.cache.Push(append(g[:], data...)...)
}

// add writes the records of a placed primitive and queues its
// instances. A nil userData queues a single instance.
func (b *Builder) add(kind kernel.Kind, v kernel.Variant, opaque bool, p placement, rect geom.Rect, data []geom.Vec4, userData [][3]int32) error {
	addr, err := b.push(p, rect, data)
	if err != nil {
		return err
	}
	return b.addAt(kind, v, opaque, p, addr, userData)
}

func (b *Builder) addAt(kind kernel.Kind, v kernel.Variant, opaque bool, p placement, addr gpucache.Address, userData [][3]int32) error {
	node := p.header.Node
	if !b.aligned[node] {
		v |= kernel.Transform
	}
	if !opaque {
		v |= kernel.AlphaPass
	}
	prog, err := b.program(kind, v)
	if err != nil {
		return err
	}
	if userData == nil {
		userData = [][3]int32{{}}
	}
	h := p.header
	h.Address = addr
	instances := make([]prim.Instance, len(userData))
	for i, ud := range userData {
		h.UserData = ud
		instances[i] = h.Pack()
	}
	b.items = append(b.items, item{prog: prog, instances: instances, opaque: opaque, bounds: p.device})
	return nil
}

// Finish resolves text, sorts the primitives into batches and freezes
// the frame tables. The builder cannot be used afterwards.
func (b *Builder) Finish() (*Frame, error) {
	if b.done {
		return nil, ErrFinished
	}
	b.done = true
	if err := b.resolveText(); err != nil {
		return nil, err
	}

	f := &Frame{
		Width:  b.width,
		Height: b.height,
		Resources: kernel.Resources{
			Tables: &prim.Tables{
				Cache:      b.cache.Freeze(),
				Tasks:      b.tasks.Freeze(),
				Nodes:      b.nodes.Freeze(),
				ClipChains: b.chains.Freeze(),
			},
			DevicePixelRatio: b.opts.dpr(),
			Color:            b.opts.Images,
		},
		ClipAreas: b.clipAreas,
		nodes:     b.aligned,
	}
	if b.opts.Glyphs != nil {
		f.Resources.Glyphs = b.opts.Glyphs.Atlas().Texture()
	}

	for layer, instances := range b.clipInstances {
		if len(instances) == 0 {
			continue
		}
		prog, err := b.program(kernel.KindClipRectangle, 0)
		if err != nil {
			return nil, err
		}
		f.Clips = append(f.Clips, Batch{Program: prog, Instances: instances, Layer: layer})
		f.ClipLayers = layer + 1
	}
	for _, it := range b.items {
		if len(it.instances) > 0 {
			f.Primitives++
		}
	}
	f.Opaque, f.Alpha = batch(b.items)
	return f, nil
}
