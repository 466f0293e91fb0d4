// Package vertex places primitive corners in the active target.
//
// Two paths exist. [Simple] handles axis-aligned nodes: corners are
// clamped to the local clip, transformed, and snapped to whole device
// pixels. [Transformed] handles rotated or 3D nodes: it rasterizes the
// device-space bounding rect of the primitive and recovers the local
// position of each destination corner by projecting it back onto the
// primitive's plane.
package vertex

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/task"
)

// Input is what a kernel hands to the vertex stage for one corner.
type Input struct {
	// Corner is the unit-square corner being processed.
	Corner geom.Vec2

	// LocalRect is the rect to emit, in node space.
	LocalRect geom.Rect

	// LocalClip bounds LocalRect.
	LocalClip geom.Rect

	// SnapRect is the rect whose device position is rounded to whole
	// pixels. An empty SnapRect snaps LocalRect.
	SnapRect geom.Rect

	Node prim.Node
	Task task.Picture
	Z    float32

	// DevicePixelRatio scales world units to device pixels.
	DevicePixelRatio float32
}

// FromPrimitive fills an Input from a decoded primitive.
func FromPrimitive(p *prim.Primitive, corner geom.Vec2, dpr float32) Input {
	return Input{
		Corner:           corner,
		LocalRect:        p.LocalRect,
		LocalClip:        p.LocalClip,
		Node:             p.Node,
		Task:             p.Task,
		Z:                p.Z,
		DevicePixelRatio: dpr,
	}
}

// Result is the output of the vertex stage.
type Result struct {
	// Device is the homogeneous target position. Dividing xyz by W gives
	// target pixels and depth.
	Device geom.Vec4

	// Global is the snapped device position before the task offset is
	// applied. Clip-mask coordinates derive from it.
	Global geom.Vec2

	// Local is the node-space position. The position is Local.XY()
	// divided by Local.Z.
	Local geom.Vec3

	// LocalBounds is the rect coverage is measured against on the
	// transformed path. Non-antialiased edges are pushed out of reach.
	LocalBounds geom.Rect

	// SnapOffset is the device-pixel offset applied by snapping.
	SnapOffset geom.Vec2
}

// LocalPos returns the node-space position of the result.
func (r Result) LocalPos() geom.Vec2 {
	return r.Local.XY().Scale(1 / r.Local.Z)
}

// SnapOffset returns the device offset that moves snapRect onto whole
// device pixels, evaluated at ref. All vertices of one primitive get
// offsets from the same snap rect so the primitive moves in lock-step.
func SnapOffset(ref geom.Vec2, m geom.Mat4, snapRect geom.Rect, dpr float32) geom.Vec2 {
	size := snapRect.Size().Max(geom.Splat2(1 / dpr))
	p0 := snapRect.P0
	w0 := m.MulPoint(p0)
	w1 := m.MulPoint(p0.Add(size))
	s0 := w0.XY().Scale(dpr / w0.W)
	s1 := w1.XY().Scale(dpr / w1.W)
	o0 := s0.Add(geom.Splat2(0.5)).Floor().Sub(s0)
	o1 := s1.Add(geom.Splat2(0.5)).Floor().Sub(s1)
	t := ref.Sub(p0).Div(size)
	return o0.Lerp(o1, t)
}

// Simple is the axis-aligned path.
func Simple(in Input) Result {
	local := in.LocalRect.Lerp(in.Corner)
	local = in.LocalRect.Clamp(local)
	local = in.LocalClip.Clamp(local)

	world := in.Node.Transform.MulPoint(local)
	device := world.XY().Scale(in.DevicePixelRatio / world.W)

	snap := in.SnapRect
	if snap.Empty() {
		snap = in.LocalRect
	}
	offset := SnapOffset(local, in.Node.Transform, snap, in.DevicePixelRatio)
	global := device.Add(offset)
	final := global.Sub(in.Task.ContentOrigin).Add(in.Task.Rect.P0)

	return Result{
		Device:      geom.V4(final.X, final.Y, in.Z, 1),
		Global:      global,
		Local:       geom.V3(local.X, local.Y, 1),
		LocalBounds: in.LocalRect.Intersect(in.LocalClip),
		SnapOffset:  offset,
	}
}

// EdgeMask selects which edges of a rect are antialiased, in the order
// left, top, right, bottom.
type EdgeMask [4]bool

// AllEdges antialiases every edge.
var AllEdges = EdgeMask{true, true, true, true}

// extrudeDistance is how far, in local units, antialiased edges are
// pushed out so the falloff has room to render.
const extrudeDistance = 2

// unbounded pushes non-antialiased edges out of coverage reach.
const unbounded = 1e6

// LocalBounds returns the rect the transformed path measures coverage
// against: the local rect clipped to the local clip, with edges that are
// not antialiased pushed out of reach.
func LocalBounds(in Input, edges EdgeMask) geom.Rect {
	bounds := in.LocalRect.Intersect(in.LocalClip)
	for i, aa := range edges {
		if aa {
			continue
		}
		switch i {
		case 0:
			bounds.P0.X = -unbounded
		case 1:
			bounds.P0.Y = -unbounded
		case 2:
			bounds.P1.X = unbounded
		case 3:
			bounds.P1.Y = unbounded
		}
	}
	return bounds
}

// Transformed is the general path for rotated and perspective nodes.
// With perspective set the device W carries the projective term and the
// rasterizer interpolates varyings perspective-correctly; otherwise W is
// forced to 1 and Local carries the homogeneous divisor.
func Transformed(in Input, edges EdgeMask, perspective bool) Result {
	bounds := LocalBounds(in, edges)

	var ext [4]float32
	for i, aa := range edges {
		if aa {
			ext[i] = extrudeDistance
		}
	}
	rect := geom.Rect{
		P0: in.LocalRect.P0.Sub(geom.V2(ext[0], ext[1])),
		P1: in.LocalRect.P1.Add(geom.V2(ext[2], ext[3])),
	}
	rect = geom.Rect{P0: in.LocalClip.Clamp(rect.P0), P1: in.LocalClip.Clamp(rect.P1)}

	m := in.Node.Transform
	dpr := in.DevicePixelRatio
	corners := [4]geom.Vec2{rect.P0, {X: rect.P1.X, Y: rect.P0.Y}, {X: rect.P0.X, Y: rect.P1.Y}, rect.P1}
	lo := geom.Splat2(math32.MaxFloat32)
	hi := geom.Splat2(-math32.MaxFloat32)
	for _, c := range corners {
		w := m.MulPoint(c)
		d := w.XY().Scale(dpr / w.W)
		lo = lo.Min(d)
		hi = hi.Max(d)
	}

	global := lo.Lerp(hi, in.Corner)
	r := Untransform(global.Scale(1/dpr), in.Node)
	final := global.Sub(in.Task.ContentOrigin).Add(in.Task.Rect.P0)

	res := Result{Global: global, LocalBounds: bounds}
	rw := r.W
	if math32.Abs(rw) < 1e-6 {
		if rw < 0 {
			rw = -1e-6
		} else {
			rw = 1e-6
		}
	}
	if perspective {
		w := 1 / rw
		res.Device = geom.V4(final.X*w, final.Y*w, in.Z*w, w)
		res.Local = geom.V3(r.X/rw, r.Y/rw, 1)
	} else {
		res.Device = geom.V4(final.X, final.Y, in.Z, 1)
		res.Local = geom.V3(r.X, r.Y, rw)
	}
	return res
}

// Untransform projects a world-space screen point onto the plane of the
// node and returns the homogeneous node-space position of the hit.
func Untransform(ref geom.Vec2, n prim.Node) geom.Vec4 {
	ah := n.Transform.MulVec4(geom.V4(0, 0, 0, 1))
	a := ah.XYZ().Scale(1 / ah.W)
	normal := n.Inverse.Transpose3Col(2)
	origin := geom.V3(ref.X, ref.Y, -10000)
	dir := geom.V3(0, 0, 1)

	z := origin.Z
	if t, ok := rayPlane(normal, a, origin, dir); ok {
		z = origin.Z + dir.Z*t
	}
	return n.Inverse.MulVec4(geom.V4(ref.X, ref.Y, z, 1))
}

func rayPlane(normal, point, origin, dir geom.Vec3) (float32, bool) {
	denom := normal.Dot(dir)
	if math32.Abs(denom) <= 1e-6 {
		return 0, false
	}
	t := point.Sub(origin).Dot(normal) / denom
	return t, t >= 0
}

// Write dispatches to the transformed path when the kernel variant was
// built for transforms, otherwise to the simple path.
func Write(in Input, transform bool, edges EdgeMask) Result {
	if transform {
		return Transformed(in, edges, false)
	}
	return Simple(in)
}
