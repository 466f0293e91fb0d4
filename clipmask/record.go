package clipmask

import (
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/task"
)

// Mode selects whether a clip keeps the inside or the outside of its
// shape.
type Mode uint8

const (
	ClipIn Mode = iota
	ClipOut
)

// Apply turns shape coverage into clip alpha.
func (m Mode) Apply(c float32) float32 {
	if m == ClipOut {
		return 1 - c
	}
	return c
}

// Texel counts of the clip records.
const (
	VecsPerRectangle = 4
	VecsPerImage     = 3
	VecsPerBoxShadow = 3
)

// Instance is one clip drawn into a clip-mask target.
type Instance struct {
	// Task is the clip-area task the mask is rendered into.
	Task task.Index

	// Node is the coordinate space of the clip shape.
	Node prim.NodeIndex

	// Address is the clip record.
	Address gpucache.Address
}

// Pack encodes the clip as a primitive instance so it can be drawn by a
// clip kernel. The clip record takes the place of the geometry record.
func (c Instance) Pack() prim.Instance {
	return prim.Header{
		Address:  c.Address,
		Task:     c.Task,
		ClipTask: task.Invalid,
		Node:     c.Node,
	}.Pack()
}

// Rectangle is a rounded-rectangle clip.
type Rectangle struct {
	Rect  geom.Rect
	Radii coverage.Corners
	Mode  Mode
}

// Encode returns the record texels.
func (r Rectangle) Encode() [VecsPerRectangle]geom.Vec4 {
	return [VecsPerRectangle]geom.Vec4{
		r.Rect.Texel(),
		{X: r.Radii[0].X, Y: r.Radii[0].Y, Z: r.Radii[1].X, W: r.Radii[1].Y},
		{X: r.Radii[2].X, Y: r.Radii[2].Y, Z: r.Radii[3].X, W: r.Radii[3].Y},
		{X: float32(r.Mode)},
	}
}

// DecodeRectangle reads a rectangle clip record.
func DecodeRectangle(d []geom.Vec4) Rectangle {
	return Rectangle{
		Rect: geom.RectFromTexel(d[0]),
		// Radii order is tl, tr, br, bl.
		Radii: coverage.Corners{d[1].XY(), d[1].ZW(), d[2].XY(), d[2].ZW()},
		Mode:  Mode(d[3].X),
	}
}

// Distance is the signed distance from p to the clip shape.
func (r Rectangle) Distance(p geom.Vec2) float32 {
	return coverage.SignedDistanceRoundedRect(p, r.Rect, r.Radii)
}

// Image is a clip whose alpha comes from an image mask stretched over a
// local rect.
type Image struct {
	// Rect is the local rect the mask covers.
	Rect geom.Rect

	// UV is the mask rect in texels of the source layer.
	UV    geom.Rect
	Layer int

	// Repeat tiles the mask over Rect with the size of UV.
	Repeat bool
}

// Encode returns the record texels.
func (m Image) Encode() [VecsPerImage]geom.Vec4 {
	var rep float32
	if m.Repeat {
		rep = 1
	}
	return [VecsPerImage]geom.Vec4{
		m.Rect.Texel(),
		m.UV.Texel(),
		{X: float32(m.Layer), Y: rep},
	}
}

// DecodeImage reads an image clip record.
func DecodeImage(d []geom.Vec4) Image {
	return Image{
		Rect:   geom.RectFromTexel(d[0]),
		UV:     geom.RectFromTexel(d[1]),
		Layer:  int(d[2].X),
		Repeat: d[2].Y != 0,
	}
}

// BoxShadow clips to the blurred shadow of a rounded box. Inset shadows
// use ClipOut.
type BoxShadow struct {
	Box    geom.Rect
	Radius float32
	Sigma  float32
	Mode   Mode
}

// Encode returns the record texels.
func (b BoxShadow) Encode() [VecsPerBoxShadow]geom.Vec4 {
	return [VecsPerBoxShadow]geom.Vec4{
		b.Box.Texel(),
		{X: b.Radius, Y: b.Sigma, Z: float32(b.Mode)},
		{},
	}
}

// DecodeBoxShadow reads a box-shadow clip record.
func DecodeBoxShadow(d []geom.Vec4) BoxShadow {
	return BoxShadow{
		Box:    geom.RectFromTexel(d[0]),
		Radius: d[1].X,
		Sigma:  d[1].Y,
		Mode:   Mode(d[1].Z),
	}
}

// Alpha is the clip alpha of the shadow at p.
func (b BoxShadow) Alpha(p geom.Vec2) float32 {
	return b.Mode.Apply(coverage.BoxShadow(b.Box, p, b.Sigma, b.Radius))
}
