package frame

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/task"
)

// renderMask allocates a clip area covering the device rect bounds and
// queues one clip instance per clip. Instances multiply into the area,
// so it ends up holding the product of all clips.
func (b *Builder) renderMask(node prim.NodeIndex, bounds geom.Rect, clips []Clip) (task.Index, error) {
	x0, y0 := int(math32.Floor(bounds.P0.X)), int(math32.Floor(bounds.P0.Y))
	x1, y1 := int(math32.Ceil(bounds.P1.X)), int(math32.Ceil(bounds.P1.Y))
	w, h := x1-x0, y1-y0
	x, y, layer, ok := b.clipPack.Allocate(w, h)
	if !ok {
		return 0, fmt.Errorf("%w: %dx%d area", ErrClipMaskFull, w, h)
	}
	area := task.ClipArea{
		Rect:         geom.R(float32(x), float32(y), float32(w), float32(h)),
		ScreenOrigin: geom.V2(float32(x0), float32(y0)),
		Layer:        layer,
	}
	idx, err := b.tasks.Add(area.Encode())
	if err != nil {
		return 0, err
	}
	b.clipAreas = append(b.clipAreas, ClipArea{Rect: image.Rect(x, y, x+w, y+h), Layer: layer})

	for _, c := range clips {
		rec := clipmask.Rectangle{Rect: c.Rect, Radii: c.Radii, Mode: c.Mode}.Encode()
		addr, err := b.cache.Push(rec[:]...)
		if err != nil {
			return 0, err
		}
		inst := clipmask.Instance{Task: idx, Node: node, Address: addr}.Pack()
		b.clipInstances[layer] = append(b.clipInstances[layer], inst)
	}
	return idx, nil
}
