package kernel

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// VecsPerSolid is the texel count of a solid record.
const VecsPerSolid = 1

// Solid is a flat color brush.
type Solid struct {
	// Color is premultiplied.
	Color geom.Vec4
}

// Encode returns the record texels.
func (s Solid) Encode() [VecsPerSolid]geom.Vec4 {
	return [VecsPerSolid]geom.Vec4{s.Color}
}

type solidBrush struct {
	colors []geom.Vec4
}

func (k *solidBrush) prepare(b *brush) {
	k.colors = make([]geom.Vec4, len(b.prims))
	for i := range b.prims {
		k.colors[i] = b.res.Tables.Cache.Fetch(b.prims[i].DataAddress())
	}
}

func (k *solidBrush) varyings() int { return 0 }

func (k *solidBrush) vertex(int, *vertex.Input, *vertex.Result, *raster.Varyings) {}

func (k *solidBrush) fragment(s *shading, out *raster.Output) bool {
	out.Color = k.colors[s.f.Instance]
	return true
}
