package kernel

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/task"
)

// scaleKernel copies a picture task into a smaller one. At half size
// each bilinear fetch lands between four source texels and averages
// them. The instance task is the destination and UserData[0] the source.
type scaleKernel struct {
	res    *Resources
	passes [][2]task.Picture
}

func newScaleKernel(res *Resources, instances []prim.Instance) *scaleKernel {
	k := &scaleKernel{res: res, passes: make([][2]task.Picture, len(instances))}
	tasks := res.Tables.Tasks
	for i, inst := range instances {
		h := inst.Unpack()
		k.passes[i] = [2]task.Picture{tasks.Picture(h.Task), tasks.Picture(task.Index(h.UserData[0]))}
	}
	return k
}

func (k *scaleKernel) Layout() raster.Layout {
	return raster.Layout{Count: 2}
}

func (k *scaleKernel) Vertex(i int, corner geom.Vec2, out *raster.Vertex) {
	dst, src := k.passes[i][0], k.passes[i][1]
	p := dst.Rect.Lerp(corner)
	out.Position = geom.V4(p.X, p.Y, 0, 1)
	out.Varyings.SetVec2(0, src.Rect.Lerp(corner))
}

func (k *scaleKernel) Fragment(f *raster.Fragment, out *raster.Output) bool {
	if k.res.Input == nil {
		return false
	}
	src := k.passes[f.Instance][1]
	out.Color = k.res.Input.Sample(clampUV(f.In.Vec2(0), src.Rect), src.Layer)
	return true
}
