package kernel

import (
	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

type clipState struct {
	area   geom.Rect
	origin geom.Vec2
	node   prim.Node

	rect   clipmask.Rectangle
	image  clipmask.Image
	shadow clipmask.BoxShadow
}

// clipKernel renders one clip shape into its clip area. The quad covers
// the whole area so that multiplicative blending zeroes everything the
// shape does not cover.
type clipKernel struct {
	kind  Kind
	res   *Resources
	clips []clipState
}

func newClipKernel(kind Kind, res *Resources, instances []prim.Instance) *clipKernel {
	k := &clipKernel{kind: kind, res: res, clips: make([]clipState, len(instances))}
	t := res.Tables
	for i, inst := range instances {
		h := inst.Unpack()
		area := t.Tasks.ClipArea(h.Task)
		st := &k.clips[i]
		st.area = area.Rect
		st.origin = area.ScreenOrigin
		st.node = t.Nodes.Node(h.Node)
		switch kind {
		case KindClipRectangle:
			st.rect = clipmask.DecodeRectangle(t.Cache.FetchN(h.Address, clipmask.VecsPerRectangle))
		case KindClipImage:
			st.image = clipmask.DecodeImage(t.Cache.FetchN(h.Address, clipmask.VecsPerImage))
		case KindClipBoxShadow:
			st.shadow = clipmask.DecodeBoxShadow(t.Cache.FetchN(h.Address, clipmask.VecsPerBoxShadow))
		}
	}
	return k
}

const vClipLocal = 0 // x, y, w

func clipLocal(v *raster.Varyings) geom.Vec2 {
	return v.Vec2(vClipLocal).Scale(1 / v[vClipLocal+2])
}

func (k *clipKernel) Layout() raster.Layout {
	return raster.Layout{Count: 3}
}

func (k *clipKernel) Vertex(i int, corner geom.Vec2, out *raster.Vertex) {
	st := &k.clips[i]
	p := st.area.Lerp(corner)
	out.Position = geom.V4(p.X, p.Y, 0, 1)
	global := p.Sub(st.area.P0).Add(st.origin)
	l := vertex.Untransform(global.Scale(1/k.res.dpr()), st.node)
	v := &out.Varyings
	v[vClipLocal], v[vClipLocal+1], v[vClipLocal+2] = l.X, l.Y, l.W
}

func (k *clipKernel) Fragment(f *raster.Fragment, out *raster.Output) bool {
	st := &k.clips[f.Instance]
	local := clipLocal(f.In)
	var a float32
	switch k.kind {
	case KindClipRectangle:
		aa := coverage.AARange(f.Fwidth(clipLocal))
		a = st.rect.Mode.Apply(clipmask.Combine(aa, st.rect.Distance(local)))
	case KindClipImage:
		a = k.imageAlpha(&st.image, local)
	case KindClipBoxShadow:
		a = st.shadow.Alpha(local)
	}
	out.Color = geom.Splat4(a)
	return true
}

func (k *clipKernel) imageAlpha(m *clipmask.Image, local geom.Vec2) float32 {
	if !m.Rect.Contains(local) {
		return 0
	}
	t := m.Rect.Normalize(local)
	if m.Repeat {
		tile := m.UV.Size()
		if tile.X > 0 && tile.Y > 0 {
			q := local.Sub(m.Rect.P0).Div(tile)
			t = geom.V2(geom.Fract(q.X), geom.Fract(q.Y))
		}
	}
	tex := k.res.Color
	if tex == nil {
		return 0
	}
	return maskValue(tex, tex.Sample(clampUV(m.UV.Lerp(t), m.UV), m.Layer))
}
