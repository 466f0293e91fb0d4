package kernel

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/vertex"
)

// VecsPerImage is the texel count of an image brush record.
const VecsPerImage = 2

// RasterSpace selects which position an image brush derives its texture
// coordinates from.
type RasterSpace uint8

const (
	// RasterLocal maps the local rect onto the image.
	RasterLocal RasterSpace = iota

	// RasterScreen maps the device rect of the quad onto the image, for
	// content already rasterized in screen space such as drop shadows.
	RasterScreen
)

// Image is an image brush.
type Image struct {
	// UV is the source rect in texels.
	UV    geom.Rect
	Layer int

	// Tile is the local size of one repetition. Zero stretches the image
	// over the primitive rect.
	Tile geom.Vec2

	Space RasterSpace
}

// Encode returns the record texels.
func (m Image) Encode() [VecsPerImage]geom.Vec4 {
	return [VecsPerImage]geom.Vec4{
		m.UV.Texel(),
		{X: float32(m.Layer), Y: m.Tile.X, Z: m.Tile.Y, W: float32(m.Space)},
	}
}

// DecodeImage reads an image brush record.
func DecodeImage(d []geom.Vec4) Image {
	return Image{
		UV:    geom.RectFromTexel(d[0]),
		Layer: int(d[1].X),
		Tile:  geom.V2(d[1].Y, d[1].Z),
		Space: RasterSpace(d[1].W),
	}
}

const vImageCorner = vUser

type imageBrush struct {
	b      *brush
	images []Image
}

func (k *imageBrush) prepare(b *brush) {
	k.b = b
	k.images = make([]Image, len(b.prims))
	for i := range b.prims {
		k.images[i] = DecodeImage(b.res.Tables.Cache.FetchN(b.prims[i].DataAddress(), VecsPerImage))
	}
}

func (k *imageBrush) varyings() int { return 2 }

func (k *imageBrush) vertex(_ int, in *vertex.Input, _ *vertex.Result, v *raster.Varyings) {
	v.SetVec2(vImageCorner, in.Corner)
}

func (k *imageBrush) fragment(s *shading, out *raster.Output) bool {
	img := &k.images[s.f.Instance]
	rect := s.primitive().LocalRect
	size := rect.Size()
	tile := img.Tile
	if tile.X <= 0 || tile.Y <= 0 {
		tile = size
	}

	var t geom.Vec2
	if img.Space == RasterScreen {
		t = s.f.In.Vec2(vImageCorner).Mul(size.Div(tile))
	} else {
		t = s.local.Sub(rect.P0).Div(tile)
	}
	if k.b.prog.has(Repeat) {
		t = geom.V2(geom.Fract(t.X), geom.Fract(t.Y))
	}
	uv := clampUV(img.UV.Lerp(t), img.UV)

	res := k.b.res
	switch {
	case k.b.prog.has(SamplerExternal):
		if res.External == nil {
			return false
		}
		out.Color = res.External.Sample(uv, img.Layer)
	case k.b.prog.has(SamplerRect):
		out.Color = sample(res.Color, uv, 0)
	default:
		out.Color = sample(res.Color, uv, img.Layer)
	}
	return true
}
