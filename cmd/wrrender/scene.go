package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/clipmask"
	"github.com/gogpu/compositor/coverage"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/shelf"
	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/text"
)

// maxImageSize bounds the atlas footprint of one scene image. Larger
// images are scaled down to fit.
const maxImageSize = 512

const imageAtlasSize = 2048

// Scene is the YAML description of one frame.
type Scene struct {
	Size   [2]int            `yaml:"size"`
	Images map[string]string `yaml:"images"`
	Nodes  []NodeSpec        `yaml:"nodes"`
	Items  []ItemSpec        `yaml:"items"`
}

// NodeSpec is a coordinate space. Transforms apply in the order scale,
// rotate, translate, then perspective.
type NodeSpec struct {
	Name        string     `yaml:"name"`
	Translate   [2]float32 `yaml:"translate"`
	Rotate      float32    `yaml:"rotate"` // degrees
	Scale       [2]float32 `yaml:"scale"`
	Perspective float32    `yaml:"perspective"`
}

// ClipSpec is a rounded-rect clip.
type ClipSpec struct {
	Rect   [4]float32 `yaml:"rect"`
	Radius float32    `yaml:"radius"`
	Mode   string     `yaml:"mode"`
}

// StopSpec is a gradient stop with a straight-alpha color.
type StopSpec struct {
	Offset float32    `yaml:"offset"`
	Color  [4]float32 `yaml:"color"`
}

// ItemSpec is one primitive. Colors are straight alpha; fields
// unrelated to Type are ignored.
type ItemSpec struct {
	Type  string     `yaml:"type"`
	Node  string     `yaml:"node"`
	Rect  [4]float32 `yaml:"rect"`
	Clip  [4]float32 `yaml:"clip"`
	Clips []ClipSpec `yaml:"clips"`
	Color [4]float32 `yaml:"color"`

	// image
	Image string     `yaml:"image"`
	Tile  [2]float32 `yaml:"tile"`

	// gradients
	Start  [2]float32 `yaml:"start"`
	End    [2]float32 `yaml:"end"`
	Center [2]float32 `yaml:"center"`
	Radii  [2]float32 `yaml:"radii"`
	Angle  float32    `yaml:"angle"` // degrees
	Repeat bool       `yaml:"repeat"`
	Stops  []StopSpec `yaml:"stops"`

	// border and box shadow
	Width  float32    `yaml:"width"`
	Style  string     `yaml:"style"`
	Radius float32    `yaml:"radius"`
	Offset [2]float32 `yaml:"offset"`
	Blur   float32    `yaml:"blur"`
	Spread float32    `yaml:"spread"`
	Inset  bool       `yaml:"inset"`

	// text
	Text   string     `yaml:"text"`
	Size   float32    `yaml:"size"`
	Origin [2]float32 `yaml:"origin"`
}

// ParseScene decodes a YAML scene. Unknown fields are rejected.
func ParseScene(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scene
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if s.Size[0] <= 0 || s.Size[1] <= 0 {
		return nil, fmt.Errorf("scene: invalid size %v", s.Size)
	}
	return &s, nil
}

// images is the atlas of the images a scene refers to.
type images struct {
	tex    *render.TextureArray
	byName map[string]kernel.Image
}

// loadImages decodes the scene images relative to dir and packs them
// into one atlas layer.
func loadImages(s *Scene, dir string) (*images, error) {
	im := &images{byName: make(map[string]kernel.Image)}
	if len(s.Images) == 0 {
		return im, nil
	}
	tex, err := render.NewColorTarget(imageAtlasSize, imageAtlasSize, 1)
	if err != nil {
		return nil, err
	}
	im.tex = tex
	pack := shelf.New(imageAtlasSize, imageAtlasSize, 1)
	for name, path := range s.Images {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", name, err)
		}
		if b := img.Bounds(); b.Dx() > maxImageSize || b.Dy() > maxImageSize {
			img = imaging.Fit(img, maxImageSize, maxImageSize, imaging.Lanczos)
		}
		b := img.Bounds()
		x, y, layer, ok := pack.Allocate(b.Dx(), b.Dy())
		if !ok {
			return nil, fmt.Errorf("image %s: atlas full", name)
		}
		if err := tex.LoadImage(img, layer, x, y); err != nil {
			return nil, fmt.Errorf("image %s: %w", name, err)
		}
		im.byName[name] = kernel.Image{
			UV:    geom.R(float32(x), float32(y), float32(b.Dx()), float32(b.Dy())),
			Layer: layer,
		}
	}
	return im, nil
}

func premul(c [4]float32) geom.Vec4 {
	return geom.V4(c[0], c[1], c[2], c[3]).Premultiply()
}

func rect(r [4]float32) geom.Rect {
	return geom.R(r[0], r[1], r[2], r[3])
}

func vec(v [2]float32) geom.Vec2 {
	return geom.V2(v[0], v[1])
}

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

func (n NodeSpec) matrix() geom.Mat4 {
	sx, sy := n.Scale[0], n.Scale[1]
	if sx == 0 && sy == 0 {
		sx, sy = 1, 1
	}
	m := geom.Translate(n.Translate[0], n.Translate[1], 0).
		Mul(geom.RotateZ(radians(n.Rotate))).
		Mul(geom.ScaleMat(sx, sy, 1))
	if n.Perspective > 0 {
		m = geom.Perspective(n.Perspective).Mul(m)
	}
	return m
}

// Build adds the scene to a new frame of r.
func (s *Scene) Build(r *compositor.Renderer, im *images) (*compositor.Frame, error) {
	fb, err := r.NewFrame(s.Size[0], s.Size[1])
	if err != nil {
		return nil, err
	}
	nodes := map[string]prim.NodeIndex{"": fb.Root()}
	for _, n := range s.Nodes {
		if _, dup := nodes[n.Name]; dup {
			return nil, fmt.Errorf("node %q defined twice", n.Name)
		}
		if nodes[n.Name], err = fb.Node(n.matrix()); err != nil {
			return nil, err
		}
	}
	for i, it := range s.Items {
		node, ok := nodes[it.Node]
		if !ok {
			return nil, fmt.Errorf("item %d: unknown node %q", i, it.Node)
		}
		if err := it.add(fb, node, im); err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i, it.Type, err)
		}
	}
	return fb.Finish()
}

func (it *ItemSpec) common(node prim.NodeIndex) (compositor.Common, error) {
	c := compositor.Common{Node: node, Rect: rect(it.Rect), Clip: rect(it.Clip)}
	for _, cs := range it.Clips {
		clip := compositor.Clip{Rect: rect(cs.Rect)}
		if cs.Radius > 0 {
			r := geom.Splat2(cs.Radius)
			clip.Radii = coverage.Corners{r, r, r, r}
		}
		switch cs.Mode {
		case "", "in":
			clip.Mode = clipmask.ClipIn
		case "out":
			clip.Mode = clipmask.ClipOut
		default:
			return c, fmt.Errorf("unknown clip mode %q", cs.Mode)
		}
		c.Clips = append(c.Clips, clip)
	}
	return c, nil
}

func (it *ItemSpec) stops() []kernel.Stop {
	stops := make([]kernel.Stop, len(it.Stops))
	for i, s := range it.Stops {
		stops[i] = kernel.Stop{Offset: s.Offset, Color: premul(s.Color)}
	}
	return stops
}

func (it *ItemSpec) add(fb *compositor.FrameBuilder, node prim.NodeIndex, im *images) error {
	c, err := it.common(node)
	if err != nil {
		return err
	}
	color := premul(it.Color)
	switch it.Type {
	case "rect":
		return fb.Rect(c, color)
	case "image":
		img, ok := im.byName[it.Image]
		if !ok {
			return fmt.Errorf("unknown image %q", it.Image)
		}
		img.Tile = vec(it.Tile)
		return fb.Image(c, img)
	case "linear-gradient":
		g := kernel.LinearGradient{Start: vec(it.Start), End: vec(it.End), Repeat: it.Repeat}
		return fb.LinearGradient(c, g, it.stops())
	case "radial-gradient":
		g := kernel.RadialGradient{Center: vec(it.Center), StartRadius: it.Radii[0], EndRadius: it.Radii[1], Repeat: it.Repeat}
		return fb.RadialGradient(c, g, it.stops())
	case "conic-gradient":
		g := kernel.ConicGradient{Center: vec(it.Center), Angle: radians(it.Angle), StartOffset: 0, EndOffset: 1, Repeat: it.Repeat}
		return fb.ConicGradient(c, g, it.stops())
	case "border":
		style := kernel.BorderSolid
		if it.Style != "" {
			var ok bool
			if style, ok = kernel.ParseBorderStyle(it.Style); !ok {
				return fmt.Errorf("unknown border style %q", it.Style)
			}
		}
		side := kernel.BorderSide{Style: style, Width: it.Width, Color: color}
		r := geom.Splat2(it.Radius)
		b := kernel.Border{
			Sides: [4]kernel.BorderSide{side, side, side, side},
			Radii: coverage.Corners{r, r, r, r},
		}
		return fb.Border(c, b)
	case "box-shadow":
		box := rect(it.Rect)
		s := kernel.BoxShadow{
			Color:  color,
			Box:    box.Translate(vec(it.Offset)),
			Radii:  [4]float32{it.Radius, it.Radius, it.Radius, it.Radius},
			Sigma:  it.Blur / 2,
			Spread: it.Spread,
			Inset:  it.Inset,
			Clip:   box,
		}
		return fb.BoxShadow(c, s)
	case "text":
		size := it.Size
		if size <= 0 {
			size = 16
		}
		return fb.Text(c, vec(it.Origin), it.Text, text.DefaultFont(), size, color)
	}
	return fmt.Errorf("unknown item type %q", it.Type)
}
