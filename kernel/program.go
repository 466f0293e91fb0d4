package kernel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
)

// ErrUnsupportedVariant is returned by Build for a kind and variant
// combination that has no implementation.
var ErrUnsupportedVariant = errors.New("kernel: unsupported variant")

// Kind is a primitive kind.
type Kind uint8

const (
	KindSolid Kind = iota
	KindImage
	KindLinearGradient
	KindRadialGradient
	KindConicGradient
	KindBorderCorner
	KindBorderEdge
	KindTextRun
	KindBlur
	KindBoxShadow
	KindSplitComposite
	KindMixBlend
	KindFilter
	KindClipRectangle
	KindClipImage
	KindClipBoxShadow
	KindScale

	kindCount
)

var kindNames = [kindCount]string{
	"brush_solid",
	"brush_image",
	"brush_linear_gradient",
	"brush_radial_gradient",
	"brush_conic_gradient",
	"ps_border_corner",
	"ps_border_edge",
	"ps_text_run",
	"cs_blur",
	"brush_box_shadow",
	"ps_split_composite",
	"brush_mix_blend",
	"brush_filter",
	"cs_clip_rectangle",
	"cs_clip_image",
	"cs_clip_box_shadow",
	"cs_scale",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// Variant is the set of build-time features of a kernel.
type Variant uint16

const (
	// AlphaPass blends the result and multiplies by the clip mask.
	AlphaPass Variant = 1 << iota

	// Transform uses the general vertex path and antialiases the
	// primitive edges.
	Transform

	// DualSource writes a second blend source for subpixel text.
	DualSource

	// Dither adds ordered noise to gradient colors.
	Dither

	// Repeat tiles image brushes.
	Repeat

	// SamplerRect samples images from an unlayered rect texture.
	SamplerRect

	// SamplerExternal samples images from an external source.
	SamplerExternal

	variantCount = iota
)

var variantNames = [variantCount]string{
	"alpha_pass",
	"transform",
	"dual_source",
	"dither",
	"repeat",
	"sampler_rect",
	"sampler_external",
}

func (v Variant) String() string {
	if v == 0 {
		return "opaque"
	}
	var names []string
	for i, name := range variantNames {
		if v&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := v &^ (1<<variantCount - 1); rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint16(rest)))
	}
	return strings.Join(names, "+")
}

// ParseVariant parses a "+" separated list of feature names. An empty
// string or "opaque" is the zero variant.
func ParseVariant(s string) (Variant, error) {
	if s == "" || s == "opaque" {
		return 0, nil
	}
	var v Variant
	for _, part := range strings.Split(s, "+") {
		found := false
		for i, name := range variantNames {
			if name == part {
				v |= 1 << i
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("kernel: unknown variant feature %q", part)
		}
	}
	return v, nil
}

const brushFeatures = AlphaPass | Transform

// supported lists the features each kind can be built with.
var supported = [kindCount]Variant{
	KindSolid:          brushFeatures,
	KindImage:          brushFeatures | Repeat | SamplerRect | SamplerExternal,
	KindLinearGradient: brushFeatures | Dither,
	KindRadialGradient: brushFeatures | Dither,
	KindConicGradient:  brushFeatures | Dither,
	KindBorderCorner:   brushFeatures,
	KindBorderEdge:     brushFeatures,
	KindTextRun:        brushFeatures | DualSource,
	KindBlur:           0,
	KindBoxShadow:      brushFeatures,
	KindSplitComposite: AlphaPass,
	KindMixBlend:       brushFeatures,
	KindFilter:         brushFeatures,
	KindClipRectangle:  0,
	KindClipImage:      0,
	KindClipBoxShadow:  0,
	KindScale:          0,
}

// Supported returns the features kind k accepts.
func Supported(k Kind) Variant {
	if k >= kindCount {
		return 0
	}
	return supported[k]
}

// Program is one fixed kernel implementation.
type Program struct {
	kind    Kind
	variant Variant
}

// Build selects the kernel for kind k built with variant v.
func Build(k Kind, v Variant) (*Program, error) {
	if k >= kindCount {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedVariant, k)
	}
	if extra := v &^ supported[k]; extra != 0 {
		return nil, fmt.Errorf("%w: %v with %v", ErrUnsupportedVariant, k, extra)
	}
	if v&SamplerRect != 0 && v&SamplerExternal != 0 {
		return nil, fmt.Errorf("%w: %v with more than one sampler", ErrUnsupportedVariant, k)
	}
	if v&DualSource != 0 && v&AlphaPass == 0 {
		return nil, fmt.Errorf("%w: %v dual source outside the alpha pass", ErrUnsupportedVariant, k)
	}
	return &Program{kind: k, variant: v}, nil
}

// MustBuild is like Build but panics on error. It is meant for fixed
// kernel tables initialized at startup.
func MustBuild(k Kind, v Variant) *Program {
	p, err := Build(k, v)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Program) Kind() Kind       { return p.kind }
func (p *Program) Variant() Variant { return p.variant }

func (p *Program) has(f Variant) bool { return p.variant&f != 0 }

// Name identifies the program in logs and debug output.
func (p *Program) Name() string {
	return p.kind.String() + "/" + p.variant.String()
}

// Blend returns the fixed-function blend the program is drawn with.
func (p *Program) Blend() raster.BlendMode {
	switch p.kind {
	case KindClipRectangle, KindClipImage, KindClipBoxShadow:
		return raster.BlendMultiply
	case KindBlur, KindScale:
		return raster.BlendReplace
	case KindTextRun:
		if p.has(DualSource) {
			return raster.BlendDualSource
		}
		return raster.BlendAlpha
	case KindSplitComposite, KindMixBlend:
		return raster.BlendAlpha
	}
	if p.has(AlphaPass) {
		return raster.BlendAlpha
	}
	return raster.BlendReplace
}

// Depth returns the depth mode the program is drawn with. Opaque
// brushes write depth so later alpha batches are rejected behind them.
func (p *Program) Depth() raster.DepthMode {
	switch p.kind {
	case KindClipRectangle, KindClipImage, KindClipBoxShadow, KindBlur, KindScale:
		return raster.DepthNone
	}
	if p.has(AlphaPass) || p.kind == KindTextRun {
		return raster.DepthTest
	}
	return raster.DepthTestWrite
}

// Bind prepares the program to shade instances against the pass
// resources. The returned kernel decodes every instance up front and is
// read-only afterwards.
func (p *Program) Bind(res *Resources, instances []prim.Instance) raster.Kernel {
	switch p.kind {
	case KindBlur:
		return newBlurKernel(res, instances)
	case KindScale:
		return newScaleKernel(res, instances)
	case KindSplitComposite:
		return newSplitKernel(p, res, instances)
	case KindClipRectangle, KindClipImage, KindClipBoxShadow:
		return newClipKernel(p.kind, res, instances)
	}
	return newBrush(p, res, instances)
}

// Draw binds the program and wraps it in a draw call on one target
// layer.
func (p *Program) Draw(res *Resources, instances []prim.Instance, target *render.TextureArray, layer int) *raster.Draw {
	return &raster.Draw{
		Name:      p.Name(),
		Kernel:    p.Bind(res, instances),
		Instances: len(instances),
		Target:    target,
		Layer:     layer,
		Blend:     p.Blend(),
		Depth:     p.Depth(),
	}
}
