package kernel

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/task"
)

// MaxBlurSupport bounds the pixel radius a blur pass samples. It only
// binds when a source is too small to downscale.
const MaxBlurSupport = 64

const (
	// MaxBlurStdDeviation is the largest sigma a blur pass runs at.
	// Larger blurs halve the source until sigma fits.
	MaxBlurStdDeviation = 4

	// MinDownscaleSize stops the halving once a side of the blur target
	// drops below it.
	MinDownscaleSize = 128
)

// BlurPlan is the downscale chain for blurring a source of Source pixels
// by Sigma.
type BlurPlan struct {
	Sigma  float32
	Source image.Point

	// Downscales is the number of halving passes before the blur.
	Downscales int

	// Size is the size of the blur targets.
	Size image.Point

	// ScaleFactor is source pixels per blur target pixel.
	ScaleFactor float32
}

// PlanBlur halves the source while sigma exceeds MaxBlurStdDeviation and
// both sides stay at least MinDownscaleSize.
func PlanBlur(sigma float32, source image.Point) BlurPlan {
	p := BlurPlan{Sigma: sigma, Source: source, Size: source, ScaleFactor: 1}
	adjusted, scale := sigma, float32(1)
	for adjusted > MaxBlurStdDeviation {
		if p.Size.X < MinDownscaleSize || p.Size.Y < MinDownscaleSize {
			break
		}
		adjusted *= 0.5
		scale *= 2
		p.Size = downscaled(source, scale)
		p.Downscales++
	}
	if p.Size.X > 0 {
		p.ScaleFactor = float32(source.X) / float32(p.Size.X)
	}
	return p
}

func downscaled(size image.Point, scale float32) image.Point {
	return image.Pt(int(float32(size.X)/scale), int(float32(size.Y)/scale))
}

// PassSigma is the sigma each blur pass runs at, in target pixels.
func (p BlurPlan) PassSigma() float32 {
	return p.Sigma / p.ScaleFactor
}

// BlurStep is one draw of a blur chain. Steps run in order, each
// reading the target layer written by an earlier one.
type BlurStep struct {
	Program  *Program
	Instance prim.Instance
	Task     task.Index
	Layer    int
}

// BlurChain adds the tasks that blur picture task src, described by pic,
// by sigma and tints the result with tint when its alpha is non-zero.
// Downscaled copies and both blur passes sit at the origin of pic.Rect
// on the layers after pic.Layer of the same target. The task of the last
// step holds the result.
func BlurChain(tasks *task.Builder, src task.Index, pic task.Picture, sigma float32, tint geom.Vec4) ([]BlurStep, error) {
	size := pic.Rect.Size()
	plan := PlanBlur(sigma, image.Pt(int(size.X), int(size.Y)))
	origin := pic.Rect.P0
	layer := pic.Layer
	prev := src
	var steps []BlurStep

	add := func(p *Program, rec [task.VecsPerTask]geom.Vec4, ud [3]int32) error {
		i, err := tasks.Add(rec)
		if err != nil {
			return err
		}
		inst := prim.Header{Task: i, ClipTask: task.Invalid, UserData: ud}.Pack()
		steps = append(steps, BlurStep{Program: p, Instance: inst, Task: i, Layer: layer})
		prev = i
		return nil
	}
	rect := func(sz image.Point) geom.Rect {
		return geom.RectFromSize(origin, geom.V2(float32(sz.X), float32(sz.Y)))
	}

	scale := MustBuild(KindScale, 0)
	for i := 1; i <= plan.Downscales; i++ {
		layer++
		rec := task.Picture{Rect: rect(downscaled(plan.Source, float32(int(1)<<i))), Layer: layer}
		if err := add(scale, rec.Encode(), [3]int32{int32(prev)}); err != nil {
			return nil, err
		}
	}
	blur := MustBuild(KindBlur, 0)
	for _, dir := range []BlurDirection{BlurVertical, BlurHorizontal} {
		layer++
		rec := task.Blur{Rect: rect(plan.Size), Layer: layer, Sigma: sigma, ScaleFactor: plan.ScaleFactor}
		if dir == BlurHorizontal {
			rec.Color = tint
		}
		if err := add(blur, rec.Encode(), BlurUserData(prev, dir)); err != nil {
			return nil, err
		}
	}
	return steps, nil
}

// BlurDirection is the axis one blur pass runs along. A full blur is a
// horizontal pass followed by a vertical one.
type BlurDirection int32

const (
	BlurHorizontal BlurDirection = iota
	BlurVertical
)

// BlurTap is a pair of Gaussian samples merged into one bilinear fetch
// on each side of the center.
type BlurTap struct {
	Offset float32
	Weight float32
}

// BlurWeights returns the normalized center weight and the merged taps
// of a Gaussian with standard deviation sigma in pixels. The weights are
// generated incrementally: g(x+1)/g(x) is itself a geometric sequence.
// A sigma of zero gives a single center tap of weight 1.
func BlurWeights(sigma float32) (center float32, taps []BlurTap) {
	if sigma <= 0 {
		return 1, nil
	}
	support := min(int(math32.Ceil(1.5*sigma))*2, MaxBlurSupport)

	gx := 1 / (math32.Sqrt(2*math32.Pi) * sigma)
	gy := math32.Exp(-0.5 / (sigma * sigma))
	gz := gy * gy

	center = gx
	total := gx
	gx *= gy
	gy *= gz
	for i := 1; i <= support; i += 2 {
		w1 := gx
		gx *= gy
		gy *= gz
		w2 := gx
		gx *= gy
		gy *= gz
		w := w1 + w2
		if w == 0 {
			break
		}
		taps = append(taps, BlurTap{Offset: float32(i) + w2/w, Weight: w})
		total += 2 * w
	}
	inv := 1 / total
	for i := range taps {
		taps[i].Weight *= inv
	}
	return center * inv, taps
}

// BlurUserData packs the instance user data of a blur pass reading task
// src.
func BlurUserData(src task.Index, dir BlurDirection) [3]int32 {
	return [3]int32{int32(src), int32(dir)}
}

type blurState struct {
	dst    task.Blur
	src    task.Picture
	dir    geom.Vec2
	center float32
	taps   []BlurTap
}

// blurKernel runs one separable Gaussian pass from a source task into a
// destination blur task. The instance task index is the destination.
type blurKernel struct {
	res    *Resources
	passes []blurState
}

func newBlurKernel(res *Resources, instances []prim.Instance) *blurKernel {
	k := &blurKernel{res: res, passes: make([]blurState, len(instances))}
	tasks := res.Tables.Tasks
	for i, inst := range instances {
		h := inst.Unpack()
		st := &k.passes[i]
		st.dst = tasks.Blur(h.Task)
		st.src = tasks.Picture(task.Index(h.UserData[0]))
		st.dir = geom.V2(1, 0)
		if BlurDirection(h.UserData[1]) == BlurVertical {
			st.dir = geom.V2(0, 1)
		}
		st.center, st.taps = BlurWeights(st.dst.PassSigma())
	}
	return k
}

const vBlurUV = 0

func (k *blurKernel) Layout() raster.Layout {
	return raster.Layout{Count: 2}
}

func (k *blurKernel) Vertex(i int, corner geom.Vec2, out *raster.Vertex) {
	st := &k.passes[i]
	p := st.dst.Rect.Lerp(corner)
	out.Position = geom.V4(p.X, p.Y, 0, 1)
	out.Varyings.SetVec2(vBlurUV, st.src.Rect.Lerp(corner))
}

func (k *blurKernel) Fragment(f *raster.Fragment, out *raster.Output) bool {
	st := &k.passes[f.Instance]
	src := k.res.Input
	if src == nil {
		return false
	}
	uv := f.In.Vec2(vBlurUV)
	bounds := st.src.Rect
	layer := st.src.Layer

	c := src.Sample(clampUV(uv, bounds), layer).Scale(st.center)
	for _, t := range st.taps {
		d := st.dir.Scale(t.Offset)
		c = c.Add(src.Sample(clampUV(uv.Add(d), bounds), layer).Scale(t.Weight))
		c = c.Add(src.Sample(clampUV(uv.Sub(d), bounds), layer).Scale(t.Weight))
	}
	if tint := st.dst.Color; tint.W > 0 {
		c = tint.Scale(maskValue(src, c))
	}
	out.Color = c
	return true
}
