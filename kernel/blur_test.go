package kernel

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/task"
)

func TestBlurWeightsNormalized(t *testing.T) {
	for _, sigma := range []float32{0.5, 1, 2, 5.5, 40} {
		center, taps := BlurWeights(sigma)
		sum := center
		prev := float32(0)
		for _, tap := range taps {
			sum += 2 * tap.Weight
			if tap.Offset <= prev {
				t.Errorf("sigma %v: tap offsets not increasing: %v", sigma, taps)
				break
			}
			prev = tap.Offset
		}
		if math32.Abs(sum-1) > 1e-4 {
			t.Errorf("sigma %v: weights sum to %v, want 1", sigma, sum)
		}
		if limit := float32(MaxBlurSupport + 1); prev > limit {
			t.Errorf("sigma %v: last offset %v beyond support", sigma, prev)
		}
	}
	if center, taps := BlurWeights(0); center != 1 || taps != nil {
		t.Errorf("BlurWeights(0) = %v, %v, want 1, nil", center, taps)
	}
}

type blurScene struct {
	*scene
	dst, src task.Index
}

func newBlurScene(t *testing.T, sigma float32) blurScene {
	s := newScene(t, 16, 16)
	dst := s.task(task.Blur{Rect: geom.R(0, 0, 16, 16), Sigma: sigma}.Encode())
	src := s.task(task.Picture{Rect: geom.R(0, 0, 16, 16)}.Encode())
	return blurScene{scene: s, dst: dst, src: src}
}

func (b blurScene) pass(t *testing.T, dir BlurDirection, input geom.Vec4, setup func(res *Resources)) func(x, y int) geom.Vec4 {
	t.Helper()
	res := b.resources()
	res.Input = newColor(t, 16, 16)
	res.Input.Clear(0, input)
	if setup != nil {
		setup(res)
	}
	inst := prim.Header{Task: b.dst, ClipTask: task.Invalid, UserData: BlurUserData(b.src, dir)}.Pack()
	tex := newColor(t, 16, 16)
	drawInto(t, MustBuild(KindBlur, 0), res, []prim.Instance{inst}, tex)
	return func(x, y int) geom.Vec4 { return tex.Fetch(x, y, 0) }
}

func TestBlurKeepsUniformSource(t *testing.T) {
	c := geom.V4(0.2, 0.4, 0.6, 1)
	at := newBlurScene(t, 2).pass(t, BlurHorizontal, c, nil)
	for _, p := range [][2]int{{0, 0}, {8, 8}, {15, 3}} {
		if got := at(p[0], p[1]); !near(got, c, 1e-4) {
			t.Errorf("pixel %v = %v, want %v", p, got, c)
		}
	}
}

func TestBlurSpreadsImpulse(t *testing.T) {
	one := geom.Splat4(1)
	at := newBlurScene(t, 1).pass(t, BlurHorizontal, geom.Vec4{}, func(res *Resources) {
		res.Input.Set(8, 8, 0, one)
	})

	var sum float32
	for x := range 16 {
		sum += at(x, 8).X
	}
	if math32.Abs(sum-1) > 1e-3 {
		t.Errorf("row sum = %v, want 1", sum)
	}
	if l, r := at(7, 8).X, at(9, 8).X; math32.Abs(l-r) > 1e-5 {
		t.Errorf("blur not symmetric: left %v, right %v", l, r)
	}
	if c, n := at(8, 8).X, at(9, 8).X; !(c > n && n > 0) {
		t.Errorf("center %v, neighbor %v, want center > neighbor > 0", c, n)
	}
	if got := at(8, 7); got != (geom.Vec4{}) {
		t.Errorf("horizontal pass leaked vertically: %v", got)
	}
}

func TestBlurTintsShadow(t *testing.T) {
	b := newBlurScene(t, 0)
	b.dst = b.task(task.Blur{Rect: geom.R(0, 0, 16, 16), Color: geom.V4(0, 0, 0.5, 0.5)}.Encode())
	at := b.pass(t, BlurVertical, geom.V4(1, 1, 1, 0.5), nil)
	if got := at(4, 4); !near(got, geom.V4(0, 0, 0.25, 0.25), 1e-5) {
		t.Errorf("tinted pixel = %v, want blue at quarter alpha", got)
	}
}

func TestPlanBlur(t *testing.T) {
	tests := []struct {
		name       string
		sigma      float32
		source     image.Point
		downscales int
		size       image.Point
		pass       float32
	}{
		{"small sigma", 3, image.Pt(512, 512), 0, image.Pt(512, 512), 3},
		{"at limit", 4, image.Pt(512, 512), 0, image.Pt(512, 512), 4},
		{"one halving", 8, image.Pt(256, 200), 1, image.Pt(128, 100), 4},
		{"large", 40, image.Pt(2048, 2048), 4, image.Pt(128, 128), 2.5},
		{"small source", 40, image.Pt(100, 400), 0, image.Pt(100, 400), 40},
		{"stops at min size", 40, image.Pt(256, 256), 2, image.Pt(64, 64), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlanBlur(tt.sigma, tt.source)
			if p.Downscales != tt.downscales || p.Size != tt.size {
				t.Errorf("PlanBlur() = %d downscales to %v, want %d to %v", p.Downscales, p.Size, tt.downscales, tt.size)
			}
			if got := p.PassSigma(); math32.Abs(got-tt.pass) > 1e-5 {
				t.Errorf("PassSigma() = %v, want %v", got, tt.pass)
			}
		})
	}
}

// A sigma-40 blur runs its passes at 2.5 after four halvings. The pass
// taps must then cover the full Gaussian in source pixels.
func TestLargeBlurMatchesGaussian(t *testing.T) {
	p := PlanBlur(40, image.Pt(2048, 2048))
	center, taps := BlurWeights(p.PassSigma())
	want := 1 / (math32.Sqrt(2*math32.Pi) * p.PassSigma())
	if math32.Abs(center-want)/want > 0.01 {
		t.Errorf("center weight = %v, want %v", center, want)
	}
	last := taps[len(taps)-1].Offset * p.ScaleFactor
	if last < 2.8*p.Sigma {
		t.Errorf("taps reach %v source pixels, want at least 2.8 sigma", last)
	}
}

func TestBlurChainFollowsGaussianEdge(t *testing.T) {
	const (
		size  = 512
		sigma = 16
	)
	s := newScene(t, size, size)
	pic := task.Picture{Rect: geom.R(0, 0, size, size)}
	steps, err := BlurChain(s.tasks, s.target, pic, sigma, geom.Vec4{})
	if err != nil {
		t.Fatalf("BlurChain() error = %v", err)
	}
	if len(steps) != 4 || steps[0].Program.Kind() != KindScale || steps[3].Program.Kind() != KindBlur {
		t.Fatalf("BlurChain() steps = %+v, want two halvings then two blurs", steps)
	}

	tex, err := render.NewColorTarget(size, size, len(steps)+1)
	if err != nil {
		t.Fatal(err)
	}
	tex.ClearRect(0, 0, 0, size/2, size, geom.Splat4(1))
	res := s.resources()
	res.Input = tex
	e := raster.NewExecutor(2)
	defer e.Close()
	for _, st := range steps {
		if _, err := e.Run(context.Background(), st.Program.Draw(res, []prim.Instance{st.Instance}, tex, st.Layer)); err != nil {
			t.Fatalf("Run(%s) error = %v", st.Program.Name(), err)
		}
	}

	out := res.Tables.Tasks.Blur(steps[3].Task)
	if out.Rect.Size() != geom.V2(128, 128) || out.ScaleFactor != 4 {
		t.Fatalf("result task = %+v, want 128x128 at scale 4", out)
	}
	for u := 40; u < 88; u += 4 {
		got := tex.Fetch(u, 64, steps[3].Layer).X
		x := out.ScaleFactor * (float32(u) + 0.5)
		want := float32(0.5 * math.Erfc(float64(x-size/2)/(sigma*math.Sqrt2)))
		if math32.Abs(got-want) > 0.02 {
			t.Errorf("pixel %d = %v, want %v", u, got, want)
		}
	}
}
