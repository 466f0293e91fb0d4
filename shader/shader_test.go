package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/compositor/kernel"
)

func TestHeader(t *testing.T) {
	h := Header(kernel.AlphaPass | kernel.Repeat)
	for _, want := range []string{
		"const GPU_CACHE_WIDTH: i32 = 1024;",
		"const VECS_PER_TASK: i32 = 3;",
		"const VECS_PER_NODE: i32 = 9;",
		"const INVALID_TASK: i32 = 32767;",
		"const WR_FEATURE_ALPHA_PASS: bool = true;",
		"const WR_FEATURE_REPEAT: bool = true;",
		"const WR_FEATURE_TRANSFORM: bool = false;",
	} {
		if !strings.Contains(h, want) {
			t.Errorf("Header() missing %q", want)
		}
	}
}

func TestKinds(t *testing.T) {
	want := map[kernel.Kind]bool{
		kernel.KindSolid:         true,
		kernel.KindImage:         true,
		kernel.KindClipRectangle: true,
	}
	got := Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v", got)
	}
	for _, k := range got {
		if !want[k] {
			t.Errorf("unexpected kind %v", k)
		}
	}
}

func TestSource(t *testing.T) {
	src, err := Source(kernel.KindSolid, kernel.Transform)
	if err != nil {
		t.Fatalf("Source() error = %v", err)
	}
	for _, want := range []string{"fn decode_instance", "fn vs_main", "fn fs_main", "WR_FEATURE_TRANSFORM: bool = true"} {
		if !strings.Contains(src, want) {
			t.Errorf("Source() missing %q", want)
		}
	}
	if _, err := Source(kernel.KindBlur, 0); !errors.Is(err, ErrNoSource) {
		t.Errorf("Source(blur) error = %v, want ErrNoSource", err)
	}
}

func TestCompile(t *testing.T) {
	c := NewCache()
	for _, k := range Kinds() {
		words, err := c.Compile(k, kernel.AlphaPass)
		if err != nil {
			// naga does not yet cover every WGSL feature used here.
			t.Skipf("naga cannot compile %v: %v", k, err)
		}
		if len(words) == 0 || words[0] != 0x07230203 {
			t.Errorf("%v: invalid SPIR-V header", k)
		}
		again, _ := c.Compile(k, kernel.AlphaPass)
		if &again[0] != &words[0] {
			t.Errorf("%v: compiled twice", k)
		}
	}
}
