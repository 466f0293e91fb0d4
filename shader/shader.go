// Package shader holds the WGSL sources of the kernels that have a GPU
// form and compiles them to SPIR-V with naga.
//
// WGSL has no preprocessor. A variant is expressed as a generated
// header of boolean constants placed before the shared prelude, so one
// source file serves every (Kind, Variant) pair.
package shader

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/prim"
	"github.com/gogpu/compositor/task"
)

//go:embed wgsl/*.wgsl
var sources embed.FS

// ErrNoSource is returned for a kind that only has a software kernel.
var ErrNoSource = errors.New("shader: no WGSL source for kind")

// features maps variant bits to the constants the sources test.
var features = []struct {
	bit  kernel.Variant
	name string
}{
	{kernel.AlphaPass, "WR_FEATURE_ALPHA_PASS"},
	{kernel.Transform, "WR_FEATURE_TRANSFORM"},
	{kernel.DualSource, "WR_FEATURE_DUAL_SOURCE_BLENDING"},
	{kernel.Dither, "WR_FEATURE_DITHERING"},
	{kernel.Repeat, "WR_FEATURE_REPEAT"},
	{kernel.SamplerRect, "WR_FEATURE_TEXTURE_RECT"},
	{kernel.SamplerExternal, "WR_FEATURE_TEXTURE_EXTERNAL"},
}

// Header returns the generated constants for variant v.
func Header(v kernel.Variant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const GPU_CACHE_WIDTH: i32 = %d;\n", gpucache.Width)
	fmt.Fprintf(&b, "const VECS_PER_TASK: i32 = %d;\n", task.VecsPerTask)
	fmt.Fprintf(&b, "const VECS_PER_NODE: i32 = %d;\n", prim.VecsPerNode)
	fmt.Fprintf(&b, "const INVALID_TASK: i32 = %d;\n", task.Invalid)
	for _, f := range features {
		fmt.Fprintf(&b, "const %s: bool = %t;\n", f.name, v&f.bit != 0)
	}
	return b.String()
}

// Has reports whether kind has a WGSL source.
func Has(kind kernel.Kind) bool {
	_, err := sources.ReadFile(path(kind))
	return err == nil
}

// Kinds returns the kinds with WGSL sources.
func Kinds() []kernel.Kind {
	var ks []kernel.Kind
	for _, k := range kernel.Kinds() {
		if Has(k) {
			ks = append(ks, k)
		}
	}
	return ks
}

func path(kind kernel.Kind) string { return "wgsl/" + kind.String() + ".wgsl" }

// Source returns the complete WGSL module for kind and variant.
func Source(kind kernel.Kind, v kernel.Variant) (string, error) {
	body, err := sources.ReadFile(path(kind))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSource, kind)
	}
	prelude, err := sources.ReadFile("wgsl/prelude.wgsl")
	if err != nil {
		return "", err
	}
	return Header(v) + "\n" + string(prelude) + "\n" + string(body), nil
}

type key struct {
	kind    kernel.Kind
	variant kernel.Variant
}

// Cache compiles each (Kind, Variant) once. It is safe for concurrent
// use.
type Cache struct {
	mu    sync.Mutex
	spirv map[key][]uint32
}

// NewCache returns an empty compilation cache.
func NewCache() *Cache {
	return &Cache{spirv: make(map[key][]uint32)}
}

// Compile returns the SPIR-V words of kind and variant.
func (c *Cache) Compile(kind kernel.Kind, v kernel.Variant) ([]uint32, error) {
	k := key{kind, v}
	c.mu.Lock()
	words, ok := c.spirv[k]
	c.mu.Unlock()
	if ok {
		return words, nil
	}
	words, err := Compile(kind, v)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.spirv[k] = words
	c.mu.Unlock()
	return words, nil
}

// Compile builds the source of kind and variant and compiles it to
// SPIR-V words.
func Compile(kind kernel.Kind, v kernel.Variant) ([]uint32, error) {
	src, err := Source(kind, v)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("shader: compile %v (%v): %w", kind, v, err)
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words, nil
}
