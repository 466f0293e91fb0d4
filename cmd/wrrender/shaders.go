package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/shader"
)

// exportVariants are the variants written by -spirv, masked by what each
// kind supports.
var exportVariants = []kernel.Variant{0, kernel.AlphaPass, kernel.AlphaPass | kernel.Transform}

// writeShaders compiles every kind with a WGSL source and writes one
// little-endian SPIR-V module per variant into dir. It returns the file
// names written.
func writeShaders(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var names []string
	for _, k := range shader.Kinds() {
		seen := make(map[kernel.Variant]bool)
		for _, v := range exportVariants {
			v &= kernel.Supported(k)
			if seen[v] {
				continue
			}
			seen[v] = true
			words, err := shader.Compile(k, v)
			if err != nil {
				return names, err
			}
			name := fmt.Sprintf("%s.%s.spv", k, strings.ReplaceAll(v.String(), "+", "."))
			buf := make([]byte, 0, 4*len(words))
			for _, w := range words {
				buf = binary.LittleEndian.AppendUint32(buf, w)
			}
			if err := os.WriteFile(filepath.Join(dir, name), buf, 0o644); err != nil {
				return names, err
			}
			names = append(names, name)
		}
	}
	return names, nil
}
