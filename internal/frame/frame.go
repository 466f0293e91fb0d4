// Package frame turns a list of primitives into the records, tables
// and batches of one rendered frame.
//
// A Builder assigns every primitive a depth in paint order, writes its
// records into the GPU cache, allocates clip masks for primitives with
// complex clips and sorts the resulting instances into batches. Opaque
// batches are drawn front to back with depth writes, alpha batches
// back to front.
package frame

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/compositor/debug"
	"github.com/gogpu/compositor/kernel"
	"github.com/gogpu/compositor/prim"
)

var (
	// ErrClipMaskFull is returned when the clip areas of a frame do not
	// fit in the clip target.
	ErrClipMaskFull = errors.New("frame: clip target full")

	// ErrGlyphChurn is returned when the glyph atlas is reset more than
	// once while the text of a frame is resolved.
	ErrGlyphChurn = errors.New("frame: glyph atlas reset twice in one frame")

	// ErrFinished is returned when a builder is used after Finish.
	ErrFinished = errors.New("frame: builder already finished")
)

// Batch is a run of instances drawn by one program into one target
// layer.
type Batch struct {
	Program   *kernel.Program
	Instances []prim.Instance
	Layer     int
}

// ClipArea is a region of the clip target that must be cleared to full
// coverage before clip batches are drawn.
type ClipArea struct {
	Rect  image.Rectangle
	Layer int
}

// Frame is a built frame. Resources lacks the clip target, which the
// renderer binds once it has one.
type Frame struct {
	Width, Height int

	Resources kernel.Resources

	// ClipLayers is the number of clip target layers in use.
	ClipLayers int
	ClipAreas  []ClipArea

	// Clips draw into the clip target, one batch per kind and layer.
	Clips []Batch

	// Opaque batches are in front-to-back order.
	Opaque []Batch

	// Alpha batches are in back-to-front order.
	Alpha []Batch

	// nodes holds the axis-aligned flag of every node.
	nodes []bool

	// Primitives counts the draw items that produced instances. A border
	// counts once per segment kernel.
	Primitives int
}

// Instances returns the number of instances over all batches.
func (f *Frame) Instances() int {
	var n int
	for _, list := range [][]Batch{f.Clips, f.Opaque, f.Alpha} {
		for _, b := range list {
			n += len(b.Instances)
		}
	}
	return n
}

// Passes describes the frame for debug clients.
func (f *Frame) Passes() debug.PassList {
	clip := debug.Target{Kind: "alpha"}
	for _, b := range f.Clips {
		clip.Add(debug.BatchClip, b.Program.Name(), len(b.Instances))
	}
	color := debug.Target{Kind: "color"}
	for _, b := range f.Opaque {
		color.Add(debug.BatchOpaque, b.Program.Name(), len(b.Instances))
	}
	for _, b := range f.Alpha {
		color.Add(debug.BatchAlpha, b.Program.Name(), len(b.Instances))
	}
	var passes debug.PassList
	if len(clip.Batches) > 0 {
		passes.Passes = append(passes.Passes, debug.Pass{Targets: []debug.Target{clip}})
	}
	passes.Passes = append(passes.Passes, debug.Pass{Targets: []debug.Target{color}})
	return passes
}

// Batches lists every batch of the frame in draw order.
func (f *Frame) Batches() debug.BatchList {
	var list debug.BatchList
	for _, t := range f.Passes().Passes {
		for _, target := range t.Targets {
			list.Batches = append(list.Batches, target.Batches...)
		}
	}
	return list
}

// Tree describes the coordinate-space nodes of the frame. Nodes are
// flat children of the root.
func (f *Frame) Tree() debug.TreeNode {
	root := debug.NewTreeNode("root")
	for i, aligned := range f.nodes {
		kind := "complex"
		if aligned {
			kind = "axis-aligned"
		}
		root.AddItem(fmt.Sprintf("node %d (%s)", i, kind))
	}
	return root
}
