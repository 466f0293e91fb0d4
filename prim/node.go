package prim

import (
	"fmt"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
)

// VecsPerNode is the number of texels in one node record: the transform
// columns, the inverse columns and a kind texel.
const VecsPerNode = 9

const nodesPerRow = gpucache.Width / VecsPerNode

// Node kinds stored in the kind texel.
const (
	NodeAxisAligned = 0
	NodeComplex     = 1
)

// Node is a coordinate space: the local-to-world transform, its inverse
// and whether it keeps rects axis aligned.
type Node struct {
	Transform   geom.Mat4
	Inverse     geom.Mat4
	AxisAligned bool
}

// NewNode builds a node from a transform. The axis-aligned flag is
// derived from the matrix. A singular transform gets a zero inverse.
func NewNode(m geom.Mat4) Node {
	inv, _ := m.Inverse()
	return Node{Transform: m, Inverse: inv, AxisAligned: m.IsAxisAligned()}
}

func nodeAddress(i NodeIndex) gpucache.Address {
	return gpucache.FromUV(VecsPerNode*(int(i)%nodesPerRow), int(i)/nodesPerRow)
}

// Encode returns the node record.
func (n Node) Encode() [VecsPerNode]geom.Vec4 {
	var r [VecsPerNode]geom.Vec4
	copy(r[0:4], n.Transform.Cols[:])
	copy(r[4:8], n.Inverse.Cols[:])
	if !n.AxisAligned {
		r[8].X = NodeComplex
	}
	return r
}

// NodeTable is the read-only view of node records for a pass.
type NodeTable struct {
	tex *gpucache.Texture
}

// Node decodes node i.
func (t *NodeTable) Node(i NodeIndex) Node {
	d := t.tex.FetchN(nodeAddress(i), VecsPerNode)
	var n Node
	copy(n.Transform.Cols[:], d[0:4])
	copy(n.Inverse.Cols[:], d[4:8])
	n.AxisAligned = d[8].X == NodeAxisAligned
	return n
}

// NodeBuilder collects node records in index order.
type NodeBuilder struct {
	cache *gpucache.Builder
	next  int
}

// NewNodeBuilder returns an empty node table builder.
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{cache: gpucache.NewBuilder(0)}
}

// Add appends a node and returns its index.
func (b *NodeBuilder) Add(n Node) (NodeIndex, error) {
	if b.next > 0xffff {
		return 0, fmt.Errorf("prim: node table holds %d nodes", b.next)
	}
	rec := n.Encode()
	if _, err := b.cache.Push(rec[:]...); err != nil {
		return 0, fmt.Errorf("prim: add node %d: %w", b.next, err)
	}
	i := NodeIndex(b.next)
	b.next++
	return i, nil
}

// Freeze returns the node table for the pass.
func (b *NodeBuilder) Freeze() *NodeTable {
	return &NodeTable{tex: b.cache.Freeze()}
}
