// Package prim expands per-draw-call instance records into fully resolved
// primitives by chained lookups into the pass tables.
package prim

import (
	"github.com/gogpu/compositor/gpucache"
	"github.com/gogpu/compositor/task"
)

// Instance is the per-draw-call record: two 4-integer attributes.
//
//	Data0 = [prim_address, task_index, clip_task_index, (clip_chain_rect_index << 16) | node_index]
//	Data1 = [z, user_data0, user_data1, user_data2]
type Instance struct {
	Data0 [4]int32
	Data1 [4]int32
}

// NodeIndex identifies a coordinate-space node.
type NodeIndex uint16

// Header is the unpacked form of an Instance.
type Header struct {
	Address       gpucache.Address
	Task          task.Index
	ClipTask      task.Index
	ClipChainRect int
	Node          NodeIndex
	Z             int32
	UserData      [3]int32
}

// Pack encodes h into the instance attribute layout.
func (h Header) Pack() Instance {
	return Instance{
		Data0: [4]int32{
			int32(h.Address),
			int32(h.Task),
			int32(h.ClipTask),
			int32(h.ClipChainRect)<<16 | int32(h.Node),
		},
		Data1: [4]int32{h.Z, h.UserData[0], h.UserData[1], h.UserData[2]},
	}
}

// Unpack decodes the instance attributes.
func (i Instance) Unpack() Header {
	return Header{
		Address:       gpucache.Address(i.Data0[0]),
		Task:          task.Index(i.Data0[1]),
		ClipTask:      task.Index(i.Data0[2]),
		ClipChainRect: int(uint32(i.Data0[3]) >> 16),
		Node:          NodeIndex(i.Data0[3] & 0xffff),
		Z:             i.Data1[0],
		UserData:      [3]int32{i.Data1[1], i.Data1[2], i.Data1[3]},
	}
}
