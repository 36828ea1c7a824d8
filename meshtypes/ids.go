package meshtypes

import (
	"fmt"
	"sync/atomic"
)

// NodeId is a string-like identifier, hashable and used only for routing
// and reward attribution (spec.md §3). Plain strings sort and compare the
// way the engine's deterministic per-node iteration order requires.
type NodeId string

// NodeIdForIndex builds the conventional ID for the i-th node of a scenario,
// matching the teacher repo's BytesToAddress-style deterministic derivation.
func NodeIdForIndex(i int) NodeId {
	return NodeId(fmt.Sprintf("node-%04d", i))
}

// PacketId is an opaque 64-bit integer, monotone per engine instance.
type PacketId uint64

// PacketIdAllocator hands out monotone PacketIds for one engine instance.
// Not safe for concurrent engines to share; each Monte-Carlo run owns its
// own allocator (spec.md §5: no shared state between runs).
type PacketIdAllocator struct {
	next uint64
}

func NewPacketIdAllocator() *PacketIdAllocator {
	return &PacketIdAllocator{next: 1}
}

func (a *PacketIdAllocator) Next() PacketId {
	id := atomic.AddUint64(&a.next, 1) - 1
	return PacketId(id)
}

func (a *PacketIdAllocator) Reset() {
	atomic.StoreUint64(&a.next, 1)
}
