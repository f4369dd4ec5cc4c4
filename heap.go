// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import (
	"sync"
	"unsafe"
)

// Options encodes configuration flags for a Heap.
type Options uint32

const (
	// OptDebug re-validates the single block an operation just touched --
	// header/footer agreement and alignment -- on every allocate, free and
	// realloc (see dbg.go's debugCheck). Cheap enough to leave on in tests.
	OptDebug Options = 1 << iota
	// OptChecks walks the entire heap and every free list after every
	// mutating operation, panicking on the first invariant violation found
	// anywhere, not just in the block that was just touched (see dbg.go's
	// checkAfterOp). More expensive than OptDebug; still cheap next to the
	// cost of chasing corruption after the fact.
	OptChecks
	// OptDumpShort makes DumpStatus skip the per-fragment listing.
	OptDumpShort
	// DefaultOptions matches qmalloc's QMDefaultOptions in spirit: checks
	// on, debug instrumentation off.
	DefaultOptions = OptChecks
)

func (o Options) debug() bool     { return o&OptDebug != 0 }
func (o Options) checks() bool    { return o&OptChecks != 0 }
func (o Options) dumpShort() bool { return o&OptDumpShort != 0 }

// Stats mirrors qmalloc.MUsed: running memory-usage counters maintained
// alongside every public operation, not required by the core invariants
// but natural given the allocator's low-fragmentation goals.
type Stats struct {
	Used       uint64 // bytes currently allocated (header+payload+footer)
	MaxUsed    uint64 // high-water mark for Used
	AllocCount uint64
	FreeCount  uint64

	freeListLen [MaxFreeClasses]uint64
}

// Heap is the allocator core: the directory, the sentinel blocks and the
// single Provider the block region is grown from. A zero Heap is not
// usable; call Init.
type Heap struct {
	provider Provider
	options  Options

	dir         directory
	prologue    Block          // payload pointer of the prologue sentinel
	epilogueHdr unsafe.Pointer // address of the epilogue's header word

	totalSize   uint64 // bytes ever handed to the block region by extendHeap
	stats       Stats
	initialized bool

	mu sync.Mutex
}

// epilogueBp returns the epilogue's (payload-less) block pointer: the
// address immediately following the last physical block.
func (h *Heap) epilogueBp() Block {
	return addPtr(h.epilogueHdr, W)
}

// Init prepares a heap over a freshly created Provider: it writes the
// alignment padding, the prologue and the initial epilogue, then extends
// the heap once by CHUNKSIZE so the first allocation has somewhere to land.
//
// Init takes its Provider as an explicit argument rather than reaching for
// an implicit package-level one, so there is no heap to lazily stand up
// before a Provider exists; it must be called before any other method. It
// is idempotent, though: once a Heap has been initialized, further calls
// are no-ops rather than re-extending the Provider and discarding the
// existing block region.
func (h *Heap) Init(p Provider, options Options) error {
	if h.initialized {
		return nil
	}

	origin, err := p.Extend(4 * W)
	if err != nil {
		return err
	}
	*h = Heap{provider: p, options: options}
	putWord(origin, 0) // alignment padding, never read again

	bpProlog := addPtr(origin, 2*W)
	setHeader(bpProlog, D, true)
	setFooter(bpProlog, D, true)
	h.prologue = bpProlog

	h.epilogueHdr = addPtr(origin, 3*W)
	putWord(h.epilogueHdr, pack(0, true))

	if _, err := h.extendHeap(CHUNKSIZE / W); err != nil {
		return err
	}
	h.initialized = true
	return nil
}

func (h *Heap) lock()   { h.mu.Lock() }
func (h *Heap) unlock() { h.mu.Unlock() }

func (h *Heap) addUsed(size uint64) {
	h.stats.Used += size
	if h.stats.MaxUsed < h.stats.Used {
		h.stats.MaxUsed = h.stats.Used
	}
}

func (h *Heap) subUsed(size uint64) {
	h.stats.Used -= size
}

// Stats returns a snapshot of the heap's usage counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

// FreeBlockCount returns the total number of free blocks currently tracked
// across every size class's list.
func (h *Heap) FreeBlockCount() uint64 {
	var n uint64
	for _, l := range h.stats.freeListLen {
		n += l
	}
	return n
}

// Available returns how many bytes of the block region are not currently
// allocated.
func (h *Heap) Available() uint64 {
	return h.totalSize - h.stats.Used
}

// Owns reports whether p lies within the heap's useable range (the block
// region, excluding the prologue and epilogue sentinels). Behaviour is
// undefined if p was already freed.
func (h *Heap) Owns(p unsafe.Pointer) bool {
	if uintptr(p) >= uintptr(h.epilogueBp()) || uintptr(p) < uintptr(nextPhys(h.prologue)) {
		return false
	}
	return true
}
