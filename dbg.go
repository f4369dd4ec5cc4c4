// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import "github.com/intuitivelabs/slog"

// debugCheck re-validates a single block's header/footer agreement and
// D-alignment, the way qmalloc's qmFrag.debug validates its canaries.
// qmalloc has spare fields in qmFrag/qmFragEnd to stamp a check pattern
// into; this block layout has none (just header W + payload + footer W),
// so there is nothing to stamp -- debugCheck instead compares the header
// and footer words and tests alignment directly, at every touch point
// OptDebug would otherwise stamp a canary.
func (h *Heap) debugCheck(bp Block) {
	if !h.options.debug() {
		return
	}
	size := blockSize(bp)
	hdr := getWord(headerAddr(bp))
	ftr := getWord(footerAddr(bp, size))
	if hdr != ftr {
		h.DumpStatus(false)
		panicCorruption(bp, hdr, ftr)
	}
	if !alignedTo8(bp) {
		h.DumpStatus(false)
		panicMisaligned(bp)
	}
}

// checkAfterOp runs a full CheckHeap walk when OptChecks is set, panicking
// on the first invariant violation it finds. Unlike debugCheck, which only
// re-validates the one block an operation just touched, this walks the
// entire block region and every free list, catching corruption anywhere in
// the heap that the touched block's own header/footer agreement would miss
// (a stray write into a neighbour, a free list splice gone wrong, and so
// on). op names the caller for the panic message.
func (h *Heap) checkAfterOp(op string) {
	if !h.options.checks() {
		return
	}
	if err := h.CheckHeap(false); err != nil {
		panicInvariant(op, err)
	}
}

// DumpStatus writes the heap's current usage and, when verbose is true and
// OptDumpShort is not set, every allocated fragment and free-list bucket to
// Log. It is a pure observer, intended solely for tests, mirroring
// qmalloc.dumpStatus.
func (h *Heap) DumpStatus(verbose bool) {
	const lev = slog.LDBG
	const prefix = "heap_status "

	Log.LLog(lev, 0, prefix, "(%p): size=%d used=%d max_used=%d\n",
		h, h.totalSize, h.stats.Used, h.stats.MaxUsed)

	if h.options.dumpShort() || !verbose {
		return
	}

	i := 0
	for bp := nextPhys(h.prologue); blockSize(bp) > 0; bp = nextPhys(bp) {
		if blockAllocated(bp) {
			Log.LLog(lev, 0, prefix, "  %3d. address=%p size=%d\n",
				i, bp, blockSize(bp))
		}
		i++
	}

	for k := 1; k <= MaxFreeClasses; k++ {
		n := uint64(0)
		for bp := h.dir.head(k); bp != nil; bp = nextFree(bp) {
			n++
		}
		if n != 0 {
			Log.LLog(lev, 0, prefix, "  class %2d: %d fragments\n", k, n)
		}
		if n != h.stats.freeListLen[k-1] {
			BUG("heap_status: free list length mismatch for class %d: "+
				"%d (walked) != %d (tracked)\n", k, n, h.stats.freeListLen[k-1])
		}
	}
}
