// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// coalesce merges bp, whose header and footer are already marked free but
// which is not yet on any free list, with whichever of its physical
// neighbours are also free. It returns the resulting block pointer, now
// published to the free list for its (possibly larger) class.
func (h *Heap) coalesce(bp Block) Block {
	prevAlloc := prevFragAllocated(bp)
	nextAlloc := nextFragAllocated(bp)
	size := blockSize(bp)

	switch {
	case prevAlloc && nextAlloc:
		h.insertFree(bp)
		return bp

	case prevAlloc && !nextAlloc:
		next := nextPhys(bp)
		h.removeFree(next)
		size += blockSize(next)
		setTags(bp, size, false)
		h.insertFree(bp)
		return bp

	case !prevAlloc && nextAlloc:
		prev := prevPhys(bp)
		h.removeFree(prev)
		size += blockSize(prev)
		setHeader(prev, size, false)
		setFooter(prev, size, false)
		h.insertFree(prev)
		return prev

	default: // !prevAlloc && !nextAlloc
		prev := prevPhys(bp)
		next := nextPhys(bp)
		h.removeFree(prev)
		h.removeFree(next)
		size += blockSize(prev) + blockSize(next)
		setHeader(prev, size, false)
		setFooter(prev, size, false)
		h.insertFree(prev)
		return prev
	}
}
