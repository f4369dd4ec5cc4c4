// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// place commits an allocation of asize bytes inside the free block bp
// (currently on its free list, sized >= asize), splitting off and
// publishing the remainder if it meets the minimum block size.
func (h *Heap) place(bp Block, asize uint64) {
	csize := blockSize(bp)

	if csize-asize >= MinBlockSize {
		h.removeFree(bp)
		setTags(bp, asize, true)

		rem := nextPhys(bp)
		setTags(rem, csize-asize, false)
		// rem cannot merge left (bp is now allocated) but the generic
		// path is used defensively, matching the reference place().
		h.coalesce(rem)
		return
	}

	h.removeFree(bp)
	setTags(bp, csize, true)
}
