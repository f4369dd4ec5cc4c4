// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// extendHeap asks the Provider for `words` more words (rounded up to an
// even count to keep D-alignment), stamps the span as one free block,
// writes a fresh epilogue at the new high-water mark, and coalesces the
// new block with its left neighbour if it happens to be free.
func (h *Heap) extendHeap(words uint64) (Block, error) {
	words = roundUpWords(words)
	size := words * W

	bp, err := h.provider.Extend(uintptr(size))
	if err != nil {
		return nil, err
	}

	// bp sits exactly at the old epilogue's address: the old epilogue
	// header word becomes this block's header.
	setTags(bp, size, false)

	h.epilogueHdr = addPtr(bp, uintptr(size)-W)
	putWord(h.epilogueHdr, pack(0, true))

	h.totalSize += size

	return h.coalesce(bp), nil
}
