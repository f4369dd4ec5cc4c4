// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// insertFree publishes a currently-unlinked free block to the head of its
// size class's list (LIFO). Callers must guarantee bp is not already on any
// list.
func (h *Heap) insertFree(bp Block) {
	k := classOf(blockSize(bp))
	head := h.dir.head(k)
	setPrevFree(bp, nil)
	setNextFree(bp, head)
	if head != nil {
		setPrevFree(head, bp)
	}
	h.dir.setHead(k, bp)
	h.stats.freeListLen[k-1]++
}

// removeFree unlinks a free block from its size class's list. Callers must
// guarantee bp is currently free and on the list for its class.
func (h *Heap) removeFree(bp Block) {
	p := prevFree(bp)
	n := nextFree(bp)
	if p != nil {
		setNextFree(p, n)
	} else {
		h.dir.setHead(classOf(blockSize(bp)), n)
	}
	if n != nil {
		setPrevFree(n, p)
	}
	h.stats.freeListLen[classOf(blockSize(bp))-1]--
}
