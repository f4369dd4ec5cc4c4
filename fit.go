// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// findFit performs a first-fit search across size classes, starting at the
// smallest class that could satisfy asize and proceeding to larger classes.
// Within a class the whole list is scanned, since class membership is a
// range and the head is not guaranteed to be big enough. Returns nil if no
// block anywhere is large enough.
func (h *Heap) findFit(asize uint64) Block {
	for k := classOf(asize); k <= MaxFreeClasses; k++ {
		for bp := h.dir.head(k); bp != nil; bp = nextFree(bp) {
			if blockSize(bp) >= asize {
				return bp
			}
		}
	}
	return nil
}
