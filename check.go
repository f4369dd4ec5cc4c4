// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import (
	"fmt"
	"unsafe"
)

// CheckError reports which heap-consistency invariant failed, and where.
type CheckError struct {
	Invariant string
	Block     Block
	ListClass int // 0 if not applicable
}

func (e *CheckError) Error() string {
	if e.ListClass != 0 {
		return fmt.Sprintf("heapcore: %s (block %p, class %d)",
			e.Invariant, e.Block, e.ListClass)
	}
	return fmt.Sprintf("heapcore: %s (block %p)", e.Invariant, e.Block)
}

// newCheckError builds a CheckError and, if error-level logging is enabled,
// logs it before handing it back to the caller -- a corrupt heap is worth a
// log line even when the caller only looks at the returned error.
func newCheckError(ce *CheckError) *CheckError {
	if ERRon() {
		ERR("%s\n", ce.Error())
	}
	return ce
}

func (h *Heap) inHeap(p unsafe.Pointer) bool {
	return uintptr(p) >= uintptr(h.provider.Low()) &&
		uintptr(p) <= uintptr(h.provider.High())
}

// CheckHeap walks the heap and every free list, verifying every consistency
// invariant the block layout and free lists must uphold. It never mutates
// the heap. It returns nil iff every invariant holds; otherwise it returns
// the first violation found. verbose additionally drives DumpStatus.
func (h *Heap) CheckHeap(verbose bool) error {
	if verbose {
		h.DumpStatus(true)
	}

	if blockSize(h.prologue) != D || !blockAllocated(h.prologue) {
		return newCheckError(&CheckError{Invariant: "prologue must have size D and be allocated", Block: h.prologue})
	}
	if err := h.checkBlock(h.prologue, true); err != nil {
		return err
	}

	walkedFree := 0
	bp := h.prologue
	for {
		next := nextPhys(bp)
		nsize := blockSize(next)
		if nsize == 0 {
			// next is the epilogue.
			if !blockAllocated(next) {
				return newCheckError(&CheckError{Invariant: "epilogue must be allocated", Block: next})
			}
			break
		}
		if err := h.checkBlock(next, false); err != nil {
			return err
		}
		if !blockAllocated(bp) && !blockAllocated(next) {
			return newCheckError(&CheckError{Invariant: "two adjacent free blocks", Block: bp})
		}
		if !blockAllocated(next) {
			walkedFree++
		}
		bp = next
	}

	countedFree := 0
	for k := 1; k <= MaxFreeClasses; k++ {
		seen := map[uintptr]bool{}
		for fp := h.dir.head(k); fp != nil; fp = nextFree(fp) {
			if blockAllocated(fp) {
				return newCheckError(&CheckError{Invariant: "free-list member has its alloc bit set", Block: fp, ListClass: k})
			}
			if classOf(blockSize(fp)) != k {
				return newCheckError(&CheckError{Invariant: "free block is on the wrong size class's list", Block: fp, ListClass: k})
			}
			if !h.inHeap(fp) {
				return newCheckError(&CheckError{Invariant: "free-list pointer lies outside heap bounds", Block: fp, ListClass: k})
			}
			if p := prevFree(fp); p != nil {
				if nextFree(p) != fp {
					return newCheckError(&CheckError{Invariant: "next(prev(x)) != x", Block: fp, ListClass: k})
				}
			}
			if n := nextFree(fp); n != nil {
				if prevFree(n) != fp {
					return newCheckError(&CheckError{Invariant: "prev(next(x)) != x", Block: fp, ListClass: k})
				}
				if n == fp {
					return newCheckError(&CheckError{Invariant: "free list has a self-cycle", Block: fp, ListClass: k})
				}
			}
			if seen[uintptr(fp)] {
				return newCheckError(&CheckError{Invariant: "free list has a cycle", Block: fp, ListClass: k})
			}
			seen[uintptr(fp)] = true
			countedFree++
		}
	}

	if countedFree != walkedFree {
		return newCheckError(&CheckError{Invariant: fmt.Sprintf(
			"free block count mismatch: physical walk saw %d, free lists total %d",
			walkedFree, countedFree)})
	}

	return nil
}

// checkBlock validates a single block's alignment, header==footer
// agreement, minimum size and heap bounds. isPrologue relaxes the minimum
// size check, since the prologue is a zero-payload sentinel.
func (h *Heap) checkBlock(bp Block, isPrologue bool) error {
	if !h.inHeap(bp) {
		return newCheckError(&CheckError{Invariant: "block pointer lies outside heap bounds", Block: bp})
	}
	if !alignedTo8(bp) {
		return newCheckError(&CheckError{Invariant: "block pointer is not D-aligned", Block: bp})
	}
	size := blockSize(bp)
	if size%D != 0 {
		return newCheckError(&CheckError{Invariant: "block size is not a multiple of D", Block: bp})
	}
	if !isPrologue && size < MinBlockSize {
		return newCheckError(&CheckError{Invariant: "block is smaller than the minimum block size", Block: bp})
	}
	if getWord(headerAddr(bp)) != getWord(footerAddr(bp, size)) {
		return newCheckError(&CheckError{Invariant: "header does not match footer", Block: bp})
	}
	return nil
}

// Check is a boolean convenience wrapper around CheckHeap.
func (h *Heap) Check(verbose bool) bool {
	return h.CheckHeap(verbose) == nil
}
