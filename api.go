// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import (
	"reflect"
	"unsafe"
)

// bytesAt builds a []byte view over n bytes starting at p, the same
// unsafe.Pointer-to-reflect.SliceHeader trick qmalloc.ReallocUnsafe uses to
// get a byte-slice view for copying without a syscall-backed mmap.
func bytesAt(p unsafe.Pointer, n uint64) []byte {
	var s []byte
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	hdr.Data = uintptr(p)
	hdr.Len = int(n)
	hdr.Cap = int(n)
	return s
}

func zeroBytes(p unsafe.Pointer, n uint64) {
	s := bytesAt(p, n)
	for i := range s {
		s[i] = 0
	}
}

// adjustedSize computes the D-aligned, minimum-enforced block size for a
// caller-requested payload size.
func adjustedSize(size uint64) uint64 {
	if size <= D {
		return 3 * D
	}
	return roundUpD(size + D)
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// AllocateUnsafe is the non-locking core of Allocate.
func (h *Heap) AllocateUnsafe(size uint64) Block {
	if size == 0 {
		return nil
	}
	asize := adjustedSize(size)

	bp := h.findFit(asize)
	if bp == nil {
		extendSize := maxU64(asize, CHUNKSIZE)
		var err error
		bp, err = h.extendHeap(extendSize / W)
		if err != nil {
			return nil
		}
	}
	h.debugCheck(bp)
	h.place(bp, asize)
	h.addUsed(blockSize(bp))
	h.stats.AllocCount++
	h.checkAfterOp("allocate")
	return bp
}

// FreeUnsafe is the non-locking core of Free.
func (h *Heap) FreeUnsafe(ptr Block) {
	if ptr == nil {
		if WARNon() {
			WARN("free(nil) called\n")
		}
		return
	}
	if !h.Owns(ptr) {
		panicOutOfBounds("free", ptr, nextPhys(h.prologue), h.epilogueBp())
		return
	}
	h.debugCheck(ptr)
	if !blockAllocated(ptr) {
		panicDoubleFree("free", ptr)
		return
	}
	size := blockSize(ptr)
	setTags(ptr, size, false)
	h.subUsed(size)
	h.stats.FreeCount++
	h.coalesce(ptr)
	h.checkAfterOp("free")
}

// ReallocateUnsafe is the non-locking core of Reallocate.
func (h *Heap) ReallocateUnsafe(ptr Block, size uint64) Block {
	if size == 0 {
		h.FreeUnsafe(ptr)
		return nil
	}
	if ptr == nil {
		return h.AllocateUnsafe(size)
	}
	if !h.Owns(ptr) {
		panicOutOfBounds("realloc", ptr, nextPhys(h.prologue), h.epilogueBp())
		return nil
	}
	h.debugCheck(ptr)
	if !blockAllocated(ptr) {
		panicDoubleFree("realloc", ptr)
		return nil
	}

	oldSize := blockSize(ptr)
	asize := adjustedSize(size)
	if asize <= oldSize {
		// Accept internal fragmentation on shrink; no in-place split.
		return ptr
	}

	newPtr := h.AllocateUnsafe(size)
	if newPtr == nil {
		// Out of memory: leave the original block intact.
		return nil
	}
	oldPayload := oldSize - D
	copy(bytesAt(newPtr, minU64(oldPayload, size)), bytesAt(ptr, oldPayload))
	h.FreeUnsafe(ptr)
	return newPtr
}

// CallocUnsafe is the non-locking core of Calloc.
func (h *Heap) CallocUnsafe(n, size uint64) Block {
	bp := h.AllocateUnsafe(n * size)
	if bp == nil {
		return nil
	}
	zeroBytes(bp, blockSize(bp)-D)
	return bp
}

// Allocate allocates size bytes and returns a D-aligned pointer to the
// payload, or nil if size is 0 or the heap is exhausted.
func (h *Heap) Allocate(size uint64) Block {
	h.lock()
	p := h.AllocateUnsafe(size)
	h.unlock()
	return p
}

// Free releases the memory associated with ptr (previously returned by
// Allocate, Reallocate or Calloc). A nil ptr is a no-op.
func (h *Heap) Free(ptr Block) {
	h.lock()
	h.FreeUnsafe(ptr)
	h.unlock()
}

// Reallocate grows or shrinks a previously allocated pointer. It returns
// either ptr unchanged (when the resize fit in place) or a fresh pointer
// with the old contents copied and ptr freed. A nil return with size > 0
// means allocation failed and ptr is left untouched.
func (h *Heap) Reallocate(ptr Block, size uint64) Block {
	h.lock()
	p := h.ReallocateUnsafe(ptr, size)
	h.unlock()
	return p
}

// Calloc allocates space for n elements of size bytes each, zeroes it and
// returns a pointer to it. Overflow of n*size is out-of-contract.
func (h *Heap) Calloc(n, size uint64) Block {
	h.lock()
	p := h.CallocUnsafe(n, size)
	h.unlock()
	return p
}
