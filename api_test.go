// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func pokeByte(p unsafe.Pointer, off uintptr, v byte) {
	*(*byte)(addPtr(p, off)) = v
}

func peekByte(p unsafe.Pointer, off uintptr) byte {
	return *(*byte)(addPtr(p, off))
}

// allocate(1) returns a non-nil, 8-aligned pointer to a 24-byte block, and
// the checker passes.
func TestAllocateMinimumSize(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)

	p := h.Allocate(1)
	require.NotNil(t, p)
	require.Zero(t, uintptr(p)%D)
	require.Equal(t, uint64(MinBlockSize), blockSize(p))
	require.True(t, blockAllocated(p))
	require.NoError(t, h.CheckHeap(false))
}

func TestAllocateZeroReturnsNil(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)
	require.Nil(t, h.Allocate(0))
	require.NoError(t, h.CheckHeap(false))
}

// Two same-sized allocations, freed in order, coalesce back into a single
// free block.
func TestFreeCoalescesBothNeighbours(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)

	p := h.Allocate(100)
	q := h.Allocate(100)
	require.NotNil(t, p)
	require.NotNil(t, q)

	h.Free(p)
	require.NoError(t, h.CheckHeap(false))
	h.Free(q)
	require.NoError(t, h.CheckHeap(false))

	require.Equal(t, uint64(1), h.FreeBlockCount())
}

// Freeing the middle of three equal blocks, then the left neighbour, then
// the right neighbour (which also borders the tail remainder), converges
// on a single free block spanning all three plus whatever free space
// trailed them.
func TestFreeCoalescesAcrossThreeBlocks(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)

	p := h.Allocate(16)
	q := h.Allocate(16)
	r := h.Allocate(16)
	require.NoError(t, h.CheckHeap(false))

	sizeP, sizeQ, sizeR := blockSize(p), blockSize(q), blockSize(r)

	h.Free(q)
	require.NoError(t, h.CheckHeap(false))
	require.False(t, blockAllocated(q))

	h.Free(p)
	require.NoError(t, h.CheckHeap(false))
	// p's left neighbour is the allocated prologue, so p absorbs q and
	// remains the head of the merged block.
	require.Equal(t, sizeP+sizeQ, blockSize(p))

	h.Free(r)
	require.NoError(t, h.CheckHeap(false))

	// p now heads one single free block covering p, q, r and whatever
	// free tail bordered r.
	require.False(t, blockAllocated(p))
	require.GreaterOrEqual(t, blockSize(p), sizeP+sizeQ+sizeR)
}

// Shrinking in place returns the same pointer.
func TestReallocateShrinkInPlace(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)

	p := h.Allocate(16)
	x := h.Reallocate(p, 8)
	require.Equal(t, p, x)
	require.NoError(t, h.CheckHeap(false))
}

// Growing past the current block's capacity relocates and copies the old
// payload, and frees the old block.
func TestReallocateGrowsAndCopies(t *testing.T) {
	h, _ := newTestHeap(t, 1<<20)

	p := h.Allocate(16)
	for i := uintptr(0); i < 16; i++ {
		pokeByte(p, i, 0xAB)
	}

	q := h.Reallocate(p, 4096)
	require.NotNil(t, q)
	require.NotEqual(t, p, q)
	for i := uintptr(0); i < 16; i++ {
		require.Equal(t, byte(0xAB), peekByte(q, i))
	}
	require.NoError(t, h.CheckHeap(false))
}

func TestReallocateSizeZeroFrees(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)
	p := h.Allocate(16)
	require.Nil(t, h.Reallocate(p, 0))
	require.NoError(t, h.CheckHeap(false))
}

func TestReallocateNilPtrAllocates(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)
	p := h.Reallocate(nil, 16)
	require.NotNil(t, p)
	require.NoError(t, h.CheckHeap(false))
}

// Zero initialization: every byte calloc hands back is zero.
func TestCallocZeroesPayload(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)

	p := h.Allocate(64)
	for i := uintptr(0); i < 64; i++ {
		pokeByte(p, i, 0xFF)
	}
	h.Free(p)

	q := h.Calloc(8, 8)
	require.NotNil(t, q)
	for i := uintptr(0); i < uintptr(blockSize(q)-D); i++ {
		require.Equal(t, byte(0), peekByte(q, i))
	}
	require.NoError(t, h.CheckHeap(false))
}

// Allocate a mix of sizes, free in reverse order: the checker must pass
// after each free, and a single free block must remain at the end.
func TestMixedAllocFreeReverseOrder(t *testing.T) {
	h, _ := newTestHeap(t, 1<<20)

	sizes := []uint64{24, 48, 1000, 32, 2048, 48}
	ptrs := make([]Block, len(sizes))
	for i, s := range sizes {
		ptrs[i] = h.Allocate(s)
		require.NotNil(t, ptrs[i])
		require.NoError(t, h.CheckHeap(false))
	}

	for i := len(ptrs) - 1; i >= 0; i-- {
		h.Free(ptrs[i])
		require.NoError(t, h.CheckHeap(false))
	}

	require.Equal(t, uint64(1), h.FreeBlockCount())
	require.Equal(t, uint64(0), h.Stats().Used)
}

func TestAllocateAlignment(t *testing.T) {
	h, _ := newTestHeap(t, 1<<20)
	for _, s := range []uint64{1, 2, 7, 8, 9, 17, 31, 1000, 4096} {
		p := h.Allocate(s)
		require.NotNil(t, p)
		require.Zero(t, uintptr(p)%D, "size=%d", s)
	}
	require.NoError(t, h.CheckHeap(false))
}

func TestDoubleFreePanics(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)
	p := h.Allocate(16)
	h.Free(p)
	require.Panics(t, func() { h.Free(p) })
}

func TestFreeOutOfBoundsPanics(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)
	var stray [64]byte
	require.Panics(t, func() { h.Free(unsafe.Pointer(&stray[32])) })
}

func TestFreeNilIsNoop(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16)
	h.Free(nil)
	require.NoError(t, h.CheckHeap(false))
}

func TestOutOfMemoryReturnsNilWithoutCorrupting(t *testing.T) {
	h, _ := newTestHeap(t, 256)
	var last Block
	for i := 0; i < 1000; i++ {
		p := h.Allocate(64)
		if p == nil {
			break
		}
		last = p
	}
	_ = last
	require.Nil(t, h.Allocate(1<<30))
	require.NoError(t, h.CheckHeap(false))
}
