// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import "unsafe"

// Block is a block pointer: the address of the first byte of a block's
// payload. The header word lives at Block-W, the footer word at
// Block+size-D. Block is an alias for unsafe.Pointer, not a new type, so
// that the pure functions over a block pointer below can be plain functions
// without an intermediate conversion at every call site.
type Block = unsafe.Pointer

// pack combines a size and an allocation bit into a single header/footer
// word. size must already be a multiple of 8.
func pack(size uint64, alloc bool) uint32 {
	w := uint32(size)
	if alloc {
		w |= allocBit
	}
	return w
}

func getWord(addr unsafe.Pointer) uint32 {
	return *(*uint32)(addr)
}

func putWord(addr unsafe.Pointer, w uint32) {
	*(*uint32)(addr) = w
}

func addPtr(p unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + off)
}

func subPtr(p unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) - off)
}

// headerAddr returns the address of bp's header word.
func headerAddr(bp Block) unsafe.Pointer {
	return subPtr(bp, W)
}

// footerAddr returns the address of bp's footer word, given its size.
func footerAddr(bp Block, size uint64) unsafe.Pointer {
	return addPtr(bp, uintptr(size)-D)
}

// blockSize reads the size field out of bp's header.
func blockSize(bp Block) uint64 {
	return uint64(getWord(headerAddr(bp)) & sizeMask)
}

// blockAllocated reads the allocation bit out of bp's header.
func blockAllocated(bp Block) bool {
	return getWord(headerAddr(bp))&allocBit != 0
}

// setHeader writes bp's header word.
func setHeader(bp Block, size uint64, alloc bool) {
	putWord(headerAddr(bp), pack(size, alloc))
}

// setFooter writes bp's footer word.
func setFooter(bp Block, size uint64, alloc bool) {
	putWord(footerAddr(bp, size), pack(size, alloc))
}

// setTags writes both header and footer of bp with the same size/alloc bit,
// keeping the header==footer invariant intact.
func setTags(bp Block, size uint64, alloc bool) {
	setHeader(bp, size, alloc)
	setFooter(bp, size, alloc)
}

// nextPhys returns the block physically following bp.
func nextPhys(bp Block) Block {
	return addPtr(bp, uintptr(blockSize(bp)))
}

// prevPhys returns the block physically preceding bp, read from the
// predecessor's footer at bp-D.
func prevPhys(bp Block) Block {
	prevFooter := subPtr(bp, D)
	prevSize := uint64(getWord(prevFooter) & sizeMask)
	return subPtr(bp, uintptr(prevSize))
}

// prevFragAllocated reports whether the block immediately preceding bp is
// allocated, reading only its footer word (valid even across the prologue
// sentinel, whose footer carries the allocated bit).
func prevFragAllocated(bp Block) bool {
	return getWord(subPtr(bp, D))&allocBit != 0
}

// nextFragAllocated reports whether the block immediately following bp is
// allocated, reading only its header word (valid even at the epilogue
// sentinel, whose header carries the allocated bit).
func nextFragAllocated(bp Block) bool {
	return getWord(headerAddr(nextPhys(bp)))&allocBit != 0
}

// Free-block payload layout: the first D bytes hold the prev-in-list link,
// the second D bytes the next-in-list link. Both are nullable block
// pointers into the same size class.

func getLink(addr unsafe.Pointer) Block {
	return *(*unsafe.Pointer)(addr)
}

func setLink(addr unsafe.Pointer, v Block) {
	*(*unsafe.Pointer)(addr) = v
}

func prevFree(bp Block) Block {
	return getLink(bp)
}

func setPrevFree(bp Block, v Block) {
	setLink(bp, v)
}

func nextFree(bp Block) Block {
	return getLink(addPtr(bp, D))
}

func setNextFree(bp Block, v Block) {
	setLink(addPtr(bp, D), v)
}

// roundUpWords rounds a word count up to an even number, preserving
// D-alignment once multiplied by W.
func roundUpWords(words uint64) uint64 {
	if words%2 != 0 {
		words++
	}
	return words
}

// roundUpD rounds a byte size up to the next multiple of D.
func roundUpD(size uint64) uint64 {
	return (size + D - 1) & dwordMask
}

// alignedTo8 reports whether a pointer is D-aligned.
func alignedTo8(p unsafe.Pointer) bool {
	return uintptr(p)%D == 0
}
