// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// Word sizes. W is the header/footer word size; D is the alignment and
// pointer unit. All block payloads are aligned to D.
const (
	W = 4 // word: header, footer and size/alloc packing
	D = 8 // double word: alignment and pointer size
)

// allocBit is the single bit packed into a header/footer word marking a
// block allocated. The size occupies the remaining bits and is always a
// multiple of 8, so the low 3 bits of a header word are otherwise free.
const (
	allocBit  uint32 = 0x1
	sizeMask  uint32 = ^uint32(0x7)
	dwordMask uint64 = ^(uint64(D) - 1)
)

// MinBlockSize is the smallest legal block: header + two 8-byte free-list
// links + footer. A free block must be at least this big to carry its own
// prev/next pointers.
const MinBlockSize = 3 * D

// CHUNKSIZE is the default amount, in bytes, by which the heap is grown on
// a failed fit search. Tuned to a reference workload; callers embedding
// heapcore elsewhere may want a different default for their allocation mix.
const CHUNKSIZE = 168

// MaxFreeClasses is the number of segregated free lists (directory slots).
const MaxFreeClasses = 17

// classThresholds holds C[1..16] in D-units (8-byte units). A block of size
// s bytes belongs to class k, the smallest k in 1..16 with s/D <= C[k], or
// to class MaxFreeClasses (the open-ended tail) if none match. The jump
// from 10 to 12 is preserved verbatim from the reference table.
var classThresholds = [MaxFreeClasses - 1]uint64{
	3, 4, 5, 6, 7, 8, 9, 10, 12, 16, 32, 64, 128, 256, 512, 1024,
}
