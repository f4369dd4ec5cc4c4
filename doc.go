// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package heapcore implements the core of a boundary-tag, segregated
// free-list memory allocator over a single, contiguous, unidirectionally
// growable heap region.
//
// The heap is backed by an external Provider (see provider.go) that linearly
// extends the region and reports its current bounds; heapcore never maps or
// grows memory on its own. Everything above that line -- block layout,
// free-list directory, placement, boundary-tag coalescing and the public
// Allocate/Free/Reallocate/Calloc entry points -- is implemented here.
//
// heapcore is single-threaded: the Unsafe entry points take no lock and
// callers needing concurrent access must provide their own exclusion. The
// locking entry points (Allocate, Free, Reallocate, Calloc) are a thin,
// optional convenience layer on top, in the same spirit as qmalloc's
// Malloc/MallocUnsafe split.
package heapcore

const NAME = "heapcore"
