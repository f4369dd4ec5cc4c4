// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

// logging functions

import (
	"fmt"

	"github.com/intuitivelabs/slog"
)

// internal constants
const (
	pDBG   = "DBG: " + NAME + ": "
	pWARN  = "WARNING: " + NAME + ": "
	pERR   = "ERROR: " + NAME + ": "
	pBUG   = "BUG: " + NAME + ": "
	pPANIC = NAME + ": "
)

// Log is the generic log.
var Log slog.Log = slog.New(slog.LDBG, slog.LbackTraceS|slog.LlocInfoS,
	slog.LStdErr)

// WARNon is a shorthand for checking if logging at LWARN level is enabled.
func WARNon() bool {
	return Log.WARNon()
}

// WARN is a shorthand for logging a warning message.
func WARN(f string, a ...interface{}) {
	Log.LLog(slog.LWARN, 1, pWARN, f, a...)
}

// ERRon is a shorthand for checking if logging at LERR level is enabled.
func ERRon() bool {
	return Log.ERRon()
}

// ERR is a shorthand for logging an error message.
func ERR(f string, a ...interface{}) {
	Log.LLog(slog.LERR, 1, pERR, f, a...)
}

// BUG is a shorthand for logging a bug message.
func BUG(f string, a ...interface{}) {
	Log.LLog(slog.LBUG, 1, pBUG, f, a...)
}

// PANIC is a shorthand for log + panic; the named helpers below cover every
// out-of-contract condition the allocator can hit and should be preferred
// at call sites over formatting a PANIC message directly.
func PANIC(f string, a ...interface{}) {
	s := fmt.Sprintf(pPANIC+f, a...)
	Log.LLog(slog.LBUG, 1, "", "%s", s)
	panic(s)
}

// panicDoubleFree reports an attempt, via op ("free" or "realloc"), to
// release a pointer that is not currently allocated.
func panicDoubleFree(op string, ptr Block) {
	PANIC("attempt to %s an already freed pointer %p\n", op, ptr)
}

// panicOutOfBounds reports a pointer, passed to op ("free" or "realloc"),
// that does not lie within the heap's useable [lo, hi) range.
func panicOutOfBounds(op string, ptr, lo, hi Block) {
	PANIC("%s called with pointer %p out of heap bounds (useable range %p-%p)\n",
		op, ptr, lo, hi)
}

// panicCorruption reports a block whose header and footer words disagree,
// the signature of a write that ran past the block's declared bounds.
func panicCorruption(bp Block, hdr, ftr uint32) {
	PANIC("block %p header (%#x) does not match footer (%#x)\n", bp, hdr, ftr)
}

// panicMisaligned reports a block pointer that is not D-aligned.
func panicMisaligned(bp Block) {
	PANIC("block %p is not %d-byte aligned\n", bp, D)
}

// panicInvariant reports a full heap walk, run via op, that turned up a
// violated consistency invariant.
func panicInvariant(op string, err error) {
	PANIC("heap consistency check failed after %s: %v\n", op, err)
}
