// Package arena implements the typed bump allocator called for by
// spec.md's REDESIGN FLAGS: a caller-supplied contiguous byte buffer is
// carved up, in order, into the typed slices the RTI driver's opaque
// options/memory/workspace structures need, with no further heap
// allocation once assignment is done.
//
// Every allocation call (Bytes, Float64Slice, IntSlice) advances the
// arena's cursor by the number of bytes it hands back, rounded up for
// alignment; calling Float64Slice(n) twice in the same order as two
// SizeFloat64(n) calls during a prior size-only pass reproduces the
// same layout, which is what lets the size functions and the
// NewInArena constructors stay in lockstep.
package arena

import (
	"fmt"
	"unsafe"
)

// align is the minimum alignment granted to every allocation. Matrix
// payloads (float64 slices) naturally satisfy the 8-byte alignment
// spec.md §4.1 asks for; nothing in this driver needs the 64-byte
// matrix alignment some BLAS kernels want, since condensing here goes
// through gonum rather than a SIMD kernel.
const align = 8

// Arena is a bump allocator over a caller-owned byte buffer.
type Arena struct {
	buf []byte
	off int
}

// New wraps buf for allocation. buf's first byte must itself be
// 8-byte aligned; Go's runtime and cgo both guarantee this for slices
// backed by the allocator or by C.malloc, so no further check is made
// beyond the size accounting below.
func New(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Len returns the number of bytes consumed so far.
func (a *Arena) Len() int { return a.off }

// Cap returns the arena's total capacity.
func (a *Arena) Cap() int { return len(a.buf) }

func alignUp(n int) int {
	return (n + align - 1) &^ (align - 1)
}

// Bytes carves off n raw bytes, zero-initialized by virtue of the
// caller-supplied buffer starting zeroed (as every Go-allocated []byte
// does).
func (a *Arena) Bytes(n int) []byte {
	size := alignUp(n)
	if a.off+size > len(a.buf) {
		panic(fmt.Sprintf("arena: out of space: need %d more bytes, have %d", size, len(a.buf)-a.off))
	}
	b := a.buf[a.off : a.off+n : a.off+n]
	a.off += size
	return b
}

// Float64Slice carves off a []float64 of length n.
func (a *Arena) Float64Slice(n int) []float64 {
	if n == 0 {
		return nil
	}
	b := a.Bytes(n * 8)
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), n)
}

// IntSlice carves off an []int of length n.
func (a *Arena) IntSlice(n int) []int {
	if n == 0 {
		return nil
	}
	const wordSize = int(unsafe.Sizeof(int(0)))
	b := a.Bytes(n * wordSize)
	return unsafe.Slice((*int)(unsafe.Pointer(&b[0])), n)
}

// SizeFloat64 returns the arena footprint of a Float64Slice(n) call.
func SizeFloat64(n int) int { return alignUp(n * 8) }

// SizeInt returns the arena footprint of an IntSlice(n) call.
func SizeInt(n int) int { return alignUp(n * int(unsafe.Sizeof(int(0)))) }

// SizeBytes returns the arena footprint of a Bytes(n) call.
func SizeBytes(n int) int { return alignUp(n) }
