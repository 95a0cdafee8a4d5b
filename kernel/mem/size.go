// Package mem provides the memory model shared by the bootstrap and
// context-switch code: physical addresses, block sizes, the link-map layout
// contract and a word-addressable physical memory bank.
package mem

// Addr represents an address in modeled physical memory. It is wide enough
// for the largest supported architecture word; 32-bit architectures simply
// never produce values above 1<<32.
type Addr uint64

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)
