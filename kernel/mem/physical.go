package mem

import "bedrock/kernel"

var (
	errBusFault    = &kernel.Error{Module: "mem", Message: "bus fault: address outside physical memory"}
	errAlignFault  = &kernel.Error{Module: "mem", Message: "alignment fault: word access on unaligned address"}
	errBadBankSize = &kernel.Error{Module: "mem", Message: "physical memory size must be a non-zero multiple of 8 bytes"}
)

// Physical models a bank of physical memory starting at a fixed base address.
// All accesses are word-granular and little-endian. An access outside the
// bank or on an unaligned address faults the way the modeled hardware would:
// it panics with a *kernel.Error instead of corrupting unrelated state. The
// switch primitive performs no pointer validation of its own, so a corrupt
// Context handle surfaces here.
type Physical struct {
	base Addr
	data []byte
}

// NewPhysical allocates a modeled memory bank of the given size mapped at
// base. The size must be a non-zero multiple of 8 bytes so that any word
// size supported by the registered architectures fits.
func NewPhysical(base Addr, size Size) *Physical {
	if size == 0 || size%8 != 0 {
		panic(errBadBankSize)
	}

	return &Physical{
		base: base,
		data: make([]byte, size),
	}
}

// Base returns the physical address where the bank begins.
func (p *Physical) Base() Addr { return p.base }

// Size returns the bank size in bytes.
func (p *Physical) Size() Size { return Size(len(p.data)) }

// Contains reports whether at falls inside the bank.
func (p *Physical) Contains(at Addr) bool {
	return at >= p.base && at < p.base+Addr(len(p.data))
}

// Load reads one word of wordBytes bytes (4 or 8) from at and faults if the
// access leaves the bank or is not word-aligned.
func (p *Physical) Load(at Addr, wordBytes int) uint64 {
	off := p.check(at, wordBytes)

	var val uint64
	for i := wordBytes - 1; i >= 0; i-- {
		val = val<<8 | uint64(p.data[off+i])
	}
	return val
}

// Store writes the low wordBytes bytes of val to at with the same fault
// semantics as Load.
func (p *Physical) Store(at Addr, wordBytes int, val uint64) {
	off := p.check(at, wordBytes)

	for i := 0; i < wordBytes; i++ {
		p.data[off+i] = byte(val)
		val >>= 8
	}
}

// check validates a word access and returns the byte offset into the bank.
func (p *Physical) check(at Addr, wordBytes int) int {
	if at < p.base || at+Addr(wordBytes) > p.base+Addr(len(p.data)) {
		panic(errBusFault)
	}
	if at%Addr(wordBytes) != 0 {
		panic(errAlignFault)
	}

	return int(at - p.base)
}
