// Package mipsle implements the bootstrap and context-switch sequences for a
// 32-bit little-endian MIPS style architecture. This is the reference
// architecture: the saved register frame carries the nine callee-saved
// registers s0-s7 and fp plus the global-data pointer, the address-space
// root lives in a CP0 style control register and the affinity id occupies
// the low bits of the CP0 id register.
package mipsle

import (
	"bedrock/kernel"
	"bedrock/kernel/arch"
	"bedrock/kernel/cpu"
	"bedrock/kernel/mem"
)

const (
	archName   = "mipsle"
	wordBytes  = 4
	stackAlign = 8

	// numSaved counts the callee-saved set: s0-s7 plus fp.
	numSaved = 9

	// The frame uses 13 words (ra, asr, s0-s7, fp, gp, tp) and carries
	// one padding word to honor the 8-byte stack alignment.
	frameWords = 14
	frameBytes = mem.Size(frameWords * wordBytes)

	// Frame layout in word slots.
	raSlot  = 0
	asrSlot = 1
	sSlot   = 2
	gpSlot  = sSlot + numSaved
	tpSlot  = gpSlot + 1

	// The id register models a CP0 EBase style register: the reset
	// exception base in the upper bits with the core number in the low
	// 10 bits.
	idRegBase    = 0x80000000
	affinityMask = 0x3ff
)

var regNames = []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "fp"}

type mipsleCPU struct{}

func init() {
	arch.Register(mipsleCPU{})
}

func (mipsleCPU) Name() string         { return archName }
func (mipsleCPU) WordBytes() int       { return wordBytes }
func (mipsleCPU) StackAlign() int      { return stackAlign }
func (mipsleCPU) FrameBytes() mem.Size { return frameBytes }
func (mipsleCPU) RegNames() []string   { return regNames }

// NewCore returns an unstarted core whose id register encodes affinity in
// the low 10 bits of the EBase style register.
func (mipsleCPU) NewCore(affinity uint32) *cpu.Core {
	return cpu.NewCore(idRegBase|uint64(affinity&affinityMask), numSaved)
}

// AffinityID decodes the core number from the low 10 bits of the id register.
func (mipsleCPU) AffinityID(c *cpu.Core) uint32 {
	return uint32(c.IDReg & affinityMask)
}

// DefaultLayout returns the platform link-map: RAM and the kernel image live
// in the unmapped cached segment at 0x80000000, the boot stack sits 8MB in
// so it cannot collide with the image or early boot data.
func (mipsleCPU) DefaultLayout() mem.Layout {
	return mem.Layout{
		RAMBase:        0x80000000,
		KernelEntry:    0x80100000,
		GlobalDataBase: 0x80200000,
		BootStackTop:   0x80800000,
	}
}

// Boot runs the one-shot core-selection sequence: any core with a non-zero
// affinity id halts permanently without touching memory; core 0 receives the
// boot stack and global-data pointer and jumps to the kernel entry point.
// The jump is not a call, so ra is left untouched.
func (m mipsleCPU) Boot(c *cpu.Core, lay mem.Layout) (cpu.State, *kernel.Error) {
	if m.AffinityID(c) != 0 {
		err := c.SetState(cpu.Halted)
		return c.State(), err
	}

	c.SP = uint64(lay.BootStackTop)
	c.GP = uint64(lay.GlobalDataBase)
	c.PC = uint64(lay.KernelEntry)

	err := c.SetState(cpu.Active)
	return c.State(), err
}

// Save pushes a Context frame onto the core's stack: ra and the callee-saved
// set including gp first, then the address-space root and the thread-local
// pointer read from their control registers. Returns the frame address,
// which becomes the suspended thread's handle.
func (mipsleCPU) Save(c *cpu.Core, ram *mem.Physical) mem.Addr {
	frame := mem.Addr(c.SP) - mem.Addr(frameBytes)
	c.SP = uint64(frame)

	ram.Store(slotAddr(frame, raSlot), wordBytes, c.RA)
	for i, val := range c.S {
		ram.Store(slotAddr(frame, sSlot+i), wordBytes, val)
	}
	ram.Store(slotAddr(frame, gpSlot), wordBytes, c.GP)
	ram.Store(slotAddr(frame, asrSlot), wordBytes, c.ASR)
	ram.Store(slotAddr(frame, tpSlot), wordBytes, c.TP)

	return frame
}

// Restore switches the core's stack to the supplied frame and reloads its
// state from it: the address-space root first, then immediately the
// thread-local pointer since anything that runs next may depend on it, then
// the callee-saved set, gp and ra. The frame is popped before returning.
func (mipsleCPU) Restore(c *cpu.Core, ram *mem.Physical, frame mem.Addr) {
	c.SP = uint64(frame)

	c.ASR = ram.Load(slotAddr(frame, asrSlot), wordBytes)
	c.TP = ram.Load(slotAddr(frame, tpSlot), wordBytes)
	for i := range c.S {
		c.S[i] = ram.Load(slotAddr(frame, sSlot+i), wordBytes)
	}
	c.GP = ram.Load(slotAddr(frame, gpSlot), wordBytes)
	c.RA = ram.Load(slotAddr(frame, raSlot), wordBytes)

	c.SP = uint64(frame) + uint64(frameBytes)
}

// Forge writes a Context frame below stackTop shaped exactly like one Save
// would have produced and returns its address. Callee-saved values beyond
// the architecture's set are ignored; missing ones are zero.
func (mipsleCPU) Forge(ram *mem.Physical, stackTop mem.Addr, ctx cpu.Context) mem.Addr {
	frame := (stackTop &^ mem.Addr(stackAlign-1)) - mem.Addr(frameBytes)

	ram.Store(slotAddr(frame, raSlot), wordBytes, ctx.RA)
	ram.Store(slotAddr(frame, asrSlot), wordBytes, ctx.ASR)
	for i := 0; i < numSaved; i++ {
		var val uint64
		if i < len(ctx.S) {
			val = ctx.S[i]
		}
		ram.Store(slotAddr(frame, sSlot+i), wordBytes, val)
	}
	ram.Store(slotAddr(frame, gpSlot), wordBytes, ctx.GP)
	ram.Store(slotAddr(frame, tpSlot), wordBytes, ctx.TP)

	return frame
}

// Read decodes the Context stored in the frame at the supplied address.
func (mipsleCPU) Read(ram *mem.Physical, frame mem.Addr) cpu.Context {
	ctx := cpu.Context{
		RA:  ram.Load(slotAddr(frame, raSlot), wordBytes),
		ASR: ram.Load(slotAddr(frame, asrSlot), wordBytes),
		GP:  ram.Load(slotAddr(frame, gpSlot), wordBytes),
		TP:  ram.Load(slotAddr(frame, tpSlot), wordBytes),
		S:   make([]uint64, numSaved),
	}
	for i := range ctx.S {
		ctx.S[i] = ram.Load(slotAddr(frame, sSlot+i), wordBytes)
	}

	return ctx
}

// slotAddr returns the address of a frame word slot.
func slotAddr(frame mem.Addr, slot int) mem.Addr {
	return frame + mem.Addr(slot*wordBytes)
}
