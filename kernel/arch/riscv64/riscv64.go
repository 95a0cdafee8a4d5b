// Package riscv64 implements the bootstrap and context-switch sequences for
// a 64-bit RISC-V style architecture. The saved register frame carries the
// twelve callee-saved registers s0-s11 plus the global pointer, the
// address-space root is the satp style translation register and the affinity
// id is the full hart-id register.
package riscv64

import (
	"bedrock/kernel"
	"bedrock/kernel/arch"
	"bedrock/kernel/cpu"
	"bedrock/kernel/mem"
)

const (
	archName   = "riscv64"
	wordBytes  = 8
	stackAlign = 16

	// numSaved counts the callee-saved set: s0-s11.
	numSaved = 12

	// 16 words (ra, asr, s0-s11, gp, tp) come to 128 bytes, already a
	// multiple of the 16-byte stack alignment.
	frameWords = 16
	frameBytes = mem.Size(frameWords * wordBytes)

	// Frame layout in word slots.
	raSlot  = 0
	asrSlot = 1
	sSlot   = 2
	gpSlot  = sSlot + numSaved
	tpSlot  = gpSlot + 1
)

var regNames = []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11"}

type riscvCPU struct{}

func init() {
	arch.Register(riscvCPU{})
}

func (riscvCPU) Name() string         { return archName }
func (riscvCPU) WordBytes() int       { return wordBytes }
func (riscvCPU) StackAlign() int      { return stackAlign }
func (riscvCPU) FrameBytes() mem.Size { return frameBytes }
func (riscvCPU) RegNames() []string   { return regNames }

// NewCore returns an unstarted core whose id register is the hart id itself.
func (riscvCPU) NewCore(affinity uint32) *cpu.Core {
	return cpu.NewCore(uint64(affinity), numSaved)
}

// AffinityID decodes the hart id from the id register.
func (riscvCPU) AffinityID(c *cpu.Core) uint32 {
	return uint32(c.IDReg)
}

// DefaultLayout returns the platform link-map: RAM at 0x80000000 with the
// kernel image loaded 2MB in (below it sits the platform firmware), the
// boot stack at the 16MB mark.
func (riscvCPU) DefaultLayout() mem.Layout {
	return mem.Layout{
		RAMBase:        0x80000000,
		KernelEntry:    0x80200000,
		GlobalDataBase: 0x80400000,
		BootStackTop:   0x81000000,
	}
}

// Boot runs the one-shot core-selection sequence: any hart with a non-zero
// id halts permanently without touching memory; hart 0 receives the boot
// stack and global pointer and jumps to the kernel entry point without
// writing ra.
func (r riscvCPU) Boot(c *cpu.Core, lay mem.Layout) (cpu.State, *kernel.Error) {
	if r.AffinityID(c) != 0 {
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
// set including gp first, then the address-space root and thread-local
// pointer read from their control registers. Returns the frame address.
func (riscvCPU) Save(c *cpu.Core, ram *mem.Physical) mem.Addr {
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

// Restore switches the core's stack to the supplied frame and reloads the
// address-space root, then immediately the thread-local pointer, then the
// callee-saved set, gp and ra. The frame is popped before returning.
func (riscvCPU) Restore(c *cpu.Core, ram *mem.Physical, frame mem.Addr) {
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
// would have produced and returns its address.
func (riscvCPU) Forge(ram *mem.Physical, stackTop mem.Addr, ctx cpu.Context) mem.Addr {
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
func (riscvCPU) Read(ram *mem.Physical, frame mem.Addr) cpu.Context {
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
