package kswitch

import (
	"testing"

	"bedrock/kernel"
	"bedrock/kernel/arch"
	"bedrock/kernel/cpu"
	"bedrock/kernel/mem"

	_ "bedrock/kernel/arch/mipsle"
	_ "bedrock/kernel/arch/riscv64"
)

// forEachArch runs fn as a subtest against every architecture the primitive
// must behave identically on.
func forEachArch(t *testing.T, fn func(t *testing.T, a arch.CPU)) {
	for _, name := range []string{"mipsle", "riscv64"} {
		a, err := arch.Lookup(name)
		if err != nil {
			t.Fatalf("architecture %q not registered: %v", name, err)
		}

		t.Run(name, func(t *testing.T) { fn(t, a) })
	}
}

// bootMachine returns an active core and a RAM bank laid out per the
// architecture defaults.
func bootMachine(t *testing.T, a arch.CPU) (*cpu.Core, *mem.Physical) {
	lay := a.DefaultLayout()
	ram := mem.NewPhysical(lay.RAMBase, 16*mem.Mb)

	c := a.NewCore(0)
	if _, err := a.Boot(c, lay); err != nil {
		t.Fatal(err)
	}

	return c, ram
}

func TestConcreteSwitchScenario(t *testing.T) {
	forEachArch(t, func(t *testing.T, a arch.CPU) {
		c, ram := bootMachine(t, a)

		// Thread A is running with a marker in s0 and its own address
		// space; thread B exists only as a forged Context.
		c.S[0] = 0x11111111
		c.ASR = 0x1000
		c.RA = uint64(a.DefaultLayout().KernelEntry) + 0x40

		slotA := EmptySlot
		slotB := NewContext(a, ram, mem.Addr(c.SP)-4*mem.Addr(a.FrameBytes()), cpu.Context{
			RA:  uint64(a.DefaultLayout().KernelEntry) + 0x80,
			ASR: 0x2000,
			S:   []uint64{0x22222222},
		})

		Switch(a, c, ram, &slotA, &slotB)

		if exp, got := uint64(0x22222222), c.S[0]; got != exp {
			t.Errorf("expected the live marker register to read %x; got %x", exp, got)
		}
		if exp, got := uint64(0x2000), c.ASR; got != exp {
			t.Errorf("expected the address-space register to read %x; got %x", exp, got)
		}
		if !slotB.IsEmpty() {
			t.Error("expected the incoming slot to be zeroed")
		}
		if slotA.IsEmpty() {
			t.Fatal("expected the outgoing slot to hold the suspended context")
		}

		suspended := a.Read(ram, mem.Addr(slotA))
		if exp, got := uint64(0x11111111), suspended.S[0]; got != exp {
			t.Errorf("expected the suspended frame to hold marker %x; got %x", exp, got)
		}
		if exp, got := uint64(0x1000), suspended.ASR; got != exp {
			t.Errorf("expected the suspended frame to hold address-space root %x; got %x", exp, got)
		}
	})
}

func TestRoundTripRestoresTheFullContext(t *testing.T) {
	forEachArch(t, func(t *testing.T, a arch.CPU) {
		c, ram := bootMachine(t, a)
		lay := a.DefaultLayout()

		c.RA = uint64(lay.KernelEntry) + 0x10
		c.TP = uint64(lay.RAMBase) + 0x4000
		c.ASR = 0x1000
		for i := range c.S {
			c.S[i] = 0x4000 + uint64(i)
		}
		before := snapshot(c)

		slotA := EmptySlot
		slotB := NewContext(a, ram, mem.Addr(c.SP)-4*mem.Addr(a.FrameBytes()), cpu.Context{
			RA:  uint64(lay.KernelEntry) + 0x80,
			ASR: 0x2000,
			TP:  uint64(lay.RAMBase) + 0x8000,
			S:   []uint64{7, 7, 7},
		})

		// A suspends into slotA and B starts running. B then mutates its
		// own registers before switching back into A.
		Switch(a, c, ram, &slotA, &slotB)

		for i := range c.S {
			c.S[i] = 0xb000 + uint64(i)
		}
		c.TP = 0xbbbb0

		Switch(a, c, ram, &slotB, &slotA)

		after := snapshot(c)
		if before != after {
			t.Fatalf("expected the round trip to restore A's full context\nbefore: %x\nafter:  %x", before, after)
		}

		// B's suspended frame must have captured its mutations.
		bCtx := a.Read(ram, mem.Addr(slotB))
		if bCtx.S[0] != 0xb000 || bCtx.TP != 0xbbbb0 {
			t.Error("expected B's suspended frame to capture the values B mutated while running")
		}
	})
}

func TestSlotOwnershipAfterSwitch(t *testing.T) {
	forEachArch(t, func(t *testing.T, a arch.CPU) {
		c, ram := bootMachine(t, a)

		slotA := EmptySlot
		slotB := NewContext(a, ram, mem.Addr(c.SP)-4*mem.Addr(a.FrameBytes()), cpu.Context{RA: 0x1})

		Switch(a, c, ram, &slotA, &slotB)

		if !slotB.IsEmpty() {
			t.Error("expected the consumed slot to hold the empty sentinel")
		}
		if slotA.IsEmpty() {
			t.Error("expected the outgoing slot to be published")
		}

		// A second resume attempt through the already-consumed slot finds
		// the empty sentinel and dereferences address zero, which faults
		// in the modeled memory bank.
		var slotC Slot
		if err := catchFault(func() { Switch(a, c, ram, &slotC, &slotB) }); err == nil || err.Module != "mem" {
			t.Fatalf("expected a double resume to raise a memory fault; got %v", err)
		}
	})
}

func TestSwitchLandsOnTheRestoredReturnAddress(t *testing.T) {
	forEachArch(t, func(t *testing.T, a arch.CPU) {
		c, ram := bootMachine(t, a)

		trampoline := uint64(a.DefaultLayout().KernelEntry) + 0x200
		entry := uint64(a.DefaultLayout().KernelEntry) + 0x300
		arg := uint64(42)

		slotOut := EmptySlot
		slotNew := NewContext(a, ram, mem.Addr(c.SP)-4*mem.Addr(a.FrameBytes()), cpu.Context{
			RA: trampoline,
			S:  []uint64{entry, arg},
		})

		Switch(a, c, ram, &slotOut, &slotNew)

		if c.PC != trampoline || c.RA != trampoline {
			t.Errorf("expected the switch to return into the trampoline at %x; pc is %x", trampoline, c.PC)
		}

		// The thread-creation contract stages the entry function and its
		// argument in the first two callee-saved registers.
		if c.S[0] != entry || c.S[1] != arg {
			t.Error("expected the trampoline staging registers to survive the first switch into the thread")
		}
	})
}

func TestSwitchLeavesTheInterruptMaskAlone(t *testing.T) {
	forEachArch(t, func(t *testing.T, a arch.CPU) {
		c, ram := bootMachine(t, a)

		// Masking is the caller's duty; the primitive must not touch it.
		prev := c.DisableInterrupts()
		defer c.RestoreInterrupts(prev)

		slotA := EmptySlot
		slotB := NewContext(a, ram, mem.Addr(c.SP)-4*mem.Addr(a.FrameBytes()), cpu.Context{RA: 0x1})

		Switch(a, c, ram, &slotA, &slotB)

		if !c.InterruptsDisabled() {
			t.Error("expected the interrupt mask to be untouched by the switch")
		}
	})
}

// snapshot captures the register state the round-trip property compares.
type coreSnapshot struct {
	SP, RA, GP, TP, ASR uint64
	S                   [12]uint64
}

func snapshot(c *cpu.Core) coreSnapshot {
	snap := coreSnapshot{SP: c.SP, RA: c.RA, GP: c.GP, TP: c.TP, ASR: c.ASR}
	copy(snap.S[:], c.S)
	return snap
}

// catchFault runs fn and returns the *kernel.Error carried by the fault it
// raises, or nil if fn returns normally.
func catchFault(fn func()) (err *kernel.Error) {
	defer func() {
		if r := recover(); r != nil {
			err = r.(*kernel.Error)
		}
	}()

	fn()
	return nil
}
