// switchtrace is a host-side demo that boots a modeled machine, forges a
// second thread and traces a series of cooperative context switches between
// the boot thread and the forged one.
package main

import (
	"flag"
	"os"

	"bedrock/kernel"
	"bedrock/kernel/cpu"
	"bedrock/kernel/hal"
	"bedrock/kernel/kfmt"
	"bedrock/kernel/kswitch"
	"bedrock/kernel/mem"
	"bedrock/kernel/sync"

	_ "bedrock/kernel/arch/mipsle"
	_ "bedrock/kernel/arch/riscv64"
)

var (
	archName    = flag.String("arch", "mipsle", "architecture to boot")
	numCores    = flag.Int("cores", 4, "number of cores to bring up")
	numSwitches = flag.Int("switches", 4, "number of context switches to trace")
)

func main() {
	flag.Parse()
	kfmt.SetOutputSink(os.Stdout)

	m, err := hal.New(*archName, *numCores, 16*mem.Mb)
	if err != nil {
		fail(err)
	}

	core, err := m.Boot()
	if err != nil {
		fail(err)
	}

	isa, ram, lay := m.Arch(), m.RAM(), m.Layout()

	// The boot thread becomes thread A: give it an address space and a
	// marker in s0 so the trace shows whose registers are live.
	core.ASR = 0x1000
	core.S[0] = 0x11111111
	core.RA = uint64(lay.KernelEntry) + 0x40

	// Thread B gets its own stack below the boot stack and starts life as
	// a forged frame whose return address stands in for the scheduler's
	// entry trampoline.
	var (
		slotA  kswitch.Slot
		stackB = lay.BootStackTop - 8*mem.Addr(isa.FrameBytes())
		slotB  = kswitch.NewContext(isa, ram, stackB, cpu.Context{
			RA:  uint64(lay.KernelEntry) + 0x100,
			GP:  uint64(lay.GlobalDataBase),
			ASR: 0x2000,
			S:   []uint64{0x22222222},
		})
	)

	var sched sync.Spinlock
	out, in := &slotA, &slotB

	for i := 1; i <= *numSwitches; i++ {
		// The scheduler-side contract: decide under the lock, mask
		// interrupts across the switch.
		sched.Acquire()
		wasDisabled := core.DisableInterrupts()
		kswitch.Switch(isa, core, ram, out, in)
		core.RestoreInterrupts(wasDisabled)
		sched.Release()

		kfmt.Printf("\nswitch %d: running pc=%x asr=%x s0=%x\n", i, core.PC, core.ASR, core.S[0])
		kfmt.Printf("suspended context at %x:\n", uint64(*out))

		suspended := isa.Read(ram, mem.Addr(*out))
		suspended.DumpTo(os.Stdout, isa.RegNames())

		out, in = in, out
	}
}

func fail(err *kernel.Error) {
	kfmt.Printf("[%s] error: %s\n", err.Module, err.Message)
	os.Exit(1)
}
