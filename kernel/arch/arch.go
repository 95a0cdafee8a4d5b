// Package arch defines the uniform capability each supported architecture
// implements for the bootstrap and context-switch code, plus the registry
// the machine layer uses to look architectures up by name. There is no
// portability shim behind this interface: every architecture carries its own
// bootstrap and switch sequence and shares only the contract.
package arch

import (
	"bedrock/kernel"
	"bedrock/kernel/cpu"
	"bedrock/kernel/mem"
)

// CPU is the capability an architecture exposes to the rest of the kernel.
// It is the only gateway to privileged register state; the scheduler above
// this layer manipulates nothing but opaque Context handles.
type CPU interface {
	// Name returns the architecture name used for registry lookups and
	// log prefixes.
	Name() string

	// WordBytes returns the machine word size in bytes.
	WordBytes() int

	// StackAlign returns the stack alignment requirement in bytes.
	StackAlign() int

	// FrameBytes returns the size of a saved Context register frame:
	// callee-saved set + return address + address-space root +
	// thread-local pointer, rounded up to StackAlign.
	FrameBytes() mem.Size

	// RegNames returns the architecture's names for the ordered
	// callee-saved register set.
	RegNames() []string

	// NewCore returns an unstarted core whose privileged id register
	// encodes the supplied affinity id the way this architecture's
	// hardware would.
	NewCore(affinity uint32) *cpu.Core

	// AffinityID decodes the affinity id from the core's privileged id
	// register.
	AffinityID(c *cpu.Core) uint32

	// DefaultLayout returns the architecture's link-map constants: RAM
	// base, global-data base symbol, reserved boot-stack top and kernel
	// entry address.
	DefaultLayout() mem.Layout

	// Boot runs the one-shot per-core bootstrap sequence and returns the
	// core's terminal state. Affinity 0 establishes the boot stack and
	// global-data pointer and transfers control to the kernel entry
	// point; every other core halts permanently.
	Boot(c *cpu.Core, lay mem.Layout) (cpu.State, *kernel.Error)

	// Save pushes a Context frame holding the core's current return
	// address, callee-saved set, global-data pointer, address-space root
	// and thread-local pointer onto the core's stack and returns the
	// frame address.
	Save(c *cpu.Core, ram *mem.Physical) mem.Addr

	// Restore switches the core's stack pointer to the supplied frame,
	// restores the address-space root, thread-local pointer, callee-saved
	// set and return address from it and pops the frame.
	Restore(c *cpu.Core, ram *mem.Physical, frame mem.Addr)

	// Forge constructs a Context frame below stackTop shaped exactly
	// like one Save would have produced, and returns its address. It is
	// used to synthesize the initial frame of a brand-new thread.
	Forge(ram *mem.Physical, stackTop mem.Addr, ctx cpu.Context) mem.Addr

	// Read decodes the Context stored in the frame at the supplied
	// address.
	Read(ram *mem.Physical, frame mem.Addr) cpu.Context
}

var (
	errUnknownArch = &kernel.Error{Module: "arch", Message: "unknown architecture"}
	errDupArch     = &kernel.Error{Module: "arch", Message: "architecture registered twice"}

	// registry tracks the registered architectures by name. Architecture
	// packages append themselves via Register from an init block.
	registry []CPU
)

// Register adds an architecture to the registry. Registering two
// architectures under the same name is a programming error and faults.
func Register(c CPU) {
	for _, existing := range registry {
		if existing.Name() == c.Name() {
			panic(errDupArch)
		}
	}

	registry = append(registry, c)
}

// Lookup returns the registered architecture with the supplied name.
func Lookup(name string) (CPU, *kernel.Error) {
	for _, c := range registry {
		if c.Name() == name {
			return c, nil
		}
	}

	return nil, errUnknownArch
}

// List returns the names of all registered architectures.
func List() []string {
	names := make([]string, len(registry))
	for i, c := range registry {
		names[i] = c.Name()
	}

	return names
}
