// Package cpu models the per-core processor state that the bootstrap and
// context-switch code manipulates: the register file, the privileged core-id
// register, the core lifecycle state machine and the interrupt-enable flag.
// No other package mutates control registers directly; everything above this
// layer goes through the arch capability.
package cpu

import "bedrock/kernel"

// State describes the lifecycle of a core. A core starts Unstarted and
// transitions exactly once, to Active for the core that wins the boot
// selection or to Halted for every other core. Halted is terminal: this
// design has no wakeup path, so a future multi-core bring-up would replace
// the transition with a parked-awaiting-wakeup state rather than extend it.
type State uint8

// Core lifecycle states.
const (
	Unstarted State = iota
	Active
	Halted
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Active:
		return "active"
	case Halted:
		return "halted"
	}

	return "unknown"
}

var errCoreTransition = &kernel.Error{Module: "cpu", Message: "core bootstrap state can only transition once"}

// Core models one physical execution unit. Register values are kept as
// uint64 regardless of the architecture word size; 32-bit architectures
// only ever store 32-bit values in them.
type Core struct {
	// IDReg holds the raw contents of the privileged identification
	// register as encoded by the owning architecture. It is assigned by
	// the machine topology at construction and never written again; the
	// architecture decodes the affinity id out of it at boot.
	IDReg uint64

	// The register roles touched by bootstrap and the switch primitive:
	// program counter, stack pointer, return address, global-data-area
	// pointer, thread-local pointer and address-space root.
	PC  uint64
	SP  uint64
	RA  uint64
	GP  uint64
	TP  uint64
	ASR uint64

	// S is the architecture-defined ordered callee-saved register set.
	S []uint64

	state        State
	intrDisabled bool
}

// NewCore returns an Unstarted core with the supplied raw id register value
// and room for numSaved callee-saved registers. Cores power on with
// interrupts masked; the kernel entry point unmasks them once it is ready.
func NewCore(idReg uint64, numSaved int) *Core {
	return &Core{
		IDReg:        idReg,
		S:            make([]uint64, numSaved),
		intrDisabled: true,
	}
}

// State returns the core's lifecycle state.
func (c *Core) State() State { return c.state }

// SetState performs the one-shot bootstrap transition out of Unstarted. Any
// further transition attempt is a contract violation by the model's caller;
// the modeled hardware has no such path.
func (c *Core) SetState(next State) *kernel.Error {
	if c.state != Unstarted || next == Unstarted {
		return errCoreTransition
	}

	c.state = next
	return nil
}

// DisableInterrupts masks the core's interrupt sources and returns the
// previous mask state so the caller can restore it. Callers of the switch
// primitive must bracket the switch with DisableInterrupts and
// RestoreInterrupts; the primitive itself never touches the flag.
func (c *Core) DisableInterrupts() (wasDisabled bool) {
	wasDisabled = c.intrDisabled
	c.intrDisabled = true
	return wasDisabled
}

// RestoreInterrupts restores the mask state returned by a previous call to
// DisableInterrupts.
func (c *Core) RestoreInterrupts(wasDisabled bool) {
	c.intrDisabled = wasDisabled
}

// EnableInterrupts unmasks the core's interrupt sources.
func (c *Core) EnableInterrupts() {
	c.intrDisabled = false
}

// InterruptsDisabled reports whether the core's interrupt sources are
// currently masked.
func (c *Core) InterruptsDisabled() bool { return c.intrDisabled }
