// Package kswitch implements the cooperative context-switch primitive the
// scheduler drives thread switching with, together with the context-slot
// word it communicates through and the synthesis of initial frames for
// brand-new threads.
//
// The primitive is a mechanism, not a policy: it performs no validation and
// trusts its caller completely. The scheduler owns the decision of what to
// switch to, must mask the core's interrupt sources around the call and must
// never pass an empty incoming slot except through the thread-creation path.
package kswitch

import (
	"bedrock/kernel/arch"
	"bedrock/kernel/cpu"
	"bedrock/kernel/mem"
)

// Slot is a single machine word owned by the scheduler's thread-control
// structures. It holds either the frame address of a resident Context or
// EmptySlot. A switch reads the incoming slot, then zeroes it, so a resident
// Context can be resumed exactly once.
type Slot mem.Addr

// EmptySlot marks a slot whose Context has been consumed: the thread is
// either running or was never suspended.
const EmptySlot = Slot(0)

// IsEmpty reports whether the slot holds no resident Context.
func (s Slot) IsEmpty() bool { return s == EmptySlot }

// Switch suspends the currently executing thread into a new Context frame on
// its stack, publishes the frame's address through out and resumes the
// Context whose frame address is held by in. The exact sequence is:
//
//  1. push a register frame on the current stack and fill it with the
//     return address, the callee-saved set including the global-data
//     pointer, the address-space root and the thread-local pointer,
//  2. publish the frame address through *out,
//  3. switch the stack pointer to the frame held by *in and restore the
//     address-space root, the thread-local pointer, the callee-saved set
//     and the return address from it,
//  4. zero *in, consuming the resumed Context,
//  5. return into the restored return address.
//
// A violated precondition is not detected here: an empty incoming slot makes
// step 3 dereference address zero, which faults in the modeled memory bank
// exactly like the hardware would.
func Switch(a arch.CPU, c *cpu.Core, ram *mem.Physical, out, in *Slot) {
	*out = Slot(a.Save(c, ram))

	frame := mem.Addr(*in)
	a.Restore(c, ram, frame)
	*in = EmptySlot

	// The return into the restored return address: from here on the core
	// executes the resumed thread.
	c.PC = c.RA
}

// NewContext forges the initial Context frame of a brand-new thread at the
// top of its fresh stack, shaped exactly like a frame Switch would have
// produced, and returns the slot value pointing at it.
//
// The thread-creation contract is the scheduler's: ctx.RA must point at a
// trampoline that adapts the primitive's plain return into a call of the
// thread entry function, with the entry address staged in ctx.S[0] and its
// argument in ctx.S[1].
func NewContext(a arch.CPU, ram *mem.Physical, stackTop mem.Addr, ctx cpu.Context) Slot {
	return Slot(a.Forge(ram, stackTop, ctx))
}
