package cpu

import (
	"io"

	"bedrock/kernel/kfmt"
)

// Context is the complete suspended state of one logical thread: enough to
// resume it later with no other information. Its in-memory form is the
// register frame the switch primitive pushes on the suspended thread's
// stack; the frame address is the externally visible handle to the whole
// Context.
type Context struct {
	// RA is the instruction address the thread resumes at.
	RA uint64

	// GP is the global-data-area pointer, saved together with the
	// callee-saved set.
	GP uint64

	// TP is the thread-local-storage pointer at suspension time.
	TP uint64

	// ASR is the address-space-root register value at suspension time.
	ASR uint64

	// S holds the architecture's ordered callee-saved register set.
	S []uint64
}

// DumpTo writes the context's register values to w for diagnostics. The
// regNames slice supplies the architecture's names for the callee-saved set;
// a register beyond the named range is printed by index.
func (ctx *Context) DumpTo(w io.Writer, regNames []string) {
	kfmt.Fprintf(w, " ra = %16x  gp = %16x\n", ctx.RA, ctx.GP)
	kfmt.Fprintf(w, " tp = %16x asr = %16x\n", ctx.TP, ctx.ASR)

	for i, val := range ctx.S {
		name := "s?"
		if i < len(regNames) {
			name = regNames[i]
		}

		kfmt.Fprintf(w, "%3s = %16x", name, val)
		if i%2 == 1 || i == len(ctx.S)-1 {
			kfmt.Fprintf(w, "\n")
		} else {
			kfmt.Fprintf(w, " ")
		}
	}
}
