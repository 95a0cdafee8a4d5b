package cpu

import (
	"bytes"
	"strings"
	"testing"
)

func TestContextDumpTo(t *testing.T) {
	ctx := Context{
		RA:  0x80100000,
		GP:  0x80200000,
		TP:  0x1234,
		ASR: 0x1000,
		S:   []uint64{0x11111111, 2, 3},
	}

	var buf bytes.Buffer
	ctx.DumpTo(&buf, []string{"s0", "s1"})

	out := buf.String()
	for _, exp := range []string{
		" ra = 0000000080100000",
		" gp = 0000000080200000",
		" tp = 0000000000001234",
		"asr = 0000000000001000",
		" s0 = 0000000011111111",
		" s1 = 0000000000000002",
		// registers beyond the named range print a placeholder name
		" s? = 0000000000000003",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected dump to contain %q; dump was:\n%s", exp, out)
		}
	}

	if exp, got := 4, strings.Count(out, "\n"); got != exp {
		t.Errorf("expected dump to span %d lines; got %d", exp, got)
	}
}
