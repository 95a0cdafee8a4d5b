package kfmt

import (
	"bytes"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		writes []string
		expOut string
	}{
		{
			[]string{"single line\n"},
			"[core0] single line\n",
		},
		{
			[]string{"two\nlines\n"},
			"[core0] two\n[core0] lines\n",
		},
		{
			[]string{"split ", "across ", "writes\n"},
			"[core0] split across writes\n",
		},
		{
			[]string{"trailing", " text"},
			"[core0] trailing text",
		},
		{
			[]string{"a\n", "b\n"},
			"[core0] a\n[core0] b\n",
		},
		{
			[]string{""},
			"",
		},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		w := &PrefixWriter{Sink: &buf, Prefix: []byte("[core0] ")}

		var totalWritten, totalIn int
		for _, chunk := range spec.writes {
			n, err := w.Write([]byte(chunk))
			if err != nil {
				t.Fatalf("[spec %d] unexpected write error: %v", specIndex, err)
			}
			totalWritten += n
			totalIn += len(chunk)
		}

		if got := buf.String(); got != spec.expOut {
			t.Errorf("[spec %d] expected output %q; got %q", specIndex, spec.expOut, got)
		}

		if totalWritten != totalIn {
			t.Errorf("[spec %d] expected reported written bytes to exclude the prefix: %d; got %d", specIndex, totalIn, totalWritten)
		}
	}
}
