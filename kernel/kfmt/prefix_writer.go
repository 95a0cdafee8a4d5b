package kfmt

import "io"

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each output line.
type PrefixWriter struct {
	// Sink receives all writes.
	Sink io.Writer

	// Prefix is injected at the start of every line.
	Prefix []byte

	midLine bool
}

// Write writes len(p) bytes from p to the sink, injecting the configured
// prefix whenever a write lands at the beginning of a line. Injected prefix
// bytes are not counted in the returned length.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, start int

	for i := 0; i < len(p); i++ {
		if p[i] != '\n' {
			continue
		}

		n, err := w.writeSegment(p[start : i+1])
		written += n
		if err != nil {
			return written, err
		}
		start = i + 1
	}

	if start < len(p) {
		n, err := w.writeSegment(p[start:])
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// writeSegment emits one segment that contains at most one trailing newline,
// injecting the prefix when the segment begins a new line.
func (w *PrefixWriter) writeSegment(seg []byte) (int, error) {
	if !w.midLine {
		if _, err := w.Sink.Write(w.Prefix); err != nil {
			return 0, err
		}
	}

	w.midLine = seg[len(seg)-1] != '\n'
	return w.Sink.Write(seg)
}
