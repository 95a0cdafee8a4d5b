package kfmt

import "io"

// earlyBufferSize defines the capacity of the ring buffer that captures
// Printf output generated before an output sink is registered. It must be a
// power of 2.
const earlyBufferSize = 4096

// ringBuffer is a fixed-size byte ring. When full, new writes overwrite the
// oldest captured bytes so that the most recent boot output always survives
// until a sink shows up to drain it.
type ringBuffer struct {
	data   [earlyBufferSize]byte
	rIndex int
	used   int
}

// Write appends len(p) bytes to the ring, overwriting the oldest bytes once
// the ring is full. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.data[(rb.rIndex+rb.used)&(earlyBufferSize-1)] = b
		if rb.used == earlyBufferSize {
			rb.rIndex = (rb.rIndex + 1) & (earlyBufferSize - 1)
		} else {
			rb.used++
		}
	}

	return len(p), nil
}

// Read copies up to len(p) of the oldest buffered bytes into p, returning
// io.EOF once the ring has been fully drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.used == 0 {
		return 0, io.EOF
	}

	var n int
	for ; n < len(p) && rb.used > 0; n++ {
		p[n] = rb.data[rb.rIndex]
		rb.rIndex = (rb.rIndex + 1) & (earlyBufferSize - 1)
		rb.used--
	}

	return n, nil
}
