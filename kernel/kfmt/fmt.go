// Package kfmt provides the kernel's formatted output support: a minimal,
// allocation-free Printf, a ring buffer that captures output emitted before
// a console exists and a prefix writer for per-subsystem log lines.
package kfmt

import "io"

// numBufSize defines the size of the shared buffer used for formatting
// numbers. It is large enough for a 64-bit value in base 8 plus sign.
const numBufSize = 32

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	digits = "0123456789abcdef"

	// numBuf and byteBuf are package-level scratch buffers so that number
	// and single-byte output never allocates.
	numBuf  [numBufSize]byte
	byteBuf [1]byte

	// earlyBuffer captures Printf output emitted before an output sink
	// has been registered via SetOutputSink.
	earlyBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. While
	// nil, output is redirected to earlyBuffer.
	outputSink io.Writer
)

// SetOutputSink registers w as the target for Printf output and drains any
// output accumulated in the early buffer into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuffer)
	}
}

// GetOutputSink returns the Printf output target. If no sink has been
// registered yet it returns the early buffer that currently captures output.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyBuffer
	}

	return outputSink
}

// Printf formats its arguments to the registered output sink. It is safe to
// call before any sink exists and never allocates.
//
// The supported subset of formatting verbs is:
//
// Strings:
//		%s the uninterpreted bytes of a string or byte slice
//
// Integers:
//		%o base 8
//		%d base 10
//		%x base 16, lower-case
//
// Characters:
//		%c the byte value as a single character
//
// Booleans:
//		%t "true" or "false"
//
// An optional decimal number preceding the verb specifies the field width.
// Strings and base-10 integers shorter than the width are left-padded with
// spaces; base-8 and base-16 integers are left-padded with zeroes.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but writes the formatted output to w.
// A nil writer targets the early buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		i        int
	)

	for i < len(format) {
		if format[i] != '%' {
			emitByte(w, format[i])
			i++
			continue
		}

		// Scan the optional width, then dispatch on the verb.
		i++
		padLen := 0
	scanVerb:
		for ; i < len(format); i++ {
			ch := format[i]
			switch {
			case ch == '%':
				emitByte(w, '%')
				break scanVerb
			case ch >= '0' && ch <= '9':
				padLen = padLen*10 + int(ch-'0')
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 'c' || ch == 't':
				if argIndex >= len(args) {
					emit(w, errMissingArg)
					break scanVerb
				}

				fmtArg(w, ch, args[argIndex], padLen)
				argIndex++
				break scanVerb
			default:
				emit(w, errNoVerb)
				break scanVerb
			}
		}
		i++
	}

	for ; argIndex < len(args); argIndex++ {
		emit(w, errExtraArg)
	}
}

// fmtArg dispatches a single argument to the formatter for its verb.
func fmtArg(w io.Writer, verb byte, arg interface{}, padLen int) {
	switch verb {
	case 'o':
		fmtInt(w, arg, 8, padLen)
	case 'd':
		fmtInt(w, arg, 10, padLen)
	case 'x':
		fmtInt(w, arg, 16, padLen)
	case 's':
		fmtString(w, arg, padLen)
	case 'c':
		fmtChar(w, arg)
	case 't':
		fmtBool(w, arg)
	}
}

// fmtBool emits "true" or "false".
func fmtBool(w io.Writer, arg interface{}) {
	v, ok := arg.(bool)
	if !ok {
		emit(w, errWrongArgType)
		return
	}

	if v {
		emit(w, trueValue)
	} else {
		emit(w, falseValue)
	}
}

// fmtChar emits the argument as a single character.
func fmtChar(w io.Writer, arg interface{}) {
	switch v := arg.(type) {
	case byte:
		emitByte(w, v)
	case rune:
		emitByte(w, byte(v))
	default:
		emit(w, errWrongArgType)
	}
}

// fmtString emits a string or byte slice, left-padding with spaces up to
// padLen.
func fmtString(w io.Writer, arg interface{}, padLen int) {
	switch v := arg.(type) {
	case string:
		for i := len(v); i < padLen; i++ {
			emitByte(w, ' ')
		}
		// Converting the string to a byte slice would allocate, so the
		// bytes go out one at a time.
		for i := 0; i < len(v); i++ {
			emitByte(w, v[i])
		}
	case []byte:
		for i := len(v); i < padLen; i++ {
			emitByte(w, ' ')
		}
		emit(w, v)
	default:
		emit(w, errWrongArgType)
	}
}

// fmtInt emits an integer of any built-in signed or unsigned type in the
// requested base, left-padding to padLen with spaces for base 10 and zeroes
// otherwise.
func fmtInt(w io.Writer, arg interface{}, base, padLen int) {
	var (
		sval int64
		uval uint64
		neg  bool
	)

	switch v := arg.(type) {
	case uint8:
		uval = uint64(v)
	case uint16:
		uval = uint64(v)
	case uint32:
		uval = uint64(v)
	case uint64:
		uval = v
	case uint:
		uval = uint64(v)
	case uintptr:
		uval = uint64(v)
	case int8:
		sval = int64(v)
	case int16:
		sval = int64(v)
	case int32:
		sval = int64(v)
	case int64:
		sval = v
	case int:
		sval = int64(v)
	default:
		emit(w, errWrongArgType)
		return
	}

	if sval < 0 {
		neg = true
		uval = uint64(-sval)
	} else if sval > 0 {
		uval = uint64(sval)
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	if padLen >= numBufSize {
		padLen = numBufSize - 1
	}

	// Fill numBuf from the right so no reversal pass is needed.
	pos := numBufSize
	for {
		pos--
		numBuf[pos] = digits[uval%uint64(base)]
		uval /= uint64(base)
		if uval == 0 {
			break
		}
	}

	if neg && padCh == '0' {
		// The sign precedes zero padding and occupies one field column.
		emitByte(w, '-')
		if padLen > 0 {
			padLen--
		}
	} else if neg {
		pos--
		numBuf[pos] = '-'
	}

	for numBufSize-pos < padLen && pos > 0 {
		pos--
		numBuf[pos] = padCh
	}

	emit(w, numBuf[pos:])
}

// emitByte writes a single byte through the shared scratch buffer.
func emitByte(w io.Writer, b byte) {
	byteBuf[0] = b
	emit(w, byteBuf[:])
}

// emit writes p to w, falling back to the early buffer while no sink exists.
func emit(w io.Writer, p []byte) {
	if w == nil {
		earlyBuffer.Write(p)
		return
	}

	w.Write(p)
}
