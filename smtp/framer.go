package smtp

import (
	"bytes"
	"io"
)

const (
	// scratchSize is the fixed-size buffer used for each underlying read,
	// per SPEC_FULL.md's buffer policy (4.1).
	scratchSize = 2048

	// maxLineLength caps a single line at the RFC 5321-recommended 1000
	// octets (SPEC_FULL.md Design Note 3). It is not enforced inside the
	// DATA payload, only on command lines.
	maxLineLength = 1000
)

// Framer turns a byte stream into CRLF-terminated lines, with a DATA mode
// that accumulates dot-unstuffed payload lines until a lone "." line.
//
// It owns its own carry buffer; it never shares state with its Session.
type Framer struct {
	src    io.Reader
	carry  []byte
	inData bool
}

// NewFramer wraps src. src is read with a fixed-size scratch buffer; the
// carry buffer grows as needed to hold a partial line between reads.
func NewFramer(src io.Reader) *Framer {
	return &Framer{src: src}
}

// EnterDataMode switches the framer so the next reads accumulate a DATA
// payload instead of yielding raw command lines.
func (f *Framer) EnterDataMode() { f.inData = true }

// InDataMode reports whether the framer is currently accumulating a DATA
// payload.
func (f *Framer) InDataMode() bool { return f.inData }

// ReadLine returns the next CRLF-terminated line, CRLF included. It
// returns io.EOF once the stream ends cleanly with no line pending (a
// trailing partial line at EOF is discarded). A *LineTooLongError is
// returned, without losing framing, if a line exceeds maxLineLength before
// a terminator is found; the framer has already resynchronized on the next
// CRLF by the time it returns.
func (f *Framer) ReadLine() ([]byte, error) {
	scratch := make([]byte, scratchSize)

	for {
		if idx := indexCRLF(f.carry); idx >= 0 {
			line := f.carry[:idx+2]
			f.carry = f.carry[idx+2:]
			if len(line) > maxLineLength {
				return nil, &LineTooLongError{}
			}
			return line, nil
		}

		if len(f.carry) > maxLineLength {
			if err := f.discardUntilCRLF(scratch); err != nil {
				return nil, err
			}
			return nil, &LineTooLongError{}
		}

		n, err := f.src.Read(scratch)
		if n > 0 {
			f.carry = append(f.carry, scratch[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// discardUntilCRLF drops bytes (including any already buffered) up to and
// including the next CRLF, so framing can resume after a too-long line.
func (f *Framer) discardUntilCRLF(scratch []byte) error {
	for {
		if idx := indexCRLF(f.carry); idx >= 0 {
			f.carry = f.carry[idx+2:]
			return nil
		}
		if k := len(f.carry); k > 0 && f.carry[k-1] == '\r' {
			// Keep a trailing CR: its LF may arrive with the next read.
			f.carry = f.carry[k-1:]
		} else {
			f.carry = nil
		}

		n, err := f.src.Read(scratch)
		if n > 0 {
			f.carry = append(f.carry, scratch[:n]...)
		}
		if err != nil {
			return err
		}
	}
}

// ReadDataPayload reads lines in DATA mode, dot-unstuffing as it goes,
// until it sees a line equal to exactly ".\r\n" (not included in the
// result), and leaves DATA mode. The payload line-length cap does not
// apply while inside DATA.
func (f *Framer) ReadDataPayload() ([]byte, error) {
	var payload []byte

	for {
		line, err := f.readRawLine()
		if err != nil {
			return nil, err
		}

		if bytes.Equal(line, []byte(".\r\n")) {
			f.inData = false
			return payload, nil
		}

		if len(line) > 0 && line[0] == '.' {
			line = line[1:]
		}

		payload = append(payload, line...)
	}
}

// readRawLine is like ReadLine but without the maxLineLength cap, used
// while inside DATA mode where the core imposes no hard line-length limit.
func (f *Framer) readRawLine() ([]byte, error) {
	scratch := make([]byte, scratchSize)

	for {
		if idx := indexCRLF(f.carry); idx >= 0 {
			line := f.carry[:idx+2]
			f.carry = f.carry[idx+2:]
			return line, nil
		}

		n, err := f.src.Read(scratch)
		if n > 0 {
			f.carry = append(f.carry, scratch[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// indexCRLF returns the index of the CR in the first CRLF found in buf, or
// -1 if none is present.
func indexCRLF(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return i
		}
	}
	return -1
}
