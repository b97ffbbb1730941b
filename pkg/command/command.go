// Package command turns an asynchronous serial byte stream into discrete,
// line-terminated ASCII command strings, polled without blocking from the
// instrument loop.
package command

import (
	"context"
	"io"
	"log"
)

const (
	// DefaultBufLen is the length of the ASCII command buffer. Commands are
	// short ("?", "id?"); anything longer is junk and gets truncated.
	DefaultBufLen = 16
	// DefaultStreamLen is the default capacity of the byte channel between
	// the reader goroutine and the tokenizer.
	DefaultStreamLen = 256
)

// Tokenizer assembles command lines from a byte channel. Poll never blocks:
// it drains the bytes available right now and reports at most one completed
// command. The command buffer is bounded; surplus bytes of an overlong line
// are dropped until the terminator arrives.
type Tokenizer struct {
	in  <-chan byte
	buf []byte
	max int
}

// NewTokenizer creates a tokenizer reading from in. maxLen <= 0 selects
// DefaultBufLen.
func NewTokenizer(in <-chan byte, maxLen int) *Tokenizer {
	if maxLen <= 0 {
		maxLen = DefaultBufLen
	}

	return &Tokenizer{
		in:  in,
		buf: make([]byte, 0, maxLen),
		max: maxLen,
	}
}

// Poll returns the next completed command, if one terminated since the last
// poll. Carriage returns are ignored and empty lines produce no command, so
// both LF and CRLF terminated input work.
func (t *Tokenizer) Poll() (string, bool) {
	for {
		select {
		case b, ok := <-t.in:
			if !ok {
				return "", false
			}

			switch {
			case b == '\r':
				// Swallowed so CRLF doesn't yield a phantom empty line
			case b == '\n':
				if len(t.buf) == 0 {
					continue
				}
				cmd := string(t.buf)
				t.buf = t.buf[:0]
				return cmd, true
			case len(t.buf) < t.max:
				t.buf = append(t.buf, b)
			}
			// Buffer full: drop bytes until the terminator

		default:
			return "", false
		}
	}
}

// Listen reads bytes from r in a goroutine and forwards them on the returned
// channel until r fails or ctx is cancelled. Used to front blocking readers
// (stdin, serial ports) with a pollable source.
func Listen(ctx context.Context, r io.Reader) <-chan byte {
	out := make(chan byte, DefaultStreamLen)

	go func() {
		defer close(out)

		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				select {
				case out <- b:
				case <-ctx.Done():
					return
				default:
					// Channel full; the loop has stalled badly
					log.Printf("Command byte channel full, dropping input")
				}
			}
			if err != nil {
				if err != io.EOF {
					log.Printf("Error reading command stream: %v", err)
				}
				return
			}

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()

	return out
}
