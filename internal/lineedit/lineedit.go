// Package lineedit is the boundary between the shell's core and whatever
// reads lines of input. The core only ever calls Source.ReadLine; this
// package supplies two implementations, a full terminal editor and a
// plain buffered fallback, and the isatty check that picks between them.
package lineedit

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Source is the line-source boundary the shell core consumes. eof is true
// once there is nothing further to read; overflow is true when a single
// line exceeded the implementation's buffering limit and was discarded;
// the next call reads the line after it.
type Source interface {
	ReadLine() (line []byte, eof bool, overflow bool)
	Close() error
}

// IsInteractive reports whether both stdin and stdout are attached to a
// terminal, the condition that drives the "> " prompt rule and the choice
// between Terminal and Buffered.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// NewAuto picks Terminal when IsInteractive() and forceBuffered is false,
// and Buffered otherwise (the --no-term-input case, or stdin/stdout
// redirected to a file or pipe).
func NewAuto(prompt string, historySize int, forceBuffered bool, complete Completer) (Source, error) {
	if !forceBuffered && IsInteractive() {
		return NewTerminal(prompt, historySize, complete)
	}
	return NewBuffered(os.Stdin), nil
}

// Completer resolves a partial command/argument into candidate completions.
type Completer func(prefix string) []string

// maxLineLength bounds a single buffered line; a longer line is reported
// back to the caller as an overflow rather than silently truncated.
const maxLineLength = 64 * 1024

// Buffered is a bufio.Scanner-based line source, used when there is no
// terminal to edit against (redirected input, or --no-term-input).
type Buffered struct {
	scanner *bufio.Scanner
	r       io.Reader
}

// NewBuffered wraps r for line-at-a-time reading.
func NewBuffered(r io.Reader) *Buffered {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 4096), maxLineLength)
	return &Buffered{scanner: s, r: r}
}

func (b *Buffered) ReadLine() (line []byte, eof bool, overflow bool) {
	if !b.scanner.Scan() {
		if err := b.scanner.Err(); err != nil && errors.Is(err, bufio.ErrTooLong) {
			// The scanner is spent and holds only bytes of the oversized
			// line: drop the rest of that line and rescan from the next one.
			var c [1]byte
			for {
				n, rerr := b.r.Read(c[:])
				if (n == 1 && c[0] == '\n') || rerr != nil {
					break
				}
			}
			b.scanner = bufio.NewScanner(b.r)
			b.scanner.Buffer(make([]byte, 4096), maxLineLength)
			return nil, false, true
		}
		return nil, true, false
	}
	return b.scanner.Bytes(), false, false
}

func (b *Buffered) Close() error { return nil }
