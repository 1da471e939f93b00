package lineedit

import (
	"errors"
	"io"
	"strings"

	"github.com/ergochat/readline"
)

// Terminal is the interactive line source: cursor movement, history
// navigation, and completion are all handled by the underlying readline
// instance, which owns the tty's raw mode for the duration of a read.
type Terminal struct {
	rl *readline.Instance
}

// NewTerminal opens a readline instance bound to the controlling terminal.
func NewTerminal(prompt string, historySize int, complete Completer) (*Terminal, error) {
	cfg := &readline.Config{
		Prompt:       prompt,
		HistoryLimit: historySize,
	}
	if complete != nil {
		cfg.AutoComplete = completerAdapter{complete}
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}
	return &Terminal{rl: rl}, nil
}

func (t *Terminal) ReadLine() (line []byte, eof bool, overflow bool) {
	s, err := t.rl.Readline()
	switch {
	case err == nil:
		return []byte(s), false, false
	case errors.Is(err, io.EOF):
		return nil, true, false
	case errors.Is(err, readline.ErrInterrupt):
		// Ctrl-C on an empty or in-progress line: neither an error nor
		// end of input, just an empty line for this iteration.
		return nil, false, false
	default:
		return nil, true, false
	}
}

func (t *Terminal) Close() error {
	return t.rl.Close()
}

// SetPrompt replaces the prompt string shown before each subsequent read.
func (t *Terminal) SetPrompt(prompt string) {
	t.rl.SetPrompt(prompt)
}

type completerAdapter struct {
	fn Completer
}

func (a completerAdapter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	prefix := string(line[:pos])
	fields := strings.Fields(prefix)

	word := ""
	if len(fields) > 0 && !strings.HasSuffix(prefix, " ") {
		word = fields[len(fields)-1]
	}

	candidates := a.fn(word)
	out := make([][]rune, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			out = append(out, []rune(c[len(word):]))
		}
	}
	return out, len(word)
}
