// Package ast defines the command tree produced by the parser: runnables,
// pipe chains, conditional chains, and unconditional chains. Every node is
// built during the parse of a single input line, is immutable once the
// parser returns it, and is discarded as a whole when that line finishes
// executing -- ownership is strictly hierarchical and there are no cycles.
package ast

import (
	"fmt"
	"io"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/arlco/nsh/internal/token"
)

// Node is any element of the command tree. String renders a canonical,
// re-lexable form of the node (minimal whitespace, minimal quoting).
type Node interface {
	String() string
}

// Runnable is a unit that can occupy a pipeline position: a simple command
// or a parenthesized subshell.
type Runnable interface {
	Node
	runnableNode()
}

// Command is the first identifier of a runnable plus its argument list.
type Command struct {
	Name string
	Args []string
	Pos  token.Pos
}

func (*Command) runnableNode() {}

func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteIfNeeded(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quoteIfNeeded(a))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded re-quotes an identifier only when printing it bare would
// not re-lex to the same token, so the canonical form stays minimal.
// shellescape decides whether quoting is needed; the quoted form uses the
// lexer's own rules (double quotes, backslash before '"' and '\').
func quoteIfNeeded(s string) string {
	if shellescape.Quote(s) == s {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

// Subshell is a parenthesized, nested UncondChain that must run in a fresh
// child process.
type Subshell struct {
	Body *UncondChain
	Pos  token.Pos
}

func (*Subshell) runnableNode() {}

func (s *Subshell) String() string {
	return "(" + s.Body.String() + ")"
}

// PipeChain is one or more runnables connected by '|', with at most one
// stdin redirection and at most one of stdout/stdout-append redirection
// attached to the chain as a whole. IsCD is a precomputed predicate set by
// the parser: it is true only for a chain with exactly one Command
// runnable named "cd", at most one argument, and no redirections.
type PipeChain struct {
	Runnables         []Runnable
	StdinRedir        *string
	StdoutRedir       *string
	StdoutAppendRedir *string
	IsCD              bool
	IsExit            bool
}

func (pc *PipeChain) String() string {
	parts := make([]string, 0, len(pc.Runnables))
	for _, r := range pc.Runnables {
		parts = append(parts, r.String())
	}
	s := strings.Join(parts, " | ")
	if pc.StdinRedir != nil {
		s += " < " + quoteIfNeeded(*pc.StdinRedir)
	}
	if pc.StdoutRedir != nil {
		s += " > " + quoteIfNeeded(*pc.StdoutRedir)
	}
	if pc.StdoutAppendRedir != nil {
		s += " >> " + quoteIfNeeded(*pc.StdoutAppendRedir)
	}
	return s
}

// CondLink joins the previous PipeChain to the next one with && or ||.
type CondLink struct {
	Op   token.Type // AND or OR
	Pipe *PipeChain
}

// CondChain is pipe chains joined by && / ||, evaluated left to right with
// short-circuit.
type CondChain struct {
	First *PipeChain
	Tail  []CondLink
}

func (cc *CondChain) String() string {
	var b strings.Builder
	b.WriteString(cc.First.String())
	for _, l := range cc.Tail {
		b.WriteString(" ")
		b.WriteString(l.Op.String())
		b.WriteString(" ")
		b.WriteString(l.Pipe.String())
	}
	return b.String()
}

// UncondLink records the separator that ended the PRECEDING segment
// together with the CondChain that separator introduces. Op therefore
// describes the terminator of whichever segment comes immediately before
// Cond in the chain, not of Cond itself.
type UncondLink struct {
	Op   token.Type // SEMICOLON or BACKGROUND
	Cond *CondChain
}

// UncondChain is conditional chains joined by ; / &, executed in order.
// TrailingOp is the separator that followed the LAST segment (BACKGROUND,
// SEMICOLON, or the implicit END_OF_LINE/RPAREN wait). Per the resolution
// recorded for this grammar's '&'-placement ambiguity, '&' always
// backgrounds the segment it immediately terminates -- so each segment's
// own background-ness is read from the separator that follows it
// (Tail[i].Op for all but the last segment, TrailingOp for the last).
type UncondChain struct {
	First      *CondChain
	Tail       []UncondLink
	TrailingOp token.Type
}

// UncondSegment is one (CondChain, is-it-backgrounded) pair, in the order
// the segments appear in the source line.
type UncondSegment struct {
	Cond       *CondChain
	Background bool
}

// Segments flattens First/Tail/TrailingOp into execution order, pairing
// each CondChain with whether the separator that follows it is '&'.
func (uc *UncondChain) Segments() []UncondSegment {
	segs := make([]UncondSegment, 0, len(uc.Tail)+1)
	cur := uc.First
	for _, l := range uc.Tail {
		segs = append(segs, UncondSegment{Cond: cur, Background: false})
		cur = l.Cond
		segs[len(segs)-1].Background = l.Op == token.BACKGROUND
	}
	segs = append(segs, UncondSegment{Cond: cur, Background: uc.TrailingOp == token.BACKGROUND})
	return segs
}

func (uc *UncondChain) String() string {
	var b strings.Builder
	segs := uc.Segments()
	for i, s := range segs {
		if i > 0 {
			b.WriteString(" ")
			if segs[i-1].Background {
				b.WriteString("&")
			} else {
				b.WriteString(";")
			}
			b.WriteString(" ")
		}
		b.WriteString(s.Cond.String())
	}
	if len(segs) > 0 && segs[len(segs)-1].Background {
		b.WriteString(" &")
	}
	return b.String()
}

// Fprint writes the indented, multi-line AST dump described by the CLI's
// --print-ast flag: two spaces per nesting level, pipe/conditional/
// unconditional joins on their own, subshells bracketed on their own
// lines, and redirections listed under the chain that owns them.
func Fprint(w io.Writer, uc *UncondChain) {
	printUncond(w, uc, 0)
}

func indent(w io.Writer, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
}

func printUncond(w io.Writer, uc *UncondChain, depth int) {
	segs := uc.Segments()
	for i, s := range segs {
		printCond(w, s.Cond, depth)
		if i < len(segs)-1 || s.Background {
			indent(w, depth)
			if s.Background {
				fmt.Fprintln(w, "&")
			} else {
				fmt.Fprintln(w, ";")
			}
		}
	}
}

func printCond(w io.Writer, cc *CondChain, depth int) {
	printPipe(w, cc.First, depth)
	for _, l := range cc.Tail {
		indent(w, depth)
		fmt.Fprintln(w, l.Op.String())
		printPipe(w, l.Pipe, depth)
	}
}

func printPipe(w io.Writer, pc *PipeChain, depth int) {
	for i, r := range pc.Runnables {
		if i > 0 {
			indent(w, depth)
			fmt.Fprintln(w, "|")
		}
		printRunnable(w, r, depth)
	}
	if pc.StdinRedir != nil {
		indent(w, depth)
		fmt.Fprintf(w, "stdin -> %s\n", *pc.StdinRedir)
	}
	if pc.StdoutRedir != nil {
		indent(w, depth)
		fmt.Fprintf(w, "stdout -> %s\n", *pc.StdoutRedir)
	}
	if pc.StdoutAppendRedir != nil {
		indent(w, depth)
		fmt.Fprintf(w, "stdout -> append to %s\n", *pc.StdoutAppendRedir)
	}
}

func printRunnable(w io.Writer, r Runnable, depth int) {
	switch v := r.(type) {
	case *Command:
		indent(w, depth)
		fmt.Fprintf(w, "cmd:%s, args:[%s]\n", v.Name, strings.Join(v.Args, ", "))
	case *Subshell:
		indent(w, depth)
		fmt.Fprintln(w, "(")
		printUncond(w, v.Body, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, ")")
	}
}
