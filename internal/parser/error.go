package parser

import (
	"fmt"
	"strings"

	"github.com/arlco/nsh/internal/token"
)

// ParseError is a lex- or parse-origin diagnostic carrying the offending
// token's byte offset, formatted with a caret under the column and an
// optional one-line hint -- the same shape the project's diagnostics have
// always used for compiler-style errors.
type ParseError struct {
	Message string
	Tok     token.Token
	Source  string
	Lexical bool // true if this originated in the lexer, not the parser
}

func (e *ParseError) Error() string {
	return e.Message
}

// Format renders the error with a caret under the offending column, in
// the style of: "Parse error: <msg>\n  --> offset <n>\n   | <source>\n   | ^\n"
// ("Lex error" for lexer-origin errors), plus a "Help:" line when a hint
// applies.
func (e *ParseError) Format() string {
	var b strings.Builder
	kind := "Parse error"
	if e.Lexical {
		kind = "Lex error"
	}
	fmt.Fprintf(&b, "\033[31m%s\033[0m: %s\n", kind, e.Message)
	fmt.Fprintf(&b, "  \033[36m--> offset %d\033[0m\n", e.Tok.Pos.Offset)
	if e.Source != "" {
		b.WriteString("   | ")
		b.WriteString(e.Source)
		b.WriteString("\n")
		col := e.Tok.Pos.Column
		if col < 1 {
			col = 1
		}
		b.WriteString("   | ")
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString("\033[31m^\033[0m\n")
	}
	if hint := suggestionFor(e.Message); hint != "" {
		fmt.Fprintf(&b, "   \033[33mHelp:\033[0m %s\n", hint)
	}
	return b.String()
}

// suggestionFor returns a short, canned hint for common mistakes.
func suggestionFor(msg string) string {
	switch {
	case strings.Contains(msg, "duplicate"):
		return "each of <, >, >> may be used at most once per pipe chain"
	case strings.Contains(msg, "cd"):
		return "cd must be alone in its pipe chain, with at most one argument and no redirections"
	case strings.Contains(msg, "unmatched") || strings.Contains(msg, "expected ')'"):
		return "check for a missing closing parenthesis"
	case strings.Contains(msg, "unterminated quote"):
		return "add a closing \" to terminate the string"
	case strings.Contains(msg, "dangling escape"):
		return "a trailing \\ needs one more character to escape"
	}
	return ""
}
