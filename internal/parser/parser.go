// Package parser implements the four-level recursive-descent grammar of
// unconditional sequences, conditional chains, pipelines, and runnables.
//
//	UncondChain := CondChain ((';' | '&') CondChain)*
//	CondChain   := PipeChain (('&&' | '||') PipeChain)*
//	PipeChain   := Runnable ('|' Runnable)*
//	               (('<' ident) | ('>' ident) | ('>>' ident))*
//	Runnable    := ident ident*           -- a Command
//	             | '(' UncondChain ')'    -- a Subshell
//
// Every parsing procedure returns the separator token that ended its
// production so the caller can decide whether to continue or hand control
// back up, rather than sharing mutable lookahead state across levels.
package parser

import (
	"fmt"

	"github.com/arlco/nsh/internal/ast"
	"github.com/arlco/nsh/internal/lexer"
	"github.com/arlco/nsh/internal/token"
)

// Parser holds the lexer and two tokens of lookahead.
type Parser struct {
	lex    *lexer.Lexer
	source string

	curToken  token.Token
	peekToken token.Token
}

// New creates a parser over l, priming curToken/peekToken.
func New(l *lexer.Lexer, source string) *Parser {
	p := &Parser{lex: l, source: source}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.NextToken()
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Tok:     p.curToken,
		Source:  p.source,
		Lexical: p.curToken.Type == token.LEXER_ERROR,
	}
}

// Parse lexes and parses a single input line. A successful parse of a
// non-empty line ends with END_OF_LINE; nil, nil is returned for an empty
// or all-whitespace line (a no-op).
func Parse(line string) (*ast.UncondChain, error) {
	p := New(lexer.New(line), line)

	if p.curToken.Type == token.END_OF_LINE {
		return nil, nil
	}

	chain, term, err := p.parseUncondChain()
	if err != nil {
		return nil, err
	}
	if term.Type != token.END_OF_LINE {
		return nil, p.errorf("unexpected token %s", term)
	}
	return chain, nil
}

func (p *Parser) checkLexError() error {
	if p.curToken.Type == token.LEXER_ERROR {
		return p.errorf("%s", p.curToken.Literal)
	}
	return nil
}

// parseUncondChain parses CondChain ((';' | '&') CondChain)*. The
// separator immediately following the LAST segment (including a trailing
// ';' or '&' with nothing after it) is recorded as TrailingOp rather than
// starting an empty segment.
func (p *Parser) parseUncondChain() (*ast.UncondChain, token.Token, error) {
	first, term, err := p.parseCondChain()
	if err != nil {
		return nil, token.Token{}, err
	}

	chain := &ast.UncondChain{First: first, TrailingOp: term.Type}
	for term.Type == token.SEMICOLON || term.Type == token.BACKGROUND {
		op := term.Type
		p.nextToken() // consume ';' or '&'

		if p.curToken.Type == token.END_OF_LINE || p.curToken.Type == token.RPAREN {
			term = p.curToken
			chain.TrailingOp = op
			break
		}

		next, nterm, err := p.parseCondChain()
		if err != nil {
			return nil, token.Token{}, err
		}
		chain.Tail = append(chain.Tail, ast.UncondLink{Op: op, Cond: next})
		term = nterm
		chain.TrailingOp = term.Type
	}
	return chain, term, nil
}

// parseCondChain parses PipeChain (('&&' | '||') PipeChain)*.
func (p *Parser) parseCondChain() (*ast.CondChain, token.Token, error) {
	first, term, err := p.parsePipeChain()
	if err != nil {
		return nil, token.Token{}, err
	}

	chain := &ast.CondChain{First: first}
	for term.Type == token.AND || term.Type == token.OR {
		op := term.Type
		p.nextToken() // consume '&&' or '||'

		next, nterm, err := p.parsePipeChain()
		if err != nil {
			return nil, token.Token{}, err
		}
		chain.Tail = append(chain.Tail, ast.CondLink{Op: op, Pipe: next})
		term = nterm
	}
	return chain, term, nil
}

// parsePipeChain parses Runnable ('|' Runnable)* then any intermixed
// redirection tokens, enforcing that each direction is set at most once.
func (p *Parser) parsePipeChain() (*ast.PipeChain, token.Token, error) {
	if err := p.checkLexError(); err != nil {
		return nil, token.Token{}, err
	}

	first, err := p.parseRunnable()
	if err != nil {
		return nil, token.Token{}, err
	}

	chain := &ast.PipeChain{Runnables: []ast.Runnable{first}}

loop:
	for {
		if err := p.checkLexError(); err != nil {
			return nil, token.Token{}, err
		}
		switch p.curToken.Type {
		case token.PIPE:
			p.nextToken()
			r, err := p.parseRunnable()
			if err != nil {
				return nil, token.Token{}, err
			}
			chain.Runnables = append(chain.Runnables, r)

		case token.IN:
			if chain.StdinRedir != nil {
				return nil, token.Token{}, p.errorf("duplicate input redirection")
			}
			p.nextToken()
			if p.curToken.Type != token.IDENT {
				return nil, token.Token{}, p.errorf("expected filename after '<', got %s", p.curToken)
			}
			v := p.curToken.Literal
			chain.StdinRedir = &v
			p.nextToken()

		case token.OUT:
			if chain.StdoutRedir != nil || chain.StdoutAppendRedir != nil {
				return nil, token.Token{}, p.errorf("duplicate output redirection")
			}
			p.nextToken()
			if p.curToken.Type != token.IDENT {
				return nil, token.Token{}, p.errorf("expected filename after '>', got %s", p.curToken)
			}
			v := p.curToken.Literal
			chain.StdoutRedir = &v
			p.nextToken()

		case token.APPEND:
			if chain.StdoutRedir != nil || chain.StdoutAppendRedir != nil {
				return nil, token.Token{}, p.errorf("duplicate output redirection")
			}
			p.nextToken()
			if p.curToken.Type != token.IDENT {
				return nil, token.Token{}, p.errorf("expected filename after '>>', got %s", p.curToken)
			}
			v := p.curToken.Literal
			chain.StdoutAppendRedir = &v
			p.nextToken()

		default:
			break loop
		}
	}

	if err := classifyBuiltins(chain); err != nil {
		return nil, token.Token{}, &ParseError{Message: err.Error(), Tok: p.curToken, Source: p.source}
	}

	return chain, p.curToken, nil
}

// parseRunnable parses `ident ident*` as a Command, or `'(' UncondChain
// ')'` as a Subshell. A subshell is terminal within its runnable slot: no
// identifiers or redirections may attach to the same position afterward.
func (p *Parser) parseRunnable() (ast.Runnable, error) {
	if err := p.checkLexError(); err != nil {
		return nil, err
	}

	if p.curToken.Type == token.LPAREN {
		pos := p.curToken.Pos
		p.nextToken() // consume '('

		body, term, err := p.parseUncondChain()
		if err != nil {
			return nil, err
		}
		if term.Type != token.RPAREN {
			return nil, p.errorf("expected ')' to close subshell, got %s", term)
		}
		p.nextToken() // consume ')'
		return &ast.Subshell{Body: body, Pos: pos}, nil
	}

	if p.curToken.Type != token.IDENT {
		return nil, p.errorf("expected a command or '(', got %s", p.curToken)
	}

	cmd := &ast.Command{Name: p.curToken.Literal, Pos: p.curToken.Pos}
	p.nextToken()

	for p.curToken.Type == token.IDENT {
		cmd.Args = append(cmd.Args, p.curToken.Literal)
		p.nextToken()
	}
	return cmd, nil
}

// classifyBuiltins sets PipeChain.IsCD / IsExit, rejecting any syntactic
// context that would require forking a builtin: a multi-runnable pipe,
// more than one argument, or any redirection.
func classifyBuiltins(chain *ast.PipeChain) error {
	if len(chain.Runnables) != 1 {
		for _, r := range chain.Runnables {
			if isBuiltinCommand(r) {
				return fmt.Errorf("cd/exit cannot appear inside a multi-command pipe")
			}
		}
		return nil
	}

	cmd, ok := chain.Runnables[0].(*ast.Command)
	if !ok {
		return nil
	}

	switch cmd.Name {
	case "cd":
		if len(cmd.Args) > 1 {
			return fmt.Errorf("cd accepts at most one argument")
		}
		if hasRedirection(chain) {
			return fmt.Errorf("cd cannot be combined with redirections")
		}
		chain.IsCD = true
	case "exit":
		if len(cmd.Args) > 1 {
			return fmt.Errorf("exit accepts at most one argument")
		}
		if hasRedirection(chain) {
			return fmt.Errorf("exit cannot be combined with redirections")
		}
		chain.IsExit = true
	}
	return nil
}

func isBuiltinCommand(r ast.Runnable) bool {
	cmd, ok := r.(*ast.Command)
	return ok && (cmd.Name == "cd" || cmd.Name == "exit")
}

func hasRedirection(chain *ast.PipeChain) bool {
	return chain.StdinRedir != nil || chain.StdoutRedir != nil || chain.StdoutAppendRedir != nil
}
