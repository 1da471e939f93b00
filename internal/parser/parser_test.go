package parser

import (
	"testing"

	"github.com/arlco/nsh/internal/ast"
)

func TestParse_SimplePipeline(t *testing.T) {
	chain, err := Parse("echo hello | tr a-z A-Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain.First.First.Runnables) != 2 {
		t.Fatalf("expected 2 runnables, got %d", len(chain.First.First.Runnables))
	}
	first := chain.First.First.Runnables[0].(*ast.Command)
	if first.Name != "echo" || len(first.Args) != 1 || first.Args[0] != "hello" {
		t.Fatalf("unexpected first command: %+v", first)
	}
}

func TestParse_ShortCircuit(t *testing.T) {
	chain, err := Parse("false && echo x ; echo y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain.Tail) != 1 || chain.Tail[0].Op.String() != ";" {
		t.Fatalf("expected a single ';' link, got %+v", chain.Tail)
	}
	if len(chain.First.Tail) != 1 || chain.First.Tail[0].Op.String() != "&&" {
		t.Fatalf("expected a single '&&' link in first segment")
	}
}

func TestParse_Redirections(t *testing.T) {
	chain, err := Parse("cat < in.txt > out.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pc := chain.First.First
	if pc.StdinRedir == nil || *pc.StdinRedir != "in.txt" {
		t.Fatalf("expected stdin redir in.txt, got %+v", pc.StdinRedir)
	}
	if pc.StdoutRedir == nil || *pc.StdoutRedir != "out.txt" {
		t.Fatalf("expected stdout redir out.txt, got %+v", pc.StdoutRedir)
	}
}

func TestParse_DuplicateRedirectionIsError(t *testing.T) {
	if _, err := Parse("cat > a.txt > b.txt"); err == nil {
		t.Fatalf("expected a parse error for duplicate redirection")
	}
}

func TestParse_Subshell(t *testing.T) {
	chain, err := Parse("( sleep 0 ; echo deep ) | cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pc := chain.First.First
	if len(pc.Runnables) != 2 {
		t.Fatalf("expected 2 runnables in pipe, got %d", len(pc.Runnables))
	}
	if _, ok := pc.Runnables[0].(*ast.Subshell); !ok {
		t.Fatalf("expected first runnable to be a subshell")
	}
}

func TestParse_UnmatchedParen(t *testing.T) {
	if _, err := Parse("( echo a"); err == nil {
		t.Fatalf("expected a parse error for unmatched '('")
	}
}

func TestParse_CDInPipeIsError(t *testing.T) {
	if _, err := Parse("cd /tmp | cat"); err == nil {
		t.Fatalf("expected a parse error for cd used inside a pipe")
	}
}

func TestParse_CDTooManyArgsIsError(t *testing.T) {
	if _, err := Parse("cd /tmp /var"); err == nil {
		t.Fatalf("expected a parse error for cd with more than one argument")
	}
}

func TestParse_CDWithRedirectionIsError(t *testing.T) {
	if _, err := Parse("cd /tmp > out.txt"); err == nil {
		t.Fatalf("expected a parse error for cd combined with a redirection")
	}
}

func TestParse_CDSetsIsCD(t *testing.T) {
	chain, err := Parse("cd /tmp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !chain.First.First.IsCD {
		t.Fatalf("expected IsCD to be set")
	}
}

func TestParse_EmptyLine(t *testing.T) {
	chain, err := Parse("")
	if err != nil || chain != nil {
		t.Fatalf("expected a nil, nil no-op result, got %+v, %v", chain, err)
	}
}

func TestParse_Background(t *testing.T) {
	chain, err := Parse("sleep 1 &")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain.Tail) != 0 {
		t.Fatalf("a trailing '&' should terminate the chain, not start a new segment")
	}
	segs := chain.Segments()
	if len(segs) != 1 || !segs[0].Background {
		t.Fatalf("expected a single backgrounded segment, got %+v", segs)
	}
}

func TestParse_AmpersandBackgroundsPrecedingSegment(t *testing.T) {
	chain, err := Parse("a & b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := chain.Segments()
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if !segs[0].Background || segs[1].Background {
		t.Fatalf("expected only the first segment backgrounded, got %+v", segs)
	}
}
