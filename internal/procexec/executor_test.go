package procexec

import (
	"bytes"
	"os"
	"testing"

	"github.com/arlco/nsh/internal/parser"
)

func newTestExecutor(stdout, stderr *bytes.Buffer) *Executor {
	return New(bytes.NewReader(nil), stdout, stderr, false, os.Args[0])
}

func TestExecuteLine_SimpleCommand(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("echo hello")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	e.Shutdown()

	if status != 0 {
		t.Fatalf("expected status 0, got %d (stderr: %s)", status, errb.String())
	}
	if out.String() != "hello\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestExecuteLine_Pipeline(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("echo hello | tr a-z A-Z")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	e.Shutdown()

	if status != 0 {
		t.Fatalf("expected status 0, got %d", status)
	}
	if out.String() != "HELLO\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestExecuteLine_ShortCircuitAnd(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("false && echo should-not-print")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	e.Shutdown()

	if status == 0 {
		t.Fatalf("expected non-zero status from false")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestExecuteLine_ShortCircuitOr(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("true || echo should-not-print")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	e.ExecuteLine(chain)
	e.Shutdown()

	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestExecuteLine_CDChangesWorkingDirectory(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(start)

	chain, err := parser.Parse("cd /")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	if status != 0 {
		t.Fatalf("expected status 0, got %d (%s)", status, errb.String())
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if wd != "/" {
		t.Fatalf("expected cwd /, got %s", wd)
	}
}

func TestExecuteLine_ExitSetsRequestAndCode(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("exit 7")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	if !e.ExitRequested {
		t.Fatalf("expected ExitRequested to be set")
	}
	if status != 7 || e.ExitCode != 7 {
		t.Fatalf("expected status/ExitCode 7, got status=%d code=%d", status, e.ExitCode)
	}
}

func TestExecuteLine_Background(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("sleep 0 &")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	if status != 0 {
		t.Fatalf("a backgrounded line should report status 0 immediately, got %d", status)
	}
	e.Shutdown()
}

func TestExecuteLine_Redirections(t *testing.T) {
	dir := t.TempDir()
	inPath := dir + "/in.txt"
	outPath := dir + "/out.txt"
	if err := os.WriteFile(inPath, []byte("from-file\n"), 0o644); err != nil {
		t.Fatalf("write input fixture: %v", err)
	}

	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("cat < " + inPath + " > " + outPath)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	if status != 0 {
		t.Fatalf("expected status 0, got %d (%s)", status, errb.String())
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "from-file\n" {
		t.Fatalf("unexpected output file contents: %q", got)
	}
}

func TestExecuteLine_CommandNotFound(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	chain, err := parser.Parse("this-binary-does-not-exist-anywhere")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	status := e.ExecuteLine(chain)
	if status == 0 {
		t.Fatalf("expected non-zero status for a missing command")
	}
	if errb.Len() == 0 {
		t.Fatalf("expected an error message on stderr")
	}
}
