// Package procexec walks a parsed command tree and executes it: it
// materializes pipes and redirections, starts processes, manages process
// groups and terminal foreground ownership, and propagates exit status
// including the short-circuit semantics of && and ||.
//
// The original design forks a small "group-leader" process per pipeline
// solely so a single tcsetpgrp and a single top-level wait suffice for the
// whole pipeline. Go's os/exec already performs the fork+exec safely
// without the double-fork hazard that motivates that indirection in a
// plain C implementation, so nsh gives the group-leader role to the first
// command of each pipeline directly (SysProcAttr.Pgid: 0 makes it its own
// process-group leader; later stages join that pgid) rather than forking
// a throwaway coordinator process -- see DESIGN.md for this adaptation.
package procexec

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"sync"
	"syscall"

	"github.com/arlco/nsh/internal/ast"
	"github.com/arlco/nsh/internal/token"
)

// AbnormalTermination is the status reported for a pipe chain whose final
// stage was killed by a signal rather than exiting normally.
const AbnormalTermination = -2

// Executor walks an UncondChain and executes it against real processes.
type Executor struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	isTerm    bool
	shellPgid int
	selfPath  string

	sigCh   chan os.Signal
	bgGroup sync.WaitGroup

	// waitMu excludes reapLoop's indiscriminate Wait4(-1, ...) from every
	// dedicated cmd.Wait() call (waitDetached, waitStatus, killAll): each
	// holds a read lock for the duration of its wait, and reapLoop only
	// sweeps when it can take the lock exclusively, mirroring the original
	// shell's SIGCHLD-to-SIG_DFL discipline around its synchronous waits
	// (execute_command.c:171,232,238) without needing to toggle signal
	// disposition itself.
	waitMu sync.RWMutex

	ExitRequested bool
	ExitCode      int
}

// New creates an Executor. selfPath is the path to the current nsh binary,
// used to re-invoke one-line non-interactive evaluation for subshells.
func New(stdin io.Reader, stdout, stderr io.Writer, isTerm bool, selfPath string) *Executor {
	e := &Executor{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		isTerm:    isTerm,
		shellPgid: os.Getpgrp(),
		selfPath:  selfPath,
	}

	// tcsetpgrp delivers SIGTTOU to the calling group if it isn't the
	// terminal's foreground group; the shell itself is not always the
	// foreground group once a pipeline owns the terminal, so SIGTTOU is
	// ignored for the lifetime of the process rather than toggled around
	// each call.
	signal.Ignore(syscall.SIGTTOU)

	e.sigCh = make(chan os.Signal, 16)
	signal.Notify(e.sigCh, syscall.SIGCHLD)
	go e.reapLoop()

	return e
}

// ExecuteLine runs one parsed line and returns its exit status.
func (e *Executor) ExecuteLine(chain *ast.UncondChain) int {
	status := 0
	for _, seg := range chain.Segments() {
		if seg.Background {
			e.runCondChainDetached(seg.Cond)
			status = 0
			continue
		}
		status = e.runCondChain(seg.Cond, false)
		if e.ExitRequested {
			return status
		}
	}
	return status
}

// Shutdown waits for every backgrounded segment to finish, matching the
// final blocking wait loop the top-level REPL performs on EOF.
func (e *Executor) Shutdown() {
	e.bgGroup.Wait()
}

func (e *Executor) runCondChainDetached(cc *ast.CondChain) {
	e.bgGroup.Add(1)
	go func() {
		defer e.bgGroup.Done()
		e.runCondChain(cc, true)
	}()
}

// runCondChain executes a CondChain's pipe chains left to right,
// short-circuiting on && / || exactly as specified. background is true
// only when this chain is the body of a '&'-terminated segment, and is
// threaded down to every pipeline the chain runs so none of them seize the
// controlling terminal.
func (e *Executor) runCondChain(cc *ast.CondChain, background bool) int {
	status := e.runPipeChain(cc.First, background)
	for _, link := range cc.Tail {
		if status == 0 && link.Op == token.OR {
			break
		}
		if status != 0 && link.Op == token.AND {
			break
		}
		status = e.runPipeChain(link.Pipe, background)
	}
	return status
}

// runPipeChain dispatches to the cd/exit builtins (which run in-process,
// never forked) or to a real pipeline.
func (e *Executor) runPipeChain(pc *ast.PipeChain, background bool) int {
	if pc.IsCD {
		return e.runCD(pc)
	}
	if pc.IsExit {
		return e.runExit(pc)
	}
	return e.runPipeline(pc, background)
}

// runCD resolves the target directory (the single argument, or ~ / no
// argument meaning $HOME) and chdirs the shell process itself so the
// change is visible to subsequently executed lines.
func (e *Executor) runCD(pc *ast.PipeChain) int {
	cmd := pc.Runnables[0].(*ast.Command)

	target := ""
	if len(cmd.Args) == 1 && cmd.Args[0] != "~" {
		target = cmd.Args[0]
	}
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			if u, uerr := user.Current(); uerr == nil && u.HomeDir != "" {
				home = u.HomeDir
			} else {
				fmt.Fprintf(e.stderr, "cd: %v\n", err)
				return 1
			}
		}
		target = home
	}

	if err := os.Chdir(target); err != nil {
		fmt.Fprintf(e.stderr, "cd: %v\n", err)
		return 1
	}
	return 0
}

// runExit requests termination of the top-level loop with an optional
// status code, without forking a process.
func (e *Executor) runExit(pc *ast.PipeChain) int {
	cmd := pc.Runnables[0].(*ast.Command)
	code := 0
	if len(cmd.Args) == 1 {
		fmt.Sscanf(cmd.Args[0], "%d", &code)
	}
	e.ExitRequested = true
	e.ExitCode = code
	return code
}
