package procexec

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/arlco/nsh/internal/ast"
)

// runPipeline wires redirections and inter-stage pipes for one PipeChain,
// starts every runnable with the first stage as its own process-group
// leader (later stages join that pgid), and returns the exit status of the
// last stage -- earlier stages are reaped in the background since their
// status is discarded. background is true only for a chain terminated by
// '&'; such a chain still gets its own process group (so job-control
// signals sent to it don't hit the shell) but must never be handed the
// controlling terminal, or the shell's own next terminal read stops on
// SIGTTIN once it is no longer the foreground group.
func (e *Executor) runPipeline(pc *ast.PipeChain, background bool) int {
	n := len(pc.Runnables)
	cmds := make([]*exec.Cmd, n)
	for i, r := range pc.Runnables {
		cmd, err := e.buildCmd(r)
		if err != nil {
			fmt.Fprintf(e.stderr, "nsh: %v\n", err)
			return 1
		}
		cmds[i] = cmd
	}

	var toClose []*os.File
	cleanup := func() {
		for _, f := range toClose {
			f.Close()
		}
	}

	if pc.StdinRedir != nil {
		f, err := os.Open(*pc.StdinRedir)
		if err != nil {
			fmt.Fprintf(e.stderr, "nsh: %v\n", err)
			return 1
		}
		cmds[0].Stdin = f
		toClose = append(toClose, f)
	} else {
		cmds[0].Stdin = e.stdin
	}

	switch {
	case pc.StdoutRedir != nil:
		f, err := os.OpenFile(*pc.StdoutRedir, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			fmt.Fprintf(e.stderr, "nsh: %v\n", err)
			cleanup()
			return 1
		}
		cmds[n-1].Stdout = f
		toClose = append(toClose, f)
	case pc.StdoutAppendRedir != nil:
		f, err := os.OpenFile(*pc.StdoutAppendRedir, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(e.stderr, "nsh: %v\n", err)
			cleanup()
			return 1
		}
		cmds[n-1].Stdout = f
		toClose = append(toClose, f)
	default:
		cmds[n-1].Stdout = e.stdout
	}

	for _, cmd := range cmds {
		cmd.Stderr = e.stderr
	}

	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			fmt.Fprintf(e.stderr, "nsh: %v\n", err)
			cleanup()
			return 1
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		toClose = append(toClose, r, w)
	}

	// Hold a read lock from the first Start until the final wait returns,
	// so reapLoop cannot sweep a stage that is started but not yet waited
	// on. The nested RLock in killAll/waitStatus cannot deadlock: reapLoop
	// only ever uses TryLock.
	e.waitMu.RLock()
	defer e.waitMu.RUnlock()

	leaderPid := 0
	started := make([]*exec.Cmd, 0, n)
	for i, cmd := range cmds {
		if i == 0 {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: 0}
		} else {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: leaderPid}
		}
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(e.stderr, "nsh: %s: %v\n", displayName(pc.Runnables[i]), err)
			cleanup()
			e.killAll(started)
			return 1
		}
		if i == 0 {
			leaderPid = cmd.Process.Pid
		}
		started = append(started, cmd)
	}

	// The parent's copies of every pipe/redirection fd are no longer
	// needed once every child has inherited what it needs.
	cleanup()

	if e.isTerm && !background {
		e.setForeground(leaderPid)
		defer e.setForeground(e.shellPgid)
	}

	for i := 0; i < n-1; i++ {
		e.waitDetached(cmds[i])
	}

	return e.waitStatus(cmds[n-1])
}

// buildCmd turns a runnable into an unstarted *exec.Cmd. A Subshell is
// realized by re-invoking the current binary on the subshell's own
// canonical, re-lexable text (ast.Node.String()) in single-line,
// non-interactive mode -- the idiomatic-Go stand-in for forking the
// running process directly, which Go's runtime does not support safely.
func (e *Executor) buildCmd(r ast.Runnable) (*exec.Cmd, error) {
	switch v := r.(type) {
	case *ast.Command:
		return exec.Command(v.Name, v.Args...), nil
	case *ast.Subshell:
		return exec.Command(e.selfPath, "--eval", v.Body.String(), "--no-term-input"), nil
	default:
		return nil, fmt.Errorf("unhandled runnable type %T", r)
	}
}

func displayName(r ast.Runnable) string {
	if c, ok := r.(*ast.Command); ok {
		return c.Name
	}
	return "(subshell)"
}

func (e *Executor) killAll(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		if cmd.Process != nil {
			cmd.Process.Kill()
			e.waitMu.RLock()
			cmd.Wait()
			e.waitMu.RUnlock()
		}
	}
}

// waitDetached reaps a non-final pipeline stage in the background; its
// status is discarded, same as the rest of the pipeline's contract.
func (e *Executor) waitDetached(cmd *exec.Cmd) {
	e.bgGroup.Add(1)
	go func() {
		defer e.bgGroup.Done()
		e.waitMu.RLock()
		defer e.waitMu.RUnlock()
		cmd.Wait()
	}()
}

// waitStatus blocks for cmd's exit and maps it to a shell status code.
func (e *Executor) waitStatus(cmd *exec.Cmd) int {
	e.waitMu.RLock()
	err := cmd.Wait()
	e.waitMu.RUnlock()
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return AbnormalTermination
			}
			return ws.ExitStatus()
		}
		return 1
	}
	fmt.Fprintf(e.stderr, "nsh: %v\n", err)
	return 1
}
