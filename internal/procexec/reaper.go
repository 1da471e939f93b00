package procexec

import "syscall"

// reapLoop wakes on every SIGCHLD and opportunistically collects any exited
// child nobody is blocked in Wait() for yet. Every process this package
// starts already has a dedicated goroutine blocked in cmd.Wait() (waitDetached,
// waitStatus, or killAll), so a blind Wait4(-1, ...) here would race those
// calls: whichever side wins the race reaps the zombie, and the loser's
// cmd.Wait() fails with an error that is not *exec.ExitError, corrupting the
// exit status it reports. reapLoop therefore only sweeps when it can take
// waitMu exclusively, i.e. when no dedicated wait is in flight; when one is,
// this cycle defers entirely to it rather than racing it.
func (e *Executor) reapLoop() {
	for range e.sigCh {
		if !e.waitMu.TryLock() {
			continue
		}
		for {
			var ws syscall.WaitStatus
			pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG, nil)
			if pid <= 0 || err != nil {
				break
			}
		}
		e.waitMu.Unlock()
	}
}
