package procexec

import (
	"os"

	"golang.org/x/sys/unix"
)

// setForeground hands the controlling terminal to pgid. SIGTTOU, which
// tcsetpgrp would otherwise raise against a caller that is not already the
// foreground group, is ignored for the shell's whole lifetime (see New).
func (e *Executor) setForeground(pgid int) {
	if !e.isTerm {
		return
	}
	_ = unix.Tcsetpgrp(int(os.Stdin.Fd()), int32(pgid))
}
