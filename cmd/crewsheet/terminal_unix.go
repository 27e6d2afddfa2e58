//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// disableCtrlCEcho turns off ECHOCTL on an interactive stdin, so an interrupt during a crew run
// doesn't leave "^C" in front of the shutdown notice. The returned func restores the terminal.
func disableCtrlCEcho() (restore func()) {
	restore = func() {}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return restore
	}

	state, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return restore
	}
	saved := *state
	state.Lflag &^= unix.ECHOCTL
	if err = unix.IoctlSetTermios(fd, ioctlWriteTermios, state); err != nil {
		return restore
	}

	return func() { _ = unix.IoctlSetTermios(fd, ioctlWriteTermios, &saved) }
}
