//go:build !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package main

import "golang.org/x/sys/unix"

// termios requests on linux and other unix systems
const (
	ioctlReadTermios  = unix.TCGETS
	ioctlWriteTermios = unix.TCSETS
)
