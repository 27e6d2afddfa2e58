//go:build windows

package main

// disableCtrlCEcho does nothing on windows, the console doesn't echo ^C.
func disableCtrlCEcho() (restore func()) {
	return func() {}
}
