//go:build !unix

package debugger

import "os"

// killProcess terminates pid through the portable process API.
func killProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// reapProcess is a no-op where wait-by-pid is unavailable.
func reapProcess(pid int) error {
	return nil
}
