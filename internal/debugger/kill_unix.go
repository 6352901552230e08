//go:build unix

package debugger

import "golang.org/x/sys/unix"

// killProcess sends a forceful terminate signal to pid.
func killProcess(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// reapProcess collects the exit status of pid without blocking. The
// child may have been reaped already or never been ours; the caller
// treats errors as warnings.
func reapProcess(pid int) error {
	var ws unix.WaitStatus
	_, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	return err
}
