//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// detach puts cmd in a new session so it survives its parent.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
