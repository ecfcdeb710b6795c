// SPDX-License-Identifier: MIT

//go:build linux

package workerpool

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU binds the calling goroutine's thread to one CPU.
func pinToCPU(slot int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(slot % runtime.NumCPU())
	return unix.SchedSetaffinity(0, &set)
}
