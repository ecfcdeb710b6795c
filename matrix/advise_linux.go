// SPDX-License-Identifier: MIT

//go:build linux

package matrix

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandom tells the kernel portions are read out of order.
func adviseRandom(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
