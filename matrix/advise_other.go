// SPDX-License-Identifier: MIT

//go:build !linux

package matrix

import "os"

func adviseRandom(*os.File) error { return nil }
