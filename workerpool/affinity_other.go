// SPDX-License-Identifier: MIT

//go:build !linux

package workerpool

func pinToCPU(int) error { return ErrPinningUnsupported }
