//go:build windows

package domain

import (
	"golang.org/x/sys/windows"
)

func lockMemory(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.VirtualLock(&b[0], uintptr(len(b)))
}

func unlockMemory(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.VirtualUnlock(&b[0], uintptr(len(b)))
}
