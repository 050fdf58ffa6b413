//go:build !linux

package usid

func availableMemory() uint64 {
	return 0
}
