//go:build linux

package usid

import "golang.org/x/sys/unix"

func availableMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	// Free plus reclaimable buffer memory, scaled by the kernel's
	// memory unit.
	return (uint64(info.Freeram) + uint64(info.Bufferram)) * uint64(info.Unit)
}
