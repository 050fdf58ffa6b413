package usid

// AvailableMemory reports the system memory currently available for
// buffering, in bytes. Returns 0 when the platform offers no probe, in
// which case translator budgets fall back to the requested maximum.
func AvailableMemory() uint64 {
	return availableMemory()
}
