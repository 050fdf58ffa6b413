package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
// Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil // No overflow when either is zero
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no overflow occurs.
// Returns 0 and an error if overflow would occur.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ProductInt multiplies a slice of positive sizes with overflow checking.
// Every entry must be strictly positive. Used for coordinate point counts
// and dataset element counts.
func ProductInt(sizes []int) (int, error) {
	if len(sizes) == 0 {
		return 0, fmt.Errorf("no sizes provided")
	}

	total := uint64(1)
	for i, s := range sizes {
		if s < 1 {
			return 0, fmt.Errorf("size must be positive at dimension %d: got %d", i, s)
		}

		var err error
		total, err = SafeMultiply(total, uint64(s))
		if err != nil {
			return 0, fmt.Errorf("size product overflow at dimension %d: %w", i, err)
		}
	}

	if total > math.MaxInt {
		return 0, fmt.Errorf("size product %d exceeds int range", total)
	}
	return int(total), nil
}

// ByteSize safely calculates the byte size of an array from its element
// count and element size. Returns an error if overflow would occur.
func ByteSize(elements int, elementSize int) (int, error) {
	if elements < 0 || elementSize < 1 {
		return 0, fmt.Errorf("invalid byte size inputs: %d elements of %d bytes", elements, elementSize)
	}

	size, err := SafeMultiply(uint64(elements), uint64(elementSize))
	if err != nil {
		return 0, err
	}
	if size > math.MaxInt {
		return 0, fmt.Errorf("byte size %d exceeds int range", size)
	}
	return int(size), nil
}
