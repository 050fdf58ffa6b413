package usid

import (
	"fmt"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// MakeIndexMatrix builds the raw coordinate index matrix for an ordered
// set of dimension sizes. It is intentionally generic so that it works
// for any axis ordering, count and dimensionality.
//
// Sizes must be ordered from fastest varying to slowest varying. The
// result is oriented Position-style, [points, active axes], where
// points = product(sizes). An axis of size 1 contributes no column; if
// every axis has size 1 the matrix is a single row with one zero column.
//
// Parameters:
//   - sizes: step count per axis, each strictly positive
//
// Returns:
//   - [][]uint32: the index matrix, points rows
//   - error: ErrInvalidSize for non-positive sizes, or an overflow error
//     when product(sizes) does not fit in an int
func MakeIndexMatrix(sizes []int) ([][]uint32, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes given", ErrInvalidSize)
	}
	for i, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("%w: dimension %d has size %d", ErrInvalidSize, i, s)
		}
	}

	points, err := utils.ProductInt(sizes)
	if err != nil {
		return nil, utils.WrapError("coordinate point count", err)
	}

	cols := 0
	for _, s := range sizes {
		if s > 1 {
			cols++
		}
	}
	if cols == 0 {
		cols = 1 // dummy column for an all-singleton axis set
	}

	mat := make([][]uint32, points)
	for r := range mat {
		mat[r] = make([]uint32, cols)
	}

	// Closed form: for axis i, index(r) = (r mod part1) / part2 with
	// part1 = prod(sizes[0..i]) and part2 = prod(sizes[0..i-1]). The
	// value cycles with period part1 across all remaining repetitions.
	col := 0
	part1 := 1
	for _, s := range sizes {
		part2 := part1
		part1 *= s
		if s == 1 {
			continue
		}
		for r := 0; r < points; r++ {
			mat[r][col] = uint32((r % part1) / part2)
		}
		col++
	}

	return mat, nil
}

// activeAxes reports the original positions of all axes with size > 1.
// An all-singleton axis set yields []int{0}: the dummy column is backed
// by axis 0 so its metadata stays addressable.
func activeAxes(sizes []int) []int {
	active := make([]int, 0, len(sizes))
	for i, s := range sizes {
		if s > 1 {
			active = append(active, i)
		}
	}
	if len(active) == 0 {
		active = append(active, 0)
	}
	return active
}

// Transpose returns the transpose of a rectangular matrix.
func Transpose[T any](m [][]T) [][]T {
	if len(m) == 0 {
		return nil
	}
	out := make([][]T, len(m[0]))
	for i := range out {
		out[i] = make([]T, len(m))
		for j := range m {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Flatten lays a rectangular matrix out in C (row-major) order and
// returns the flat payload with its [rows, cols] shape.
func Flatten[T any](m [][]T) ([]T, []int) {
	if len(m) == 0 {
		return nil, []int{0, 0}
	}
	cols := len(m[0])
	flat := make([]T, 0, len(m)*cols)
	for _, row := range m {
		flat = append(flat, row...)
	}
	return flat, []int{len(m), cols}
}
