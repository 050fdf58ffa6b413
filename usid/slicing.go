package usid

// Span is a half-open [Start, Stop) interval along one matrix dimension.
// A negative Stop means the span runs to the end of the dimension, which
// keeps the representation independent of the matrix it is later applied
// to. Spans serialize to JSON and are stored in container attributes.
type Span struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// FullSpan covers an entire dimension.
func FullSpan() Span {
	return Span{Start: 0, Stop: -1}
}

// Clamp resolves the span against a dimension of length n, returning
// concrete [start, stop) bounds.
func (s Span) Clamp(n int) (start, stop int) {
	start, stop = s.Start, s.Stop
	if stop < 0 || stop > n {
		stop = n
	}
	if start < 0 {
		start = 0
	}
	if start > stop {
		start = stop
	}
	return start, stop
}

// RegionSlice addresses the sub-block of an index/value matrix that holds
// a single axis worth of data: one column per point in Position
// orientation, one row per spectrum in Spectroscopic orientation.
type RegionSlice struct {
	Rows Span `json:"rows"`
	Cols Span `json:"cols"`
}

// SliceMap maps axis labels to the region slices a reader uses to carve
// per-axis sub-arrays ("region references") out of the coordinate
// matrices.
type SliceMap map[string]RegionSlice

// PositionSlices builds the SliceMap for Position-oriented matrices.
// Axis k occupies column k across all rows. A positive extent bounds the
// row range to the first extent points, for truncated acquisitions where
// only a leading portion of the matrix holds valid data.
func PositionSlices(labels []string, extent int) SliceMap {
	rows := FullSpan()
	if extent > 0 {
		rows.Stop = extent
	}

	m := make(SliceMap, len(labels))
	for k, label := range labels {
		m[label] = RegionSlice{
			Rows: rows,
			Cols: Span{Start: k, Stop: k + 1},
		}
	}
	return m
}

// SpectroscopicSlices builds the SliceMap for Spectroscopic-oriented
// matrices. Axis k occupies row k across all columns; a positive extent
// bounds the column range to the first extent spectra. The asymmetry with
// PositionSlices exists because the two orientations place the per-axis
// dimension on opposite sides.
func SpectroscopicSlices(labels []string, extent int) SliceMap {
	cols := FullSpan()
	if extent > 0 {
		cols.Stop = extent
	}

	m := make(SliceMap, len(labels))
	for k, label := range labels {
		m[label] = RegionSlice{
			Rows: Span{Start: k, Stop: k + 1},
			Cols: cols,
		}
	}
	return m
}

// Region extracts the sub-matrix addressed by a RegionSlice. Spans are
// clamped against the actual matrix bounds, so open-ended slices resolve
// here.
func Region[T any](m [][]T, r RegionSlice) [][]T {
	r0, r1 := r.Rows.Clamp(len(m))
	out := make([][]T, 0, r1-r0)
	for _, row := range m[r0:r1] {
		c0, c1 := r.Cols.Clamp(len(row))
		out = append(out, row[c0:c1])
	}
	return out
}
