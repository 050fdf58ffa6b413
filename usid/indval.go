package usid

import (
	"fmt"
)

type indValOptions struct {
	steps  []float64
	starts []float64
	labels []string
	units  []string
	extent int
}

// IndValOption customizes BuildIndValDatasets.
type IndValOption func(*indValOptions)

// WithSteps supplies the physical increment per index step for every
// axis. Defaults to 1.0 each.
func WithSteps(steps []float64) IndValOption {
	return func(o *indValOptions) { o.steps = steps }
}

// WithStartValues supplies the physical value at index 0 for every axis.
// Defaults to 0.0 each.
func WithStartValues(starts []float64) IndValOption {
	return func(o *indValOptions) { o.starts = starts }
}

// WithLabels supplies the axis names. Defaults to empty strings.
func WithLabels(labels []string) IndValOption {
	return func(o *indValOptions) { o.labels = labels }
}

// WithUnits supplies the axis units, recorded as a dataset attribute.
func WithUnits(units []string) IndValOption {
	return func(o *indValOptions) { o.units = units }
}

// WithExtent bounds the region slices to the first n points (Position)
// or spectra (Spectroscopic), for acquisitions that were truncated.
func WithExtent(n int) IndValOption {
	return func(o *indValOptions) { o.extent = n }
}

// BuildIndValDatasets builds the paired index and value datasets for the
// position or spectroscopic axes of a measurement.
//
// Sizes must be ordered from fastest varying to slowest. Each optional
// per-axis array must have exactly one entry per size; a mismatch fails
// with ErrShapeMismatch before any work is done. Axes of size 1 carry no
// degree of freedom: they contribute no matrix column, and the per-axis
// step/start/label/unit metadata is filtered down to the active axes so
// columns and metadata stay aligned even when singleton axes are
// interleaved among active ones.
//
// In Position mode the datasets are shaped [points, active axes] and
// named Position_Indices / Position_Values; in Spectroscopic mode both
// are transposed to [active axes, points] and named
// Spectroscopic_Indices / Spectroscopic_Values. Both datasets carry a
// "labels" attribute (the SliceMap for their orientation) and, when
// units were supplied, a "units" attribute.
//
// Parameters:
//   - sizes: step count per axis, each strictly positive
//   - mode: Position or Spectroscopic
//   - opts: WithSteps, WithStartValues, WithLabels, WithUnits, WithExtent
//
// Returns:
//   - *Dataset: index dataset, uint32 payload
//   - *Dataset: value dataset, float32 payload, value = start + index*step
//   - error: ErrShapeMismatch, ErrInvalidSize
//
// Example:
//
//	inds, vals, err := usid.BuildIndValDatasets([]int{4}, usid.Position,
//		usid.WithSteps([]float64{0.5}),
//		usid.WithStartValues([]float64{10.0}),
//		usid.WithLabels([]string{"X"}))
func BuildIndValDatasets(sizes []int, mode Mode, opts ...IndValOption) (*Dataset, *Dataset, error) {
	var o indValOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := len(sizes)

	steps := o.steps
	if steps == nil {
		steps = make([]float64, n)
		for i := range steps {
			steps[i] = 1.0
		}
	} else if len(steps) != n {
		return nil, nil, fmt.Errorf("%w: %d step sizes for %d dimensions",
			ErrShapeMismatch, len(steps), n)
	}

	starts := o.starts
	if starts == nil {
		starts = make([]float64, n)
	} else if len(starts) != n {
		return nil, nil, fmt.Errorf("%w: %d start values for %d dimensions",
			ErrShapeMismatch, len(starts), n)
	}

	labels := o.labels
	if labels == nil {
		labels = make([]string, n)
	} else if len(labels) != n {
		return nil, nil, fmt.Errorf("%w: %d labels for %d dimensions",
			ErrShapeMismatch, len(labels), n)
	}

	if o.units != nil && len(o.units) != n {
		return nil, nil, fmt.Errorf("%w: %d units for %d dimensions",
			ErrShapeMismatch, len(o.units), n)
	}

	indices, err := MakeIndexMatrix(sizes)
	if err != nil {
		return nil, nil, err
	}

	// Filter per-axis metadata down to the active axes backing the
	// matrix columns.
	active := activeAxes(sizes)
	aSteps := make([]float64, len(active))
	aStarts := make([]float64, len(active))
	aLabels := make([]string, len(active))
	var aUnits []string
	if o.units != nil {
		aUnits = make([]string, len(active))
	}
	for k, i := range active {
		aSteps[k] = steps[i]
		aStarts[k] = starts[i]
		aLabels[k] = labels[i]
		if aUnits != nil {
			aUnits[k] = o.units[i]
		}
	}

	values := make([][]float32, len(indices))
	for r, row := range indices {
		vrow := make([]float32, len(row))
		for k, idx := range row {
			vrow[k] = float32(aStarts[k] + float64(idx)*aSteps[k])
		}
		values[r] = vrow
	}

	var slices SliceMap
	if mode == Spectroscopic {
		indices = Transpose(indices)
		values = Transpose(values)
		slices = SpectroscopicSlices(aLabels, o.extent)
	} else {
		slices = PositionSlices(aLabels, o.extent)
	}

	indFlat, indShape := Flatten(indices)
	dsInds, err := NewDataset(mode.prefix()+"Indices", indFlat, indShape)
	if err != nil {
		return nil, nil, err
	}

	valFlat, valShape := Flatten(values)
	dsVals, err := NewDataset(mode.prefix()+"Values", valFlat, valShape)
	if err != nil {
		return nil, nil, err
	}

	dsInds.SetAttr(LabelsAttr, slices)
	dsVals.SetAttr(LabelsAttr, slices)
	if aUnits != nil {
		dsInds.SetAttr(UnitsAttr, aUnits)
		dsVals.SetAttr(UnitsAttr, aUnits)
	}

	return dsInds, dsVals, nil
}

// DimensionDatasets builds the index/value dataset pair for a set of
// Dimensions, the bundled form of BuildIndValDatasets.
func DimensionDatasets(dims []Dimension, mode Mode, opts ...IndValOption) (*Dataset, *Dataset, error) {
	if len(dims) == 0 {
		return nil, nil, fmt.Errorf("%w: no dimensions given", ErrInvalidSize)
	}

	steps := make([]float64, len(dims))
	starts := make([]float64, len(dims))
	labels := make([]string, len(dims))
	units := make([]string, len(dims))
	for i, d := range dims {
		steps[i] = d.Step
		if steps[i] == 0 {
			steps[i] = 1.0
		}
		starts[i] = d.Start
		labels[i] = d.Name
		units[i] = d.Units
	}

	all := append([]IndValOption{
		WithSteps(steps),
		WithStartValues(starts),
		WithLabels(labels),
		WithUnits(units),
	}, opts...)

	return BuildIndValDatasets(dimensionSizes(dims), mode, all...)
}
