package usid

// Mode selects the orientation of coordinate matrices and the naming of
// the datasets built from them.
type Mode int

const (
	// Position orients matrices as [points, active axes] and is used for
	// spatial axes.
	Position Mode = iota

	// Spectroscopic orients matrices as [active axes, points] (the
	// transpose of Position) and is used for non-spatial axes.
	Spectroscopic
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Spectroscopic {
		return "Spectroscopic"
	}
	return "Position"
}

// prefix returns the dataset-name prefix for the mode.
func (m Mode) prefix() string {
	return m.String() + "_"
}

// Names of the index/value datasets produced by BuildIndValDatasets.
const (
	PositionIndicesName      = "Position_Indices"
	PositionValuesName       = "Position_Values"
	SpectroscopicIndicesName = "Spectroscopic_Indices"
	SpectroscopicValuesName  = "Spectroscopic_Values"
)

// Attribute names attached to index/value datasets.
const (
	// LabelsAttr holds the SliceMap describing per-axis region slices.
	LabelsAttr = "labels"
	// UnitsAttr holds the per-axis unit strings, when supplied.
	UnitsAttr = "units"
)

// Dimension describes one measurement axis. Dimensions are always ordered
// from fastest varying to slowest varying.
type Dimension struct {
	// Name labels the axis ("X", "Bias", ...).
	Name string
	// Units is the physical unit of the axis values, may be empty.
	Units string
	// Size is the number of steps along the axis. Must be positive.
	Size int
	// Step is the physical increment per index step.
	Step float64
	// Start is the physical value at index 0.
	Start float64
}

// NewDimension builds a Dimension with unit step starting at zero.
func NewDimension(name, units string, size int) Dimension {
	return Dimension{
		Name:  name,
		Units: units,
		Size:  size,
		Step:  1.0,
	}
}

// dimensionSizes collects the Size of every dimension in order.
func dimensionSizes(dims []Dimension) []int {
	sizes := make([]int, len(dims))
	for i, d := range dims {
		sizes[i] = d.Size
	}
	return sizes
}
