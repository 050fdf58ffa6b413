package usid

import (
	"fmt"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// Attributes is the metadata set carried by a container node. Values must
// be JSON-serializable.
type Attributes map[string]any

// Copy returns a shallow copy.
func (a Attributes) Copy() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Dataset is an in-memory array staged for a container write. The payload
// is a flat slice in C (row-major) order; supported element types are
// the fixed-width integers and floats.
type Dataset struct {
	Name  string
	Data  any
	Shape []int
	Attrs Attributes
}

// NewDataset validates the payload against the shape and wraps both in a
// Dataset. The shape product must equal the payload element count and
// every shape entry must be positive.
//
// Example:
//
//	raw, shape := usid.Flatten(matrix)
//	ds, err := usid.NewDataset("Raw_Data", raw, shape)
func NewDataset(name string, data any, shape []int) (*Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("dataset name cannot be empty")
	}

	want, err := utils.ProductInt(shape)
	if err != nil {
		return nil, utils.WrapError(fmt.Sprintf("dataset %q shape", name), err)
	}

	length, _, _, err := payloadInfo(data)
	if err != nil {
		return nil, utils.WrapError(fmt.Sprintf("dataset %q payload", name), err)
	}
	if length != want {
		return nil, fmt.Errorf("%w: dataset %q has %d elements, shape %v wants %d",
			ErrPayloadShape, name, length, shape, want)
	}

	return &Dataset{
		Name:  name,
		Data:  data,
		Shape: append([]int(nil), shape...),
		Attrs: Attributes{},
	}, nil
}

// SetAttr records one attribute on the dataset.
func (d *Dataset) SetAttr(name string, value any) {
	if d.Attrs == nil {
		d.Attrs = Attributes{}
	}
	d.Attrs[name] = value
}

// Group is a named node of the in-memory container tree. Child order is
// preserved through the write.
type Group struct {
	Name     string
	Attrs    Attributes
	Groups   []*Group
	Datasets []*Dataset
}

// NewGroup builds an empty group. The root of a tree uses an empty name.
func NewGroup(name string) *Group {
	return &Group{Name: name, Attrs: Attributes{}}
}

// AddGroup appends a child group.
func (g *Group) AddGroup(child *Group) {
	g.Groups = append(g.Groups, child)
}

// AddDatasets appends child datasets.
func (g *Group) AddDatasets(datasets ...*Dataset) {
	g.Datasets = append(g.Datasets, datasets...)
}
