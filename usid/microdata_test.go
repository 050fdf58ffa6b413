package usid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset(t *testing.T) {
	tests := []struct {
		name      string
		dsName    string
		data      any
		shape     []int
		wantErr   bool
		errTarget error
	}{
		{
			name:   "valid 2D float32",
			dsName: "Raw_Data",
			data:   []float32{1, 2, 3, 4, 5, 6},
			shape:  []int{2, 3},
		},
		{
			name:   "valid 1D uint32",
			dsName: "Position_Indices",
			data:   []uint32{0, 1, 2},
			shape:  []int{3},
		},
		{
			name:      "length does not match shape",
			dsName:    "Raw_Data",
			data:      []float32{1, 2, 3},
			shape:     []int{2, 2},
			wantErr:   true,
			errTarget: ErrPayloadShape,
		},
		{
			name:      "unsupported payload type",
			dsName:    "Raw_Data",
			data:      []string{"a"},
			shape:     []int{1},
			wantErr:   true,
			errTarget: ErrDtype,
		},
		{
			name:    "empty name",
			dsName:  "",
			data:    []float32{1},
			shape:   []int{1},
			wantErr: true,
		},
		{
			name:    "zero shape entry",
			dsName:  "Raw_Data",
			data:    []float32{},
			shape:   []int{0, 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDataset(tt.dsName, tt.data, tt.shape)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errTarget != nil {
					assert.ErrorIs(t, err, tt.errTarget)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dsName, ds.Name)
			assert.Equal(t, tt.shape, ds.Shape)
			assert.NotNil(t, ds.Attrs)
		})
	}
}

func TestDatasetShapeIsCopied(t *testing.T) {
	shape := []int{2, 2}
	ds, err := NewDataset("d", []int16{1, 2, 3, 4}, shape)
	require.NoError(t, err)

	shape[0] = 99
	assert.Equal(t, []int{2, 2}, ds.Shape)
}

func TestDatasetSetAttr(t *testing.T) {
	ds := &Dataset{Name: "d"}
	ds.SetAttr("units", "um")
	assert.Equal(t, "um", ds.Attrs["units"])
}

func TestGroupTree(t *testing.T) {
	root := NewGroup("")
	meas := NewGroup(MeasurementGroupName)
	chann := NewGroup(ChannelGroupName)

	ds, err := NewDataset("Raw_Data", []float32{1, 2}, []int{2, 1})
	require.NoError(t, err)

	chann.AddDatasets(ds)
	meas.AddGroup(chann)
	root.AddGroup(meas)

	require.Len(t, root.Groups, 1)
	require.Len(t, root.Groups[0].Groups, 1)
	assert.Equal(t, "Raw_Data", root.Groups[0].Groups[0].Datasets[0].Name)
}

func TestAttributesCopy(t *testing.T) {
	a := Attributes{"k": 1}
	b := a.Copy()
	b["k"] = 2
	assert.Equal(t, 1, a["k"])
}
