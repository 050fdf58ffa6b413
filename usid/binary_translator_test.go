package usid

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDescriptor = `data_type: STS
main_name: Raw_Data
dtype: float32
data_file: raw.bin
position_dimensions:
  - name: X
    units: um
    size: 2
    step: 1.0
  - name: Y
    units: um
    size: 2
    step: 1.0
spectroscopic_dimensions:
  - name: Bias
    units: V
    size: 3
    step: 0.5
    start: -0.5
parameters:
  setpoint: 0.1
`

func writeBinaryInput(t *testing.T, descriptor string, payload []float32) string {
	t.Helper()
	dir := t.TempDir()

	descPath := filepath.Join(dir, "scan.yaml")
	require.NoError(t, os.WriteFile(descPath, []byte(descriptor), 0o644))

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, payload))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw.bin"), buf.Bytes(), 0o644))

	return descPath
}

func TestBinaryTranslatorParseInput(t *testing.T) {
	payload := make([]float32, 4*3)
	descPath := writeBinaryInput(t, testDescriptor, payload)

	tr := NewBinaryTranslator(64)
	files, err := tr.ParseInput(descPath)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, descPath, files[0])
	assert.Equal(t, filepath.Join(filepath.Dir(descPath), "raw.bin"), files[1])
}

func TestBinaryTranslatorParseInputErrors(t *testing.T) {
	tr := NewBinaryTranslator(64)

	_, err := tr.ParseInput(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	// Descriptor without a data_type.
	dir := t.TempDir()
	descPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(descPath, []byte("data_file: raw.bin\n"), 0o644))
	_, err = tr.ParseInput(descPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_type")

	// Descriptor pointing at a missing payload.
	descPath = filepath.Join(dir, "dangling.yaml")
	require.NoError(t, os.WriteFile(descPath,
		[]byte("data_type: STS\ndata_file: nope.bin\n"), 0o644))
	_, err = tr.ParseInput(descPath)
	require.Error(t, err)
}

func TestBinaryTranslatorReadData(t *testing.T) {
	payload := make([]float32, 4*3)
	for i := range payload {
		payload[i] = float32(i)
	}
	descPath := writeBinaryInput(t, testDescriptor, payload)

	tr := NewBinaryTranslator(64)
	_, err := tr.ParseInput(descPath)
	require.NoError(t, err)

	m, err := tr.ReadData()
	require.NoError(t, err)
	assert.Equal(t, "STS", m.Name)
	assert.Equal(t, []int{4, 3}, m.Main.Shape)
	assert.Equal(t, payload, m.Main.Data)
	require.Len(t, m.PosDims, 2)
	require.Len(t, m.SpecDims, 1)
	assert.Equal(t, 0.5, m.SpecDims[0].Step)
	assert.Equal(t, 0.1, m.Parameters["setpoint"])
}

func TestBinaryTranslatorReadDataWithoutParse(t *testing.T) {
	_, err := NewBinaryTranslator(64).ReadData()
	require.Error(t, err)
}

func TestBinaryTranslatorSizeMismatch(t *testing.T) {
	// One element short of the 4*3 the dimensions call for.
	payload := make([]float32, 4*3-1)
	descPath := writeBinaryInput(t, testDescriptor, payload)

	tr := NewBinaryTranslator(64)
	_, err := tr.ParseInput(descPath)
	require.NoError(t, err)

	_, err = tr.ReadData()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadShape)
}

func TestBinaryTranslatorMemoryBudget(t *testing.T) {
	payload := make([]float32, 4*3)
	descPath := writeBinaryInput(t, testDescriptor, payload)

	tr := NewBinaryTranslator(64)
	_, err := tr.ParseInput(descPath)
	require.NoError(t, err)

	// Squeeze the budget below the payload size.
	tr.MaxBytes = 7

	_, err = tr.ReadData()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemoryBudget)
}

func TestBinaryTranslatorTranslate(t *testing.T) {
	payload := make([]float32, 4*3)
	for i := range payload {
		payload[i] = float32(i) * 0.25
	}
	descPath := writeBinaryInput(t, testDescriptor, payload)
	outPath := filepath.Join(t.TempDir(), "sts.zarr")

	got, err := NewBinaryTranslator(64).Translate(descPath, outPath)
	require.NoError(t, err)
	assert.Equal(t, outPath, got)

	f, err := OpenZarr(outPath)
	require.NoError(t, err)

	rootAttrs, err := f.Attrs("/")
	require.NoError(t, err)
	assert.Equal(t, "STS", rootAttrs["data_type"])
	assert.Equal(t, "BinaryTranslator", rootAttrs["translator"])

	base := "/" + MeasurementGroupName + "/" + ChannelGroupName
	data, shape, err := f.ReadArray(base + "/Raw_Data")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, shape)
	assert.Equal(t, payload, data)

	// The main dataset links to all four axis datasets.
	attrs, err := f.Attrs(base + "/Raw_Data")
	require.NoError(t, err)
	assert.Contains(t, attrs, PositionIndicesName)
	assert.Contains(t, attrs, SpectroscopicValuesName)
}

func TestBinaryTranslatorDefaults(t *testing.T) {
	// main_name and dtype are optional.
	desc := `data_type: IV
data_file: raw.bin
position_dimensions:
  - name: X
    size: 1
spectroscopic_dimensions:
  - name: Bias
    size: 3
`
	payload := []float32{1, 2, 3}
	descPath := writeBinaryInput(t, desc, payload)

	tr := NewBinaryTranslator(64)
	_, err := tr.ParseInput(descPath)
	require.NoError(t, err)

	m, err := tr.ReadData()
	require.NoError(t, err)
	assert.Equal(t, "Raw_Data", m.Main.Name)
	assert.Equal(t, []int{1, 3}, m.Main.Shape)
}
