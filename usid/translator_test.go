package usid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranslatorBase(t *testing.T) {
	b := NewTranslatorBase(16)
	assert.Positive(t, b.MaxBytes)
	// The budget never exceeds the requested maximum.
	assert.LessOrEqual(t, b.MaxBytes, uint64(16)<<20)

	// Non-positive requests fall back to the default.
	b = NewTranslatorBase(0)
	assert.Positive(t, b.MaxBytes)
	assert.LessOrEqual(t, b.MaxBytes, uint64(DefaultMaxMemMB)<<20)
}

func TestNewTranslatorBaseAvailableCeiling(t *testing.T) {
	if AvailableMemory() == 0 {
		t.Skip("no system memory probe on this platform")
	}
	// An absurd request is capped at three quarters of available
	// memory.
	b := NewTranslatorBase(1 << 30)
	assert.LessOrEqual(t, b.MaxBytes, AvailableMemory()/4*3)
}

func TestDefaultRootAttrs(t *testing.T) {
	attrs := DefaultRootAttrs()
	for _, key := range []string{
		"translate_date", "instrument", "user_name", "sample_name",
		"project_name", "project_id", "experiment_unix_time",
	} {
		assert.Contains(t, attrs, key)
	}

	// Each call yields an independent set.
	attrs["instrument"] = "changed"
	assert.NotEqual(t, "changed", DefaultRootAttrs()["instrument"])
}

func simpleWriteFixture(t *testing.T) (*Dataset, []*Dataset) {
	t.Helper()

	main, err := NewDataset("Raw_Data", []float32{1, 2, 3, 4, 5, 6}, []int{2, 3})
	require.NoError(t, err)

	posInds, posVals, err := BuildIndValDatasets([]int{2}, Position,
		WithLabels([]string{"X"}))
	require.NoError(t, err)
	specInds, specVals, err := BuildIndValDatasets([]int{3}, Spectroscopic,
		WithLabels([]string{"Bias"}))
	require.NoError(t, err)

	return main, []*Dataset{posInds, posVals, specInds, specVals}
}

func TestSimpleWrite(t *testing.T) {
	main, aux := simpleWriteFixture(t)
	path := filepath.Join(t.TempDir(), "out.zarr")

	got, err := SimpleWrite(path, "STS", "TestTranslator", main, aux,
		Attributes{"IO_rate": 4e6, "user_name": "A. Scientist"})
	require.NoError(t, err)
	assert.Equal(t, path, got)

	f, err := OpenZarr(path)
	require.NoError(t, err)

	// Root attributes: defaults plus caller overrides for known keys,
	// data_type and translator always forced.
	rootAttrs, err := f.Attrs("/")
	require.NoError(t, err)
	assert.Equal(t, "STS", rootAttrs["data_type"])
	assert.Equal(t, "TestTranslator", rootAttrs["translator"])
	assert.Equal(t, "A. Scientist", rootAttrs["user_name"])
	assert.Equal(t, "cypher_west", rootAttrs["instrument"])

	// Measurement group carries the caller parameters verbatim.
	measAttrs, err := f.Attrs("/" + MeasurementGroupName)
	require.NoError(t, err)
	assert.Equal(t, 4e6, measAttrs["IO_rate"])
	assert.NotContains(t, measAttrs, "instrument")

	// The channel group holds the main and all four axis datasets.
	base := "/" + MeasurementGroupName + "/" + ChannelGroupName
	data, shape, err := f.ReadArray(base + "/Raw_Data")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, shape)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, data)

	inds, _, err := f.ReadArray(base + "/" + SpectroscopicIndicesName)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, inds)
}

func TestSimpleWriteLinksAuxiliaries(t *testing.T) {
	main, aux := simpleWriteFixture(t)
	path := filepath.Join(t.TempDir(), "out.zarr")

	_, err := SimpleWrite(path, "STS", "TestTranslator", main, aux, nil)
	require.NoError(t, err)

	f, err := OpenZarr(path)
	require.NoError(t, err)

	base := "/" + MeasurementGroupName + "/" + ChannelGroupName
	attrs, err := f.Attrs(base + "/Raw_Data")
	require.NoError(t, err)

	for _, name := range []string{
		PositionIndicesName, PositionValuesName,
		SpectroscopicIndicesName, SpectroscopicValuesName,
	} {
		ref, ok := attrs[name].(string)
		require.True(t, ok, "missing reference for %s", name)
		assert.Equal(t, base+"/"+name, ref)

		// Every reference resolves to a readable dataset.
		_, _, err := f.ReadArray(ref)
		assert.NoError(t, err)
	}
}

func TestSimpleWriteOverwrites(t *testing.T) {
	main, aux := simpleWriteFixture(t)
	path := filepath.Join(t.TempDir(), "out.zarr")

	_, err := SimpleWrite(path, "first", "TestTranslator", main, aux, nil)
	require.NoError(t, err)

	marker := filepath.Join(path, "stale.txt")
	require.NoError(t, os.WriteFile(marker, []byte("old"), 0o644))

	main2, aux2 := simpleWriteFixture(t)
	_, err = SimpleWrite(path, "second", "TestTranslator", main2, aux2, nil)
	require.NoError(t, err)

	_, err = os.Stat(marker)
	assert.True(t, os.IsNotExist(err))

	f, err := OpenZarr(path)
	require.NoError(t, err)
	attrs, err := f.Attrs("/")
	require.NoError(t, err)
	assert.Equal(t, "second", attrs["data_type"])
}

func TestSimpleWriteNilMain(t *testing.T) {
	_, err := SimpleWrite(filepath.Join(t.TempDir(), "out.zarr"),
		"STS", "TestTranslator", nil, nil, nil)
	require.Error(t, err)
}
