package usid

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// binaryDescriptor is the YAML sidecar that describes a flat
// little-endian binary payload: which file holds the data, how the
// elements are typed, and the axes that give the flat buffer its
// meaning.
type binaryDescriptor struct {
	DataType  string          `yaml:"data_type"`
	MainName  string          `yaml:"main_name"`
	Dtype     string          `yaml:"dtype"`
	DataFile  string          `yaml:"data_file"`
	PosDims   []dimensionSpec `yaml:"position_dimensions"`
	SpecDims  []dimensionSpec `yaml:"spectroscopic_dimensions"`
	Params    map[string]any  `yaml:"parameters"`
}

type dimensionSpec struct {
	Name  string  `yaml:"name"`
	Units string  `yaml:"units"`
	Size  int     `yaml:"size"`
	Step  float64 `yaml:"step"`
	Start float64 `yaml:"start"`
}

func (s dimensionSpec) dimension() Dimension {
	d := Dimension{
		Name:  s.Name,
		Units: s.Units,
		Size:  s.Size,
		Step:  s.Step,
		Start: s.Start,
	}
	if d.Step == 0 {
		d.Step = 1.0
	}
	return d
}

// BinaryTranslator translates a generic raw acquisition: a YAML
// descriptor next to a flat little-endian binary payload file. It is
// both a usable translator for simple instrument dumps and the
// reference implementation of the Translator contract.
type BinaryTranslator struct {
	TranslatorBase

	log *slog.Logger

	desc     *binaryDescriptor
	descPath string
	dataPath string
}

var _ Translator = (*BinaryTranslator)(nil)

// NewBinaryTranslator builds a BinaryTranslator with the given memory
// budget in megabytes (non-positive means DefaultMaxMemMB).
func NewBinaryTranslator(maxMemMB int) *BinaryTranslator {
	return &BinaryTranslator{
		TranslatorBase: NewTranslatorBase(maxMemMB),
		log:            slog.Default(),
	}
}

// ParseInput reads the YAML descriptor at path and resolves the data
// file it names (relative paths resolve against the descriptor's
// directory). Returns the resolved file set: descriptor then payload.
func (t *BinaryTranslator) ParseInput(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.WrapError("read descriptor", err)
	}

	desc := &binaryDescriptor{}
	if err := yaml.Unmarshal(raw, desc); err != nil {
		return nil, utils.WrapError("parse descriptor", err)
	}

	if desc.DataType == "" {
		return nil, fmt.Errorf("descriptor %q: data_type is required", path)
	}
	if desc.DataFile == "" {
		return nil, fmt.Errorf("descriptor %q: data_file is required", path)
	}
	if desc.MainName == "" {
		desc.MainName = "Raw_Data"
	}
	if desc.Dtype == "" {
		desc.Dtype = "float32"
	}

	dataPath := desc.DataFile
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(filepath.Dir(path), dataPath)
	}
	if _, err := os.Stat(dataPath); err != nil {
		return nil, utils.WrapError("locate data file", err)
	}

	t.desc = desc
	t.descPath = path
	t.dataPath = dataPath
	return []string{path, dataPath}, nil
}

// ReadData decodes the payload file into a Measurement. The payload
// size must match the dimension products exactly and fit the memory
// budget.
func (t *BinaryTranslator) ReadData() (*Measurement, error) {
	if t.desc == nil {
		return nil, fmt.Errorf("no input parsed yet")
	}

	elemSize, err := elementSize(t.desc.Dtype)
	if err != nil {
		return nil, err
	}

	posDims := make([]Dimension, len(t.desc.PosDims))
	for i, s := range t.desc.PosDims {
		posDims[i] = s.dimension()
	}
	specDims := make([]Dimension, len(t.desc.SpecDims))
	for i, s := range t.desc.SpecDims {
		specDims[i] = s.dimension()
	}
	if len(posDims) == 0 || len(specDims) == 0 {
		return nil, fmt.Errorf("%w: descriptor needs position and spectroscopic dimensions",
			ErrInvalidSize)
	}

	positions, err := utils.ProductInt(dimensionSizes(posDims))
	if err != nil {
		return nil, utils.WrapError("position dimensions", err)
	}
	spectra, err := utils.ProductInt(dimensionSizes(specDims))
	if err != nil {
		return nil, utils.WrapError("spectroscopic dimensions", err)
	}
	wantBytes, err := utils.ByteSize(positions*spectra, elemSize)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(t.dataPath)
	if err != nil {
		return nil, utils.WrapError("stat data file", err)
	}
	if info.Size() != int64(wantBytes) {
		return nil, fmt.Errorf("%w: data file holds %d bytes, dimensions want %d",
			ErrPayloadShape, info.Size(), wantBytes)
	}
	if uint64(wantBytes) > t.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes of raw data, budget is %d",
			ErrMemoryBudget, wantBytes, t.MaxBytes)
	}

	raw, err := os.ReadFile(t.dataPath)
	if err != nil {
		return nil, utils.WrapError("read data file", err)
	}

	dt, err := dtypeByName(t.desc.Dtype)
	if err != nil {
		return nil, err
	}
	data, err := decodePayload(bytes.NewReader(raw), dt, positions*spectra)
	if err != nil {
		return nil, utils.WrapError("decode data file", err)
	}

	main, err := NewDataset(t.desc.MainName, data, []int{positions, spectra})
	if err != nil {
		return nil, err
	}

	params := Attributes{}
	for k, v := range t.desc.Params {
		params[k] = v
	}

	return &Measurement{
		Name:       t.desc.DataType,
		Main:       main,
		PosDims:    posDims,
		SpecDims:   specDims,
		Parameters: params,
	}, nil
}

// Translate runs the full pipeline and writes the container at
// outputPath. Returns the written path.
func (t *BinaryTranslator) Translate(inputPath, outputPath string) (string, error) {
	files, err := t.ParseInput(inputPath)
	if err != nil {
		return "", err
	}
	t.log.Info("parsed input", "descriptor", files[0], "data", files[1])

	m, err := t.ReadData()
	if err != nil {
		return "", err
	}
	t.log.Info("decoded raw data",
		"data_type", m.Name,
		"positions", m.Main.Shape[0],
		"spectral_points", m.Main.Shape[1])

	at := &ArrayTranslator{TranslatorBase: t.TranslatorBase}
	path, err := at.translateAs(m, outputPath, "BinaryTranslator")
	if err != nil {
		return "", err
	}
	t.log.Info("wrote container", "path", path)
	return path, nil
}

// elementSize maps a descriptor dtype name to its byte size.
func elementSize(name string) (int, error) {
	dt, err := dtypeByName(name)
	if err != nil {
		return 0, err
	}
	return dt.ByteSize, nil
}
