package usid

import (
	"fmt"
	"time"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// Fixed group names of the standardized container layout.
const (
	MeasurementGroupName = "Measurement_000"
	ChannelGroupName     = "Channel_000"
)

// Measurement bundles everything a translator decodes from an
// instrument file set: the 2D main dataset, its axis dimensions and the
// run parameters.
type Measurement struct {
	// Name identifies the data type ("STS", "BELine", ...), recorded as
	// the root data_type attribute.
	Name string
	// Main is the primary measurement array, shaped
	// [positions, spectral points].
	Main *Dataset
	// PosDims are the spatial axes, fastest varying first. Their size
	// product must equal Main.Shape[0].
	PosDims []Dimension
	// SpecDims are the spectroscopic axes, fastest varying first. Their
	// size product must equal Main.Shape[1].
	SpecDims []Dimension
	// Parameters are the instrument/run attributes recorded on the
	// measurement group.
	Parameters Attributes
}

// Translator converts experimental data from a proprietary instrument
// format into a single standardized container. Implementations decode
// one format each; the pipeline and the output layout are shared.
type Translator interface {
	// ParseInput resolves the input path into the concrete set of files
	// the translation will read.
	ParseInput(path string) ([]string, error)

	// ReadData decodes the raw data located by ParseInput.
	ReadData() (*Measurement, error)

	// Translate runs the full pipeline: parse the input, read the data,
	// and write the container at outputPath. Returns the written path.
	Translate(inputPath, outputPath string) (string, error)
}

// DefaultMaxMemMB is the default translator memory budget in megabytes.
const DefaultMaxMemMB = 1024

// TranslatorBase carries the state shared by all translators. Embed it
// in concrete implementations.
type TranslatorBase struct {
	// MaxBytes is the memory budget for buffering raw data:
	// min(requested, 0.75 * available system memory) at construction.
	MaxBytes uint64
}

// NewTranslatorBase computes the memory budget from the requested
// maximum in megabytes. Non-positive requests fall back to
// DefaultMaxMemMB.
func NewTranslatorBase(maxMemMB int) TranslatorBase {
	if maxMemMB <= 0 {
		maxMemMB = DefaultMaxMemMB
	}

	budget := uint64(maxMemMB) << 20
	if avail := AvailableMemory(); avail > 0 {
		if ceiling := avail / 4 * 3; ceiling < budget {
			budget = ceiling
		}
	}
	return TranslatorBase{MaxBytes: budget}
}

// DefaultRootAttrs generates the default parameter set recorded at the
// container root: informational provenance fields a translator is
// expected to override where it knows better. A fresh value is returned
// on every call.
func DefaultRootAttrs() Attributes {
	now := time.Now()
	return Attributes{
		"translate_date":       now.Format("2006_01_02"),
		"instrument":           "cypher_west",
		"xcams_id":             "abc",
		"user_name":            "John Doe",
		"sample_name":          "PZT",
		"sample_description":   "Thin Film",
		"project_name":         "Band Excitation",
		"project_id":           "CNMS_2015B_X0000",
		"comments":             "Band Excitation data",
		"data_tool":            "be_analyzer",
		"experiment_date":      "2015-10-05 14:55:05",
		"experiment_unix_time": float64(now.UnixNano()) / float64(time.Second),
		"grid_size_x":          1,
		"grid_size_y":          1,
		"current_position_x":   1,
		"current_position_y":   1,
	}
}

type writeOptions struct {
	open WriterOpener
}

// WriteOption customizes SimpleWrite.
type WriteOption func(*writeOptions)

// WithWriterOpener swaps the container backend. The default opens a
// zarr store via CreateZarr.
func WithWriterOpener(open WriterOpener) WriteOption {
	return func(o *writeOptions) { o.open = open }
}

// SimpleWrite assembles the standardized container tree and writes it
// in one pass.
//
// The tree is root (global attributes) → Measurement_000 (run
// parameters) → Channel_000 (main dataset plus auxiliary datasets).
// Root attributes start from DefaultRootAttrs, take caller overrides
// for keys present in the default set, and always force data_type and
// translator. Any container already at path is replaced.
//
// After the write every auxiliary dataset is resolved by name and its
// reference is attached as an attribute on the main dataset, so a
// reader can discover the axis datasets from the main dataset alone.
//
// Parameters:
//   - path: container destination
//   - dataName: data type recorded as the root data_type attribute
//   - translatorName: recorded as the root translator attribute
//   - main: the main dataset
//   - aux: auxiliary datasets (position/spectroscopic indices and
//     values), written as siblings of main and linked onto it
//   - parms: run parameters for the measurement group, may be nil
//
// Returns the written path.
func SimpleWrite(path, dataName, translatorName string, main *Dataset, aux []*Dataset,
	parms Attributes, opts ...WriteOption) (string, error) {
	if main == nil {
		return "", fmt.Errorf("main dataset cannot be nil")
	}

	o := writeOptions{
		open: func(p string) (ContainerWriter, error) { return CreateZarr(p) },
	}
	for _, opt := range opts {
		opt(&o)
	}

	if parms == nil {
		parms = Attributes{}
	}

	chanGrp := NewGroup(ChannelGroupName)
	chanGrp.AddDatasets(main)
	chanGrp.AddDatasets(aux...)

	measGrp := NewGroup(MeasurementGroupName)
	measGrp.Attrs = parms.Copy()
	measGrp.AddGroup(chanGrp)

	rootAttrs := DefaultRootAttrs()
	for k, v := range parms {
		if _, ok := rootAttrs[k]; ok {
			rootAttrs[k] = v
		}
	}
	rootAttrs["data_type"] = dataName
	rootAttrs["translator"] = translatorName

	root := NewGroup("")
	root.Attrs = rootAttrs
	root.AddGroup(measGrp)

	w, err := o.open(path)
	if err != nil {
		return "", utils.WrapError("open container writer", err)
	}

	refs, err := w.WriteTree(root)
	if err != nil {
		_ = w.Close()
		return "", utils.WrapError("container write", err)
	}

	mainRef, ok := refs[main.Name]
	if !ok {
		_ = w.Close()
		return "", fmt.Errorf("%w: main dataset %q", ErrLinkTarget, main.Name)
	}

	auxRefs := make(map[string]Reference, len(aux))
	for _, ds := range aux {
		ref, ok := refs[ds.Name]
		if !ok {
			_ = w.Close()
			return "", fmt.Errorf("%w: auxiliary dataset %q", ErrLinkTarget, ds.Name)
		}
		auxRefs[ds.Name] = ref
	}

	if err := w.AttachReferences(mainRef, auxRefs); err != nil {
		_ = w.Close()
		return "", utils.WrapError("link auxiliary datasets", err)
	}

	if err := w.Close(); err != nil {
		return "", utils.WrapError("close container", err)
	}
	return path, nil
}
