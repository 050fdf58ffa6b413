package usid

import (
	"fmt"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// ArrayTranslator writes an in-memory Measurement as a standardized
// container. It is the path every file-based translator funnels into
// once its format-specific decoding is done, and it is directly useful
// for data that is already in memory.
//
// ArrayTranslator has no input files, so it does not implement the
// Translator interface; file-based translators wrap it.
type ArrayTranslator struct {
	TranslatorBase
}

// NewArrayTranslator builds an ArrayTranslator with the default memory
// budget.
func NewArrayTranslator() *ArrayTranslator {
	return &ArrayTranslator{TranslatorBase: NewTranslatorBase(DefaultMaxMemMB)}
}

// Translate validates the measurement, builds both index/value dataset
// pairs and writes the container at outputPath. Returns the written
// path.
func (t *ArrayTranslator) Translate(m *Measurement, outputPath string, opts ...WriteOption) (string, error) {
	return t.translateAs(m, outputPath, "ArrayTranslator", opts...)
}

// translateAs lets wrapping translators record their own name in the
// container's root attributes.
func (t *ArrayTranslator) translateAs(m *Measurement, outputPath, translatorName string, opts ...WriteOption) (string, error) {
	if err := validateMeasurement(m); err != nil {
		return "", err
	}

	posInds, posVals, err := DimensionDatasets(m.PosDims, Position)
	if err != nil {
		return "", utils.WrapError("position datasets", err)
	}
	specInds, specVals, err := DimensionDatasets(m.SpecDims, Spectroscopic)
	if err != nil {
		return "", utils.WrapError("spectroscopic datasets", err)
	}

	aux := []*Dataset{posInds, posVals, specInds, specVals}
	return SimpleWrite(outputPath, m.Name, translatorName, m.Main, aux, m.Parameters, opts...)
}

// validateMeasurement checks that the main dataset is 2D and that the
// axis size products match its shape.
func validateMeasurement(m *Measurement) error {
	if m == nil || m.Main == nil {
		return fmt.Errorf("measurement and its main dataset cannot be nil")
	}
	if m.Name == "" {
		return fmt.Errorf("measurement needs a data type name")
	}
	if len(m.Main.Shape) != 2 {
		return fmt.Errorf("%w: main dataset must be 2D, got shape %v",
			ErrPayloadShape, m.Main.Shape)
	}
	if len(m.PosDims) == 0 || len(m.SpecDims) == 0 {
		return fmt.Errorf("%w: measurement needs position and spectroscopic dimensions",
			ErrInvalidSize)
	}

	positions, err := utils.ProductInt(dimensionSizes(m.PosDims))
	if err != nil {
		return utils.WrapError("position dimensions", err)
	}
	if positions != m.Main.Shape[0] {
		return fmt.Errorf("%w: %d positions from dimensions, main dataset has %d rows",
			ErrPayloadShape, positions, m.Main.Shape[0])
	}

	spectra, err := utils.ProductInt(dimensionSizes(m.SpecDims))
	if err != nil {
		return utils.WrapError("spectroscopic dimensions", err)
	}
	if spectra != m.Main.Shape[1] {
		return fmt.Errorf("%w: %d spectral points from dimensions, main dataset has %d columns",
			ErrPayloadShape, spectra, m.Main.Shape[1])
	}
	return nil
}
