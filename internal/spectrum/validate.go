package spectrum

import (
	"errors"
	"fmt"
)

// Boundary validation errors. Engine functions never return these; they are
// raised where external data enters the application.
var (
	ErrRaggedGrid    = errors.New("grid rows have unequal length")
	ErrShapeMismatch = errors.New("flux and error grids differ in shape")
	ErrWaveMismatch  = errors.New("wavelength array does not match grid width")
	ErrNotMonotonic  = errors.New("wavelength array is not increasing")
)

// ValidateGrid checks that grid is rectangular.
func ValidateGrid(grid [][]float64) error {
	if len(grid) == 0 {
		return nil
	}
	width := len(grid[0])
	for i, row := range grid {
		if len(row) != width {
			return fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), width, ErrRaggedGrid)
		}
	}
	return nil
}

// ValidateCutout checks the shapes of a cutout before it is used: both
// grids rectangular and of equal shape, and the wavelength array (if any)
// increasing and as wide as the grids.
func ValidateCutout(c *GrismCutout) error {
	if c == nil {
		return nil
	}
	if err := ValidateGrid(c.Flux); err != nil {
		return fmt.Errorf("flux: %w", err)
	}
	if err := ValidateGrid(c.Err); err != nil {
		return fmt.Errorf("err: %w", err)
	}
	fh, fw := Dims(c.Flux)
	eh, ew := Dims(c.Err)
	if fh != eh || fw != ew {
		return fmt.Errorf("flux %dx%d, err %dx%d: %w", fh, fw, eh, ew, ErrShapeMismatch)
	}
	if len(c.Wavelength) > 0 {
		if len(c.Wavelength) != fw {
			return fmt.Errorf("%d wavelengths for %d columns: %w", len(c.Wavelength), fw, ErrWaveMismatch)
		}
		if err := ValidateWavelength(c.Wavelength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWavelength checks that wave is strictly increasing and finite.
func ValidateWavelength(wave []float64) error {
	for i, w := range wave {
		if !isFinite(w) {
			return fmt.Errorf("wavelength[%d] = %v: %w", i, w, ErrNotMonotonic)
		}
		if i > 0 && w <= wave[i-1] {
			return fmt.Errorf("wavelength[%d] = %v after %v: %w", i, w, wave[i-1], ErrNotMonotonic)
		}
	}
	return nil
}
