// Package fitsload reads grism cutouts from FITS files.
//
// A cutout file carries an image extension per plane: SCI (flux), ERR
// (1-sigma error) and optionally WAVE (a 1D wavelength array in microns).
// The SCI header may hold DX/DY cards with the exposure's pixel offsets and
// a COVERED flag.
package fitsload

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/spectrum"
)

// Extension names looked up in the file, case-insensitively.
const (
	ExtFlux       = "SCI"
	ExtError      = "ERR"
	ExtWavelength = "WAVE"
)

// ErrMissingHDU is returned when a required extension is absent.
var ErrMissingHDU = errors.New("missing HDU")

// LoadCutout reads a cutout from r and validates its shapes.
func LoadCutout(r io.Reader) (*spectrum.GrismCutout, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open fits: %w", err)
	}
	defer f.Close()

	sci, err := findImage(f, ExtFlux)
	if err != nil {
		return nil, err
	}
	errHDU, err := findImage(f, ExtError)
	if err != nil {
		return nil, err
	}

	flux, err := readGrid(sci)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ExtFlux, err)
	}
	errs, err := readGrid(errHDU)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ExtError, err)
	}

	c := &spectrum.GrismCutout{
		Flux:    flux,
		Err:     errs,
		Offsets: readOffsets(sci.Header()),
		Covered: true,
	}
	if card := sci.Header().Get("COVERED"); card != nil {
		if v, ok := card.Value.(bool); ok {
			c.Covered = v
		}
	}

	if wave, err := findImage(f, ExtWavelength); err == nil {
		c.Wavelength, err = readVector(wave)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ExtWavelength, err)
		}
	}

	if err := spectrum.ValidateCutout(c); err != nil {
		return nil, fmt.Errorf("invalid cutout: %w", err)
	}
	h, w := spectrum.Dims(c.Flux)
	monitoring.Debugf("fitsload: cutout %dx%d, %d wavelengths, offsets=%v", w, h, len(c.Wavelength), c.Offsets != nil)
	return c, nil
}

func findImage(f *fitsio.File, name string) (fitsio.Image, error) {
	for _, hdu := range f.HDUs() {
		if !strings.EqualFold(strings.TrimSpace(hdu.Name()), name) {
			continue
		}
		img, ok := hdu.(fitsio.Image)
		if !ok {
			return nil, fmt.Errorf("%s is not an image: %w", name, ErrMissingHDU)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrMissingHDU)
}

// readGrid reads a 2D image into rows. NAXIS1 is the row length.
func readGrid(img fitsio.Image) ([][]float64, error) {
	axes := img.Header().Axes()
	if len(axes) != 2 {
		return nil, fmt.Errorf("want 2 axes, got %d", len(axes))
	}
	width, height := axes[0], axes[1]
	raw := make([]float64, width*height)
	if err := img.Read(&raw); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	grid := make([][]float64, height)
	for y := range grid {
		grid[y] = raw[y*width : (y+1)*width : (y+1)*width]
	}
	return grid, nil
}

func readVector(img fitsio.Image) ([]float64, error) {
	axes := img.Header().Axes()
	if len(axes) != 1 {
		return nil, fmt.Errorf("want 1 axis, got %d", len(axes))
	}
	v := make([]float64, axes[0])
	if err := img.Read(&v); err != nil {
		return nil, fmt.Errorf("read vector: %w", err)
	}
	return v, nil
}

func readOffsets(hdr *fitsio.Header) *spectrum.Offsets {
	dx, okX := cardFloat(hdr, "DX")
	dy, okY := cardFloat(hdr, "DY")
	if !okX || !okY {
		return nil
	}
	return &spectrum.Offsets{DX: dx, DY: dy}
}

func cardFloat(hdr *fitsio.Header, name string) (float64, bool) {
	card := hdr.Get(name)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
