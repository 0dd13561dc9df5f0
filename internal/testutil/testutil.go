// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Grid returns a height×width grid filled by fn(row, col).
func Grid(height, width int, fn func(row, col int) float64) [][]float64 {
	out := make([][]float64, height)
	for r := range out {
		out[r] = make([]float64, width)
		for c := range out[r] {
			out[r][c] = fn(r, c)
		}
	}
	return out
}

// Flat concatenates the rows of grid.
func Flat(grid [][]float64) []float64 {
	var out []float64
	for _, row := range grid {
		out = append(out, row...)
	}
	return out
}

// FITSBlockSize is the FITS record length.
const FITSBlockSize = 2880

// FITSWriter assembles minimal FITS files: a data-less primary HDU followed
// by float64 IMAGE extensions.
type FITSWriter struct {
	buf bytes.Buffer
}

// Card formats a value header card. Value is written verbatim, so logical
// values are "T"/"F" and numbers are plain decimals.
func Card(key, value string) string {
	if key == "END" {
		return fmt.Sprintf("%-80s", "END")
	}
	return fmt.Sprintf("%-80s", fmt.Sprintf("%-8s= %20s", key, value))
}

// StringCard formats a quoted string header card.
func StringCard(key, value string) string {
	return fmt.Sprintf("%-80s", fmt.Sprintf("%-8s= '%-8s'", key, value))
}

func (w *FITSWriter) header(cards ...string) {
	var h strings.Builder
	for _, c := range cards {
		h.WriteString(c)
	}
	h.WriteString(Card("END", ""))
	for h.Len()%FITSBlockSize != 0 {
		h.WriteByte(' ')
	}
	w.buf.WriteString(h.String())
}

// Primary writes an empty primary HDU. It must be called first.
func (w *FITSWriter) Primary() *FITSWriter {
	w.header(Card("SIMPLE", "T"), Card("BITPIX", "8"), Card("NAXIS", "0"), Card("EXTEND", "T"))
	return w
}

// Image appends a big-endian float64 image extension. axes is in FITS
// order (NAXIS1 first, the fastest-varying axis).
func (w *FITSWriter) Image(name string, axes []int, data []float64, extra ...string) *FITSWriter {
	cards := []string{
		StringCard("XTENSION", "IMAGE"),
		Card("BITPIX", "-64"),
		Card("NAXIS", fmt.Sprint(len(axes))),
	}
	for i, n := range axes {
		cards = append(cards, Card(fmt.Sprintf("NAXIS%d", i+1), fmt.Sprint(n)))
	}
	cards = append(cards, Card("PCOUNT", "0"), Card("GCOUNT", "1"), StringCard("EXTNAME", name))
	cards = append(cards, extra...)
	w.header(cards...)

	var d bytes.Buffer
	for _, v := range data {
		_ = binary.Write(&d, binary.BigEndian, v)
	}
	for d.Len()%FITSBlockSize != 0 {
		d.WriteByte(0)
	}
	w.buf.Write(d.Bytes())
	return w
}

// Bytes returns the file written so far.
func (w *FITSWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// GrismFITS builds a SCI/ERR/WAVE cutout file from row-major grids.
func GrismFITS(flux, errs [][]float64, wave []float64, extra ...string) []byte {
	height, width := len(flux), 0
	if height > 0 {
		width = len(flux[0])
	}
	var w FITSWriter
	w.Primary()
	w.Image("SCI", []int{width, height}, Flat(flux), extra...)
	w.Image("ERR", []int{width, height}, Flat(errs))
	if wave != nil {
		w.Image("WAVE", []int{len(wave)}, wave)
	}
	return w.Bytes()
}
