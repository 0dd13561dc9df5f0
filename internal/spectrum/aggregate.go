package spectrum

import "math"

// ExtractAperture1D box-extracts a 1D spectrum from a flux/error grid pair.
//
// The collapse window is clamped to the ROI ([0, width] in wavelength,
// [0, height] spatially) and ordered. For every ROI-local column in
// [floor(waveMin), ceil(waveMax)) the absolute detector column is
// round(roi.X + col - offsets.DX); the row mapping uses roi.Y and
// offsets.DY the same way. Pixels outside the grid, or with NaN flux or
// error, are skipped. Flux is summed and errors are added in quadrature.
// Columns without a single valid pixel are omitted rather than reported as
// zero.
//
// Missing inputs (nil offsets, empty grids) and degenerate ROIs produce an
// empty result.
func ExtractAperture1D(flux, errs [][]float64, offsets *Offsets, roi ROI, win CollapseWindow) []Point {
	if offsets == nil || len(flux) == 0 || len(errs) == 0 || roi.Degenerate() {
		return []Point{}
	}
	if !isFinite(offsets.DX) || !isFinite(offsets.DY) || !isFinite(roi.X) || !isFinite(roi.Y) {
		return []Point{}
	}

	win = win.Normalize()
	waveMin := clamp(win.WaveMin, 0, roi.Width)
	waveMax := clamp(win.WaveMax, 0, roi.Width)
	spatialMin := clamp(win.SpatialMin, 0, roi.Height)
	spatialMax := clamp(win.SpatialMax, 0, roi.Height)
	if !isFinite(waveMin) || !isFinite(waveMax) || !isFinite(spatialMin) || !isFinite(spatialMax) {
		return []Point{}
	}

	height, width := Dims(flux)
	colStart, colEnd, ok := gridRange(waveMin, waveMax, roi.X-offsets.DX, width)
	if !ok {
		return []Point{}
	}
	rowStart, rowEnd, ok := gridRange(spatialMin, spatialMax, roi.Y-offsets.DY, height)
	if !ok {
		return []Point{}
	}
	out := make([]Point, 0, colEnd-colStart)

	for col := colStart; col < colEnd; col++ {
		imageX := int(math.Round(roi.X + float64(col) - offsets.DX))
		if imageX < 0 || imageX >= width {
			continue
		}

		var fluxSum, errSumSq float64
		count := 0
		for row := rowStart; row < rowEnd; row++ {
			imageY := int(math.Round(roi.Y + float64(row) - offsets.DY))
			if imageY < 0 || imageY >= height || imageY >= len(errs) {
				continue
			}
			fluxRow, errRow := flux[imageY], errs[imageY]
			if imageX >= len(fluxRow) || imageX >= len(errRow) {
				continue
			}
			f, e := fluxRow[imageX], errRow[imageX]
			if math.IsNaN(f) || math.IsNaN(e) {
				continue
			}
			fluxSum += f
			errSumSq += e * e
			count++
		}

		if count == 0 {
			continue
		}
		sigma := math.Sqrt(errSumSq)
		out = append(out, Point{
			Wavelength:   float64(col),
			Flux:         fluxSum,
			Error:        sigma,
			FluxMinusErr: fluxSum - sigma,
			FluxPlusErr:  fluxSum + sigma,
		})
	}
	return out
}

// ExtractCutout runs ExtractAperture1D on a cutout. Uncovered cutouts yield
// an empty spectrum.
func ExtractCutout(c *GrismCutout, roi ROI, win CollapseWindow) []Point {
	if c == nil || !c.Covered {
		return []Point{}
	}
	return ExtractAperture1D(c.Flux, c.Err, c.Offsets, roi, win)
}

// maxGridIndex bounds float-to-int conversions of ROI coordinates.
const maxGridIndex = 1 << 52

// gridRange intersects the ROI-local index window [floor(lo), ceil(hi)) with
// the indices i for which round(shift + i) falls in [0, n). The result spans
// at most n+4 indices, so work is bounded by the grid rather than the ROI.
func gridRange(lo, hi, shift float64, n int) (int, int, bool) {
	start := math.Max(math.Floor(lo), math.Floor(-0.5-shift))
	end := math.Min(math.Ceil(hi), math.Ceil(float64(n)-shift)+1)
	if !(end > start) || math.Abs(start) > maxGridIndex || math.Abs(end) > maxGridIndex {
		return 0, 0, false
	}
	return int(start), int(end), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
