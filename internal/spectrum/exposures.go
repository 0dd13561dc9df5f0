package spectrum

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Exposure is one dithered grism exposure of the same source.
type Exposure struct {
	ID      string      `json:"id"`
	Flux    [][]float64 `json:"flux"`
	Err     [][]float64 `json:"err"`
	Offsets *Offsets    `json:"offsets,omitempty"`
}

// ExposureSpectrum is the 1D extraction of a single exposure.
type ExposureSpectrum struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
}

// ExtractExposures extracts every exposure with the shared ROI and window,
// running at most workers extractions at once. Results keep the input
// order. If ctx is cancelled before all extractions finish, no results are
// returned.
func ExtractExposures(ctx context.Context, exposures []Exposure, roi ROI, win CollapseWindow, workers int) ([]ExposureSpectrum, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]ExposureSpectrum, len(exposures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range exposures {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			exp := exposures[i]
			out[i] = ExposureSpectrum{
				ID:     exp.ID,
				Points: ExtractAperture1D(exp.Flux, exp.Err, exp.Offsets, roi, win),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
