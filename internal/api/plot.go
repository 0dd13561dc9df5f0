package api

import (
	"bytes"
	"fmt"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/units"
)

// handleSpectrumPlot renders extracted spectra as a static PNG: a step line
// of flux per exposure with dashed flux±err curves.
func (s *Server) handleSpectrumPlot(w http.ResponseWriter, r *http.Request) {
	req, results, ok := s.decodeExtract(w, r)
	if !ok {
		return
	}

	p := plot.New()
	p.Title.Text = "1D spectrum"
	p.X.Label.Text = "column"
	p.Y.Label.Text = "flux"
	p.Add(plotter.NewGrid())

	for i, res := range results {
		if len(res.Points) == 0 {
			continue
		}
		if res.Calibrated {
			p.X.Label.Text = "wavelength (" + s.waveUnit + ")"
		}
		flux := make(plotter.XYs, len(res.Points))
		lo := make(plotter.XYs, len(res.Points))
		hi := make(plotter.XYs, len(res.Points))
		for j, pt := range res.Points {
			x := pt.Wavelength
			if res.Calibrated {
				x = units.ToDisplayWavelength(pt.Wavelength, s.waveUnit, s.waveFrame, req.Redshift)
			}
			flux[j] = plotter.XY{X: x, Y: pt.Flux}
			lo[j] = plotter.XY{X: x, Y: pt.FluxMinusErr}
			hi[j] = plotter.XY{X: x, Y: pt.FluxPlusErr}
		}

		fluxLine, err := plotter.NewLine(flux)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("flux line: %v", err))
			return
		}
		fluxLine.StepStyle = plotter.MidStep
		fluxLine.Color = plotutil.Color(i)
		fluxLine.Width = vg.Points(1)
		p.Add(fluxLine)
		p.Legend.Add(res.ID, fluxLine)

		for _, band := range []plotter.XYs{lo, hi} {
			errLine, err := plotter.NewLine(band)
			if err != nil {
				httputil.InternalServerError(w, fmt.Sprintf("error line: %v", err))
				return
			}
			errLine.Color = plotutil.Color(i)
			errLine.Width = vg.Points(0.5)
			errLine.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
			p.Add(errLine)
		}
	}
	p.Legend.Top = true
	p.Legend.Left = false

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render plot: %v", err))
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("encode plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
