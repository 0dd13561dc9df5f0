package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/spectrum"
	"github.com/banshee-data/grismview/internal/units"
)

// echartsAssetsPrefix is where rendered pages load the echarts scripts from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

func writeHTML(w http.ResponseWriter, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleGlobeChart renders the projected footprints as a scatter of their
// outline vertices. This is a debugging view of /api/globe.
func (s *Server) handleGlobeChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	globe, err := s.projectGlobe(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	var outlines, selected []opts.ScatterData
	for _, f := range globe.Footprints {
		for _, run := range f.Runs {
			for _, p := range run {
				d := opts.ScatterData{Value: []interface{}{p.X, p.Y}, Name: f.ID}
				if f.Selected {
					selected = append(selected, d)
				} else {
					outlines = append(outlines, d)
				}
			}
		}
	}

	width, height := 2*globe.Viewport.CenterX, 2*globe.Viewport.CenterY
	center := globe.View.Center()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Footprint globe", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Footprint globe", Subtitle: fmt.Sprintf("centre ra=%.4f dec=%.4f scale=%.2f footprints=%d", center.RA, center.Dec, globe.View.Scale, len(globe.Footprints))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: width, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		// Screen y grows downwards.
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: height, Inverse: opts.Bool(true), Name: "y (px)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("footprints", outlines, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	if len(selected) > 0 {
		scatter.AddSeries("selected", selected, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	}

	writeHTML(w, func(buf *bytes.Buffer) error { return scatter.Render(buf) })
}

// handleSpectrumChart renders extracted spectra as an interactive line
// chart: one flux series per exposure, plus the ±1σ envelope when a single
// exposure is extracted.
func (s *Server) handleSpectrumChart(w http.ResponseWriter, r *http.Request) {
	req, results, ok := s.decodeExtract(w, r)
	if !ok {
		return
	}

	xName := "column"
	if len(results) > 0 && results[0].Calibrated {
		xName = "wavelength (" + s.waveUnit + ")"
	}
	toX := func(res exposureResult, p spectrum.Point) float64 {
		if !res.Calibrated {
			return p.Wavelength
		}
		return units.ToDisplayWavelength(p.Wavelength, s.waveUnit, s.waveFrame, req.Redshift)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Spectrum", Theme: "dark", Width: "100%", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "1D spectrum", Subtitle: spectrumSubtitle(results)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Scale: opts.Bool(true), Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true), Name: "flux", NameLocation: "middle", NameGap: 40}),
	)

	for _, res := range results {
		flux := make([]opts.LineData, 0, len(res.Points))
		for _, p := range res.Points {
			flux = append(flux, opts.LineData{Value: []interface{}{toX(res, p), p.Flux}})
		}
		line.AddSeries(res.ID, flux, charts.WithLineChartOpts(opts.LineChart{Step: "middle"}))
	}
	if len(results) == 1 {
		res := results[0]
		lo := make([]opts.LineData, 0, len(res.Points))
		hi := make([]opts.LineData, 0, len(res.Points))
		for _, p := range res.Points {
			x := toX(res, p)
			lo = append(lo, opts.LineData{Value: []interface{}{x, p.FluxMinusErr}})
			hi = append(hi, opts.LineData{Value: []interface{}{x, p.FluxPlusErr}})
		}
		dashed := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Opacity: opts.Float(0.6)})
		line.AddSeries("flux - err", lo, dashed)
		line.AddSeries("flux + err", hi, dashed)
	}

	writeHTML(w, func(buf *bytes.Buffer) error { return line.Render(buf) })
}

func spectrumSubtitle(results []exposureResult) string {
	if len(results) == 0 {
		return "no data"
	}
	sum := results[0].Summary
	return fmt.Sprintf("exposures=%d columns=%d total=%.4g snr=%.2f", len(results), sum.Columns, sum.TotalFlux, sum.SNR)
}
