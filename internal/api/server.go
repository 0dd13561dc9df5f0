// Package api serves the viewer over HTTP: footprints, camera, image
// stretch, spectral extraction and wavelength helpers.
package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/grismview/internal/config"
	"github.com/banshee-data/grismview/internal/footprint"
	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/session"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Config wires a Server to its collaborators. Viewer may be nil, in which
// case built-in defaults apply.
type Config struct {
	Session    *session.Session
	Footprints *footprint.Store
	Bookmarks  *session.BookmarkStore
	Client     httputil.HTTPClient
	Viewer     *config.ViewerConfig
}

type Server struct {
	sess       *session.Session
	footprints *footprint.Store
	bookmarks  *session.BookmarkStore
	client     httputil.HTTPClient

	maxBody   int64
	workers   int
	waveUnit  string
	waveFrame string
	digits    int
}

func NewServer(cfg Config) *Server {
	v := cfg.Viewer
	if v == nil {
		v = config.EmptyViewerConfig()
	}
	client := cfg.Client
	if client == nil {
		client = httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})
	}
	return &Server{
		sess:       cfg.Session,
		footprints: cfg.Footprints,
		bookmarks:  cfg.Bookmarks,
		client:     client,
		maxBody:    v.GetMaxBodyBytes(),
		workers:    v.GetExtractWorkers(),
		waveUnit:   v.GetWaveUnit(),
		waveFrame:  v.GetWaveFrame(),
		digits:     v.GetLabelDigits(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)

	mux.HandleFunc("/api/footprints", s.handleFootprints)
	mux.HandleFunc("/api/footprints/near", s.handleFootprintsNear)
	mux.HandleFunc("/api/footprints/at", s.handleFootprintsAt)
	mux.HandleFunc("/api/footprints/", s.handleFootprint)

	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/bookmarks", s.handleBookmarks)
	mux.HandleFunc("/api/bookmarks/", s.handleBookmark)
	mux.HandleFunc("/api/globe", s.handleGlobe)
	mux.HandleFunc("/api/globe/chart", s.handleGlobeChart)

	mux.HandleFunc("/api/sample", s.handleSample)
	mux.HandleFunc("/api/cutout", s.handleCutout)
	mux.HandleFunc("/api/norm", s.handleNorm)
	mux.HandleFunc("/api/texture.png", s.handleTexture)

	mux.HandleFunc("/api/spectrum/extract", s.handleSpectrumExtract)
	mux.HandleFunc("/api/spectrum/chart", s.handleSpectrumChart)
	mux.HandleFunc("/api/spectrum/plot.png", s.handleSpectrumPlot)

	mux.HandleFunc("/api/wavelength/slice", s.handleWavelengthSlice)
	mux.HandleFunc("/api/wavelength/nearest", s.handleWavelengthNearest)
	mux.HandleFunc("/api/wavelength/format", s.handleWavelengthFormat)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]any{"status": "ok", "session": s.sess.State()})
}

// Run serves h on listen until ctx is cancelled, then shuts down with a
// short grace period.
func Run(ctx context.Context, listen string, h http.Handler) error {
	server := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	monitoring.Logf("HTTP server listening on %s", listen)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// parseFloatParam reads a float query parameter. def is returned when the
// parameter is absent.
func parseFloatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return v, nil
}
