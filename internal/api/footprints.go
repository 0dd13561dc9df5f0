package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/grismview/internal/footprint"
	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/projection"
)

// handleFootprints lists the stored footprints (GET) or replaces the whole
// set (POST). A POST either carries the footprint array as its body or
// names an upstream service with ?source=URL.
func (s *Server) handleFootprints(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		fps, err := s.footprints.List(r.Context())
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to list footprints: %v", err))
			return
		}
		if fps == nil {
			fps = []footprint.Footprint{}
		}
		httputil.WriteJSONOK(w, fps)
	case http.MethodPost:
		s.importFootprints(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) importFootprints(w http.ResponseWriter, r *http.Request) {
	var fps []footprint.Footprint
	if source := r.URL.Query().Get("source"); source != "" {
		body, err := httputil.Fetch(r.Context(), s.client, source, s.maxBody)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		fps, err = footprint.DecodeResponse(bytes.NewReader(body))
		if err != nil {
			httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
	} else if err := httputil.DecodeJSON(w, r, s.maxBody, &fps); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	if err := s.footprints.ReplaceAll(r.Context(), fps); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store footprints: %v", err))
		return
	}
	// The previous set is gone, so is any selection into it.
	s.sess.Select("")
	monitoring.Logf("footprints: replaced set with %d footprints", len(fps))
	httputil.WriteJSONOK(w, map[string]int{"count": len(fps)})
}

// handleFootprint serves GET, PATCH and DELETE on /api/footprints/{id}.
// PATCH merges a JSON object into the footprint's meta; null deletes a key.
func (s *Server) handleFootprint(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/footprints/")
	if id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "footprint not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		f, err := s.footprints.Get(r.Context(), id)
		if err != nil {
			writeFootprintError(w, err)
			return
		}
		httputil.WriteJSONOK(w, f)
	case http.MethodPatch:
		var patch map[string]any
		if err := httputil.DecodeJSON(w, r, s.maxBody, &patch); err != nil {
			httputil.WriteDecodeError(w, err)
			return
		}
		f, err := s.footprints.PatchMeta(r.Context(), id, patch)
		if err != nil {
			writeFootprintError(w, err)
			return
		}
		httputil.WriteJSONOK(w, f)
	case http.MethodDelete:
		if err := s.footprints.Delete(r.Context(), id); err != nil {
			writeFootprintError(w, err)
			return
		}
		if s.sess.Selected() == id {
			s.sess.Select("")
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func writeFootprintError(w http.ResponseWriter, err error) {
	if errors.Is(err, footprint.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}

func parseRaDec(r *http.Request) (projection.RaDec, error) {
	ra, err := parseFloatParam(r, "ra", 0)
	if err != nil {
		return projection.RaDec{}, err
	}
	dec, err := parseFloatParam(r, "dec", 0)
	if err != nil {
		return projection.RaDec{}, err
	}
	if dec < -90 || dec > 90 {
		return projection.RaDec{}, errors.New("dec must be within [-90, 90]")
	}
	return projection.RaDec{RA: projection.WrapDeg360(ra), Dec: dec}, nil
}

// handleFootprintsNear lists footprints whose centre lies within radius
// degrees of (ra, dec).
func (s *Server) handleFootprintsNear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	p, err := parseRaDec(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	radius, err := parseFloatParam(r, "radius", 1)
	if err != nil || radius <= 0 {
		httputil.BadRequest(w, "radius must be a positive number of degrees")
		return
	}
	fps, err := s.footprints.Near(r.Context(), p, radius)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if fps == nil {
		fps = []footprint.Footprint{}
	}
	httputil.WriteJSONOK(w, fps)
}

// handleFootprintsAt lists footprints containing (ra, dec).
func (s *Server) handleFootprintsAt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	p, err := parseRaDec(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	fps, err := s.footprints.At(r.Context(), p)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if fps == nil {
		fps = []footprint.Footprint{}
	}
	httputil.WriteJSONOK(w, fps)
}
