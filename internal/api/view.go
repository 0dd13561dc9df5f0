package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/banshee-data/grismview/internal/footprint"
	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/projection"
	"github.com/banshee-data/grismview/internal/session"
)

// viewRequest is the body of POST /api/view. Which fields are read depends
// on Action.
type viewRequest struct {
	Action      string                `json:"action"`
	DYaw        float64               `json:"d_yaw"`
	DPitch      float64               `json:"d_pitch"`
	Factor      float64               `json:"factor"`
	RA          float64               `json:"ra"`
	Dec         float64               `json:"dec"`
	X           float64               `json:"x"`
	Y           float64               `json:"y"`
	Width       float64               `json:"width"`
	Height      float64               `json:"height"`
	FootprintID string                `json:"footprint_id"`
	View        *projection.ViewState `json:"view,omitempty"`
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.sess.State())
		return
	case http.MethodPost:
	default:
		httputil.MethodNotAllowed(w)
		return
	}

	var req viewRequest
	if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	switch req.Action {
	case "pan":
		if !finite(req.DYaw, req.DPitch) {
			httputil.BadRequest(w, "pan deltas must be finite")
			return
		}
		s.sess.Pan(req.DYaw, req.DPitch)
	case "zoom":
		if !(req.Factor > 0) || math.IsInf(req.Factor, 0) {
			httputil.BadRequest(w, "zoom factor must be positive")
			return
		}
		s.sess.Zoom(req.Factor)
	case "goto":
		if !finite(req.RA, req.Dec) || req.Dec < -90 || req.Dec > 90 {
			httputil.BadRequest(w, "goto needs finite ra and dec within [-90, 90]")
			return
		}
		s.sess.GoTo(req.RA, req.Dec)
	case "goto_screen":
		if !finite(req.X, req.Y) || !(req.Width > 0) || !(req.Height > 0) {
			httputil.BadRequest(w, "goto_screen needs x, y and a positive width and height")
			return
		}
		if _, ok := s.sess.GoToScreen(req.X, req.Y, req.Width/2, req.Height/2); !ok {
			httputil.BadRequest(w, "screen point is off the globe")
			return
		}
	case "set":
		if req.View == nil {
			httputil.BadRequest(w, "set needs a view")
			return
		}
		s.sess.SetView(*req.View)
	case "select":
		if req.FootprintID != "" {
			if _, err := s.footprints.Get(r.Context(), req.FootprintID); err != nil {
				writeFootprintError(w, err)
				return
			}
		}
		s.sess.Select(req.FootprintID)
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown view action %q", req.Action))
		return
	}
	httputil.WriteJSONOK(w, s.sess.State())
}

// globeFootprint is one footprint outline in screen space.
type globeFootprint struct {
	ID       string                     `json:"id"`
	Selected bool                       `json:"selected"`
	Runs     [][]projection.ScreenPoint `json:"runs"`
}

type globeResponse struct {
	View       projection.ViewState `json:"view"`
	Viewport   projection.Viewport  `json:"viewport"`
	Footprints []globeFootprint     `json:"footprints"`
}

// projectGlobe projects every stored footprint with the session camera into
// a width x height viewport. Hidden footprints are omitted.
func (s *Server) projectGlobe(r *http.Request) (globeResponse, error) {
	width, err := parseFloatParam(r, "width", 800)
	if err != nil || width <= 0 {
		return globeResponse{}, errors.New("width must be positive")
	}
	height, err := parseFloatParam(r, "height", 800)
	if err != nil || height <= 0 {
		return globeResponse{}, errors.New("height must be positive")
	}

	fps, err := s.footprints.List(r.Context())
	if err != nil {
		return globeResponse{}, fmt.Errorf("list footprints: %w", err)
	}

	view := s.sess.View()
	vp := projection.Viewport{CenterX: width / 2, CenterY: height / 2, InitialRadius: s.sess.InitialRadius()}
	selected := s.sess.Selected()

	out := globeResponse{View: view, Viewport: vp, Footprints: []globeFootprint{}}
	for _, f := range fps {
		runs := projection.ProjectPolygon(f.Vertices, view, vp)
		if len(runs) == 0 {
			continue
		}
		out.Footprints = append(out.Footprints, globeFootprint{ID: f.ID, Selected: f.ID == selected, Runs: runs})
	}
	return out, nil
}

func (s *Server) handleGlobe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	globe, err := s.projectGlobe(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, globe)
}

type bookmarkRequest struct {
	Name        string                `json:"name"`
	FootprintID string                `json:"footprint_id"`
	View        *projection.ViewState `json:"view,omitempty"`
}

// handleBookmarks lists bookmarks (GET) or saves one (POST). A bookmark
// without a view captures the current camera.
func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		bms, err := s.bookmarks.List(r.Context())
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		if bms == nil {
			bms = []session.Bookmark{}
		}
		httputil.WriteJSONOK(w, bms)
	case http.MethodPost:
		var req bookmarkRequest
		if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
			httputil.WriteDecodeError(w, err)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			httputil.BadRequest(w, "name is required")
			return
		}
		if req.FootprintID != "" {
			if _, err := s.footprints.Get(r.Context(), req.FootprintID); err != nil {
				if errors.Is(err, footprint.ErrNotFound) {
					httputil.BadRequest(w, err.Error())
					return
				}
				httputil.InternalServerError(w, err.Error())
				return
			}
		}
		b := session.Bookmark{Name: req.Name, FootprintID: req.FootprintID, View: s.sess.View()}
		if req.View != nil {
			b.View = *req.View
		}
		if err := s.bookmarks.Save(r.Context(), &b); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, b)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleBookmark serves GET and DELETE on /api/bookmarks/{id} and POST on
// /api/bookmarks/{id}/apply.
func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/bookmarks/"), "/")
	id := parts[0]
	if id == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "apply") {
		httputil.NotFound(w, "bookmark not found")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		b, err := s.bookmarks.Get(r.Context(), id)
		if err != nil {
			writeBookmarkError(w, err)
			return
		}
		s.sess.Apply(*b)
		httputil.WriteJSONOK(w, s.sess.State())
		return
	}

	switch r.Method {
	case http.MethodGet:
		b, err := s.bookmarks.Get(r.Context(), id)
		if err != nil {
			writeBookmarkError(w, err)
			return
		}
		httputil.WriteJSONOK(w, b)
	case http.MethodDelete:
		if err := s.bookmarks.Delete(r.Context(), id); err != nil {
			writeBookmarkError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func writeBookmarkError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrBookmarkNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}
