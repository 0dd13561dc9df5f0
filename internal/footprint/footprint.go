// Package footprint models survey exposure footprints on the sky and
// persists them.
package footprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/grismview/internal/projection"
)

var (
	// ErrNotFound is returned when a footprint id is unknown.
	ErrNotFound = errors.New("footprint not found")
	// ErrInvalidVertex marks a vertex that is not a finite [ra, dec] pair
	// with dec in [-90, 90].
	ErrInvalidVertex = errors.New("invalid footprint vertex")
)

// Footprint is the sky coverage polygon of one exposure.
type Footprint struct {
	ID          string
	Vertices    []projection.RaDec
	Center      projection.RaDec
	Meta        map[string]any
	CreatedAtNs int64
	UpdatedAtNs int64
}

// wireFootprint is the JSON shape exchanged with the footprint service.
type wireFootprint struct {
	ID        string         `json:"id"`
	Footprint wireGeometry   `json:"footprint"`
	Meta      map[string]any `json:"meta"`
}

type wireGeometry struct {
	Vertices [][]float64 `json:"vertices"`
	Center   []float64   `json:"center,omitempty"`
}

// MarshalJSON writes the {id, footprint: {vertices, center}, meta} shape.
func (f Footprint) MarshalJSON() ([]byte, error) {
	w := wireFootprint{
		ID: f.ID,
		Footprint: wireGeometry{
			Vertices: make([][]float64, len(f.Vertices)),
			Center:   []float64{f.Center.RA, f.Center.Dec},
		},
		Meta: f.Meta,
	}
	for i, v := range f.Vertices {
		w.Footprint.Vertices[i] = []float64{v.RA, v.Dec}
	}
	if w.Meta == nil {
		w.Meta = map[string]any{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire shape, validating every vertex. RA values
// are wrapped into [0, 360). A missing center is derived from the vertices.
func (f *Footprint) UnmarshalJSON(data []byte) error {
	var w wireFootprint
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	vertices := make([]projection.RaDec, len(w.Footprint.Vertices))
	for i, pair := range w.Footprint.Vertices {
		v, err := parsePair(pair)
		if err != nil {
			return fmt.Errorf("footprint %q vertex %d: %w", w.ID, i, err)
		}
		vertices[i] = v
	}

	var center projection.RaDec
	if len(w.Footprint.Center) > 0 {
		c, err := parsePair(w.Footprint.Center)
		if err != nil {
			return fmt.Errorf("footprint %q center: %w", w.ID, err)
		}
		center = c
	} else {
		center = Centroid(vertices)
	}

	*f = Footprint{ID: w.ID, Vertices: vertices, Center: center, Meta: w.Meta}
	return nil
}

func parsePair(pair []float64) (projection.RaDec, error) {
	if len(pair) != 2 {
		return projection.RaDec{}, fmt.Errorf("%d components: %w", len(pair), ErrInvalidVertex)
	}
	ra, dec := pair[0], pair[1]
	if math.IsNaN(ra) || math.IsInf(ra, 0) || math.IsNaN(dec) || dec < -90 || dec > 90 {
		return projection.RaDec{}, fmt.Errorf("[%v, %v]: %w", ra, dec, ErrInvalidVertex)
	}
	return projection.RaDec{RA: projection.WrapDeg360(ra), Dec: dec}, nil
}

// DecodeResponse parses a footprint service response: a JSON array of
// footprints.
func DecodeResponse(r io.Reader) ([]Footprint, error) {
	var out []Footprint
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode footprints: %w", err)
	}
	return out, nil
}

// Centroid returns the direction of the mean unit vector of vertices. An
// empty polygon, or one whose vectors cancel, yields (0, 0).
func Centroid(vertices []projection.RaDec) projection.RaDec {
	var x, y, z float64
	for _, v := range vertices {
		ra, dec := v.RA*math.Pi/180, v.Dec*math.Pi/180
		x += math.Cos(dec) * math.Cos(ra)
		y += math.Cos(dec) * math.Sin(ra)
		z += math.Sin(dec)
	}
	norm := math.Sqrt(x*x + y*y + z*z)
	if norm < 1e-12 {
		return projection.RaDec{}
	}
	return projection.RaDec{
		RA:  projection.WrapDeg360(math.Atan2(y, x) * 180 / math.Pi),
		Dec: math.Asin(z/norm) * 180 / math.Pi,
	}
}

// Separation returns the great-circle angle between a and b in degrees.
func Separation(a, b projection.RaDec) float64 {
	dec1, dec2 := a.Dec*math.Pi/180, b.Dec*math.Pi/180
	dDec := dec2 - dec1
	dRA := (b.RA - a.RA) * math.Pi / 180
	h := math.Sin(dDec/2)*math.Sin(dDec/2) + math.Cos(dec1)*math.Cos(dec2)*math.Sin(dRA/2)*math.Sin(dRA/2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)) * 180 / math.Pi
}

// Contains reports whether p lies inside the footprint polygon. The
// polygon is projected onto the hemisphere centred on p and tested with an
// even-odd ray cast, so footprints must span less than a hemisphere.
func (f Footprint) Contains(p projection.RaDec) bool {
	if len(f.Vertices) < 3 {
		return false
	}
	xs := make([]float64, len(f.Vertices))
	ys := make([]float64, len(f.Vertices))
	for i, v := range f.Vertices {
		pp := projection.ProjectRaDec(v.RA, v.Dec, p.RA, p.Dec)
		if !pp.Visible {
			return false
		}
		xs[i], ys[i] = pp.X, pp.Y
	}

	inside := false
	for i, j := 0, len(xs)-1; i < len(xs); j, i = i, i+1 {
		if (ys[i] > 0) != (ys[j] > 0) {
			x := xs[j] + (0-ys[j])*(xs[i]-xs[j])/(ys[i]-ys[j])
			if x > 0 {
				inside = !inside
			}
		}
	}
	return inside
}
