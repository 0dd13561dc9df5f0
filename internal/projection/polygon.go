package projection

// Viewport describes where the globe is drawn.
type Viewport struct {
	CenterX       float64 `json:"center_x"`
	CenterY       float64 `json:"center_y"`
	InitialRadius float64 `json:"initial_radius"`
}

// ProjectPolygon projects a closed vertex ring and splits it into screen
// polylines. Vertices on the far hemisphere break the ring; a visible run
// that crosses the seam between the last and first vertex is joined into a
// single polyline. A fully visible ring is returned closed (first vertex
// repeated at the end).
func ProjectPolygon(vertices []RaDec, view ViewState, vp Viewport) [][]ScreenPoint {
	n := len(vertices)
	if n == 0 {
		return nil
	}

	pts := make([]ProjectedPoint, n)
	allVisible := true
	for i, vtx := range vertices {
		pts[i] = view.Project(vtx)
		if !pts[i].Visible {
			allVisible = false
		}
	}

	screen := func(i int) ScreenPoint {
		return ToScreen(pts[i], vp.CenterX, vp.CenterY, view.Scale, vp.InitialRadius)
	}

	if allVisible {
		ring := make([]ScreenPoint, 0, n+1)
		for i := 0; i < n; i++ {
			ring = append(ring, screen(i))
		}
		if n > 1 {
			ring = append(ring, ring[0])
		}
		return [][]ScreenPoint{ring}
	}

	// Start walking just after a hidden vertex so no run is split by the seam.
	start := 0
	for i := 0; i < n; i++ {
		if !pts[i].Visible {
			start = (i + 1) % n
			break
		}
	}

	var segments [][]ScreenPoint
	var cur []ScreenPoint
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if pts[i].Visible {
			cur = append(cur, screen(i))
			continue
		}
		if len(cur) > 0 {
			segments = append(segments, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}
	return segments
}
