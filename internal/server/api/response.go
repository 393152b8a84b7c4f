// Package api provides HTTP API handlers for the huetrack detection journal.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ayusman/huetrack/internal/store"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// DefaultLimit caps list responses when the client gives no limit.
const DefaultLimit = 100

type errorResponse struct {
	Error string `json:"error"`
}

type boxResponse struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type pointResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type detectionResponse struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"session_id"`
	Frame           int           `json:"frame"`
	Box             boxResponse   `json:"box"`
	Center          pointResponse `json:"center"`
	Area            float64       `json:"area"`
	MeanColor       string        `json:"mean_color"`
	AnnotationColor string        `json:"annotation_color"`
	CreatedAt       string        `json:"created_at"`
}

type listDetectionsResponse struct {
	Detections []detectionResponse `json:"detections"`
}

type sessionResponse struct {
	ID         string          `json:"id"`
	Device     int             `json:"device"`
	Config     json.RawMessage `json:"config"`
	Frames     int             `json:"frames"`
	Detections int             `json:"detections"`
	Running    bool            `json:"running"`
	StartedAt  string          `json:"started_at"`
	EndedAt    string          `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toDetectionResponse(d *store.Detection) detectionResponse {
	return detectionResponse{
		ID:              d.ID,
		SessionID:       d.SessionID,
		Frame:           d.Frame,
		Box:             boxResponse{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height},
		Center:          pointResponse{X: d.CenterX, Y: d.CenterY},
		Area:            d.Area,
		MeanColor:       d.MeanColor,
		AnnotationColor: d.AnnotationColor,
		CreatedAt:       d.CreatedAt.Format(timeFormat),
	}
}

func toDetectionList(rows []*store.Detection) listDetectionsResponse {
	response := listDetectionsResponse{
		Detections: make([]detectionResponse, 0, len(rows)),
	}
	for _, d := range rows {
		response.Detections = append(response.Detections, toDetectionResponse(d))
	}
	return response
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		Device:     s.Device,
		Config:     json.RawMessage(s.Config),
		Frames:     s.Frames,
		Detections: s.Detections,
		Running:    s.Running(),
		StartedAt:  s.StartedAt.Format(timeFormat),
	}
	if !s.Running() {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseLimit reads the limit query parameter. Missing means DefaultLimit.
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
