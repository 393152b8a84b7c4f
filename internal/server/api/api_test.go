package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/huetrack/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedSession starts a finished session holding n detections on frames 1..n.
func seedSession(t *testing.T, s *store.Store, n int) *store.Session {
	t.Helper()

	sess, err := s.Sessions().Start(0, `{"device_id":0}`)
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	for i := 1; i <= n; i++ {
		d := &store.Detection{
			SessionID:       sess.ID,
			Frame:           i,
			X:               10,
			Y:               20,
			Width:           30,
			Height:          40,
			CenterX:         25,
			CenterY:         40,
			Area:            900,
			MeanColor:       "#ff5500",
			AnnotationColor: "#00aaff",
		}
		if err := s.Detections().Create(d); err != nil {
			t.Fatalf("failed to create detection: %v", err)
		}
	}

	if err := s.Sessions().Finish(sess.ID, n+1, n); err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	return got
}

func TestSessionsHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)
	sess := seedSession(t, s, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(response.Sessions))
	}

	got := response.Sessions[0]
	if got.ID != sess.ID {
		t.Errorf("expected ID %s, got %s", sess.ID, got.ID)
	}
	if got.Frames != 3 || got.Detections != 2 {
		t.Errorf("expected frames 3 detections 2, got %d and %d", got.Frames, got.Detections)
	}
	if got.Running {
		t.Error("expected finished session")
	}
	if got.EndedAt == "" {
		t.Error("expected ended_at to be set")
	}
	if string(got.Config) != `{"device_id":0}` {
		t.Errorf("expected config passed through, got %s", got.Config)
	}
}

func TestSessionsHandler_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// An empty list is [] rather than null.
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["sessions"]) != "[]" {
		t.Errorf("expected sessions [], got %s", raw["sessions"])
	}
}

func TestSessionsHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)
	sess := seedSession(t, s, 1)

	t.Run("existing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ID != sess.ID {
			t.Errorf("expected ID %s, got %s", sess.ID, response.ID)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/does-not-exist", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}

		var response errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Error != "Session not found" {
			t.Errorf("expected error 'Session not found', got %q", response.Error)
		}
	})
}

func TestSessionsHandler_Detections(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)
	sess := seedSession(t, s, 5)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
	}{
		{name: "default limit", query: "", wantCode: http.StatusOK, wantCount: 5},
		{name: "explicit limit", query: "?limit=2", wantCode: http.StatusOK, wantCount: 2},
		{name: "zero limit", query: "?limit=0", wantCode: http.StatusBadRequest},
		{name: "non-numeric limit", query: "?limit=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/detections"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var response listDetectionsResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(response.Detections) != tt.wantCount {
				t.Fatalf("expected %d detections, got %d", tt.wantCount, len(response.Detections))
			}

			first := response.Detections[0]
			if first.Frame != 1 {
				t.Errorf("expected first frame 1, got %d", first.Frame)
			}
			if first.Box != (boxResponse{X: 10, Y: 20, Width: 30, Height: 40}) {
				t.Errorf("unexpected box %+v", first.Box)
			}
			if first.AnnotationColor != "#00aaff" {
				t.Errorf("expected annotation colour #00aaff, got %s", first.AnnotationColor)
			}
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/detections", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSessionsHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)
	sess := seedSession(t, s, 3)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	if _, err := s.Sessions().GetByID(sess.ID); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	n, err := s.Detections().CountBySession(sess.ID)
	if err != nil {
		t.Fatalf("CountBySession() error = %v", err)
	}
	if n != 0 {
		t.Errorf("expected detections removed with session, %d left", n)
	}

	t.Run("second delete is not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSessionsHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/sessions"},
		{http.MethodPut, "/api/sessions/abc"},
		{http.MethodDelete, "/api/sessions/abc/detections"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
			}
		})
	}
}

func TestDetectionsHandler_Recent(t *testing.T) {
	s := newTestStore(t)
	handler := NewDetectionsHandler(s)
	seedSession(t, s, 4)

	req := httptest.NewRequest(http.MethodGet, "/api/detections?limit=3", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listDetectionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Detections) != 3 {
		t.Fatalf("expected 3 detections, got %d", len(response.Detections))
	}
	if response.Detections[0].Frame != 4 {
		t.Errorf("expected newest frame 4 first, got %d", response.Detections[0].Frame)
	}
}

func TestDetectionsHandler_BadRequest(t *testing.T) {
	s := newTestStore(t)
	handler := NewDetectionsHandler(s)

	for _, q := range []string{"?limit=-1", "?limit=x"} {
		t.Run(q, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/detections"+q, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}

	t.Run("POST", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/detections", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
