package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockledger/internal/client"
	logpkg "stockledger/internal/logger"
	"stockledger/internal/ratelimit"
)

func newImageTestServer(visionURL string, limiter ratelimit.Limiter) Server {
	l := logpkg.NewLogger(logpkg.LevelOff, io.Discard)
	return Server{
		Client: client.Client{
			Client:       http.DefaultClient,
			VisionAPIURL: visionURL,
			VisionAPIKey: "test-key",
			Logger:       l,
		},
		Limiter: limiter,
		Logger:  l,
	}
}

func newImageUpload(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("error creating form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("error writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("error closing multipart writer: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/image", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestImageClassify(t *testing.T) {
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"labels": []map[string]any{{"name": "Tomato", "confidence": 96.0}},
		})
	}))
	defer vision.Close()

	s := newImageTestServer(vision.URL, ratelimit.NewMemoryLimiter(time.Minute, 5))
	w := httptest.NewRecorder()
	s.imageClassify().ServeHTTP(w, newImageUpload(t, []byte("fake-image")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error unmarshalling response: %v", err)
	}
	if resp.Label != "Tomato" {
		t.Errorf("expected label Tomato, got %q", resp.Label)
	}
}

func TestImageClassifyRateLimited(t *testing.T) {
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"labels": []map[string]any{}})
	}))
	defer vision.Close()

	s := newImageTestServer(vision.URL, ratelimit.NewMemoryLimiter(15*time.Minute, 2))
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		s.imageClassify().ServeHTTP(w, newImageUpload(t, []byte("fake-image")))
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: expected status 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	s.imageClassify().ServeHTTP(w, newImageUpload(t, []byte("fake-image")))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestImageClassifyMissingFile(t *testing.T) {
	s := newImageTestServer("http://vision.invalid", ratelimit.NewMemoryLimiter(time.Minute, 5))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("note", "no image here"); err != nil {
		t.Fatalf("error writing form field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("error closing multipart writer: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/image", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	s.imageClassify().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestImageClassifyVisionDown(t *testing.T) {
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer vision.Close()

	s := newImageTestServer(vision.URL, ratelimit.NewMemoryLimiter(time.Minute, 5))
	w := httptest.NewRecorder()
	s.imageClassify().ServeHTTP(w, newImageUpload(t, []byte("fake-image")))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}
