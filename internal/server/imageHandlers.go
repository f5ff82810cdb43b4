package server

import (
	"io"
	"net/http"
	"strconv"

	"stockledger/internal/client"
)

const maxImageBytes = 5 << 20

// imageClassify takes an uploaded picture, asks the external vision service
// for labels, and returns the best-guess item name. The ledger never sees
// the image; callers feed the label back through the mutation entry point
// as an ordinary name.
func (s Server) imageClassify() http.HandlerFunc {
	type response struct {
		Label string `json:"label"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID

		ip := clientIP(r)
		allowed, retryAfter, err := s.Limiter.Allow(r.Context(), ip)
		if err != nil {
			s.Logger.Errorf("imageClassify: Error checking rate limit for IP: %s, err: %v, TraceID: %s", ip, err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !allowed {
			s.Logger.Debugf("imageClassify: Rate limited IP: %s, retry after: %v, TraceID: %s", ip, retryAfter, tid)
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			http.Error(w, "Too many requests, please try again later.", http.StatusTooManyRequests)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			s.Logger.Debugf("imageClassify: Error parsing multipart form, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			s.Logger.Debugf("imageClassify: No image uploaded, err: %v, TraceID: %s", err, tid)
			http.Error(w, "No image uploaded", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Errorf("imageClassify: Error closing uploaded file, err: %v, TraceID: %s", err, tid)
			}
		}()

		image, err := io.ReadAll(file)
		if err != nil {
			s.Logger.Debugf("imageClassify: Error reading uploaded file, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		labels, err := s.Client.VisionDetectLabels(image)
		if err != nil {
			s.Logger.Errorf("imageClassify: Error detecting labels, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		label := client.PickLabel(labels)
		s.Logger.Debugf("imageClassify: Picked label: %s from %d label(s), TraceID: %s", label, len(labels), tid)
		s.writeJsonResponse(w, response{Label: label}, http.StatusOK)
	}
}
