package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "remote address", remoteAddr: "192.0.2.10:54321", want: "192.0.2.10"},
		{name: "forwarded single hop", remoteAddr: "10.0.0.1:80", forwarded: "203.0.113.7", want: "203.0.113.7"},
		{name: "forwarded chain takes first", remoteAddr: "10.0.0.1:80", forwarded: "203.0.113.7, 10.0.0.2", want: "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
