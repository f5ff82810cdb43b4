package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"stockledger/internal/database"
	"stockledger/internal/ledger"
)

func (s Server) writeJsonResponse(w http.ResponseWriter, response any, statusCode int) {
	if resp, err := json.Marshal(response); err != nil {
		s.Logger.Errorf("Error encoding response: %+v, err: %v", response, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if _, err = w.Write(resp); err != nil {
			s.Logger.Errorf("Error writing JSON response: %s, err: %v", resp, err)
		}
	}
}

// writeLedgerError maps the mutation/query error taxonomy onto status
// codes: rejected requests get their reason, unexpected faults only a 500.
func (s Server) writeLedgerError(w http.ResponseWriter, handlerName string, err error, traceID string) {
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, ledger.ErrNegativeStock),
		errors.Is(err, database.ErrInvalidCursor):
		s.Logger.Debugf("%s: Rejected request, err: %v, TraceID: %s", handlerName, err, traceID)
		http.Error(w, errors.Cause(err).Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrNotFound):
		s.Logger.Debugf("%s: Target not found, err: %v, TraceID: %s", handlerName, err, traceID)
		http.Error(w, errors.Cause(err).Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrConflict):
		s.Logger.Warnf("%s: Conflict retries exhausted, err: %v, TraceID: %s", handlerName, err, traceID)
		http.Error(w, errors.Cause(err).Error(), http.StatusConflict)
	default:
		s.Logger.Errorf("%s: err: %+v, TraceID: %s", handlerName, err, traceID)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// clientIP keys the rate limiter: first hop of X-Forwarded-For when
// present, else the remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
