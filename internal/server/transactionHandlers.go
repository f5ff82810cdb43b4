package server

import (
	"net/http"

	"stockledger/internal/ledger"
	"stockledger/internal/model"
)

func (s Server) transactionList() http.HandlerFunc {
	type response struct {
		Transactions []model.Transaction `json:"transactions"`
		NextCursor   string              `json:"next_cursor,omitempty"`
		HasMore      bool                `json:"has_more"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("transactionList: Error getting userContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		namePrefix, cursor, pageSize := pageParams(r)
		page, err := s.Ledger.ListTransactions(r.Context(), uc.user.ID, namePrefix, cursor, pageSize)
		if err != nil {
			s.writeLedgerError(w, "transactionList", err, tid)
			return
		}
		if page.Transactions == nil {
			page.Transactions = []model.Transaction{}
		}
		s.writeJsonResponse(w, response{
			Transactions: page.Transactions,
			NextCursor:   page.NextCursor,
			HasMore:      page.HasMore,
		}, http.StatusOK)
	}
}

func (s Server) transactionSummary() http.HandlerFunc {
	type response ledger.Summary
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("transactionSummary: Error getting userContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		summary, err := s.Ledger.Summarize(r.Context(), uc.user.ID)
		if err != nil {
			s.writeLedgerError(w, "transactionSummary", err, tid)
			return
		}
		s.writeJsonResponse(w, response(summary), http.StatusOK)
	}
}
