package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"stockledger/internal/ledger"
	"stockledger/internal/misc"
	"stockledger/internal/model"
)

var validate = validator.New()

func (s Server) itemMutate() http.HandlerFunc {
	type request struct {
		Name      string  `json:"name" validate:"required"`
		Operation string  `json:"operation" validate:"required,oneof=input output"`
		Quantity  float64 `json:"quantity" validate:"required,gt=0"`
		Price     float64 `json:"price" validate:"gte=0"`
		EditMode  string  `json:"edit_mode" validate:"omitempty,oneof=delta inline"`
	}
	type response struct {
		Item        model.Item         `json:"item"`
		Transaction *model.Transaction `json:"transaction"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemMutate: Error getting userContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("itemMutate: Error decoding JSON, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			s.Logger.Debugf("itemMutate: Invalid request: %+v, err: %v, TraceID: %s", req, err, tid)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		item, txn, err := s.Ledger.Mutate(r.Context(), uc.user.ID, ledger.MutateRequest{
			Name:      req.Name,
			Operation: model.Operation(req.Operation),
			Quantity:  req.Quantity,
			Price:     req.Price,
			EditMode:  ledger.EditMode(req.EditMode),
		})
		if err != nil {
			s.writeLedgerError(w, "itemMutate", err, tid)
			return
		}
		s.Logger.Debugf("itemMutate: Mutated Item: %s, quantity: %v, UserID: %s, TraceID: %s",
			misc.StringLimit(item.Name, 45), item.Quantity, uc.user.ID.Hex(), tid)
		s.writeJsonResponse(w, response{Item: item, Transaction: txn}, http.StatusOK)
	}
}

func (s Server) itemDelete() http.HandlerFunc {
	type response struct {
		Transaction model.Transaction `json:"transaction"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemDelete: Error getting userContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		name := mux.Vars(r)["name"]
		txn, err := s.Ledger.Delete(r.Context(), uc.user.ID, name)
		if err != nil {
			s.writeLedgerError(w, "itemDelete", err, tid)
			return
		}
		s.writeJsonResponse(w, response{Transaction: txn}, http.StatusOK)
	}
}

func pageParams(r *http.Request) (namePrefix string, cursor string, pageSize int) {
	q := r.URL.Query()
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	return q.Get("search"), q.Get("cursor"), pageSize
}

func (s Server) itemList() http.HandlerFunc {
	type response struct {
		Items      []model.Item `json:"items"`
		NextCursor string       `json:"next_cursor,omitempty"`
		HasMore    bool         `json:"has_more"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemList: Error getting userContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		namePrefix, cursor, pageSize := pageParams(r)
		page, err := s.Ledger.ListItems(r.Context(), uc.user.ID, namePrefix, cursor, pageSize)
		if err != nil {
			s.writeLedgerError(w, "itemList", err, tid)
			return
		}
		if page.Items == nil {
			page.Items = []model.Item{}
		}
		s.writeJsonResponse(w, response{
			Items:      page.Items,
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		}, http.StatusOK)
	}
}

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const feedWriteTimeout = 10 * time.Second

// itemFeed streams the owner's full Item set over a websocket: once on
// connect, then on every committed mutation. The subscription is released
// when the client goes away or falls too far behind.
func (s Server) itemFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemFeed: Error getting userContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		conn, err := feedUpgrader.Upgrade(w, r, nil)
		if err != nil {
			s.Logger.Debugf("itemFeed: Error upgrading connection, err: %v, TraceID: %s", err, tid)
			return
		}

		sub := s.Hub.Subscribe(uc.user.ID.Hex())
		defer func() {
			sub.Close()
			if err := conn.Close(); err != nil {
				s.Logger.Debugf("itemFeed: Error closing connection, err: %v, TraceID: %s", err, tid)
			}
		}()
		s.Logger.Debugf("itemFeed: Subscribed UserID: %s, TraceID: %s", uc.user.ID.Hex(), tid)

		// Reader only pumps control frames and detects the client closing.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					sub.Close()
					return
				}
			}
		}()

		items, err := s.DB.ItemsFindAll(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("itemFeed: Error getting initial Items for UserID: %s, err: %v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			return
		}
		if err := writeFeedItems(conn, items); err != nil {
			s.Logger.Debugf("itemFeed: Error writing initial Items, err: %v, TraceID: %s", err, tid)
			return
		}

		for items := range sub.C {
			if err := writeFeedItems(conn, items); err != nil {
				s.Logger.Debugf("itemFeed: Error writing Items, err: %v, TraceID: %s", err, tid)
				return
			}
		}
		s.Logger.Debugf("itemFeed: Unsubscribed UserID: %s, TraceID: %s", uc.user.ID.Hex(), tid)
	}
}

func writeFeedItems(conn *websocket.Conn, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	if err := conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(items)
}
