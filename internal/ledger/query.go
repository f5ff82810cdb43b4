package ledger

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stockledger/internal/model"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 100
	// fullScanPageSize is the page size AllTransactions walks the ledger
	// with.
	fullScanPageSize = 100
)

type ItemPage struct {
	Items      []model.Item
	NextCursor string
	HasMore    bool
}

type TransactionPage struct {
	Transactions []model.Transaction
	NextCursor   string
	HasMore      bool
}

// Summary aggregates the owner's whole ledger.
type Summary struct {
	TotalInput   float64 `json:"total_input"`
	TotalOutput  float64 `json:"total_output"`
	TotalDumped  float64 `json:"total_dumped"`
	TotalSpend   float64 `json:"total_spend"`
	Transactions int     `json:"transactions"`
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

// ListItems returns one page of the owner's Items in insertion order,
// optionally restricted to a name prefix. Passing the returned cursor back
// yields the next disjoint page.
func (l *Ledger) ListItems(ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int) (ItemPage, error) {
	items, next, hasMore, err := l.Store.ItemsFindPage(ctx, ownerID, namePrefix, cursor, clampPageSize(pageSize))
	if err != nil {
		return ItemPage{}, errors.Wrapf(err, "error listing Items for OwnerID: %s", ownerID.Hex())
	}
	return ItemPage{Items: items, NextCursor: next, HasMore: hasMore}, nil
}

// ListTransactions returns one page of the owner's ledger, most recent
// first.
func (l *Ledger) ListTransactions(ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int) (TransactionPage, error) {
	txns, next, hasMore, err := l.Store.TransactionsFindPage(ctx, ownerID, namePrefix, cursor, clampPageSize(pageSize))
	if err != nil {
		return TransactionPage{}, errors.Wrapf(err, "error listing Transactions for OwnerID: %s", ownerID.Hex())
	}
	return TransactionPage{Transactions: txns, NextCursor: next, HasMore: hasMore}, nil
}

// AllTransactions pages through the owner's entire ledger with the same
// cursor contract as ListTransactions and returns the concatenation. The
// final page is detected by a short page, not an empty one, so a scan that
// straddles the exhaustion boundary drops nothing.
func (l *Ledger) AllTransactions(ctx context.Context, ownerID primitive.ObjectID) ([]model.Transaction, error) {
	var all []model.Transaction
	var cursor string
	for {
		txns, next, hasMore, err := l.Store.TransactionsFindPage(ctx, ownerID, "", cursor, fullScanPageSize)
		if err != nil {
			return nil, errors.Wrapf(err, "error scanning Transactions for OwnerID: %s", ownerID.Hex())
		}
		all = append(all, txns...)
		if !hasMore {
			return all, nil
		}
		cursor = next
	}
}

// Summarize folds the owner's whole ledger into per-operation totals.
func (l *Ledger) Summarize(ctx context.Context, ownerID primitive.ObjectID) (Summary, error) {
	txns, err := l.AllTransactions(ctx, ownerID)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Transactions: len(txns)}
	for _, t := range txns {
		if t.Status != model.StatusCompleted {
			continue
		}
		switch t.Operation {
		case model.OperationInput:
			s.TotalInput += t.Quantity
			s.TotalSpend += t.Quantity * t.Price
		case model.OperationOutput:
			s.TotalOutput += t.Quantity
		case model.OperationDump:
			s.TotalDumped += t.Quantity
		}
	}
	return s, nil
}
