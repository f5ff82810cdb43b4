package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Operation string

const (
	OperationInput  Operation = "input"
	OperationOutput Operation = "output"
	OperationDump   Operation = "dump"
)

func (o Operation) Valid() bool {
	return o == OperationInput || o == OperationOutput || o == OperationDump
}

type TransactionStatus string

const (
	StatusCompleted  TransactionStatus = "completed"
	StatusInProgress TransactionStatus = "in_progress"
	StatusFailed     TransactionStatus = "failed"
)

// Transaction is one append-only ledger row. It is never updated or deleted
// once written; Quantity is the absolute magnitude of the change it records.
type Transaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"-"`
	Name      string             `bson:"name" json:"name"`
	Operation Operation          `bson:"operation" json:"operation"`
	Quantity  float64            `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Time      primitive.DateTime `bson:"time" json:"time"`
	Status    TransactionStatus  `bson:"status" json:"status"`
}

// Replay folds a time-ordered (oldest first) transaction sequence into the
// quantity it implies, starting from zero: input adds, output subtracts,
// dump zeroes. Non-completed rows are skipped.
func Replay(txns []Transaction) float64 {
	var q float64
	for _, t := range txns {
		if t.Status != StatusCompleted {
			continue
		}
		switch t.Operation {
		case OperationInput:
			q += t.Quantity
		case OperationOutput:
			q -= t.Quantity
		case OperationDump:
			q = 0
		}
	}
	return q
}
