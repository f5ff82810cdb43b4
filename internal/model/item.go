package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is the mutable stock record for one (owner, name) pair. Quantity is
// kept consistent with the Transaction ledger: replaying every Transaction
// for the same owner and name reproduces it exactly.
type Item struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// OwnerID partitions every read and write; Items are never shared
	// across owners.
	OwnerID          primitive.ObjectID `bson:"owner_id" json:"-"`
	Name             string             `bson:"name" json:"name"`
	Quantity         float64            `bson:"quantity" json:"quantity"`
	Price            float64            `bson:"price" json:"price"`
	LastOperation    Operation          `bson:"last_operation" json:"last_operation"`
	LastOperationQty float64            `bson:"last_operation_qty" json:"last_operation_qty"`
	// Revision guards the read-modify-write cycle: updates are conditioned
	// on the revision read, and a mismatch means a concurrent writer won.
	Revision  int64              `bson:"revision" json:"-"`
	UpdatedAt primitive.DateTime `bson:"updated_at" json:"updated_at"`
}
