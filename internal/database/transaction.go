package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockledger/internal/model"
)

// TransactionsFindPage returns up to pageSize Transactions for the owner,
// newest first, starting after the cursor. Ties on time are broken by _id
// descending so paging stays deterministic.
func (db Database) TransactionsFindPage(
	ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int,
) ([]model.Transaction, string, bool, error) {
	filter := bson.M{"owner_id": ownerID}
	if namePrefix != "" {
		filter["name"] = bson.M{"$gte": namePrefix, "$lte": namePrefix + "\uf8ff"}
	}
	if cursor != "" {
		afterTime, afterID, err := decodeTransactionCursor(cursor)
		if err != nil {
			return nil, "", false, err
		}
		filter["$or"] = bson.A{
			bson.M{"time": bson.M{"$lt": afterTime}},
			bson.M{"time": afterTime, "_id": bson.M{"$lt": afterID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "time", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(pageSize))
	cur, err := db.Collection(CollectionTransactions).Find(ctx, filter, opts)
	if err != nil {
		return nil, "", false, errors.Wrapf(err, "error getting cursor to find Transactions for OwnerID: %s", ownerID.Hex())
	}
	var ts []model.Transaction
	if err = cur.All(ctx, &ts); err != nil {
		return nil, "", false, errors.Wrapf(err, "error getting Transactions from cursor for OwnerID: %s", ownerID.Hex())
	}

	if len(ts) < pageSize {
		return ts, "", false, nil
	}
	last := ts[len(ts)-1]
	return ts, encodeTransactionCursor(last.Time, last.ID), true, nil
}
