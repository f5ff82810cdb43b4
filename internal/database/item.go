package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockledger/internal/model"
)

func (db Database) ItemFind(ctx context.Context, ownerID primitive.ObjectID, name string) (model.Item, error) {
	var i model.Item
	err := db.Collection(CollectionItems).FindOne(ctx, bson.M{
		"owner_id": ownerID,
		"name":     name,
	}).Decode(&i)
	return i, errors.Wrapf(err, "error finding Item with name: %s for OwnerID: %s", name, ownerID.Hex())
}

// ItemCreateWithTransaction inserts a new Item and its first ledger
// Transaction as one unit. A concurrent create for the same (owner, name)
// loses on the unique index and surfaces as a duplicate key error.
func (db Database) ItemCreateWithTransaction(
	ctx context.Context, i model.Item, t model.Transaction,
) (model.Item, model.Transaction, error) {
	now := primitive.NewDateTimeFromTime(time.Now())
	i.Revision = 1
	i.UpdatedAt = now
	t.Time = now

	err := db.inTx(ctx, func(sc mongo.SessionContext) error {
		ir, err := db.Collection(CollectionItems).InsertOne(sc, i)
		if err != nil {
			return err
		}
		i.ID = ir.InsertedID.(primitive.ObjectID)

		tr, err := db.Collection(CollectionTransactions).InsertOne(sc, t)
		if err != nil {
			return err
		}
		t.ID = tr.InsertedID.(primitive.ObjectID)
		return nil
	})
	if err != nil {
		return i, t, errors.Wrapf(err, "error creating Item with name: %s for OwnerID: %s", i.Name, i.OwnerID.Hex())
	}
	return i, t, nil
}

// ItemUpdateWithTransaction writes the updated Item and appends its paired
// Transaction atomically. The update is conditioned on the Revision the
// caller read; on a mismatch nothing is written and ErrNoDocumentsModified
// is returned so the caller can re-read and retry.
func (db Database) ItemUpdateWithTransaction(
	ctx context.Context, i model.Item, t model.Transaction,
) (model.Item, model.Transaction, error) {
	now := primitive.NewDateTimeFromTime(time.Now())
	readRevision := i.Revision
	i.Revision++
	i.UpdatedAt = now
	t.Time = now

	err := db.inTx(ctx, func(sc mongo.SessionContext) error {
		res, err := db.Collection(CollectionItems).UpdateOne(
			sc,
			bson.M{"_id": i.ID, "revision": readRevision},
			bson.M{"$set": bson.M{
				"name":               i.Name,
				"quantity":           i.Quantity,
				"price":              i.Price,
				"last_operation":     i.LastOperation,
				"last_operation_qty": i.LastOperationQty,
				"revision":           i.Revision,
				"updated_at":         i.UpdatedAt,
			}},
		)
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return ErrNoDocumentsModified
		}

		tr, err := db.Collection(CollectionTransactions).InsertOne(sc, t)
		if err != nil {
			return err
		}
		t.ID = tr.InsertedID.(primitive.ObjectID)
		return nil
	})
	if err != nil {
		return i, t, errors.Wrapf(err, "error updating Item with ID: %s at revision: %d", i.ID.Hex(), readRevision)
	}
	return i, t, nil
}

// ItemUpdate writes the Item without a paired ledger row, for inline edits
// that leave the quantity untouched. Still revision-guarded.
func (db Database) ItemUpdate(ctx context.Context, i model.Item) (model.Item, error) {
	readRevision := i.Revision
	i.Revision++
	i.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	res, err := db.Collection(CollectionItems).UpdateOne(
		ctx,
		bson.M{"_id": i.ID, "revision": readRevision},
		bson.M{"$set": bson.M{
			"price":      i.Price,
			"revision":   i.Revision,
			"updated_at": i.UpdatedAt,
		}},
	)
	if err != nil {
		return i, errors.Wrapf(err, "error updating Item with ID: %s at revision: %d", i.ID.Hex(), readRevision)
	}
	if res.ModifiedCount == 0 {
		return i, errors.Wrapf(ErrNoDocumentsModified, "no Item modified when updating Item with ID: %s at revision: %d", i.ID.Hex(), readRevision)
	}
	return i, nil
}

// ItemDeleteWithTransaction removes the Item and appends the dump
// Transaction that zeroes it, atomically and revision-guarded like updates.
func (db Database) ItemDeleteWithTransaction(
	ctx context.Context, i model.Item, t model.Transaction,
) (model.Transaction, error) {
	t.Time = primitive.NewDateTimeFromTime(time.Now())

	err := db.inTx(ctx, func(sc mongo.SessionContext) error {
		res, err := db.Collection(CollectionItems).DeleteOne(
			sc,
			bson.M{"_id": i.ID, "revision": i.Revision},
		)
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNoDocumentsModified
		}

		tr, err := db.Collection(CollectionTransactions).InsertOne(sc, t)
		if err != nil {
			return err
		}
		t.ID = tr.InsertedID.(primitive.ObjectID)
		return nil
	})
	if err != nil {
		return t, errors.Wrapf(err, "error deleting Item with ID: %s at revision: %d", i.ID.Hex(), i.Revision)
	}
	return t, nil
}

// ItemsFindPage returns up to pageSize Items for the owner in insertion
// order, optionally restricted to a name prefix, starting after the cursor.
func (db Database) ItemsFindPage(
	ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int,
) ([]model.Item, string, bool, error) {
	filter := bson.M{"owner_id": ownerID}
	if namePrefix != "" {
		filter["name"] = bson.M{"$gte": namePrefix, "$lte": namePrefix + "\uf8ff"}
	}
	if cursor != "" {
		after, err := decodeItemCursor(cursor)
		if err != nil {
			return nil, "", false, err
		}
		filter["_id"] = bson.M{"$gt": after}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(pageSize))
	cur, err := db.Collection(CollectionItems).Find(ctx, filter, opts)
	if err != nil {
		return nil, "", false, errors.Wrapf(err, "error getting cursor to find Items for OwnerID: %s", ownerID.Hex())
	}
	var is []model.Item
	if err = cur.All(ctx, &is); err != nil {
		return nil, "", false, errors.Wrapf(err, "error getting Items from cursor for OwnerID: %s", ownerID.Hex())
	}

	// A short page means the scan is exhausted; a full page may have more.
	if len(is) < pageSize {
		return is, "", false, nil
	}
	return is, encodeItemCursor(is[len(is)-1].ID), true, nil
}

func (db Database) ItemsFindAll(ctx context.Context, ownerID primitive.ObjectID) ([]model.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := db.Collection(CollectionItems).Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find all Items for OwnerID: %s", ownerID.Hex())
	}
	var is []model.Item
	if err = cur.All(ctx, &is); err != nil {
		return nil, errors.Wrapf(err, "error getting all Items from cursor for OwnerID: %s", ownerID.Hex())
	}
	return is, nil
}
