package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stockledger/internal/model"
)

func (db Database) UserInsert(ctx context.Context, u model.User) (id string, err error) {
	u.LoginTokens = []model.LoginToken{}
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with email: %s", u.Email)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with email: %s", email)
}

func (db Database) UserFindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return u, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	err = db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", id)
}

// UserLoginTokenAdd appends a login token hash and drops any token that has
// already expired while it is there.
func (db Database) UserLoginTokenAdd(ctx context.Context, userID string, lt model.LoginToken) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	_, err = db.Collection(CollectionUsers).UpdateByID(ctx, objID, bson.M{
		"$pull": bson.M{"login_tokens": bson.M{"expiration": bson.M{"$lt": now}}},
		"$set":  bson.M{"updated_at": now},
	})
	if err != nil {
		return errors.Wrapf(err, "error pruning expired LoginTokens for UserID: %s", userID)
	}

	res, err := db.Collection(CollectionUsers).UpdateByID(ctx, objID, bson.M{
		"$push": bson.M{"login_tokens": lt},
		"$set":  bson.M{"updated_at": now},
	})
	if err != nil {
		return errors.Wrapf(err, "error adding LoginToken for UserID: %s", userID)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "no User modified when adding LoginToken for UserID: %s", userID)
	}
	return nil
}

func (db Database) UserLoginTokenRemove(ctx context.Context, userID string, tokenID string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}
	res, err := db.Collection(CollectionUsers).UpdateByID(ctx, objID, bson.M{
		"$pull": bson.M{"login_tokens": bson.M{"token_id": tokenID}},
		"$set":  bson.M{"updated_at": primitive.NewDateTimeFromTime(time.Now())},
	})
	if err != nil {
		return errors.Wrapf(err, "error removing LoginToken with TokenID: %s for UserID: %s", tokenID, userID)
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "no User modified when removing LoginToken with TokenID: %s for UserID: %s", tokenID, userID)
	}
	return nil
}
