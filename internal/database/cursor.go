package database

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cursor tokens are opaque to callers: base64 of a collection-tagged
// position in the listing order. The tag stops a token minted for one
// collection being replayed against the other.
const (
	cursorTagItem        = "item"
	cursorTagTransaction = "txn"
)

var ErrInvalidCursor = errors.New("invalid cursor")

func encodeItemCursor(id primitive.ObjectID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorTagItem + ":" + id.Hex()))
}

func decodeItemCursor(token string) (primitive.ObjectID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "error decoding cursor: %v", err)
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] != cursorTagItem {
		return primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "unexpected cursor content: %s", raw)
	}
	id, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "error decoding cursor position: %v", err)
	}
	return id, nil
}

func encodeTransactionCursor(t primitive.DateTime, id primitive.ObjectID) string {
	pos := cursorTagTransaction + ":" + strconv.FormatInt(int64(t), 10) + ":" + id.Hex()
	return base64.RawURLEncoding.EncodeToString([]byte(pos))
}

func decodeTransactionCursor(token string) (primitive.DateTime, primitive.ObjectID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "error decoding cursor: %v", err)
	}
	parts := strings.SplitN(string(raw), ":", 3)
	if len(parts) != 3 || parts[0] != cursorTagTransaction {
		return 0, primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "unexpected cursor content: %s", raw)
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "error decoding cursor time: %v", err)
	}
	id, err := primitive.ObjectIDFromHex(parts[2])
	if err != nil {
		return 0, primitive.NilObjectID, errors.Wrapf(ErrInvalidCursor, "error decoding cursor position: %v", err)
	}
	return primitive.DateTime(ms), id, nil
}
