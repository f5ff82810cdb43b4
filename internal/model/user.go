package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User owns a partition of Items and Transactions. Its ObjectID is the
// ownerID every ledger operation is scoped to.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Password    []byte             `bson:"password"`
	LoginTokens []LoginToken       `bson:"login_tokens"`
	CreatedAt   primitive.DateTime `bson:"created_at"`
	UpdatedAt   primitive.DateTime `bson:"updated_at"`
}

// LoginToken stores a bcrypt hash of the SHA-256 of an issued JWT, keyed by
// the token's JTI. The raw token is never persisted.
type LoginToken struct {
	TokenID    string             `bson:"token_id"`
	Token      []byte             `bson:"token"`
	Expiration primitive.DateTime `bson:"expiration"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
}
