package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	usersCollection  = "users"
	moviesCollection = "movies"
)

// EnsureMongoIndexes creates the unique indexes on users.username and
// movies.title.  It is safe to call on every start.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, field := range map[string]string{
		usersCollection:  "username",
		moviesCollection: "title",
	} {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(coll + "_" + field + "_unique"),
		})
		if err != nil {
			return fmt.Errorf("ensure index %s.%s: %w", coll, field, err)
		}
	}
	return nil
}

// objectID parses a path id; malformed ids report ok=false.
func objectID(id string) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return oid, true
}

func mapMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

var byIDAscending = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

var returnAfter = options.FindOneAndReplace().SetReturnDocument(options.After)
