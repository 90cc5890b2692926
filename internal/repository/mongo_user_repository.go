package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/iliyamo/movie-catalog/internal/model"
)

type userDoc struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	Username string        `bson:"username"`
	Email    string        `bson:"email"`
	Address  string        `bson:"address"`
}

func (d userDoc) model() model.User {
	return model.User{ID: d.ID.Hex(), Username: d.Username, Email: d.Email, Address: d.Address}
}

// MongoUserRepo is the MongoDB UserStore over the "users" collection.
type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(usersCollection)}
}

func (r *MongoUserRepo) List(ctx context.Context) ([]model.User, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, byIDAscending)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoUserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoUserRepo) Create(ctx context.Context, u *model.User) error {
	doc := userDoc{ID: bson.NewObjectID(), Username: u.Username, Email: u.Email, Address: u.Address}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *MongoUserRepo) Update(ctx context.Context, u model.User) (model.User, error) {
	oid, ok := objectID(u.ID)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	doc := userDoc{ID: oid, Username: u.Username, Email: u.Email, Address: u.Address}
	var out userDoc
	err := r.coll.FindOneAndReplace(ctx, bson.D{{Key: "_id", Value: oid}}, doc, returnAfter).Decode(&out)
	if isNoDocuments(err) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, mapMongoError(err)
	}
	return out.model(), nil
}

func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return ErrUserNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.D) (model.User, error) {
	var d userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&d)
	if isNoDocuments(err) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return d.model(), nil
}
