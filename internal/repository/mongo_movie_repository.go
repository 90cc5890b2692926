package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/iliyamo/movie-catalog/internal/model"
)

type movieDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Title         string        `bson:"title"`
	Description   string        `bson:"description"`
	Genre         []string      `bson:"genre"`
	Cast          []string      `bson:"cast"`
	Director      string        `bson:"director"`
	ReleaseYear   int           `bson:"release_year"`
	AverageRating float64       `bson:"average_rating"`
	PosterURL     string        `bson:"poster_url"`
	PosterAssetID string        `bson:"poster_asset_id"`
	VideoURL      string        `bson:"video_url"`
	VideoAssetID  string        `bson:"video_asset_id"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

func toMovieDoc(m model.Movie) movieDoc {
	return movieDoc{
		Title:         m.Title,
		Description:   m.Description,
		Genre:         nonNil(m.Genre),
		Cast:          nonNil(m.Cast),
		Director:      m.Director,
		ReleaseYear:   m.ReleaseYear,
		AverageRating: m.AverageRating,
		PosterURL:     m.PosterURL,
		PosterAssetID: m.PosterAssetID,
		VideoURL:      m.VideoURL,
		VideoAssetID:  m.VideoAssetID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (d movieDoc) model() model.Movie {
	return model.Movie{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		Genre:         d.Genre,
		Cast:          d.Cast,
		Director:      d.Director,
		ReleaseYear:   d.ReleaseYear,
		AverageRating: d.AverageRating,
		PosterURL:     d.PosterURL,
		PosterAssetID: d.PosterAssetID,
		VideoURL:      d.VideoURL,
		VideoAssetID:  d.VideoAssetID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoMovieRepo is the MongoDB MovieStore over the "movies" collection.
type MongoMovieRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoMovieRepo(db *mongo.Database) *MongoMovieRepo {
	return &MongoMovieRepo{coll: db.Collection(moviesCollection), now: time.Now}
}

func (r *MongoMovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, byIDAscending)
	if err != nil {
		return nil, err
	}
	var docs []movieDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Movie, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *MongoMovieRepo) GetByID(ctx context.Context, id string) (model.Movie, error) {
	oid, ok := objectID(id)
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoMovieRepo) FindByTitle(ctx context.Context, title string) (model.Movie, error) {
	return r.findOne(ctx, bson.D{{Key: "title", Value: title}})
}

func (r *MongoMovieRepo) Create(ctx context.Context, m *model.Movie) error {
	// Mongo stores milliseconds; truncate so the caller sees what a read returns.
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := toMovieDoc(*m)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt, doc.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err)
	}
	*m = doc.model()
	return nil
}

func (r *MongoMovieRepo) Update(ctx context.Context, m model.Movie) (model.Movie, error) {
	oid, ok := objectID(m.ID)
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	doc := toMovieDoc(m)
	doc.ID = oid
	doc.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)
	var out movieDoc
	err := r.coll.FindOneAndReplace(ctx, bson.D{{Key: "_id", Value: oid}}, doc, returnAfter).Decode(&out)
	if isNoDocuments(err) {
		return model.Movie{}, ErrMovieNotFound
	}
	if err != nil {
		return model.Movie{}, mapMongoError(err)
	}
	return out.model(), nil
}

func (r *MongoMovieRepo) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return ErrMovieNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMovieNotFound
	}
	return nil
}

func (r *MongoMovieRepo) findOne(ctx context.Context, filter bson.D) (model.Movie, error) {
	var d movieDoc
	err := r.coll.FindOne(ctx, filter).Decode(&d)
	if isNoDocuments(err) {
		return model.Movie{}, ErrMovieNotFound
	}
	if err != nil {
		return model.Movie{}, err
	}
	return d.model(), nil
}
