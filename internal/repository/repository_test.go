package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/movie-catalog/internal/model"
)

func TestMapMySQLError(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Inception' for key 'movies_title_unique'"}
	if err := mapMySQLError(fmt.Errorf("exec: %w", dup)); !errors.Is(err, ErrDuplicate) {
		t.Errorf("1062 mapped to %v, want ErrDuplicate", err)
	}

	other := &mysql.MySQLError{Number: 1146, Message: "Table 'movies' doesn't exist"}
	if err := mapMySQLError(other); errors.Is(err, ErrDuplicate) || err != error(other) {
		t.Errorf("1146 mapped to %v", err)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, ok)
		}
	}
}

func TestObjectID(t *testing.T) {
	oid := bson.NewObjectID()
	if got, ok := objectID(oid.Hex()); !ok || got != oid {
		t.Errorf("objectID(%q) = %v, %v", oid.Hex(), got, ok)
	}
	for _, bad := range []string{"", "42", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, ok := objectID(bad); ok {
			t.Errorf("objectID(%q) accepted", bad)
		}
	}
}

func TestMovieDocRoundTrip(t *testing.T) {
	m := model.Movie{
		Title:         "Inception",
		Description:   "A thief who steals corporate secrets.",
		Director:      "Christopher Nolan",
		ReleaseYear:   2010,
		AverageRating: 9,
		PosterURL:     "https://media.test/p",
		PosterAssetID: "p",
		VideoURL:      "https://media.test/v",
		VideoAssetID:  "v",
	}
	doc := toMovieDoc(m)
	if doc.Genre == nil || doc.Cast == nil {
		t.Error("nil lists must be stored as empty arrays")
	}
	doc.ID = bson.NewObjectID()
	back := doc.model()
	if back.ID != doc.ID.Hex() || back.Title != m.Title || back.VideoAssetID != "v" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestEncodeLists(t *testing.T) {
	genres, cast, err := encodeLists(model.Movie{Genre: []string{"Sci-Fi", "Action"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(genres) != `["Sci-Fi","Action"]` || string(cast) != `[]` {
		t.Errorf("genres=%s cast=%s", genres, cast)
	}
}

type rowsResult struct {
	n   int64
	err error
}

func (r rowsResult) LastInsertId() (int64, error) { return 0, nil }
func (r rowsResult) RowsAffected() (int64, error) { return r.n, r.err }

func TestDeletedResult(t *testing.T) {
	driverErr := errors.New("driver: bad connection")
	tests := []struct {
		name string
		res  rowsResult
		want error
	}{
		{"one row", rowsResult{n: 1}, nil},
		{"no rows", rowsResult{n: 0}, ErrMovieNotFound},
		{"driver error", rowsResult{err: driverErr}, driverErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := deleted(tt.res, ErrMovieNotFound)
			if tt.want == nil && err != nil || tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("deleted() = %v, want %v", err, tt.want)
			}
			if errors.Is(tt.want, driverErr) && errors.Is(err, ErrMovieNotFound) {
				t.Errorf("driver error reported as not found")
			}
		})
	}
}
