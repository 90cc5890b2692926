package validation

import (
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// UserPayload is the body of POST /api/users/create.
type UserPayload struct {
	Username string `json:"username" validate:"required,min=3,max=25"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required,notblank"`
}

// Normalize trims surrounding whitespace from every field.
func (p *UserPayload) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
}

// User converts a validated payload into a record without an id.
func (p UserPayload) User() model.User {
	return model.User{Username: p.Username, Email: p.Email, Address: p.Address}
}

// UserPatch is the body of PUT /api/users/update/:id.  Absent fields keep
// their stored value.
type UserPatch struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=25"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Address  *string `json:"address" validate:"omitnil,notblank"`
}

// Normalize trims surrounding whitespace from the present fields.  Call it
// before validating so length rules apply to the value that gets stored.
func (p *UserPatch) Normalize() {
	for _, f := range []*string{p.Username, p.Email, p.Address} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// Apply returns u with the patch's present fields replaced.
func (p UserPatch) Apply(u model.User) model.User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	return u
}

// MovieFields are the non-file fields of a movie create or update form.
type MovieFields struct {
	Title         string   `json:"title" validate:"required,notblank,max=100"`
	Description   string   `json:"description" validate:"required,min=10,max=500"`
	Genre         []string `json:"genre" validate:"required,min=1,max=5,dive,notblank"`
	Cast          []string `json:"cast" validate:"required,min=1,max=10,dive,notblank"`
	Director      string   `json:"director" validate:"required,notblank,max=50"`
	ReleaseYear   int      `json:"release_year" validate:"required,gte=1900,releaseyear"`
	AverageRating float64  `json:"average_rating" validate:"gte=0,lte=10"`
}

// FieldsFromMovie extracts the editable fields of a stored movie.
func FieldsFromMovie(m model.Movie) MovieFields {
	return MovieFields{
		Title:         m.Title,
		Description:   m.Description,
		Genre:         append([]string(nil), m.Genre...),
		Cast:          append([]string(nil), m.Cast...),
		Director:      m.Director,
		ReleaseYear:   m.ReleaseYear,
		AverageRating: m.AverageRating,
	}
}

// ApplyTo copies the fields onto m, leaving ids, media and timestamps alone.
func (f MovieFields) ApplyTo(m *model.Movie) {
	m.Title = f.Title
	m.Description = f.Description
	m.Genre = append([]string(nil), f.Genre...)
	m.Cast = append([]string(nil), f.Cast...)
	m.Director = f.Director
	m.ReleaseYear = f.ReleaseYear
	m.AverageRating = f.AverageRating
}

// mediaRefs is the persisted media part of a movie record.
type mediaRefs struct {
	PosterURL     string `json:"poster_url" validate:"required,url"`
	PosterAssetID string `json:"poster_asset_id" validate:"required"`
	VideoURL      string `json:"video_url" validate:"required,url"`
	VideoAssetID  string `json:"video_asset_id" validate:"required"`
}

// ValidateMovie validates a complete record just before it is persisted,
// including the media URLs and asset ids returned by the media host.
func ValidateMovie(m model.Movie) *RequestValidationError {
	out := &RequestValidationError{}
	out.Merge(ValidateStruct(FieldsFromMovie(m)))
	out.Merge(ValidateStruct(mediaRefs{
		PosterURL:     m.PosterURL,
		PosterAssetID: m.PosterAssetID,
		VideoURL:      m.VideoURL,
		VideoAssetID:  m.VideoAssetID,
	}))
	if out.Empty() {
		return nil
	}
	return out
}

// ParseMovieForm decodes the multipart form values onto base and validates
// the result.  Only keys present in values overwrite base, so an update
// passes the stored fields as base and a create passes the zero value.
//
// genre and cast are accepted as a JSON-encoded array, as repeated form
// values, or as a single plain value.  A missing or empty average_rating
// keeps base's value (zero on create).
func ParseMovieForm(values url.Values, base MovieFields) (MovieFields, *RequestValidationError) {
	out := base
	parseErrs := &RequestValidationError{}

	if v, ok := first(values, "title"); ok {
		out.Title = strings.TrimSpace(v)
	}
	if v, ok := first(values, "description"); ok {
		out.Description = strings.TrimSpace(v)
	}
	if v, ok := first(values, "director"); ok {
		out.Director = strings.TrimSpace(v)
	}
	if v, ok := first(values, "release_year"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			parseErrs.Add("release_year", "int", "release_year must be an integer")
		} else {
			out.ReleaseYear = n
		}
	}
	if v, ok := first(values, "average_rating"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			parseErrs.Add("average_rating", "number", "average_rating must be a number")
		} else {
			out.AverageRating = f
		}
	}
	for _, field := range []struct {
		key string
		dst *[]string
	}{{"genre", &out.Genre}, {"cast", &out.Cast}} {
		raw, ok := values[field.key]
		if !ok {
			continue
		}
		list, err := decodeList(raw)
		if err != nil {
			parseErrs.Add(field.key, "json", field.key+" must be a JSON array of strings")
			continue
		}
		*field.dst = list
	}

	parseErrs.Merge(ValidateStruct(out))
	if parseErrs.Empty() {
		return out, nil
	}
	return out, parseErrs
}

func first(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func decodeList(raw []string) ([]string, error) {
	if len(raw) == 1 {
		s := strings.TrimSpace(raw[0])
		if strings.HasPrefix(s, "[") {
			var list []string
			if err := json.Unmarshal([]byte(s), &list); err != nil {
				return nil, err
			}
			return trimAll(list), nil
		}
		if s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}
	return trimAll(raw), nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
