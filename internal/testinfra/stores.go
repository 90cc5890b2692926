// Package testinfra provides in-memory stand-ins for the stores, the media
// host and the orphan publisher.  Every fake records its calls so tests can
// assert which side effects happened.
package testinfra

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/repository"
)

// UserStore is an in-memory repository.UserStore.  Setting Err makes every
// call fail with it.
type UserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]model.User
	Err    error
}

func NewUserStore(seed ...model.User) *UserStore {
	s := &UserStore{users: map[string]model.User{}}
	for _, u := range seed {
		_ = s.Create(context.Background(), &u)
	}
	return s
}

func (s *UserStore) List(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.Username == username })
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.usernameTaken(u.Username, "") {
		return repository.ErrDuplicate
	}
	s.nextID++
	u.ID = strconv.Itoa(s.nextID)
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) Update(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	if _, ok := s.users[u.ID]; !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	if s.usernameTaken(u.Username, u.ID) {
		return model.User{}, repository.ErrDuplicate
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *UserStore) find(match func(model.User) bool) (model.User, error) {
	list, err := s.List(context.Background())
	if err != nil {
		return model.User{}, err
	}
	for _, u := range list {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *UserStore) usernameTaken(name, except string) bool {
	for id, u := range s.users {
		if id != except && u.Username == name {
			return true
		}
	}
	return false
}

// MovieStore is an in-memory repository.MovieStore.  The *Err fields make
// the matching call fail.
type MovieStore struct {
	mu     sync.Mutex
	nextID int
	movies map[string]model.Movie

	ListErr   error
	GetErr    error
	FindErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	Creates int
	Updates int
	Deletes int

	// Now stamps created_at and updated_at; defaults to time.Now.
	Now func() time.Time
}

func NewMovieStore(seed ...model.Movie) *MovieStore {
	s := &MovieStore{movies: map[string]model.Movie{}, Now: time.Now}
	for _, m := range seed {
		s.nextID++
		if m.ID == "" {
			m.ID = strconv.Itoa(s.nextID)
		}
		s.movies[m.ID] = m.Clone()
	}
	return s
}

// Len returns the number of stored movies.
func (s *MovieStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movies)
}

func (s *MovieStore) List(context.Context) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]model.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

func (s *MovieStore) GetByID(_ context.Context, id string) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return model.Movie{}, s.GetErr
	}
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return m.Clone(), nil
}

func (s *MovieStore) FindByTitle(_ context.Context, title string) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return model.Movie{}, s.FindErr
	}
	for _, m := range s.movies {
		if m.Title == title {
			return m.Clone(), nil
		}
	}
	return model.Movie{}, repository.ErrMovieNotFound
}

func (s *MovieStore) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if s.titleTaken(m.Title, "") {
		return repository.ErrDuplicate
	}
	s.Creates++
	s.nextID++
	now := s.Now()
	m.ID = strconv.Itoa(s.nextID)
	m.CreatedAt, m.UpdatedAt = now, now
	s.movies[m.ID] = m.Clone()
	return nil
}

func (s *MovieStore) Update(_ context.Context, m model.Movie) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return model.Movie{}, s.UpdateErr
	}
	old, ok := s.movies[m.ID]
	if !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	if s.titleTaken(m.Title, m.ID) {
		return model.Movie{}, repository.ErrDuplicate
	}
	s.Updates++
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = s.Now()
	s.movies[m.ID] = m.Clone()
	return m.Clone(), nil
}

func (s *MovieStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	s.Deletes++
	delete(s.movies, id)
	return nil
}

func (s *MovieStore) titleTaken(title, except string) bool {
	for id, m := range s.movies {
		if id != except && m.Title == title {
			return true
		}
	}
	return false
}

func idLess(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}
