package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// UserRepo is the MySQL UserStore over the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, address"

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	n, ok := parseID(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", n)
}

// FindByUsername fetches a user by exact username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// FindByEmail fetches the first user with the given email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? ORDER BY id LIMIT 1", email)
}

// Create inserts u and sets its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, address) VALUES (?,?,?)",
		u.Username, u.Email, u.Address)
	if err != nil {
		return mapMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = strconv.FormatInt(id, 10)
	return nil
}

// Update replaces username, email and address and returns the stored row.
// MySQL reports zero affected rows for an unchanged row, so existence is
// decided by the follow-up SELECT.
func (r *UserRepo) Update(ctx context.Context, u model.User) (model.User, error) {
	n, ok := parseID(u.ID)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, email=?, address=? WHERE id=?",
		u.Username, u.Email, u.Address, n); err != nil {
		return model.User{}, mapMySQLError(err)
	}
	return r.GetByID(ctx, u.ID)
}

// Delete removes a user by id.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	n, ok := parseID(id)
	if !ok {
		return ErrUserNotFound
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", n)
	if err != nil {
		return err
	}
	return deleted(res, ErrUserNotFound)
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u  model.User
		id uint64
	)
	if err := s.Scan(&id, &u.Username, &u.Email, &u.Address); err != nil {
		return model.User{}, err
	}
	u.ID = strconv.FormatUint(id, 10)
	return u, nil
}

// parseID converts a path id into a MySQL primary key.
func parseID(id string) (uint64, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// deleted maps a DELETE result to notFound when no row matched.
func deleted(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
