package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. The email is normalized
// to lower case before insertion; a duplicate email maps the MySQL
// 1062 duplicate-key error onto ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, display_name, role) VALUES (?,?,?,?)",
		email, hash, displayName, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	var restaurantID sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,display_name,role,restaurant_id,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &restaurantID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if restaurantID.Valid {
		rid := uint64(restaurantID.Int64)
		u.RestaurantID = &rid
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var restaurantID sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,display_name,role,restaurant_id,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &restaurantID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if restaurantID.Valid {
		rid := uint64(restaurantID.Int64)
		u.RestaurantID = &rid
	}
	return u, err
}

// UpdateRole overwrites the stored profile role for a user. It is
// used by the session resolver when the role carried in token
// metadata disagrees with the cached profile row: metadata wins and
// the profile is corrected.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", role, id)
	return err
}
