package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/agrolink/farm-marketplace/internal/model"
	"github.com/agrolink/farm-marketplace/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. The password is hashed
// here so callers never handle the digest themselves.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role, address, phone string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, address, phone) VALUES (?,?,?,?,?,?)",
		name, email, hash, role, address, phone)
	if err != nil {
		// 1062 = MySQL duplicate entry, raised by the unique email key
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
	var pic sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,address,phone,profile_pic,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Address, &u.Phone, &pic, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if pic.Valid {
		p := pic.String
		u.ProfilePic = &p
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var pic sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,address,phone,profile_pic,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Address, &u.Phone, &pic, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if pic.Valid {
		p := pic.String
		u.ProfilePic = &p
	}
	return u, err
}

// UpdateProfile patches the mutable display fields. Nil values leave
// the stored column unchanged; the role and email are immutable.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, profilePic *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=COALESCE(?,name), profile_pic=COALESCE(?,profile_pic) WHERE id=?",
		name, profilePic, id)
	return err
}
