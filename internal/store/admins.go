package store

import (
	"context"
	"fmt"
	"strings"
)

// CreateAdmin inserts an admin account. A taken email returns ErrDuplicate.
func (s *Store) CreateAdmin(ctx context.Context, email, passwordHash string) (Admin, error) {
	admin := Admin{
		ID:           newID(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	_, err := s.exec(ctx, s.db,
		`INSERT INTO admins(id, email, password_hash, created_at) VALUES(?, ?, ?, ?)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Admin{}, ErrDuplicate
		}
		return Admin{}, fmt.Errorf("insert admin: %w", err)
	}
	return admin, nil
}

func (s *Store) AdminByEmail(ctx context.Context, email string) (Admin, error) {
	return s.scanAdmin(s.queryRow(ctx, s.db,
		`SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) AdminByID(ctx context.Context, id string) (Admin, error) {
	return s.scanAdmin(s.queryRow(ctx, s.db,
		`SELECT id, email, password_hash, created_at FROM admins WHERE id = ?`, id))
}

func (s *Store) scanAdmin(row rowScanner) (Admin, error) {
	var a Admin
	var created timestamp
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &created); err != nil {
		return Admin{}, notFound(err)
	}
	a.CreatedAt = created.Time
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
