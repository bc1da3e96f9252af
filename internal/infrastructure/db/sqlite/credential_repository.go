package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

// CredentialRepository stores password hashes for the local identity provider.
type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(d *DB) *CredentialRepository {
	return &CredentialRepository{db: d.sqlDB}
}

func (r *CredentialRepository) Create(ctx context.Context, cred *ports.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (email, user_id, full_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		normalizeEmail(cred.Email), cred.UserID, cred.FullName, cred.PasswordHash, toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*ports.Credential, error) {
	var c ports.Credential
	err := r.db.QueryRowContext(ctx,
		`SELECT email, user_id, full_name, password_hash FROM credentials WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&c.Email, &c.UserID, &c.FullName, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &c, nil
}
