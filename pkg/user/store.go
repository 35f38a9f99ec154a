package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openlabshq/rangeapi/internal/db"
)

// Store provides database operations for users. Grounded on the teacher's
// pkg/incident/store.go column-list + scan-helper pattern.
type Store struct {
	dbtx db.DBTX
}

// NewStore creates a user Store backed by the given database connection.
func NewStore(dbtx db.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const userColumns = `id, email, name, password_hash, key_salt, public_key, encrypted_private_key, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.KeySalt,
		&u.PublicKey, &u.EncryptedPrivateKey, &u.IsAdmin, &createdAt, &updatedAt,
	)
	u.CreatedAt, u.UpdatedAt = createdAt, updatedAt
	return u, err
}

// CreateParams holds the fields required to insert a new user.
type CreateParams struct {
	Email               string
	Name                string
	PasswordHash        string
	KeySalt             []byte
	PublicKey           []byte
	EncryptedPrivateKey []byte
	IsAdmin             bool
}

// Create inserts a new user. Returns a unique-violation-flavored error if
// the email is already registered; callers translate that to 409 (§6).
func (s *Store) Create(ctx context.Context, p CreateParams) (User, error) {
	query := `INSERT INTO users (id, email, name, password_hash, key_salt, public_key, encrypted_private_key, is_admin)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + userColumns
	row := s.dbtx.QueryRow(ctx, query,
		uuid.New(), p.Email, p.Name, p.PasswordHash, p.KeySalt, p.PublicKey, p.EncryptedPrivateKey, p.IsAdmin,
	)
	return scanUser(row)
}

// GetByEmail returns a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	row := s.dbtx.QueryRow(ctx, query, email)
	return scanUser(row)
}

// Get returns a user by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := s.dbtx.QueryRow(ctx, query, id)
	return scanUser(row)
}

// ExistsByEmail reports whether a user with the given email is already
// registered (§6: POST /auth/register returns 409 on duplicate).
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.dbtx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking existing user: %w", err)
	}
	return exists, nil
}

// SetAdmin grants or revokes admin privileges for a user. Used only by the
// admin-bootstrap seed step; there is no HTTP endpoint for this.
func (s *Store) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1`, id, isAdmin)
	if err != nil {
		return fmt.Errorf("updating admin flag: %w", err)
	}
	return nil
}
