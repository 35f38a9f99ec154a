package secretvault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openlabshq/rangeapi/internal/db"
)

// Record is a single opaque secret record: one user, one provider.
// Grounded on the incident/store.go column-list + scan-helper pattern.
type Record struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Provider   string
	Ciphertext []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists Secret Records.
type Store struct {
	dbtx db.DBTX
}

// NewStore creates a secret record Store.
func NewStore(dbtx db.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const recordColumns = `id, user_id, provider, ciphertext, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.Provider, &r.Ciphertext, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Upsert creates or replaces the secret record for (userID, provider).
func (s *Store) Upsert(ctx context.Context, userID uuid.UUID, provider string, ciphertext []byte) (Record, error) {
	query := `INSERT INTO secret_records (id, user_id, provider, ciphertext)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, provider) DO UPDATE SET ciphertext = $4, updated_at = now()
	RETURNING ` + recordColumns
	row := s.dbtx.QueryRow(ctx, query, uuid.New(), userID, provider, ciphertext)
	return scanRecord(row)
}

// ListForUser returns all secret records belonging to a user.
func (s *Store) ListForUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM secret_records WHERE user_id = $1`
	rows, err := s.dbtx.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing secret records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning secret record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
