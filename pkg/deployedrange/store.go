package deployedrange

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists Deployed Range rows, grounded on the same
// columns-constant/scan-helper shape as pkg/blueprint's Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a deployedrange Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const rangeColumns = `id, owner_id, blueprint_range_id, name, provider, region, vnc, vpn, topology_snapshot, provider_resource_ids, state_blob, encrypted_private_ssh_key, state, deployed_at, created_at, updated_at`

func scanRange(row pgx.Row) (Range, error) {
	var r Range
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.BlueprintRangeID, &r.Name, &r.Provider, &r.Region, &r.VNC, &r.VPN,
		&r.TopologySnapshot, &r.ProviderResourceIDs, &r.StateBlob, &r.EncryptedPrivateSSHKey,
		&r.State, &r.DeployedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create inserts a new Deployed Range row, keyed by the deterministic id
// derived by the worker (§4.5/§9). A retry delivering the same id is an
// upsert no-op that leaves the existing row untouched, so double
// provisioning never double-inserts.
func (s *Store) Create(ctx context.Context, r *Range) (Range, error) {
	created, err := scanRange(s.pool.QueryRow(ctx,
		`INSERT INTO deployed_ranges (id, owner_id, blueprint_range_id, name, provider, region, vnc, vpn, topology_snapshot, provider_resource_ids, state_blob, encrypted_private_ssh_key, state, deployed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 ON CONFLICT (id) DO NOTHING
		 RETURNING `+rangeColumns,
		r.ID, r.OwnerID, r.BlueprintRangeID, r.Name, r.Provider, r.Region, r.VNC, r.VPN,
		r.TopologySnapshot, r.ProviderResourceIDs, r.StateBlob, r.EncryptedPrivateSSHKey,
		r.State, r.DeployedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict hit the DO NOTHING branch: row already exists from a
			// prior delivery of the same job. Return what's there.
			return s.Get(ctx, r.ID, nil)
		}
		return Range{}, fmt.Errorf("inserting deployed range: %w", err)
	}
	return created, nil
}

// UpdateState transitions a row's state and persists whichever of
// state_blob/provider_resource_ids/encrypted key are non-nil, keeping the
// stored value for each nil one; deployed_at is set when state is ON.
func (s *Store) UpdateState(ctx context.Context, id uuid.UUID, state State, stateBlob []byte, providerResourceIDs []byte, encryptedKey []byte) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE deployed_ranges
		 SET state = $2, state_blob = COALESCE($3, state_blob), provider_resource_ids = COALESCE($4, provider_resource_ids),
		     encrypted_private_ssh_key = COALESCE($5, encrypted_private_ssh_key),
		     deployed_at = CASE WHEN $2 = 'ON' THEN now() ELSE deployed_at END,
		     updated_at = now()
		 WHERE id = $1`,
		id, state, stateBlob, providerResourceIDs, encryptedKey,
	)
	if err != nil {
		return fmt.Errorf("updating deployed range state: %w", err)
	}
	return nil
}

// Get returns a Deployed Range by id. If owner is non-nil, the row must
// belong to that owner (§7: Forbidden surfaces as NotFound).
func (s *Store) Get(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (Range, error) {
	query := `SELECT ` + rangeColumns + ` FROM deployed_ranges WHERE id = $1`
	args := []any{id}
	if owner != nil {
		query += ` AND owner_id = $2`
		args = append(args, *owner)
	}
	return scanRange(s.pool.QueryRow(ctx, query, args...))
}

// ListHeaders returns range rows for GET /ranges (§6), scoped to owner
// unless includeAll (admin).
func (s *Store) ListHeaders(ctx context.Context, owner *uuid.UUID, includeAll bool) ([]Range, error) {
	query := `SELECT ` + rangeColumns + ` FROM deployed_ranges`
	var args []any
	if owner != nil && !includeAll {
		query += ` WHERE owner_id = $1`
		args = append(args, *owner)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing deployed ranges: %w", err)
	}
	defer rows.Close()

	var out []Range
	for rows.Next() {
		r, err := scanRange(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning deployed range: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a Deployed Range row (used once destroy completes).
func (s *Store) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (bool, error) {
	query := `DELETE FROM deployed_ranges WHERE id = $1`
	args := []any{id}
	if owner != nil {
		query += ` AND owner_id = $2`
		args = append(args, *owner)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting deployed range: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
