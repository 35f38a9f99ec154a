package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlabshq/rangeapi/pkg/jobqueue"
)

// Store persists Job Records against the jobs table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a job Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const recordColumns = `queue_job_id, name, owner_id, deployed_range_id, status, detail, submitted_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.QueueJobID, &rec.Name, &rec.OwnerID, &rec.DeployedRangeID, &rec.Status, &rec.Detail, &rec.SubmittedAt, &rec.UpdatedAt)
	return rec, err
}

// Insert persists a new Job Record (§4.5 step 6). Callers must log, not
// fail the HTTP response, if this returns an error — PersistenceDegraded
// is a detail flag, not an aborted request.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (queue_job_id, name, owner_id, deployed_range_id, status, detail) VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.QueueJobID, rec.Name, rec.OwnerID, rec.DeployedRangeID, rec.Status, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting job record: %w", err)
	}
	return nil
}

// UpdateStatus transitions a Job Record's status/detail and optionally
// attaches the Deployed Range id once the worker knows it.
func (s *Store) UpdateStatus(ctx context.Context, queueJobID string, status jobqueue.Status, detail string, deployedRangeID *uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, detail = $3, deployed_range_id = COALESCE($4, deployed_range_id), updated_at = now() WHERE queue_job_id = $1`,
		queueJobID, status, detail, deployedRangeID,
	)
	if err != nil {
		return fmt.Errorf("updating job record: %w", err)
	}
	return nil
}

// Get returns a Job Record by queue job id.
func (s *Store) Get(ctx context.Context, queueJobID string) (Record, error) {
	return scanRecord(s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM jobs WHERE queue_job_id = $1`, queueJobID))
}
