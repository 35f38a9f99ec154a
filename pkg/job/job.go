// Package job implements the Job Coordinator (§4.5): synchronous
// admission checks for deploy/destroy intents, the Job Record persisted
// alongside the queue-assigned id, and the worker loop that materializes
// and applies a range once its job is dequeued.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/pkg/jobqueue"
)

// Record is a persisted Job row: the database-side shadow of a queued
// job, kept so polling survives a queue restart and so PersistenceDegraded
// can be reported distinctly from QueueUnavailable (§7).
type Record struct {
	QueueJobID      string
	Name            string
	OwnerID         uuid.UUID
	DeployedRangeID *uuid.UUID
	Status          jobqueue.Status
	Detail          string
	SubmittedAt     time.Time
	UpdatedAt       time.Time
}

// DBSaveSuccess is the detail flag set on a 202 response when the Job
// Record insert succeeded (§8 scenario 4).
const DBSaveSuccess = "DB_SAVE_SUCCESS"

// DBSaveFailure is the detail flag set on a 202 response when the queue
// accepted a job but the Job Record insert failed (§4.5 step 6).
const DBSaveFailure = "DB_SAVE_FAILURE"

// DeployRequest is the JSON body for POST /ranges/deploy.
type DeployRequest struct {
	BlueprintID uuid.UUID `json:"blueprint_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Region      string    `json:"region" validate:"required"`
	Description string    `json:"description"`
}

// EnqueueResponse is the JSON body returned for both deploy and destroy
// intents (§6: "202 {arq_job_id, detail}").
type EnqueueResponse struct {
	ArqJobID string `json:"arq_job_id"`
	Detail   string `json:"detail,omitempty"`
}

// StatusResponse is the JSON body for GET /jobs/{job_id} (§6).
type StatusResponse struct {
	Status      jobqueue.Status `json:"status"`
	Result      any             `json:"result,omitempty"`
	EnqueueTime time.Time       `json:"enqueue_time"`
	Detail      string          `json:"detail,omitempty"`
}
