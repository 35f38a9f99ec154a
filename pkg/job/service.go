package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/deployedrange"
	"github.com/openlabshq/rangeapi/pkg/jobqueue"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
	"github.com/openlabshq/rangeapi/pkg/user"
)

// noCredentialsDetail renders §8's pinned detail string, e.g. "No
// credentials found for provider: aws".
func noCredentialsDetail(p blueprint.Provider) string {
	return fmt.Sprintf("No credentials found for provider: %s", strings.ToLower(string(p)))
}

// Coordinator runs the synchronous admission checks of §4.5, then
// enqueues and records deploy/destroy intents.
type Coordinator struct {
	queue          *jobqueue.Queue
	jobStore       *Store
	blueprintStore *blueprint.Store
	rangeStore     *deployedrange.Store
	vault          *secretvault.Service
	users          *user.Service
	logger         *slog.Logger
}

// NewCoordinator creates a Job Coordinator.
func NewCoordinator(queue *jobqueue.Queue, jobStore *Store, blueprintStore *blueprint.Store, rangeStore *deployedrange.Store, vault *secretvault.Service, users *user.Service, logger *slog.Logger) *Coordinator {
	return &Coordinator{queue: queue, jobStore: jobStore, blueprintStore: blueprintStore, rangeStore: rangeStore, vault: vault, users: users, logger: logger}
}

// Deploy runs the admission checks of §4.5 steps 1-4, enqueues a
// deploy_range job, and inserts its Job Record.
func (c *Coordinator) Deploy(ctx context.Context, identity *auth.Identity, masterKey []byte, req DeployRequest) (EnqueueResponse, error) {
	var owner *uuid.UUID
	if !identity.IsAdmin {
		owner = &identity.UserID
	}
	bp, err := c.blueprintStore.GetRange(ctx, req.BlueprintID, owner)
	if err != nil {
		return EnqueueResponse{}, apperr.New(apperr.KindNotFound, "blueprint not found")
	}

	bundle, err := c.decryptedSecrets(ctx, identity.UserID, masterKey)
	if err != nil {
		return EnqueueResponse{}, err
	}
	if !bundle.HasProvider(string(bp.Provider)) {
		return EnqueueResponse{}, apperr.New(apperr.KindNoCredentials, noCredentialsDetail(bp.Provider))
	}

	args := jobqueue.DeployArgs{
		EncKey:      masterKey,
		BlueprintID: req.BlueprintID,
		RangeName:   req.Name,
		Region:      req.Region,
		Description: req.Description,
		OwnerID:     identity.UserID,
	}
	queueID, err := c.queue.Enqueue(ctx, jobqueue.JobDeployRange, args)
	if err != nil {
		return EnqueueResponse{}, err
	}

	detail := c.saveRecord(ctx, queueID, jobqueue.JobDeployRange, identity.UserID, nil)
	return EnqueueResponse{ArqJobID: queueID, Detail: detail}, nil
}

// Destroy mirrors Deploy for a destroy_range intent against an existing
// Deployed Range (§4.5: "Destroy is symmetric").
func (c *Coordinator) Destroy(ctx context.Context, identity *auth.Identity, masterKey []byte, deployedRangeID uuid.UUID) (EnqueueResponse, error) {
	var owner *uuid.UUID
	if !identity.IsAdmin {
		owner = &identity.UserID
	}
	rng, err := c.rangeStore.Get(ctx, deployedRangeID, owner)
	if err != nil {
		return EnqueueResponse{}, apperr.New(apperr.KindNotFound, "deployed range not found")
	}

	bundle, err := c.decryptedSecrets(ctx, identity.UserID, masterKey)
	if err != nil {
		return EnqueueResponse{}, err
	}
	if !bundle.HasProvider(string(rng.Provider)) {
		return EnqueueResponse{}, apperr.New(apperr.KindNoCredentials, noCredentialsDetail(rng.Provider))
	}

	args := jobqueue.DestroyArgs{
		EncKey:          masterKey,
		DeployedRangeID: deployedRangeID,
		OwnerID:         identity.UserID,
	}
	queueID, err := c.queue.Enqueue(ctx, jobqueue.JobDestroyRange, args)
	if err != nil {
		return EnqueueResponse{}, err
	}

	detail := c.saveRecord(ctx, queueID, jobqueue.JobDestroyRange, identity.UserID, &deployedRangeID)
	return EnqueueResponse{ArqJobID: queueID, Detail: detail}, nil
}

// Status consults the queue for live status, falling back to the Job
// Record's persisted status if the queue entry has expired (§4.5: "Status
// lookup ... consults the queue; if the queue has a result, return it;
// else return queue-side job metadata plus live status").
func (c *Coordinator) Status(ctx context.Context, queueJobID string) (StatusResponse, error) {
	j, err := c.queue.Get(ctx, queueJobID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return StatusResponse{}, err
		}
		rec, recErr := c.jobStore.Get(ctx, queueJobID)
		if recErr != nil {
			return StatusResponse{}, apperr.New(apperr.KindNotFound, "job not found")
		}
		return StatusResponse{Status: rec.Status, Detail: rec.Detail, EnqueueTime: rec.SubmittedAt}, nil
	}

	var result any
	if len(j.Result) > 0 {
		result = j.Result
	}
	return StatusResponse{Status: j.Status, Result: result, Detail: j.Detail, EnqueueTime: j.EnqueuedAt}, nil
}

func (c *Coordinator) decryptedSecrets(ctx context.Context, userID uuid.UUID, masterKey []byte) (*secretvault.SecretBundle, error) {
	u, err := c.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	km := secretvault.KeyMaterial{EncryptedPrivateKey: u.EncryptedPrivateKey, KeySalt: u.KeySalt}
	return c.vault.GetDecryptedSecrets(ctx, userID, km, masterKey)
}

// saveRecord inserts the Job Record; a failure is logged, not surfaced,
// per §4.5 step 6 — the caller keeps the queue id regardless.
func (c *Coordinator) saveRecord(ctx context.Context, queueJobID, name string, ownerID uuid.UUID, deployedRangeID *uuid.UUID) string {
	rec := &Record{
		QueueJobID:      queueJobID,
		Name:            name,
		OwnerID:         ownerID,
		DeployedRangeID: deployedRangeID,
		Status:          jobqueue.StatusQueued,
	}
	if err := c.jobStore.Insert(ctx, rec); err != nil {
		c.logger.Error("job record insert failed", "queue_job_id", queueJobID, "error", err)
		return DBSaveFailure
	}
	return DBSaveSuccess
}
