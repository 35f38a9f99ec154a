package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/deployedrange"
	"github.com/openlabshq/rangeapi/pkg/jobqueue"
	"github.com/openlabshq/rangeapi/pkg/provider"
	"github.com/openlabshq/rangeapi/pkg/provisioner"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
	"github.com/openlabshq/rangeapi/pkg/user"
)

// openlabsJobNamespace is the fixed namespace uuid.NewSHA1 derives
// deployed_range_id from (§4.5/§9): deployed_range_id =
// uuidv5(queue_job_id, openlabsNamespace). Fixed so the mapping from a
// given queue_job_id is stable across process restarts.
var openlabsJobNamespace = uuid.MustParse("c9c30dc2-ec81-4e02-9d6d-4a1b7f9c8e01")

// dequeueTimeout bounds each BRPOP poll so the worker loop can still
// observe context cancellation promptly.
const dequeueTimeout = 5 * time.Second

// Worker pulls jobs from the queue and drives them through
// synthesize/apply/destroy (§4.5 worker side, §5's one-worker-per-job-id
// guarantee).
type Worker struct {
	queue          *jobqueue.Queue
	jobStore       *Store
	blueprintStore *blueprint.Store
	rangeStore     *deployedrange.Store
	vault          *secretvault.Service
	users          *user.Service
	driver         *provisioner.Driver
	cdktfDir       string
	logger         *slog.Logger
	jobsCompleted  *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	rangesDeployed *prometheus.CounterVec
}

// NewWorker creates a job Worker.
func NewWorker(
	queue *jobqueue.Queue,
	jobStore *Store,
	blueprintStore *blueprint.Store,
	rangeStore *deployedrange.Store,
	vault *secretvault.Service,
	users *user.Service,
	driver *provisioner.Driver,
	cdktfDir string,
	logger *slog.Logger,
	jobsCompleted *prometheus.CounterVec,
	jobDuration *prometheus.HistogramVec,
	rangesDeployed *prometheus.CounterVec,
) *Worker {
	return &Worker{
		queue: queue, jobStore: jobStore, blueprintStore: blueprintStore, rangeStore: rangeStore,
		vault: vault, users: users, driver: driver, cdktfDir: cdktfDir, logger: logger,
		jobsCompleted: jobsCompleted, jobDuration: jobDuration, rangesDeployed: rangesDeployed,
	}
}

// Run blocks, pulling and processing jobs, until ctx is cancelled —
// grounded on the teacher's escalation engine's ctx-select loop shape.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("job worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("job worker stopped")
			return nil
		default:
		}

		j, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("dequeuing job", "error", err)
			continue
		}
		if j == nil {
			continue
		}
		w.process(ctx, j)
	}
}

func (w *Worker) process(ctx context.Context, j *jobqueue.Job) {
	start := time.Now()
	if err := w.queue.MarkInProgress(ctx, j.ID); err != nil {
		w.logger.Error("marking job in progress", "job_id", j.ID, "error", err)
	}
	_ = w.jobStore.UpdateStatus(ctx, j.ID, jobqueue.StatusInProgress, "", nil)

	var err error
	switch j.Name {
	case jobqueue.JobDeployRange:
		err = w.processDeploy(ctx, j)
	case jobqueue.JobDestroyRange:
		err = w.processDestroy(ctx, j)
	default:
		err = fmt.Errorf("unknown job name %q", j.Name)
	}

	status := jobqueue.StatusComplete
	detail := ""
	if err != nil {
		status = jobqueue.StatusFailed
		detail = detailForErr(err)
		w.logger.Error("job failed", "job_id", j.ID, "name", j.Name, "error", err)
	}

	if err != nil {
		_ = w.queue.MarkFailed(ctx, j.ID, detail)
	} else {
		_ = w.queue.MarkComplete(ctx, j.ID, map[string]string{"status": string(status)})
	}
	_ = w.jobStore.UpdateStatus(ctx, j.ID, status, detail, nil)

	if w.jobsCompleted != nil {
		w.jobsCompleted.WithLabelValues(j.Name, string(status)).Inc()
	}
	if w.jobDuration != nil {
		w.jobDuration.WithLabelValues(j.Name).Observe(time.Since(start).Seconds())
	}
}

func detailForErr(err error) string {
	if apperr.Is(err, apperr.KindSynthesisFailed) {
		return string(apperr.KindSynthesisFailed)
	}
	if apperr.Is(err, apperr.KindProvisionerFailed) {
		return string(apperr.KindProvisionerFailed)
	}
	return err.Error()
}

func (w *Worker) processDeploy(ctx context.Context, j *jobqueue.Job) error {
	var args jobqueue.DeployArgs
	if err := json.Unmarshal(j.Args, &args); err != nil {
		return fmt.Errorf("unmarshaling deploy args: %w", err)
	}

	// Re-validate ownership against the database (§4.5 worker side).
	bp, err := w.blueprintStore.GetRange(ctx, args.BlueprintID, &args.OwnerID)
	if err != nil {
		return apperr.New(apperr.KindNotFound, "blueprint no longer exists")
	}

	// Deterministic id so redeliveries of the same queue_job_id converge
	// (§5's retry-idempotency rule).
	deployedRangeID := uuid.NewSHA1(openlabsJobNamespace, []byte(j.ID))

	if existing, err := w.rangeStore.Get(ctx, deployedRangeID, nil); err == nil && existing.State == deployedrange.StateOn {
		return nil
	}

	owner, err := w.users.Get(ctx, args.OwnerID)
	if err != nil {
		return fmt.Errorf("loading owner: %w", err)
	}
	bundle, err := w.vault.GetDecryptedSecrets(ctx, args.OwnerID, secretvault.KeyMaterial{
		EncryptedPrivateKey: owner.EncryptedPrivateKey, KeySalt: owner.KeySalt,
	}, args.EncKey)
	if err != nil {
		return err
	}
	if !bundle.HasProvider(string(bp.Provider)) {
		return apperr.New(apperr.KindNoCredentials, noCredentialsDetail(bp.Provider))
	}

	materializer, err := provisioner.MaterializerFor(bp.Provider)
	if err != nil {
		return apperr.Wrap(apperr.KindSynthesisFailed, "selecting materializer", err)
	}

	authorizedKey, privKeyPEM, err := provider.GenerateJumpboxKeyPair()
	if err != nil {
		return apperr.Wrap(apperr.KindSynthesisFailed, "generating jumpbox key", err)
	}

	topology, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("marshaling topology snapshot: %w", err)
	}

	// Insert the row at SYNTHESIZING up front so the lifecycle state
	// machine (§3) is observable from the first suspension point onward,
	// not just on success; a crash mid-apply leaves the row at
	// SYNTHESIZING/APPLYING for an operator to find rather than no row
	// at all.
	row := &deployedrange.Range{
		ID:                  deployedRangeID,
		OwnerID:             args.OwnerID,
		BlueprintRangeID:    &args.BlueprintID,
		Name:                args.RangeName,
		Provider:            bp.Provider,
		Region:              args.Region,
		VNC:                 bp.VNC,
		VPN:                 bp.VPN,
		TopologySnapshot:    topology,
		ProviderResourceIDs: json.RawMessage(`{}`),
		State:               deployedrange.StateSynthesizing,
	}
	if _, err := w.rangeStore.Create(ctx, row); err != nil {
		return fmt.Errorf("inserting deployed range row: %w", err)
	}

	input := provider.Input{
		Range:                bp,
		Region:               args.Region,
		DeployedRangeID:      deployedRangeID,
		JumpboxAuthorizedKey: authorizedKey,
	}
	run := &provisioner.Run{
		Materializer: materializer,
		Input:        input,
		Workdir:      w.cdktfDir,
		EnvVars:      materializer.CredEnvVars(bundle),
	}

	if err := w.driver.Synthesize(run); err != nil {
		w.markFailed(ctx, deployedRangeID)
		return err
	}

	if err := w.rangeStore.UpdateState(ctx, deployedRangeID, deployedrange.StateApplying, nil, nil, nil); err != nil {
		w.logger.Error("marking deployed range applying", "deployed_range_id", deployedRangeID, "error", err)
	}

	stateBlob, err := w.driver.Apply(ctx, run)
	if err != nil {
		w.markFailed(ctx, deployedRangeID)
		return err
	}

	encryptedKey, err := secretvault.EncryptForUser(owner.PublicKey, privKeyPEM)
	if err != nil {
		return fmt.Errorf("wrapping jumpbox key: %w", err)
	}

	// This transition must land before the job status update (§4.5): if
	// it fails, cloud resources exist unreferenced and must be
	// reconciled manually using the state_blob captured above (open
	// question §9).
	if err := w.rangeStore.UpdateState(ctx, deployedRangeID, deployedrange.StateOn, stateBlob, nil, encryptedKey); err != nil {
		w.logger.Error("deployed range commit failed after successful apply; manual reconciliation required",
			"deployed_range_id", deployedRangeID, "job_id", j.ID, "error", err)
		return apperr.Wrap(apperr.KindPersistenceDegraded, "deployed range commit failed", err)
	}

	if w.rangesDeployed != nil {
		w.rangesDeployed.WithLabelValues(string(bp.Provider)).Inc()
	}
	return nil
}

// markFailed best-effort transitions a deployed range to FAILED; the
// transition is diagnostic only and never overrides the caller's error.
func (w *Worker) markFailed(ctx context.Context, id uuid.UUID) {
	if err := w.rangeStore.UpdateState(ctx, id, deployedrange.StateFailed, nil, nil, nil); err != nil {
		w.logger.Error("marking deployed range failed", "deployed_range_id", id, "error", err)
	}
}

func (w *Worker) processDestroy(ctx context.Context, j *jobqueue.Job) error {
	var args jobqueue.DestroyArgs
	if err := json.Unmarshal(j.Args, &args); err != nil {
		return fmt.Errorf("unmarshaling destroy args: %w", err)
	}

	row, err := w.rangeStore.Get(ctx, args.DeployedRangeID, &args.OwnerID)
	if err != nil {
		return apperr.New(apperr.KindNotFound, "deployed range no longer exists")
	}
	if len(row.StateBlob) == 0 {
		return apperr.New(apperr.KindProvisionerFailed, "no state blob recorded for this range")
	}

	owner, err := w.users.Get(ctx, args.OwnerID)
	if err != nil {
		return fmt.Errorf("loading owner: %w", err)
	}
	bundle, err := w.vault.GetDecryptedSecrets(ctx, args.OwnerID, secretvault.KeyMaterial{
		EncryptedPrivateKey: owner.EncryptedPrivateKey, KeySalt: owner.KeySalt,
	}, args.EncKey)
	if err != nil {
		return err
	}
	if !bundle.HasProvider(string(row.Provider)) {
		return apperr.New(apperr.KindNoCredentials, noCredentialsDetail(row.Provider))
	}

	materializer, err := provisioner.MaterializerFor(row.Provider)
	if err != nil {
		return apperr.Wrap(apperr.KindSynthesisFailed, "selecting materializer", err)
	}

	var bp blueprint.Range
	if err := json.Unmarshal(row.TopologySnapshot, &bp); err != nil {
		return fmt.Errorf("unmarshaling topology snapshot: %w", err)
	}

	input := provider.Input{Range: bp, Region: row.Region, DeployedRangeID: row.ID}
	run := &provisioner.Run{
		Materializer: materializer,
		Input:        input,
		Workdir:      w.cdktfDir,
		EnvVars:      materializer.CredEnvVars(bundle),
	}

	if err := w.rangeStore.UpdateState(ctx, row.ID, deployedrange.StateDestroying, nil, nil, nil); err != nil {
		w.logger.Error("marking deployed range destroying", "deployed_range_id", row.ID, "error", err)
	}

	if err := w.driver.Destroy(ctx, run, row.StateBlob); err != nil {
		w.markFailed(ctx, row.ID)
		return err
	}

	if _, err := w.rangeStore.Delete(ctx, row.ID, nil); err != nil {
		return fmt.Errorf("deleting deployed range row: %w", err)
	}
	return nil
}
