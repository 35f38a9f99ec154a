// Package jobqueue implements the durable queue behind §4.5/§5: a
// Redis work list workers BRPOP from, a per-job JSON record (a string key
// with a TTL) for status lookup,
// and a pub/sub channel announcing completion — grounded on the
// teacher's pkg/escalation/engine.go (Subscribe/Publish) and
// internal/auth/ratelimit.go (pipelined INCR/EXPIRE).
package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openlabshq/rangeapi/internal/apperr"
)

const (
	workListKey   = "openlabs:jobs:queue"
	jobHashPrefix = "openlabs:jobs:job:"
	doneChannel   = "openlabs:jobs:done"
	jobTTL        = 7 * 24 * time.Hour
)

// Status is the lifecycle of one queued job (mirrors the jobs table's
// status CHECK constraint).
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Deploy/destroy job names, matching the jobs table's name CHECK
// constraint.
const (
	JobDeployRange  = "deploy_range"
	JobDestroyRange = "destroy_range"
)

// DeployArgs is the payload for a deploy_range job (§4.5 step 5: "enqueue
// a job deploy_range with arguments (enc_key, deploy_request, blueprint,
// user_id)"). EncKey crosses the queue in the clear — §5 notes this
// widens the payload's trust boundary, so the queue's Redis instance
// must live on a private network.
type DeployArgs struct {
	EncKey        []byte    `json:"enc_key"`
	BlueprintID   uuid.UUID `json:"blueprint_id"`
	RangeName     string    `json:"range_name"`
	Region        string    `json:"region"`
	Description   string    `json:"description,omitempty"`
	OwnerID       uuid.UUID `json:"owner_id"`
}

// DestroyArgs is the payload for a destroy_range job.
type DestroyArgs struct {
	EncKey          []byte    `json:"enc_key"`
	DeployedRangeID uuid.UUID `json:"deployed_range_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
}

// Job is one unit of queued work as stored in the per-job JSON record.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Args       json.RawMessage `json:"args"`
	Status     Status          `json:"status"`
	Detail     string          `json:"detail,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Queue is the Redis-backed durable job queue.
type Queue struct {
	rdb *redis.Client
}

// New creates a Queue bound to an existing Redis client.
func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue persists a new job record and pushes its id onto the work list,
// returning the queue-assigned id (§4.5 step 5).
func (q *Queue) Enqueue(ctx context.Context, name string, args any) (string, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshaling job args: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	job := Job{
		ID:         id,
		Name:       name,
		Args:       argsJSON,
		Status:     StatusQueued,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshaling job: %w", err)
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, jobHashPrefix+id, payload, jobTTL)
	pipe.LPush(ctx, workListKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", apperr.Wrap(apperr.KindQueueUnavailable, "enqueueing job", err)
	}
	return id, nil
}

// Dequeue blocks (up to timeout) for the next job id on the work list and
// loads its record. Returns (nil, nil) on timeout with no job available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.rdb.BRPop(ctx, timeout, workListKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeuing job: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply shape")
	}
	id := result[1]
	return q.Get(ctx, id)
}

// Get loads a job's current record by id. Returns apperr.KindNotFound if
// unknown (§6: "unknown id => 404").
func (q *Queue) Get(ctx context.Context, id string) (*Job, error) {
	raw, err := q.rdb.Get(ctx, jobHashPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.New(apperr.KindNotFound, "job not found")
		}
		return nil, fmt.Errorf("loading job: %w", err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("unmarshaling job: %w", err)
	}
	return &job, nil
}

// MarkInProgress transitions a job to in_progress.
func (q *Queue) MarkInProgress(ctx context.Context, id string) error {
	return q.update(ctx, id, func(job *Job) {
		job.Status = StatusInProgress
	})
}

// MarkComplete transitions a job to complete with an optional result
// payload, then publishes a completion notification.
func (q *Queue) MarkComplete(ctx context.Context, id string, result any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling job result: %w", err)
	}
	if err := q.update(ctx, id, func(job *Job) {
		job.Status = StatusComplete
		job.Result = resultJSON
	}); err != nil {
		return err
	}
	q.rdb.Publish(ctx, doneChannel, id)
	return nil
}

// MarkFailed transitions a job to failed with a detail string (e.g.
// apperr.KindSynthesisFailed/KindProvisionerFailed), then publishes a
// completion notification.
func (q *Queue) MarkFailed(ctx context.Context, id string, detail string) error {
	if err := q.update(ctx, id, func(job *Job) {
		job.Status = StatusFailed
		job.Detail = detail
	}); err != nil {
		return err
	}
	q.rdb.Publish(ctx, doneChannel, id)
	return nil
}

func (q *Queue) update(ctx context.Context, id string, mutate func(*Job)) error {
	job, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	if err := q.rdb.Set(ctx, jobHashPrefix+id, payload, jobTTL).Err(); err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// Subscribe returns a channel of completed job ids, mirroring the
// teacher's escalation engine's pubsub.Channel() pattern. Callers must
// close the returned subscription via the returned close func.
func (q *Queue) Subscribe(ctx context.Context) (<-chan *redis.Message, func() error) {
	sub := q.rdb.Subscribe(ctx, doneChannel)
	return sub.Channel(), sub.Close
}
