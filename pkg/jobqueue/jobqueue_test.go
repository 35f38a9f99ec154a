package jobqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJob_JSONRoundTrip(t *testing.T) {
	args := DeployArgs{
		EncKey:      []byte("master-key-bytes"),
		BlueprintID: uuid.New(),
		RangeName:   "test-range",
		Region:      "us-east-1",
		OwnerID:     uuid.New(),
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}

	job := Job{
		ID:         uuid.NewString(),
		Name:       JobDeployRange,
		Args:       argsJSON,
		Status:     StatusQueued,
		EnqueuedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}

	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}

	var decoded Job
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if decoded.ID != job.ID || decoded.Name != job.Name || decoded.Status != job.Status {
		t.Errorf("decoded job = %+v, want %+v", decoded, job)
	}

	var decodedArgs DeployArgs
	if err := json.Unmarshal(decoded.Args, &decodedArgs); err != nil {
		t.Fatalf("unmarshal args: %v", err)
	}
	if decodedArgs.BlueprintID != args.BlueprintID || decodedArgs.RangeName != args.RangeName {
		t.Errorf("decoded args = %+v, want %+v", decodedArgs, args)
	}
}

func TestDestroyArgs_JSONRoundTrip(t *testing.T) {
	args := DestroyArgs{
		EncKey:          []byte("key"),
		DeployedRangeID: uuid.New(),
		OwnerID:         uuid.New(),
	}
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded DestroyArgs
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.DeployedRangeID != args.DeployedRangeID || decoded.OwnerID != args.OwnerID {
		t.Errorf("decoded = %+v, want %+v", decoded, args)
	}
}

func TestJobNames_MatchJobsTableConstraint(t *testing.T) {
	// The jobs table's CHECK (name IN ('deploy_range','destroy_range'))
	// constraint must stay in sync with these constants.
	if JobDeployRange != "deploy_range" {
		t.Errorf("JobDeployRange = %q, want %q", JobDeployRange, "deploy_range")
	}
	if JobDestroyRange != "destroy_range" {
		t.Errorf("JobDestroyRange = %q, want %q", JobDestroyRange, "destroy_range")
	}
}
