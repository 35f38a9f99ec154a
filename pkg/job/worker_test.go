package job

import (
	"testing"

	"github.com/google/uuid"
)

func TestDeployedRangeID_DeterministicForSameJobID(t *testing.T) {
	jobID := "a-queue-job-id"

	id1 := uuid.NewSHA1(openlabsJobNamespace, []byte(jobID))
	id2 := uuid.NewSHA1(openlabsJobNamespace, []byte(jobID))

	if id1 != id2 {
		t.Errorf("uuid.NewSHA1 should be deterministic for the same job id: %v != %v", id1, id2)
	}
}

func TestDeployedRangeID_DiffersAcrossJobIDs(t *testing.T) {
	id1 := uuid.NewSHA1(openlabsJobNamespace, []byte("job-one"))
	id2 := uuid.NewSHA1(openlabsJobNamespace, []byte("job-two"))

	if id1 == id2 {
		t.Error("different job ids should derive different deployed range ids")
	}
}

func TestOpenlabsJobNamespace_Stable(t *testing.T) {
	want := uuid.MustParse("c9c30dc2-ec81-4e02-9d6d-4a1b7f9c8e01")
	if openlabsJobNamespace != want {
		t.Errorf("openlabsJobNamespace = %v, want %v (changing it reshuffles every existing deployed_range_id)", openlabsJobNamespace, want)
	}
}
