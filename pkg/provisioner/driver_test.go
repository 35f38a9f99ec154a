package provisioner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/provider"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubMaterializer only creates the plan directory (no plan file); for
// apply, the fake provisioner script below writes the expected state file
// into it.
type stubMaterializer struct{ name string }

func (s stubMaterializer) Provider() blueprint.Provider { return blueprint.ProviderAWS }
func (s stubMaterializer) StackName(input provider.Input) string {
	return s.name + "-" + input.DeployedRangeID.String()
}
func (s stubMaterializer) Materialize(input provider.Input, workdir string) (string, error) {
	planDir := filepath.Join(workdir, "stacks", s.StackName(input))
	if err := os.MkdirAll(planDir, 0o755); err != nil {
		return "", err
	}
	return planDir, nil
}
func (s stubMaterializer) HasSecrets(bundle *secretvault.SecretBundle) bool { return true }
func (s stubMaterializer) CredEnvVars(bundle *secretvault.SecretBundle) map[string]string {
	return map[string]string{"FAKE_CRED": "1"}
}

var _ provider.Materializer = stubMaterializer{}

// writeFakeProvisioner writes a shell script that stands in for terraform:
// "init" is a no-op; "apply" writes a state file; "destroy" requires the
// state file be present (mirroring Destroy's rehydrate-then-destroy order).
func writeFakeProvisioner(t *testing.T, stackName string) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-terraform.sh")
	stateFile := provider.StateFileName(stackName)
	content := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"  init) exit 0 ;;\n" +
		"  apply) echo fake-state > \"" + stateFile + "\"; exit 0 ;;\n" +
		"  destroy) test -f \"" + stateFile + "\" && exit 0 || exit 1 ;;\n" +
		"  *) exit 1 ;;\n" +
		"esac\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("writing fake provisioner: %v", err)
	}
	return script
}

func testRun(t *testing.T, mat stubMaterializer) (*Run, string) {
	t.Helper()
	workdir := t.TempDir()
	input := provider.Input{
		Range:           blueprint.Range{Name: "r"},
		DeployedRangeID: uuid.New(),
	}
	return &Run{
		Materializer: mat,
		Input:        input,
		Workdir:      workdir,
	}, workdir
}

func TestDriver_SynthesizeApply(t *testing.T) {
	mat := stubMaterializer{name: "test"}
	run, _ := testRun(t, mat)
	bin := writeFakeProvisioner(t, mat.StackName(run.Input))

	d := NewDriver(bin, discardLogger(), nil, nil)

	if err := d.Synthesize(run); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if run.planDir == "" {
		t.Fatal("Synthesize() left planDir empty")
	}

	blob, err := d.Apply(context.Background(), run)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if string(blob) != "fake-state\n" {
		t.Errorf("Apply() blob = %q, want %q", blob, "fake-state\n")
	}

	// Apply cleans up the plan directory on success.
	if _, err := os.Stat(run.planDir); !os.IsNotExist(err) {
		t.Error("Apply() should remove the plan directory after success")
	}
}

func TestDriver_Apply_WithoutSynthesizeFails(t *testing.T) {
	mat := stubMaterializer{name: "test"}
	run, _ := testRun(t, mat)
	d := NewDriver("irrelevant", discardLogger(), nil, nil)

	if _, err := d.Apply(context.Background(), run); err == nil {
		t.Fatal("Apply() without Synthesize should error")
	}
}

func TestDriver_Destroy_RequiresStateBlob(t *testing.T) {
	mat := stubMaterializer{name: "test"}
	run, _ := testRun(t, mat)
	d := NewDriver("irrelevant", discardLogger(), nil, nil)

	if err := d.Destroy(context.Background(), run, nil); err == nil {
		t.Fatal("Destroy() with no state blob should error")
	}
}

func TestDriver_Destroy_RehydratesAndRuns(t *testing.T) {
	mat := stubMaterializer{name: "test"}
	run, _ := testRun(t, mat)
	bin := writeFakeProvisioner(t, mat.StackName(run.Input))
	d := NewDriver(bin, discardLogger(), nil, nil)

	if err := d.Destroy(context.Background(), run, []byte("fake-state\n")); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := os.Stat(run.planDir); !os.IsNotExist(err) {
		t.Error("Destroy() should remove the plan directory after success")
	}
}
