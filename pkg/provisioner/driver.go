// Package provisioner implements the Provisioner Driver (§4.4): it spawns
// the provisioner CLI as a child process inside a stack's working
// directory, captures the opaque state blob on apply, rehydrates it on
// destroy, and cleans up.
package provisioner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/pkg/provider"
)

// Driver executes init/apply/destroy as child processes, grounded on
// bgdnvk-clanker's internal/terraform/client.go exec.CommandContext +
// cmd.Dir pattern.
type Driver struct {
	bin            string
	logger         *slog.Logger
	runsMetric     *prometheus.CounterVec
	durationMetric *prometheus.HistogramVec
}

// NewDriver creates a Provisioner Driver. bin is the executable to spawn
// (OPENLABS_PROVISIONER_BIN, default "terraform").
func NewDriver(bin string, logger *slog.Logger, runsMetric *prometheus.CounterVec, durationMetric *prometheus.HistogramVec) *Driver {
	return &Driver{bin: bin, logger: logger, runsMetric: runsMetric, durationMetric: durationMetric}
}

// Run tracks one in-flight synthesize/apply/destroy cycle against a
// single stack directory. Not safe for concurrent use — §5 requires the
// caller (one job's worker goroutine) to hold it exclusively.
type Run struct {
	Materializer provider.Materializer
	Input        provider.Input
	Workdir      string
	EnvVars      map[string]string

	stackName   string
	planDir     string
	synthesized bool
}

// Synthesize calls the Materializer in-process to emit the on-disk plan.
// Success sets synthesized=true (§4.4 step 1).
func (d *Driver) Synthesize(run *Run) error {
	stackName := run.Materializer.StackName(run.Input)
	planDir, err := run.Materializer.Materialize(run.Input, run.Workdir)
	if err != nil {
		return apperr.Wrap(apperr.KindSynthesisFailed, "synthesizing plan", err)
	}
	run.stackName = stackName
	run.planDir = planDir
	run.synthesized = true
	return nil
}

// Apply spawns "<provisioner> init" then "<provisioner> apply
// --auto-approve", captures the emitted state file as the state blob,
// then deletes the working directory (§4.4 step 2).
func (d *Driver) Apply(ctx context.Context, run *Run) ([]byte, error) {
	if !run.synthesized {
		return nil, apperr.New(apperr.KindProvisionerFailed, "apply requires synthesize to run first")
	}

	if err := d.runCommand(ctx, run, "init"); err != nil {
		return nil, err
	}
	if err := d.runCommand(ctx, run, "apply", "--auto-approve"); err != nil {
		return nil, err
	}

	stateFile := filepath.Join(run.planDir, provider.StateFileName(run.stackName))
	blob, err := os.ReadFile(stateFile)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProvisionerFailed, "reading emitted state file", err)
	}

	d.cleanup(run)
	return blob, nil
}

// Destroy recreates the plan directory via Synthesize, writes the stored
// state_blob back to the expected state file path, spawns "<provisioner>
// destroy --auto-approve", then deletes the working directory (§4.4 step
// 3). A state_blob must be present before destroy runs.
func (d *Driver) Destroy(ctx context.Context, run *Run, stateBlob []byte) error {
	if len(stateBlob) == 0 {
		return apperr.New(apperr.KindProvisionerFailed, "destroy requires a persisted state blob")
	}

	if err := d.Synthesize(run); err != nil {
		return err
	}

	stateFile := filepath.Join(run.planDir, provider.StateFileName(run.stackName))
	if err := os.WriteFile(stateFile, stateBlob, 0o600); err != nil {
		return apperr.Wrap(apperr.KindProvisionerFailed, "rehydrating state file", err)
	}

	if err := d.runCommand(ctx, run, "init"); err != nil {
		return err
	}
	if err := d.runCommand(ctx, run, "destroy", "--auto-approve"); err != nil {
		return err
	}

	d.cleanup(run)
	return nil
}

// runCommand spawns one provisioner subcommand in the plan directory with
// the run's credential environment variables injected (§4.4).
func (d *Driver) runCommand(ctx context.Context, run *Run, args ...string) error {
	cmd := exec.CommandContext(ctx, d.bin, args...)
	cmd.Dir = run.planDir
	cmd.Env = os.Environ()
	for k, v := range run.EnvVars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	if d.runsMetric != nil {
		d.runsMetric.WithLabelValues(args[0], outcome).Inc()
	}
	if d.durationMetric != nil {
		d.durationMetric.WithLabelValues(args[0]).Observe(elapsed.Seconds())
	}

	if err != nil {
		d.logger.Error("provisioner command failed",
			"command", args[0], "stack", run.stackName, "output", string(output), "error", err)
		return apperr.Wrap(apperr.KindProvisionerFailed, fmt.Sprintf("%s %v failed", d.bin, args), err)
	}
	return nil
}

// cleanup removes the stack's working directory. Failures are logged but
// never override a successful apply/destroy (§4.4).
func (d *Driver) cleanup(run *Run) {
	if run.planDir == "" {
		return
	}
	if err := os.RemoveAll(run.planDir); err != nil {
		d.logger.Error("cleaning up plan directory", "dir", run.planDir, "error", err)
	}
}
