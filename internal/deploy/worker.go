package deploy

import (
	"context"
	"fmt"

	"github.com/vandelay/stratus/internal/remote"
)

// workerNames falls back to the configured worker set when none are named.
func (d *Deployer) workerNames(workers []string) []string {
	if len(workers) > 0 {
		return workers
	}
	return d.set.Workers
}

func (d *Deployer) supervisorEach(ctx context.Context, action string, workers []string) error {
	for _, name := range d.workerNames(workers) {
		script := fmt.Sprintf("supervisorctl %s %s; sleep 1", action, name)
		if _, err := d.run(ctx, remote.Command{Script: script}); err != nil {
			return err
		}
	}
	return nil
}

// WorkerStart starts the named workers, or all configured ones.
func (d *Deployer) WorkerStart(ctx context.Context, workers ...string) error {
	return d.supervisorEach(ctx, "start", workers)
}

// WorkerStop stops the named workers, or all configured ones.
func (d *Deployer) WorkerStop(ctx context.Context, workers ...string) error {
	return d.supervisorEach(ctx, "stop", workers)
}

// WorkerRestart restarts the named workers, or all configured ones.
func (d *Deployer) WorkerRestart(ctx context.Context, workers ...string) error {
	return d.supervisorEach(ctx, "restart", workers)
}

// WorkerStat prints supervisor status for the named workers, or all
// configured ones.
func (d *Deployer) WorkerStat(ctx context.Context, workers ...string) error {
	if err := d.CodeStat(ctx); err != nil {
		return err
	}
	return d.supervisorEach(ctx, "status", workers)
}

// WorkerUp checks out code and restarts every worker.
func (d *Deployer) WorkerUp(ctx context.Context, branch, commit string) error {
	if err := d.CodeSync(ctx, branch, commit, true); err != nil {
		return err
	}
	if err := d.WorkerRestart(ctx); err != nil {
		return err
	}
	return d.WorkerStat(ctx)
}
