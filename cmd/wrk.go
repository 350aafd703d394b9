package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vandelay/stratus/internal/deploy"
)

var wrkCmd = &cobra.Command{
	Use:   "wrk",
	Short: "Manage the background workers on the selected hosts",
	Long: `Start, stop and restart the supervisord-managed background workers.
Worker names given as arguments restrict the action; with none, all
configured workers are covered.`,
}

var (
	wrkBranch string
	wrkCommit string
)

var wrkStartCmd = &cobra.Command{
	Use:   "start [worker...]",
	Short: "Start the requested workers, or all",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachWorkerHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.WorkerStart(ctx, args...)
		})
	},
}

var wrkStopCmd = &cobra.Command{
	Use:   "stop [worker...]",
	Short: "Stop the requested workers, or all",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachWorkerHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.WorkerStop(ctx, args...)
		})
	},
}

var wrkRestartCmd = &cobra.Command{
	Use:   "restart [worker...]",
	Short: "Restart the requested workers, or all",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachWorkerHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.WorkerRestart(ctx, args...)
		})
	},
}

var wrkStatCmd = &cobra.Command{
	Use:   "stat [worker...]",
	Short: "Print status for the requested workers, or all",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachWorkerHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.WorkerStat(ctx, args...)
		})
	},
}

var wrkUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Check out code and restart all workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachWorkerHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.WorkerUp(ctx, wrkBranch, wrkCommit)
		})
	},
}

func init() {
	rootCmd.AddCommand(wrkCmd)

	wrkUpCmd.Flags().StringVar(&wrkBranch, "branch", "release", "branch to check out")
	wrkUpCmd.Flags().StringVar(&wrkCommit, "commit", "HEAD", "commit within the branch to sync to")

	wrkCmd.AddCommand(wrkStartCmd)
	wrkCmd.AddCommand(wrkStopCmd)
	wrkCmd.AddCommand(wrkRestartCmd)
	wrkCmd.AddCommand(wrkStatCmd)
	wrkCmd.AddCommand(wrkUpCmd)
}

// eachWorkerHost runs fn against every selected worker-subnet host.
func eachWorkerHost(fn func(context.Context, *deploy.Deployer) error) error {
	ctx := context.Background()
	t, err := newToolkit(ctx)
	if err != nil {
		return err
	}
	return t.each(ctx, t.set.WorkerSubnets, func(d *deploy.Deployer) error {
		return fn(ctx, d)
	})
}
