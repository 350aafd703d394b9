package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/deploy"
)

var svcCmd = &cobra.Command{
	Use:   "svc",
	Short: "Manage the api service on the selected hosts",
	Long: `Start, stop, reload and roll code onto the api service, with health-check
gated load-balancer draining and filling.

Flag values follow operator habits: t/f (also true/false, 1/0) for booleans,
and --wait additionally accepts a timeout in seconds.`,
}

var (
	svcSkipEnable  string
	svcSkipDisable string
	svcWait        string
	svcBranch      string
	svcCommit      string
	svcRestart     string
)

var svcStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the service and enable it for traffic",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, err := config.ParseFlag(svcSkipEnable)
		if err != nil {
			return err
		}
		wait, err := settings.ParseWait(svcWait)
		if err != nil {
			return err
		}
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceStart(ctx, skip, wait)
		})
	},
}

var svcStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Drain the service out of its load balancers and stop it",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, err := config.ParseFlag(svcSkipDisable)
		if err != nil {
			return err
		}
		wait, err := settings.ParseWait(svcWait)
		if err != nil {
			return err
		}
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceStop(ctx, skip, wait)
		})
	},
}

var svcReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceReload(ctx)
		})
	},
}

var svcRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Hard restart the service, draining and refilling traffic",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceRestart(ctx)
		})
	},
}

var svcUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Check out code and reload or restart the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		restart, err := config.ParseFlag(svcRestart)
		if err != nil {
			return err
		}
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceUp(ctx, svcBranch, svcCommit, restart)
		})
	},
}

var svcStatCmd = &cobra.Command{
	Use:   "stat",
	Short: "Print service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceStat(ctx)
		})
	},
}

var svcEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the service for traffic and wait for it to roll in",
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, err := settings.ParseWait(svcWait)
		if err != nil {
			return err
		}
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceEnable(ctx, wait)
		})
	},
}

var svcDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the service from serving traffic and wait for it to drain",
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, err := settings.ParseWait(svcWait)
		if err != nil {
			return err
		}
		return eachAPIHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.ServiceDisable(ctx, wait)
		})
	},
}

func init() {
	rootCmd.AddCommand(svcCmd)

	svcCmd.PersistentFlags().StringVar(&svcWait, "wait", "t", "wait for load-balancer health: t/f or seconds")
	svcStartCmd.Flags().StringVar(&svcSkipEnable, "skip-enable", "f", "skip enabling the host for traffic")
	svcStopCmd.Flags().StringVar(&svcSkipDisable, "skip-disable", "f", "skip disabling the host")
	svcUpCmd.Flags().StringVar(&svcBranch, "branch", "release", "branch to check out")
	svcUpCmd.Flags().StringVar(&svcCommit, "commit", "HEAD", "commit within the branch to sync to")
	svcUpCmd.Flags().StringVar(&svcRestart, "restart", "f", "restart instead of reload")

	svcCmd.AddCommand(svcStartCmd)
	svcCmd.AddCommand(svcStopCmd)
	svcCmd.AddCommand(svcReloadCmd)
	svcCmd.AddCommand(svcRestartCmd)
	svcCmd.AddCommand(svcUpCmd)
	svcCmd.AddCommand(svcStatCmd)
	svcCmd.AddCommand(svcEnableCmd)
	svcCmd.AddCommand(svcDisableCmd)
}

// eachAPIHost runs fn against every selected api-subnet host.
func eachAPIHost(fn func(context.Context, *deploy.Deployer) error) error {
	ctx := context.Background()
	t, err := newToolkit(ctx)
	if err != nil {
		return err
	}
	return t.each(ctx, t.set.APISubnets, func(d *deploy.Deployer) error {
		return fn(ctx, d)
	})
}
