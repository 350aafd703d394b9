package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/deploy"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Sync and inspect the application tree on the selected hosts",
}

var (
	codeBranch      string
	codeCommit      string
	codeClearCached string
)

var codeSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch and check out the application tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		clearCached, err := config.ParseFlag(codeClearCached)
		if err != nil {
			return err
		}
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.CodeSync(ctx, codeBranch, codeCommit, clearCached)
		})
	},
}

var codeStatCmd = &cobra.Command{
	Use:   "stat",
	Short: "Echo the checked-out branch and commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.CodeStat(ctx)
		})
	},
}

var codeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.MigrateDB(ctx)
		})
	},
}

var codeShellsCmd = &cobra.Command{
	Use:   "shells",
	Short: "Fail when interactive application shells are still running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.Shells(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(codeCmd)

	codeSyncCmd.Flags().StringVar(&codeBranch, "branch", "release", "branch to check out")
	codeSyncCmd.Flags().StringVar(&codeCommit, "commit", "HEAD", "commit within the branch to sync to")
	codeSyncCmd.Flags().StringVar(&codeClearCached, "clear-cached", "t", "purge stale bytecode after checkout")

	codeCmd.AddCommand(codeSyncCmd)
	codeCmd.AddCommand(codeStatCmd)
	codeCmd.AddCommand(codeMigrateCmd)
	codeCmd.AddCommand(codeShellsCmd)
}

// eachHost runs fn against every selected host, with no subnet restriction.
func eachHost(fn func(context.Context, *deploy.Deployer) error) error {
	ctx := context.Background()
	t, err := newToolkit(ctx)
	if err != nil {
		return err
	}
	return t.each(ctx, nil, func(d *deploy.Deployer) error {
		return fn(ctx, d)
	})
}
