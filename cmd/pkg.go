package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/deploy"
)

var pkgCmd = &cobra.Command{
	Use:   "pkg",
	Short: "Build and publish application debs on a build host",
}

var (
	pkgBranch  string
	pkgCommit  string
	pkgPublish string
)

var pkgBuildCmd = &cobra.Command{
	Use:   "build <version>",
	Short: "Build a deb of the application tree (without the virtualenv)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		publish, err := config.ParseFlag(pkgPublish)
		if err != nil {
			return err
		}
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.PackageBuild(ctx, args[0], pkgBranch, pkgCommit, publish)
		})
	},
}

var pkgBuildVenvCmd = &cobra.Command{
	Use:   "build-venv <version>",
	Short: "Build a deb of the application virtualenv (without the lib)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		publish, err := config.ParseFlag(pkgPublish)
		if err != nil {
			return err
		}
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.PackageBuildVenv(ctx, args[0], pkgBranch, pkgCommit, publish)
		})
	},
}

var pkgPublishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Upload a built deb to the apt repo bucket",
	Long: `Upload a built deb to the s3 bucket backing the apt repo.

Credentials are taken from AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY, or from
the configured Secrets Manager secret when the environment has none. Both must
have write permission on the bucket.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachHost(func(ctx context.Context, d *deploy.Deployer) error {
			return d.Publish(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(pkgCmd)

	pkgCmd.PersistentFlags().StringVar(&pkgBranch, "branch", "release", "branch to package from")
	pkgCmd.PersistentFlags().StringVar(&pkgCommit, "commit", "HEAD", "commit to package from")
	pkgBuildCmd.Flags().StringVar(&pkgPublish, "publish", "f", "publish the built deb")
	pkgBuildVenvCmd.Flags().StringVar(&pkgPublish, "publish", "f", "publish the built deb")

	pkgCmd.AddCommand(pkgBuildCmd)
	pkgCmd.AddCommand(pkgBuildVenvCmd)
	pkgCmd.AddCommand(pkgPublishCmd)
}
