package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vandelay/stratus/internal/config"
)

var (
	// Global flags
	profile   string
	region    string
	envFilter string
	lbFilter  string
	hostList  []string

	settings config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "stratus",
	Short: "Stratus - deployment automation for EC2-hosted services",
	Long: `Stratus drives deployments of an application service and its background
workers across EC2 hosts, with health-check gated load-balancer draining and
filling.

Host selection:
  stratus hosts --lb bapi-test-i          # hosts attached to a load balancer
  stratus hosts --env test                # hosts in an environment
  stratus svc stop -H 10.3.104.56         # explicit host

Typical operations:
  stratus code sync --env test            # sync application code
  stratus svc up --lb bapi-prod-i         # roll code onto api hosts
  stratus wrk restart --env prod          # restart background workers
  stratus pkg build 1.2.0 --publish t     # build and publish a deb`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "AWS region to use")
	rootCmd.PersistentFlags().StringVarP(&envFilter, "env", "e", "", "environment tag value hosts must carry")
	rootCmd.PersistentFlags().StringVarP(&lbFilter, "lb", "l", "", "load balancer whose attached hosts are targeted")
	rootCmd.PersistentFlags().StringSliceVarP(&hostList, "hosts", "H", nil, "explicit host list (name, IP or dashed-IP fragment)")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
}

func initConfig() {
	// Read from environment variables
	viper.SetEnvPrefix("STRATUS")
	viper.AutomaticEnv()

	var err error
	settings, err = config.Load(config.Path())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Publishing credentials are environment-only.
	settings.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	settings.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}

	if region == "" {
		region = settings.Region
	}
}
