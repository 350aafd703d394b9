package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vandelay/stratus/internal/ui"
)

var hostsCmd = &cobra.Command{
	Use:     "hosts",
	Aliases: []string{"who"},
	Short:   "Echo the hosts the selection flags would target",
	Long: `Resolve the global selection flags against the cloud inventory and print
the hosts that deploy commands would run on.

Examples:
  stratus hosts --env test
  stratus hosts --lb bapi-test-i
  stratus hosts -H 10.3.104.56,bapi-test-10-3-104-23.vandelay.io`,
	RunE: runHosts,
}

func init() {
	rootCmd.AddCommand(hostsCmd)
}

func runHosts(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	t, err := newToolkit(ctx)
	if err != nil {
		return err
	}

	instances, err := t.selectInstances(ctx, nil)
	if err != nil {
		return err
	}

	ui.PrintHostTable(instances, t.set.EnvironmentTag)
	return nil
}
