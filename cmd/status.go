package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vandelay/stratus/internal/aws"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deploy settings and AWS authentication status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("App:      %s\n", settings.AppName)
	fmt.Printf("Region:   %s\n", region)
	if profile != "" {
		fmt.Printf("Profile:  %s\n", profile)
	}
	fmt.Printf("VPC:      %s\n", settings.VPCID)
	fmt.Println()

	client, err := aws.NewClient(ctx, aws.WithProfile(profile), aws.WithRegion(region))
	if err != nil {
		return fmt.Errorf("failed to create AWS client: %w", err)
	}

	fmt.Print("Auth:     ")
	identity, err := client.CallerIdentity(ctx)
	if err != nil {
		fmt.Println("not authenticated")
		fmt.Printf("          %s\n", err.Error())
		return nil
	}

	fmt.Println("authenticated")
	fmt.Printf("Account:  %s\n", identity.Account)
	fmt.Printf("User:     %s\n", identity.UserID)
	if identity.Arn != "" {
		fmt.Printf("ARN:      %s\n", identity.Arn)
	}
	return nil
}
