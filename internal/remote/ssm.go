package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
)

// SSMAPI is the slice of the SSM client the runner uses.
type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// SSMRunner executes commands on one instance through SSM Run Command
// (AWS-RunShellScript), polling the invocation until it reaches a terminal
// status.
type SSMRunner struct {
	api        SSMAPI
	instanceID string
	poll       time.Duration
	sleep      func(time.Duration)
}

// NewSSMRunner returns a runner bound to a single instance.
func NewSSMRunner(api SSMAPI, instanceID string) *SSMRunner {
	return &SSMRunner{
		api:        api,
		instanceID: instanceID,
		poll:       time.Second,
		sleep:      time.Sleep,
	}
}

// Run implements Runner.
func (r *SSMRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	script := Script(cmd)

	sent, err := r.api.SendCommand(ctx, &ssm.SendCommandInput{
		DocumentName: aws.String("AWS-RunShellScript"),
		InstanceIds:  []string{r.instanceID},
		Parameters: map[string][]string{
			"commands": {script},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to send command to %s: %w", r.instanceID, err)
	}

	commandID := aws.ToString(sent.Command.CommandId)

	for {
		invocation, err := r.api.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
			CommandId:  &commandID,
			InstanceId: &r.instanceID,
		})
		if err != nil {
			// The invocation record can lag the SendCommand response.
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvocationDoesNotExist" {
				r.sleep(r.poll)
				continue
			}
			return Result{}, fmt.Errorf("failed to poll command %s: %w", commandID, err)
		}

		switch invocation.Status {
		case ssmtypes.CommandInvocationStatusPending,
			ssmtypes.CommandInvocationStatusInProgress,
			ssmtypes.CommandInvocationStatusDelayed:
			r.sleep(r.poll)
			continue
		}

		result := Result{
			Stdout:   aws.ToString(invocation.StandardOutputContent),
			Stderr:   aws.ToString(invocation.StandardErrorContent),
			ExitCode: int(invocation.ResponseCode),
		}

		if invocation.Status != ssmtypes.CommandInvocationStatusSuccess {
			return result, &ExitError{Script: script, Result: result}
		}
		return result, nil
	}
}
