package aws

import (
	"context"
	"errors"
	"fmt"

	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing/types"
	"github.com/aws/smithy-go"

	"github.com/vandelay/stratus/pkg/types"
)

// ListLoadBalancers returns all classic load balancers in the region.
func (c *Client) ListLoadBalancers(ctx context.Context) ([]types.LoadBalancer, error) {
	paginator := elb.NewDescribeLoadBalancersPaginator(c.ELB, &elb.DescribeLoadBalancersInput{})

	var lbs []types.LoadBalancer
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe load balancers: %w", err)
		}

		for _, lb := range page.LoadBalancerDescriptions {
			lbs = append(lbs, toLoadBalancer(lb))
		}
	}

	return lbs, nil
}

// InstanceHealth reports the balancer's health records for a single instance.
// An instance the balancer has no record of yields an empty result, not an
// error.
func (c *Client) InstanceHealth(ctx context.Context, lbName, instanceID string) ([]types.InstanceHealth, error) {
	output, err := c.ELB.DescribeInstanceHealth(ctx, &elb.DescribeInstanceHealthInput{
		LoadBalancerName: &lbName,
		Instances: []elbtypes.Instance{
			{InstanceId: &instanceID},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidInstance" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe instance health for %s: %w", lbName, err)
	}

	var states []types.InstanceHealth
	for _, s := range output.InstanceStates {
		states = append(states, toInstanceHealth(s))
	}

	return states, nil
}

// toLoadBalancer converts an ELB description to our LoadBalancer type
func toLoadBalancer(lb elbtypes.LoadBalancerDescription) types.LoadBalancer {
	result := types.LoadBalancer{
		Name:    deref(lb.LoadBalancerName),
		DNSName: deref(lb.DNSName),
		Scheme:  deref(lb.Scheme),
		VPCID:   deref(lb.VPCId),
		AZs:     lb.AvailabilityZones,
	}

	if lb.CreatedTime != nil {
		result.CreatedAt = *lb.CreatedTime
	}

	// A nil member list stays nil so callers can tell "no membership set yet"
	// from "registered but empty".
	for _, inst := range lb.Instances {
		result.InstanceIDs = append(result.InstanceIDs, deref(inst.InstanceId))
	}
	if lb.Instances != nil && result.InstanceIDs == nil {
		result.InstanceIDs = []string{}
	}

	return result
}

// toInstanceHealth converts an ELB instance state to our InstanceHealth type
func toInstanceHealth(s elbtypes.InstanceState) types.InstanceHealth {
	return types.InstanceHealth{
		InstanceID:  deref(s.InstanceId),
		State:       deref(s.State),
		ReasonCode:  deref(s.ReasonCode),
		Description: deref(s.Description),
	}
}
