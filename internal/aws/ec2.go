package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vandelay/stratus/pkg/types"
)

// ListInstances queries EC2 for instances matching the given filter map
// (filter name to accepted values, e.g. "vpc-id", "tag:Name"). Result order
// follows the provider response.
func (c *Client) ListInstances(ctx context.Context, filters map[string][]string) ([]types.Instance, error) {
	var ec2Filters []ec2types.Filter

	// Stable filter order keeps request signing reproducible in tests.
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ec2Filters = append(ec2Filters, ec2types.Filter{
			Name:   aws.String(name),
			Values: filters[name],
		})
	}

	paginator := ec2.NewDescribeInstancesPaginator(c.EC2, &ec2.DescribeInstancesInput{
		Filters: ec2Filters,
	})

	var instances []types.Instance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, toInstance(inst))
			}
		}
	}

	return instances, nil
}

// toInstance converts an EC2 instance to our Instance type
func toInstance(i ec2types.Instance) types.Instance {
	inst := types.Instance{
		ID:   deref(i.InstanceId),
		Type: string(i.InstanceType),
		Tags: make(map[string]string),
	}

	if i.State != nil {
		inst.State = string(i.State.Name)
	}

	if i.PrivateIpAddress != nil {
		inst.PrivateIP = *i.PrivateIpAddress
	}

	if i.PublicIpAddress != nil {
		inst.PublicIP = *i.PublicIpAddress
	}

	if i.SubnetId != nil {
		inst.SubnetID = *i.SubnetId
	}

	if i.Placement != nil && i.Placement.AvailabilityZone != nil {
		inst.AZ = *i.Placement.AvailabilityZone
	}

	if i.LaunchTime != nil {
		inst.LaunchTime = *i.LaunchTime
	}

	for _, tag := range i.Tags {
		key := deref(tag.Key)
		inst.Tags[key] = deref(tag.Value)
		if key == "Name" {
			inst.Name = deref(tag.Value)
		}
	}

	return inst
}
