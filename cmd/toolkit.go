package cmd

import (
	"context"
	"fmt"

	"github.com/vandelay/stratus/internal/aws"
	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/deploy"
	"github.com/vandelay/stratus/internal/health"
	"github.com/vandelay/stratus/internal/inventory"
	"github.com/vandelay/stratus/internal/remote"
	"github.com/vandelay/stratus/pkg/types"
)

// toolkit bundles the per-invocation collaborators: one AWS client, one
// inventory snapshot and one health waiter.
type toolkit struct {
	client *aws.Client
	inv    *inventory.Inventory
	waiter *health.Waiter
	set    config.Settings
}

func newToolkit(ctx context.Context) (*toolkit, error) {
	client, err := aws.NewClient(ctx,
		aws.WithProfile(profile),
		aws.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS client: %w", err)
	}

	inv := inventory.New(client, settings)
	return &toolkit{
		client: client,
		inv:    inv,
		waiter: health.NewWaiter(inv, client, settings.PollInterval()),
		set:    settings,
	}, nil
}

// selectInstances builds the target set from the global selection flags:
// explicit hosts when given, otherwise the environment tag and load-balancer
// hints, restricted to the given subnet allow-list.
func (t *toolkit) selectInstances(ctx context.Context, subnets []string) ([]types.Instance, error) {
	if len(hostList) > 0 {
		var instances []types.Instance
		for _, host := range hostList {
			inst, err := t.inv.CurrentInstance(ctx, host)
			if err != nil {
				return nil, err
			}
			if inst == nil {
				return nil, fmt.Errorf("host %q matches no running instance", host)
			}
			instances = append(instances, *inst)
		}
		return instances, nil
	}

	opts := inventory.ListOptions{Subnets: subnets}
	if envFilter != "" {
		opts.Tags = map[string]string{t.set.EnvironmentTag: envFilter}
	}
	if lbFilter != "" {
		lb, err := t.inv.ResolveLB(ctx, lbFilter)
		if err != nil {
			return nil, err
		}
		opts.LB = lb
	}

	return t.inv.Instances(ctx, opts)
}

// each runs fn sequentially against every selected host, aborting on the
// first failure.
func (t *toolkit) each(ctx context.Context, subnets []string, fn func(*deploy.Deployer) error) error {
	instances, err := t.selectInstances(ctx, subnets)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Println("No hosts selected")
		return nil
	}

	for _, inst := range instances {
		runner := remote.NewSSMRunner(t.client.SSM, inst.ID)
		d := deploy.New(runner, t.waiter, t.client, t.set, inst.PrivateIP)
		if err := fn(d); err != nil {
			return fmt.Errorf("host %s: %w", inst.PrivateIP, err)
		}
	}
	return nil
}
