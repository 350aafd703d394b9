// Package inventory keeps a per-run snapshot of the EC2 instances and classic
// load balancers a deploy targets, and answers membership questions about the
// host currently being driven.
package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/pkg/types"
)

// Provider is the slice of the cloud API the inventory needs.
type Provider interface {
	// ListInstances queries instances by a filter map (name -> values).
	ListInstances(ctx context.Context, filters map[string][]string) ([]types.Instance, error)
	// ListLoadBalancers returns every load balancer in the region.
	ListLoadBalancers(ctx context.Context) ([]types.LoadBalancer, error)
}

// NotFoundError reports a load-balancer hint that resolved to nothing.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown load balancer %q", e.Name)
}

// ListOptions filters the instance selection.
type ListOptions struct {
	// Tags are caller-supplied tag filters merged into the provider query.
	Tags map[string]string
	// Subnets, when non-empty, is an allow-list applied locally.
	Subnets []string
	// LB, when set, keeps only instances registered with it.
	LB *types.LoadBalancer
	// IncludeDisabled keeps instances carrying the disabled tag.
	IncludeDisabled bool
}

// Inventory memoizes one instance snapshot and one load-balancer snapshot per
// task run. Both are populated lazily on first use and only cleared by
// Invalidate.
type Inventory struct {
	provider Provider
	set      config.Settings

	instances       []types.Instance
	instancesLoaded bool

	lbs       []types.LoadBalancer
	lbsLoaded bool
}

// New returns an empty inventory backed by the given provider.
func New(provider Provider, set config.Settings) *Inventory {
	return &Inventory{provider: provider, set: set}
}

// Invalidate drops both snapshots so the next call re-queries the provider.
func (inv *Inventory) Invalidate() {
	inv.instances = nil
	inv.instancesLoaded = false
	inv.lbs = nil
	inv.lbsLoaded = false
}

// Instances returns the instance snapshot, populating it on first call. The
// provider query is scoped to running instances in the configured VPC (and
// security group, when set) merged with the caller's tag filters; subnet,
// disabled-tag and LB-membership filters are applied locally, in that order.
// Later calls return the cached snapshot regardless of options.
func (inv *Inventory) Instances(ctx context.Context, opts ListOptions) ([]types.Instance, error) {
	if inv.instancesLoaded {
		return inv.instances, nil
	}

	filters := map[string][]string{
		"vpc-id":              {inv.set.VPCID},
		"instance-state-name": {"running"},
	}
	if inv.set.SecurityGroupID != "" {
		filters["instance.group-id"] = []string{inv.set.SecurityGroupID}
	}
	for key, value := range opts.Tags {
		filters["tag:"+key] = []string{value}
	}

	all, err := inv.provider.ListInstances(ctx, filters)
	if err != nil {
		return nil, err
	}

	instances := make([]types.Instance, 0, len(all))
	for _, inst := range all {
		if inv.keep(inst, opts) {
			instances = append(instances, inst)
		}
	}

	inv.instances = instances
	inv.instancesLoaded = true
	return inv.instances, nil
}

func (inv *Inventory) keep(inst types.Instance, opts ListOptions) bool {
	if len(opts.Subnets) > 0 && !slices.Contains(opts.Subnets, inst.SubnetID) {
		return false
	}
	if !opts.IncludeDisabled {
		if _, disabled := inst.Tags[inv.set.DisabledTag]; disabled {
			return false
		}
	}
	if opts.LB != nil {
		return slices.Contains(opts.LB.InstanceIDs, inst.ID)
	}
	return true
}

// LoadBalancers returns the load-balancer snapshot, populating it on first
// call. Balancers without a membership set are excluded.
func (inv *Inventory) LoadBalancers(ctx context.Context) ([]types.LoadBalancer, error) {
	if inv.lbsLoaded {
		return inv.lbs, nil
	}

	all, err := inv.provider.ListLoadBalancers(ctx)
	if err != nil {
		return nil, err
	}

	lbs := make([]types.LoadBalancer, 0, len(all))
	for _, lb := range all {
		if lb.InstanceIDs != nil {
			lbs = append(lbs, lb)
		}
	}

	inv.lbs = lbs
	inv.lbsLoaded = true
	return inv.lbs, nil
}

// ResolveLB looks a balancer up by exact name. Partial matches do not count.
func (inv *Inventory) ResolveLB(ctx context.Context, name string) (*types.LoadBalancer, error) {
	lbs, err := inv.LoadBalancers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range lbs {
		if lbs[i].Name == name {
			return &lbs[i], nil
		}
	}

	return nil, &NotFoundError{Name: name}
}

// CurrentInstance finds the snapshot instance the given host string refers
// to. Per instance, three checks apply in order: the Name tag is a prefix of
// the host string, the private address is a prefix of the host string, or the
// private address with dots replaced by dashes appears inside it. A nil
// result with nil error means no instance matched; callers treat that as
// "skip health gating".
func (inv *Inventory) CurrentInstance(ctx context.Context, host string) (*types.Instance, error) {
	instances, err := inv.Instances(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	for i := range instances {
		inst := &instances[i]
		if name := inst.Tags["Name"]; name != "" && strings.HasPrefix(host, name) {
			return inst, nil
		}
		if inst.PrivateIP != "" {
			if strings.HasPrefix(host, inst.PrivateIP) {
				return inst, nil
			}
			if strings.Contains(host, strings.ReplaceAll(inst.PrivateIP, ".", "-")) {
				return inst, nil
			}
		}
	}

	return nil, nil
}

// LoadBalancersFor returns every balancer the instance is registered with.
func (inv *Inventory) LoadBalancersFor(ctx context.Context, inst *types.Instance) ([]types.LoadBalancer, error) {
	lbs, err := inv.LoadBalancers(ctx)
	if err != nil {
		return nil, err
	}

	var memberships []types.LoadBalancer
	for _, lb := range lbs {
		if slices.Contains(lb.InstanceIDs, inst.ID) {
			memberships = append(memberships, lb)
		}
	}

	return memberships, nil
}
