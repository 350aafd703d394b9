package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/pkg/types"
)

type fakeProvider struct {
	instances []types.Instance
	lbs       []types.LoadBalancer

	instanceCalls int
	lbCalls       int
	gotFilters    map[string][]string
}

func (p *fakeProvider) ListInstances(ctx context.Context, filters map[string][]string) ([]types.Instance, error) {
	p.instanceCalls++
	p.gotFilters = filters
	return p.instances, nil
}

func (p *fakeProvider) ListLoadBalancers(ctx context.Context) ([]types.LoadBalancer, error) {
	p.lbCalls++
	return p.lbs, nil
}

func testSettings() config.Settings {
	set := config.Default()
	set.AppName = "bapi"
	set.VPCID = "vpc-0123"
	return set
}

func instance(id, ip, subnet string, tags map[string]string) types.Instance {
	if tags == nil {
		tags = map[string]string{}
	}
	return types.Instance{ID: id, PrivateIP: ip, SubnetID: subnet, Tags: tags, State: "running"}
}

func TestInstancesBuildsRemoteFilters(t *testing.T) {
	p := &fakeProvider{}
	set := testSettings()
	set.SecurityGroupID = "sg-42"
	inv := New(p, set)

	_, err := inv.Instances(context.Background(), ListOptions{
		Tags: map[string]string{set.EnvironmentTag: "test"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"vpc-0123"}, p.gotFilters["vpc-id"])
	assert.Equal(t, []string{"running"}, p.gotFilters["instance-state-name"])
	assert.Equal(t, []string{"sg-42"}, p.gotFilters["instance.group-id"])
	assert.Equal(t, []string{"test"}, p.gotFilters["tag:ChefEnvironment"])
}

func TestInstancesSubnetAllowList(t *testing.T) {
	p := &fakeProvider{instances: []types.Instance{
		instance("i-1", "10.0.1.1", "subnet-a", nil),
		instance("i-2", "10.0.2.1", "subnet-b", nil),
	}}
	inv := New(p, testSettings())

	got, err := inv.Instances(context.Background(), ListOptions{Subnets: []string{"subnet-a"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i-1", got[0].ID)
}

func TestInstancesExcludesDisabled(t *testing.T) {
	disabled := instance("i-2", "10.0.1.2", "subnet-a", map[string]string{"Disabled": ""})
	p := &fakeProvider{instances: []types.Instance{
		instance("i-1", "10.0.1.1", "subnet-a", nil),
		disabled,
	}}

	inv := New(p, testSettings())
	got, err := inv.Instances(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i-1", got[0].ID)

	// Disabled hosts come back when explicitly included.
	inv.Invalidate()
	got, err = inv.Instances(context.Background(), ListOptions{IncludeDisabled: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestInstancesFiltersByLBMembership(t *testing.T) {
	p := &fakeProvider{instances: []types.Instance{
		instance("i-1", "10.0.1.1", "subnet-a", nil),
		instance("i-2", "10.0.1.2", "subnet-a", nil),
	}}
	inv := New(p, testSettings())

	lb := &types.LoadBalancer{Name: "bapi-test-i", InstanceIDs: []string{"i-2"}}
	got, err := inv.Instances(context.Background(), ListOptions{LB: lb})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i-2", got[0].ID)
}

func TestInstancesMemoized(t *testing.T) {
	p := &fakeProvider{instances: []types.Instance{
		instance("i-1", "10.0.1.1", "subnet-a", nil),
	}}
	inv := New(p, testSettings())

	_, err := inv.Instances(context.Background(), ListOptions{})
	require.NoError(t, err)
	_, err = inv.Instances(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.instanceCalls)

	inv.Invalidate()
	_, err = inv.Instances(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.instanceCalls)
}

func TestLoadBalancersExcludeNilMembership(t *testing.T) {
	p := &fakeProvider{lbs: []types.LoadBalancer{
		{Name: "provisioning", InstanceIDs: nil},
		{Name: "empty", InstanceIDs: []string{}},
		{Name: "bapi-test-i", InstanceIDs: []string{"i-1"}},
	}}
	inv := New(p, testSettings())

	got, err := inv.LoadBalancers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "empty", got[0].Name)
	assert.Equal(t, "bapi-test-i", got[1].Name)

	_, err = inv.LoadBalancers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.lbCalls)
}

func TestResolveLBExactMatchOnly(t *testing.T) {
	p := &fakeProvider{lbs: []types.LoadBalancer{
		{Name: "bapi-test-i", InstanceIDs: []string{"i-1"}},
	}}
	inv := New(p, testSettings())

	lb, err := inv.ResolveLB(context.Background(), "bapi-test-i")
	require.NoError(t, err)
	assert.Equal(t, "bapi-test-i", lb.Name)

	_, err = inv.ResolveLB(context.Background(), "bapi-test")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "bapi-test", notFound.Name)
}

func TestCurrentInstanceMatchModes(t *testing.T) {
	p := &fakeProvider{instances: []types.Instance{
		instance("i-1", "10.3.104.23", "subnet-a", map[string]string{"Name": "bapi-test-1"}),
		instance("i-2", "10.3.104.56", "subnet-a", nil),
	}}
	inv := New(p, testSettings())
	ctx := context.Background()

	// Name tag prefix of the host string.
	inst, err := inv.CurrentInstance(ctx, "bapi-test-1.vandelay.io")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "i-1", inst.ID)

	// Private address prefix of the host string.
	inst, err = inv.CurrentInstance(ctx, "10.3.104.56")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "i-2", inst.ID)

	// Dashed private address inside the host string.
	inst, err = inv.CurrentInstance(ctx, "ip-10-3-104-56.us-west-1.compute.internal")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "i-2", inst.ID)
}

func TestCurrentInstanceAbsentIsNotAnError(t *testing.T) {
	p := &fakeProvider{instances: []types.Instance{
		instance("i-1", "10.3.104.23", "subnet-a", nil),
	}}
	inv := New(p, testSettings())

	inst, err := inv.CurrentInstance(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestLoadBalancersFor(t *testing.T) {
	p := &fakeProvider{
		instances: []types.Instance{instance("i-1", "10.3.104.23", "subnet-a", nil)},
		lbs: []types.LoadBalancer{
			{Name: "bapi-test-i", InstanceIDs: []string{"i-1", "i-2"}},
			{Name: "bapi-test-e", InstanceIDs: []string{"i-1"}},
			{Name: "other", InstanceIDs: []string{"i-9"}},
		},
	}
	inv := New(p, testSettings())

	inst := &types.Instance{ID: "i-1"}
	lbs, err := inv.LoadBalancersFor(context.Background(), inst)
	require.NoError(t, err)
	require.Len(t, lbs, 2)
	assert.Equal(t, "bapi-test-i", lbs[0].Name)
	assert.Equal(t, "bapi-test-e", lbs[1].Name)
}
