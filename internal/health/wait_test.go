package health

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/inventory"
	"github.com/vandelay/stratus/pkg/types"
)

// fakeCloud backs both the inventory snapshot and the per-instance health
// polls. Health reports are queued per balancer; the last entry repeats.
type fakeCloud struct {
	instances []types.Instance
	lbs       []types.LoadBalancer

	reports map[string][][]types.InstanceHealth
	polls   map[string]int
}

func (f *fakeCloud) ListInstances(ctx context.Context, filters map[string][]string) ([]types.Instance, error) {
	return f.instances, nil
}

func (f *fakeCloud) ListLoadBalancers(ctx context.Context) ([]types.LoadBalancer, error) {
	return f.lbs, nil
}

func (f *fakeCloud) InstanceHealth(ctx context.Context, lbName, instanceID string) ([]types.InstanceHealth, error) {
	if f.polls == nil {
		f.polls = make(map[string]int)
	}
	f.polls[lbName]++

	queue := f.reports[lbName]
	if len(queue) == 0 {
		return nil, nil
	}
	states := queue[0]
	if len(queue) > 1 {
		f.reports[lbName] = queue[1:]
	}
	return states, nil
}

func inService(id string) []types.InstanceHealth {
	return []types.InstanceHealth{{InstanceID: id, State: types.HealthInService}}
}

func outOfService(id string) []types.InstanceHealth {
	return []types.InstanceHealth{{InstanceID: id, State: types.HealthOutOfService}}
}

// newTestWaiter wires a waiter to a fake clock. Sleeping advances the clock
// and counts.
func newTestWaiter(cloud *fakeCloud, poll time.Duration) (*Waiter, *int) {
	inv := inventory.New(cloud, config.Default())
	w := NewWaiter(inv, cloud, poll)

	now := time.Unix(1700000000, 0)
	sleeps := 0
	w.now = func() time.Time { return now }
	w.sleep = func(d time.Duration) {
		now = now.Add(d)
		sleeps++
	}
	w.out = io.Discard
	return w, &sleeps
}

func singleHostCloud(lbNames ...string) *fakeCloud {
	cloud := &fakeCloud{
		instances: []types.Instance{{ID: "i-1", PrivateIP: "10.3.104.23", Tags: map[string]string{}}},
		reports:   make(map[string][][]types.InstanceHealth),
	}
	for _, name := range lbNames {
		cloud.lbs = append(cloud.lbs, types.LoadBalancer{Name: name, InstanceIDs: []string{"i-1"}})
	}
	return cloud
}

func TestWaitInReturnsImmediatelyWhenInService(t *testing.T) {
	cloud := singleHostCloud("bapi-test-i")
	cloud.reports["bapi-test-i"] = [][]types.InstanceHealth{inService("i-1")}
	w, sleeps := newTestWaiter(cloud, 5*time.Second)

	err := w.WaitIn(context.Background(), "10.3.104.23", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, *sleeps)
}

func TestWaitOutSucceedsAfterOneSleep(t *testing.T) {
	cloud := singleHostCloud("bapi-test-i")
	cloud.reports["bapi-test-i"] = [][]types.InstanceHealth{
		inService("i-1"),
		outOfService("i-1"),
	}
	w, sleeps := newTestWaiter(cloud, 5*time.Second)

	err := w.WaitOut(context.Background(), "10.3.104.23", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, *sleeps)
}

func TestWaitOutTimeoutNamesOnlyStuckBalancers(t *testing.T) {
	cloud := singleHostCloud("bapi-test-i", "bapi-test-e")
	cloud.reports["bapi-test-i"] = [][]types.InstanceHealth{outOfService("i-1")}
	cloud.reports["bapi-test-e"] = [][]types.InstanceHealth{inService("i-1")}
	w, _ := newTestWaiter(cloud, 5*time.Second)

	err := w.WaitOut(context.Background(), "10.3.104.23", 10*time.Second)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "10.3.104.23", timeout.Host)
	assert.Equal(t, 10*time.Second, timeout.Timeout)
	assert.Equal(t, []string{"bapi-test-e"}, timeout.Pending)

	// The satisfied balancer was dropped from the wait set and never
	// re-polled.
	assert.Equal(t, 1, cloud.polls["bapi-test-i"])
}

func TestZeroTimeoutFailsWithoutSleeping(t *testing.T) {
	cloud := singleHostCloud("bapi-test-i")
	cloud.reports["bapi-test-i"] = [][]types.InstanceHealth{inService("i-1")}
	w, sleeps := newTestWaiter(cloud, 5*time.Second)

	err := w.WaitOut(context.Background(), "10.3.104.23", 0)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 0, *sleeps)
}

func TestEmptyHealthReportAsymmetry(t *testing.T) {
	// A balancer with no record of the instance counts as out, but never as
	// in.
	cloud := singleHostCloud("bapi-test-i")
	w, sleeps := newTestWaiter(cloud, 5*time.Second)
	require.NoError(t, w.WaitOut(context.Background(), "10.3.104.23", 0))
	assert.Equal(t, 0, *sleeps)

	cloud = singleHostCloud("bapi-test-i")
	w, _ = newTestWaiter(cloud, 5*time.Second)
	err := w.WaitIn(context.Background(), "10.3.104.23", 0)
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, []string{"bapi-test-i"}, timeout.Pending)
}

func TestUnknownHostIsANoOp(t *testing.T) {
	cloud := singleHostCloud("bapi-test-i")
	w, sleeps := newTestWaiter(cloud, 5*time.Second)

	err := w.WaitIn(context.Background(), "203.0.113.9", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, *sleeps)
	assert.Empty(t, cloud.polls)
}

func TestWaitCoversOnlyMemberBalancers(t *testing.T) {
	cloud := singleHostCloud("bapi-test-i")
	cloud.lbs = append(cloud.lbs, types.LoadBalancer{Name: "other", InstanceIDs: []string{"i-9"}})
	cloud.reports["bapi-test-i"] = [][]types.InstanceHealth{inService("i-1")}
	w, _ := newTestWaiter(cloud, 5*time.Second)

	err := w.WaitIn(context.Background(), "10.3.104.23", 10*time.Second)
	require.NoError(t, err)
	assert.Zero(t, cloud.polls["other"])
}
