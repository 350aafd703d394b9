// Package health blocks deploy actions on load-balancer reported instance
// health: drain before stopping, fill before declaring a start done.
package health

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vandelay/stratus/internal/inventory"
	"github.com/vandelay/stratus/pkg/types"
)

// API is the per-instance health query the wait loop polls.
type API interface {
	InstanceHealth(ctx context.Context, lbName, instanceID string) ([]types.InstanceHealth, error)
}

// TimeoutError reports a wait that ran out of time, naming the balancers
// still holding it up.
type TimeoutError struct {
	Host    string
	Timeout time.Duration
	Pending []string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting on host %q health for lb(s) %s",
		e.Timeout, e.Host, strings.Join(e.Pending, ", "))
}

// Waiter polls load-balancer health for one instance until a target condition
// holds on every balancer it belongs to, or a deadline passes.
type Waiter struct {
	inv  *inventory.Inventory
	api  API
	poll time.Duration

	now   func() time.Time
	sleep func(time.Duration)
	out   io.Writer
}

// NewWaiter returns a Waiter with the given poll interval.
func NewWaiter(inv *inventory.Inventory, api API, poll time.Duration) *Waiter {
	return &Waiter{
		inv:   inv,
		api:   api,
		poll:  poll,
		now:   time.Now,
		sleep: time.Sleep,
		out:   os.Stdout,
	}
}

// WaitIn blocks until every balancer the host belongs to reports it
// InService. The condition needs a non-empty health report: a balancer that
// has no record of the instance does not count as in.
func (w *Waiter) WaitIn(ctx context.Context, host string, timeout time.Duration) error {
	return w.wait(ctx, host, timeout, func(states []types.InstanceHealth) bool {
		return len(states) > 0 && states[0].State == types.HealthInService
	})
}

// WaitOut blocks until every balancer the host belongs to reports it
// OutOfService. A balancer with no record of the instance counts as out.
func (w *Waiter) WaitOut(ctx context.Context, host string, timeout time.Duration) error {
	return w.wait(ctx, host, timeout, func(states []types.InstanceHealth) bool {
		return len(states) == 0 || states[0].State == types.HealthOutOfService
	})
}

func (w *Waiter) wait(ctx context.Context, host string, timeout time.Duration, satisfied func([]types.InstanceHealth) bool) error {
	inst, err := w.inv.CurrentInstance(ctx, host)
	if err != nil {
		return err
	}
	if inst == nil {
		// Best effort: a host outside the inventory is not gated.
		fmt.Fprintf(w.out, "[%s] local: no inventory match, skipping health wait\n", host)
		return nil
	}

	pending, err := w.inv.LoadBalancersFor(ctx, inst)
	if err != nil {
		return err
	}

	deadline := w.now().Add(timeout)
	for {
		// Balancers already satisfied are dropped and never re-polled.
		var still []types.LoadBalancer
		for _, lb := range pending {
			states, err := w.api.InstanceHealth(ctx, lb.Name, inst.ID)
			if err != nil {
				return err
			}
			if !satisfied(states) {
				still = append(still, lb)
			}
		}
		pending = still

		if len(pending) == 0 {
			return nil
		}
		if !w.now().Before(deadline) {
			return &TimeoutError{Host: host, Timeout: timeout, Pending: lbNames(pending)}
		}

		fmt.Fprintf(w.out, "[%s] local: waiting %s for lb(s) %s\n",
			host, w.poll, strings.Join(lbNames(pending), ", "))
		w.sleep(w.poll)
	}
}

func lbNames(lbs []types.LoadBalancer) []string {
	names := make([]string, len(lbs))
	for i, lb := range lbs {
		names[i] = lb.Name
	}
	return names
}
