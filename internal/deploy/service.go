package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/vandelay/stratus/internal/remote"
)

// ServiceEnable declares the host healthy by writing the marker file the
// balancer health check reads, then waits for the host to roll into its load
// balancers.
func (d *Deployer) ServiceEnable(ctx context.Context, wait time.Duration) error {
	_, err := d.run(ctx, remote.Command{
		Script: fmt.Sprintf(`echo -n "finding your center" > %s`, d.set.HealthFile),
	})
	if err != nil {
		return err
	}
	return d.waiter.WaitIn(ctx, d.host, wait)
}

// ServiceDisable removes the health marker file, then waits for the host to
// fall out of its load balancers.
func (d *Deployer) ServiceDisable(ctx context.Context, wait time.Duration) error {
	_, err := d.run(ctx, remote.Command{
		Script: fmt.Sprintf("[ ! -f %[1]s ] || rm %[1]s", d.set.HealthFile),
	})
	if err != nil {
		return err
	}
	return d.waiter.WaitOut(ctx, d.host, wait)
}

// ServiceStart starts the service and, unless skipped, enables it for
// traffic.
func (d *Deployer) ServiceStart(ctx context.Context, skipEnable bool, wait time.Duration) error {
	script := fmt.Sprintf("service %s start; sleep %d", d.set.AppName, d.set.StartupDelaySecs)
	if _, err := d.run(ctx, remote.Command{Script: script}); err != nil {
		return err
	}
	// Issued twice, the first start can lose a race with boot-time init.
	if _, err := d.run(ctx, remote.Command{Script: "service " + d.set.AppName + " start"}); err != nil {
		return err
	}

	if skipEnable {
		return nil
	}
	return d.ServiceEnable(ctx, wait)
}

// ServiceStop drains the host out of its load balancers, unless skipped, and
// stops the service.
func (d *Deployer) ServiceStop(ctx context.Context, skipDisable bool, wait time.Duration) error {
	if !skipDisable {
		if err := d.ServiceDisable(ctx, wait); err != nil {
			return err
		}
	}
	_, err := d.run(ctx, remote.Command{Script: "service " + d.set.AppName + " stop"})
	return err
}

// ServiceReload reloads the service in place.
func (d *Deployer) ServiceReload(ctx context.Context) error {
	_, err := d.run(ctx, remote.Command{Script: "service " + d.set.AppName + " reload"})
	return err
}

// ServiceRestart hard-restarts the service, draining traffic first and
// filling back in after.
func (d *Deployer) ServiceRestart(ctx context.Context) error {
	if err := d.ServiceDisable(ctx, d.set.WaitTimeout()); err != nil {
		return err
	}
	script := fmt.Sprintf("service %s restart; sleep %d", d.set.AppName, d.set.StartupDelaySecs)
	if _, err := d.run(ctx, remote.Command{Script: script}); err != nil {
		return err
	}
	return d.ServiceEnable(ctx, d.set.WaitTimeout())
}

// ServiceUp checks out code and reloads, or restarts, the service.
func (d *Deployer) ServiceUp(ctx context.Context, branch, commit string, restart bool) error {
	if err := d.CodeSync(ctx, branch, commit, true); err != nil {
		return err
	}
	if restart {
		if err := d.ServiceRestart(ctx); err != nil {
			return err
		}
	} else {
		if err := d.ServiceReload(ctx); err != nil {
			return err
		}
	}
	return d.ServiceStat(ctx)
}

// ServiceStat prints the checked-out revision, the supervisor status and the
// local health endpoint response.
func (d *Deployer) ServiceStat(ctx context.Context) error {
	if err := d.CodeStat(ctx); err != nil {
		return err
	}
	if _, err := d.run(ctx, remote.Command{Script: "service " + d.set.AppName + " status"}); err != nil {
		return err
	}
	_, err := d.run(ctx, remote.Command{Script: "curl 127.0.0.1:5000/health"})
	return err
}
