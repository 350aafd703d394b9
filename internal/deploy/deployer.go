// Package deploy holds the per-host deployment tasks: code sync, service and
// worker control, and package build/publish. Each Deployer drives exactly one
// remote host, sequentially; any command failure aborts the task for that
// host.
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/remote"
)

// Waiter is the health-gating dependency: block until the host is in or out
// of its load balancers.
type Waiter interface {
	WaitIn(ctx context.Context, host string, timeout time.Duration) error
	WaitOut(ctx context.Context, host string, timeout time.Duration) error
}

// CredentialSource supplies publishing credentials when the environment has
// none.
type CredentialSource interface {
	PublishCredentials(ctx context.Context, name string) (accessKeyID, secretAccessKey string, err error)
}

// Deployer runs deployment tasks against one host.
type Deployer struct {
	runner remote.Runner
	waiter Waiter
	creds  CredentialSource
	set    config.Settings
	host   string
	out    io.Writer
}

// New returns a Deployer for the given host. creds may be nil when package
// publishing is not used.
func New(runner remote.Runner, waiter Waiter, creds CredentialSource, set config.Settings, host string) *Deployer {
	return &Deployer{
		runner: runner,
		waiter: waiter,
		creds:  creds,
		set:    set,
		host:   host,
		out:    os.Stdout,
	}
}

// Host returns the host string this deployer targets.
func (d *Deployer) Host() string {
	return d.host
}

func (d *Deployer) appDir() string {
	return "~/" + d.set.AppName
}

// run executes one remote command, echoing it, and returns trimmed stdout.
func (d *Deployer) run(ctx context.Context, cmd remote.Command) (string, error) {
	fmt.Fprintf(d.out, "[%s] run: %s\n", d.host, remote.Script(cmd))
	result, err := d.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if result.Stdout != "" {
		fmt.Fprintf(d.out, "[%s] out: %s\n", d.host, strings.TrimRight(result.Stdout, "\n"))
	}
	return strings.TrimSpace(result.Stdout), nil
}
