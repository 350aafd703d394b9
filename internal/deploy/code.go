package deploy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vandelay/stratus/internal/remote"
)

// CodeSync checks the application tree out at branch, optionally pinned to a
// commit. The commit must be contained in the branch. clearCached purges
// stale bytecode through a login shell.
func (d *Deployer) CodeSync(ctx context.Context, branch, commit string, clearCached bool) error {
	dir := d.appDir()

	if _, err := d.run(ctx, remote.Command{Dir: dir, Script: "git fetch"}); err != nil {
		return err
	}
	if _, err := d.run(ctx, remote.Command{Dir: dir, Script: "git checkout " + branch}); err != nil {
		return err
	}

	if commit != "HEAD" {
		out, err := d.run(ctx, remote.Command{
			Dir:    dir,
			Script: fmt.Sprintf("git branch --contains %s | grep %s | wc -l", commit, branch),
		})
		if err != nil {
			return err
		}
		count, err := strconv.Atoi(out)
		if err != nil {
			return fmt.Errorf("failed to parse branch containment check %q: %w", out, err)
		}
		if count == 0 {
			return fmt.Errorf("commit %q is not a part of %q branch", commit, branch)
		}
		if _, err := d.run(ctx, remote.Command{Dir: dir, Script: "git checkout " + commit}); err != nil {
			return err
		}
	}

	if clearCached {
		_, err := d.run(ctx, remote.Command{
			Dir:        dir,
			Script:     `find -type f -regex '.+\.pyc' -exec rm -rf {} \;`,
			LoginShell: true,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// CodeStat echoes the checked-out branch and commit.
func (d *Deployer) CodeStat(ctx context.Context) error {
	_, err := d.run(ctx, remote.Command{
		Dir:    d.appDir(),
		Script: "echo `git rev-parse --abbrev-ref HEAD`:`git rev-parse --verify HEAD`",
	})
	return err
}

// MigrateDB applies pending database migrations.
func (d *Deployer) MigrateDB(ctx context.Context) error {
	_, err := d.run(ctx, remote.Command{
		Dir:        d.appDir(),
		Script:     "./scripts/migrate-db upgrade",
		LoginShell: true,
	})
	return err
}

// Shells fails when any interactive application shell is still running under
// the deploy user.
func (d *Deployer) Shells(ctx context.Context) error {
	_, err := d.run(ctx, remote.Command{
		Script:     fmt.Sprintf(`[ -z `+"`"+`pgrep -f "^python.*shell$" -u %s`+"`"+` ]`, d.set.User),
		LoginShell: true,
	})
	return err
}
