package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/vandelay/stratus/internal/config"
	"github.com/vandelay/stratus/internal/remote"
)

// PackageBuild builds a deb of the application tree (without the virtualenv)
// at the given version, optionally publishing it.
func (d *Deployer) PackageBuild(ctx context.Context, version, branch, commit string, publish bool) error {
	if err := d.CodeSync(ctx, branch, commit, true); err != nil {
		return err
	}

	commit, err := d.resolveCommit(ctx, commit)
	if err != nil {
		return err
	}

	app := d.set.AppName
	deb := fmt.Sprintf("%s_1.%s_all.deb", app, version)
	if _, err := d.run(ctx, remote.Command{
		Dir:    "~",
		Script: fmt.Sprintf("[ ! -f %[1]s ] || rm -f %[1]s", deb),
	}); err != nil {
		return err
	}

	out, err := d.run(ctx, remote.Command{
		Dir: "~",
		Script: fmt.Sprintf(
			`fpm -s dir -t deb -n %s -v %s -a all -x "*.git" -x "*.pyc" `+
				`--description "%s @ %s:%s" --deb-user=%s --deb-group=%s ~/%s`,
			app, version, app, branch, commit, d.set.User, d.set.User, app,
		),
	})
	if err != nil {
		return err
	}

	fileName, err := builtFileName(out)
	if err != nil {
		return err
	}

	if publish {
		return d.Publish(ctx, fileName)
	}
	return nil
}

// PackageBuildVenv builds a deb of the application virtualenv (without the
// library) at the given version, optionally publishing it.
func (d *Deployer) PackageBuildVenv(ctx context.Context, version, branch, commit string, publish bool) error {
	if err := d.CodeSync(ctx, branch, commit, true); err != nil {
		return err
	}

	commit, err := d.resolveCommit(ctx, commit)
	if err != nil {
		return err
	}

	app := d.set.AppName
	deb := fmt.Sprintf("%s-venv_%s_amd64.deb", app, version)
	if _, err := d.run(ctx, remote.Command{
		Dir:    "~",
		Script: fmt.Sprintf("[ ! -f %[1]s ] || rm -f %[1]s", deb),
	}); err != nil {
		return err
	}

	out, err := d.run(ctx, remote.Command{
		Dir: "~",
		Script: fmt.Sprintf(
			`fpm -s dir -t deb -n %s_venv -v %s `+
				`--description "%s virtual environment @ %s:%s" --deb-user=%s --deb-group=%s ~/.virtualenvs/%s`,
			app, version, app, branch, commit, d.set.User, d.set.User, app,
		),
	})
	if err != nil {
		return err
	}

	fileName, err := builtFileName(out)
	if err != nil {
		return err
	}

	if publish {
		return d.Publish(ctx, fileName)
	}
	return nil
}

// Publish uploads a built deb to the s3 bucket backing the apt repo.
// Credentials come from the environment or, when configured, from Secrets
// Manager; missing credentials fail before any remote command is issued.
func (d *Deployer) Publish(ctx context.Context, fileName string) error {
	accessKeyID := d.set.AccessKeyID
	secretAccessKey := d.set.SecretAccessKey

	if (accessKeyID == "" || secretAccessKey == "") && d.creds != nil && d.set.PublishSecret != "" {
		id, secret, err := d.creds.PublishCredentials(ctx, d.set.PublishSecret)
		if err != nil {
			return err
		}
		accessKeyID, secretAccessKey = id, secret
	}

	if accessKeyID == "" {
		return &config.MissingError{Key: "AWS_ACCESS_KEY_ID"}
	}
	if secretAccessKey == "" {
		return &config.MissingError{Key: "AWS_SECRET_ACCESS_KEY"}
	}

	_, err := d.run(ctx, remote.Command{
		Dir: "~",
		Script: fmt.Sprintf(
			"deb-s3 publish %s --bucket=%s --access-key-id=%s --secret-access-key=%s "+
				"--endpoint=%s --visibility=private --arch=amd64",
			fileName, d.set.S3Bucket, accessKeyID, secretAccessKey, d.set.S3Endpoint,
		),
	})
	return err
}

// resolveCommit pins HEAD to the concrete revision on the build host.
func (d *Deployer) resolveCommit(ctx context.Context, commit string) (string, error) {
	if commit != "HEAD" {
		return commit, nil
	}
	return d.run(ctx, remote.Command{Dir: d.appDir(), Script: "git rev-parse HEAD"})
}

// builtFileName pulls the quoted output path out of fpm's report line.
func builtFileName(out string) (string, error) {
	parts := strings.Split(out, `"`)
	if len(parts) < 3 {
		return "", fmt.Errorf("failed to find built package name in output %q", out)
	}
	return parts[len(parts)-2], nil
}
