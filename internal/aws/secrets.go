package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type publishSecret struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// PublishCredentials fetches the apt-repo publishing key pair from Secrets
// Manager. The secret is a JSON document with access_key_id and
// secret_access_key fields.
func (c *Client) PublishCredentials(ctx context.Context, name string) (string, string, error) {
	output, err := c.Secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &name,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	var sec publishSecret
	if err := json.Unmarshal([]byte(deref(output.SecretString)), &sec); err != nil {
		return "", "", fmt.Errorf("failed to parse secret %s: %w", name, err)
	}

	return sec.AccessKeyID, sec.SecretAccessKey, nil
}
