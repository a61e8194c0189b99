// Package secrets loads job credentials from the environment locally and from
// AWS Secrets Manager when running inside Lambda.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spiffcs/repobot/internal/log"
)

// Environment variables consulted by Load.
const (
	EnvLambdaTaskRoot = "LAMBDA_TASK_ROOT"
	EnvSecretName     = "AWS_SECRET_NAME"
	EnvSlackToken     = "SLACK_TOKEN"
)

// ErrMissingSecretString is returned when the secret has no string value.
var ErrMissingSecretString = errors.New("missing SecretString in output")

// Secrets holds the loaded credentials.
type Secrets struct {
	SlackToken string `json:"SLACK_TOKEN"`
}

// SecretsManagerAPI is the subset of *secretsmanager.Client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// InLambda reports whether the process runs inside AWS Lambda.
func InLambda() bool {
	return os.Getenv(EnvLambdaTaskRoot) != ""
}

// Load reads secrets from the environment, or from Secrets Manager when
// running inside Lambda. AWS_SECRET_NAME, when set, overrides secretName.
func Load(ctx context.Context, secretName string) (*Secrets, error) {
	if !InLambda() {
		return &Secrets{SlackToken: os.Getenv(EnvSlackToken)}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if name := os.Getenv(EnvSecretName); name != "" {
		secretName = name
	}
	return FromSecretsManager(ctx, secretsmanager.NewFromConfig(cfg), secretName)
}

// FromSecretsManager reads a JSON secret and decodes it into Secrets.
func FromSecretsManager(ctx context.Context, api SecretsManagerAPI, secretID string) (*Secrets, error) {
	if secretID == "" {
		return nil, fmt.Errorf("no secret name configured (set %s)", EnvSecretName)
	}
	log.Info("loading secrets", "secret", secretID)

	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return nil, ErrMissingSecretString
	}

	var s Secrets
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &s); err != nil {
		return nil, fmt.Errorf("failed to parse secret %s: %w", secretID, err)
	}
	return &s, nil
}
