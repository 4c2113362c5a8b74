package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/skillsenselab/auth-service/logger"
)

// managerAPI is the subset of the Secrets Manager client used here.
type managerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Manager is a Provider backed by AWS Secrets Manager. When the store is
// unreachable it falls back to the JWT_SECRET environment variable so local
// development works without AWS credentials.
type Manager struct {
	client     managerAPI
	secretName string
	log        *logger.Logger
}

// NewManager creates a Secrets Manager provider.
func NewManager(client managerAPI, secretName string, log *logger.Logger) *Manager {
	return &Manager{
		client:     client,
		secretName: secretName,
		log:        log.WithComponent("secrets"),
	}
}

// Fetch retrieves the current secret value from Secrets Manager.
func (m *Manager) Fetch(ctx context.Context) (Secret, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.secretName),
	})
	if err != nil {
		if fallback := os.Getenv("JWT_SECRET"); fallback != "" {
			m.log.Warn("Secrets Manager unreachable, using JWT_SECRET env fallback",
				logger.ErrorFields("fetch", err))
			return Secret{Value: fallback, Version: "env"}, nil
		}
		return Secret{}, fmt.Errorf("secrets: fetch %q: %w", m.secretName, err)
	}

	secret := Secret{Value: aws.ToString(out.SecretString), Version: aws.ToString(out.VersionId)}
	if secret.Value == "" {
		return Secret{}, fmt.Errorf("secrets: secret %q has an empty string value", m.secretName)
	}

	m.log.Debug("Signing secret fetched", map[string]interface{}{
		"secret_name": m.secretName,
		"version":     secret.Version,
	})
	return secret, nil
}
