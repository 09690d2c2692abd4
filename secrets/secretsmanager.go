package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"transaction-lookup/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const defaultPostgresPort = 5432

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider reads an RDS-style secret on every call.
type SecretsManagerProvider struct {
	client   SecretsManagerAPI
	secretID string
}

// rdsSecret is the JSON layout RDS writes for managed master credentials.
type rdsSecret struct {
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DBName   string      `json:"dbname"`
	Username string      `json:"username"`
	Password string      `json:"password"`
}

// NewSecretsManagerProvider builds a client from the default AWS credential chain.
func NewSecretsManagerProvider(ctx context.Context, region, secretID string) (*SecretsManagerProvider, error) {
	if secretID == "" {
		return nil, errors.New("secret id is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewSecretsManagerProviderWithClient(secretsmanager.NewFromConfig(cfg), secretID), nil
}

func NewSecretsManagerProviderWithClient(client SecretsManagerAPI, secretID string) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client, secretID: secretID}
}

func (p *SecretsManagerProvider) Credentials(ctx context.Context) (*Credentials, error) {
	log := logger.Log.WithField("secret_id", p.secretID)
	log.Debug("Fetching database credentials from Secrets Manager")

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretID),
	})
	if err != nil {
		log.WithError(err).Error("Failed to fetch secret value")
		return nil, fmt.Errorf("failed to fetch secret %s: %w", p.secretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", p.secretID)
	}

	return parseRDSSecret(*out.SecretString)
}

func parseRDSSecret(raw string) (*Credentials, error) {
	var secret rdsSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return nil, fmt.Errorf("failed to decode secret: %w", err)
	}

	port := defaultPostgresPort
	if secret.Port != "" {
		p, err := strconv.Atoi(secret.Port.String())
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid port %q in secret", secret.Port)
		}
		port = p
	}

	creds := &Credentials{
		Host:     secret.Host,
		Port:     port,
		Database: secret.DBName,
		User:     secret.Username,
		Password: secret.Password,
	}
	if err := creds.validate(); err != nil {
		return nil, err
	}
	return creds, nil
}
