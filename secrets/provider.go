// Package secrets supplies the database connection parameters. Credentials can come
// from AWS Secrets Manager or from static configuration, optionally cached in-process.
package secrets

import (
	"context"
	"errors"
)

var ErrIncompleteCredentials = errors.New("database credentials are incomplete")

// Credentials are the parameters needed to open a PostgreSQL connection.
type Credentials struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Provider returns the current credentials. Implementations may perform network calls.
type Provider interface {
	Credentials(ctx context.Context) (*Credentials, error)
}

// Invalidator is implemented by providers that hold credentials between calls.
type Invalidator interface {
	Invalidate()
}

func (c *Credentials) validate() error {
	if c.Host == "" || c.User == "" || c.Database == "" {
		return ErrIncompleteCredentials
	}
	return nil
}

// StaticProvider serves a fixed set of credentials, typically taken from config.yml.
type StaticProvider struct {
	creds Credentials
}

func NewStaticProvider(creds Credentials) *StaticProvider {
	return &StaticProvider{creds: creds}
}

func (p *StaticProvider) Credentials(ctx context.Context) (*Credentials, error) {
	if err := p.creds.validate(); err != nil {
		return nil, err
	}
	creds := p.creds
	return &creds, nil
}
