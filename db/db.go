package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"transaction-lookup/logger"
	"transaction-lookup/secrets"

	"github.com/lib/pq"
)

// Manager hands out request-scoped connections. Credentials are resolved on every
// call, and the underlying handle is reopened when they change.
type Manager struct {
	provider secrets.Provider
	sslMode  string
	open     func(driverName, dsn string) (*sql.DB, error)

	mu      sync.Mutex
	current *pooledHandle
}

// pooledHandle is a *sql.DB plus the number of callers still acquiring a
// connection from it. A retired handle is closed once that count drops to zero.
type pooledHandle struct {
	db        *sql.DB
	dsn       string
	acquiring int
	retired   bool
}

func NewManager(provider secrets.Provider, sslMode string) *Manager {
	return &Manager{
		provider: provider,
		sslMode:  sslMode,
		open:     sql.Open,
	}
}

// Conn returns a connection that the caller must Close.
func (m *Manager) Conn(ctx context.Context) (*sql.Conn, error) {
	creds, err := m.provider.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database credentials: %w", err)
	}

	h, err := m.acquire(creds)
	if err != nil {
		return nil, err
	}
	defer m.release(h)

	conn, err := h.db.Conn(ctx)
	if err != nil {
		m.observe(err)
		return nil, err
	}
	return conn, nil
}

// Ping checks that a connection can be established with the current credentials.
func (m *Manager) Ping(ctx context.Context) error {
	conn, err := m.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		m.observe(err)
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	err := m.current.db.Close()
	m.current = nil
	return err
}

// acquire returns the handle for creds, opening a new one on rotation. The
// caller must pass it to release once it has obtained its connection.
func (m *Manager) acquire(creds *secrets.Credentials) (*pooledHandle, error) {
	dsn := DSN(creds, m.sslMode)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.dsn == dsn {
		m.current.acquiring++
		return m.current, nil
	}

	log := logger.Log.WithField("connection", SafeDSN(creds, m.sslMode))
	log.Info("Opening database handle")

	db, err := m.open("postgres", dsn)
	if err != nil {
		log.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if old := m.current; old != nil {
		log.Info("Database credentials changed, retiring previous handle")
		old.retired = true
		if old.acquiring == 0 {
			closeHandle(old)
		}
	}

	m.current = &pooledHandle{db: db, dsn: dsn, acquiring: 1}
	return m.current, nil
}

func (m *Manager) release(h *pooledHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.acquiring--
	if h.retired && h.acquiring == 0 {
		closeHandle(h)
	}
}

// closeHandle closes idle connections now; connections already handed out are
// closed when their holders release them.
func closeHandle(h *pooledHandle) {
	if err := h.db.Close(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close previous database handle")
	}
}

// observe drops cached credentials when the server rejected them, so the next
// request picks up a rotated secret.
func (m *Manager) observe(err error) {
	if !IsAuthFailure(err) {
		return
	}
	logger.Log.WithError(err).Warn("Database rejected credentials, invalidating cache")
	if inv, ok := m.provider.(secrets.Invalidator); ok {
		inv.Invalidate()
	}
}

// IsAuthFailure reports whether err is a PostgreSQL authentication error
// (SQLSTATE 28000 invalid_authorization_specification or 28P01 invalid_password).
func IsAuthFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "28000" || pqErr.Code == "28P01"
}

func DSN(creds *secrets.Credentials, sslMode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(creds.User, creds.Password),
		Host:     net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port)),
		Path:     "/" + creds.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// SafeDSN is DSN without the password, for logging.
func SafeDSN(creds *secrets.Credentials, sslMode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(creds.User),
		Host:     net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port)),
		Path:     "/" + creds.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}
