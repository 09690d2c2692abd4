package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"transaction-lookup/secrets"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rotatingProvider returns the queued credentials in order, repeating the last one.
type rotatingProvider struct {
	queue       []secrets.Credentials
	invalidated int
}

func (p *rotatingProvider) Credentials(context.Context) (*secrets.Credentials, error) {
	creds := p.queue[0]
	if len(p.queue) > 1 {
		p.queue = p.queue[1:]
	}
	return &creds, nil
}

func (p *rotatingProvider) Invalidate() { p.invalidated++ }

type failingProvider struct{}

func (failingProvider) Credentials(context.Context) (*secrets.Credentials, error) {
	return nil, errors.New("secret unavailable")
}

func TestManager_ReusesHandleForSameCredentials(t *testing.T) {
	mockDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	dbMock.ExpectClose()

	creds := secrets.Credentials{Host: "db", Port: 5432, Database: "shop", User: "app", Password: "one"}
	m := NewManager(&rotatingProvider{queue: []secrets.Credentials{creds}}, "disable")
	opened := 0
	m.open = func(driver, dsn string) (*sql.DB, error) {
		opened++
		assert.Equal(t, "postgres", driver)
		assert.Equal(t, "postgres://app:one@db:5432/shop?sslmode=disable", dsn)
		return mockDB, nil
	}

	for i := 0; i < 3; i++ {
		conn, err := m.Conn(context.Background())
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	assert.Equal(t, 1, opened)
	require.NoError(t, m.Close())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestManager_ReopensWhenCredentialsRotate(t *testing.T) {
	first, firstMock, err := sqlmock.New()
	require.NoError(t, err)
	second, secondMock, err := sqlmock.New()
	require.NoError(t, err)
	firstMock.ExpectClose()
	secondMock.ExpectClose()

	provider := &rotatingProvider{queue: []secrets.Credentials{
		{Host: "db", Port: 5432, Database: "shop", User: "app", Password: "old"},
		{Host: "db", Port: 5432, Database: "shop", User: "app", Password: "new"},
	}}
	m := NewManager(provider, "require")
	handles := []*sql.DB{first, second}
	m.open = func(string, string) (*sql.DB, error) {
		h := handles[0]
		handles = handles[1:]
		return h, nil
	}

	conn, err := m.Conn(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = m.Conn(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.NoError(t, firstMock.ExpectationsWereMet(), "old handle should be closed after rotation")
	require.NoError(t, m.Close())
	assert.NoError(t, secondMock.ExpectationsWereMet())
}

func TestManager_RotationKeepsRetiredHandleForPendingAcquire(t *testing.T) {
	first, firstMock, err := sqlmock.New()
	require.NoError(t, err)
	second, secondMock, err := sqlmock.New()
	require.NoError(t, err)
	firstMock.ExpectClose()
	secondMock.ExpectClose()

	m := NewManager(failingProvider{}, "disable")
	handles := []*sql.DB{first, second}
	m.open = func(string, string) (*sql.DB, error) {
		h := handles[0]
		handles = handles[1:]
		return h, nil
	}
	oldCreds := &secrets.Credentials{Host: "db", Port: 5432, Database: "shop", User: "app", Password: "old"}
	newCreds := &secrets.Credentials{Host: "db", Port: 5432, Database: "shop", User: "app", Password: "new"}

	pending, err := m.acquire(oldCreds)
	require.NoError(t, err)

	rotated, err := m.acquire(newCreds)
	require.NoError(t, err)
	m.release(rotated)

	conn, err := pending.db.Conn(context.Background())
	require.NoError(t, err, "retired handle must stay open until its pending acquire is released")
	m.release(pending)
	require.NoError(t, conn.Close())

	assert.NoError(t, firstMock.ExpectationsWereMet(), "retired handle should be closed after release")
	require.NoError(t, m.Close())
	assert.NoError(t, secondMock.ExpectationsWereMet())
}

// alternatingProvider switches the password on every call.
type alternatingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *alternatingProvider) Credentials(context.Context) (*secrets.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return &secrets.Credentials{Host: "db", Port: 5432, Database: "shop", User: "app", Password: fmt.Sprintf("v%d", p.calls%2)}, nil
}

func TestManager_ConcurrentRotation(t *testing.T) {
	m := NewManager(&alternatingProvider{}, "disable")
	m.open = func(string, string) (*sql.DB, error) {
		db, _, err := sqlmock.New()
		return db, err
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := m.Conn(context.Background())
			if err != nil {
				errs <- err
				return
			}
			conn.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	m.Close()
}

func TestManager_ProviderFailure(t *testing.T) {
	m := NewManager(failingProvider{}, "disable")

	_, err := m.Conn(context.Background())

	assert.ErrorContains(t, err, "secret unavailable")
}

func TestManager_ObserveInvalidatesOnAuthFailure(t *testing.T) {
	provider := &rotatingProvider{queue: []secrets.Credentials{{Host: "db"}}}
	m := NewManager(provider, "disable")

	m.observe(errors.New("connection refused"))
	assert.Equal(t, 0, provider.invalidated)

	m.observe(&pq.Error{Code: "28P01", Message: "password authentication failed"})
	assert.Equal(t, 1, provider.invalidated)
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, IsAuthFailure(&pq.Error{Code: "28P01"}))
	assert.True(t, IsAuthFailure(&pq.Error{Code: "28000"}))
	assert.False(t, IsAuthFailure(&pq.Error{Code: "23505"}))
	assert.False(t, IsAuthFailure(sql.ErrConnDone))
}

func TestDSN_EscapesPassword(t *testing.T) {
	creds := &secrets.Credentials{Host: "db", Port: 5432, Database: "shop", User: "app", Password: "p@ss word/"}

	dsn := DSN(creds, "verify-full")
	safe := SafeDSN(creds, "verify-full")

	assert.Equal(t, "postgres://app:p%40ss%20word%2F@db:5432/shop?sslmode=verify-full", dsn)
	assert.NotContains(t, safe, "p%40ss")
	assert.Equal(t, "postgres://app@db:5432/shop?sslmode=verify-full", safe)
}
