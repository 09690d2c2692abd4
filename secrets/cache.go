package secrets

import (
	"context"
	"sync"
	"time"
)

// CachingProvider keeps the last credentials for ttl. A ttl of zero disables caching,
// so every call reaches the wrapped provider.
type CachingProvider struct {
	next Provider
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	cached    *Credentials
	fetchedAt time.Time
}

func NewCachingProvider(next Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{next: next, ttl: ttl, now: time.Now}
}

func (p *CachingProvider) Credentials(ctx context.Context) (*Credentials, error) {
	if p.ttl <= 0 {
		return p.next.Credentials(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		creds := *p.cached
		return &creds, nil
	}

	creds, err := p.next.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	stored := *creds
	p.cached = &stored
	p.fetchedAt = p.now()
	return creds, nil
}

// Invalidate drops the cached credentials, e.g. after the database rejected them.
func (p *CachingProvider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}
