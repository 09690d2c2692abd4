// file: service/cache.go

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"transaction-lookup/logger"
	"transaction-lookup/model"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client. *redis.Client satisfies it.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func transactionCacheKey(id int) string {
	return fmt.Sprintf("transaction:%d", id)
}

// cachedTransaction returns (nil, false) on a miss or on any cache failure.
func (s *TransactionService) cachedTransaction(ctx context.Context, id int) (*model.Transaction, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, transactionCacheKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).WithField("transaction_id", id).Warn("Cache read failed")
		}
		return nil, false
	}

	var t model.Transaction
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		logger.Log.WithError(err).WithField("transaction_id", id).Warn("Discarding undecodable cache entry")
		return nil, false
	}
	return &t, true
}

// cacheTransaction stores t. Records never change, so entries only expire.
func (s *TransactionService) cacheTransaction(ctx context.Context, t *model.Transaction) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, transactionCacheKey(t.ID), data, s.cacheTTL).Err(); err != nil {
		logger.Log.WithError(err).WithField("transaction_id", t.ID).Warn("Cache write failed")
	}
}
