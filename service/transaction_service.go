package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
	"transaction-lookup/common"
	"transaction-lookup/config"
	"transaction-lookup/logger"
	"transaction-lookup/model"
	"transaction-lookup/repository"

	"github.com/sirupsen/logrus"
)

type TransactionService struct {
	repo     repository.ITransactionRepository
	cache    ICacheClient
	cacheTTL time.Duration
	policy   config.Policy
}

// NewTransactionService wires the service. cache may be nil to disable lookup caching.
func NewTransactionService(repo repository.ITransactionRepository, cache ICacheClient, cacheTTL time.Duration, policy config.Policy) *TransactionService {
	return &TransactionService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		policy:   policy,
	}
}

func (s *TransactionService) Policy() config.Policy {
	return s.policy
}

// ValidateID checks a raw identifier from the query string and converts it.
func (s *TransactionService) ValidateID(rawID string) (int, error) {
	if !common.ValidTransactionID(rawID, s.policy.MaxTransactionID) {
		return 0, &ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("Invalid transaction ID: must be a positive integer (1-%d)", s.policy.MaxTransactionID),
		}
	}
	id, _ := strconv.Atoi(rawID)
	return id, nil
}

// GetTransaction returns ErrTransactionNotFound for an absent id; any other error
// is a *ValidationError or a *DataAccessError.
func (s *TransactionService) GetTransaction(ctx context.Context, rawID string) (*model.Transaction, error) {
	id, err := s.ValidateID(rawID)
	if err != nil {
		return nil, err
	}

	if t, ok := s.cachedTransaction(ctx, id); ok {
		logger.Log.WithField("transaction_id", id).Debug("Transaction served from cache")
		return t, nil
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, &DataAccessError{Err: err}
	}

	s.cacheTransaction(ctx, t)
	return t, nil
}

// ListRecent returns the newest transactions, capped by the list limit policy.
func (s *TransactionService) ListRecent(ctx context.Context) ([]*model.Transaction, error) {
	transactions, err := s.repo.ListRecent(ctx, s.policy.ListLimit)
	if err != nil {
		return nil, &DataAccessError{Err: err}
	}
	return transactions, nil
}

// CreateTransaction validates body and inserts the record. Validation failures are
// reported before the store is touched.
func (s *TransactionService) CreateTransaction(ctx context.Context, body []byte) (*model.Transaction, error) {
	t, err := s.parseCreateRequest(body)
	if err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"customer_id": t.CustomerID,
		"amount":      t.Amount.String(),
	})

	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, &DataAccessError{Err: err}
	}

	log.WithField("transaction_id", t.ID).Info("Transaction created")
	s.cacheTransaction(ctx, t)
	return t, nil
}
