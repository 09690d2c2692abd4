package repository

import (
	"context"
	"database/sql"
	"transaction-lookup/logger"
	"transaction-lookup/model"

	"github.com/sirupsen/logrus"
)

// ConnSource hands out connections scoped to a single operation.
// Both *sql.DB and *db.Manager satisfy it.
type ConnSource interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// ITransactionRepository defines the contract for transaction database operations.
type ITransactionRepository interface {
	FindByID(ctx context.Context, id int) (*model.Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Transaction, error)
	Insert(ctx context.Context, transaction *model.Transaction) error
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	source ConnSource
}

func NewTransactionRepository(source ConnSource) *TransactionRepository {
	return &TransactionRepository{source: source}
}

const transactionColumns = `id, customer_id, product_name, amount, transaction_date`

// FindByID returns sql.ErrNoRows when no transaction has the given id.
func (r *TransactionRepository) FindByID(ctx context.Context, id int) (*model.Transaction, error) {
	log := logger.Log.WithField("transaction_id", id)
	log.Info("Executing query to get transaction by ID")

	conn, err := r.source.Conn(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to acquire database connection")
		return nil, err
	}
	defer conn.Close()

	var t model.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	err = conn.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.CustomerID, &t.ProductName, &t.Amount, &t.TransactionDate)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Transaction not found")
		} else {
			log.WithError(err).Error("Failed to execute get transaction by ID query")
		}
		return nil, err
	}
	return &t, nil
}

// ListRecent returns at most limit transactions, newest transaction_date first.
// Ties are broken by id so the order is stable.
func (r *TransactionRepository) ListRecent(ctx context.Context, limit int) ([]*model.Transaction, error) {
	log := logger.Log.WithField("limit", limit)
	log.Info("Executing query to list recent transactions")

	conn, err := r.source.Conn(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to acquire database connection")
		return nil, err
	}
	defer conn.Close()

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY transaction_date DESC, id DESC
		LIMIT $1`

	rows, err := conn.QueryContext(ctx, query, limit)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for recent transactions")
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.ProductName, &t.Amount, &t.TransactionDate); err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Failed while iterating transaction rows")
		return nil, err
	}

	return transactions, nil
}

// Insert stores a new transaction and fills in the id assigned by the database.
func (r *TransactionRepository) Insert(ctx context.Context, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"customer_id":      transaction.CustomerID,
		"amount":           transaction.Amount.String(),
		"transaction_date": transaction.TransactionDate,
	})
	log.Info("Executing query to create a new transaction")

	conn, err := r.source.Conn(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to acquire database connection")
		return err
	}
	defer conn.Close()

	query := `
		INSERT INTO transactions (customer_id, product_name, amount, transaction_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + transactionColumns

	err = conn.QueryRowContext(ctx, query,
		transaction.CustomerID, transaction.ProductName, transaction.Amount, transaction.TransactionDate,
	).Scan(&transaction.ID, &transaction.CustomerID, &transaction.ProductName, &transaction.Amount, &transaction.TransactionDate)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}
