package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single purchase record. Records are created once and never updated.
type Transaction struct {
	ID              int             `json:"id"`
	CustomerID      int             `json:"customer_id"`
	ProductName     string          `json:"product_name"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"9.99"`
	TransactionDate time.Time       `json:"transaction_date"`
}
