package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"transaction-lookup/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Checked in this order; the first failure wins.
var requiredFields = []string{"customer_id", "product_name", "amount", "transaction_date"}

var transactionDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NUMERIC(12,2)
var maxAmount = decimal.New(1, 10)

// parseCreateRequest validates a creation payload and builds the record to insert.
// No store access happens here, so a rejected payload never causes a partial write.
func (s *TransactionService) parseCreateRequest(body []byte) (*model.Transaction, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	if fields == nil {
		return nil, &MalformedPayloadError{Err: errors.New("body is null")}
	}

	for _, name := range requiredFields {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, newMissingFieldError(name)
		}
	}

	customerID, err := parseCustomerID(fields["customer_id"])
	if err != nil {
		return nil, err
	}
	productName, err := parseProductName(fields["product_name"], s.policy.MaxProductNameLength)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(fields["amount"])
	if err != nil {
		return nil, err
	}
	date, err := parseTransactionDate(fields["transaction_date"])
	if err != nil {
		return nil, err
	}

	return &model.Transaction{
		CustomerID:      customerID,
		ProductName:     productName,
		Amount:          amount,
		TransactionDate: date,
	}, nil
}

// numericLiteral accepts a JSON number or a JSON string holding a number.
func numericLiteral(raw json.RawMessage) (decimal.Decimal, bool) {
	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Decimal{}, false
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseCustomerID(raw json.RawMessage) (int, error) {
	invalid := newInvalidFieldError("customer_id", "must be a positive integer")

	d, ok := numericLiteral(raw)
	if !ok || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, invalid
	}
	return int(d.IntPart()), nil
}

func parseProductName(raw json.RawMessage, maxLength int) (string, error) {
	rule := fmt.Sprintf("must be a non-empty string of at most %d characters", maxLength)

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", newInvalidFieldError("product_name", rule)
	}
	if strings.TrimSpace(name) == "" {
		return "", newInvalidFieldError("product_name", rule)
	}
	if err := validate.Var(name, fmt.Sprintf("max=%d", maxLength)); err != nil {
		return "", newInvalidFieldError("product_name", rule)
	}
	return name, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	invalid := newInvalidFieldError("amount", "must be a positive number with at most 2 decimal places")

	d, ok := numericLiteral(raw)
	if !ok || !d.IsPositive() || !d.Equal(d.Round(2)) || !d.LessThan(maxAmount) {
		return decimal.Decimal{}, invalid
	}
	return d, nil
}

func parseTransactionDate(raw json.RawMessage) (time.Time, error) {
	invalid := newInvalidFieldError("transaction_date", "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return time.Time{}, invalid
	}
	// The column has no time zone, so offsets are folded into UTC here.
	for _, layout := range transactionDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid
}
