package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"transaction-lookup/common"
	"transaction-lookup/render"
	"transaction-lookup/service"
)

const maxBodyBytes = 1 << 20

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with its dependencies.
func NewTransactionHandler(s *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// Dispatch routes a request on the transaction resource by method and Accept header.
// Browsers asking for HTML get the lookup form; everything else speaks JSON.
func (h *TransactionHandler) Dispatch(w http.ResponseWriter, r *http.Request) *common.AppError {
	switch {
	case r.Method == http.MethodGet && wantsHTML(r):
		h.ServeLookupPage(w, r)
		return nil
	case r.Method == http.MethodGet:
		return h.GetTransactions(w, r)
	case r.Method == http.MethodPost:
		return h.CreateTransaction(w, r)
	default:
		return common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// idParam joins repeated id parameters with a comma, as a function URL event
// does, so that they fail validation instead of silently using the first one.
func idParam(r *http.Request) string {
	return strings.Join(r.URL.Query()["id"], ",")
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// GetTransactions godoc
// @Summary      Get one transaction or list recent ones
// @Description  With an id, returns that transaction. Without one, returns up to 100 transactions, newest transaction_date first.
// @Tags         transactions
// @Produce      json
// @Param        id   query     int  false  "Transaction ID (1-999999)"
// @Success      200  {object}  model.Transaction "A single transaction, or an array of them when id is omitted"
// @Failure      400  {object}  common.AppError "Invalid transaction ID"
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Failure      500  {object}  common.AppError "Database error"
// @Router       / [get]
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	rawID := idParam(r)
	if rawID == "" {
		transactions, err := h.service.ListRecent(r.Context())
		if err != nil {
			return toAppError(err)
		}
		common.WriteJSON(w, http.StatusOK, transactions)
		return nil
	}

	transaction, err := h.service.GetTransaction(r.Context(), rawID)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, transaction)
	return nil
}

// CreateTransaction godoc
// @Summary      Create a transaction
// @Description  Validates the payload and stores a new transaction. customer_id and amount may be JSON numbers or numeric strings.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        transaction body handler.CreateTransactionRequest true "Transaction to create"
// @Success      201  {object}  model.Transaction
// @Failure      400  {object}  common.AppError "Missing or invalid field, or malformed body"
// @Failure      500  {object}  common.AppError "Database error"
// @Router       / [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return toAppError(&service.MalformedPayloadError{Err: err})
	}

	transaction, err := h.service.CreateTransaction(r.Context(), body)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusCreated, transaction)
	return nil
}

// CreateTransactionRequest documents the POST body.
type CreateTransactionRequest struct {
	CustomerID      int    `json:"customer_id" example:"7"`
	ProductName     string `json:"product_name" example:"Widget"`
	Amount          string `json:"amount" example:"9.99"`
	TransactionDate string `json:"transaction_date" example:"2024-01-01"`
}

// ServeLookupPage renders the lookup form. Failures are shown inline on the page
// with the matching status code rather than as JSON.
func (h *TransactionHandler) ServeLookupPage(w http.ResponseWriter, r *http.Request) {
	maxID := h.service.Policy().MaxTransactionID
	rawID := idParam(r)
	page := render.LookupPage{MaxID: maxID, Query: rawID}

	if rawID == "" {
		render.WriteLookup(w, http.StatusOK, page)
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), rawID)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			page.Error = fmt.Sprintf("Invalid Transaction ID. Please enter a positive integer (1-%d).", maxID)
			render.WriteLookup(w, http.StatusBadRequest, page)
		case errors.Is(err, service.ErrTransactionNotFound):
			page.Error = fmt.Sprintf("Transaction ID %s not found.", rawID)
			render.WriteLookup(w, http.StatusNotFound, page)
		default:
			toAppError(err).Log()
			page.Error = err.Error()
			render.WriteLookup(w, http.StatusInternalServerError, page)
		}
		return
	}

	page.Transaction = transaction
	render.WriteLookup(w, http.StatusOK, page)
}

// toAppError maps service errors onto HTTP statuses.
func toAppError(err error) *common.AppError {
	var (
		vErr *service.ValidationError
		mErr *service.MalformedPayloadError
		dErr *service.DataAccessError
	)
	switch {
	case errors.As(err, &vErr):
		return common.NewAppError(http.StatusBadRequest, vErr.Message, nil)
	case errors.As(err, &mErr):
		return common.NewAppError(http.StatusBadRequest, mErr.Error(), err)
	case errors.Is(err, service.ErrTransactionNotFound):
		return common.NewAppError(http.StatusNotFound, "Transaction not found", nil)
	case errors.As(err, &dErr):
		return common.NewAppError(http.StatusInternalServerError, dErr.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, err.Error(), err)
	}
}
