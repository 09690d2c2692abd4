package router

import (
	"net/http"
	"transaction-lookup/handler"

	_ "transaction-lookup/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter serves the transaction resource on every path not claimed by
// /health or /swagger/, matching the single-endpoint contract of the function URL.
func NewRouter(transactionHandler *handler.TransactionHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	mux.Handle("/", handler.ErrorHandlingMiddleware(transactionHandler.Dispatch))

	return handler.RecoverMiddleware(handler.MethodGuard(mux))
}
