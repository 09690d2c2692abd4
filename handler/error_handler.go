package handler

import (
	"fmt"
	"net/http"
	"transaction-lookup/common"
	"transaction-lookup/logger"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// MethodGuard answers 405 for anything but GET and POST, whatever the path.
func MethodGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil).Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecoverMiddleware turns a panic into a 500 carrying the panic message.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("%v", rec)
				logger.Log.WithField("path", r.URL.Path).WithError(err).Error("Recovered from panic")
				common.NewAppError(http.StatusInternalServerError, err.Error(), err).Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
