package common

import (
	"encoding/json"
	"net/http"
	"transaction-lookup/logger"

	"github.com/sirupsen/logrus"
)

// AppError is the JSON error envelope: {"error": "<message>"}.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Log records the underlying error, if any.
func (e *AppError) Log() {
	if e.Err == nil {
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"status_code":    e.Code,
		"internal_error": e.Err.Error(),
	}).Error(e.Message)
}

func (e *AppError) Send(w http.ResponseWriter) {
	e.Log()
	WriteJSON(w, e.Code, e)
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode JSON response")
	}
}
