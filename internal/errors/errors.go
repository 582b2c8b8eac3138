// Package errors defines the application error type and the JSON envelopes
// used to report failures and successes over HTTP.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal   ErrorCode = "INTERNAL_ERROR"
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeDataLoad   ErrorCode = "DATA_LOAD_ERROR"
	CodeRateLimit  ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// statusByCode maps codes to HTTP statuses. Codes not listed are 500.
var statusByCode = map[ErrorCode]int{
	CodeValidation: http.StatusBadRequest,
	CodeNotFound:   http.StatusNotFound,
	CodeRateLimit:  http.StatusTooManyRequests,
}

const unexpectedMessage = "An unexpected error occurred"

// AppError is an error that knows how it should be presented to a client.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Wrap builds an AppError for code. err may be nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func New(code ErrorCode, message string) *AppError { return Wrap(nil, code, message) }

func Internal(message string) *AppError   { return New(CodeInternal, message) }
func Validation(message string) *AppError { return New(CodeValidation, message) }
func NotFound(message string) *AppError   { return New(CodeNotFound, message) }
func RateLimit(message string) *AppError  { return New(CodeRateLimit, message) }

func ValidationWrap(err error, message string) *AppError {
	return Wrap(err, CodeValidation, message)
}

// DataLoad reports a dataset that exists but could not be read. The cause is
// exposed to the client in Details.
func DataLoad(err error, message string) *AppError {
	appErr := Wrap(err, CodeDataLoad, message)
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// As returns err as an AppError. Anything that is not one becomes an
// internal error with a generic message, keeping err as the cause.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternal, unexpectedMessage)
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

// WriteError writes the error envelope for err and logs the failure. Client
// errors log at warn, everything else at error.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	appErr := As(err)
	appErr.RequestID = requestID

	attrs := []slog.Attr{
		slog.String("error_code", string(appErr.Code)),
		slog.Int("status_code", appErr.StatusCode),
		slog.String("request_id", requestID),
	}
	if appErr.Cause != nil {
		attrs = append(attrs, slog.Any("cause", appErr.Cause))
	}

	if encodeErr := encode(w, appErr.StatusCode, ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.LogAttrs(context.Background(), slog.LevelError, "failed to encode error response",
			append(attrs, slog.Any("encode_error", encodeErr))...)
		return
	}

	level := slog.LevelError
	if appErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.LogAttrs(context.Background(), level, appErr.Message, attrs...)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, SuccessResponse{Data: data, Success: true})
}

// WriteJSON writes a document as-is with status 200. Report documents carry
// their own status flag and are not wrapped.
func WriteJSON(w http.ResponseWriter, document any) {
	_ = encode(w, http.StatusOK, document)
}

func WriteJSONWithHeaders(w http.ResponseWriter, document any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteJSON(w, document)
}

func encode(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
