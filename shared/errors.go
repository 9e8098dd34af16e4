package shared

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is the single error type the HTTP layer understands. Every
// service failure is one of these; anything else is rendered as a generic
// 500 without leaking internals.
type AppError struct {
	StatusCode int
	ErrorType  string
	Message    string
	Field      string
	Value      interface{}
	Context    map[string]interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrorType, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	if appErr, ok := GetAppError(err); ok {
		return appErr.StatusCode == http.StatusNotFound
	}
	return false
}

func NewValidationError(field string, value interface{}, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		ErrorType:  "Validation Error",
		Message:    message,
		Field:      field,
		Value:      value,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		ErrorType:  "Bad Request",
		Message:    message,
		Err:        err,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		StatusCode: http.StatusUnauthorized,
		ErrorType:  "Unauthorized",
		Message:    message,
	}
}

func NewUserNotFoundError(email string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		ErrorType:  "User Not Found",
		Message:    fmt.Sprintf("User '%s' not found", email),
		Context:    map[string]interface{}{"email": email},
	}
}

func NewDeviceNotFoundError(deviceID string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		ErrorType:  "Device Not Found",
		Message:    fmt.Sprintf("Device '%s' not found", deviceID),
		Context:    map[string]interface{}{"device_id": deviceID},
	}
}

func NewEpisodeNotFoundError(season, episode int) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		ErrorType:  "Episode Not Found",
		Message:    fmt.Sprintf("Episode prompt for Season %d, Episode %d not found", season, episode),
		Context:    map[string]interface{}{"season": season, "episode": episode},
	}
}

func NewConversationNotFoundError(conversationID string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		ErrorType:  "Conversation Not Found",
		Message:    fmt.Sprintf("Conversation '%s' not found", conversationID),
		Context:    map[string]interface{}{"conversation_id": conversationID},
	}
}

func NewSummaryNotFoundError(conversationID string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		ErrorType:  "Summary Not Found",
		Message:    fmt.Sprintf("Summary for conversation '%s' not found", conversationID),
		Context:    map[string]interface{}{"conversation_id": conversationID},
	}
}

func NewAlreadyExistsError(entity, field string, value interface{}) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		ErrorType:  fmt.Sprintf("%s Already Exists", entity),
		Message:    fmt.Sprintf("%s with %s '%v' already exists", entity, field, value),
		Field:      field,
		Value:      value,
	}
}

func NewConflictError(message string, context map[string]interface{}) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		ErrorType:  "Conflict",
		Message:    message,
		Context:    context,
	}
}

// NewStoreError wraps a failed document store operation with enough
// context to reproduce it: operation, collection and document id.
func NewStoreError(operation, collection, documentID string, err error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		ErrorType:  "Store Error",
		Message:    fmt.Sprintf("document store %s failed", operation),
		Context: map[string]interface{}{
			"operation":  operation,
			"collection": collection,
			"document":   documentID,
		},
		Err: err,
	}
}

func NewRateLimitError(limit int, window time.Duration) *AppError {
	return &AppError{
		StatusCode: http.StatusTooManyRequests,
		ErrorType:  "Rate Limit Exceeded",
		Message:    fmt.Sprintf("Rate limit exceeded: %d requests per %s", limit, window),
		Context:    map[string]interface{}{"limit": limit, "window_seconds": int(window.Seconds())},
	}
}

func NewSecurityError(violationType, identifier string) *AppError {
	return &AppError{
		StatusCode: http.StatusForbidden,
		ErrorType:  "Security Violation",
		Message:    fmt.Sprintf("Security violation: %s", violationType),
		Context:    map[string]interface{}{"violation_type": violationType, "identifier": identifier},
	}
}
