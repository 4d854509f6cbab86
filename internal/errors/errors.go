package errors

import (
	"errors"
	"fmt"
)

// Domain sentinels surfaced by services. Handlers map them to user guidance.
var (
	ErrNotRegistered       = errors.New("user is not registered")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOutOfStock          = errors.New("reward out of stock")
	ErrCodePoolExhausted   = errors.New("no unused redemption codes left")
	ErrNoActiveUser        = errors.New("no active user bound to the bin")
	ErrEventNotFound       = errors.New("event not found")
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an error code, an operator-facing message, and the message
// shown to the Telegram user.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("❌ Unexpected input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewNotFoundError(msg string, cause error) *AppError {
	return &AppError{
		Code:        "E110",
		Message:     msg,
		UserMessage: fmt.Sprintf("❌ %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewConflictError covers failed preconditions such as insufficient balance,
// exhausted stock, or an empty code pool. Nothing was mutated.
func NewConflictError(userMsg string, cause error) *AppError {
	return &AppError{
		Code:        "E120",
		Message:     fmt.Sprintf("conflict: %v", cause),
		UserMessage: userMsg,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("database error: %s", underlyingMsg),
		UserMessage: "🚫 A temporary problem occurred. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "🚫 The service is temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "❌ That action is not possible right now. Use /start to begin.",
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("⏳ Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}
