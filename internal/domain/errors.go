package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicate             = errors.New("duplicate")
	ErrInvalidInput          = errors.New("invalid input")
	ErrRateLimit             = errors.New("rate limit exceeded")
	ErrAuthInvalid           = errors.New("authentication failed")
	ErrProviderNotConfigured = errors.New("llm provider not configured")
	ErrToolNotFound          = errors.New("tool not found")
	ErrNoActiveSpecialists   = errors.New("no active specialist agents")
	ErrConfigLoad            = errors.New("failed to load configuration")
)

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g., "Orchestrator.Orchestrate")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// RateLimitError is returned by provider adapters on HTTP 429. RetryAfter
// carries the server-provided delay when the response included one; zero
// means the caller should use its own backoff schedule.
type RateLimitError struct {
	RetryAfter time.Duration
	Detail     string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter, e.Detail)
	}
	return fmt.Sprintf("rate limited: %s", e.Detail)
}

// Unwrap lets errors.Is(err, ErrRateLimit) match.
func (e *RateLimitError) Unwrap() error { return ErrRateLimit }

// ErrorCode is a machine-parseable error category surfaced to callers so the
// excluded web layer can translate failures into user-facing prompts.
type ErrorCode string

const (
	CodeUnknown             ErrorCode = "UNKNOWN"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeDuplicate           ErrorCode = "DUPLICATE"
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeRateLimit           ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid         ErrorCode = "AUTH_INVALID"
	CodeProviderNotConfig   ErrorCode = "PROVIDER_NOT_CONFIGURED"
	CodeToolNotFound        ErrorCode = "TOOL_NOT_FOUND"
	CodeNoActiveSpecialists ErrorCode = "NO_ACTIVE_SPECIALISTS"
	CodeConfigLoad          ErrorCode = "CONFIG_LOAD"
)

// ErrorCodeOf maps an error chain to its ErrorCode.
func ErrorCodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoActiveSpecialists):
		return CodeNoActiveSpecialists
	case errors.Is(err, ErrRateLimit):
		return CodeRateLimit
	case errors.Is(err, ErrAuthInvalid):
		return CodeAuthInvalid
	case errors.Is(err, ErrProviderNotConfigured):
		return CodeProviderNotConfig
	case errors.Is(err, ErrToolNotFound):
		return CodeToolNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrDuplicate):
		return CodeDuplicate
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConfigLoad):
		return CodeConfigLoad
	default:
		return CodeUnknown
	}
}
