package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Pipeline stage names, in execution order.
const (
	StageQueries     = "queries"
	StageRetrieve    = "retrieve"
	StageExtract     = "extract"
	StageCompetitors = "competitors"
	StageRollup      = "rollup"
	StageAssemble    = "assemble"
)

// Error codes reported to callers by ErrorCode.
const (
	CodeInvalidInput         = "invalid_input"
	CodeNoEvidence           = "no_evidence"
	CodeSchemaValidation     = "schema_validation"
	CodeProviderUnavailable  = "provider_unavailable"
	CodeInsufficientEvidence = "insufficient_evidence"
	CodeCanceled             = "canceled"
	CodeInternal             = "internal"
)

// ErrNoEvidence is returned when retrieval produced zero usable snippets.
var ErrNoEvidence = errors.New("no usable evidence retrieved")

// InvalidInputError reports a missing or malformed company input field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// ProviderTimeoutError reports a search, fetch or LLM call that ran out of time.
type ProviderTimeoutError struct {
	Provider string
	Err      error
}

func (e *ProviderTimeoutError) Error() string {
	if e.Err == nil {
		return e.Provider + ": timeout"
	}
	return fmt.Sprintf("%s: timeout: %v", e.Provider, e.Err)
}

func (e *ProviderTimeoutError) Unwrap() error { return e.Err }

// ProviderHTTPError reports a non-2xx provider response.
type ProviderHTTPError struct {
	Provider string
	Status   int
	Body     string
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *ProviderHTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return fmt.Sprintf("%s: status code: %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: status code: %d body=%s", e.Provider, e.Status, body)
}

// Retryable reports whether the status is worth another attempt.
func (e *ProviderHTTPError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// RetryDelay is the server-requested wait from Retry-After, 0 when absent.
func (e *ProviderHTTPError) RetryDelay() time.Duration { return e.RetryAfter }

// FieldError is one validation failure at a dotted field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// SchemaValidationError is a document that stayed invalid after Attempts calls.
type SchemaValidationError struct {
	Attempts int
	Errors   []FieldError
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for i, fe := range e.Errors {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Errors)-5))
			break
		}
		parts = append(parts, fe.String())
	}
	return fmt.Sprintf("schema validation failed after %d attempt(s): %s", e.Attempts, strings.Join(parts, "; "))
}

// InsufficientEvidenceError rejects a single competitor candidate. It never
// escapes the discovery stage.
type InsufficientEvidenceError struct {
	Candidate string
	Reason    string
}

func (e *InsufficientEvidenceError) Error() string {
	return fmt.Sprintf("insufficient evidence for %s: %s", e.Candidate, e.Reason)
}

// StageError wraps an error with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageNameFromError returns the failing stage, "" when err carries none.
func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *ProviderTimeoutError
	if errors.As(err, &te) {
		return true
	}
	var he *ProviderHTTPError
	if errors.As(err, &he) {
		return he.Retryable()
	}
	return false
}

// ErrorCode maps a pipeline error onto the stable code surfaced to callers.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		inv *InvalidInputError
		sv  *SchemaValidationError
		ie  *InsufficientEvidenceError
		te  *ProviderTimeoutError
		he  *ProviderHTTPError
	)
	switch {
	case errors.As(err, &inv):
		return CodeInvalidInput
	case errors.Is(err, ErrNoEvidence):
		return CodeNoEvidence
	case errors.As(err, &sv):
		return CodeSchemaValidation
	case errors.As(err, &ie):
		return CodeInsufficientEvidence
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.As(err, &te), errors.As(err, &he), errors.Is(err, context.DeadlineExceeded):
		return CodeProviderUnavailable
	default:
		return CodeInternal
	}
}
