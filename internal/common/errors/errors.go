// Package errors provides the portal's standardized error taxonomy.
//
// Four kinds of failure flow through the portal: client-side validation
// (never sent to the network), authentication failures (invalid credentials,
// expired tokens), authorization failures (derived locally from the
// ownership gate), and backend/network failures (non-2xx responses and
// transport errors). Every error carries a code, a human-readable message
// suitable for display, and optional details for logs.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind classifies a portal error.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuth          Kind = "AUTH"
	KindAuthorization Kind = "AUTHORIZATION"
	KindBackend       Kind = "BACKEND"
	KindNetwork       Kind = "NETWORK"
)

// GenericMessage is the user-visible fallback when the backend's error
// payload carries no message.
const GenericMessage = "An error occurred"

// PortalError is a structured application error.
type PortalError struct {
	Kind      Kind      `json:"kind"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Status    int       `json:"status,omitempty"` // HTTP status, when one exists
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *PortalError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

// FieldError describes a single failing field of a validation pass.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a client-side validation failure. It blocks the
// operation locally; nothing reaches the network.
type ValidationError struct {
	PortalError
	Fields []FieldError `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.PortalError.Error()
	}
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("%s (%s)", e.PortalError.Error(), strings.Join(names, ", "))
}

// NewValidationError creates a validation failure over the given fields.
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{
		PortalError: PortalError{
			Kind:      KindValidation,
			Code:      "VALIDATION_FAILED",
			Message:   message,
			Retryable: false,
			Timestamp: time.Now().UTC(),
		},
		Fields: fields,
	}
}

// NewSchemaError creates a validation failure for a wire payload that did
// not match its schema at the adapter boundary.
func NewSchemaError(entity string, fields ...FieldError) *ValidationError {
	e := NewValidationError(fmt.Sprintf("%s payload did not match schema", entity), fields...)
	e.Code = "SCHEMA_MISMATCH"
	return e
}

// NewAuthError creates an authentication failure. The message is surfaced
// to the user verbatim, so callers pass the backend's message when one
// exists.
func NewAuthError(message string, status int) *PortalError {
	if message == "" {
		message = GenericMessage
	}
	return &PortalError{
		Kind:      KindAuth,
		Code:      "AUTHENTICATION_FAILED",
		Message:   message,
		Status:    status,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthorizationError creates a locally derived authorization failure.
// Surfaces as a redirect at the UI layer, never as an inline message.
func NewAuthorizationError(details string) *PortalError {
	return &PortalError{
		Kind:      KindAuthorization,
		Code:      "NOT_AUTHORIZED",
		Message:   "You do not have permission to perform this action",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendError creates an error for a non-2xx backend response.
func NewBackendError(message string, status int) *PortalError {
	if message == "" {
		message = GenericMessage
	}
	return &PortalError{
		Kind:      KindBackend,
		Code:      "BACKEND_ERROR",
		Message:   message,
		Status:    status,
		Retryable: status >= http.StatusInternalServerError,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates an error for a transport-level failure.
func NewNetworkError(err error) *PortalError {
	return &PortalError{
		Kind:      KindNetwork,
		Code:      "NETWORK_ERROR",
		Message:   GenericMessage,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// FromResponse maps an HTTP status plus an extracted backend message to the
// right error kind: 401/403 are authentication failures, everything else a
// backend error.
func FromResponse(status int, message string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewAuthError(message, status)
	default:
		return NewBackendError(message, status)
	}
}

func kindOf(err error) (Kind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool { k, ok := kindOf(err); return ok && k == KindValidation }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { k, ok := kindOf(err); return ok && k == KindAuth }

// IsAuthorization reports whether err is a locally derived authorization
// failure.
func IsAuthorization(err error) bool { k, ok := kindOf(err); return ok && k == KindAuthorization }

// IsBackend reports whether err came from a non-2xx backend response.
func IsBackend(err error) bool { k, ok := kindOf(err); return ok && k == KindBackend }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { k, ok := kindOf(err); return ok && k == KindNetwork }

// UserMessage extracts the display message from any error. Portal errors
// surface their message; anything else falls back to the generic message so
// internal detail never leaks to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return GenericMessage
}
