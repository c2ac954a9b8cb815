package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		isAuth  bool
		want    string
	}{
		{"401 maps to auth error", http.StatusUnauthorized, "Invalid credentials", true, "Invalid credentials"},
		{"403 maps to auth error", http.StatusForbidden, "Admin only", true, "Admin only"},
		{"500 maps to backend error", http.StatusInternalServerError, "boom", false, "boom"},
		{"404 maps to backend error", http.StatusNotFound, "Application not found", false, "Application not found"},
		{"empty message falls back", http.StatusBadGateway, "", false, GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.status, tt.message)
			assert.Equal(t, tt.isAuth, IsAuth(err))
			assert.Equal(t, !tt.isAuth, IsBackend(err))
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestValidationErrorFields(t *testing.T) {
	err := NewValidationError("required fields missing",
		FieldError{Field: "companyName", Message: "required"},
		FieldError{Field: "pitch", Message: "required"},
	)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "companyName")
	assert.Contains(t, err.Error(), "pitch")
	assert.Equal(t, "required fields missing", UserMessage(err))
}

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("application", FieldError{Field: "status", Message: "not in enum"})
	assert.True(t, IsValidation(err))
	assert.Equal(t, "SCHEMA_MISMATCH", err.Code)
}

func TestKindPredicatesThroughWrapping(t *testing.T) {
	base := NewAuthorizationError("not owner")
	wrapped := fmt.Errorf("transition refused: %w", base)
	assert.True(t, IsAuthorization(wrapped))
	assert.False(t, IsAuth(wrapped))
}

func TestUserMessageFallback(t *testing.T) {
	assert.Equal(t, GenericMessage, UserMessage(errors.New("dial tcp: connection refused")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, NewBackendError("", http.StatusInternalServerError).Retryable)
	assert.False(t, NewBackendError("", http.StatusBadRequest).Retryable)
	assert.True(t, NewNetworkError(errors.New("timeout")).Retryable)
}
