package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error message", func(t *testing.T) {
		err := &NotFoundError{Entity: "group"}
		assert.Equal(t, "group not found", err.Error())
	})

	t.Run("errors.Is comparison with same entity", func(t *testing.T) {
		assert.True(t, errors.Is(&NotFoundError{Entity: "group"}, ErrGroupNotFound))
	})

	t.Run("errors.Is comparison with different entity", func(t *testing.T) {
		assert.False(t, errors.Is(ErrGroupNotFound, ErrMemberNotFound))
	})

	t.Run("errors.Is through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("load group: %w", ErrGroupNotFound)
		assert.True(t, errors.Is(wrapped, ErrGroupNotFound))
		assert.True(t, IsNotFound(wrapped))
	})

	t.Run("IsNotFound helper", func(t *testing.T) {
		assert.True(t, IsNotFound(ErrExpenseNotFound))
		assert.False(t, IsNotFound(ErrSelfReminder))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("Error message with field", func(t *testing.T) {
		err := &ValidationError{Field: "email", Message: "invalid format"}
		assert.Equal(t, "validation error: email - invalid format", err.Error())
	})

	t.Run("Error message without field", func(t *testing.T) {
		err := &ValidationError{Message: "invalid format"}
		assert.Equal(t, "validation error: invalid format", err.Error())
	})

	t.Run("errors.Is compares field and message", func(t *testing.T) {
		err := NewValidationError("memberId", "cannot send reminder to yourself")
		assert.True(t, errors.Is(err, ErrSelfReminder))
		assert.False(t, errors.Is(err, ErrPayerNotMember))
	})

	t.Run("IsValidation helper", func(t *testing.T) {
		assert.True(t, IsValidation(NewValidationError("email", "invalid")))
		assert.False(t, IsValidation(ErrGroupNotFound))
	})
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDeliveryError("push", "b@x.com", cause)

	assert.Equal(t, "push delivery to b@x.com failed: connection reset", err.Error())
	assert.True(t, IsDelivery(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsDelivery(cause))
}

func TestCodeAndHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"nil", nil, "", http.StatusOK},
		{"missing credential", ErrMissingCredential, CodeUnauthenticated, http.StatusUnauthorized},
		{"invalid credential", ErrInvalidCredential, CodeForbidden, http.StatusForbidden},
		{"not a member", ErrNotGroupMember, CodeForbidden, http.StatusForbidden},
		{"group not found", fmt.Errorf("get: %w", ErrGroupNotFound), CodeNotFound, http.StatusNotFound},
		{"self reminder", ErrSelfReminder, CodeInvalidArgument, http.StatusBadRequest},
		{"throttled", ErrReminderThrottled, CodeRateLimited, http.StatusTooManyRequests},
		{"delivery", NewDeliveryError("email", "b@x.com", ErrEmailRejected), CodeDeliveryFailure, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
		{"configuration", NewConfigurationError("bad"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Code(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewNotFoundError", func(t *testing.T) {
		err := NewNotFoundError("custom entity")
		assert.Equal(t, "custom entity not found", err.Error())
		assert.True(t, IsNotFound(err))
	})

	t.Run("NewAuthenticationError", func(t *testing.T) {
		err := NewAuthenticationError("no token")
		assert.Equal(t, "no token", err.Error())
		assert.True(t, IsAuthentication(err))
		assert.False(t, IsAuthorization(err))
	})

	t.Run("NewAuthorizationError", func(t *testing.T) {
		err := NewAuthorizationError("denied")
		assert.True(t, IsAuthorization(err))
	})

	t.Run("NewConfigurationError", func(t *testing.T) {
		err := NewConfigurationError("missing key")
		assert.True(t, IsConfiguration(err))
		assert.False(t, IsRateLimited(err))
	})
}
