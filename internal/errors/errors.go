package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients next to the error message.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeDeliveryFailure = "DELIVERY_FAILURE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL"
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is enables errors.Is() comparison for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Is matches another ValidationError with the same field and message.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Field == t.Field && e.Message == t.Message
}

// AuthenticationError represents a missing or unusable credential
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// AuthorizationError represents a rejected credential or a forbidden action
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// DeliveryError wraps a failed push or email send.
type DeliveryError struct {
	Channel   string
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed: %v", e.Channel, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when an action is attempted again inside its cooldown.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Entity Not Found Errors
var (
	ErrGroupNotFound   = &NotFoundError{Entity: "group"}
	ErrMemberNotFound  = &NotFoundError{Entity: "member"}
	ErrExpenseNotFound = &NotFoundError{Entity: "expense"}
)

// Validation Errors
var (
	ErrSelfReminder       = &ValidationError{Field: "memberId", Message: "cannot send reminder to yourself"}
	ErrNonPositiveAmount  = &ValidationError{Field: "amount", Message: "must be greater than zero"}
	ErrAmountTooLarge     = &ValidationError{Field: "amount", Message: "must not exceed 999999999999.99"}
	ErrPayerNotMember     = &ValidationError{Field: "paidBy", Message: "payer is not a member of the group"}
	ErrDuplicateMember    = &ValidationError{Field: "members", Message: "duplicate member email"}
	ErrDuplicateSplit     = &ValidationError{Field: "splitBetween", Message: "duplicate participant email"}
	ErrSplitNotMember     = &ValidationError{Field: "splitBetween", Message: "participant is not a member of the group"}
	ErrInvalidRequestBody = &ValidationError{Message: "invalid request body"}
)

// Authentication Errors
var (
	ErrMissingCredential = &AuthenticationError{Message: "authorization header with bearer token required"}
	ErrInvalidCredential = &AuthorizationError{Message: "invalid or expired token"}
	ErrNotGroupMember    = &AuthorizationError{Message: "user is not a member of this group"}
	ErrUserEmailNotFound = &AuthenticationError{Message: "user email not found in context"}
)

// Delivery Errors
var (
	ErrReminderThrottled = &RateLimitError{Message: "reminder already sent recently, try again later"}
	ErrPublishRejected   = errors.New("push service rejected message")
	ErrEmailRejected     = errors.New("email relay rejected message")
)

// Helper Functions

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsAuthentication checks if an error is an AuthenticationError
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsAuthorization checks if an error is an AuthorizationError
func IsAuthorization(err error) bool {
	var authzErr *AuthorizationError
	return errors.As(err, &authzErr)
}

// IsDelivery checks if an error is a DeliveryError
func IsDelivery(err error) bool {
	var deliveryErr *DeliveryError
	return errors.As(err, &deliveryErr)
}

// IsRateLimited checks if an error is a RateLimitError
func IsRateLimited(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// NewNotFoundError creates a new NotFoundError for a custom entity
func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}

// NewAuthorizationError creates a new AuthorizationError
func NewAuthorizationError(message string) error {
	return &AuthorizationError{Message: message}
}

// NewDeliveryError wraps err as a failed send over channel ("push" or "email").
func NewDeliveryError(channel, recipient string, err error) error {
	return &DeliveryError{Channel: channel, Recipient: recipient, Err: err}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(message string) error {
	return &ConfigurationError{Message: message}
}

// Code maps err onto the client-facing taxonomy.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuthentication(err):
		return CodeUnauthenticated
	case IsAuthorization(err):
		return CodeForbidden
	case IsNotFound(err):
		return CodeNotFound
	case IsValidation(err):
		return CodeInvalidArgument
	case IsRateLimited(err):
		return CodeRateLimited
	case IsDelivery(err):
		return CodeDeliveryFailure
	default:
		return CodeInternal
	}
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	switch Code(err) {
	case "":
		return http.StatusOK
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
