package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeNoRolesAssigned ErrorCode = "NO_ROLES_ASSIGNED"
	ErrCodeMissingAction   ErrorCode = "MISSING_PERMISSION"

	ErrCodeRoleNotFound    ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNameTaken   ErrorCode = "ROLE_NAME_TAKEN"
	ErrCodeDuplicateUser   ErrorCode = "DUPLICATE_USER"
	ErrCodeSystemRole      ErrorCode = "SYSTEM_ROLE_PROTECTED"
	ErrCodeRoleInvalid     ErrorCode = "ROLE_INVALID"
	ErrCodeEmptyGrantSet   ErrorCode = "EMPTY_GRANT_SET"
	ErrCodeMalformedGrants ErrorCode = "MALFORMED_GRANT_SET"

	ErrCodeInvalidInvitation  ErrorCode = "INVALID_INVITATION"
	ErrCodeInvitationExpired  ErrorCode = "INVITATION_EXPIRED"
	ErrCodeInvitationAccepted ErrorCode = "INVITATION_ACCEPTED"

	ErrCodeEmailNotConfirmed ErrorCode = "EMAIL_NOT_CONFIRMED"
	ErrCodeInvalidOTP        ErrorCode = "INVALID_OTP"
	ErrCodeExternalStore     ErrorCode = "EXTERNAL_STORE_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Messages() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewExternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeExternalStore,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	ErrUnauthenticated = NewUnauthorizedError("Invalid or missing credentials", ErrCodeUnauthenticated)
	// ErrProfileNotFound is a 403, not 404: the credential was valid but no
	// tenant profile backs it.
	ErrProfileNotFound = NewForbiddenError("User profile not found or incomplete", ErrCodeProfileNotFound)
	ErrNoRolesAssigned = NewForbiddenError("User has no assigned roles", ErrCodeNoRolesAssigned)

	ErrRoleNotFound = NewNotFoundError("Role not found or not part of your company", ErrCodeRoleNotFound)
	ErrUserNotFound = NewNotFoundError("User not found or not part of your company", ErrCodeUserNotFound)

	ErrRoleNameTaken = NewConflictError("A role with this name already exists for your company", ErrCodeRoleNameTaken)
	ErrDuplicateUser = NewConflictError("A user with this email already exists in your company", ErrCodeDuplicateUser)

	ErrInvalidInvitation  = NewNotFoundError("Invite code not found or email mismatch", ErrCodeInvalidInvitation)
	ErrInvitationExpired  = NewValidationError("Invite code has expired", ErrCodeInvitationExpired)
	ErrInvitationAccepted = NewValidationError("Invite code has already been accepted", ErrCodeInvitationAccepted)

	ErrEmailNotConfirmed = NewForbiddenError("Email not confirmed. Please verify your email first", ErrCodeEmailNotConfirmed)
	ErrInvalidOTP        = NewValidationError("Invalid or expired OTP", ErrCodeInvalidOTP)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
