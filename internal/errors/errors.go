package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike, so login failures cannot be used for enumeration.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUserAlreadyExists is returned when the username or email is taken.
	ErrUserAlreadyExists = errors.New("username or email already in use")
	// ErrAlreadyLoggedOut is returned when logout is called without a refresh cookie.
	ErrAlreadyLoggedOut = errors.New("already logged out")
	// ErrMissingRefreshCookie is returned when refresh is called without a cookie.
	ErrMissingRefreshCookie = errors.New("not logged in")
	// ErrAccessExpired is returned for every refresh-token failure: unknown
	// token, bad signature, expired, or subject mismatch.
	ErrAccessExpired = errors.New("access expired, please log in again")
	// ErrResetTokenInvalid covers both wrong and expired reset tokens.
	ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")
	// ErrIncorrectPassword is returned when the current password does not match
	// on a password update.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrSamePassword rejects a no-op password change.
	ErrSamePassword = errors.New("new password must be different from the current password")
	// ErrEmailNotFound is returned when forgot-password is given an unknown email.
	ErrEmailNotFound = errors.New("no user found with that email address")
	// ErrEmailSendFailed is returned when the reset email could not be delivered.
	ErrEmailSendFailed = errors.New("failed to send password reset email")
	// ErrProductNotFound is returned for unknown catalog items.
	ErrProductNotFound = errors.New("product not found")
)

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrMissingRefreshCookie):
		return NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAlreadyLoggedOut),
		errors.Is(err, ErrSamePassword):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAccessExpired):
		return NewHTTPError(http.StatusForbidden, ErrAccessExpired.Error())
	case errors.Is(err, ErrResetTokenInvalid),
		errors.Is(err, ErrIncorrectPassword):
		return NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrEmailNotFound),
		errors.Is(err, ErrProductNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmailSendFailed):
		return NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
