// Package apperror defines the error taxonomy shared by the services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status code mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidCredentials
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is an error with a kind, an optional machine code and a user-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Code when the target has one, otherwise by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

var (
	// ErrAlreadyInWatchlist is returned when a watchlist entry with the same content id exists.
	ErrAlreadyInWatchlist = &Error{Kind: KindConflict, Code: "already_in_watchlist", Message: "Already in watchlist"}
	// ErrEmailTaken is returned when an email belongs to another account.
	ErrEmailTaken = &Error{Kind: KindConflict, Code: "email_taken", Message: "Email already in use"}
	// ErrUsernameTaken is returned at signup when the username is registered.
	ErrUsernameTaken = &Error{Kind: KindConflict, Code: "username_taken", Message: "Username already exists"}
	// ErrUserNotFound is returned when no user record matches.
	ErrUserNotFound = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "User not found"}
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Code: "invalid_credentials", Message: "Invalid credentials"}
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func InvalidCredentials(message string) *Error {
	return &Error{Kind: KindInvalidCredentials, Code: ErrInvalidCredentials.Code, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err, or a generic one for unclassified errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}

// HTTPStatus maps an error to a response status code.
// Conflicts are reported as 400, the same as validation failures.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidCredentials, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
