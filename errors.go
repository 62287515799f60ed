package auth

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidInput is returned when a register or update payload fails
// basic shape validation
var ErrInvalidInput = errors.New("invalid input", errors.CategoryValidation).
	WithTextCode("INVALID_INPUT")

// ErrDuplicateEmail is returned when the store's uniqueness constraint
// rejects an email
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL")

// ErrInvalidCredentials is the single undifferentiated login failure.
// Callers must not be able to tell "no such user" from "wrong password".
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrNoCredential is returned by the gate when the request carries no
// Authorization header or the wrong scheme
var ErrNoCredential = errors.New("no credential provided", errors.CategoryAuth).
	WithTextCode("NO_CREDENTIAL").
	WithCode(http.StatusForbidden)

// ErrUnauthorized is the gate rejection for a credential that failed
// verification. Distinguished from ErrNoCredential for logs only.
var ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode("UNAUTHORIZED").
	WithCode(errors.CodeUnauthorized)

// ErrUnavailable masks infrastructure failures (store unreachable, hash
// engine exhausted) surfaced to clients
var ErrUnavailable = errors.New("service unavailable", errors.CategoryInternal).
	WithTextCode("UNAVAILABLE").
	WithCode(errors.CodeInternal)

// ErrTokenExpired is the error for tokens past their expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is the error for tokens whose signature does
// not verify against the process signing key
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode("TOKEN_SIGNATURE_INVALID").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is the error for tokens we could not parse
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrMismatchedHashAndPassword is returned when a plaintext does not
// match the stored hash
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrUnableToDecodeSession unable to decode JWT claims into a session
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE")

// ErrUnableToFindSession is the error when the request context has no session
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_MISSING")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateEmailError reports whether err is the store's uniqueness
// constraint rejecting an email. The constraint is enforced by the
// storage engine, never by a read-then-write check, so the driver error
// is the only signal we get.
func IsDuplicateEmailError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateEmail) {
		return true
	}

	msg := err.Error()
	// sqlite, postgres and mysql spellings of a unique violation
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "Duplicate entry")
}
