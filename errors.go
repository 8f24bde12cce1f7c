package vigil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, wrong
	// signing algorithms, and missing required claims.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned when a token verifies but its exp claim
	// has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenType is returned when a token of one purpose is
	// presented to an operation expecting another.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrTokenRevoked is returned when a presented token is on the
	// blacklist: already exchanged, already consumed, or manually revoked.
	ErrTokenRevoked = errors.New("token revoked or already used")
	// ErrAccessStillValid rejects a refresh attempt while the attached
	// access token has not expired.
	ErrAccessStillValid = errors.New("access token still valid")
	// ErrPrincipalNotFound is returned when a token's subject no longer
	// resolves to an account.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrAccountInactive is returned for disabled accounts.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountUnverified is returned when a guarded operation requires a
	// verified account.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrSigning is returned when token minting fails.
	ErrSigning = errors.New("token signing failed")
	// ErrStoreUnavailable is returned when the revocation or principal
	// store fails.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrMailUnavailable is returned when a verification or reset email
	// cannot be handed to the mailer.
	ErrMailUnavailable = errors.New("mail delivery unavailable")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or incompletely constructed engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// FieldError names a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one or more field-level input failures. It maps
// to 400 so the routing layer can return the fields verbatim.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// statusError pins an HTTP status to a sentinel for one specific flow. The
// same sentinel can map to different statuses depending on which operation
// produced it, so the mapping travels with the error, not the sentinel.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func withStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	return &statusError{status: status, err: err}
}

func withStatusInternal(err error) error {
	return withStatus(http.StatusInternalServerError, err)
}

func withStatusNotFound(err error) error {
	return withStatus(http.StatusNotFound, err)
}

// HTTPStatus maps an engine error to the response code the routing layer
// should send. Unknown errors map to 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, ErrAccessStillValid):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrWrongTokenType),
		errors.Is(err, ErrTokenRevoked),
		errors.Is(err, ErrPrincipalNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrAccountUnverified):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
