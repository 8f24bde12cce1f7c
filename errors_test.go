package vigil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusDefaults(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrTokenInvalid, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrWrongTokenType, http.StatusUnauthorized},
		{ErrTokenRevoked, http.StatusUnauthorized},
		{ErrPrincipalNotFound, http.StatusUnauthorized},
		{ErrAccessStillValid, http.StatusBadRequest},
		{ErrAccountInactive, http.StatusForbidden},
		{ErrAccountUnverified, http.StatusForbidden},
		{ErrStoreUnavailable, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
		{NewValidationError("password", "too short"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestHTTPStatusPinnedStatusWins(t *testing.T) {
	// The refresh flow pins 404 to errors that default to 401 elsewhere.
	err := withStatusNotFound(ErrTokenRevoked)
	if got := HTTPStatus(err); got != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d, want 404", got)
	}
	// The sentinel still matches for callers branching on the cause.
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatal("pinned error must unwrap to its sentinel")
	}

	wrapped := fmt.Errorf("refresh: %w", withStatusInternal(ErrStoreUnavailable))
	if got := HTTPStatus(wrapped); got != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus = %d, want 500", got)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	ve := NewValidationError("new_password", "must be at least 10 characters")
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "new_password" {
		t.Fatalf("unexpected fields: %+v", ve.Fields)
	}

	want := "validation failed: new_password: must be at least 10 characters"
	if ve.Error() != want {
		t.Fatalf("Error() = %q, want %q", ve.Error(), want)
	}

	var empty *ValidationError
	if empty.Error() != "validation failed" {
		t.Fatalf("nil Error() = %q", empty.Error())
	}
}
