package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusNotFound},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindValidationFailed, http.StatusUnprocessableEntity},
		{KindNoCredentials, http.StatusUnprocessableEntity},
		{KindQueueUnavailable, http.StatusInternalServerError},
		{KindSynthesisFailed, http.StatusInternalServerError},
		{KindProvisionerFailed, http.StatusInternalServerError},
		{KindPersistenceDegraded, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := StatusCode(tt.kind); got != tt.want {
				t.Errorf("StatusCode(%v) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNew_And_Error(t *testing.T) {
	err := New(KindNotFound, "range not found")
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
	}
	if err.Error() != "not_found: range not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("pgx: no rows")
	err := Wrap(KindInternal, "looking up range", cause)

	if !errors.Is(err, cause) {
		t.Error("Wrap() should preserve the cause for errors.Is/errors.Unwrap")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestIs(t *testing.T) {
	err := New(KindConflict, "duplicate email")
	if !Is(err, KindConflict) {
		t.Error("Is() should match the error's own kind")
	}
	if Is(err, KindNotFound) {
		t.Error("Is() should not match a different kind")
	}
	if Is(errors.New("plain error"), KindConflict) {
		t.Error("Is() should be false for a non-*Error")
	}
}
