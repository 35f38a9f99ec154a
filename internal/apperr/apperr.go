// Package apperr defines the control plane's error taxonomy as a single
// kind-tagged type, mapped to HTTP status codes at the edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure. Kinds are not Go types: every error
// the core produces is an *Error carrying one of these.
type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindValidationFailed    Kind = "validation_failed"
	KindNoCredentials       Kind = "no_credentials"
	KindQueueUnavailable    Kind = "queue_unavailable"
	KindSynthesisFailed     Kind = "synthesis_failed"
	KindProvisionerFailed   Kind = "provisioner_failed"
	KindPersistenceDegraded Kind = "persistence_degraded"
	KindInternal            Kind = "internal"
)

// Error is the control plane's single error type. Message is safe to show
// to the caller; wrapped carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// StatusCode maps a Kind to the HTTP status code §7 assigns it.
func StatusCode(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden, KindNotFound:
		// §7: owner mismatch and unknown id both answer 404, never 403,
		// so existence is never leaked to a non-owner.
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidationFailed, KindNoCredentials:
		return http.StatusUnprocessableEntity
	case KindQueueUnavailable, KindInternal:
		return http.StatusInternalServerError
	case KindSynthesisFailed, KindProvisionerFailed, KindPersistenceDegraded:
		// These are discovered after the HTTP response (§7); callers that
		// still need a status for a synchronous path fall back to 500.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
