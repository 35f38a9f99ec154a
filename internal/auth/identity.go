// Package auth implements session issuance, the master-key envelope cookie,
// and request authentication for the control plane.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller attached to a request's context.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

type contextKey int

const identityKey contextKey = iota

// NewContext returns a context carrying the given Identity.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the Identity stored in ctx, or nil if none.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}
