package persistence

import (
	"context"

	"github.com/example/lms/internal/ctxutil"
	"github.com/example/lms/internal/ports/secondary"
)

// IdentityProviderAdapter resolves the caller from the context actor, falling
// back to the configured operator identity.
type IdentityProviderAdapter struct {
	fallback secondary.Identity
}

// NewIdentityProvider creates a new IdentityProviderAdapter.
func NewIdentityProvider(userID, email string) *IdentityProviderAdapter {
	return &IdentityProviderAdapter{fallback: secondary.Identity{UserID: userID, Email: email}}
}

// CurrentIdentity returns the identity of the caller.
func (p *IdentityProviderAdapter) CurrentIdentity(ctx context.Context) (*secondary.Identity, error) {
	if actor, ok := ctxutil.ActorFromContext(ctx); ok {
		return &secondary.Identity{UserID: actor.UserID, Email: actor.Email}, nil
	}
	identity := p.fallback
	return &identity, nil
}

// Ensure IdentityProviderAdapter implements the interface
var _ secondary.IdentityProvider = (*IdentityProviderAdapter)(nil)
