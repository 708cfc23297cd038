package secondary

import "context"

// Identity is the already-authenticated caller that operations are attributed to.
type Identity struct {
	UserID string
	Email  string
}

// IdentityProvider resolves the current caller identity.
type IdentityProvider interface {
	// CurrentIdentity returns the caller identity. UserID is empty when no
	// caller is known.
	CurrentIdentity(ctx context.Context) (*Identity, error)
}
