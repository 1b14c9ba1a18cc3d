package auth

import (
	"context"
)

// ActorInfo describes an authenticated caller.
type ActorInfo struct {
	UserID string `json:"user_id"`
}

// Authorizer validates a bearer token and resolves the acting user.
type Authorizer interface {
	// Authorize returns the actor for a valid token. Invalid or expired
	// tokens return model.ErrUnauthenticated.
	Authorize(ctx context.Context, token string) (*ActorInfo, error)
}
