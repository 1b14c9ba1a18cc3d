package store

import (
	"context"

	"github.com/psimmons86/playdates-server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite,
// mongo). Compound operations that must be atomic (Respond, Remove) sit on the
// sub-stores so each backend supplies its own transaction.
//
// Error contract: absent records surface model.ErrNotFound, illegal lifecycle
// transitions model.ErrInvalidState; every other failure is wrapped with
// model.Infra so callers can tell domain outcomes from backend trouble.
type Store interface {
	Users() Users
	FriendRequests() FriendRequests
	Friendships() Friendships
	Invitations() Invitations
	Playdates() Playdates
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	Delete(ctx context.Context, userID string) error
}

type FriendRequests interface {
	Create(ctx context.Context, r *model.FriendRequest) (*model.FriendRequest, error)
	Get(ctx context.Context, requestID string) (*model.FriendRequest, error)
	// FindPendingBetween returns the pending request between the two users in
	// either direction, or nil when none exists.
	FindPendingBetween(ctx context.Context, userA, userB string) (*model.FriendRequest, error)
	ListIncoming(ctx context.Context, recipientID string) ([]*model.FriendRequest, error)
	ListOutgoing(ctx context.Context, senderID string) ([]*model.FriendRequest, error)
	// Respond flips a pending request to accepted or declined. Accepting also
	// creates both friendship rows in the same transaction. A request that is
	// already terminal returns model.ErrInvalidState.
	Respond(ctx context.Context, requestID string, accept bool) (*model.FriendRequest, error)
	Delete(ctx context.Context, requestID string) error
}

type Friendships interface {
	Exists(ctx context.Context, userID, friendID string) (bool, error)
	List(ctx context.Context, userID string) ([]*model.Friendship, error)
	// Remove deletes both directions of the edge, commit-or-none.
	Remove(ctx context.Context, userID, friendID string) error
}

type Invitations interface {
	Create(ctx context.Context, inv *model.PlaydateInvitation) (*model.PlaydateInvitation, error)
	Get(ctx context.Context, invitationID string) (*model.PlaydateInvitation, error)
	ListIncoming(ctx context.Context, recipientID string) ([]*model.PlaydateInvitation, error)
	ListOutgoing(ctx context.Context, senderID string) ([]*model.PlaydateInvitation, error)
	// Respond flips a pending invitation. Accepting also appends the recipient
	// to the playdate attendee list if absent, in the same transaction, so
	// concurrent accepts leave exactly one attendee entry.
	Respond(ctx context.Context, invitationID string, accept bool) (*model.PlaydateInvitation, error)
}

type Playdates interface {
	Create(ctx context.Context, p *model.Playdate) (*model.Playdate, error)
	Get(ctx context.Context, playdateID string) (*model.Playdate, error)
	List(ctx context.Context, limit int) ([]*model.Playdate, error)
}
