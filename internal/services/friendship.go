package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/events"
	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/notifier"
	"github.com/psimmons86/playdates-server/internal/store"
)

// FriendshipService owns the friend request and friendship lifecycle. All
// methods take the acting user explicitly; an empty actor means the caller
// is not authenticated.
type FriendshipService struct {
	store store.Store
	disp  dispatcher
}

func NewFriendshipService(s store.Store, bus *events.Bus, n notifier.Notifier, log zerolog.Logger) *FriendshipService {
	return &FriendshipService{
		store: s,
		disp:  dispatcher{bus: bus, notifier: n, log: log.With().Str("service", "friendship").Logger()},
	}
}

// SendFriendRequest creates a pending request from actor to recipient.
// Self-requests, existing friendships and pending requests in either
// direction are rejected.
func (s *FriendshipService) SendFriendRequest(ctx context.Context, actorID, recipientID string, message *string) (*model.FriendRequest, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipientId is required", model.ErrValidation)
	}
	if actorID == recipientID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", model.ErrInvalidOperation)
	}
	if _, err := s.store.Users().Get(ctx, recipientID); err != nil {
		return nil, err
	}

	friends, err := s.store.Friendships().Exists(ctx, actorID, recipientID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, model.ErrAlreadyFriends
	}
	pending, err := s.store.FriendRequests().FindPendingBetween(ctx, actorID, recipientID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, model.ErrDuplicateRequest
	}

	req, err := s.store.FriendRequests().Create(ctx, &model.FriendRequest{
		SenderID:    actorID,
		RecipientID: recipientID,
		Message:     message,
	})
	if err != nil {
		return nil, err
	}

	s.disp.fanout(events.Event{
		Kind:      events.EventFriendRequestReceived,
		UserID:    recipientID,
		ActorID:   actorID,
		RequestID: req.ID,
	}, &notifier.Notification{
		Type:        "friend_request",
		SenderID:    actorID,
		RecipientID: recipientID,
		RequestID:   req.ID,
	})
	return req, nil
}

// RespondToFriendRequest accepts or declines a pending request. Only the
// recipient may respond; accepting creates the friendship edge atomically.
func (s *FriendshipService) RespondToFriendRequest(ctx context.Context, actorID, requestID string, accept bool) (*model.FriendRequest, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	req, err := s.store.FriendRequests().Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RecipientID != actorID {
		return nil, model.ErrUnauthorized
	}

	req, err = s.store.FriendRequests().Respond(ctx, requestID, accept)
	if err != nil {
		return nil, err
	}

	kind := events.EventFriendRequestDeclined
	notifType := "friend_request_declined"
	if accept {
		kind = events.EventFriendRequestAccepted
		notifType = "friend_request_accepted"
	}
	s.disp.fanout(events.Event{
		Kind:      kind,
		UserID:    req.SenderID,
		ActorID:   actorID,
		RequestID: req.ID,
	}, &notifier.Notification{
		Type:        notifType,
		SenderID:    actorID,
		RecipientID: req.SenderID,
		RequestID:   req.ID,
	})
	return req, nil
}

// CancelFriendRequest withdraws a pending request. Only the sender may
// cancel, and only while the request is still pending.
func (s *FriendshipService) CancelFriendRequest(ctx context.Context, actorID, requestID string) error {
	if actorID == "" {
		return model.ErrUnauthenticated
	}
	req, err := s.store.FriendRequests().Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID != actorID {
		return model.ErrUnauthorized
	}
	if req.Status.Terminal() {
		return model.ErrInvalidState
	}
	if err := s.store.FriendRequests().Delete(ctx, requestID); err != nil {
		return err
	}

	s.disp.fanout(events.Event{
		Kind:      events.EventFriendRequestCancelled,
		UserID:    req.RecipientID,
		ActorID:   actorID,
		RequestID: req.ID,
	}, nil)
	return nil
}

// RemoveFriendship deletes the edge between actor and friend in both
// directions. Either side of a friendship may remove it.
func (s *FriendshipService) RemoveFriendship(ctx context.Context, actorID, friendID string) error {
	if actorID == "" {
		return model.ErrUnauthenticated
	}
	if friendID == "" {
		return fmt.Errorf("%w: friendId is required", model.ErrValidation)
	}
	if actorID == friendID {
		return fmt.Errorf("%w: cannot unfriend yourself", model.ErrInvalidOperation)
	}
	if err := s.store.Friendships().Remove(ctx, actorID, friendID); err != nil {
		return err
	}

	s.disp.fanout(events.Event{
		Kind:    events.EventFriendshipRemoved,
		UserID:  friendID,
		ActorID: actorID,
	}, nil)
	return nil
}

// FriendshipStatus derives the relationship between actor and other. The
// variants are mutually exclusive: exactly one applies to any pair.
func (s *FriendshipService) FriendshipStatus(ctx context.Context, actorID, otherID string) (*model.FriendshipStatus, error) {
	if actorID == "" {
		return &model.FriendshipStatus{Kind: model.StatusNotLoggedIn}, nil
	}
	if actorID == otherID {
		return &model.FriendshipStatus{Kind: model.StatusIsSelf}, nil
	}

	friends, err := s.store.Friendships().Exists(ctx, actorID, otherID)
	if err != nil {
		return nil, err
	}
	if friends {
		return &model.FriendshipStatus{Kind: model.StatusFriends}, nil
	}

	pending, err := s.store.FriendRequests().FindPendingBetween(ctx, actorID, otherID)
	if err != nil {
		return nil, err
	}
	switch {
	case pending == nil:
		return &model.FriendshipStatus{Kind: model.StatusNotFriends}, nil
	case pending.SenderID == actorID:
		return &model.FriendshipStatus{Kind: model.StatusRequestSent, Request: pending}, nil
	default:
		return &model.FriendshipStatus{Kind: model.StatusRequestReceived, Request: pending}, nil
	}
}

func (s *FriendshipService) ListFriends(ctx context.Context, actorID string) ([]*model.Friendship, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.store.Friendships().List(ctx, actorID)
}

func (s *FriendshipService) ListIncomingRequests(ctx context.Context, actorID string) ([]*model.FriendRequest, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.store.FriendRequests().ListIncoming(ctx, actorID)
}

func (s *FriendshipService) ListOutgoingRequests(ctx context.Context, actorID string) ([]*model.FriendRequest, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.store.FriendRequests().ListOutgoing(ctx, actorID)
}
