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

// InvitationService owns the playdate invitation lifecycle.
type InvitationService struct {
	store store.Store
	disp  dispatcher
}

func NewInvitationService(s store.Store, bus *events.Bus, n notifier.Notifier, log zerolog.Logger) *InvitationService {
	return &InvitationService{
		store: s,
		disp:  dispatcher{bus: bus, notifier: n, log: log.With().Str("service", "invitation").Logger()},
	}
}

// SendInvitation invites recipient to a playdate. The playdate and recipient
// must exist, the recipient must not already be attending, and a pending
// invitation for the same playdate and recipient is a duplicate.
func (s *InvitationService) SendInvitation(ctx context.Context, actorID, playdateID, recipientID string, message *string) (*model.PlaydateInvitation, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	if playdateID == "" {
		return nil, fmt.Errorf("%w: playdateId is required", model.ErrValidation)
	}
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipientId is required", model.ErrValidation)
	}
	if actorID == recipientID {
		return nil, fmt.Errorf("%w: cannot invite yourself", model.ErrInvalidOperation)
	}

	pd, err := s.store.Playdates().Get(ctx, playdateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Users().Get(ctx, recipientID); err != nil {
		return nil, err
	}
	if pd.HasAttendee(recipientID) {
		return nil, fmt.Errorf("%w: user is already attending", model.ErrInvalidOperation)
	}
	incoming, err := s.store.Invitations().ListIncoming(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	for _, inv := range incoming {
		if inv.PlaydateID == playdateID {
			return nil, model.ErrDuplicateRequest
		}
	}

	inv, err := s.store.Invitations().Create(ctx, &model.PlaydateInvitation{
		PlaydateID:  playdateID,
		SenderID:    actorID,
		RecipientID: recipientID,
		Message:     message,
	})
	if err != nil {
		return nil, err
	}

	s.disp.fanout(events.Event{
		Kind:         events.EventInvitationReceived,
		UserID:       recipientID,
		ActorID:      actorID,
		InvitationID: inv.ID,
		PlaydateID:   playdateID,
	}, &notifier.Notification{
		Type:         "invitation",
		SenderID:     actorID,
		RecipientID:  recipientID,
		InvitationID: inv.ID,
		PlaydateID:   playdateID,
	})
	return inv, nil
}

// RespondToInvitation accepts or declines a pending invitation. Only the
// recipient may respond; accepting joins the playdate atomically.
func (s *InvitationService) RespondToInvitation(ctx context.Context, actorID, invitationID string, accept bool) (*model.PlaydateInvitation, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	inv, err := s.store.Invitations().Get(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.RecipientID != actorID {
		return nil, model.ErrUnauthorized
	}

	inv, err = s.store.Invitations().Respond(ctx, invitationID, accept)
	if err != nil {
		return nil, err
	}

	kind := events.EventInvitationDeclined
	notifType := "invitation_declined"
	if accept {
		kind = events.EventInvitationAccepted
		notifType = "invitation_accepted"
	}
	s.disp.fanout(events.Event{
		Kind:         kind,
		UserID:       inv.SenderID,
		ActorID:      actorID,
		InvitationID: inv.ID,
		PlaydateID:   inv.PlaydateID,
	}, &notifier.Notification{
		Type:         notifType,
		SenderID:     actorID,
		RecipientID:  inv.SenderID,
		InvitationID: inv.ID,
		PlaydateID:   inv.PlaydateID,
	})
	return inv, nil
}

// ListInvitations returns the actor's pending incoming invitations.
func (s *InvitationService) ListInvitations(ctx context.Context, actorID string) ([]*model.PlaydateInvitation, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.store.Invitations().ListIncoming(ctx, actorID)
}

// ListSentInvitations returns every invitation the actor has sent, any status.
func (s *InvitationService) ListSentInvitations(ctx context.Context, actorID string) ([]*model.PlaydateInvitation, error) {
	if actorID == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.store.Invitations().ListOutgoing(ctx, actorID)
}
