package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/events"
	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store/sqlite"
)

type invitationFixture struct {
	notif     *captureNotifier
	bus       *events.Bus
	svc       *InvitationService
	playdates *PlaydateService
	users     *UserService
}

func newInvitationFixture(t *testing.T) *invitationFixture {
	t.Helper()
	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	bus := events.NewBus(16)
	notif := newCaptureNotifier()
	return &invitationFixture{
		notif:     notif,
		bus:       bus,
		svc:       NewInvitationService(s, bus, notif, zerolog.Nop()),
		playdates: NewPlaydateService(s),
		users:     NewUserService(s),
	}
}

func (f *invitationFixture) addUser(t *testing.T, id string) {
	t.Helper()
	if _, err := f.users.CreateUser(context.Background(), &model.User{UserID: id, Email: id + "@example.test"}); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func (f *invitationFixture) addPlaydate(t *testing.T, hostID string) *model.Playdate {
	t.Helper()
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	pd, err := f.playdates.CreatePlaydate(context.Background(), hostID, &model.Playdate{
		Title:     "zoo trip",
		StartTime: start,
		EndTime:   start.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create playdate: %v", err)
	}
	return pd
}

func TestSendInvitation(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	f.addUser(t, "host")
	f.addUser(t, "guest")
	pd := f.addPlaydate(t, "host")

	guestCh, cancel := f.bus.Subscribe("guest")
	defer cancel()

	inv, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil)
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}
	if inv.Status != model.StatusPending || inv.PlaydateID != pd.ID {
		t.Fatalf("unexpected invitation: %+v", inv)
	}

	evt := <-guestCh
	if evt.Kind != events.EventInvitationReceived || evt.InvitationID != inv.ID || evt.PlaydateID != pd.ID {
		t.Fatalf("unexpected event: %+v", evt)
	}
	n := f.notif.wait(t)
	if n.Type != "invitation" || n.SenderID != "host" || n.RecipientID != "guest" || n.InvitationID != inv.ID {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestSendInvitationPreconditions(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	f.addUser(t, "host")
	f.addUser(t, "guest")
	pd := f.addPlaydate(t, "host")

	if _, err := f.svc.SendInvitation(ctx, "", pd.ID, "guest", nil); !errors.Is(err, model.ErrUnauthenticated) {
		t.Fatalf("anonymous: err=%v", err)
	}
	if _, err := f.svc.SendInvitation(ctx, "host", "", "guest", nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("empty playdate: err=%v", err)
	}
	if _, err := f.svc.SendInvitation(ctx, "host", pd.ID, "host", nil); !errors.Is(err, model.ErrInvalidOperation) {
		t.Fatalf("self invite: err=%v", err)
	}
	if _, err := f.svc.SendInvitation(ctx, "host", "missing", "guest", nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing playdate: err=%v", err)
	}
	if _, err := f.svc.SendInvitation(ctx, "host", pd.ID, "ghost", nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing recipient: err=%v", err)
	}

	if _, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil); err != nil {
		t.Fatalf("first invitation: %v", err)
	}
	if _, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil); !errors.Is(err, model.ErrDuplicateRequest) {
		t.Fatalf("duplicate invitation: err=%v", err)
	}
}

func TestRespondToInvitation(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	f.addUser(t, "host")
	f.addUser(t, "guest")
	pd := f.addPlaydate(t, "host")

	inv, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil)
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}
	f.notif.wait(t)

	if _, err := f.svc.RespondToInvitation(ctx, "host", inv.ID, true); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("sender responding: err=%v", err)
	}

	hostCh, cancel := f.bus.Subscribe("host")
	defer cancel()

	got, err := f.svc.RespondToInvitation(ctx, "guest", inv.ID, true)
	if err != nil || got.Status != model.StatusAccepted {
		t.Fatalf("accept: got=%v err=%v", got, err)
	}

	evt := <-hostCh
	if evt.Kind != events.EventInvitationAccepted {
		t.Fatalf("unexpected event: %+v", evt)
	}
	n := f.notif.wait(t)
	if n.Type != "invitation_accepted" || n.RecipientID != "host" {
		t.Fatalf("unexpected notification: %+v", n)
	}

	// The guest is on the attendee list exactly once, next to the host.
	updated, err := f.playdates.GetPlaydate(ctx, pd.ID)
	if err != nil || !updated.HasAttendee("guest") || len(updated.AttendeeIDs) != 2 {
		t.Fatalf("playdate after accept: got=%v err=%v", updated, err)
	}

	if _, err := f.svc.RespondToInvitation(ctx, "guest", inv.ID, false); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("double respond: err=%v", err)
	}

	// Inviting an attendee again is rejected.
	if _, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil); !errors.Is(err, model.ErrInvalidOperation) {
		t.Fatalf("invite attendee: err=%v", err)
	}
}

func TestDeclineInvitationLeavesAttendeesAlone(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	f.addUser(t, "host")
	f.addUser(t, "guest")
	pd := f.addPlaydate(t, "host")

	inv, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil)
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}
	if _, err := f.svc.RespondToInvitation(ctx, "guest", inv.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}

	pd2, err := f.playdates.GetPlaydate(ctx, pd.ID)
	if err != nil || pd2.HasAttendee("guest") {
		t.Fatalf("playdate after decline: got=%v err=%v", pd2, err)
	}
}

func TestInvitationLists(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	f.addUser(t, "host")
	f.addUser(t, "guest")
	pd := f.addPlaydate(t, "host")

	inv, err := f.svc.SendInvitation(ctx, "host", pd.ID, "guest", nil)
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}

	incoming, err := f.svc.ListInvitations(ctx, "guest")
	if err != nil || len(incoming) != 1 || incoming[0].ID != inv.ID {
		t.Fatalf("ListInvitations: got=%v err=%v", incoming, err)
	}
	sent, err := f.svc.ListSentInvitations(ctx, "host")
	if err != nil || len(sent) != 1 {
		t.Fatalf("ListSentInvitations: got=%v err=%v", sent, err)
	}

	if _, err := f.svc.RespondToInvitation(ctx, "guest", inv.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// Declined invitations leave the incoming list but stay in sent history.
	incoming, err = f.svc.ListInvitations(ctx, "guest")
	if err != nil || len(incoming) != 0 {
		t.Fatalf("ListInvitations after decline: got=%v err=%v", incoming, err)
	}
	sent, err = f.svc.ListSentInvitations(ctx, "host")
	if err != nil || len(sent) != 1 || sent[0].Status != model.StatusDeclined {
		t.Fatalf("ListSentInvitations after decline: got=%v err=%v", sent, err)
	}
}

func TestCreatePlaydateValidation(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()
	f.addUser(t, "host")

	start := time.Now().UTC().Add(time.Hour)
	cases := map[string]*model.Playdate{
		"missing title": {StartTime: start, EndTime: start.Add(time.Hour)},
		"missing times": {Title: "park"},
		"end before start": {
			Title: "park", StartTime: start, EndTime: start.Add(-time.Hour),
		},
	}
	for name, pd := range cases {
		if _, err := f.playdates.CreatePlaydate(ctx, "host", pd); !errors.Is(err, model.ErrValidation) {
			t.Errorf("%s: err=%v, want ErrValidation", name, err)
		}
	}

	pd, err := f.playdates.CreatePlaydate(ctx, "host", &model.Playdate{
		Title: "park", StartTime: start, EndTime: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreatePlaydate: %v", err)
	}
	if pd.HostID != "host" || !pd.HasAttendee("host") {
		t.Fatalf("host not attending own playdate: %+v", pd)
	}
}

func TestCreateUserValidation(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	if _, err := f.users.CreateUser(ctx, &model.User{Email: "a@b.c"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("missing userId: err=%v", err)
	}
	if _, err := f.users.CreateUser(ctx, &model.User{UserID: "u1", Email: "nope"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("bad email: err=%v", err)
	}
	if _, err := f.users.CreateUser(ctx, &model.User{UserID: "u1", Email: "u1@example.test"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := f.users.GetUser(ctx, "u1")
	if err != nil || got.UserID != "u1" {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
}
