package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store per call.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("UsersCRUD", func(t *testing.T) { testUsers(t, makeStore(t)) })
	t.Run("FriendRequestLifecycle", func(t *testing.T) { testFriendRequestLifecycle(t, makeStore(t)) })
	t.Run("FriendRequestDecline", func(t *testing.T) { testFriendRequestDecline(t, makeStore(t)) })
	t.Run("RespondTwice", func(t *testing.T) { testRespondTwice(t, makeStore(t)) })
	t.Run("FindPendingBetween", func(t *testing.T) { testFindPendingBetween(t, makeStore(t)) })
	t.Run("FriendshipSymmetry", func(t *testing.T) { testFriendshipSymmetry(t, makeStore(t)) })
	t.Run("RemoveFriendship", func(t *testing.T) { testRemoveFriendship(t, makeStore(t)) })
	t.Run("InvitationLifecycle", func(t *testing.T) { testInvitationLifecycle(t, makeStore(t)) })
	t.Run("ConcurrentInvitationAccept", func(t *testing.T) { testConcurrentInvitationAccept(t, makeStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, makeStore(t)) })
}

func newUser(t *testing.T, ctx context.Context, s store.Store) string {
	t.Helper()
	userID := "u-" + uuid.New().String()
	if _, err := s.Users().Create(ctx, &model.User{UserID: userID, Email: userID + "@example.test"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return userID
}

func newPendingRequest(t *testing.T, ctx context.Context, s store.Store, sender, recipient string) *model.FriendRequest {
	t.Helper()
	r, err := s.FriendRequests().Create(ctx, &model.FriendRequest{SenderID: sender, RecipientID: recipient})
	if err != nil {
		t.Fatalf("CreateFriendRequest: %v", err)
	}
	if r.ID == "" || r.Status != model.StatusPending {
		t.Fatalf("CreateFriendRequest: id=%q status=%q", r.ID, r.Status)
	}
	return r
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUser(t, ctx, s)

	got, err := s.Users().Get(ctx, userID)
	if err != nil || got.UserID != userID {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if err := s.Users().Delete(ctx, userID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.Users().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser after delete: err=%v, want ErrNotFound", err)
	}
}

func testFriendRequestLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser(t, ctx, s)
	bob := newUser(t, ctx, s)

	r := newPendingRequest(t, ctx, s, alice, bob)

	incoming, err := s.FriendRequests().ListIncoming(ctx, bob)
	if err != nil || len(incoming) != 1 || incoming[0].ID != r.ID {
		t.Fatalf("ListIncoming: n=%d err=%v", len(incoming), err)
	}
	outgoing, err := s.FriendRequests().ListOutgoing(ctx, alice)
	if err != nil || len(outgoing) != 1 {
		t.Fatalf("ListOutgoing: n=%d err=%v", len(outgoing), err)
	}

	accepted, err := s.FriendRequests().Respond(ctx, r.ID, true)
	if err != nil {
		t.Fatalf("Respond accept: %v", err)
	}
	if accepted.Status != model.StatusAccepted {
		t.Fatalf("Respond accept: status=%q", accepted.Status)
	}
	if !accepted.UpdatedAt.After(accepted.CreatedAt) && !accepted.UpdatedAt.Equal(accepted.CreatedAt) {
		t.Fatalf("Respond accept: updated_at %v before created_at %v", accepted.UpdatedAt, accepted.CreatedAt)
	}

	// Accepted requests drop out of pending lists.
	incoming, err = s.FriendRequests().ListIncoming(ctx, bob)
	if err != nil || len(incoming) != 0 {
		t.Fatalf("ListIncoming after accept: n=%d err=%v", len(incoming), err)
	}

	// The friendship edge exists in both directions.
	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		ok, err := s.Friendships().Exists(ctx, pair[0], pair[1])
		if err != nil || !ok {
			t.Fatalf("Exists(%s,%s): ok=%v err=%v", pair[0], pair[1], ok, err)
		}
	}
}

func testFriendRequestDecline(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser(t, ctx, s)
	bob := newUser(t, ctx, s)

	r := newPendingRequest(t, ctx, s, alice, bob)
	declined, err := s.FriendRequests().Respond(ctx, r.ID, false)
	if err != nil || declined.Status != model.StatusDeclined {
		t.Fatalf("Respond decline: got=%v err=%v", declined, err)
	}

	// Declining never creates an edge.
	ok, err := s.Friendships().Exists(ctx, alice, bob)
	if err != nil || ok {
		t.Fatalf("Exists after decline: ok=%v err=%v", ok, err)
	}
}

func testRespondTwice(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser(t, ctx, s)
	bob := newUser(t, ctx, s)

	r := newPendingRequest(t, ctx, s, alice, bob)
	if _, err := s.FriendRequests().Respond(ctx, r.ID, false); err != nil {
		t.Fatalf("first Respond: %v", err)
	}
	if _, err := s.FriendRequests().Respond(ctx, r.ID, true); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("second Respond: err=%v, want ErrInvalidState", err)
	}

	// The losing response must not flip the stored status.
	got, err := s.FriendRequests().Get(ctx, r.ID)
	if err != nil || got.Status != model.StatusDeclined {
		t.Fatalf("Get after double respond: got=%v err=%v", got, err)
	}
}

func testFindPendingBetween(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser(t, ctx, s)
	bob := newUser(t, ctx, s)

	if got, err := s.FriendRequests().FindPendingBetween(ctx, alice, bob); err != nil || got != nil {
		t.Fatalf("FindPendingBetween empty: got=%v err=%v", got, err)
	}

	r := newPendingRequest(t, ctx, s, alice, bob)

	// Direction must not matter.
	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		got, err := s.FriendRequests().FindPendingBetween(ctx, pair[0], pair[1])
		if err != nil || got == nil || got.ID != r.ID {
			t.Fatalf("FindPendingBetween(%s,%s): got=%v err=%v", pair[0], pair[1], got, err)
		}
	}

	// Terminal requests stop matching.
	if _, err := s.FriendRequests().Respond(ctx, r.ID, false); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got, err := s.FriendRequests().FindPendingBetween(ctx, alice, bob); err != nil || got != nil {
		t.Fatalf("FindPendingBetween after decline: got=%v err=%v", got, err)
	}
}

func testFriendshipSymmetry(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser(t, ctx, s)
	bob := newUser(t, ctx, s)

	r := newPendingRequest(t, ctx, s, alice, bob)
	if _, err := s.FriendRequests().Respond(ctx, r.ID, true); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	aliceList, err := s.Friendships().List(ctx, alice)
	if err != nil || len(aliceList) != 1 || aliceList[0].FriendID != bob {
		t.Fatalf("List(alice): got=%v err=%v", aliceList, err)
	}
	bobList, err := s.Friendships().List(ctx, bob)
	if err != nil || len(bobList) != 1 || bobList[0].FriendID != alice {
		t.Fatalf("List(bob): got=%v err=%v", bobList, err)
	}
	if !aliceList[0].FriendSince.Equal(bobList[0].FriendSince) {
		t.Fatalf("FriendSince mismatch: %v vs %v", aliceList[0].FriendSince, bobList[0].FriendSince)
	}
}

func testRemoveFriendship(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser(t, ctx, s)
	bob := newUser(t, ctx, s)

	r := newPendingRequest(t, ctx, s, alice, bob)
	if _, err := s.FriendRequests().Respond(ctx, r.ID, true); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	// Either side may remove; both directions disappear together.
	if err := s.Friendships().Remove(ctx, bob, alice); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		ok, err := s.Friendships().Exists(ctx, pair[0], pair[1])
		if err != nil || ok {
			t.Fatalf("Exists after remove (%s,%s): ok=%v err=%v", pair[0], pair[1], ok, err)
		}
	}

	if err := s.Friendships().Remove(ctx, alice, bob); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second Remove: err=%v, want ErrNotFound", err)
	}
}

func testInvitationLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	host := newUser(t, ctx, s)
	guest := newUser(t, ctx, s)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	pd, err := s.Playdates().Create(ctx, &model.Playdate{
		HostID:    host,
		Title:     "park meetup",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	})
	if err != nil || pd.ID == "" {
		t.Fatalf("CreatePlaydate: got=%v err=%v", pd, err)
	}

	inv, err := s.Invitations().Create(ctx, &model.PlaydateInvitation{
		PlaydateID: pd.ID, SenderID: host, RecipientID: guest,
	})
	if err != nil || inv.Status != model.StatusPending {
		t.Fatalf("CreateInvitation: got=%v err=%v", inv, err)
	}

	incoming, err := s.Invitations().ListIncoming(ctx, guest)
	if err != nil || len(incoming) != 1 {
		t.Fatalf("ListIncoming: n=%d err=%v", len(incoming), err)
	}
	outgoing, err := s.Invitations().ListOutgoing(ctx, host)
	if err != nil || len(outgoing) != 1 {
		t.Fatalf("ListOutgoing: n=%d err=%v", len(outgoing), err)
	}

	accepted, err := s.Invitations().Respond(ctx, inv.ID, true)
	if err != nil || accepted.Status != model.StatusAccepted {
		t.Fatalf("Respond: got=%v err=%v", accepted, err)
	}

	got, err := s.Playdates().Get(ctx, pd.ID)
	if err != nil || !got.HasAttendee(guest) {
		t.Fatalf("Playdate after accept: got=%v err=%v", got, err)
	}

	// Second response is rejected and the attendee list stays at one entry.
	if _, err := s.Invitations().Respond(ctx, inv.ID, true); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("second Respond: err=%v, want ErrInvalidState", err)
	}
	got, err = s.Playdates().Get(ctx, pd.ID)
	if err != nil || len(got.AttendeeIDs) != 1 {
		t.Fatalf("attendees after double respond: got=%v err=%v", got.AttendeeIDs, err)
	}
}

func testConcurrentInvitationAccept(t *testing.T, s store.Store) {
	ctx := context.Background()
	host := newUser(t, ctx, s)
	guest := newUser(t, ctx, s)

	start := time.Now().UTC().Add(24 * time.Hour)
	pd, err := s.Playdates().Create(ctx, &model.Playdate{
		HostID: host, Title: "picnic", StartTime: start, EndTime: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreatePlaydate: %v", err)
	}
	inv, err := s.Invitations().Create(ctx, &model.PlaydateInvitation{
		PlaydateID: pd.ID, SenderID: host, RecipientID: guest,
	})
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Invitations().Respond(ctx, inv.ID, true)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, model.ErrInvalidState):
		default:
			t.Fatalf("concurrent Respond: unexpected err %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("concurrent Respond: %d winners, want 1", winners)
	}

	got, err := s.Playdates().Get(ctx, pd.ID)
	if err != nil || len(got.AttendeeIDs) != 1 || got.AttendeeIDs[0] != guest {
		t.Fatalf("attendees after race: got=%v err=%v", got.AttendeeIDs, err)
	}
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.Users().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Users.Get: err=%v", err)
	}
	if _, err := s.FriendRequests().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FriendRequests.Get: err=%v", err)
	}
	if _, err := s.FriendRequests().Respond(ctx, "missing", true); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FriendRequests.Respond: err=%v", err)
	}
	if _, err := s.Invitations().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Invitations.Get: err=%v", err)
	}
	if _, err := s.Invitations().Respond(ctx, "missing", false); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Invitations.Respond: err=%v", err)
	}
	if _, err := s.Playdates().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Playdates.Get: err=%v", err)
	}
	if err := s.FriendRequests().Delete(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FriendRequests.Delete: err=%v", err)
	}
}
