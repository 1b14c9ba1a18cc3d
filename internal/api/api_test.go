package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/auth"
	"github.com/psimmons86/playdates-server/internal/events"
	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/notifier"
	"github.com/psimmons86/playdates-server/internal/services"
	"github.com/psimmons86/playdates-server/internal/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithBus(t)
	return srv
}

func newTestServerWithBus(t *testing.T) (*httptest.Server, *events.Bus) {
	t.Helper()
	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	bus := events.NewBus(16)
	log := zerolog.Nop()
	deps := Deps{
		Users:       services.NewUserService(s),
		Friendships: services.NewFriendshipService(s, bus, notifier.NoopNotifier{}, log),
		Invitations: services.NewInvitationService(s, bus, notifier.NoopNotifier{}, log),
		Playdates:   services.NewPlaydateService(s),
		Bus:         bus,
		Authorizer:  auth.NewDevAuthorizer(),
		Log:         log,
	}
	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv, bus
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, actor string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if actor != "" {
		req.Header.Set("Authorization", "Bearer uid:"+actor)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func createUser(t *testing.T, srv *httptest.Server, id string) {
	t.Helper()
	code := doJSON(t, srv, http.MethodPost, "/v1/users", "", map[string]string{
		"userId": id, "email": id + "@example.test",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("create user %s: status %d", id, code)
	}
}

func TestFriendRequestFlow(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, "alice")
	createUser(t, srv, "bob")

	// Anonymous sends are rejected.
	code := doJSON(t, srv, http.MethodPost, "/v1/friend-requests", "", map[string]string{"recipientId": "bob"}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous send: status %d", code)
	}

	var req model.FriendRequest
	code = doJSON(t, srv, http.MethodPost, "/v1/friend-requests", "alice", map[string]string{"recipientId": "bob"}, &req)
	if code != http.StatusCreated || req.Status != model.StatusPending {
		t.Fatalf("send: status %d req %+v", code, req)
	}

	// Duplicate in the reverse direction conflicts.
	code = doJSON(t, srv, http.MethodPost, "/v1/friend-requests", "bob", map[string]string{"recipientId": "alice"}, nil)
	if code != http.StatusConflict {
		t.Fatalf("reverse duplicate: status %d", code)
	}

	var incoming struct {
		Requests []*model.FriendRequest `json:"requests"`
		Count    int                    `json:"count"`
	}
	code = doJSON(t, srv, http.MethodGet, "/v1/friend-requests/incoming", "bob", nil, &incoming)
	if code != http.StatusOK || incoming.Count != 1 {
		t.Fatalf("incoming: status %d body %+v", code, incoming)
	}

	// The sender cannot accept their own request.
	code = doJSON(t, srv, http.MethodPost, "/v1/friend-requests/"+req.ID+"/accept", "alice", nil, nil)
	if code != http.StatusForbidden {
		t.Fatalf("sender accept: status %d", code)
	}

	var accepted model.FriendRequest
	code = doJSON(t, srv, http.MethodPost, "/v1/friend-requests/"+req.ID+"/accept", "bob", nil, &accepted)
	if code != http.StatusOK || accepted.Status != model.StatusAccepted {
		t.Fatalf("accept: status %d req %+v", code, accepted)
	}

	// Accepting twice conflicts.
	code = doJSON(t, srv, http.MethodPost, "/v1/friend-requests/"+req.ID+"/accept", "bob", nil, nil)
	if code != http.StatusConflict {
		t.Fatalf("double accept: status %d", code)
	}

	var friends struct {
		Friends []*model.Friendship `json:"friends"`
	}
	code = doJSON(t, srv, http.MethodGet, "/v1/friends", "alice", nil, &friends)
	if code != http.StatusOK || len(friends.Friends) != 1 || friends.Friends[0].FriendID != "bob" {
		t.Fatalf("friends: status %d body %+v", code, friends)
	}

	var status model.FriendshipStatus
	code = doJSON(t, srv, http.MethodGet, "/v1/users/bob/friendship-status", "alice", nil, &status)
	if code != http.StatusOK || status.Kind != model.StatusFriends {
		t.Fatalf("status: code %d kind %q", code, status.Kind)
	}

	code = doJSON(t, srv, http.MethodDelete, "/v1/friends/bob", "alice", nil, nil)
	if code != http.StatusNoContent {
		t.Fatalf("unfriend: status %d", code)
	}
	code = doJSON(t, srv, http.MethodDelete, "/v1/friends/bob", "alice", nil, nil)
	if code != http.StatusNotFound {
		t.Fatalf("second unfriend: status %d", code)
	}
}

func TestInvitationFlow(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, "host")
	createUser(t, srv, "guest")

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	var pd model.Playdate
	code := doJSON(t, srv, http.MethodPost, "/v1/playdates", "host", map[string]interface{}{
		"title":     "museum",
		"startTime": start,
		"endTime":   start.Add(2 * time.Hour),
	}, &pd)
	if code != http.StatusCreated || pd.HostID != "host" {
		t.Fatalf("create playdate: status %d pd %+v", code, pd)
	}

	var inv model.PlaydateInvitation
	code = doJSON(t, srv, http.MethodPost, "/v1/invitations", "host", map[string]string{
		"playdateId": pd.ID, "recipientId": "guest",
	}, &inv)
	if code != http.StatusCreated {
		t.Fatalf("send invitation: status %d", code)
	}

	code = doJSON(t, srv, http.MethodPost, "/v1/invitations/"+inv.ID+"/accept", "guest", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("accept invitation: status %d", code)
	}

	var got model.Playdate
	code = doJSON(t, srv, http.MethodGet, "/v1/playdates/"+pd.ID, "guest", nil, &got)
	if code != http.StatusOK || !got.HasAttendee("guest") {
		t.Fatalf("playdate after accept: status %d pd %+v", code, got)
	}

	// Unknown invitation is a 404.
	code = doJSON(t, srv, http.MethodPost, "/v1/invitations/nope/decline", "guest", nil, nil)
	if code != http.StatusNotFound {
		t.Fatalf("missing invitation: status %d", code)
	}
}

func TestDeleteUser(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, "alice")
	createUser(t, srv, "mallory")

	if code := doJSON(t, srv, http.MethodDelete, "/v1/users/alice", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous delete: status %d", code)
	}
	if code := doJSON(t, srv, http.MethodDelete, "/v1/users/alice", "mallory", nil, nil); code != http.StatusForbidden {
		t.Fatalf("cross-user delete: status %d", code)
	}
	if code := doJSON(t, srv, http.MethodDelete, "/v1/users/alice", "alice", nil, nil); code != http.StatusNoContent {
		t.Fatalf("self delete: status %d", code)
	}
	if code := doJSON(t, srv, http.MethodGet, "/v1/users/alice", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", code)
	}
}

func TestBadTokenRejected(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/friends", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", resp.StatusCode)
	}
}

func TestUpdatesStream(t *testing.T) {
	srv, bus := newTestServerWithBus(t)
	createUser(t, srv, "alice")
	createUser(t, srv, "bob")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/users/bob/updates?access_token=uid:bob"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The handler subscribes after the upgrade; wait for it before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount("bob") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Streaming someone else's updates is forbidden.
	otherURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/users/alice/updates?access_token=uid:bob"
	if _, resp, err := websocket.DefaultDialer.Dial(otherURL, nil); err == nil {
		t.Fatal("expected dial to fail for another user's stream")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user dial: resp %v", resp)
	}

	code := doJSON(t, srv, http.MethodPost, "/v1/friend-requests", "alice", map[string]string{"recipientId": "bob"}, nil)
	if code != http.StatusCreated {
		t.Fatalf("send: status %d", code)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var evt events.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Kind != events.EventFriendRequestReceived || evt.ActorID != "alice" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}
