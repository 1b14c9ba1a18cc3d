package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/api/recovery"
	"github.com/psimmons86/playdates-server/internal/auth"
	"github.com/psimmons86/playdates-server/internal/events"
	"github.com/psimmons86/playdates-server/internal/services"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Users       *services.UserService
	Friendships *services.FriendshipService
	Invitations *services.InvitationService
	Playdates   *services.PlaydateService
	Bus         *events.Bus
	Authorizer  auth.Authorizer
	Log         zerolog.Logger
}

// NewRouter wires every route under /v1 with recovery and auth middleware.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware)
	r.Use(AuthMiddleware(d.Authorizer))

	v1 := r.PathPrefix("/v1").Subrouter()

	health := NewHealthHandler()
	v1.HandleFunc("/health", health.CheckHealth).Methods(http.MethodGet)

	users := NewUserHandler(d.Users, d.Friendships)
	v1.HandleFunc("/users", users.CreateUser).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userId}", users.GetUser).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userId}", users.DeleteUser).Methods(http.MethodDelete)
	v1.HandleFunc("/users/{userId}/friendship-status", users.FriendshipStatus).Methods(http.MethodGet)

	friends := NewFriendHandler(d.Friendships)
	v1.HandleFunc("/friend-requests", friends.SendRequest).Methods(http.MethodPost)
	v1.HandleFunc("/friend-requests/incoming", friends.ListIncoming).Methods(http.MethodGet)
	v1.HandleFunc("/friend-requests/outgoing", friends.ListOutgoing).Methods(http.MethodGet)
	v1.HandleFunc("/friend-requests/{requestId}/accept", friends.AcceptRequest).Methods(http.MethodPost)
	v1.HandleFunc("/friend-requests/{requestId}/decline", friends.DeclineRequest).Methods(http.MethodPost)
	v1.HandleFunc("/friend-requests/{requestId}", friends.CancelRequest).Methods(http.MethodDelete)
	v1.HandleFunc("/friends", friends.ListFriends).Methods(http.MethodGet)
	v1.HandleFunc("/friends/{friendId}", friends.RemoveFriend).Methods(http.MethodDelete)

	playdates := NewPlaydateHandler(d.Playdates)
	v1.HandleFunc("/playdates", playdates.Create).Methods(http.MethodPost)
	v1.HandleFunc("/playdates", playdates.List).Methods(http.MethodGet)
	v1.HandleFunc("/playdates/{playdateId}", playdates.Get).Methods(http.MethodGet)

	invitations := NewInvitationHandler(d.Invitations)
	v1.HandleFunc("/invitations", invitations.Send).Methods(http.MethodPost)
	v1.HandleFunc("/invitations", invitations.ListIncoming).Methods(http.MethodGet)
	v1.HandleFunc("/invitations/sent", invitations.ListSent).Methods(http.MethodGet)
	v1.HandleFunc("/invitations/{invitationId}/accept", invitations.Accept).Methods(http.MethodPost)
	v1.HandleFunc("/invitations/{invitationId}/decline", invitations.Decline).Methods(http.MethodPost)

	updates := NewUpdatesHandler(d.Bus, d.Log)
	v1.HandleFunc("/users/{userId}/updates", updates.Stream).Methods(http.MethodGet)

	return r
}
