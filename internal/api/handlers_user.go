package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/psimmons86/playdates-server/internal/api/respond"
	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/services"
)

type UserHandler struct {
	users      *services.UserService
	friendship *services.FriendshipService
}

func NewUserHandler(users *services.UserService, friendship *services.FriendshipService) *UserHandler {
	return &UserHandler{users: users, friendship: friendship}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID      string  `json:"userId"`
		Email       string  `json:"email"`
		DisplayName *string `json:"displayName,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := h.users.CreateUser(r.Context(), &model.User{
		UserID:      in.UserID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	u, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser removes the caller's own account. Deleting another user is
// forbidden.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	actor := ActorID(r)
	if actor == "" {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if actor != userID {
		respond.WriteError(w, http.StatusForbidden, "cannot delete another user")
		return
	}
	if err := h.users.DeleteUser(r.Context(), userID); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FriendshipStatus handles GET /v1/users/{userId}/friendship-status and
// reports the relationship between the caller and the named user.
func (h *UserHandler) FriendshipStatus(w http.ResponseWriter, r *http.Request) {
	otherID := mux.Vars(r)["userId"]
	status, err := h.friendship.FriendshipStatus(r.Context(), ActorID(r), otherID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, status)
}
