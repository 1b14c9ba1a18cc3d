package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/psimmons86/playdates-server/internal/api/respond"
	"github.com/psimmons86/playdates-server/internal/services"
)

type FriendHandler struct {
	svc *services.FriendshipService
}

func NewFriendHandler(svc *services.FriendshipService) *FriendHandler {
	return &FriendHandler{svc: svc}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RecipientID string  `json:"recipientId"`
		Message     *string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	req, err := h.svc.SendFriendRequest(r.Context(), ActorID(r), in.RecipientID, in.Message)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, req)
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	requestID := mux.Vars(r)["requestId"]
	req, err := h.svc.RespondToFriendRequest(r.Context(), ActorID(r), requestID, accept)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, req)
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	if err := h.svc.CancelFriendRequest(r.Context(), ActorID(r), requestID); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListIncomingRequests(r.Context(), ActorID(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": reqs, "count": len(reqs)})
}

func (h *FriendHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListOutgoingRequests(r.Context(), ActorID(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": reqs, "count": len(reqs)})
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.svc.ListFriends(r.Context(), ActorID(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"friends": friends, "count": len(friends)})
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	friendID := mux.Vars(r)["friendId"]
	if err := h.svc.RemoveFriendship(r.Context(), ActorID(r), friendID); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
