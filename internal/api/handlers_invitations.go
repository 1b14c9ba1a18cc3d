package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/psimmons86/playdates-server/internal/api/respond"
	"github.com/psimmons86/playdates-server/internal/services"
)

type InvitationHandler struct {
	svc *services.InvitationService
}

func NewInvitationHandler(svc *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlaydateID  string  `json:"playdateId"`
		RecipientID string  `json:"recipientId"`
		Message     *string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	inv, err := h.svc.SendInvitation(r.Context(), ActorID(r), in.PlaydateID, in.RecipientID, in.Message)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, inv)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *InvitationHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	invitationID := mux.Vars(r)["invitationId"]
	inv, err := h.svc.RespondToInvitation(r.Context(), ActorID(r), invitationID, accept)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, inv)
}

func (h *InvitationHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.ListInvitations(r.Context(), ActorID(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"invitations": invs, "count": len(invs)})
}

func (h *InvitationHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.ListSentInvitations(r.Context(), ActorID(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"invitations": invs, "count": len(invs)})
}
