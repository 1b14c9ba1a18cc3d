package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/psimmons86/playdates-server/internal/api/respond"
	"github.com/psimmons86/playdates-server/internal/model"
	"github.com/psimmons86/playdates-server/internal/services"
)

type PlaydateHandler struct {
	svc *services.PlaydateService
}

func NewPlaydateHandler(svc *services.PlaydateService) *PlaydateHandler {
	return &PlaydateHandler{svc: svc}
}

func (h *PlaydateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string    `json:"title"`
		Description *string   `json:"description,omitempty"`
		Location    *string   `json:"location,omitempty"`
		StartTime   time.Time `json:"startTime"`
		EndTime     time.Time `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	pd, err := h.svc.CreatePlaydate(r.Context(), ActorID(r), &model.Playdate{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, pd)
}

func (h *PlaydateHandler) Get(w http.ResponseWriter, r *http.Request) {
	pd, err := h.svc.GetPlaydate(r.Context(), mux.Vars(r)["playdateId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, pd)
}

func (h *PlaydateHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	pds, err := h.svc.ListPlaydates(r.Context(), limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"playdates": pds, "count": len(pds)})
}
