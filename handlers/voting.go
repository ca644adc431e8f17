// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/middleware"
	"github.com/danielhkuo/quickly-meet/models"
	"github.com/danielhkuo/quickly-meet/scheduling"
)

type VotingHandler struct {
	svc *scheduling.Service
	cfg cliparse.Config
}

func NewVotingHandler(svc *scheduling.Service, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{svc: svc, cfg: cfg}
}

// SubmitVotes handles POST /events/{id}/votes
// Creates or updates one vote per listed slot. Only active events accept votes.
func (h *VotingHandler) SubmitVotes(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	var req models.SubmitVotesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ev, err := h.svc.GetEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err, "submit votes")
		return
	}
	if ev.Status != models.StatusActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is "+ev.Status+" and no longer accepts votes")
		return
	}

	if err := h.svc.SubmitVotes(r.Context(), eventID, middleware.ParticipantToken(r), req); err != nil {
		writeServiceError(w, err, "submit votes")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Votes saved",
	})
}
