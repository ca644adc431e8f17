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

type EventHandler struct {
	svc *scheduling.Service
	cfg cliparse.Config
}

func NewEventHandler(svc *scheduling.Service, cfg cliparse.Config) *EventHandler {
	return &EventHandler{svc: svc, cfg: cfg}
}

// CreateEvent handles POST /events
// The caller becomes the organizer.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	eventID, err := h.svc.CreateEvent(r.Context(), req, middleware.ParticipantToken(r))
	if err != nil {
		writeServiceError(w, err, "create event")
		return
	}

	sharePath := "/events/" + eventID
	middleware.JSONResponse(w, http.StatusCreated, models.CreateEventResponse{
		EventID:   eventID,
		SharePath: sharePath,
		ShareURL:  h.cfg.BaseURL + sharePath,
	})
}

// GetEvent handles GET /events/{id}
// Returns the ranked tally plus the caller's own votes.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	page, err := h.svc.GetEventPage(r.Context(), eventID, middleware.ParticipantToken(r))
	if err != nil {
		writeServiceError(w, err, "load event")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, page)
}

// LockSlot handles POST /events/{id}/lock
func (h *EventHandler) LockSlot(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	var req models.LockSlotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TimeSlotID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "timeslot_id is required")
		return
	}

	ev, err := h.svc.GetEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err, "lock event")
		return
	}
	token := middleware.ParticipantToken(r)
	if err := h.svc.AuthorizeOrganizer(r.Context(), eventID, token); err != nil {
		writeServiceError(w, err, "lock event")
		return
	}

	switch ev.Status {
	case models.StatusCancelled:
		middleware.ErrorResponse(w, http.StatusConflict, "Event is cancelled")
		return
	case models.StatusLocked:
		// Re-locking to the same slot is a no-op success.
		if ev.LockedTimeID == nil || *ev.LockedTimeID != req.TimeSlotID {
			middleware.ErrorResponse(w, http.StatusConflict, "Event is already locked to another time")
			return
		}
	}

	if err := h.svc.LockSlot(r.Context(), eventID, req.TimeSlotID, token); err != nil {
		writeServiceError(w, err, "lock event")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Event locked",
	})
}

// CancelEvent handles POST /events/{id}/cancel
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	ev, err := h.svc.GetEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err, "cancel event")
		return
	}
	token := middleware.ParticipantToken(r)
	if err := h.svc.AuthorizeOrganizer(r.Context(), eventID, token); err != nil {
		writeServiceError(w, err, "cancel event")
		return
	}
	if ev.Status == models.StatusLocked {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is already locked")
		return
	}

	if err := h.svc.CancelEvent(r.Context(), eventID, token); err != nil {
		writeServiceError(w, err, "cancel event")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Event cancelled",
	})
}
