// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/export"
	"github.com/danielhkuo/quickly-meet/middleware"
	"github.com/danielhkuo/quickly-meet/models"
	"github.com/danielhkuo/quickly-meet/realtime"
	"github.com/danielhkuo/quickly-meet/scheduling"
)

type ResultsHandler struct {
	svc       *scheduling.Service
	projector *realtime.Projector
	cfg       cliparse.Config
}

func NewResultsHandler(svc *scheduling.Service, projector *realtime.Projector, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{svc: svc, projector: projector, cfg: cfg}
}

// Stream handles GET /events/{id}/stream
// Server-Sent Events: one "tally" event with the full view on connect and
// after every vote change. Organizer only.
func (h *ResultsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	if err := h.svc.AuthorizeOrganizer(r.Context(), eventID, middleware.ParticipantToken(r)); err != nil {
		writeServiceError(w, err, "open stream")
		return
	}

	views, err := h.projector.Watch(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err, "open stream")
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Warn("streaming not supported", "event_id", eventID, "error", err)
		return
	}

	slog.Debug("stream opened", "event_id", eventID)
	for view := range views {
		data, err := json.Marshal(view)
		if err != nil {
			slog.Error("failed to encode view", "event_id", eventID, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: tally\ndata: %s\n\n", data); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
	slog.Debug("stream closed", "event_id", eventID)
}

// Calendar handles GET /events/{id}/calendar.ics
// Returns 409 until the event is locked.
func (h *ResultsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	view, err := h.svc.GetEventWithTally(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err, "export calendar")
		return
	}
	if view.Event.Status != models.StatusLocked {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not locked yet")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCalendar(&buf, view, h.cfg.BaseURL+"/events/"+eventID, time.Now()); err != nil {
		slog.Error("failed to write calendar", "event_id", eventID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(view.Event, "ics")))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// TallyCSV handles GET /events/{id}/tally.csv
// Rows are in ranked order.
func (h *ResultsHandler) TallyCSV(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	view, err := h.svc.GetEventWithTally(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err, "export tally")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTallyCSV(&buf, view); err != nil {
		slog.Error("failed to write tally", "event_id", eventID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export tally")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(view.Event, "csv")))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
