// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/middleware"
	"github.com/danielhkuo/quickly-meet/models"
	"github.com/danielhkuo/quickly-meet/scheduling"
)

type OrganizerHandler struct {
	svc *scheduling.Service
	cfg cliparse.Config
}

func NewOrganizerHandler(svc *scheduling.Service, cfg cliparse.Config) *OrganizerHandler {
	return &OrganizerHandler{svc: svc, cfg: cfg}
}

// MyEvents handles GET /my-events
// Lists the events the caller's token organizes, newest first.
func (h *OrganizerHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEventsForOrganizer(r.Context(), middleware.ParticipantToken(r))
	if err != nil {
		writeServiceError(w, err, "list events")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyEventsResponse{Events: events})
}

// Presets handles GET /presets?name=&tz=
// Without a name every preset is returned. tz is an IANA zone name and
// defaults to UTC.
func (h *OrganizerHandler) Presets(w http.ResponseWriter, r *http.Request) {
	loc, err := time.LoadLocation(r.URL.Query().Get("tz"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown time zone")
		return
	}
	now := time.Now().In(loc)

	name := r.URL.Query().Get("name")
	if name != "" {
		slots, err := scheduling.Presets(name, now)
		if err != nil {
			writeServiceError(w, err, "build preset")
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.PresetsResponse{Name: name, TimeSlots: slots})
		return
	}

	presets := make([]models.PresetsResponse, 0, len(scheduling.PresetNames))
	for _, name := range scheduling.PresetNames {
		slots, err := scheduling.Presets(name, now)
		if err != nil {
			writeServiceError(w, err, "build preset")
			return
		}
		presets = append(presets, models.PresetsResponse{Name: name, TimeSlots: slots})
	}
	middleware.JSONResponse(w, http.StatusOK, presets)
}
