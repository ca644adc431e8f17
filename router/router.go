// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/handlers"
	"github.com/danielhkuo/quickly-meet/middleware"
	"github.com/danielhkuo/quickly-meet/realtime"
	"github.com/danielhkuo/quickly-meet/scheduling"
)

func NewRouter(svc *scheduling.Service, projector *realtime.Projector, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc, projector, cfg)
	organizerHandler := handlers.NewOrganizerHandler(svc, cfg)

	// api wraps a handler with logging, participant identity and the store timeout
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithParticipant(cfg.SecureCookies, middleware.WithTimeout(cfg.RequestTimeout, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Event lifecycle
	mux.HandleFunc("POST /events", api(eventHandler.CreateEvent))
	mux.HandleFunc("GET /events/{id}", api(eventHandler.GetEvent))
	mux.HandleFunc("POST /events/{id}/lock", api(eventHandler.LockSlot))
	mux.HandleFunc("POST /events/{id}/cancel", api(eventHandler.CancelEvent))

	// Voting
	mux.HandleFunc("POST /events/{id}/votes", api(votingHandler.SubmitVotes))

	// Results (the stream lives as long as the client stays connected)
	mux.HandleFunc("GET /events/{id}/stream", middleware.WithLogging(middleware.WithParticipant(cfg.SecureCookies, resultsHandler.Stream)))
	mux.HandleFunc("GET /events/{id}/calendar.ics", api(resultsHandler.Calendar))
	mux.HandleFunc("GET /events/{id}/tally.csv", api(resultsHandler.TallyCSV))

	// Organizer dashboard
	mux.HandleFunc("GET /my-events", api(organizerHandler.MyEvents))
	mux.HandleFunc("GET /presets", api(organizerHandler.Presets))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-meet API v1"))
	})

	return mux
}
