// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Meet API.

# Handler Types

Each handler is a struct over the scheduling service and config:

  - EventHandler: Event lifecycle (create, view, lock, cancel)
  - VotingHandler: Availability submission
  - ResultsHandler: Live tally stream and exports
  - OrganizerHandler: Organizer dashboard and slot presets

Handlers are created via constructor functions:

	eventHandler := handlers.NewEventHandler(svc, cfg)

Every handler expects to run behind middleware.WithParticipant, which
resolves the caller's participant token.

# Event Lifecycle

Events start active and end either locked or cancelled:

	POST /events             → CreateEvent (caller becomes organizer)
	GET  /events/{id}        → GetEvent (ranked tally + viewer)
	POST /events/{id}/lock   → LockSlot (organizer only)
	POST /events/{id}/cancel → CancelEvent (organizer only)

Status guards run before the service call: locking a cancelled event,
re-locking to a different slot, or cancelling a locked event is 409.
Re-locking to the same slot succeeds.

# Voting

	POST /events/{id}/votes → SubmitVotes

Votes are accepted while the event is active. Each entry carries
"availability" (available, maybe, unavailable) or the boolean "available".

# Results

	GET /events/{id}/stream       → Stream (SSE, organizer only)
	GET /events/{id}/calendar.ics → Calendar (locked events)
	GET /events/{id}/tally.csv    → TallyCSV

The stream sends a "tally" event with the full view on connect and after
every vote change.

# Errors

Service errors map to statuses in one place (writeServiceError):
not found 404, invalid input 400, unauthorized 403, conflict 409,
store failure or timeout 503.
*/
package handlers
