// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Meet API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, projector, cfg)

# Endpoints

Health:

	GET /health

Event lifecycle:

	POST /events             - Create event (caller becomes organizer)
	GET  /events/{id}        - Ranked tally and the caller's votes
	POST /events/{id}/lock   - Lock a slot (organizer)
	POST /events/{id}/cancel - Cancel (organizer)

Voting:

	POST /events/{id}/votes - Submit or update availability

Results:

	GET /events/{id}/stream       - Live tally (SSE, organizer)
	GET /events/{id}/calendar.ics - Invite for the locked slot
	GET /events/{id}/tally.csv    - Tally download

Organizer dashboard:

	GET /my-events           - Events the caller organizes
	GET /presets?name=&tz=   - Generated candidate slots

# Middleware

Every API route runs through WithLogging, WithParticipant and WithTimeout.
The stream skips the timeout since it lives as long as the client.
*/
package router
