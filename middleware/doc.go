// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). The wrapped writer unwraps to the original, so
http.NewResponseController can still flush streaming responses.

# Participant Identity

Every visitor is identified by an opaque token. WithParticipant reads it
from the X-Participant-Token header, then from the event_scheduler_user
cookie, and issues a new cookie when neither is present:

	h := middleware.WithParticipant(cfg.SecureCookies, handler)

Handlers read the resolved token with:

	token := middleware.ParticipantToken(r)

# Timeouts

WithTimeout bounds the request context so a slow store surfaces as
context.DeadlineExceeded. Streaming routes are not wrapped.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type and
X-Participant-Token.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
