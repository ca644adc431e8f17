// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduling implements the event lifecycle: creating events with
their candidate time slots, collecting votes, and locking or cancelling.

# State Machine

Events start active. The organizer can move an active event to locked
(choosing one of its slots) or to cancelled. Both are terminal.

	active ──LockSlot──▶ locked
	   │
	   └──CancelEvent──▶ cancelled

The service checks existence, organizer authorization and slot membership.
It does not re-check the current status: callers (the HTTP handlers) guard
against voting on or re-locking a finished event.

# Identity

Every operation takes the caller's participant token as a parameter. The
token is opaque here; issuing and persisting it is the caller's job.

# Writes

CreateEvent writes the event, its slots and the organizer participant in
three steps. If a later step fails the earlier ones are undone in reverse
order. Undo failures are logged and the original error is returned.

SubmitVotes validates the whole batch first, then upserts the participant
and each vote. Concurrent submissions for the same slot are last-write-wins.

# Errors

All errors wrap one of ErrNotFound, ErrInvalidInput, ErrUnauthorized,
ErrConflict or ErrStoreFailure:

	if errors.Is(err, scheduling.ErrUnauthorized) {
		// 403
	}
*/
package scheduling
