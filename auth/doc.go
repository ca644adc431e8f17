// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifier and token generation utilities.

# Participant Tokens

Participants are anonymous. A browser holds a random token which the
server treats as an opaque capability:

	token := auth.GenerateParticipantToken()
	err := auth.ValidateParticipantToken(token)

Validation only rejects tokens that cannot round-trip through a cookie
or header. Whether a token is the organizer of an event is decided by the
participant table, never by the token itself.

# Event IDs

Event IDs are three-word slugs (adjective-color-animal):

	id, err := auth.GenerateEventID() // "brave-blue-elephant"

The space is small on purpose so links stay readable; callers retry on
collision.

# Row IDs

	slotID, err := auth.GenerateSlotID() // 12 char nanoid
	voteID := auth.GenerateVoteID()      // UUID
*/
package auth
