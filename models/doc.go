// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateEventRequest: title, location, notes, time_slots (at least 2)
  - SubmitVotesRequest: display_name, votes
  - VoteInput: timeslot_id plus availability or available (bool)
  - LockSlotRequest: timeslot_id

# Response Types

  - CreateEventResponse: event_id, share_path, share_url
  - SuccessResponse: success, message
  - MyEventsResponse: events (organizer summaries)
  - ErrorResponse: error, message

# Domain Types

  - Event: event metadata and lifecycle state
  - TimeSlot: one proposed meeting time
  - Participant: per-event record of an anonymous token
  - Vote: one availability answer per (slot, participant)
  - SlotTally: per-slot counts, raw votes and rank
  - EventView: event with ranked slots and recommended slot

Participant tokens are tagged json:"-" and never leave the server.

# Constants

Status values:

	StatusActive    = "active"
	StatusLocked    = "locked"
	StatusCancelled = "cancelled"

Availability values:

	AvailabilityAvailable   = "available"
	AvailabilityMaybe       = "maybe"
	AvailabilityUnavailable = "unavailable"

The boolean checkbox form maps true to available and false to unavailable
via AvailabilityFromBool. A missing vote row is the only "no answer" state.
*/
package models
