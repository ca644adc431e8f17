// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Event status constants
const (
	StatusActive    = "active"
	StatusLocked    = "locked"
	StatusCancelled = "cancelled"
)

// Availability is a participant's answer for one time slot.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityMaybe       Availability = "maybe"
	AvailabilityUnavailable Availability = "unavailable"
)

// Valid reports whether a is one of the three canonical values.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityMaybe, AvailabilityUnavailable:
		return true
	}
	return false
}

// AvailabilityFromBool maps the two-state checkbox UI onto the canonical domain.
func AvailabilityFromBool(available bool) Availability {
	if available {
		return AvailabilityAvailable
	}
	return AvailabilityUnavailable
}

// Vote change operations published on the change feed
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Request types

type TimeSlotInput struct {
	StartTime time.Time  `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Label     string     `json:"label,omitempty" validate:"max=100"`
}

type CreateEventRequest struct {
	Title     string          `json:"title" validate:"required,max=100"`
	Location  string          `json:"location,omitempty" validate:"max=200"`
	Notes     string          `json:"notes,omitempty" validate:"max=500"`
	TimeSlots []TimeSlotInput `json:"time_slots" validate:"min=2,dive"`
}

// VoteInput carries either the three-state availability or the boolean
// checkbox form. Availability wins when both are set.
type VoteInput struct {
	TimeSlotID   string       `json:"timeslot_id" validate:"required"`
	Availability Availability `json:"availability,omitempty"`
	Available    *bool        `json:"available,omitempty"`
}

type SubmitVotesRequest struct {
	DisplayName *string     `json:"display_name,omitempty"`
	Votes       []VoteInput `json:"votes" validate:"dive"`
}

type LockSlotRequest struct {
	TimeSlotID string `json:"timeslot_id"`
}

// Response types

type CreateEventResponse struct {
	EventID   string `json:"event_id"`
	SharePath string `json:"share_path"`
	ShareURL  string `json:"share_url"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type MyEventsResponse struct {
	Events []EventSummary `json:"events"`
}

type PresetsResponse struct {
	Name      string          `json:"name"`
	TimeSlots []TimeSlotInput `json:"time_slots"`
}

// Domain types

type Event struct {
	ID           string    `json:"event_id" db:"event_id"`
	Title        string    `json:"title" db:"title"`
	Location     *string   `json:"location,omitempty" db:"location"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	TTL          time.Time `json:"ttl" db:"ttl"`
	LockedTimeID *string   `json:"locked_time_id,omitempty" db:"locked_time_id"`
}

type TimeSlot struct {
	ID        string     `json:"timeslot_id" db:"timeslot_id"`
	EventID   string     `json:"event_id" db:"event_id"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`
	Label     *string    `json:"label,omitempty" db:"label"`
	Position  int        `json:"position" db:"sort_order"`
}

// Participant is the per-event record of an anonymous browser token.
type Participant struct {
	Token       string    `json:"-" db:"participant_token"` // Never expose in JSON
	EventID     string    `json:"event_id" db:"event_id"`
	IsOrganizer bool      `json:"is_organizer" db:"is_organizer"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	LastActive  time.Time `json:"last_active" db:"last_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Vote struct {
	ID               string       `json:"vote_id" db:"vote_id"`
	TimeSlotID       string       `json:"timeslot_id" db:"timeslot_id"`
	ParticipantToken string       `json:"-" db:"participant_token"` // Never expose in JSON
	EventID          string       `json:"event_id" db:"event_id"`
	Availability     Availability `json:"availability" db:"availability"`
	DisplayName      *string      `json:"display_name,omitempty" db:"-"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// VoteChange is one row-level change on the vote table.
type VoteChange struct {
	Op         string    `json:"op"`
	VoteID     string    `json:"vote_id"`
	TimeSlotID string    `json:"timeslot_id"`
	EventID    string    `json:"event_id"`
	At         time.Time `json:"at"`
}

// Tally result types

type SlotTally struct {
	TimeSlot
	AvailableCount   int    `json:"available_count"`
	MaybeCount       int    `json:"maybe_count"`
	UnavailableCount int    `json:"unavailable_count"`
	Votes            []Vote `json:"votes"`
	Rank             int    `json:"rank"` // 1-indexed ranking
	Recommended      bool   `json:"recommended"`
}

type EventView struct {
	Event             Event         `json:"event"`
	TimeSlots         []SlotTally   `json:"time_slots"`
	RecommendedSlotID *string       `json:"recommended_slot_id,omitempty"`
	Participants      []Participant `json:"participants"`
	ComputedAt        time.Time     `json:"computed_at"`
}

// Viewer describes the requesting participant on the event page.
type Viewer struct {
	IsOrganizer bool                    `json:"is_organizer"`
	DisplayName *string                 `json:"display_name,omitempty"`
	MyVotes     map[string]Availability `json:"my_votes"`
}

type EventPage struct {
	EventView
	Viewer Viewer `json:"viewer"`
}

type EventSummary struct {
	Event
	ParticipantCount int    `json:"participant_count"`
	VoteCount        int    `json:"vote_count"`
	TimeSlotCount    int    `json:"time_slot_count"`
	CreatedAgo       string `json:"created_ago"`
	ExpiresIn        string `json:"expires_in"`
}

// Export row for CSV tally downloads
type TallyRow struct {
	Rank             int    `csv:"rank"`
	TimeSlotID       string `csv:"timeslot_id"`
	StartTime        string `csv:"start_time"`
	EndTime          string `csv:"end_time"`
	Label            string `csv:"label"`
	AvailableCount   int    `csv:"available"`
	MaybeCount       int    `csv:"maybe"`
	UnavailableCount int    `csv:"unavailable"`
	Recommended      bool   `csv:"recommended"`
	Locked           bool   `csv:"locked"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
