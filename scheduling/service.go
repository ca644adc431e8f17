// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/quickly-meet/auth"
	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/models"
	"github.com/danielhkuo/quickly-meet/store"
	"github.com/danielhkuo/quickly-meet/tally"
)

const (
	// MaxEventIDAttempts bounds the collision retry loop in CreateEvent.
	MaxEventIDAttempts = 10
	MaxDisplayNameLen  = 50
	DefaultEventTTL    = 90 * 24 * time.Hour
)

// Store is the slice of the event store the service drives.
type Store interface {
	CreateEvent(ctx context.Context, ev models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (models.Event, error)
	EventExists(ctx context.Context, id string) (bool, error)
	UpdateEventStatus(ctx context.Context, id, status string, lockedTimeID *string) error
	ListOrganizerEvents(ctx context.Context, token string) ([]models.Event, error)

	InsertSlots(ctx context.Context, slots []models.TimeSlot) error
	DeleteSlotsByEvent(ctx context.Context, eventID string) error
	GetSlot(ctx context.Context, id string) (models.TimeSlot, error)
	ListSlots(ctx context.Context, eventID string) ([]models.TimeSlot, error)
	CountSlots(ctx context.Context, eventID string) (int, error)

	GetParticipant(ctx context.Context, token, eventID string) (models.Participant, error)
	UpsertParticipant(ctx context.Context, p models.Participant) error
	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
	CountParticipants(ctx context.Context, eventID string) (int, error)

	GetVote(ctx context.Context, slotID, token string) (models.Vote, error)
	InsertVote(ctx context.Context, v models.Vote) error
	UpdateVote(ctx context.Context, v models.Vote) error
	ListVotesForSlots(ctx context.Context, slotIDs []string) ([]models.Vote, error)
	ListVotesForParticipant(ctx context.Context, eventID, token string) ([]models.Vote, error)
	CountDistinctVoters(ctx context.Context, eventID string) (int, error)

	SubscribeToVoteChanges(slotIDs []string, fn func(models.VoteChange)) (cancel func())
}

var _ Store = (*store.SQLStore)(nil)

// Service applies the event lifecycle rules on top of a Store.
type Service struct {
	store    Store
	validate *validator.Validate
	ttl      time.Duration

	now        func() time.Time
	newEventID func() (string, error)
	newSlotID  func() (string, error)
	newVoteID  func() string
}

// Option customises a Service, mostly for tests.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEventIDGenerator replaces the three-word event id generator.
func WithEventIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newEventID = gen }
}

func NewService(st Store, cfg cliparse.Config, opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Service{
		store:      st,
		validate:   v,
		ttl:        cfg.EventTTL,
		now:        time.Now,
		newEventID: auth.GenerateEventID,
		newSlotID:  auth.GenerateSlotID,
		newVoteID:  auth.GenerateVoteID,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultEventTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubscribeToVoteChanges passes through to the store's change feed.
func (s *Service) SubscribeToVoteChanges(slotIDs []string, fn func(models.VoteChange)) (cancel func()) {
	return s.store.SubscribeToVoteChanges(slotIDs, fn)
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// CreateEvent writes the event, its slots and the organizer participant as
// one unit. A failure after the event row exists undoes what was written.
func (s *Service) CreateEvent(ctx context.Context, req models.CreateEventRequest, organizerToken string) (string, error) {
	if err := auth.ValidateParticipantToken(organizerToken); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	req.Notes = strings.TrimSpace(req.Notes)

	// Validate everything before the first write
	if len(req.TimeSlots) < 2 {
		return "", invalidf("at least 2 time slots are required")
	}
	if err := s.validate.Struct(req); err != nil {
		return "", validationErr(err)
	}
	for i, in := range req.TimeSlots {
		if in.StartTime.IsZero() {
			return "", invalidf("time_slots[%d].start_time is required", i)
		}
		if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
			return "", invalidf("time_slots[%d].end_time is before start_time", i)
		}
	}

	now := s.clock()
	ev := models.Event{
		Title:     req.Title,
		Location:  optional(req.Location),
		Notes:     optional(req.Notes),
		Status:    models.StatusActive,
		CreatedAt: now,
		TTL:       now.Add(s.ttl),
	}

	slots := make([]models.TimeSlot, len(req.TimeSlots))
	for i, in := range req.TimeSlots {
		slotID, err := s.newSlotID()
		if err != nil {
			return "", fmt.Errorf("failed to generate slot id: %w", err)
		}
		var end *time.Time
		if in.EndTime != nil {
			e := in.EndTime.UTC()
			end = &e
		}
		slots[i] = models.TimeSlot{
			ID:        slotID,
			StartTime: in.StartTime.UTC(),
			EndTime:   end,
			Label:     optional(strings.TrimSpace(in.Label)),
			Position:  i,
		}
	}

	eventID, err := s.insertEventWithFreshID(ctx, &ev)
	if err != nil {
		return "", err
	}

	var undo compensator
	undo.push("delete event", func(ctx context.Context) error {
		return s.store.DeleteEvent(ctx, eventID)
	})

	for i := range slots {
		slots[i].EventID = eventID
	}
	if err := s.store.InsertSlots(ctx, slots); err != nil {
		undo.rollback(ctx)
		return "", storeErr("insert time slots", err)
	}
	undo.push("delete time slots", func(ctx context.Context) error {
		return s.store.DeleteSlotsByEvent(ctx, eventID)
	})

	organizer := models.Participant{
		Token:       organizerToken,
		EventID:     eventID,
		IsOrganizer: true,
		LastActive:  now,
		CreatedAt:   now,
	}
	if err := s.store.UpsertParticipant(ctx, organizer); err != nil {
		undo.rollback(ctx)
		return "", storeErr("insert organizer", err)
	}

	slog.Info("event created", "event_id", eventID, "slots", len(slots))
	return eventID, nil
}

// insertEventWithFreshID generates candidate ids until one is both unseen
// and accepted by the store. Concurrent creators can race past the
// existence check, so a duplicate insert is retried as well.
func (s *Service) insertEventWithFreshID(ctx context.Context, ev *models.Event) (string, error) {
	for attempt := 1; attempt <= MaxEventIDAttempts; attempt++ {
		id, err := s.newEventID()
		if err != nil {
			return "", fmt.Errorf("failed to generate event id: %w", err)
		}

		exists, err := s.store.EventExists(ctx, id)
		if err != nil {
			return "", storeErr("check event id", err)
		}
		if exists {
			slog.Debug("event id collision", "event_id", id, "attempt", attempt)
			continue
		}

		ev.ID = id
		err = s.store.CreateEvent(ctx, *ev)
		if errors.Is(err, store.ErrDuplicate) {
			slog.Debug("event id taken on insert", "event_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", storeErr("insert event", err)
		}
		return id, nil
	}

	return "", fmt.Errorf("%w: could not generate a unique event id after %d attempts", ErrConflict, MaxEventIDAttempts)
}

// SubmitVotes records a participant's answers. The whole batch is validated
// before anything is written; the writes themselves are independent
// per-slot upserts.
func (s *Service) SubmitVotes(ctx context.Context, eventID, token string, req models.SubmitVotesRequest) error {
	if err := auth.ValidateParticipantToken(token); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return storeErr("get event", err)
	}

	displayName, err := normalizeDisplayName(req.DisplayName)
	if err != nil {
		return err
	}
	if err := s.validate.Struct(req); err != nil {
		return validationErr(err)
	}

	slots, err := s.store.ListSlots(ctx, eventID)
	if err != nil {
		return storeErr("list time slots", err)
	}
	inEvent := make(map[string]bool, len(slots))
	for _, slot := range slots {
		inEvent[slot.ID] = true
	}

	type answer struct {
		slotID       string
		availability models.Availability
	}
	answers := make([]answer, 0, len(req.Votes))
	for i, in := range req.Votes {
		a, err := resolveAvailability(in)
		if err != nil {
			return fmt.Errorf("votes[%d]: %w", i, err)
		}
		if !inEvent[in.TimeSlotID] {
			return invalidf("votes[%d]: time slot %s does not belong to this event", i, in.TimeSlotID)
		}
		answers = append(answers, answer{slotID: in.TimeSlotID, availability: a})
	}

	now := s.clock()
	if err := s.store.UpsertParticipant(ctx, models.Participant{
		Token:       token,
		EventID:     eventID,
		DisplayName: displayName,
		LastActive:  now,
		CreatedAt:   now,
	}); err != nil {
		return storeErr("upsert participant", err)
	}

	for _, a := range answers {
		if err := s.putVote(ctx, eventID, token, a.slotID, a.availability, now); err != nil {
			return err
		}
	}

	slog.Info("votes submitted", "event_id", eventID, "votes", len(answers))
	return nil
}

// putVote writes one answer. When a concurrent first submission for the
// same pair wins the insert, this one becomes an update of that row.
func (s *Service) putVote(ctx context.Context, eventID, token, slotID string, a models.Availability, now time.Time) error {
	existing, err := s.store.GetVote(ctx, slotID, token)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		v := models.Vote{
			ID:               s.newVoteID(),
			TimeSlotID:       slotID,
			ParticipantToken: token,
			EventID:          eventID,
			Availability:     a,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		err := s.store.InsertVote(ctx, v)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return storeErr("insert vote", err)
		}
		if existing, err = s.store.GetVote(ctx, slotID, token); err != nil {
			return storeErr("get vote", err)
		}
	default:
		return storeErr("get vote", err)
	}

	existing.Availability = a
	existing.UpdatedAt = now
	if err := s.store.UpdateVote(ctx, existing); err != nil {
		return storeErr("update vote", err)
	}
	return nil
}

// LockSlot fixes the event to one of its slots. Only the organizer may
// lock. Two concurrent calls both succeed; the later write wins.
func (s *Service) LockSlot(ctx context.Context, eventID, slotID, token string) error {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return storeErr("get event", err)
	}

	if err := s.requireOrganizer(ctx, ev.ID, token); err != nil {
		return err
	}

	slot, err := s.store.GetSlot(ctx, slotID)
	if errors.Is(err, store.ErrNotFound) {
		return invalidf("time slot %s does not exist", slotID)
	}
	if err != nil {
		return storeErr("get time slot", err)
	}
	if slot.EventID != ev.ID {
		return invalidf("time slot %s does not belong to this event", slotID)
	}

	if err := s.store.UpdateEventStatus(ctx, ev.ID, models.StatusLocked, &slot.ID); err != nil {
		return storeErr("lock event", err)
	}

	slog.Info("event locked", "event_id", ev.ID, "timeslot_id", slot.ID)
	return nil
}

// CancelEvent moves the event to cancelled. Organizer only.
func (s *Service) CancelEvent(ctx context.Context, eventID, token string) error {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return storeErr("get event", err)
	}

	if err := s.requireOrganizer(ctx, ev.ID, token); err != nil {
		return err
	}

	if err := s.store.UpdateEventStatus(ctx, ev.ID, models.StatusCancelled, ev.LockedTimeID); err != nil {
		return storeErr("cancel event", err)
	}

	slog.Info("event cancelled", "event_id", ev.ID)
	return nil
}

// GetEvent returns the bare event record.
func (s *Service) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.Event{}, storeErr("get event", err)
	}
	return ev, nil
}

// AuthorizeOrganizer fails with ErrNotFound for an unknown event and
// ErrUnauthorized unless token is the event's organizer.
func (s *Service) AuthorizeOrganizer(ctx context.Context, eventID, token string) error {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return storeErr("get event", err)
	}
	return s.requireOrganizer(ctx, eventID, token)
}

func (s *Service) requireOrganizer(ctx context.Context, eventID, token string) error {
	if token == "" {
		return fmt.Errorf("%w: only the organizer can do this", ErrUnauthorized)
	}
	p, err := s.store.GetParticipant(ctx, token, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: only the organizer can do this", ErrUnauthorized)
	}
	if err != nil {
		return storeErr("get participant", err)
	}
	if !p.IsOrganizer {
		return fmt.Errorf("%w: only the organizer can do this", ErrUnauthorized)
	}
	return nil
}

// EnsureParticipant returns the caller's participant record for an event,
// creating a plain (non-organizer) one on first visit.
func (s *Service) EnsureParticipant(ctx context.Context, eventID, token string) (models.Participant, error) {
	if err := auth.ValidateParticipantToken(token); err != nil {
		return models.Participant{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return models.Participant{}, storeErr("get event", err)
	}

	p, err := s.store.GetParticipant(ctx, token, eventID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Participant{}, storeErr("get participant", err)
	}

	now := s.clock()
	p = models.Participant{Token: token, EventID: eventID, LastActive: now, CreatedAt: now}
	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		return models.Participant{}, storeErr("create participant", err)
	}
	return p, nil
}

// GetEventWithTally loads an event with every slot's counts and votes,
// ranked best first, and the recommended slot.
func (s *Service) GetEventWithTally(ctx context.Context, eventID string) (models.EventView, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.EventView{}, storeErr("get event", err)
	}

	slots, err := s.store.ListSlots(ctx, eventID)
	if err != nil {
		return models.EventView{}, storeErr("list time slots", err)
	}

	slotIDs := make([]string, len(slots))
	for i, slot := range slots {
		slotIDs[i] = slot.ID
	}
	votes, err := s.store.ListVotesForSlots(ctx, slotIDs)
	if err != nil {
		return models.EventView{}, storeErr("list votes", err)
	}

	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return models.EventView{}, storeErr("list participants", err)
	}

	ranked := tally.Rank(tally.Compute(slots, votes))

	view := models.EventView{
		Event:        ev,
		TimeSlots:    ranked,
		Participants: participants,
		ComputedAt:   s.clock(),
	}
	if best, ok := tally.Recommend(ranked); ok {
		id := best.ID
		view.RecommendedSlotID = &id
	}
	return view, nil
}

// GetEventPage is GetEventWithTally plus what the requesting participant
// needs to render the page. The participant is created if new.
func (s *Service) GetEventPage(ctx context.Context, eventID, token string) (models.EventPage, error) {
	p, err := s.EnsureParticipant(ctx, eventID, token)
	if err != nil {
		return models.EventPage{}, err
	}

	view, err := s.GetEventWithTally(ctx, eventID)
	if err != nil {
		return models.EventPage{}, err
	}

	mine, err := s.store.ListVotesForParticipant(ctx, eventID, token)
	if err != nil {
		return models.EventPage{}, storeErr("list participant votes", err)
	}
	myVotes := make(map[string]models.Availability, len(mine))
	for _, v := range mine {
		myVotes[v.TimeSlotID] = v.Availability
	}

	return models.EventPage{
		EventView: view,
		Viewer: models.Viewer{
			IsOrganizer: p.IsOrganizer,
			DisplayName: p.DisplayName,
			MyVotes:     myVotes,
		},
	}, nil
}

// ListEventsForOrganizer summarises every event the token organizes,
// newest first.
func (s *Service) ListEventsForOrganizer(ctx context.Context, token string) ([]models.EventSummary, error) {
	summaries := []models.EventSummary{}
	if token == "" {
		return summaries, nil
	}

	events, err := s.store.ListOrganizerEvents(ctx, token)
	if err != nil {
		return nil, storeErr("list organizer events", err)
	}

	now := s.clock()
	for _, ev := range events {
		participants, err := s.store.CountParticipants(ctx, ev.ID)
		if err != nil {
			return nil, storeErr("count participants", err)
		}
		voters, err := s.store.CountDistinctVoters(ctx, ev.ID)
		if err != nil {
			return nil, storeErr("count voters", err)
		}
		slots, err := s.store.CountSlots(ctx, ev.ID)
		if err != nil {
			return nil, storeErr("count time slots", err)
		}

		summaries = append(summaries, models.EventSummary{
			Event:            ev,
			ParticipantCount: participants,
			VoteCount:        voters,
			TimeSlotCount:    slots,
			CreatedAgo:       humanize.RelTime(ev.CreatedAt, now, "ago", "from now"),
			ExpiresIn:        humanize.RelTime(ev.TTL, now, "ago", "from now"),
		})
	}

	return summaries, nil
}

func resolveAvailability(in models.VoteInput) (models.Availability, error) {
	if in.Availability != "" {
		if !in.Availability.Valid() {
			return "", invalidf("availability %q must be one of available, maybe, unavailable", in.Availability)
		}
		return in.Availability, nil
	}
	if in.Available != nil {
		return models.AvailabilityFromBool(*in.Available), nil
	}
	return "", invalidf("availability is required")
}

// normalizeDisplayName trims the name; blank means "leave unchanged".
func normalizeDisplayName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxDisplayNameLen {
		return nil, invalidf("display_name must be %d characters or less", MaxDisplayNameLen)
	}
	return &trimmed, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
