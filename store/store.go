// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/quickly-meet/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Feed carries vote changes from the store to subscribers.
type Feed interface {
	Publish(ctx context.Context, change models.VoteChange) error
	Subscribe(slotIDs []string, fn func(models.VoteChange)) (cancel func())
}

// SQLStore is the relational event store. Every method is a single
// statement or a single short transaction; multi-step units of work are
// composed by the caller.
type SQLStore struct {
	db   *sqlx.DB
	feed Feed
}

// New wraps a database connection. feed may be nil, in which case vote
// changes are not published.
func New(db *sqlx.DB, feed Feed) *SQLStore {
	return &SQLStore{db: db, feed: feed}
}

const eventColumns = `event_id, title, location, notes, status, created_at, ttl, locked_time_id`
const slotColumns = `timeslot_id, event_id, start_time, end_time, label, sort_order`
const participantColumns = `participant_token, event_id, is_organizer, display_name, last_active, created_at`
const voteColumns = `vote_id, timeslot_id, participant_token, event_id, availability, created_at, updated_at`

// Events

func (s *SQLStore) CreateEvent(ctx context.Context, ev models.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event (event_id, title, location, notes, status, created_at, ttl, locked_time_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.Title, ev.Location, ev.Notes, ev.Status, ev.CreatedAt, ev.TTL, ev.LockedTimeID)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("event %s: %w", ev.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteEvent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM event WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEvent(ctx context.Context, id string) (models.Event, error) {
	var ev models.Event
	err := s.db.GetContext(ctx, &ev, `SELECT `+eventColumns+` FROM event WHERE event_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to query event: %w", err)
	}
	return ev, nil
}

// EventExists is the collision check used during ID generation.
func (s *SQLStore) EventExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM event WHERE event_id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}

// UpdateEventStatus sets status and the locked slot reference. No version
// check: concurrent callers are last-write-wins.
func (s *SQLStore) UpdateEventStatus(ctx context.Context, id, status string, lockedTimeID *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE event
		SET status = $1, locked_time_id = $2
		WHERE event_id = $3
	`, status, lockedTimeID, id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListOrganizerEvents returns the events organized by token, newest first.
func (s *SQLStore) ListOrganizerEvents(ctx context.Context, token string) ([]models.Event, error) {
	events := []models.Event{}
	err := s.db.SelectContext(ctx, &events, `
		SELECT e.event_id, e.title, e.location, e.notes, e.status, e.created_at, e.ttl, e.locked_time_id
		FROM event e
		JOIN participant p ON p.event_id = e.event_id
		WHERE p.participant_token = $1 AND p.is_organizer = $2
		ORDER BY e.created_at DESC
	`, token, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizer events: %w", err)
	}
	return events, nil
}

// DeleteExpiredEvents removes every event whose TTL is before now together
// with its slots, participants and votes.
func (s *SQLStore) DeleteExpiredEvents(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now = now.UTC()
	expired := `SELECT event_id FROM event WHERE ttl < $1`
	for _, table := range []string{"vote", "participant", "time_slot"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE event_id IN (`+expired+`)`, now); err != nil {
			return 0, fmt.Errorf("failed to delete expired %s rows: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM event WHERE ttl < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// Time slots

// InsertSlots writes all slots of one event as a single unit.
func (s *SQLStore) InsertSlots(ctx context.Context, slots []models.TimeSlot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, slot := range slots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO time_slot (timeslot_id, event_id, start_time, end_time, label, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, slot.ID, slot.EventID, slot.StartTime, slot.EndTime, slot.Label, slot.Position)
		if err != nil {
			return fmt.Errorf("failed to insert time slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit time slots: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteSlotsByEvent(ctx context.Context, eventID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM time_slot WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to delete time slots: %w", err)
	}
	return nil
}

func (s *SQLStore) GetSlot(ctx context.Context, id string) (models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.db.GetContext(ctx, &slot, `SELECT `+slotColumns+` FROM time_slot WHERE timeslot_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TimeSlot{}, fmt.Errorf("time slot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.TimeSlot{}, fmt.Errorf("failed to query time slot: %w", err)
	}
	return slot, nil
}

// ListSlots returns an event's slots in creation order.
func (s *SQLStore) ListSlots(ctx context.Context, eventID string) ([]models.TimeSlot, error) {
	slots := []models.TimeSlot{}
	err := s.db.SelectContext(ctx, &slots, `
		SELECT `+slotColumns+` FROM time_slot
		WHERE event_id = $1
		ORDER BY sort_order, timeslot_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time slots: %w", err)
	}
	return slots, nil
}

func (s *SQLStore) CountSlots(ctx context.Context, eventID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM time_slot WHERE event_id = $1`, eventID)
}

// Participants

func (s *SQLStore) GetParticipant(ctx context.Context, token, eventID string) (models.Participant, error) {
	var p models.Participant
	err := s.db.GetContext(ctx, &p, `
		SELECT `+participantColumns+` FROM participant
		WHERE participant_token = $1 AND event_id = $2
	`, token, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, fmt.Errorf("participant for event %s: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to query participant: %w", err)
	}
	return p, nil
}

// UpsertParticipant inserts the participant or refreshes last_active on the
// existing row. A nil display name keeps the stored one; is_organizer is
// only ever written on insert.
func (s *SQLStore) UpsertParticipant(ctx context.Context, p models.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participant (participant_token, event_id, is_organizer, display_name, last_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participant_token, event_id) DO UPDATE
		SET display_name = COALESCE(excluded.display_name, participant.display_name),
		    last_active = excluded.last_active
	`, p.Token, p.EventID, p.IsOrganizer, p.DisplayName, p.LastActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert participant: %w", err)
	}
	return nil
}

func (s *SQLStore) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	participants := []models.Participant{}
	err := s.db.SelectContext(ctx, &participants, `
		SELECT `+participantColumns+` FROM participant
		WHERE event_id = $1
		ORDER BY created_at, participant_token
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	return participants, nil
}

func (s *SQLStore) CountParticipants(ctx context.Context, eventID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM participant WHERE event_id = $1`, eventID)
}

// Votes

func (s *SQLStore) GetVote(ctx context.Context, slotID, token string) (models.Vote, error) {
	var v models.Vote
	err := s.db.GetContext(ctx, &v, `
		SELECT `+voteColumns+` FROM vote
		WHERE timeslot_id = $1 AND participant_token = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`, slotID, token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, fmt.Errorf("vote for slot %s: %w", slotID, ErrNotFound)
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to query vote: %w", err)
	}
	return v, nil
}

// InsertVote adds a vote row. A second row for the same slot and
// participant fails with ErrDuplicate.
func (s *SQLStore) InsertVote(ctx context.Context, v models.Vote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (vote_id, timeslot_id, participant_token, event_id, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.TimeSlotID, v.ParticipantToken, v.EventID, v.Availability, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("vote on %s: %w", v.TimeSlotID, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	s.publish(ctx, models.ChangeInsert, v)
	return nil
}

// UpdateVote rewrites the availability of an existing vote row.
func (s *SQLStore) UpdateVote(ctx context.Context, v models.Vote) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vote
		SET availability = $1, updated_at = $2
		WHERE vote_id = $3
	`, v.Availability, v.UpdatedAt, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("vote %s: %w", v.ID, ErrNotFound)
	}

	s.publish(ctx, models.ChangeUpdate, v)
	return nil
}

// ListVotesForSlots returns every vote on the given slots, joined with the
// voter's display name.
func (s *SQLStore) ListVotesForSlots(ctx context.Context, slotIDs []string) ([]models.Vote, error) {
	if len(slotIDs) == 0 {
		return []models.Vote{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT v.vote_id, v.timeslot_id, v.participant_token, v.event_id, v.availability,
		       v.created_at, v.updated_at, p.display_name
		FROM vote v
		LEFT JOIN participant p ON p.participant_token = v.participant_token AND p.event_id = v.event_id
		WHERE v.timeslot_id IN (?)
		ORDER BY v.created_at, v.vote_id
	`, slotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build vote query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.TimeSlotID, &v.ParticipantToken, &v.EventID, &v.Availability,
			&v.CreatedAt, &v.UpdatedAt, &v.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}

	return votes, nil
}

// ListVotesForParticipant returns one participant's votes on an event.
func (s *SQLStore) ListVotesForParticipant(ctx context.Context, eventID, token string) ([]models.Vote, error) {
	votes := []models.Vote{}
	err := s.db.SelectContext(ctx, &votes, `
		SELECT `+voteColumns+` FROM vote
		WHERE event_id = $1 AND participant_token = $2
		ORDER BY updated_at
	`, eventID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant votes: %w", err)
	}
	return votes, nil
}

func (s *SQLStore) CountDistinctVoters(ctx context.Context, eventID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(DISTINCT participant_token) FROM vote WHERE event_id = $1`, eventID)
}

// SubscribeToVoteChanges registers fn for changes on the given slots.
func (s *SQLStore) SubscribeToVoteChanges(slotIDs []string, fn func(models.VoteChange)) (cancel func()) {
	if s.feed == nil {
		return func() {}
	}
	return s.feed.Subscribe(slotIDs, fn)
}

func (s *SQLStore) publish(ctx context.Context, op string, v models.Vote) {
	if s.feed == nil {
		return
	}

	change := models.VoteChange{
		Op:         op,
		VoteID:     v.ID,
		TimeSlotID: v.TimeSlotID,
		EventID:    v.EventID,
		At:         v.UpdatedAt,
	}
	// The row is already written; a lost notification only delays a dashboard refresh.
	if err := s.feed.Publish(ctx, change); err != nil {
		slog.Warn("failed to publish vote change", "error", err, "vote_id", v.ID, "op", op)
	}
}

func (s *SQLStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

// isDuplicate recognises unique violations from both supported drivers.
func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}

	return false
}
