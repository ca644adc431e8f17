// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-meet/models"
	"github.com/danielhkuo/quickly-meet/testutil"
)

type recordingFeed struct {
	mu      sync.Mutex
	changes []models.VoteChange
	err     error
}

func (f *recordingFeed) Publish(_ context.Context, c models.VoteChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
	return f.err
}

func (f *recordingFeed) Subscribe(_ []string, _ func(models.VoteChange)) func() {
	return func() {}
}

func newMockStore(t *testing.T, feed Feed) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return New(sqlx.NewDb(mockDB, "sqlmock"), feed), mock
}

func TestGetEventNotFound(t *testing.T) {
	s, mock := newMockStore(t, nil)

	mock.ExpectQuery(`SELECT .* FROM event WHERE event_id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}))

	_, err := s.GetEvent(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventDuplicate(t *testing.T) {
	s, mock := newMockStore(t, nil)

	mock.ExpectExec(`INSERT INTO event`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := s.CreateEvent(context.Background(), models.Event{ID: "brave-blue-otter", Title: "x", Status: models.StatusActive})

	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventOtherError(t *testing.T) {
	s, mock := newMockStore(t, nil)

	mock.ExpectExec(`INSERT INTO event`).WillReturnError(errors.New("connection reset"))

	err := s.CreateEvent(context.Background(), models.Event{ID: "a"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicate))
}

func TestListVotesForSlotsEmpty(t *testing.T) {
	s, mock := newMockStore(t, nil)

	votes, err := s.ListVotesForSlots(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, votes)
	assert.Empty(t, votes)
	// no query may reach the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVoteMissingRow(t *testing.T) {
	feed := &recordingFeed{}
	s, mock := newMockStore(t, feed)

	mock.ExpectExec(`UPDATE vote`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateVote(context.Background(), models.Vote{ID: "v1", Availability: models.AvailabilityMaybe})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, feed.changes, "nothing changed, nothing published")
}

func TestInsertVotePublishes(t *testing.T) {
	feed := &recordingFeed{err: errors.New("feed down")}
	s, mock := newMockStore(t, feed)

	mock.ExpectExec(`INSERT INTO vote`).WillReturnResult(sqlmock.NewResult(0, 1))

	v := models.Vote{ID: "v1", TimeSlotID: "s1", EventID: "e1", Availability: models.AvailabilityAvailable, UpdatedAt: time.Now()}
	err := s.InsertVote(context.Background(), v)

	// a failing feed never fails the write
	require.NoError(t, err)
	require.Len(t, feed.changes, 1)
	assert.Equal(t, models.ChangeInsert, feed.changes[0].Op)
	assert.Equal(t, "s1", feed.changes[0].TimeSlotID)
	assert.Equal(t, "e1", feed.changes[0].EventID)
}

func TestUpdateEventStatusNotFound(t *testing.T) {
	s, mock := newMockStore(t, nil)

	mock.ExpectExec(`UPDATE event`).
		WithArgs(models.StatusLocked, sqlmock.AnyArg(), "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	slot := "s1"
	err := s.UpdateEventStatus(context.Background(), "nope", models.StatusLocked, &slot)

	assert.ErrorIs(t, err, ErrNotFound)
}

// The rest run against a real sqlite database.

func TestSQLiteEventRoundTrip(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn, nil)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	loc := "Room 4"
	ev := models.Event{ID: "calm-red-heron", Title: "Trivia Night", Location: &loc, Status: models.StatusActive, CreatedAt: now, TTL: now.Add(time.Hour)}

	require.NoError(t, s.CreateEvent(ctx, ev))
	assert.ErrorIs(t, s.CreateEvent(ctx, ev), ErrDuplicate)

	exists, err := s.EventExists(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trivia Night", got.Title)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Room 4", *got.Location)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.LockedTimeID)
	assert.True(t, got.TTL.Equal(ev.TTL))
}

func TestSQLiteSlotsAndVotes(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	feed := &recordingFeed{}
	s := New(conn, feed)
	ctx := context.Background()

	te := testutil.CreateTestEvent(t, conn, models.StatusActive, 3)

	slots, err := s.ListSlots(ctx, te.ID)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for i, slot := range slots {
		assert.Equal(t, te.SlotIDs[i], slot.ID, "slots come back in creation order")
	}

	n, err := s.CountSlots(ctx, te.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	name := "Alex"
	now := time.Now().UTC()
	require.NoError(t, s.UpsertParticipant(ctx, models.Participant{Token: "tok-a", EventID: te.ID, DisplayName: &name, LastActive: now, CreatedAt: now}))

	v := models.Vote{ID: "v-1", TimeSlotID: te.SlotIDs[0], ParticipantToken: "tok-a", EventID: te.ID, Availability: models.AvailabilityAvailable, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.InsertVote(ctx, v))

	again := v
	again.ID = "v-2"
	assert.ErrorIs(t, s.InsertVote(ctx, again), ErrDuplicate)

	got, err := s.GetVote(ctx, te.SlotIDs[0], "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "v-1", got.ID)

	got.Availability = models.AvailabilityMaybe
	got.UpdatedAt = now.Add(time.Second)
	require.NoError(t, s.UpdateVote(ctx, got))

	votes, err := s.ListVotesForSlots(ctx, te.SlotIDs)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, models.AvailabilityMaybe, votes[0].Availability)
	require.NotNil(t, votes[0].DisplayName)
	assert.Equal(t, "Alex", *votes[0].DisplayName)

	_, err = s.GetVote(ctx, te.SlotIDs[1], "tok-a")
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := s.ListVotesForParticipant(ctx, te.ID, "tok-a")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	voters, err := s.CountDistinctVoters(ctx, te.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, voters)

	require.Len(t, feed.changes, 2)
	assert.Equal(t, models.ChangeInsert, feed.changes[0].Op)
	assert.Equal(t, models.ChangeUpdate, feed.changes[1].Op)
}

func TestSQLiteUpsertParticipantKeepsNameAndRole(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn, nil)
	ctx := context.Background()

	te := testutil.CreateTestEvent(t, conn, models.StatusActive, 2)

	name := "Organizer"
	later := time.Now().UTC().Add(time.Minute)
	require.NoError(t, s.UpsertParticipant(ctx, models.Participant{Token: te.OrganizerToken, EventID: te.ID, DisplayName: &name, LastActive: later, CreatedAt: later}))
	// A second touch without a name and without the organizer flag
	require.NoError(t, s.UpsertParticipant(ctx, models.Participant{Token: te.OrganizerToken, EventID: te.ID, LastActive: later, CreatedAt: later}))

	p, err := s.GetParticipant(ctx, te.OrganizerToken, te.ID)
	require.NoError(t, err)
	assert.True(t, p.IsOrganizer)
	require.NotNil(t, p.DisplayName)
	assert.Equal(t, "Organizer", *p.DisplayName)

	count, err := s.CountParticipants(ctx, te.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.GetParticipant(ctx, "stranger", te.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteOrganizerEventsAndStatus(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn, nil)
	ctx := context.Background()

	te := testutil.CreateTestEvent(t, conn, models.StatusActive, 2)
	other := testutil.CreateTestEvent(t, conn, models.StatusActive, 2)
	testutil.CreateTestParticipant(t, conn, other.ID, "guest")

	events, err := s.ListOrganizerEvents(ctx, te.OrganizerToken)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, te.ID, events[0].ID)

	require.NoError(t, s.UpdateEventStatus(ctx, te.ID, models.StatusLocked, &te.SlotIDs[1]))
	ev, err := s.GetEvent(ctx, te.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLocked, ev.Status)
	require.NotNil(t, ev.LockedTimeID)
	assert.Equal(t, te.SlotIDs[1], *ev.LockedTimeID)
}

func TestSQLiteDeleteEventCascades(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn, nil)
	ctx := context.Background()

	te := testutil.CreateTestEvent(t, conn, models.StatusActive, 2)
	testutil.CastTestVote(t, conn, te.ID, te.SlotIDs[0], te.OrganizerToken, models.AvailabilityAvailable)

	require.NoError(t, s.DeleteSlotsByEvent(ctx, te.ID))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "time_slot", te.ID))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "vote", te.ID))

	require.NoError(t, s.DeleteEvent(ctx, te.ID))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "participant", te.ID))

	_, err := s.GetEvent(ctx, te.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDeleteExpiredEvents(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn, nil)
	ctx := context.Background()

	keep := testutil.CreateTestEvent(t, conn, models.StatusActive, 2)
	gone := testutil.CreateTestEvent(t, conn, models.StatusActive, 2)
	testutil.CastTestVote(t, conn, gone.ID, gone.SlotIDs[0], gone.OrganizerToken, models.AvailabilityAvailable)

	_, err := conn.Exec(`UPDATE event SET ttl = $1 WHERE event_id = $2`, time.Now().UTC().Add(-time.Hour), gone.ID)
	require.NoError(t, err)

	n, err := s.DeleteExpiredEvents(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for _, table := range []string{"event", "time_slot", "participant", "vote"} {
		assert.Equal(t, 0, testutil.CountRows(t, conn, table, gone.ID), table)
	}
	assert.Equal(t, 1, testutil.CountRows(t, conn, "event", keep.ID))
}
