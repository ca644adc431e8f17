// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/quickly-meet/auth"
	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/db"
	"github.com/danielhkuo/quickly-meet/models"
)

// SetupTestDB creates a fresh sqlite database with the full schema in the
// test's temp dir. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sqlx.Open(cliparse.DatabaseSQLite, db.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "test.db",
		DatabaseType:   cliparse.DatabaseSQLite,
		BaseURL:        "http://localhost:3318",
		EventTTL:       90 * 24 * time.Hour,
		RequestTimeout: 5 * time.Second,
		LogLevel:       "error",
	}
}

// TestEvent is what CreateTestEvent wrote.
type TestEvent struct {
	ID             string
	OrganizerToken string
	SlotIDs        []string
}

// CreateTestEvent inserts an event with the given status, numSlots slots one
// day apart and an organizer participant.
// status should be "active", "locked", or "cancelled"
func CreateTestEvent(t *testing.T, conn *sqlx.DB, status string, numSlots int) TestEvent {
	t.Helper()

	eventID, err := auth.GenerateEventID()
	if err != nil {
		t.Fatalf("Failed to generate event id: %v", err)
	}
	now := time.Now().UTC()

	te := TestEvent{ID: eventID, OrganizerToken: auth.GenerateParticipantToken()}

	_, err = conn.Exec(`
		INSERT INTO event (event_id, title, location, status, created_at, ttl)
		VALUES ($1, 'Test Event', 'Somewhere', 'active', $2, $3)
	`, eventID, now, now.Add(90*24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	base := now.Add(24 * time.Hour).Truncate(time.Hour)
	for i := 0; i < numSlots; i++ {
		slotID, _ := auth.GenerateSlotID()
		_, err := conn.Exec(`
			INSERT INTO time_slot (timeslot_id, event_id, start_time, label, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, slotID, eventID, base.Add(time.Duration(i)*24*time.Hour), fmt.Sprintf("Option %d", i+1), i)
		if err != nil {
			t.Fatalf("Failed to create test slot: %v", err)
		}
		te.SlotIDs = append(te.SlotIDs, slotID)
	}

	_, err = conn.Exec(`
		INSERT INTO participant (participant_token, event_id, is_organizer, last_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, te.OrganizerToken, eventID, true, now, now)
	if err != nil {
		t.Fatalf("Failed to create organizer: %v", err)
	}

	if status != models.StatusActive {
		var locked *string
		if status == models.StatusLocked && numSlots > 0 {
			locked = &te.SlotIDs[0]
		}
		_, err = conn.Exec(`UPDATE event SET status = $1, locked_time_id = $2 WHERE event_id = $3`, status, locked, eventID)
		if err != nil {
			t.Fatalf("Failed to set event status: %v", err)
		}
	}

	return te
}

// CreateTestParticipant adds a non-organizer participant and returns its token
func CreateTestParticipant(t *testing.T, conn *sqlx.DB, eventID, displayName string) string {
	t.Helper()

	token := auth.GenerateParticipantToken()
	now := time.Now().UTC()

	var name *string
	if displayName != "" {
		name = &displayName
	}

	_, err := conn.Exec(`
		INSERT INTO participant (participant_token, event_id, is_organizer, display_name, last_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, token, eventID, false, name, now, now)
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}

	return token
}

// CastTestVote writes one vote row for a participant
func CastTestVote(t *testing.T, conn *sqlx.DB, eventID, slotID, token string, availability models.Availability) string {
	t.Helper()

	voteID := auth.GenerateVoteID()
	now := time.Now().UTC()

	_, err := conn.Exec(`
		INSERT INTO vote (vote_id, timeslot_id, participant_token, event_id, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, voteID, slotID, token, eventID, availability, now, now)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	return voteID
}

// EventStatus reads the stored status of an event
func EventStatus(t *testing.T, conn *sqlx.DB, eventID string) string {
	t.Helper()

	var status string
	if err := conn.Get(&status, `SELECT status FROM event WHERE event_id = $1`, eventID); err != nil {
		t.Fatalf("Failed to read event status: %v", err)
	}
	return status
}

// CountRows counts rows of table matching event_id
func CountRows(t *testing.T, conn *sqlx.DB, table, eventID string) int {
	t.Helper()

	var n int
	if err := conn.Get(&n, `SELECT COUNT(*) FROM `+table+` WHERE event_id = $1`, eventID); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
