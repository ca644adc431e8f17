// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-meet/middleware"
	"github.com/danielhkuo/quickly-meet/models"
	"github.com/danielhkuo/quickly-meet/realtime"
	"github.com/danielhkuo/quickly-meet/scheduling"
	"github.com/danielhkuo/quickly-meet/store"
	"github.com/danielhkuo/quickly-meet/testutil"
)

func newTestRouter(t *testing.T) *http.ServeMux {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	svc := scheduling.NewService(store.New(conn, realtime.NewLocalFeed()), cfg)

	return NewRouter(svc, realtime.NewProjector(svc), cfg)
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "quickly-meet API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux := newTestRouter(t)

	// 400, 403, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/events"},
		{"GET", "/events/test-id"},
		{"POST", "/events/test-id/lock"},
		{"POST", "/events/test-id/cancel"},
		{"POST", "/events/test-id/votes"},

		{"GET", "/events/test-id/stream"},
		{"GET", "/events/test-id/calendar.ics"},
		{"GET", "/events/test-id/tally.csv"},

		{"GET", "/my-events"},
		{"GET", "/presets"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux := newTestRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"GET to lock endpoint", "GET", "/events/test-id/lock", http.StatusMethodNotAllowed},
		{"DELETE an event", "DELETE", "/events/test-id", http.StatusMethodNotAllowed},
		{"PUT votes", "PUT", "/events/test-id/votes", http.StatusMethodNotAllowed},
		{"unknown path", "GET", "/nope", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func do(t *testing.T, mux http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.ParticipantHeader, token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

// TestSchedulingWorkflow runs the whole flow through the router:
// 1. Organizer creates an event with three slots
// 2. Three participants vote (one changes their mind)
// 3. A participant cannot lock
// 4. Organizer locks the recommended slot
// 5. Voting is closed and the calendar invite is available
func TestSchedulingWorkflow(t *testing.T) {
	mux := newTestRouter(t)

	organizer := "organizer-token"
	base := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)

	// Step 1
	w := do(t, mux, "POST", "/events", organizer, models.CreateEventRequest{
		Title:    "Trivia Night",
		Location: "The Pub",
		TimeSlots: []models.TimeSlotInput{
			{StartTime: base, Label: "Friday"},
			{StartTime: base.Add(24 * time.Hour), Label: "Saturday"},
			{StartTime: base.Add(48 * time.Hour), Label: "Sunday"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create event failed: %d - %s", w.Code, w.Body.String())
	}
	var created models.CreateEventResponse
	json.NewDecoder(w.Body).Decode(&created)
	eventPath := created.SharePath

	w = do(t, mux, "GET", eventPath, organizer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 1 - Get event failed: %d - %s", w.Code, w.Body.String())
	}
	var page models.EventPage
	json.NewDecoder(w.Body).Decode(&page)
	if !page.Viewer.IsOrganizer {
		t.Fatal("Step 1 - Creator should be organizer")
	}
	slotByLabel := map[string]string{}
	for _, s := range page.TimeSlots {
		slotByLabel[*s.Label] = s.ID
	}

	// Step 2
	answersByVoter := map[string]map[string]models.Availability{
		"alice": {"Friday": models.AvailabilityUnavailable, "Saturday": models.AvailabilityAvailable, "Sunday": models.AvailabilityMaybe},
		"bob":   {"Friday": models.AvailabilityAvailable, "Saturday": models.AvailabilityAvailable, "Sunday": models.AvailabilityUnavailable},
		"carol": {"Friday": models.AvailabilityAvailable, "Saturday": models.AvailabilityUnavailable, "Sunday": models.AvailabilityAvailable},
	}
	for voter, answers := range answersByVoter {
		var votes []models.VoteInput
		for label, a := range answers {
			votes = append(votes, models.VoteInput{TimeSlotID: slotByLabel[label], Availability: a})
		}
		w = do(t, mux, "POST", eventPath+"/votes", voter, models.SubmitVotesRequest{Votes: votes})
		if w.Code != http.StatusOK {
			t.Fatalf("Step 2 - %s failed to vote: %d - %s", voter, w.Code, w.Body.String())
		}
	}

	// Carol can make Saturday after all
	w = do(t, mux, "POST", eventPath+"/votes", "carol", models.SubmitVotesRequest{
		Votes: []models.VoteInput{{TimeSlotID: slotByLabel["Saturday"], Availability: models.AvailabilityAvailable}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Step 2 - Vote update failed: %d - %s", w.Code, w.Body.String())
	}

	w = do(t, mux, "GET", eventPath, "alice", nil)
	json.NewDecoder(w.Body).Decode(&page)
	if page.RecommendedSlotID == nil || *page.RecommendedSlotID != slotByLabel["Saturday"] {
		t.Fatalf("Step 2 - Expected Saturday recommended, got %v", page.RecommendedSlotID)
	}
	if page.TimeSlots[0].AvailableCount != 3 {
		t.Errorf("Step 2 - Expected 3 available for Saturday, got %d", page.TimeSlots[0].AvailableCount)
	}

	// Step 3
	w = do(t, mux, "POST", eventPath+"/lock", "alice", models.LockSlotRequest{TimeSlotID: slotByLabel["Saturday"]})
	if w.Code != http.StatusForbidden {
		t.Errorf("Step 3 - Expected 403 for participant lock, got %d", w.Code)
	}

	// Step 4
	w = do(t, mux, "POST", eventPath+"/lock", organizer, models.LockSlotRequest{TimeSlotID: *page.RecommendedSlotID})
	if w.Code != http.StatusOK {
		t.Fatalf("Step 4 - Lock failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 5
	w = do(t, mux, "POST", eventPath+"/votes", "bob", models.SubmitVotesRequest{
		Votes: []models.VoteInput{{TimeSlotID: slotByLabel["Sunday"], Availability: models.AvailabilityAvailable}},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Step 5 - Expected 409 voting on locked event, got %d", w.Code)
	}

	w = do(t, mux, "GET", eventPath+"/calendar.ics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Calendar failed: %d - %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "SUMMARY:Trivia Night") {
		t.Errorf("Step 5 - Unexpected calendar:\n%s", w.Body.String())
	}

	w = do(t, mux, "GET", "/my-events", organizer, nil)
	var mine models.MyEventsResponse
	json.NewDecoder(w.Body).Decode(&mine)
	if len(mine.Events) != 1 || mine.Events[0].Status != models.StatusLocked {
		t.Errorf("Step 5 - Expected one locked event on dashboard, got %+v", mine.Events)
	}
}
