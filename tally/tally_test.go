// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"testing"

	"github.com/danielhkuo/quickly-meet/models"
)

func slot(id string, pos int) models.TimeSlot {
	return models.TimeSlot{ID: id, EventID: "ev", Position: pos}
}

func vote(slotID, token string, a models.Availability) models.Vote {
	return models.Vote{ID: slotID + "-" + token, TimeSlotID: slotID, ParticipantToken: token, EventID: "ev", Availability: a}
}

func TestCount(t *testing.T) {
	votes := []models.Vote{
		vote("s1", "p1", models.AvailabilityAvailable),
		vote("s1", "p2", models.AvailabilityAvailable),
		vote("s1", "p3", models.AvailabilityMaybe),
		vote("s1", "p4", models.AvailabilityUnavailable),
	}

	c := Count(votes)

	if c.Available != 2 {
		t.Errorf("Expected available=2, got %d", c.Available)
	}
	if c.Maybe != 1 {
		t.Errorf("Expected maybe=1, got %d", c.Maybe)
	}
	if c.Unavailable != 1 {
		t.Errorf("Expected unavailable=1, got %d", c.Unavailable)
	}
	if c.Available+c.Maybe+c.Unavailable != len(votes) {
		t.Errorf("Counts should sum to the number of voters")
	}
}

func TestCountIgnoresUnknownValues(t *testing.T) {
	c := Count([]models.Vote{
		vote("s1", "p1", "yes"),
		vote("s1", "p2", ""),
		vote("s1", "p3", models.AvailabilityMaybe),
	})

	if c.Available != 0 || c.Unavailable != 0 || c.Maybe != 1 {
		t.Errorf("Expected only the maybe vote to count, got %+v", c)
	}
}

func TestComputeNoVotes(t *testing.T) {
	tallies := Compute([]models.TimeSlot{slot("s1", 0), slot("s2", 1)}, nil)

	if len(tallies) != 2 {
		t.Fatalf("Expected 2 tallies, got %d", len(tallies))
	}
	for _, tl := range tallies {
		if tl.AvailableCount != 0 || tl.MaybeCount != 0 || tl.UnavailableCount != 0 {
			t.Errorf("Slot %s: expected zero counts, got %+v", tl.ID, tl)
		}
		if tl.Votes == nil || len(tl.Votes) != 0 {
			t.Errorf("Slot %s: expected empty non-nil vote list", tl.ID)
		}
	}
}

func TestComputeAbsenceIsNotUnavailable(t *testing.T) {
	// p2 only answered s1; s2 must not count p2 at all
	votes := []models.Vote{
		vote("s1", "p1", models.AvailabilityAvailable),
		vote("s2", "p1", models.AvailabilityAvailable),
		vote("s1", "p2", models.AvailabilityUnavailable),
	}

	tallies := Compute([]models.TimeSlot{slot("s1", 0), slot("s2", 1)}, votes)

	if tallies[1].UnavailableCount != 0 {
		t.Errorf("Expected s2 unavailable=0, got %d", tallies[1].UnavailableCount)
	}
	if len(tallies[1].Votes) != 1 {
		t.Errorf("Expected 1 raw vote on s2, got %d", len(tallies[1].Votes))
	}
	if tallies[0].UnavailableCount != 1 || tallies[0].AvailableCount != 1 {
		t.Errorf("Unexpected s1 counts: %+v", tallies[0])
	}
}

func TestComputeIgnoresForeignSlots(t *testing.T) {
	tallies := Compute([]models.TimeSlot{slot("s1", 0)}, []models.Vote{
		vote("other", "p1", models.AvailabilityAvailable),
	})

	if tallies[0].AvailableCount != 0 {
		t.Errorf("Vote on another slot should not count")
	}
}

func TestRank(t *testing.T) {
	tests := []struct {
		name     string
		tallies  []models.SlotTally
		expected []string
	}{
		{
			name: "fewer unavailable breaks available tie",
			tallies: []models.SlotTally{
				{TimeSlot: slot("A", 0), AvailableCount: 3, UnavailableCount: 1},
				{TimeSlot: slot("B", 1), AvailableCount: 3, UnavailableCount: 0},
			},
			expected: []string{"B", "A"},
		},
		{
			name: "available count dominates",
			tallies: []models.SlotTally{
				{TimeSlot: slot("A", 0), AvailableCount: 1, UnavailableCount: 0},
				{TimeSlot: slot("B", 1), AvailableCount: 2, UnavailableCount: 5},
			},
			expected: []string{"B", "A"},
		},
		{
			name: "full tie keeps creation order",
			tallies: []models.SlotTally{
				{TimeSlot: slot("C", 2), AvailableCount: 1},
				{TimeSlot: slot("A", 0), AvailableCount: 1},
				{TimeSlot: slot("B", 1), AvailableCount: 1},
			},
			expected: []string{"A", "B", "C"},
		},
		{
			name: "maybe does not affect ranking",
			tallies: []models.SlotTally{
				{TimeSlot: slot("A", 0), AvailableCount: 1, MaybeCount: 0},
				{TimeSlot: slot("B", 1), AvailableCount: 1, MaybeCount: 4},
			},
			expected: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(tt.tallies)

			if len(ranked) != len(tt.expected) {
				t.Fatalf("Expected %d slots, got %d", len(tt.expected), len(ranked))
			}
			for i, id := range tt.expected {
				if ranked[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, ranked[i].ID)
				}
				if ranked[i].Rank != i+1 {
					t.Errorf("Slot %s: expected rank %d, got %d", id, i+1, ranked[i].Rank)
				}
				if ranked[i].Recommended != (i == 0) {
					t.Errorf("Slot %s: recommended=%v", id, ranked[i].Recommended)
				}
			}
		})
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := []models.SlotTally{
		{TimeSlot: slot("A", 0), AvailableCount: 0},
		{TimeSlot: slot("B", 1), AvailableCount: 2},
	}

	Rank(input)

	if input[0].ID != "A" || input[0].Rank != 0 {
		t.Error("Rank should not reorder or annotate the input slice")
	}
}

func TestRecommend(t *testing.T) {
	if _, ok := Recommend(nil); ok {
		t.Error("Expected no recommendation for empty input")
	}

	ranked := Rank(Compute(
		[]models.TimeSlot{slot("A", 0), slot("B", 1)},
		[]models.Vote{
			vote("A", "p1", models.AvailabilityAvailable),
			vote("A", "p2", models.AvailabilityAvailable),
			vote("A", "p3", models.AvailabilityAvailable),
			vote("A", "p4", models.AvailabilityUnavailable),
			vote("B", "p1", models.AvailabilityAvailable),
			vote("B", "p2", models.AvailabilityAvailable),
			vote("B", "p3", models.AvailabilityAvailable),
		},
	))

	best, ok := Recommend(ranked)
	if !ok {
		t.Fatal("Expected a recommendation")
	}
	if best.ID != "B" {
		t.Errorf("Expected B to be recommended, got %s", best.ID)
	}
}
