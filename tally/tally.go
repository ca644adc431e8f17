// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"

	"github.com/danielhkuo/quickly-meet/models"
)

// Counts is the per-availability aggregation for one slot.
type Counts struct {
	Available   int
	Maybe       int
	Unavailable int
}

// Count aggregates votes by exact availability match. Values outside the
// three-state domain are counted nowhere.
func Count(votes []models.Vote) Counts {
	var c Counts
	for _, v := range votes {
		switch v.Availability {
		case models.AvailabilityAvailable:
			c.Available++
		case models.AvailabilityMaybe:
			c.Maybe++
		case models.AvailabilityUnavailable:
			c.Unavailable++
		}
	}
	return c
}

// Compute builds one SlotTally per slot, in the order given. Votes on slots
// outside the list are ignored; a slot without votes gets zero counts and
// an empty vote list. A participant who never voted on a slot contributes
// to no count.
func Compute(slots []models.TimeSlot, votes []models.Vote) []models.SlotTally {
	bySlot := make(map[string][]models.Vote, len(slots))
	for _, v := range votes {
		bySlot[v.TimeSlotID] = append(bySlot[v.TimeSlotID], v)
	}

	tallies := make([]models.SlotTally, len(slots))
	for i, slot := range slots {
		slotVotes := bySlot[slot.ID]
		if slotVotes == nil {
			slotVotes = []models.Vote{}
		}
		c := Count(slotVotes)
		tallies[i] = models.SlotTally{
			TimeSlot:         slot,
			AvailableCount:   c.Available,
			MaybeCount:       c.Maybe,
			UnavailableCount: c.Unavailable,
			Votes:            slotVotes,
		}
	}

	return tallies
}

// Rank orders tallies best first and marks the top one as recommended.
// The input slice is not modified.
//
// Ranking key:
//  1. more available votes
//  2. fewer unavailable votes
//  3. earlier slot (creation order)
func Rank(tallies []models.SlotTally) []models.SlotTally {
	ranked := make([]models.SlotTally, len(tallies))
	copy(ranked, tallies)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if a.AvailableCount != b.AvailableCount {
			return a.AvailableCount > b.AvailableCount
		}

		if a.UnavailableCount != b.UnavailableCount {
			return a.UnavailableCount < b.UnavailableCount
		}

		return a.Position < b.Position
	})

	for i := range ranked {
		ranked[i].Rank = i + 1 // 1-indexed ranking
		ranked[i].Recommended = i == 0
	}

	return ranked
}

// Recommend returns the top-ranked slot. It is advisory only; any slot may
// be locked by the organizer.
func Recommend(ranked []models.SlotTally) (models.SlotTally, bool) {
	if len(ranked) == 0 {
		return models.SlotTally{}, false
	}
	return ranked[0], true
}
