// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduling

import (
	"time"

	"github.com/danielhkuo/quickly-meet/models"
)

// Preset names
const (
	PresetThisWeekend     = "this-weekend"
	PresetNextWeekend     = "next-weekend"
	PresetWeekdayEvenings = "weekday-evenings"
)

// PresetNames lists every preset in display order.
var PresetNames = []string{PresetThisWeekend, PresetNextWeekend, PresetWeekdayEvenings}

// Presets generates candidate slots for a named preset relative to now, in
// now's location. Unknown names are InvalidInput.
func Presets(name string, now time.Time) ([]models.TimeSlotInput, error) {
	switch name {
	case PresetThisWeekend:
		sat := nextWeekday(now, time.Saturday)
		sun := nextWeekday(now, time.Sunday)
		return []models.TimeSlotInput{
			{StartTime: at(sat, 10), Label: "Saturday Morning"},
			{StartTime: at(sat, 14), Label: "Saturday Afternoon"},
			{StartTime: at(sun, 11), Label: "Sunday Morning"},
		}, nil

	case PresetNextWeekend:
		sat := nextWeekday(now, time.Saturday).AddDate(0, 0, 7)
		sun := sat.AddDate(0, 0, 1)
		return []models.TimeSlotInput{
			{StartTime: at(sat, 10), Label: "Next Saturday Morning"},
			{StartTime: at(sat, 14), Label: "Next Saturday Afternoon"},
			{StartTime: at(sun, 11), Label: "Next Sunday Morning"},
		}, nil

	case PresetWeekdayEvenings:
		return []models.TimeSlotInput{
			{StartTime: at(nextWeekday(now, time.Monday), 19), Label: "Monday Evening"},
			{StartTime: at(nextWeekday(now, time.Wednesday), 19), Label: "Wednesday Evening"},
			{StartTime: at(nextWeekday(now, time.Thursday), 19), Label: "Thursday Evening"},
		}, nil
	}

	return nil, invalidf("unknown preset %q", name)
}

// nextWeekday returns the next date falling on day, strictly after today.
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	distance := (int(day) + 7 - int(from.Weekday())) % 7
	if distance == 0 {
		distance = 7
	}
	return from.AddDate(0, 0, distance)
}

func at(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}
