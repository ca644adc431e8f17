// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/gocarina/gocsv"
	"github.com/gosimple/slug"

	"github.com/danielhkuo/quickly-meet/models"
)

// DefaultDuration is used for slots without an end time.
const DefaultDuration = time.Hour

const productID = "-//quickly-meet//EN"

var ErrNotLocked = errors.New("event is not locked")

// WriteCalendar writes an iCalendar file with one VEVENT at the locked slot.
// eventURL is put in the description so attendees can find the event page again.
func WriteCalendar(w io.Writer, view models.EventView, eventURL string, now time.Time) error {
	ev := view.Event
	if ev.Status != models.StatusLocked || ev.LockedTimeID == nil {
		return ErrNotLocked
	}

	var slot *models.TimeSlot
	for i := range view.TimeSlots {
		if view.TimeSlots[i].ID == *ev.LockedTimeID {
			slot = &view.TimeSlots[i].TimeSlot
			break
		}
	}
	if slot == nil {
		return fmt.Errorf("locked time slot %s not found", *ev.LockedTimeID)
	}

	end := slot.StartTime.Add(DefaultDuration)
	if slot.EndTime != nil {
		end = *slot.EndTime
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.ID+"@quickly-meet")
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, slot.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())

	if ev.Location != nil {
		ve.Props.SetText(ical.PropLocation, *ev.Location)
	}

	description := eventURL
	if ev.Notes != nil {
		description = *ev.Notes + "\n\n" + eventURL
	}
	if description != "" {
		ve.Props.SetText(ical.PropDescription, description)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, ve)

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// Filename builds a download name from the event title, falling back to the
// event id when the title has nothing usable, e.g. "trivia-night.ics".
func Filename(ev models.Event, ext string) string {
	name := slug.Make(ev.Title)
	if name == "" {
		name = ev.ID
	}
	return name + "." + ext
}

// TallyRows flattens a view into one row per slot, in the view's order.
func TallyRows(view models.EventView) []models.TallyRow {
	rows := make([]models.TallyRow, 0, len(view.TimeSlots))
	for _, st := range view.TimeSlots {
		row := models.TallyRow{
			Rank:             st.Rank,
			TimeSlotID:       st.ID,
			StartTime:        st.StartTime.UTC().Format(time.RFC3339),
			AvailableCount:   st.AvailableCount,
			MaybeCount:       st.MaybeCount,
			UnavailableCount: st.UnavailableCount,
			Recommended:      st.Recommended,
			Locked:           view.Event.LockedTimeID != nil && *view.Event.LockedTimeID == st.ID,
		}
		if st.EndTime != nil {
			row.EndTime = st.EndTime.UTC().Format(time.RFC3339)
		}
		if st.Label != nil {
			row.Label = *st.Label
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteTallyCSV writes the tally as CSV with a header row.
func WriteTallyCSV(w io.Writer, view models.EventView) error {
	rows := TallyRows(view)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to encode tally: %w", err)
	}
	return nil
}
