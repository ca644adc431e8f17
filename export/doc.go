// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package export renders event views as downloadable files.

# Calendar Invites

WriteCalendar produces an iCalendar (RFC 5545) file with a single VEVENT for
the locked slot of an event:

	var buf bytes.Buffer
	err := export.WriteCalendar(&buf, view, baseURL+"/events/"+id, time.Now())

The event must be locked. Anything else returns ErrNotLocked, which the
HTTP layer reports as 409 Conflict.

The VEVENT carries:

  - UID: "<event_id>@quickly-meet", the same on every download
  - SUMMARY: the event title
  - DTSTART / DTEND: the slot's times in UTC. Slots without an end time
    last DefaultDuration (one hour).
  - LOCATION: when the event has one
  - DESCRIPTION: the event notes followed by the link back to the event page

# Tally Spreadsheets

WriteTallyCSV writes one row per slot in ranked order, with a header:

	rank,timeslot_id,start_time,end_time,label,available,maybe,unavailable,recommended,locked

Times are RFC 3339 in UTC. The recommended and locked columns are true for
at most one row each.

# File Names

Filename turns the event title into an ASCII slug for the
Content-Disposition header:

	"Trivia Night"       -> trivia-night.ics
	"  Café & Crêpes!  " -> cafe-and-crepes.csv

Titles with nothing usable fall back to the event ID.
*/
package export
