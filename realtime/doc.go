// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes refreshed tallies to dashboard viewers.

Two feeds carry vote changes from the store to subscribers:

  - LocalFeed: in-process fan-out, used for a single server.
  - RedisFeed: JSON messages on a Redis pub/sub channel, used when several
    server instances share one database.

Both implement store.Feed. The store publishes after every vote insert or
update.

The Projector subscribes to the changes on one event's slots and
recomputes the whole view (tally, ranking, recommendation) on each change:

	views, err := projector.Watch(ctx, eventID)
	for view := range views {
		// render
	}

There are no incremental counters. Bursts of changes collapse into a
single recompute.
*/
package realtime
