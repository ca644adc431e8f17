// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally turns raw vote rows into per-slot counts and a ranking.

	tallies := tally.Compute(slots, votes)
	ranked := tally.Rank(tallies)
	best, ok := tally.Recommend(ranked)

Counting is an exact match on the availability value. Missing votes are
not treated as unavailable. Ranking is by available count (descending),
then unavailable count (ascending), then slot creation order, so results
are deterministic for ties.

The package is pure: callers always recompute from the full vote set
instead of maintaining counters.
*/
package tally
