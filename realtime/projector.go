// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/quickly-meet/models"
)

// ViewSource computes the full tallied view of an event and exposes the
// vote change subscription. scheduling.Service satisfies it.
type ViewSource interface {
	GetEventWithTally(ctx context.Context, eventID string) (models.EventView, error)
	SubscribeToVoteChanges(slotIDs []string, fn func(models.VoteChange)) (cancel func())
}

// Projector turns vote changes into refreshed event views.
type Projector struct {
	source ViewSource
}

func NewProjector(source ViewSource) *Projector {
	return &Projector{source: source}
}

// Watch streams views of one event. The current view is sent first, then a
// full recompute after each change to one of the event's slots. Changes
// arriving while a recompute is pending collapse into that recompute. The
// channel is closed and the subscription released when ctx ends.
//
// The view sent first is computed after the subscription is in place, so
// a vote is either in it or triggers a recompute.
func (p *Projector) Watch(ctx context.Context, eventID string) (<-chan models.EventView, error) {
	slotsView, err := p.source.GetEventWithTally(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// Slots never change after creation.
	slotIDs := make([]string, len(slotsView.TimeSlots))
	for i, slot := range slotsView.TimeSlots {
		slotIDs[i] = slot.ID
	}

	dirty := make(chan struct{}, 1)
	unsubscribe := p.source.SubscribeToVoteChanges(slotIDs, func(models.VoteChange) {
		select {
		case dirty <- struct{}{}:
		default: // a recompute is already pending
		}
	})

	initial, err := p.source.GetEventWithTally(ctx, eventID)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan models.EventView, 1)
	go func() {
		defer close(out)
		defer unsubscribe()

		if !send(ctx, out, initial) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}

			view, err := p.source.GetEventWithTally(ctx, eventID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("failed to recompute event view", "error", err, "event_id", eventID)
				continue
			}
			if !send(ctx, out, view) {
				return
			}
		}
	}()

	return out, nil
}

func send(ctx context.Context, out chan<- models.EventView, view models.EventView) bool {
	select {
	case out <- view:
		return true
	case <-ctx.Done():
		return false
	}
}
