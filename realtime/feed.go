// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"sync"

	"github.com/danielhkuo/quickly-meet/models"
)

type subscription struct {
	slots map[string]struct{}
	fn    func(models.VoteChange)
}

func newSubscription(slotIDs []string, fn func(models.VoteChange)) subscription {
	slots := make(map[string]struct{}, len(slotIDs))
	for _, id := range slotIDs {
		slots[id] = struct{}{}
	}
	return subscription{slots: slots, fn: fn}
}

func (s subscription) wants(change models.VoteChange) bool {
	_, ok := s.slots[change.TimeSlotID]
	return ok
}

// LocalFeed fans vote changes out to subscribers in the same process.
// Callbacks run on the publisher's goroutine and must not block.
type LocalFeed struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[int]subscription)}
}

func (f *LocalFeed) Publish(_ context.Context, change models.VoteChange) error {
	f.mu.RLock()
	var matched []func(models.VoteChange)
	for _, sub := range f.subs {
		if sub.wants(change) {
			matched = append(matched, sub.fn)
		}
	}
	f.mu.RUnlock()

	for _, fn := range matched {
		fn(change)
	}
	return nil
}

// Subscribe registers fn for changes on slotIDs. The returned cancel is
// safe to call more than once.
func (f *LocalFeed) Subscribe(slotIDs []string, fn func(models.VoteChange)) (cancel func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = newSubscription(slotIDs, fn)
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions are live.
func (f *LocalFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
