// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduling

import (
	"context"
	"log/slog"
	"time"
)

const compensationTimeout = 5 * time.Second

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

// compensator records undo steps for a multi-step write and replays them in
// reverse when a later step fails.
type compensator struct {
	steps []undoStep
}

func (c *compensator) push(name string, fn func(ctx context.Context) error) {
	c.steps = append(c.steps, undoStep{name: name, fn: fn})
}

// rollback runs every recorded step, newest first. It keeps going past
// failures and only logs them so the caller can still return the original
// error. The undo runs even if ctx is already cancelled.
func (c *compensator) rollback(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.fn(ctx); err != nil {
			slog.Error("compensation step failed", "step", step.name, "error", err)
			continue
		}
		slog.Debug("compensation step applied", "step", step.name)
	}
	c.steps = nil
}
