package ordering

import (
	"context"
	"errors"
	"time"
)

// ErrCanceled is returned when the caller canceled an ordering run. No
// partial result accompanies it.
var ErrCanceled = errors.New("ordering canceled")

// Control lets the caller stop a run or ask it to cut corners.
type Control interface {
	// Canceled reports whether the run must stop immediately.
	Canceled() bool
	// FastModeNeeded reports whether optional minimization should be
	// skipped to bound the remaining time.
	FastModeNeeded() bool
}

// ContextControl derives cancellation from a context and switches to fast
// mode once a soft deadline has passed.
type ContextControl struct {
	ctx    context.Context
	fastAt time.Time
}

// NewContextControl returns a Control for ctx. A non-positive fastModeAfter
// never requests fast mode.
func NewContextControl(ctx context.Context, fastModeAfter time.Duration) *ContextControl {
	c := &ContextControl{ctx: ctx}
	if fastModeAfter > 0 {
		c.fastAt = time.Now().Add(fastModeAfter)
	}
	return c
}

func (c *ContextControl) Canceled() bool {
	return c.ctx.Err() != nil
}

func (c *ContextControl) FastModeNeeded() bool {
	return !c.fastAt.IsZero() && !time.Now().Before(c.fastAt)
}

// noControl never cancels and never asks for fast mode.
type noControl struct{}

func (noControl) Canceled() bool       { return false }
func (noControl) FastModeNeeded() bool { return false }

func checkCanceled(ctl Control) error {
	if ctl.Canceled() {
		return ErrCanceled
	}
	return nil
}
