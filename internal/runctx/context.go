// Package runctx tracks the identity of the run in progress so log records
// can be tagged with it.
package runctx

import (
	"log/slog"
	"sync"
	"time"

	"github.com/liftsim/liftsim/pkg/core"
)

// Context holds the current run.
type Context struct {
	mu  sync.RWMutex
	run core.Run
	set bool
}

// NewContext creates a Context with no run loaded.
func NewContext() *Context {
	return &Context{}
}

// SetRun records the run being simulated.
func (c *Context) SetRun(run core.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = run
	c.set = true
}

// GetRun returns the current run and whether one has been set.
func (c *Context) GetRun() (core.Run, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run, c.set
}

// Attrs returns log attributes describing the current run, or nil before
// SetRun.
func (c *Context) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return nil
	}
	return []slog.Attr{
		slog.Uint64("run_id", uint64(c.run.ID)),
		slog.Uint64("seed", c.run.Seed),
		slog.Int("floors", c.run.FloorCount),
	}
}

// Elapsed returns the time since the run started.
func (c *Context) Elapsed(now time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || c.run.StartTime.IsZero() {
		return 0
	}
	return now.Sub(c.run.StartTime)
}
