package engine

// Coalescer holds at most one pending task. Scheduling while a task is
// pending replaces it, so only the latest update is ever applied — coalescing,
// not buffering. The host drives Fire once per animation frame (or whatever
// frame clock it has).
type Coalescer struct {
	pending func()
}

// Schedule replaces any unfired pending task with fn.
func (c *Coalescer) Schedule(fn func()) {
	c.pending = fn
}

// Cancel drops the pending task without running it. Used on drag teardown so
// a stale transient update cannot fire after the commit.
func (c *Coalescer) Cancel() {
	c.pending = nil
}

// Fire runs and clears the pending task. Returns false when nothing was
// pending.
func (c *Coalescer) Fire() bool {
	if c.pending == nil {
		return false
	}
	fn := c.pending
	c.pending = nil
	fn()
	return true
}
