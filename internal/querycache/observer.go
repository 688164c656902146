package querycache

// Observer is one consumer's interest in a key. Its methods are safe for
// concurrent use. Close must be called when the consumer goes away, or
// the key keeps polling.
type Observer struct {
	c       *Cache
	id      uint64
	key     string
	fetcher Fetcher
	opts    Options
	notify  func(Snapshot)
	closed  bool
}

// Key returns the key currently observed.
func (o *Observer) Key() string {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	return o.key
}

// Snapshot returns the current state of the observed key.
func (o *Observer) Snapshot() Snapshot {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()

	e, ok := o.c.entries[o.key]
	if !ok {
		return Snapshot{Key: o.key}
	}
	return o.c.snapshotLocked(e)
}

// Refetch fetches the key now, joining a fetch already in flight. It does
// nothing while the observer is disabled or closed.
func (o *Observer) Refetch() {
	c := o.c
	c.mu.Lock()
	var out []notification
	if !o.closed && o.opts.Enabled {
		if e, ok := c.entries[o.key]; ok {
			c.startFetchLocked(e, &out)
		}
	}
	c.mu.Unlock()

	deliver(out)
}

// SetEnabled turns fetching on or off for this observer. Enabling behaves
// like a fresh mount; disabling stops the key's timer and abandons its
// fetch once no other enabled observer remains.
func (o *Observer) SetEnabled(enabled bool) {
	c := o.c
	c.mu.Lock()
	var out []notification
	if !o.closed && o.opts.Enabled != enabled {
		o.opts.Enabled = enabled
		if e, ok := c.entries[o.key]; ok {
			if enabled {
				c.rescheduleLocked(e)
				if c.needsFetchLocked(e, o.opts) {
					c.startFetchLocked(e, &out)
				} else if e.req == nil && e.status != e.settledStatus() {
					e.status = e.settledStatus()
					c.changedLocked(e, &out)
				}
			} else {
				c.settleLocked(e, &out)
			}
		}
	}
	c.mu.Unlock()

	deliver(out)
}

// Switch moves the observer to a different key, as when a view navigates
// from one server to another. Interest in the old key ends immediately; a
// response for it that arrives later never reaches this observer.
// Switching to the current key is a no-op.
func (o *Observer) Switch(key string, fetch Fetcher) {
	c := o.c
	c.mu.Lock()
	var out []notification
	if !o.closed && key != o.key {
		// o leaves the old key's observer set before its remaining
		// observers are notified, so o never sees the old key again.
		c.detachLocked(o, &out)
		o.key = key
		o.fetcher = fetch
		c.attachLocked(o, &out)
	}
	c.mu.Unlock()

	deliver(out)
}

// Close ends the observer's interest in its key.
func (o *Observer) Close() {
	c := o.c
	c.mu.Lock()
	var out []notification
	if !o.closed {
		o.closed = true
		c.detachLocked(o, &out)
	}
	c.mu.Unlock()

	deliver(out)
}
