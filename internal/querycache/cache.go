// Package querycache keeps the last known result of each query key,
// refreshes observed keys on a timer, and coalesces concurrent fetches.
//
// A view observes a key with a fetcher and options. The cache issues at
// most one fetch per key at a time, keeps the last successful data when a
// later fetch fails, and discards responses from requests that were
// abandoned because the key lost all of its observers or was invalidated.
package querycache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Options configures how an observer wants its key maintained.
type Options struct {
	// RefreshInterval schedules a refetch while the key is observed.
	// Zero disables polling; the key then refreshes only on mount,
	// Refetch and Invalidate.
	RefreshInterval time.Duration

	// StaleTime is how long data stays fresh. Observing a key whose data
	// is older than StaleTime triggers a fetch. Zero means every mount
	// fetches.
	StaleTime time.Duration

	// Enabled gates all fetching for the observer. A key with no enabled
	// observer is idle.
	Enabled bool
}

// Cache is a key-indexed store of query results. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   Clock
	logger  *slog.Logger
	seq     uint64
	version uint64
	closed  bool
}

type entry struct {
	key       string
	fetcher   Fetcher
	status    Status
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool

	req       *request
	observers map[uint64]*Observer

	timer    Timer
	timerGen uint64
	interval time.Duration
}

// request identifies one fetch. A completed fetch is applied only if its
// request is still the entry's current one.
type request struct {
	id     uint64
	cancel context.CancelFunc
}

type notification struct {
	notify func(Snapshot)
	snap   Snapshot
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock used for refresh timers.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger sets the logger used for fetch lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		clock:   realClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe registers interest in key. The observer's notify function is
// called after every state change of the key, never while the cache lock
// is held. Observing triggers a fetch unless the key already has fresh
// data or a fetch in flight.
func (c *Cache) Observe(key string, fetch Fetcher, opts Options, notify func(Snapshot)) *Observer {
	c.mu.Lock()
	c.seq++
	o := &Observer{c: c, id: c.seq, key: key, fetcher: fetch, opts: opts, notify: notify}
	var out []notification
	c.attachLocked(o, &out)
	c.mu.Unlock()

	deliver(out)
	return o
}

// Refetch fetches key now if it is observed, joining a fetch already in
// flight. An unobserved key is only marked stale.
func (c *Cache) Refetch(key string) {
	c.mu.Lock()
	var out []notification
	if e, ok := c.entries[key]; ok {
		if e.enabledObservers() > 0 {
			c.startFetchLocked(e, &out)
		} else {
			e.stale = true
		}
	}
	c.mu.Unlock()

	deliver(out)
}

// Invalidate marks key stale. If the key is observed, a fetch in flight is
// abandoned and a new one starts immediately, so the result reflects any
// change made before the call.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	var out []notification
	if e, ok := c.entries[key]; ok {
		c.invalidateLocked(e, &out)
	}
	c.mu.Unlock()

	deliver(out)
}

// InvalidatePrefix invalidates every key that starts with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	var out []notification
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.invalidateLocked(e, &out)
		}
	}
	c.mu.Unlock()

	deliver(out)
}

// Clear drops all cached data and abandons fetches in flight. Observers
// stay registered: a key with an enabled observer refetches at once, any
// other key becomes idle.
func (c *Cache) Clear() {
	c.mu.Lock()
	var out []notification
	for _, e := range c.entries {
		e.abandonLocked()
		e.data, e.hasData, e.err = nil, false, nil
		e.updatedAt = time.Time{}
		e.stale = false
		e.status = StatusIdle
		if e.enabledObservers() > 0 && !c.closed && e.fetcher != nil {
			c.startFetchLocked(e, &out)
			continue
		}
		c.changedLocked(e, &out)
	}
	c.mu.Unlock()

	deliver(out)
}

// Close stops all timers and abandons fetches in flight. The cache
// performs no further fetches.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, e := range c.entries {
		e.abandonLocked()
		e.stopTimerLocked()
	}
}

// Peek returns the current snapshot of key without observing it.
func (c *Cache) Peek(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key}, false
	}
	return c.snapshotLocked(e), true
}

// --- internals (c.mu held) ---

func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key, observers: make(map[uint64]*Observer)}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) attachLocked(o *Observer, out *[]notification) {
	e := c.entryLocked(o.key)
	e.observers[o.id] = o
	if o.fetcher != nil {
		e.fetcher = o.fetcher
	}

	c.rescheduleLocked(e)

	if !o.opts.Enabled {
		if e.enabledObservers() == 0 && e.req == nil && e.status != StatusIdle {
			e.status = StatusIdle
			c.changedLocked(e, out)
		}
		return
	}

	if c.needsFetchLocked(e, o.opts) {
		c.startFetchLocked(e, out)
		return
	}
	if e.req == nil && e.status == StatusIdle && e.settledStatus() != StatusIdle {
		e.status = e.settledStatus()
		c.changedLocked(e, out)
	}
}

func (c *Cache) detachLocked(o *Observer, out *[]notification) {
	e, ok := c.entries[o.key]
	if !ok {
		return
	}
	delete(e.observers, o.id)
	c.settleLocked(e, out)
}

// settleLocked updates timers and in-flight work after the set of
// enabled observers shrank.
func (c *Cache) settleLocked(e *entry, out *[]notification) {
	c.rescheduleLocked(e)
	if e.enabledObservers() > 0 {
		return
	}

	changed := false
	if e.req != nil {
		c.logger.Debug("query abandoned", "key", e.key, "request", e.req.id)
		e.abandonLocked()
		changed = true
	}

	next := e.settledStatus()
	if len(e.observers) > 0 {
		// Only disabled observers remain.
		next = StatusIdle
	}
	if e.status != next {
		e.status = next
		changed = true
	}
	if changed {
		c.changedLocked(e, out)
	}
}

func (c *Cache) needsFetchLocked(e *entry, opts Options) bool {
	if e.req != nil {
		return false
	}
	if !e.hasData || e.stale || opts.StaleTime <= 0 {
		return true
	}
	return c.clock.Now().Sub(e.updatedAt) >= opts.StaleTime
}

func (c *Cache) invalidateLocked(e *entry, out *[]notification) {
	e.stale = true
	if e.enabledObservers() == 0 {
		return
	}
	if e.req != nil {
		c.logger.Debug("query superseded", "key", e.key, "request", e.req.id)
		e.abandonLocked()
	}
	c.startFetchLocked(e, out)
}

// startFetchLocked starts a fetch for e unless one is already in flight.
func (c *Cache) startFetchLocked(e *entry, out *[]notification) {
	if c.closed || e.req != nil || e.fetcher == nil {
		return
	}

	c.seq++
	ctx, cancel := context.WithCancel(context.Background())
	req := &request{id: c.seq, cancel: cancel}
	e.req = req
	e.status = StatusLoading
	c.changedLocked(e, out)

	c.logger.Debug("query fetch started", "key", e.key, "request", req.id)

	fetch := e.fetcher
	key := e.key
	go func() {
		data, err := fetch(ctx)
		c.complete(key, req, data, err)
	}()
}

func (c *Cache) complete(key string, req *request, data any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.req != req {
		c.mu.Unlock()
		req.cancel()
		c.logger.Debug("query response discarded", "key", key, "request", req.id)
		return
	}

	e.req = nil
	req.cancel()

	if err != nil {
		e.status = StatusError
		e.err = err
		c.logger.Debug("query fetch failed", "key", key, "request", req.id, "error", err)
	} else {
		e.status = StatusSuccess
		e.data = data
		e.hasData = true
		e.err = nil
		e.stale = false
		e.updatedAt = c.clock.Now()
		c.logger.Debug("query fetch succeeded", "key", key, "request", req.id)
	}

	var out []notification
	c.changedLocked(e, &out)
	c.mu.Unlock()

	deliver(out)
}

// rescheduleLocked keeps one timer per entry running at the shortest
// refresh interval of its enabled observers.
func (c *Cache) rescheduleLocked(e *entry) {
	interval := e.refreshInterval()
	if interval == e.interval && (e.timer != nil || interval <= 0) {
		return
	}

	e.stopTimerLocked()
	e.interval = interval
	if interval <= 0 || c.closed {
		return
	}

	e.timerGen++
	c.armLocked(e, e.timerGen)
}

func (c *Cache) armLocked(e *entry, gen uint64) {
	key := e.key
	e.timer = c.clock.AfterFunc(e.interval, func() { c.tick(key, gen) })
}

func (c *Cache) tick(key string, gen uint64) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || c.closed || e.timerGen != gen || e.interval <= 0 {
		c.mu.Unlock()
		return
	}

	var out []notification
	if e.enabledObservers() > 0 {
		c.startFetchLocked(e, &out)
	}
	c.armLocked(e, gen)
	c.mu.Unlock()

	deliver(out)
}

func (c *Cache) changedLocked(e *entry, out *[]notification) {
	c.version++
	snap := c.snapshotLocked(e)
	for _, o := range e.observers {
		if o.notify != nil {
			*out = append(*out, notification{notify: o.notify, snap: snap})
		}
	}
}

func (c *Cache) snapshotLocked(e *entry) Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Version:   c.version,
	}
}

func deliver(out []notification) {
	for _, n := range out {
		n.notify(n.snap)
	}
}

// --- entry helpers (c.mu held) ---

func (e *entry) enabledObservers() int {
	n := 0
	for _, o := range e.observers {
		if o.opts.Enabled {
			n++
		}
	}
	return n
}

func (e *entry) refreshInterval() time.Duration {
	var shortest time.Duration
	for _, o := range e.observers {
		if !o.opts.Enabled || o.opts.RefreshInterval <= 0 {
			continue
		}
		if shortest == 0 || o.opts.RefreshInterval < shortest {
			shortest = o.opts.RefreshInterval
		}
	}
	return shortest
}

// settledStatus is the status an entry rests in when nothing is in flight.
func (e *entry) settledStatus() Status {
	switch {
	case e.err != nil:
		return StatusError
	case e.hasData:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// abandonLocked cancels the fetch in flight. Its response will not match
// the entry's request and is discarded.
func (e *entry) abandonLocked() {
	if e.req == nil {
		return
	}
	e.req.cancel()
	e.req = nil
	if e.status == StatusLoading {
		e.status = e.settledStatus()
	}
}

func (e *entry) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
}
