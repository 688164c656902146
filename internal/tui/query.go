package tui

import (
	"sync"
	"sync/atomic"

	"nathanbeddoewebdev/tsm/internal/querycache"

	tea "github.com/charmbracelet/bubbletea"
)

// snapshotMsg carries a cache snapshot to the view that owns sub.
type snapshotMsg struct {
	sub  uint64
	snap querycache.Snapshot
}

// relay forwards messages into the running program. The model is built,
// and its first view mounted, before the program exists; messages sent
// before set are held and flushed by it.
type relay struct {
	mu      sync.Mutex
	fn      func(tea.Msg)
	pending []tea.Msg
}

func (r *relay) set(fn func(tea.Msg)) {
	r.mu.Lock()
	r.fn = fn
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(pending) > 0 {
		// Program.Send blocks until the program runs.
		go func() {
			for _, msg := range pending {
				fn(msg)
			}
		}()
	}
}

// Send delivers msg, or holds it until a program is attached.
func (r *relay) Send(msg tea.Msg) {
	r.mu.Lock()
	fn := r.fn
	if fn == nil {
		r.pending = append(r.pending, msg)
	}
	r.mu.Unlock()

	if fn != nil {
		fn(msg)
	}
}

var subSeq atomic.Uint64

// query is one view's subscription to a cache key. Notifications are
// delivered on their own goroutine because the cache may notify from inside
// Update, where a blocking Program.Send would deadlock. Messages can
// therefore arrive out of order; apply drops any older than the snapshot
// already held.
type query struct {
	id   uint64
	obs  *querycache.Observer
	snap querycache.Snapshot
}

func observe(c *querycache.Cache, send func(tea.Msg), key string, fetch querycache.Fetcher, opts querycache.Options) *query {
	q := &query{id: subSeq.Add(1)}
	id := q.id
	q.obs = c.Observe(key, fetch, opts, func(s querycache.Snapshot) {
		go send(snapshotMsg{sub: id, snap: s})
	})
	q.snap = q.obs.Snapshot()
	return q
}

// apply stores msg if it belongs to q and is newer than what q holds.
func (q *query) apply(msg snapshotMsg) bool {
	if q == nil || msg.sub != q.id {
		return false
	}
	if msg.snap.Key != q.obs.Key() || msg.snap.Version < q.snap.Version {
		return false
	}
	q.snap = msg.snap
	return true
}

// owns reports whether msg is addressed to q, whether or not it is stale.
func (q *query) owns(msg snapshotMsg) bool {
	return q != nil && msg.sub == q.id
}

func (q *query) refetch() {
	if q != nil {
		q.obs.Refetch()
	}
}

func (q *query) setEnabled(enabled bool) {
	if q != nil {
		q.obs.SetEnabled(enabled)
		q.snap = q.obs.Snapshot()
	}
}

func (q *query) close() {
	if q != nil {
		q.obs.Close()
	}
}

// loading reports whether the view should show a spinner in place of
// content: nothing has been fetched yet and nothing has failed.
func (q *query) loading() bool {
	return q != nil && !q.snap.HasData && q.snap.Err == nil
}

// failed returns the error to show in place of content: the last fetch
// failed and there is no earlier data to fall back on.
func (q *query) failed() error {
	if q == nil || q.snap.HasData {
		return nil
	}
	return q.snap.Err
}

func queryData[T any](q *query) (T, bool) {
	if q == nil {
		var zero T
		return zero, false
	}
	return querycache.Data[T](q.snap)
}
