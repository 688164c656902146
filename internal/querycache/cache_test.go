package querycache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

// --- test doubles ---

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c    *fakeClock
	at   time.Time
	f    func()
	done bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due timers on the caller's goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.done
	t.done = true
	return active
}

type result struct {
	data any
	err  error
}

type call struct {
	ctx    context.Context
	result chan result
}

func (c *call) succeed(v any)  { c.result <- result{data: v} }
func (c *call) fail(err error) { c.result <- result{err: err} }

// stubFetcher blocks every fetch until the test releases it. It ignores
// cancellation so tests can deliver responses for abandoned requests.
type stubFetcher struct {
	calls chan *call
	n     atomic.Int32
}

func newStub() *stubFetcher {
	return &stubFetcher{calls: make(chan *call, 16)}
}

func (s *stubFetcher) fetch(ctx context.Context) (any, error) {
	s.n.Add(1)
	c := &call{ctx: ctx, result: make(chan result, 1)}
	s.calls <- c
	r := <-c.result
	return r.data, r.err
}

func (s *stubFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for fetch to start")
		return nil
	}
}

func (s *stubFetcher) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case <-s.calls:
		t.Fatal("unexpected fetch")
	case <-time.After(50 * time.Millisecond):
	}
}

type recorder struct {
	ch chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Snapshot, 64)}
}

func (r *recorder) notify(s Snapshot) { r.ch <- s }

func (r *recorder) waitFor(t *testing.T, desc string, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-r.ch:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", desc)
			return Snapshot{}
		}
	}
}

func hasStatus(st Status) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.Status == st }
}

// logRecorder captures log messages so tests can wait for events that
// produce no notification, such as a discarded response.
type logRecorder struct {
	ch chan string
}

func (h *logRecorder) Enabled(context.Context, slog.Level) bool { return true }
func (h *logRecorder) Handle(_ context.Context, r slog.Record) error {
	select {
	case h.ch <- r.Message:
	default:
	}
	return nil
}
func (h *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logRecorder) WithGroup(string) slog.Handler      { return h }

func (h *logRecorder) waitFor(t *testing.T, msg string) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-h.ch:
			if got == msg {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for log %q", msg)
		}
	}
}

func newTestCache(t *testing.T) (*Cache, *fakeClock, *logRecorder) {
	t.Helper()
	clock := newFakeClock()
	logs := &logRecorder{ch: make(chan string, 256)}
	c := New(WithClock(clock), WithLogger(slog.New(logs)))
	t.Cleanup(c.Close)
	return c, clock, logs
}

var enabled = Options{Enabled: true}

// --- tests ---

func TestObserve_FetchesAndStoresData(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("servers", stub.fetch, enabled, rec.notify)
	defer obs.Close()

	rec.waitFor(t, "loading", hasStatus(StatusLoading))
	stub.next(t).succeed([]string{"web-1"})

	snap := rec.waitFor(t, "success", hasStatus(StatusSuccess))
	got, ok := Data[[]string](snap)
	if !ok || len(got) != 1 || got[0] != "web-1" {
		t.Fatalf("Data = %v, %v", got, ok)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
	if n := stub.n.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
}

func TestRefetch_CoalescesWhilePending(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("servers", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	pending := stub.next(t)

	obs.Refetch()
	obs.Refetch()
	c.Refetch("servers")
	stub.expectNoCall(t)

	pending.succeed("ok")
	rec.waitFor(t, "success", hasStatus(StatusSuccess))

	if n := stub.n.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
}

func TestRefetch_AfterCompletionFetchesAgain(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("servers", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	stub.next(t).succeed(1)
	rec.waitFor(t, "first success", hasStatus(StatusSuccess))

	obs.Refetch()
	stub.next(t).succeed(2)
	snap := rec.waitFor(t, "second success", func(s Snapshot) bool { return s.Status == StatusSuccess && s.Data == 2 })
	if !snap.HasData {
		t.Error("expected HasData")
	}
}

func TestSwitch_IgnoresOldKeyResponse(t *testing.T) {
	c, _, logs := newTestCache(t)
	stubA, stubB := newStub(), newStub()
	rec := newRecorder()

	obs := c.Observe("server:1", stubA.fetch, enabled, rec.notify)
	defer obs.Close()
	oldCall := stubA.next(t)

	obs.Switch("server:2", stubB.fetch)
	if oldCall.ctx.Err() == nil {
		t.Error("expected the abandoned request's context to be cancelled")
	}

	stubB.next(t).succeed("two")
	rec.waitFor(t, "new key success", func(s Snapshot) bool { return s.Key == "server:2" && s.Status == StatusSuccess })

	oldCall.succeed("one")
	logs.waitFor(t, "query response discarded")

	snap := obs.Snapshot()
	if snap.Key != "server:2" || snap.Data != "two" {
		t.Fatalf("snapshot changed after stale response: %+v", snap)
	}
	if old, _ := c.Peek("server:1"); old.HasData {
		t.Errorf("abandoned response was stored for old key: %+v", old)
	}
}

func TestSwitch_ReenteredKeyDiscardsEarlierRequest(t *testing.T) {
	c, _, logs := newTestCache(t)
	stub := newStub()
	other := newStub()
	rec := newRecorder()

	obs := c.Observe("server:1", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	first := stub.next(t)

	obs.Switch("server:2", other.fetch)
	other.next(t).succeed("two")
	rec.waitFor(t, "other key success", func(s Snapshot) bool { return s.Key == "server:2" && s.Status == StatusSuccess })

	obs.Switch("server:1", stub.fetch)
	second := stub.next(t)
	second.succeed("fresh")
	rec.waitFor(t, "re-entered key success", func(s Snapshot) bool { return s.Key == "server:1" && s.Data == "fresh" })

	first.succeed("stale")
	logs.waitFor(t, "query response discarded")

	if got := obs.Snapshot().Data; got != "fresh" {
		t.Fatalf("Data = %v, want fresh", got)
	}
}

func TestError_KeepsPreviousData(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("status", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	stub.next(t).succeed("v1")
	rec.waitFor(t, "success", hasStatus(StatusSuccess))

	boom := errors.New("boom")
	obs.Refetch()
	stub.next(t).fail(boom)
	snap := rec.waitFor(t, "error", hasStatus(StatusError))

	if !errors.Is(snap.Err, boom) {
		t.Errorf("Err = %v, want boom", snap.Err)
	}
	if !snap.HasData || snap.Data != "v1" {
		t.Errorf("previous data lost: %+v", snap)
	}

	obs.Refetch()
	stub.next(t).succeed("v2")
	snap = rec.waitFor(t, "recovery", hasStatus(StatusSuccess))
	if snap.Err != nil || snap.Data != "v2" {
		t.Errorf("expected recovery to clear error, got %+v", snap)
	}
}

func TestError_FirstFetchLeavesNoData(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("status", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	stub.next(t).fail(errors.New("unreachable"))

	snap := rec.waitFor(t, "error", hasStatus(StatusError))
	if snap.HasData || snap.Data != nil {
		t.Fatalf("expected no data after first failure, got %+v", snap)
	}
	if _, ok := Data[string](snap); ok {
		t.Error("Data reported ok for a failed first fetch")
	}
}

func TestTimer_RefetchesOnInterval(t *testing.T) {
	c, clock, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("live", stub.fetch, Options{Enabled: true, RefreshInterval: 10 * time.Second}, rec.notify)
	stub.next(t).succeed(1)
	rec.waitFor(t, "first success", hasStatus(StatusSuccess))

	clock.Advance(10 * time.Second)
	stub.next(t).succeed(2)
	rec.waitFor(t, "second success", func(s Snapshot) bool { return s.Data == 2 })

	obs.Close()
	clock.Advance(time.Minute)
	stub.expectNoCall(t)
}

func TestTimer_TickWhileInFlightIsCoalesced(t *testing.T) {
	c, clock, _ := newTestCache(t)
	stub := newStub()

	obs := c.Observe("live", stub.fetch, Options{Enabled: true, RefreshInterval: time.Second}, nil)
	defer obs.Close()
	pending := stub.next(t)

	clock.Advance(time.Second)
	clock.Advance(time.Second)
	stub.expectNoCall(t)

	pending.succeed("ok")
	if n := stub.n.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
}

func TestTimer_UsesShortestIntervalAndStopsWhenDisabled(t *testing.T) {
	c, clock, _ := newTestCache(t)
	stub := newStub()

	slow := c.Observe("live", stub.fetch, Options{Enabled: true, RefreshInterval: time.Minute}, nil)
	defer slow.Close()
	stub.next(t).succeed(1)

	fast := c.Observe("live", stub.fetch, Options{Enabled: true, RefreshInterval: 5 * time.Second, StaleTime: time.Hour}, nil)
	defer fast.Close()
	stub.expectNoCall(t)

	clock.Advance(5 * time.Second)
	stub.next(t).succeed(2)

	fast.SetEnabled(false)
	slow.SetEnabled(false)
	clock.Advance(time.Hour)
	stub.expectNoCall(t)
}

func TestDisabled_StaysIdleUntilEnabled(t *testing.T) {
	c, _, logs := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("servers", stub.fetch, Options{Enabled: false}, rec.notify)
	defer obs.Close()
	stub.expectNoCall(t)
	if st := obs.Snapshot().Status; st != StatusIdle {
		t.Fatalf("Status = %v, want idle", st)
	}

	obs.Refetch()
	stub.expectNoCall(t)

	obs.SetEnabled(true)
	pending := stub.next(t)

	obs.SetEnabled(false)
	rec.waitFor(t, "idle after disable", hasStatus(StatusIdle))

	pending.succeed("late")
	logs.waitFor(t, "query response discarded")
	if snap := obs.Snapshot(); snap.HasData || snap.Status != StatusIdle {
		t.Fatalf("disabled key changed state: %+v", snap)
	}
}

func TestInvalidate_RefetchesObservedKey(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("websites", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	stub.next(t).succeed("before")
	rec.waitFor(t, "success", hasStatus(StatusSuccess))

	c.Invalidate("websites")
	stub.next(t).succeed("after")
	rec.waitFor(t, "refetched data", func(s Snapshot) bool { return s.Data == "after" })
}

func TestInvalidate_SupersedesInFlightFetch(t *testing.T) {
	c, _, logs := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("websites", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	before := stub.next(t)

	c.Invalidate("websites")
	after := stub.next(t)
	after.succeed("after")
	rec.waitFor(t, "fresh data", func(s Snapshot) bool { return s.Data == "after" })

	before.succeed("before")
	logs.waitFor(t, "query response discarded")
	if got := obs.Snapshot().Data; got != "after" {
		t.Fatalf("Data = %v, want after", got)
	}
}

func TestInvalidate_UnobservedKeyRefetchesOnNextObserve(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()
	fresh := Options{Enabled: true, StaleTime: time.Hour}

	first := c.Observe("websites", stub.fetch, fresh, rec.notify)
	stub.next(t).succeed("v1")
	rec.waitFor(t, "success", hasStatus(StatusSuccess))
	first.Close()

	// Fresh data is reused without a fetch.
	second := c.Observe("websites", stub.fetch, fresh, nil)
	stub.expectNoCall(t)
	if snap := second.Snapshot(); snap.Status != StatusSuccess || snap.Data != "v1" {
		t.Fatalf("unexpected snapshot for fresh data: %+v", snap)
	}
	second.Close()

	c.Invalidate("websites")
	stub.expectNoCall(t)

	third := c.Observe("websites", stub.fetch, fresh, nil)
	defer third.Close()
	stub.next(t).succeed("v2")
}

func TestInvalidatePrefix(t *testing.T) {
	c, _, _ := newTestCache(t)
	details, list, servers := newStub(), newStub(), newStub()

	o1 := c.Observe("website:1", details.fetch, enabled, nil)
	o2 := c.Observe("websites", list.fetch, enabled, nil)
	o3 := c.Observe("servers", servers.fetch, enabled, nil)
	defer o1.Close()
	defer o2.Close()
	defer o3.Close()
	details.next(t).succeed(1)
	list.next(t).succeed(1)
	servers.next(t).succeed(1)

	c.InvalidatePrefix("website")
	details.next(t).succeed(2)
	list.next(t).succeed(2)
	servers.expectNoCall(t)
}

func TestSharedKey_SingleFetchNotifiesAll(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	r1, r2 := newRecorder(), newRecorder()

	o1 := c.Observe("status", stub.fetch, enabled, r1.notify)
	o2 := c.Observe("status", stub.fetch, enabled, r2.notify)
	defer o1.Close()
	defer o2.Close()

	stub.next(t).succeed("up")
	stub.expectNoCall(t)

	r1.waitFor(t, "first observer success", hasStatus(StatusSuccess))
	r2.waitFor(t, "second observer success", hasStatus(StatusSuccess))
}

func TestClose_LastObserverAbandonsFetch(t *testing.T) {
	c, _, logs := newTestCache(t)
	stub := newStub()

	obs := c.Observe("processes:1", stub.fetch, enabled, nil)
	pending := stub.next(t)

	obs.Close()
	if pending.ctx.Err() == nil {
		t.Fatal("expected context to be cancelled")
	}

	pending.succeed("late")
	logs.waitFor(t, "query response discarded")
	if snap, _ := c.Peek("processes:1"); snap.HasData {
		t.Errorf("abandoned response stored: %+v", snap)
	}
}

func TestClear_DropsData(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("servers", stub.fetch, enabled, rec.notify)
	stub.next(t).succeed("secret")
	rec.waitFor(t, "success", hasStatus(StatusSuccess))
	obs.Close()

	c.Clear()
	snap, ok := c.Peek("servers")
	if !ok || snap.Status != StatusIdle {
		t.Fatalf("status after Clear = %v, want idle", snap.Status)
	}
	if snap.HasData || snap.Data != nil {
		t.Fatalf("data survived Clear: %+v", snap)
	}
	stub.expectNoCall(t)
}

func TestClear_ObservedKeyRefetches(t *testing.T) {
	c, clock, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("live", stub.fetch, Options{Enabled: true, RefreshInterval: 10 * time.Second}, rec.notify)
	defer obs.Close()
	stub.next(t).succeed("before")
	rec.waitFor(t, "success", hasStatus(StatusSuccess))

	c.Clear()
	snap := rec.waitFor(t, "reload after clear", hasStatus(StatusLoading))
	if snap.HasData || snap.Data != nil {
		t.Fatalf("data survived Clear: %+v", snap)
	}
	stub.next(t).succeed("after")
	rec.waitFor(t, "success after clear", func(s Snapshot) bool {
		return s.Status == StatusSuccess && s.Data == "after"
	})

	// Polling continues on the existing timer.
	clock.Advance(10 * time.Second)
	stub.next(t).succeed("polled")
	rec.waitFor(t, "polled success", func(s Snapshot) bool { return s.Data == "polled" })
}

func TestSnapshot_VersionIncreases(t *testing.T) {
	c, _, _ := newTestCache(t)
	stub := newStub()
	rec := newRecorder()

	obs := c.Observe("servers", stub.fetch, enabled, rec.notify)
	defer obs.Close()
	loading := rec.waitFor(t, "loading", hasStatus(StatusLoading))
	stub.next(t).succeed(1)
	success := rec.waitFor(t, "success", hasStatus(StatusSuccess))

	if success.Version <= loading.Version {
		t.Fatalf("versions not increasing: loading=%d success=%d", loading.Version, success.Version)
	}
}

func TestFetch_TypedAdapter(t *testing.T) {
	f := Fetch(func(context.Context) (int, error) { return 0, errors.New("nope") })
	v, err := f(context.Background())
	if err == nil || v != nil {
		t.Fatalf("expected nil value and error, got %v, %v", v, err)
	}

	if got := Key("server-live-stats", "42"); got != "server-live-stats:42" {
		t.Errorf("Key = %q", got)
	}
}
