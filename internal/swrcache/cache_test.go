package swrcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetOrFetch_FreshCache(t *testing.T) {
	cache := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)

	key := "servers"
	if err := writeEntry(cache, key, Entry[string]{Data: "cached", FetchedAt: time.Now().Add(-time.Minute)}); err != nil {
		t.Fatalf("writeEntry error: %v", err)
	}

	called := 0
	fetch := func(ctx context.Context) (string, error) {
		called++
		return "fresh", nil
	}

	got, err := GetOrFetch(cache, context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}
	if got != "cached" {
		t.Fatalf("got %q, want %q", got, "cached")
	}
	if called != 0 {
		t.Fatalf("fetch called %d times, want 0", called)
	}
}

func TestGetOrFetch_StaleCacheRevalidates(t *testing.T) {
	cache := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)

	key := "server:42"
	if err := writeEntry(cache, key, Entry[string]{Data: "cached", FetchedAt: time.Now().Add(-10 * time.Minute)}); err != nil {
		t.Fatalf("writeEntry error: %v", err)
	}

	fetch := func(ctx context.Context) (string, error) {
		return "fresh", nil
	}

	got, err := GetOrFetch(cache, context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}
	if got != "cached" {
		t.Fatalf("got %q, want %q", got, "cached")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cache.Wait(ctx)

	entry, ok, _ := readEntry[string](cache, key)
	if !ok || entry.Data != "fresh" {
		t.Fatalf("expected cache to be refreshed, got ok=%v data=%q", ok, entry.Data)
	}
}

func TestGetOrFetch_StaleRefreshFailureKeepsEntry(t *testing.T) {
	cache := WithTTLs(t.TempDir(), time.Minute, time.Hour)

	key := "websites"
	fetchedAt := time.Now().Add(-5 * time.Minute)
	if err := writeEntry(cache, key, Entry[string]{Data: "cached", FetchedAt: fetchedAt}); err != nil {
		t.Fatalf("writeEntry error: %v", err)
	}

	entry, err := GetOrFetchEntry(cache, context.Background(), key, func(ctx context.Context) (string, error) {
		return "", errors.New("api down")
	})
	if err != nil {
		t.Fatalf("GetOrFetchEntry error: %v", err)
	}
	if entry.Data != "cached" || !entry.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("got %+v, want the stale entry", entry)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cache.Wait(ctx)

	stored, ok, _ := readEntry[string](cache, key)
	if !ok || stored.Data != "cached" {
		t.Fatalf("failed refresh must not overwrite, got ok=%v data=%q", ok, stored.Data)
	}
}

func TestGetOrFetch_ExpiredCacheFetchesSync(t *testing.T) {
	cache := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)

	key := "servers"
	if err := writeEntry(cache, key, Entry[string]{Data: "cached", FetchedAt: time.Now().Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("writeEntry error: %v", err)
	}

	called := 0
	fetch := func(ctx context.Context) (string, error) {
		called++
		return "fresh", nil
	}

	got, err := GetOrFetch(cache, context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}
	if got != "fresh" {
		t.Fatalf("got %q, want %q", got, "fresh")
	}
	if called != 1 {
		t.Fatalf("fetch called %d times, want 1", called)
	}
}

func TestGetOrFetch_MissFetchesSync(t *testing.T) {
	cache := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)

	called := 0
	fetch := func(ctx context.Context) (string, error) {
		called++
		return "fresh", nil
	}

	entry, err := GetOrFetchEntry(cache, context.Background(), "missing", fetch)
	if err != nil {
		t.Fatalf("GetOrFetchEntry error: %v", err)
	}
	if entry.Data != "fresh" {
		t.Fatalf("got %q, want %q", entry.Data, "fresh")
	}
	if entry.FetchedAt.IsZero() {
		t.Fatal("expected FetchedAt to be set")
	}
	if called != 1 {
		t.Fatalf("fetch called %d times, want 1", called)
	}
}

func TestGetOrFetch_ErrorNotCached(t *testing.T) {
	cache := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)

	_, err := GetOrFetch(cache, context.Background(), "servers", func(ctx context.Context) ([]string, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok, _ := readEntry[[]string](cache, "servers"); ok {
		t.Fatal("errors must not be cached")
	}
}

func TestGetOrFetch_NilCacheFetchesEveryTime(t *testing.T) {
	var cache *Cache
	called := 0
	for range 2 {
		_, _ = GetOrFetch(cache, context.Background(), "servers", func(ctx context.Context) (int, error) {
			called++
			return 1, nil
		})
	}
	if called != 2 {
		t.Fatalf("fetch called %d times, want 2", called)
	}
}

func TestInvalidatePrefix(t *testing.T) {
	cache := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)

	for _, key := range []string{"website:1", "website-details:all", "servers"} {
		if err := writeEntry(cache, key, Entry[string]{Data: key, FetchedAt: time.Now()}); err != nil {
			t.Fatalf("writeEntry error: %v", err)
		}
	}

	if err := cache.InvalidatePrefix("website"); err != nil {
		t.Fatalf("InvalidatePrefix error: %v", err)
	}

	if _, ok, _ := readEntry[string](cache, "website:1"); ok {
		t.Fatal("expected website:1 to be removed")
	}
	if _, ok, _ := readEntry[string](cache, "website-details:all"); ok {
		t.Fatal("expected website-details:all to be removed")
	}
	if _, ok, _ := readEntry[string](cache, "servers"); !ok {
		t.Fatal("expected servers to remain")
	}
}

func TestScoped_IsolatesAccounts(t *testing.T) {
	root := WithTTLs(t.TempDir(), 5*time.Minute, time.Hour)
	alice := root.Scoped("alice@example.com")
	bob := root.Scoped("bob@example.com")

	if err := writeEntry(alice, "servers", Entry[string]{Data: "alice", FetchedAt: time.Now()}); err != nil {
		t.Fatalf("writeEntry error: %v", err)
	}

	got, err := GetOrFetch(bob, context.Background(), "servers", func(ctx context.Context) (string, error) {
		return "bob", nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}
	if got != "bob" {
		t.Fatalf("bob read %q from another scope", got)
	}
	if filepath.Dir(alice.Dir()) != root.Dir() {
		t.Fatalf("scoped dir %q not under %q", alice.Dir(), root.Dir())
	}

	if err := root.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, err := os.Stat(alice.Dir()); !os.IsNotExist(err) {
		t.Fatalf("expected scope removed by Clear, stat err = %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"":                   "cache",
		"server:42":          "server_42",
		"ops@example.com":    "ops_example_com",
		"website-details_ok": "website-details_ok",
	}
	for in, want := range tests {
		if got := sanitizeKey(in); got != want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
