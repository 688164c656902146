// Package swrcache is a file-backed stale-while-revalidate cache for CLI
// reads. Fresh entries are served without a request; stale entries are
// served immediately and refreshed in the background; expired entries are
// refetched before returning.
package swrcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultFreshTTL = 30 * time.Second
	defaultMaxStale = 10 * time.Minute
	refreshTimeout  = 30 * time.Second
)

// Cache provides stale-while-revalidate caching with file-backed JSON storage.
type Cache struct {
	dir      string
	freshTTL time.Duration
	maxStale time.Duration
	logger   *slog.Logger

	// pending tracks background revalidations; shared by scoped copies.
	pending *sync.WaitGroup
}

// New returns a cache rooted at dir with default TTLs.
func New(dir string) *Cache {
	return WithTTLs(dir, defaultFreshTTL, defaultMaxStale)
}

// NewDefault returns a cache rooted at the OS user cache dir.
func NewDefault() *Cache {
	return New(DefaultDir())
}

// WithTTLs returns a new cache rooted at dir with custom TTLs.
func WithTTLs(dir string, freshTTL, maxStale time.Duration) *Cache {
	return &Cache{
		dir:      dir,
		freshTTL: freshTTL,
		maxStale: maxStale,
		logger:   slog.Default(),
		pending:  &sync.WaitGroup{},
	}
}

// WithLogger returns c with logger used for background refresh failures.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	if c == nil || logger == nil {
		return c
	}
	cp := *c
	cp.logger = logger
	return &cp
}

// Scoped returns a view of c whose entries live in a subdirectory named
// after scope, so two accounts never read each other's responses. Clear on
// the parent removes every scope.
func (c *Cache) Scoped(scope string) *Cache {
	if c == nil || c.dir == "" {
		return c
	}
	cp := *c
	cp.dir = filepath.Join(c.dir, sanitizeKey(scope))
	return &cp
}

// Dir returns the directory entries are stored in.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// GetOrFetch returns cached data using stale-while-revalidate semantics.
func GetOrFetch[T any](c *Cache, ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	entry, err := GetOrFetchEntry(c, ctx, key, fetch)
	return entry.Data, err
}

// GetOrFetchEntry is GetOrFetch that also reports when the returned data
// was fetched.
func GetOrFetchEntry[T any](c *Cache, ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], error) {
	if c == nil || c.dir == "" {
		return fetchOnly(ctx, fetch)
	}

	entry, ok, err := readEntry[T](c, key)
	if err != nil || !ok || entry.FetchedAt.IsZero() {
		return fetchAndStore(c, ctx, key, fetch)
	}

	age := time.Since(entry.FetchedAt)
	if age < 0 {
		return fetchAndStore(c, ctx, key, fetch)
	}

	if age <= c.freshTTL {
		return entry, nil
	}

	if c.maxStale <= 0 || age <= c.maxStale {
		revalidate(c, key, fetch)
		return entry, nil
	}

	return fetchAndStore(c, ctx, key, fetch)
}

// Wait blocks until background revalidations finish or ctx ends. A CLI
// calls it before exiting so refreshed entries reach disk.
func (c *Cache) Wait(ctx context.Context) {
	if c == nil || c.pending == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Invalidate removes a single cached entry.
func (c *Cache) Invalidate(key string) error {
	if c == nil || c.dir == "" {
		return nil
	}

	err := os.Remove(c.pathForKey(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// InvalidatePrefix removes cached entries with the given key prefix.
func (c *Cache) InvalidatePrefix(prefix string) error {
	if c == nil || c.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	sanitized := sanitizeKey(prefix)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, sanitized) {
			if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}

	return nil
}

// Clear removes all cached entries in the cache directory, including
// scoped subdirectories.
func (c *Cache) Clear() error {
	if c == nil || c.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

func fetchOnly[T any](ctx context.Context, fetch func(context.Context) (T, error)) (Entry[T], error) {
	data, err := fetch(ctx)
	if err != nil {
		return Entry[T]{}, err
	}
	return Entry[T]{Data: data, FetchedAt: time.Now()}, nil
}

func fetchAndStore[T any](c *Cache, ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], error) {
	entry, err := fetchOnly(ctx, fetch)
	if err != nil {
		return entry, err
	}
	if err := writeEntry(c, key, entry); err != nil {
		c.logger.Debug("response cache write failed", "key", key, "error", err)
	}
	return entry, nil
}

func revalidate[T any](c *Cache, key string, fetch func(context.Context) (T, error)) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		data, err := fetch(ctx)
		if err != nil {
			c.logger.Debug("response cache refresh failed", "key", key, "error", err)
			return
		}
		_ = writeEntry(c, key, Entry[T]{Data: data, FetchedAt: time.Now()})
	}()
}

func readEntry[T any](c *Cache, key string) (Entry[T], bool, error) {
	var zero Entry[T]
	path := c.pathForKey(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, false, nil
		}
		return zero, false, err
	}

	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return zero, false, nil
	}

	return entry, true, nil
}

func writeEntry[T any](c *Cache, key string, entry Entry[T]) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, sanitizeKey(key)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}

	return os.Rename(name, c.pathForKey(key))
}

func (c *Cache) pathForKey(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

// DefaultDir is <UserCacheDir>/tsm/responses.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "tsm", "responses")
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
