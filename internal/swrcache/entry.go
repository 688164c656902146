package swrcache

import "time"

// Entry wraps cached data with the time it was fetched from the API.
type Entry[T any] struct {
	Data      T         `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Age reports how long ago the entry was fetched.
func (e Entry[T]) Age(now time.Time) time.Duration {
	if e.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(e.FetchedAt)
}
