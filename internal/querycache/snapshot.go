package querycache

import (
	"context"
	"time"
)

// Status is the lifecycle state of a query key.
type Status int

const (
	// StatusIdle means no enabled observer wants the key.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusSuccess means the last fetch succeeded.
	StatusSuccess
	// StatusError means the last fetch failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a key's state.
//
// Data holds the last successful result and survives later errors, so a
// view can keep showing it next to Err. HasData is false until the first
// success.
type Snapshot struct {
	Key       string
	Status    Status
	Data      any
	HasData   bool
	Err       error
	UpdatedAt time.Time

	// Version increases with every state change in the cache. Consumers
	// that receive snapshots asynchronously use it to drop stale ones.
	Version uint64
}

// IsLoading reports whether a fetch is in flight.
func (s Snapshot) IsLoading() bool { return s.Status == StatusLoading }

// Data returns the snapshot's data as T.
func Data[T any](s Snapshot) (T, bool) {
	if !s.HasData {
		var zero T
		return zero, false
	}
	v, ok := s.Data.(T)
	return v, ok
}

// Fetcher loads the value for a key. It must honour ctx cancellation.
type Fetcher func(ctx context.Context) (any, error)

// Fetch adapts a typed fetch function into a Fetcher.
func Fetch[T any](fetch func(context.Context) (T, error)) Fetcher {
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
