package metrics

import (
	"time"

	"nathanbeddoewebdev/tsm/internal/domain"
)

// ValueSelector extracts the time and a single value from a sample.
type ValueSelector[S any] func(S) (time.Time, float64)

// LatestValue returns the value of the chronologically last sample. When
// several samples share the latest time, the later one in the slice wins.
// ok is false for an empty series.
func LatestValue[S any](series []S, sel ValueSelector[S]) (value float64, ok bool) {
	var latest time.Time
	for _, s := range series {
		at, v := sel(s)
		if !ok || !at.Before(latest) {
			latest, value, ok = at, v, true
		}
	}
	return value, ok
}

// SumAcrossGroups adds the latest value of every group. Empty groups count
// as zero.
func SumAcrossGroups[S any](groups map[string][]S, sel ValueSelector[S]) float64 {
	var total float64
	for _, series := range groups {
		if v, ok := LatestValue(series, sel); ok {
			total += v
		}
	}
	return total
}

// Field adapts a multi-field Selector into a ValueSelector for field i.
func Field[S any](sel Selector[S], i int) ValueSelector[S] {
	return func(s S) (time.Time, float64) {
		at, values := sel(s)
		if i < 0 || i >= len(values) {
			return at, 0
		}
		return at, values[i]
	}
}

// NetworkTotals is the sum of all interfaces in a live snapshot.
type NetworkTotals struct {
	BytesSent     float64
	BytesRecv     float64
	BytesAll      float64
	BytesSentRate float64
	BytesRecvRate float64
	BytesAllRate  float64
}

// TotalNetwork sums counters and rates across interfaces.
func TotalNetwork(ifaces []domain.NetworkInterface) NetworkTotals {
	var t NetworkTotals
	for _, n := range ifaces {
		t.BytesSent += n.BytesSent
		t.BytesRecv += n.BytesRecv
		t.BytesAll += n.BytesAll
		t.BytesSentRate += n.BytesSentRate
		t.BytesRecvRate += n.BytesRecvRate
		t.BytesAllRate += n.BytesAllRate
	}
	return t
}

// StorageTotals is the sum of all filesystems in a live snapshot.
type StorageTotals struct {
	Size     float64
	Used     float64
	Free     float64
	Warnings int
}

// Percent returns used space as a percentage of total size.
func (s StorageTotals) Percent() float64 {
	if s.Size == 0 {
		return 0
	}
	return s.Used / s.Size * 100
}

// TotalStorage sums filesystem sizes and counts filesystems whose usage is
// above the critical threshold.
func TotalStorage(fs []domain.FileSystem) StorageTotals {
	var t StorageTotals
	for _, f := range fs {
		t.Size += f.Size
		t.Used += f.Used
		t.Free += f.Free
		if ClassifyUsage(f.Percent) == LevelCritical {
			t.Warnings++
		}
	}
	return t
}

// AverageResponseTime averages the positive response times reported by
// the given locations. ok is false when no location reported one.
func AverageResponseTime(checks map[string]domain.UptimeCheck, locations ...string) (avg float64, ok bool) {
	if len(locations) == 0 {
		locations = domain.Locations
	}
	var sum float64
	var n int
	for _, loc := range locations {
		check, found := checks[loc]
		if !found || check.ResponseTimeMs <= 0 {
			continue
		}
		sum += check.ResponseTimeMs
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
