package metrics

import (
	"time"

	"nathanbeddoewebdev/tsm/internal/domain"
)

// Field indices of the buckets returned by the series helpers.
const (
	CPUTotal = iota
	CPUUser
	CPUSystem
	CPUIOWait
)

const (
	MemoryPercent = iota
	MemoryUsed
	MemoryTotal
	MemoryAvailable
)

const (
	NetworkSent = iota
	NetworkRecv
)

const (
	DiskRead = iota
	DiskWrite
)

// Selectors for the API sample kinds.
var (
	CPUFields Selector[domain.CPUSample] = func(s domain.CPUSample) (time.Time, []float64) {
		return s.ReportTime.Time, []float64{s.Total, s.User, s.System, s.IOWait}
	}
	MemoryFields Selector[domain.MemorySample] = func(s domain.MemorySample) (time.Time, []float64) {
		return s.ReportTime.Time, []float64{s.Percent, s.Used, s.Total, s.Available}
	}
	NetworkFields Selector[domain.NetworkSample] = func(s domain.NetworkSample) (time.Time, []float64) {
		return s.ReportTime.Time, []float64{s.BytesSent, s.BytesRecv}
	}
	DiskIOFields Selector[domain.DiskIOSample] = func(s domain.DiskIOSample) (time.Time, []float64) {
		return s.ReportTime.Time, []float64{s.ReadBytes, s.WriteBytes}
	}
	ResponseFields Selector[domain.ResponseSample] = func(s domain.ResponseSample) (time.Time, []float64) {
		return s.CheckedAt.Time, []float64{s.ResponseTimeMs}
	}
)

// HistorySeries is the hourly view of a server's 24h history.
type HistorySeries struct {
	CPU     []Bucket
	Memory  []Bucket
	Network []Bucket
	DiskIO  []Bucket
}

// Empty reports whether no series has any bucket.
func (h HistorySeries) Empty() bool {
	return len(h.CPU) == 0 && len(h.Memory) == 0 && len(h.Network) == 0 && len(h.DiskIO) == 0
}

// BucketHistory buckets every series of h. CPU and memory keep the latest
// sample per hour; network and disk counters keep the latest sample per
// interface or device and sum across them.
func (b Bucketer) BucketHistory(h domain.History) HistorySeries {
	network := make(map[string][]Point, len(h.Network))
	for name, samples := range h.Network {
		network[name] = Points(samples, NetworkFields)
	}
	disk := make(map[string][]Point, len(h.DiskIO))
	for name, samples := range h.DiskIO {
		disk[name] = Points(samples, DiskIOFields)
	}

	return HistorySeries{
		CPU:     b.Bucket(Points(h.CPU, CPUFields), ModeLatest),
		Memory:  b.Bucket(Points(h.Memory, MemoryFields), ModeLatest),
		Network: b.BucketGroups(network),
		DiskIO:  b.BucketGroups(disk),
	}
}

// BucketResponseTimes buckets each location's response-time history.
func (b Bucketer) BucketResponseTimes(byLocation map[string][]domain.ResponseSample) map[string][]Bucket {
	if len(byLocation) == 0 {
		return nil
	}
	out := make(map[string][]Bucket, len(byLocation))
	for loc, samples := range byLocation {
		if buckets := b.Bucket(Points(samples, ResponseFields), ModeLatest); len(buckets) > 0 {
			out[loc] = buckets
		}
	}
	return out
}
