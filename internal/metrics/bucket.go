// Package metrics turns raw telemetry from the API into chart-ready
// series and formats numbers for display.
package metrics

import (
	"sort"
	"time"
)

// DefaultBucketLimit is the number of hourly buckets kept for charting.
const DefaultBucketLimit = 24

// HourKeyLayout formats the key of an hourly bucket.
const HourKeyLayout = "2006-01-02 15:00"

// Mode selects how samples sharing an hour are combined.
type Mode int

const (
	// ModeLatest keeps the sample with the latest time in each hour.
	ModeLatest Mode = iota
	// ModeSum adds the fields of every sample in the hour.
	ModeSum
)

// Point is a timestamped sample reduced to its numeric fields.
type Point struct {
	Time   time.Time
	Values []float64
}

// Selector extracts the time and numeric fields of a sample. It must
// return the same number of fields for every sample of a series.
type Selector[S any] func(S) (time.Time, []float64)

// Bucket is one hour of a bucketed series. Time is the representative
// timestamp: the latest sample time that contributed to the bucket.
type Bucket struct {
	Key    string
	Hour   time.Time
	Time   time.Time
	Values []float64
}

// Value returns the i-th field, or 0 when the bucket has fewer fields.
func (b Bucket) Value(i int) float64 {
	if i < 0 || i >= len(b.Values) {
		return 0
	}
	return b.Values[i]
}

// Bucketer groups points into calendar hours of Location and keeps the
// Limit most recent buckets.
type Bucketer struct {
	Location *time.Location
	Limit    int
}

// DefaultBucketer buckets in local time and keeps 24 hours.
var DefaultBucketer = Bucketer{Location: time.Local, Limit: DefaultBucketLimit}

// Points applies sel to every sample.
func Points[S any](samples []S, sel Selector[S]) []Point {
	if len(samples) == 0 {
		return nil
	}
	out := make([]Point, len(samples))
	for i, s := range samples {
		at, values := sel(s)
		out[i] = Point{Time: at, Values: values}
	}
	return out
}

// BucketByHour buckets samples with DefaultBucketer.
func BucketByHour[S any](samples []S, sel Selector[S], mode Mode) []Bucket {
	return DefaultBucketer.Bucket(Points(samples, sel), mode)
}

// BucketGroupsByHour buckets each group with ModeLatest and sums the groups
// hour by hour, using DefaultBucketer.
func BucketGroupsByHour[S any](groups map[string][]S, sel Selector[S]) []Bucket {
	points := make(map[string][]Point, len(groups))
	for name, samples := range groups {
		points[name] = Points(samples, sel)
	}
	return DefaultBucketer.BucketGroups(points)
}

// Bucket groups points by hour. In ModeLatest the point with the latest
// time wins, and a point with an equal time replaces the stored one. In
// ModeSum all fields are added. The result is sorted by bucket time and
// holds at most Limit buckets; older buckets are dropped.
func (b Bucketer) Bucket(points []Point, mode Mode) []Bucket {
	if len(points) == 0 {
		return nil
	}

	byKey := make(map[string]*Bucket, len(points))
	for _, p := range points {
		hour := b.truncate(p.Time)
		key := hour.Format(HourKeyLayout)

		cur, ok := byKey[key]
		if !ok {
			byKey[key] = &Bucket{Key: key, Hour: hour, Time: p.Time, Values: cloneValues(p.Values)}
			continue
		}

		switch mode {
		case ModeSum:
			cur.Values = addValues(cur.Values, p.Values)
			if !p.Time.Before(cur.Time) {
				cur.Time = p.Time
			}
		default:
			if !p.Time.Before(cur.Time) {
				cur.Time = p.Time
				cur.Values = cloneValues(p.Values)
			}
		}
	}

	return b.finish(byKey)
}

// BucketGroups reduces each group to one point per hour (latest wins),
// then sums the groups per hour. The bucket time is the latest time among
// the groups' retained points.
func (b Bucketer) BucketGroups(groups map[string][]Point) []Bucket {
	byKey := make(map[string]*Bucket)

	// Sorted group names keep float addition order stable between calls.
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	unlimited := Bucketer{Location: b.Location}
	for _, name := range names {
		for _, bucket := range unlimited.Bucket(groups[name], ModeLatest) {
			cur, ok := byKey[bucket.Key]
			if !ok {
				byKey[bucket.Key] = &bucket
				continue
			}
			cur.Values = addValues(cur.Values, bucket.Values)
			if bucket.Time.After(cur.Time) {
				cur.Time = bucket.Time
			}
		}
	}

	if len(byKey) == 0 {
		return nil
	}
	return b.finish(byKey)
}

func (b Bucketer) finish(byKey map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(byKey))
	for _, bucket := range byKey {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time.Equal(out[j].Time) {
			return out[i].Key < out[j].Key
		}
		return out[i].Time.Before(out[j].Time)
	})

	if b.Limit > 0 && len(out) > b.Limit {
		out = out[len(out)-b.Limit:]
	}
	return out
}

// truncate floors t to the start of its calendar hour in b.Location.
// Calendar truncation differs from time.Truncate for zones whose offset is
// not a whole number of hours.
func (b Bucketer) truncate(t time.Time) time.Time {
	loc := b.Location
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

func cloneValues(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func addValues(acc, v []float64) []float64 {
	if len(v) > len(acc) {
		grown := make([]float64, len(v))
		copy(grown, acc)
		acc = grown
	}
	for i, x := range v {
		acc[i] += x
	}
	return acc
}

// Column extracts field i of every bucket, in order.
func Column(buckets []Bucket, i int) []float64 {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]float64, len(buckets))
	for j, b := range buckets {
		out[j] = b.Value(i)
	}
	return out
}
