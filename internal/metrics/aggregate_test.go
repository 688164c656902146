package metrics

import (
	"testing"
	"time"

	"nathanbeddoewebdev/tsm/internal/domain"
)

type sample struct {
	at time.Time
	v  float64
}

func sampleValue(s sample) (time.Time, float64) { return s.at, s.v }

func TestLatestValue_Empty(t *testing.T) {
	v, ok := LatestValue([]sample(nil), sampleValue)
	if ok || v != 0 {
		t.Fatalf("LatestValue(nil) = %v, %v; want 0, false", v, ok)
	}
}

func TestLatestValue_Chronological(t *testing.T) {
	series := []sample{
		{at(3, 0), 30},
		{at(5, 0), 50},
		{at(4, 0), 40},
	}
	v, ok := LatestValue(series, sampleValue)
	if !ok || v != 50 {
		t.Fatalf("LatestValue = %v, %v; want 50, true", v, ok)
	}
}

func TestLatestValue_NoClamping(t *testing.T) {
	v, _ := LatestValue([]sample{{at(1, 0), 142.5}}, sampleValue)
	if v != 142.5 {
		t.Errorf("LatestValue = %v, want 142.5", v)
	}
	v, _ = LatestValue([]sample{{at(1, 0), -3}}, sampleValue)
	if v != -3 {
		t.Errorf("LatestValue = %v, want -3", v)
	}
}

func TestSumAcrossGroups(t *testing.T) {
	if got := SumAcrossGroups(map[string][]sample{}, sampleValue); got != 0 {
		t.Errorf("SumAcrossGroups({}) = %v, want 0", got)
	}
	if got := SumAcrossGroups[sample](nil, sampleValue); got != 0 {
		t.Errorf("SumAcrossGroups(nil) = %v, want 0", got)
	}

	groups := map[string][]sample{
		"eth0": {{at(1, 0), 10}, {at(2, 0), 25}},
		"eth1": {{at(2, 0), 5}},
		"down": nil,
	}
	if got := SumAcrossGroups(groups, sampleValue); got != 30 {
		t.Errorf("SumAcrossGroups = %v, want 30", got)
	}
}

func TestField(t *testing.T) {
	samples := []domain.NetworkSample{
		{ReportTime: domain.Timestamp{Time: at(1, 0)}, BytesSent: 1, BytesRecv: 2},
		{ReportTime: domain.Timestamp{Time: at(2, 0)}, BytesSent: 3, BytesRecv: 4},
	}
	v, ok := LatestValue(samples, Field(NetworkFields, NetworkRecv))
	if !ok || v != 4 {
		t.Errorf("LatestValue(recv) = %v, %v; want 4, true", v, ok)
	}
}

func TestTotalNetwork(t *testing.T) {
	got := TotalNetwork([]domain.NetworkInterface{
		{Name: "eth0", BytesSent: 100, BytesRecv: 200, BytesAll: 300, BytesAllRate: 10},
		{Name: "lo", BytesSent: 1, BytesRecv: 1, BytesAll: 2, BytesAllRate: 1},
	})
	if got.BytesAll != 302 || got.BytesAllRate != 11 || got.BytesSent != 101 {
		t.Errorf("unexpected totals: %+v", got)
	}
}

func TestTotalStorage(t *testing.T) {
	got := TotalStorage([]domain.FileSystem{
		{MountPoint: "/", Size: 100, Used: 85, Free: 15, Percent: 85},
		{MountPoint: "/data", Size: 100, Used: 15, Free: 85, Percent: 15},
	})
	if got.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", got.Warnings)
	}
	if got.Percent() != 50 {
		t.Errorf("Percent() = %v, want 50", got.Percent())
	}
	if (StorageTotals{}).Percent() != 0 {
		t.Error("expected 0 percent for empty totals")
	}
}

func TestAverageResponseTime(t *testing.T) {
	checks := map[string]domain.UptimeCheck{
		domain.LocationLondon: {ResponseTimeMs: 100},
		domain.LocationCanada: {ResponseTimeMs: 300},
		domain.LocationIndia:  {ResponseTimeMs: 0},
	}
	avg, ok := AverageResponseTime(checks)
	if !ok || avg != 200 {
		t.Errorf("AverageResponseTime = %v, %v; want 200, true", avg, ok)
	}

	avg, ok = AverageResponseTime(checks, domain.LocationLondon)
	if !ok || avg != 100 {
		t.Errorf("AverageResponseTime(LONDON) = %v, %v; want 100, true", avg, ok)
	}

	if _, ok := AverageResponseTime(nil); ok {
		t.Error("expected ok=false with no checks")
	}
}
