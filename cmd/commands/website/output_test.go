package website

import (
	"testing"

	"nathanbeddoewebdev/tsm/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		detail domain.WebsiteDetail
		want   summary
	}{
		{
			name:   "no checks yet",
			detail: domain.WebsiteDetail{Info: domain.Website{ID: "5", URL: "https://example.com"}},
			want:   summary{ID: "5", URL: "https://example.com", Status: "unknown"},
		},
		{
			name: "all up",
			detail: domain.WebsiteDetail{
				Info: domain.Website{ID: "5", URL: "https://example.com"},
				LatestUptime: map[string]domain.UptimeCheck{
					domain.LocationLondon: {IsUp: true, ResponseTimeMs: 100},
					domain.LocationCanada: {IsUp: true, ResponseTimeMs: 200},
					domain.LocationIndia:  {IsUp: true, ResponseTimeMs: 300},
				},
				Graph: domain.GraphData{UptimePercentage24h: 99.5},
				SSL:   &domain.SslCertificate{DaysUntilExpiry: 60, Grade: "A"},
			},
			want: summary{
				ID: "5", URL: "https://example.com", Status: "up",
				Up: 3, Reporting: 3, AvgMs: ptr(200.0), Uptime24h: 99.5,
				SSLDays: ptr(60), SSLGrade: "A",
			},
		},
		{
			name: "one location down",
			detail: domain.WebsiteDetail{
				Info: domain.Website{ID: "6"},
				LatestUptime: map[string]domain.UptimeCheck{
					domain.LocationLondon: {IsUp: true, ResponseTimeMs: 120},
					domain.LocationIndia:  {IsUp: false},
				},
			},
			want: summary{ID: "6", Status: "degraded", Up: 1, Reporting: 2, AvgMs: ptr(120.0)},
		},
		{
			name: "every location down",
			detail: domain.WebsiteDetail{
				Info: domain.Website{ID: "7"},
				LatestUptime: map[string]domain.UptimeCheck{
					domain.LocationCanada: {IsUp: false},
				},
			},
			want: summary{ID: "7", Status: "down", Reporting: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(tt.detail)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("summarize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummaryColumns(t *testing.T) {
	s := summary{AvgMs: ptr(1500.0), SSLDays: ptr(60), SSLGrade: "B"}
	if got := s.avg(); got != "1.50 s" {
		t.Errorf("avg() = %q", got)
	}
	if got := s.ssl(); got != "B valid (60d)" {
		t.Errorf("ssl() = %q", got)
	}

	var empty summary
	if empty.avg() != "-" || empty.ssl() != "-" {
		t.Errorf("expected dashes for missing data, got %q and %q", empty.avg(), empty.ssl())
	}
}

func TestLocationName(t *testing.T) {
	for in, want := range map[string]string{"LONDON": "London", "india": "India", "": ""} {
		if got := locationName(in); got != want {
			t.Errorf("locationName(%q) = %q, want %q", in, got, want)
		}
	}
}
