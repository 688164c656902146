package website

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
)

// summary is the one-line health of a website.
type summary struct {
	ID        domain.ID `json:"id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Up        int       `json:"locations_up"`
	Reporting int       `json:"locations_reporting"`
	AvgMs     *float64  `json:"avg_response_ms,omitempty"`
	Uptime24h float64   `json:"uptime_24h"`
	SSLDays   *int      `json:"ssl_days_left,omitempty"`
	SSLGrade  string    `json:"ssl_grade,omitempty"`
}

func summarize(d domain.WebsiteDetail) summary {
	s := summary{
		ID:        d.Info.ID,
		URL:       d.Info.URL,
		Uptime24h: float64(d.Graph.UptimePercentage24h),
	}
	for _, loc := range domain.Locations {
		check, ok := d.LatestUptime[loc]
		if !ok {
			continue
		}
		s.Reporting++
		if check.IsUp {
			s.Up++
		}
	}
	if avg, ok := metrics.AverageResponseTime(d.LatestUptime, domain.Locations...); ok {
		s.AvgMs = &avg
	}
	if d.SSL != nil {
		days := d.SSL.DaysUntilExpiry
		s.SSLDays = &days
		s.SSLGrade = d.SSL.Grade
	}
	s.Status = status(s)
	return s
}

// status is "up", "down", "degraded" or "unknown" when no location has
// reported yet.
func status(s summary) string {
	switch {
	case s.Reporting == 0:
		return "unknown"
	case s.Up == 0:
		return "down"
	case s.Up < s.Reporting:
		return "degraded"
	default:
		return "up"
	}
}

func (s summary) avg() string {
	if s.AvgMs == nil {
		return "-"
	}
	return metrics.FormatMillis(*s.AvgMs)
}

func (s summary) ssl() string {
	if s.SSLDays == nil {
		return "-"
	}
	label := fmt.Sprintf("%s (%dd)", metrics.ExpiryLabel(*s.SSLDays), *s.SSLDays)
	if s.SSLGrade != "" {
		label = s.SSLGrade + " " + label
	}
	return label
}

// locationName renders "LONDON" as "London".
func locationName(loc string) string {
	if loc == "" {
		return loc
	}
	lower := strings.ToLower(loc)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
