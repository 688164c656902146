package tui

import (
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"
)

// websiteSummary condenses a website detail into one table row.
type websiteSummary struct {
	ID  domain.ID
	URL string

	// Up and Reporting count monitoring locations with a latest check.
	Up        int
	Reporting int

	AvgMs  float64
	HasAvg bool

	Uptime24h float64

	SSL *domain.SslCertificate
}

func summarizeWebsite(d domain.WebsiteDetail) websiteSummary {
	s := websiteSummary{
		ID:        d.Info.ID,
		URL:       d.Info.URL,
		Uptime24h: float64(d.Graph.UptimePercentage24h),
		SSL:       d.SSL,
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
	s.AvgMs, s.HasAvg = metrics.AverageResponseTime(d.LatestUptime, domain.Locations...)
	return s
}

// Level rates the site: down everywhere is critical, partly down is
// degraded, otherwise the average latency decides.
func (s websiteSummary) Level() metrics.Level {
	switch {
	case s.Reporting == 0:
		return metrics.LevelWarning
	case s.Up == 0:
		return metrics.LevelCritical
	case s.Up < s.Reporting:
		return metrics.LevelDegraded
	case s.HasAvg:
		return metrics.ClassifyLatency(s.AvgMs)
	default:
		return metrics.LevelOK
	}
}

// fleetSummary aggregates the websites shown on the overview.
type fleetSummary struct {
	Total       int
	AllUp       int
	Down        int
	SSLExpiring int
	SSLExpired  int
	AvgMs       float64
	HasAvg      bool
}

func summarizeFleet(details []domain.WebsiteDetail) fleetSummary {
	var f fleetSummary
	var sum float64
	var n int
	for _, d := range details {
		s := summarizeWebsite(d)
		f.Total++
		switch {
		case s.Reporting > 0 && s.Up == s.Reporting:
			f.AllUp++
		case s.Reporting > 0 && s.Up == 0:
			f.Down++
		}
		if s.SSL != nil {
			switch metrics.ClassifyExpiry(s.SSL.DaysUntilExpiry) {
			case metrics.LevelCritical:
				f.SSLExpired++
			case metrics.LevelWarning:
				f.SSLExpiring++
			}
		}
		if s.HasAvg {
			sum += s.AvgMs
			n++
		}
	}
	if n > 0 {
		f.AvgMs = sum / float64(n)
		f.HasAvg = true
	}
	return f
}
