package metrics

import "strings"

// Level is a health classification used to colour values.
type Level int

const (
	LevelOK Level = iota
	LevelWarning
	LevelDegraded
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelWarning:
		return "warning"
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Usage thresholds, in percent.
const (
	UsageWarning  = 60.0
	UsageCritical = 80.0
)

// ClassifyUsage rates CPU, memory or disk usage.
func ClassifyUsage(percent float64) Level {
	switch {
	case percent > UsageCritical:
		return LevelCritical
	case percent > UsageWarning:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Latency thresholds, in milliseconds.
const (
	LatencyGood = 100.0
	LatencyFair = 300.0
)

// ClassifyLatency rates a round-trip or response time.
func ClassifyLatency(ms float64) Level {
	switch {
	case ms < LatencyGood:
		return LevelOK
	case ms < LatencyFair:
		return LevelWarning
	default:
		return LevelCritical
	}
}

// ExpiryWarningDays is how close to expiry a certificate is flagged.
const ExpiryWarningDays = 7

// ClassifyExpiry rates a certificate by days until expiry.
func ClassifyExpiry(daysLeft int) Level {
	switch {
	case daysLeft < 0:
		return LevelCritical
	case daysLeft <= ExpiryWarningDays:
		return LevelWarning
	default:
		return LevelOK
	}
}

// ExpiryLabel describes a certificate by days until expiry.
func ExpiryLabel(daysLeft int) string {
	switch ClassifyExpiry(daysLeft) {
	case LevelCritical:
		return "expired"
	case LevelWarning:
		return "expiring soon"
	default:
		return "valid"
	}
}

// GradeLevel rates an SSL grade: A+ and A are ok, B is a warning, C and D
// are degraded, anything else (F, T, unknown) is critical.
func GradeLevel(grade string) Level {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "A+", "A", "A-":
		return LevelOK
	case "B":
		return LevelWarning
	case "C", "D":
		return LevelDegraded
	default:
		return LevelCritical
	}
}
