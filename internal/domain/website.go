package domain

// Website is a URL monitored for uptime and certificate health.
type Website struct {
	ID        ID        `json:"id"`
	URL       string    `json:"url"`
	CreatedAt Timestamp `json:"created_at"`
}

// WebsiteDetail is the payload of GET /website?id=.
type WebsiteDetail struct {
	Info         Website                `json:"website_info"`
	SSL          *SslCertificate        `json:"ssl_info"`
	LatestUptime map[string]UptimeCheck `json:"latest_uptime"`
	Graph        GraphData              `json:"graph_data"`
}

// Check locations reported by the API.
const (
	LocationLondon = "LONDON"
	LocationCanada = "CANADA"
	LocationIndia  = "INDIA"
)

// Locations lists the check locations in display order.
var Locations = []string{LocationLondon, LocationCanada, LocationIndia}

// UptimeCheck is the most recent probe from a single location.
type UptimeCheck struct {
	StatusCode     int       `json:"status_code"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	IsUp           bool      `json:"is_up"`
	CheckedAt      Timestamp `json:"checked_at"`
}

// GraphData holds aggregated history for the analytics view.
type GraphData struct {
	UptimePercentage24h Number                      `json:"uptime_percentage_24h"`
	ResponseTimes       map[string][]ResponseSample `json:"response_times,omitempty"`
}

// ResponseSample is one historical probe result.
type ResponseSample struct {
	CheckedAt      Timestamp `json:"checked_at"`
	ResponseTimeMs float64   `json:"response_time_ms"`
}

// SslCertificate describes the certificate served by a website.
type SslCertificate struct {
	IssuedBy        string    `json:"issued_by"`
	ExpiryDate      Timestamp `json:"expiry_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	Protocol        string    `json:"protocol_from_cert"`
	Grade           string    `json:"grade,omitempty"`
}

// AddWebsitesOpts is the request body for POST /website.
type AddWebsitesOpts struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,required,httpurl"`
}

// StatusSummary is the payload of GET /status.
type StatusSummary struct {
	Online     int    `json:"online"`
	Total      int    `json:"total"`
	StatusText string `json:"status_text"`
}
