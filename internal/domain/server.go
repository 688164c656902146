package domain

// Server is a monitored host registered with the API.
type Server struct {
	ID               ID        `json:"id"`
	Name             string    `json:"server_name"`
	UniqueIdentifier string    `json:"unique_identifier"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        Timestamp `json:"created_at"`
}

// ServerDetail is the payload of GET /server?id=.
type ServerDetail struct {
	Info    Server  `json:"server_info"`
	History History `json:"history_24h"`
}

// History holds the raw 24h telemetry for a server. Network and disk
// samples are grouped by interface and device name.
type History struct {
	CPU     []CPUSample                `json:"cpu"`
	Memory  []MemorySample             `json:"memory"`
	Network map[string][]NetworkSample `json:"network"`
	DiskIO  map[string][]DiskIOSample  `json:"disk_io"`
}

// CPUSample holds CPU utilisation percentages.
type CPUSample struct {
	ReportTime Timestamp `json:"report_time"`
	Total      float64   `json:"total"`
	User       float64   `json:"user"`
	System     float64   `json:"system"`
	IOWait     float64   `json:"iowait"`
}

// MemorySample holds memory usage. Used, Total and Available are bytes.
type MemorySample struct {
	ReportTime Timestamp `json:"report_time"`
	Percent    float64   `json:"percent"`
	Used       float64   `json:"used"`
	Total      float64   `json:"total"`
	Available  float64   `json:"available"`
}

// NetworkSample holds cumulative byte counters for one interface.
type NetworkSample struct {
	ReportTime Timestamp `json:"report_time"`
	BytesSent  float64   `json:"bytes_sent"`
	BytesRecv  float64   `json:"bytes_recv"`
}

// DiskIOSample holds cumulative byte counters for one block device.
type DiskIOSample struct {
	ReportTime Timestamp `json:"report_time"`
	ReadBytes  float64   `json:"read_bytes"`
	WriteBytes float64   `json:"write_bytes"`
}

// CreateServerOpts is the request body for POST /server.
type CreateServerOpts struct {
	Name        string `json:"server_name" validate:"required,max=255,servername"`
	Description string `json:"description,omitempty" validate:"max=255"`
}

