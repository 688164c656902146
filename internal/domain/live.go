package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LiveStats is the payload of GET /server/{id}/live-stats.
type LiveStats struct {
	Uptime       Uptime             `json:"uptime"`
	FileSystems  []FileSystem       `json:"fs_stats"`
	Networks     []NetworkInterface `json:"network_stats"`
	ProcTotal    int                `json:"proc_total"`
	ProcRunning  int                `json:"proc_running"`
	ProcSleeping int                `json:"proc_sleeping"`
	ProcThreads  int                `json:"proc_threads"`
	LastUpdated  Timestamp          `json:"last_updated"`
}

// FileSystem describes one mounted filesystem. Sizes are bytes.
type FileSystem struct {
	DeviceName string  `json:"device_name"`
	FSType     string  `json:"fs_type"`
	MountPoint string  `json:"mnt_point"`
	Size       float64 `json:"size"`
	Used       float64 `json:"used"`
	Free       float64 `json:"free"`
	Percent    float64 `json:"percent"`
}

// NetworkInterface holds counters and rates for one interface.
type NetworkInterface struct {
	Name            string  `json:"interface_name"`
	Alias           string  `json:"alias,omitempty"`
	Speed           float64 `json:"speed"`
	BytesSent       float64 `json:"bytes_sent"`
	BytesRecv       float64 `json:"bytes_recv"`
	BytesAll        float64 `json:"bytes_all"`
	BytesSentRate   float64 `json:"bytes_sent_rate_per_sec"`
	BytesRecvRate   float64 `json:"bytes_recv_rate_per_sec"`
	BytesAllRate    float64 `json:"bytes_all_rate_per_sec"`
	TimeSinceUpdate float64 `json:"time_since_update"`
}

// ProcessList is the payload of GET /server/{id}/processes.
type ProcessList struct {
	Processes    []Process `json:"process_list"`
	ProcTotal    int       `json:"proc_total"`
	ProcRunning  int       `json:"proc_running"`
	ProcSleeping int       `json:"proc_sleeping"`
	ProcThreads  int       `json:"proc_threads"`
}

// Process is a single entry of a server's process table.
type Process struct {
	PID           int     `json:"pid"`
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Status        string  `json:"status"`
	Cmdline       Text    `json:"cmdline"`
}

// ContainerList is the payload of GET /server/{id}/containers.
type ContainerList struct {
	Containers  []Container `json:"container_list"`
	LastUpdated Timestamp   `json:"last_updated"`
}

// Container is a single container running on a server.
type Container struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Image       Text    `json:"image"`
	Status      string  `json:"status"`
	Uptime      Text    `json:"uptime"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryUsage float64 `json:"memory_usage"`
	MemoryLimit float64 `json:"memory_limit"`
}

// Uptime is a host uptime. The API reports it either preformatted
// ("12 days, 3:04:05") or as a number of seconds.
type Uptime struct {
	Text    string
	Seconds float64
}

func (u *Uptime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*u = Uptime{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = Uptime{Text: s}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*u = Uptime{Seconds: f}
		}
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid uptime %s", b)
	}
	*u = Uptime{Seconds: f}
	return nil
}

func (u Uptime) MarshalJSON() ([]byte, error) {
	if u.Text != "" {
		return json.Marshal(u.Text)
	}
	return json.Marshal(u.Seconds)
}

// String renders the uptime as "3d 4h 5m" when it was reported in seconds.
func (u Uptime) String() string {
	if u.Text != "" {
		return u.Text
	}
	if u.Seconds <= 0 {
		return "N/A"
	}
	d := time.Duration(u.Seconds * float64(time.Second))
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
