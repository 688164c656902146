package monitor

import "nathanbeddoewebdev/tsm/internal/domain"

// Query keys shared by the CLI response cache and the dashboard's polling
// cache. A mutation invalidates every key that starts with the affected
// prefix.
const (
	KeyServers        = "servers"
	KeyWebsites       = "websites"
	KeyWebsiteDetails = "website-details:all"
	KeyStatus         = "status"

	prefixServer  = "server"
	prefixWebsite = "website"
)

// ServerKey identifies a server's detail and 24h history.
func ServerKey(id domain.ID) string { return "server:" + id.String() }

// LiveStatsKey identifies a server's live stats.
func LiveStatsKey(id domain.ID) string { return "server-live-stats:" + id.String() }

// ProcessesKey identifies a server's process list.
func ProcessesKey(id domain.ID) string { return "server-processes:" + id.String() }

// ContainersKey identifies a server's container list.
func ContainersKey(id domain.ID) string { return "server-containers:" + id.String() }

// WebsiteKey identifies a website's detail.
func WebsiteKey(id domain.ID) string { return "website:" + id.String() }
