package querycache

import "strings"

// Key joins parts into a query key, e.g. Key("server-live-stats", "42")
// is "server-live-stats:42".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
