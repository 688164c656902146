package metrics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
)

// ProcessSort orders a process table.
type ProcessSort int

const (
	SortByCPU ProcessSort = iota
	SortByMemory
)

func (s ProcessSort) String() string {
	if s == SortByMemory {
		return "memory"
	}
	return "cpu"
}

// ParseProcessSort accepts "cpu" or "memory" ("mem" for short).
func ParseProcessSort(s string) (ProcessSort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return SortByCPU, nil
	case "mem", "memory":
		return SortByMemory, nil
	default:
		return SortByCPU, fmt.Errorf("invalid sort %q (use cpu or memory)", s)
	}
}

// FilterProcesses keeps processes whose name, user or command line contains
// query (case-insensitive) and sorts them by the chosen column, highest
// first, breaking ties by PID. procs is not modified.
func FilterProcesses(procs []domain.Process, query string, by ProcessSort) []domain.Process {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Process, 0, len(procs))
	for _, p := range procs {
		if query == "" ||
			strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Username), query) ||
			strings.Contains(strings.ToLower(p.Cmdline.String()), query) {
			out = append(out, p)
		}
	}

	key := func(p domain.Process) float64 { return p.CPUPercent }
	if by == SortByMemory {
		key = func(p domain.Process) float64 { return p.MemoryPercent }
	}
	slices.SortStableFunc(out, func(a, b domain.Process) int {
		if c := cmp.Compare(key(b), key(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
	return out
}
