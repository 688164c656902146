package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/database"
)

func setupTestDB(t *testing.T, entries ...auditlog.Entry) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tsm.db")
	database.SetPath(path)
	t.Cleanup(database.ResetPath)

	repo, err := auditlog.OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	defer repo.Close()
	for i := range entries {
		if err := repo.Save(context.Background(), &entries[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
}

func execAudit(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestList_Table(t *testing.T) {
	now := time.Now().UTC()
	setupTestDB(t,
		auditlog.Entry{Timestamp: now.Add(-time.Hour), Command: "tsm server create", ResourceType: "server", ResourceID: "12", ResourceName: "web-1", Outcome: auditlog.OutcomeSuccess, DurationMs: 420},
		auditlog.Entry{Timestamp: now, Command: "tsm website delete", ResourceType: "website", ResourceID: "5", Outcome: auditlog.OutcomeError, Detail: "not found", DurationMs: 1500},
	)

	stdout, stderr := execAudit(t, "list")

	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	for _, want := range []string{"COMMAND", "tsm server create", "server:12 (web-1)", "420ms", "tsm website delete", "1.5s", "not found"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
	if strings.Index(stdout, "tsm website delete") > strings.Index(stdout, "tsm server create") {
		t.Errorf("expected newest entry first:\n%s", stdout)
	}
}

func TestList_FilterByOutcomeJSON(t *testing.T) {
	now := time.Now().UTC()
	setupTestDB(t,
		auditlog.Entry{Timestamp: now, Command: "tsm auth login", ResourceType: "session", Outcome: auditlog.OutcomeSuccess},
		auditlog.Entry{Timestamp: now, Command: "tsm auth login", ResourceType: "session", Outcome: auditlog.OutcomeError},
	)

	stdout, stderr := execAudit(t, "list", "--outcome", "error", "-o", "json")

	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	var entries []auditlog.Entry
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(entries) != 1 || entries[0].Outcome != auditlog.OutcomeError {
		t.Errorf("expected one error entry, got %+v", entries)
	}
}

func TestList_Empty(t *testing.T) {
	setupTestDB(t)

	stdout, _ := execAudit(t, "list")
	if !strings.Contains(stdout, "No audit entries found.") {
		t.Errorf("expected empty message, got: %s", stdout)
	}

	stdout, _ = execAudit(t, "list", "-o", "json")
	if strings.TrimSpace(stdout) != "[]" {
		t.Errorf("expected empty JSON array, got: %s", stdout)
	}
}

func TestList_InvalidFlags(t *testing.T) {
	setupTestDB(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"list", "--limit", "0"}, "limit must be greater than 0"},
		{[]string{"list", "--outcome", "maybe"}, "invalid outcome"},
		{[]string{"list", "--since", "soon"}, "invalid duration"},
		{[]string{"list", "-o", "yaml"}, "unsupported output format"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, stderr := execAudit(t, tt.args...)
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("expected %q in stderr, got: %s", tt.want, stderr)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	now := time.Now().UTC()
	setupTestDB(t,
		auditlog.Entry{Timestamp: now.Add(-48 * time.Hour), Command: "tsm server delete", Outcome: auditlog.OutcomeSuccess},
		auditlog.Entry{Timestamp: now, Command: "tsm server create", Outcome: auditlog.OutcomeSuccess},
	)

	stdout, stderr := execAudit(t, "prune", "--older-than", "1d")
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Removed 1 audit entry.") {
		t.Errorf("unexpected output: %s", stdout)
	}

	stdout, _ = execAudit(t, "list")
	if strings.Contains(stdout, "tsm server delete") || !strings.Contains(stdout, "tsm server create") {
		t.Errorf("expected only the recent entry to remain:\n%s", stdout)
	}
}

func TestPrune_RequiresDuration(t *testing.T) {
	setupTestDB(t)

	_, stderr := execAudit(t, "prune")
	if !strings.Contains(stderr, "--older-than is required") {
		t.Errorf("expected required flag error, got: %s", stderr)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"0d", 0, false},
		{"72h", 72 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"-1d", 0, true},
		{"-5m", 0, true},
		{"xd", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseDuration(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1500, "1.5s"},
		{125_000, "2m"},
		{7_200_000, "2h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
