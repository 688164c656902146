package auditlog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Event is a finished operation to record.
type Event struct {
	Command string
	Args    []string
	Meta    Metadata
	Start   time.Time
	Err     error
}

// Recorder writes events to a repository. Failures are logged and
// swallowed; auditing never fails the command it describes.
type Recorder struct {
	open   func() (Repository, error)
	logger *slog.Logger
}

// NewRecorder returns a recorder that opens the repository per event, so
// short-lived commands do not hold the database open.
func NewRecorder(open func() (Repository, error), logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{open: open, logger: logger}
}

// DefaultRecorder records to the repository at the default path.
func DefaultRecorder(logger *slog.Logger) *Recorder {
	return NewRecorder(func() (Repository, error) { return Open() }, logger)
}

// Record saves ev. A nil recorder does nothing.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil || r.open == nil {
		return
	}

	repo, err := r.open()
	if err != nil {
		r.logger.Debug("audit log unavailable", "error", err)
		return
	}
	defer repo.Close()

	entry := &Entry{
		Timestamp:    ev.Start,
		Command:      ev.Command,
		Args:         strings.Join(SanitizeArgs(ev.Args), " "),
		Account:      ev.Meta.Account,
		ResourceType: ev.Meta.ResourceType,
		ResourceID:   ev.Meta.ResourceID,
		ResourceName: ev.Meta.ResourceName,
		Outcome:      outcome(ev.Err),
	}
	if !ev.Start.IsZero() {
		entry.DurationMs = time.Since(ev.Start).Milliseconds()
	}
	if ev.Err != nil {
		entry.Detail = ev.Err.Error()
	}

	// The command's own context may already be cancelled.
	if err := repo.Save(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warn("audit entry not saved", "command", ev.Command, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
