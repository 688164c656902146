// Package output holds helpers shared by tsm commands for printing results
// and showing progress.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Formats accepted by the --output flag.
const (
	Table = "table"
	JSON  = "json"
)

// AddFlag registers the -o/--output flag.
func AddFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", Table, "Output format: table or json")
}

// Format returns the validated --output value.
func Format(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", Table:
		return Table, nil
	case JSON:
		return JSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// PrintJSON encodes v as indented JSON to the command's stdout.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewTable returns a tabwriter that prints the header followed by a row of
// dashes under each column.
func NewTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	return tw
}

// Interactive reports whether stdin and stderr are both terminals.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Spin runs action, showing a spinner when the command's stderr is a
// terminal.
func Spin(cmd *cobra.Command, title string, action func() error) error {
	if !isTerminal(cmd.ErrOrStderr()) {
		return action()
	}

	var actionErr error
	spinErr := spinner.New().
		Title(title).
		Accessible(Accessible()).
		Output(cmd.ErrOrStderr()).
		Action(func() {
			actionErr = action()
		}).
		Run()
	if spinErr != nil {
		return spinErr
	}
	return actionErr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Accessible reports whether forms should run in accessible mode.
func Accessible() bool {
	return os.Getenv("ACCESSIBLE") != ""
}

// Confirm asks a yes/no question. Aborting the form counts as no.
func Confirm(title, description, affirmative string) (bool, error) {
	confirmed := false
	field := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&confirmed)

	err := huh.NewForm(huh.NewGroup(field)).WithAccessible(Accessible()).Run()
	if err != nil && !errors.Is(err, huh.ErrUserAborted) {
		return false, err
	}
	return confirmed, nil
}
