package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newCmd(args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	AddFlag(cmd)
	cmd.SetArgs(args)
	return cmd
}

func TestFormat(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{nil, Table, false},
		{[]string{"-o", "json"}, JSON, false},
		{[]string{"--output", " JSON "}, JSON, false},
		{[]string{"-o", "yaml"}, "", true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := newCmd(tt.args...)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			got, err := Format(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Format error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewTable(&buf, "ID", "NAME")
	fmt.Fprintf(w, "%s\t%s\n", "1", "web-1")
	w.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"ID   NAME",
		"--   ----",
		"1    web-1",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if strings.TrimRight(lines[i], " ") != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := newCmd()
	cmd.SetOut(&buf)

	if err := PrintJSON(cmd, map[string]int{"total": 2}); err != nil {
		t.Fatalf("PrintJSON: %v", err)
	}
	if got := buf.String(); got != "{\n  \"total\": 2\n}\n" {
		t.Errorf("PrintJSON = %q", got)
	}
}

func TestSpin_RunsActionWithoutTerminal(t *testing.T) {
	cmd := newCmd()
	var errBuf bytes.Buffer
	cmd.SetErr(&errBuf)

	want := errors.New("boom")
	ran := false
	err := Spin(cmd, "Working...", func() error {
		ran = true
		return want
	})
	if !ran {
		t.Fatal("action did not run")
	}
	if !errors.Is(err, want) {
		t.Errorf("Spin error = %v, want %v", err, want)
	}
	if errBuf.Len() != 0 {
		t.Errorf("expected no spinner output, got %q", errBuf.String())
	}
}
