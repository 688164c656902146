package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T12:30:00Z"`, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"local space layout", `"2024-05-01 12:30:00"`, time.Date(2024, 5, 1, 12, 30, 0, 0, time.Local)},
		{"unix seconds", `1714566600`, time.Unix(1714566600, 0)},
		{"unix millis", `1714566600000`, time.UnixMilli(1714566600000)},
		{"null", `null`, time.Time{}},
		{"empty string", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, ts.Time, tt.want)
			}
		})
	}
}

func TestTimestamp_UnmarshalRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}

func TestID_NumberAndString(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 42, "b": "srv-7"}`), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if v.A != "42" || v.B != "srv-7" {
		t.Fatalf("got %q and %q", v.A, v.B)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got, want := string(out), `{"a":42,"b":"srv-7"}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestText_Variants(t *testing.T) {
	var v []Text
	if err := json.Unmarshal([]byte(`["nginx", ["nginx:", "worker"], 12, null]`), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	want := []Text{"nginx", "nginx: worker", "12", ""}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Text mismatch (-want +got):\n%s", diff)
	}
}

func TestNumber_AcceptsStrings(t *testing.T) {
	var v []Number
	if err := json.Unmarshal([]byte(`[99.5, "98.25", "97%", ""]`), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	want := []Number{99.5, 98.25, 97, 0}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Number mismatch (-want +got):\n%s", diff)
	}
}

func TestUptime_String(t *testing.T) {
	var secs, text Uptime
	if err := json.Unmarshal([]byte(`93780`), &secs); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"12 days, 3:04:05"`), &text); err != nil {
		t.Fatal(err)
	}
	if got := secs.String(); got != "1d 2h 3m" {
		t.Errorf("seconds uptime = %q, want %q", got, "1d 2h 3m")
	}
	if got := text.String(); got != "12 days, 3:04:05" {
		t.Errorf("text uptime = %q", got)
	}
}

func TestFetchError_UnwrapsSentinel(t *testing.T) {
	err := error(&FetchError{Op: "list servers", StatusCode: 401, Message: "token expired", Err: ErrUnauthorized})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected errors.Is(err, ErrUnauthorized)")
	}
	want := "failed to list servers (HTTP 401): token expired: unauthorized"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAuthError_Message(t *testing.T) {
	err := &AuthError{Message: "invalid email or password"}
	if got := err.Error(); got != "login failed: invalid email or password" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil", nil, false},
		{"token only", &Session{Token: "abc"}, false},
		{"user only", &Session{User: User{ID: "1"}}, false},
		{"blank token", &Session{User: User{ID: "1"}, Token: "  "}, false},
		{"complete", &Session{User: User{ID: "1", Email: "a@b.c"}, Token: "abc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
