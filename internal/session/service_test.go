package session

import (
	"context"
	"errors"
	"testing"

	"nathanbeddoewebdev/tsm/internal/domain"

	"github.com/google/go-cmp/cmp"
)

type fakeAuth struct {
	calls int
	sess  *domain.Session
	err   error
}

func (f *fakeAuth) Login(_ context.Context, _ domain.Credentials) (*domain.Session, error) {
	f.calls++
	return f.sess, f.err
}

func validSession() *domain.Session {
	return &domain.Session{
		User:  domain.User{ID: "42", Email: "ops@example.com", FirstName: "Ada", LastName: "Lovelace"},
		Token: "tok-123",
	}
}

var creds = domain.Credentials{Email: "ops@example.com", Password: "secret"}

func TestLogin_PersistsSession(t *testing.T) {
	store := NewMemoryStore()
	auth := &fakeAuth{sess: validSession()}
	svc := NewService(store, auth)

	got, err := svc.Login(context.Background(), creds)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if diff := cmp.Diff(validSession(), got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	token, err := store.Get(KeyToken)
	if err != nil || token != "tok-123" {
		t.Errorf("stored token = %q, %v", token, err)
	}
	if _, err := store.Get(KeyUser); err != nil {
		t.Errorf("stored user: %v", err)
	}

	if tok, ok := svc.Token(); !ok || tok != "tok-123" {
		t.Errorf("Token() = %q, %v", tok, ok)
	}

	// A fresh service over the same store restores the same identity.
	restored := NewService(store, nil).Restore()
	if diff := cmp.Diff(validSession(), restored); diff != "" {
		t.Errorf("restored mismatch (-want +got):\n%s", diff)
	}
}

func TestLogin_InvalidCredentialsNeverReachServer(t *testing.T) {
	auth := &fakeAuth{sess: validSession()}
	svc := NewService(NewMemoryStore(), auth)

	_, err := svc.Login(context.Background(), domain.Credentials{Email: "nope", Password: "x"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if auth.calls != 0 {
		t.Errorf("authenticator called %d times, want 0", auth.calls)
	}
}

func TestLogin_RejectedIsAuthError(t *testing.T) {
	store := NewMemoryStore()
	auth := &fakeAuth{err: &domain.AuthError{Message: "Invalid credentials"}}
	svc := NewService(store, auth)

	_, err := svc.Login(context.Background(), creds)
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %T", err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Errorf("Message = %q", authErr.Message)
	}
	if _, ok := svc.Current(); ok {
		t.Error("expected no current session")
	}
	if _, err := store.Get(KeyToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected no stored token, got %v", err)
	}
}

func TestLogin_TransportFailureIsAuthError(t *testing.T) {
	transport := errors.New("connection refused")
	svc := NewService(NewMemoryStore(), &fakeAuth{err: transport})

	_, err := svc.Login(context.Background(), creds)
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %T", err)
	}
	if !errors.Is(err, transport) {
		t.Error("expected the transport error to be wrapped")
	}
}

func TestLogin_IncompleteSessionRejected(t *testing.T) {
	svc := NewService(NewMemoryStore(), &fakeAuth{sess: &domain.Session{User: domain.User{ID: "1"}}})

	_, err := svc.Login(context.Background(), creds)
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   bool
	}{
		{"empty", nil, false},
		{"token only", map[string]string{KeyToken: "tok"}, false},
		{"user only", map[string]string{KeyUser: `{"id":"1","email":"a@b.c"}`}, false},
		{"corrupt user", map[string]string{KeyToken: "tok", KeyUser: "{not json"}, false},
		{"user without identity", map[string]string{KeyToken: "tok", KeyUser: `{}`}, false},
		{"blank token", map[string]string{KeyToken: "  ", KeyUser: `{"id":"1"}`}, false},
		{"complete", map[string]string{KeyToken: "tok", KeyUser: `{"id":"1","email":"a@b.c"}`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}
			svc := NewService(store, nil)

			got := svc.Restore()
			if (got != nil) != tt.want {
				t.Fatalf("Restore() = %+v, want present=%v", got, tt.want)
			}
			if _, ok := svc.Current(); ok != tt.want {
				t.Errorf("Current() present = %v, want %v", ok, tt.want)
			}
			if _, ok := svc.Token(); ok != tt.want {
				t.Errorf("Token() present = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &fakeAuth{sess: validSession()})
	if _, err := svc.Login(context.Background(), creds); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := svc.Current(); ok {
		t.Error("expected no session after logout")
	}
	for _, key := range []string{KeyToken, KeyUser} {
		if _, err := store.Get(key); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s still stored: %v", key, err)
		}
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	if err := svc.Logout(); err != nil {
		t.Errorf("Logout with nothing stored: %v", err)
	}
}

func TestLogout_PartialState(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(KeyToken, "tok")
	svc := NewService(store, nil)

	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := store.Get(KeyToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("token still stored: %v", err)
	}
}
