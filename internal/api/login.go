package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"nathanbeddoewebdev/tsm/internal/domain"
)

// dashboardOrigin is the Origin the login endpoint expects from first-party
// clients.
const dashboardOrigin = "https://dashboard.theservermonitor.com"

// LoginClient exchanges credentials for a session. It needs no token and
// so can be built before the session service that consumes it.
type LoginClient struct {
	t *transport
}

// NewLoginClient returns a login client.
func NewLoginClient(opts ...Option) *LoginClient {
	return &LoginClient{t: newTransport(opts)}
}

type loginResult struct {
	Result string    `json:"result"`
	UserID domain.ID `json:"userid"`
	Token  string    `json:"token"`
	Client struct {
		Email     string `json:"email"`
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
	} `json:"client"`
}

// Login posts creds to /whmcs. A rejected login is a *domain.AuthError;
// a transport or server failure is a *domain.FetchError.
func (c *LoginClient) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	const op = "log in"

	status, data, err := c.t.send(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/whmcs",
		body:   creds,
		header: http.Header{"Origin": []string{dashboardOrigin}},
	})
	if err != nil {
		return nil, err
	}

	env, decodeErr := decodeEnvelope(data)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		msg := "invalid credentials"
		if decodeErr == nil && env.message() != "" {
			msg = env.message()
		}
		return nil, &domain.AuthError{Message: msg, Err: domain.ErrUnauthorized}
	}
	if status < 200 || status > 299 {
		fe := &domain.FetchError{Op: op, StatusCode: status, Err: statusSentinel(status)}
		if decodeErr == nil {
			fe.Message = env.message()
		}
		return nil, fe
	}
	if decodeErr != nil {
		return nil, &domain.FetchError{Op: op, StatusCode: status, Err: decodeErr}
	}

	var res loginResult
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &res); err != nil {
			return nil, &domain.FetchError{Op: op, StatusCode: status, Err: domain.ErrMalformedPayload}
		}
	}

	result := strings.ToLower(strings.TrimSpace(res.Result))
	if !env.Success || (result != "" && result != "success") {
		msg := env.message()
		if msg == "" {
			msg = "Login failed"
		}
		return nil, &domain.AuthError{Message: msg}
	}

	token := res.Token
	if token == "" {
		token = env.Token
	}
	if strings.TrimSpace(token) == "" {
		return nil, &domain.AuthError{Message: "server did not return a session token"}
	}

	email := res.Client.Email
	if email == "" {
		email = creds.Email
	}
	return &domain.Session{
		User: domain.User{
			ID:        res.UserID,
			Email:     email,
			FirstName: res.Client.FirstName,
			LastName:  res.Client.LastName,
		},
		Token: token,
	}, nil
}
