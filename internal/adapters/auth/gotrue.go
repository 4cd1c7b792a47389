package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
)

var _ ports.Authenticator = (*GoTrueClient)(nil)

// GoTrueClient talks to a Supabase-compatible identity provider
type GoTrueClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	now        func() time.Time
}

func NewGoTrueClient(baseURL, anonKey string) *GoTrueClient {
	return &GoTrueClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`

	// signup without auto-confirm returns the bare user
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r tokenResponse) session(now time.Time) *domain.Session {
	if r.AccessToken == "" {
		return nil
	}
	s := &domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		UserID:       r.User.ID,
		Email:        r.User.Email,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return s
}

// SignIn exchanges an email and password for a session
func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "sign in", "/auth/v1/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s := resp.session(c.now())
	if s == nil {
		return nil, domain.NewOpError(domain.ErrAuth, "sign in", http.StatusOK, "No session returned", nil)
	}
	return s, nil
}

// SignUp registers an account. A nil session without error means the
// provider wants the email address confirmed first.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "sign up", "/auth/v1/signup", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(c.now()), nil
}

// SignOut revokes the session on the provider
func (c *GoTrueClient) SignOut(ctx context.Context, session *domain.Session) error {
	if session == nil || session.AccessToken == "" {
		return nil
	}
	return c.post(ctx, "sign out", "/auth/v1/logout", session.AccessToken, nil, nil)
}

// Refresh trades a refresh token for a new session
func (c *GoTrueClient) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "refresh session", "/auth/v1/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s := resp.session(c.now())
	if s == nil {
		return nil, domain.NewOpError(domain.ErrAuth, "refresh session", http.StatusOK, "No session returned", nil)
	}
	return s, nil
}

func (c *GoTrueClient) post(ctx context.Context, op, path, bearer string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return domain.NewOpError(domain.ErrAuth, op, 0, "", fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return domain.NewOpError(domain.ErrAuth, op, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewOpError(domain.ErrAuth, op, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.NewOpError(domain.ErrAuth, op, resp.StatusCode, providerMessage(resp.Body), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewOpError(domain.ErrFormat, op, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// providerMessage extracts the human readable part of a GoTrue error body
func providerMessage(r io.Reader) string {
	var body struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	for _, s := range []string{body.ErrorDescription, body.Msg, body.Message, body.Error} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
