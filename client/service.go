package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"satlas-api/core"
)

// SignUpInput is the new-user payload sent to the backend.
type SignUpInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CurrentGrade string `json:"currentGrade,omitempty"`
	Country      string `json:"country,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
}

// Service translates sign-in/sign-up/sign-out intents into backend calls
// and persists or clears the resulting session through the store.
type Service struct {
	baseURL string
	hc      *http.Client
	store   CredentialStore
}

// NewService builds a Service against the given API base URL (e.g.
// "http://localhost:8000").
func NewService(baseURL string, store CredentialStore) *Service {
	return &Service{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
}

// authResponse is the success shape of both auth endpoints.
type authResponse struct {
	Message string    `json:"message"`
	User    core.User `json:"user"`
	Token   string    `json:"token"`
}

// SignIn sends credentials to the backend. On success the token and
// profile are persisted as a pair and the profile returned. No retry.
func (s *Service) SignIn(ctx context.Context, email, password string) (core.User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := s.postJSON(ctx, "/api/auth/signin", body, &resp); err != nil {
		return core.User{}, err
	}
	if err := s.store.Save(resp.Token, resp.User); err != nil {
		return core.User{}, fmt.Errorf("failed to persist session: %w", err)
	}
	return resp.User, nil
}

// SignUp sends a new-user payload; on success it persists and returns the
// same shape as SignIn. A duplicate email surfaces as a validation error.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (core.User, error) {
	var resp authResponse
	if err := s.postJSON(ctx, "/api/auth/signup", in, &resp); err != nil {
		return core.User{}, err
	}
	if err := s.store.Save(resp.Token, resp.User); err != nil {
		return core.User{}, fmt.Errorf("failed to persist session: %w", err)
	}
	return resp.User, nil
}

// SignOut clears the persisted token and profile. It is client-local and
// best-effort: there is no server-side revocation, and clearing an already
// empty store succeeds.
func (s *Service) SignOut() {
	_ = s.store.Clear()
}

// IsAuthenticated reports whether a non-empty token is persisted. Pure
// read, no network call; a revoked or expired token still reports true
// until a protected call fails.
func (s *Service) IsAuthenticated() bool {
	token, _, err := s.store.Load()
	return err == nil && token != ""
}

// CurrentUser returns the persisted profile, if any.
func (s *Service) CurrentUser() (core.User, bool) {
	_, user, err := s.store.Load()
	if err != nil {
		return core.User{}, false
	}
	return user, true
}

// Token returns the persisted bearer token, or empty.
func (s *Service) Token() string {
	token, _, err := s.store.Load()
	if err != nil {
		return ""
	}
	return token
}

// Banners fetches the banner list, attaching the stored bearer token.
func (s *Service) Banners(ctx context.Context) ([]core.Banner, error) {
	var items []core.Banner
	if err := s.getJSON(ctx, "/api/banner/getbanner", true, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Blog fetches the blog document; nil when none has been published.
func (s *Service) Blog(ctx context.Context) (*core.Blog, error) {
	var items []core.Blog
	if err := s.getJSON(ctx, "/api/blog/getblogs", false, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Me fetches the caller's profile from the backend using the stored token.
func (s *Service) Me(ctx context.Context) (core.User, error) {
	var user core.User
	if err := s.getJSON(ctx, "/api/users/me", true, &user); err != nil {
		return core.User{}, err
	}
	return user, nil
}

func (s *Service) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Service) getJSON(ctx context.Context, path string, authed bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	if authed {
		if token := s.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return s.do(req, out)
}

func (s *Service) do(req *http.Request, out any) error {
	resp, err := s.hc.Do(req)
	if err != nil {
		return &AuthError{Kind: KindServer, Message: "Network error. Please try again."}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Kind: KindServer, Status: resp.StatusCode, Message: "Network error. Please try again."}
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &errBody)
		return &AuthError{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: errBody.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &AuthError{Kind: KindServer, Status: resp.StatusCode, Message: "Unexpected server response."}
	}
	return nil
}
