package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"satlas-api/core"
)

// fakeBackend mimics the API's auth contract closely enough for client
// tests: JSON bodies, the {"message": ...} error shape, and bearer-gated
// protected routes.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]fakeAccount // keyed by email
	tokens   map[string]string      // token -> email
	nextID   int
	server   *httptest.Server
	gate     chan struct{} // when set, auth handlers block until it closes
	banners  []core.Banner
	blogDocs []core.Blog
}

type fakeAccount struct {
	user     core.User
	password string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		users:  make(map[string]fakeAccount),
		tokens: make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signup", fb.handleSignup)
	mux.HandleFunc("POST /api/auth/signin", fb.handleSignin)
	mux.HandleFunc("GET /api/users/me", fb.handleMe)
	mux.HandleFunc("GET /api/banner/getbanner", fb.handleBanners)
	mux.HandleFunc("GET /api/blog/getblogs", fb.handleBlogs)
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) url() string { return fb.server.URL }

func (fb *fakeBackend) waitGate() {
	fb.mu.Lock()
	gate := fb.gate
	fb.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (fb *fakeBackend) setGate(gate chan struct{}) {
	fb.mu.Lock()
	fb.gate = gate
	fb.mu.Unlock()
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func (fb *fakeBackend) handleSignup(w http.ResponseWriter, r *http.Request) {
	fb.waitGate()
	var req SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	email := strings.ToLower(req.Email)
	if _, exists := fb.users[email]; exists {
		writeMessage(w, http.StatusBadRequest, "User already exist")
		return
	}
	fb.nextID++
	user := core.User{
		ID:    fmt.Sprintf("u-%d", fb.nextID),
		Name:  req.Name,
		Email: email,
		Role:  "user",
	}
	fb.users[email] = fakeAccount{user: user, password: req.Password}
	token := "tok-" + email
	fb.tokens[token] = email

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "New user Created",
		"user":    user,
		"token":   token,
	})
}

func (fb *fakeBackend) handleSignin(w http.ResponseWriter, r *http.Request) {
	fb.waitGate()
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	email := strings.ToLower(req.Email)
	acct, exists := fb.users[email]
	if !exists {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if acct.password != req.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	token := "tok-" + email
	fb.tokens[token] = email

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Logged In Successful",
		"user":    acct.user,
		"token":   token,
	})
}

func (fb *fakeBackend) authedEmail(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	email, ok := fb.tokens[header[len(prefix):]]
	return email, ok
}

func (fb *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := fb.authedEmail(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid Token")
		return
	}
	fb.mu.Lock()
	acct := fb.users[email]
	fb.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(acct.user)
}

func (fb *fakeBackend) handleBanners(w http.ResponseWriter, r *http.Request) {
	if _, ok := fb.authedEmail(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "No Token Detected")
		return
	}
	fb.mu.Lock()
	items := fb.banners
	fb.mu.Unlock()
	if items == nil {
		items = []core.Banner{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (fb *fakeBackend) handleBlogs(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	docs := fb.blogDocs
	fb.mu.Unlock()
	if docs == nil {
		docs = []core.Blog{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(docs)
}

func newTestService(t *testing.T) (*Service, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend(t)
	store := testStore(t)
	return NewService(fb.url(), store), fb
}
