// Package client implements the client-side auth kit consumed by the
// satlas mobile and dashboard front ends: credential persistence, the auth
// service talking to the backend, reactive session state, and the route
// guard deciding which screens are reachable.
package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"satlas-api/core"
)

// ErrNoCredentials is returned by Load when nothing is persisted.
var ErrNoCredentials = errors.New("no stored credentials")

// CredentialStore persists the session pair (token + user profile).
// Implementations must treat the pair as a unit: a partially written
// session must never be observable.
type CredentialStore interface {
	Save(token string, user core.User) error
	Load() (string, core.User, error)
	Clear() error
}

// storedSession is the on-disk shape: one JSON document holding both
// fixed keys, mirroring the token/user entries the apps keep in device
// storage.
type storedSession struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// FileCredentialStore keeps the session in a single JSON file. Writes go
// through a temp file and rename so the token/profile pair is replaced
// atomically.
type FileCredentialStore struct {
	path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// DefaultCredentialPath returns the per-user location for stored credentials.
func DefaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".satlas-credentials.json"
	}
	return filepath.Join(home, ".satlas", "credentials.json")
}

func (s *FileCredentialStore) Save(token string, user core.User) error {
	data, err := json.Marshal(storedSession{Token: token, User: user})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileCredentialStore) Load() (string, core.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", core.User{}, ErrNoCredentials
		}
		return "", core.User{}, err
	}
	var sess storedSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return "", core.User{}, err
	}
	if sess.Token == "" {
		return "", core.User{}, ErrNoCredentials
	}
	return sess.Token, sess.User, nil
}

// Clear removes the stored session; clearing an empty store is not an error.
func (s *FileCredentialStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
