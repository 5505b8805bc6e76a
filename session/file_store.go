package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// credentialsFile is the on-disk layout. Keys match the names the web
// client uses in its own key/value storage.
type credentialsFile struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// FileStore persists the token pair in a JSON file so a session survives
// process restarts. Reads always go to disk, so changes written by another
// process become visible on the next read; Reload additionally publishes
// EventSessionChanged when it observes such an external change, which is
// how dependents learn about a login or logout performed elsewhere.
//
// A missing or unreadable file behaves as an empty store.
type FileStore struct {
	mu    sync.Mutex
	path  string
	last  credentialsFile
	epoch uint64
	bus   *Bus
	log   zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// DefaultCredentialsPath returns the conventional per-user location of the
// credentials file.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mindxandria", "credentials.json"), nil
}

// NewFileStore returns a store backed by the file at path. The file is
// created on the first SetTokens call.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: credentials path required")
	}
	s := &FileStore{path: path, bus: NewBus(), log: zerolog.Nop()}
	s.last = s.read()
	return s, nil
}

// SetLogger routes write-failure diagnostics to logger. The default drops them.
func (s *FileStore) SetLogger(logger *zerolog.Logger) {
	if logger != nil {
		s.log = *logger
	}
}

func (s *FileStore) read() credentialsFile {
	var creds credentialsFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		return credentialsFile{}
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return credentialsFile{}
	}
	return creds
}

func (s *FileStore) write(creds credentialsFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// AccessToken returns the stored access token, or "" when the file is
// missing or unreadable.
func (s *FileStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds := s.read()
	s.last = creds
	return creds.AccessToken
}

// RefreshToken returns the stored refresh token, or "".
func (s *FileStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds := s.read()
	s.last = creds
	return creds.RefreshToken
}

// SetTokens overwrites each non-empty value on disk and publishes
// EventSessionChanged. Write failures leave the previous file intact; they
// are logged and publish no change signal, since subscribers would only
// re-derive against the unchanged disk state.
func (s *FileStore) SetTokens(access, refresh string) {
	s.mu.Lock()
	creds := s.read()
	if access != "" {
		creds.AccessToken = access
	}
	if refresh != "" {
		creds.RefreshToken = refresh
	}
	err := s.write(creds)
	if err == nil {
		s.last = creds
	}
	s.mu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("credentials write failed")
		return
	}
	s.bus.Publish(EventSessionChanged)
}

// Clear removes the credentials file and publishes EventSessionChanged.
func (s *FileStore) Clear() {
	s.mu.Lock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// Removal failed; blank the contents instead so the tokens are gone
		// either way.
		if werr := s.write(credentialsFile{}); werr != nil {
			s.log.Warn().Err(werr).Str("path", s.path).Msg("credentials clear failed")
		}
	}
	s.last = credentialsFile{}
	s.epoch++
	s.mu.Unlock()
	s.bus.Publish(EventSessionChanged)
}

// Epoch returns the number of Clear calls so far in this process.
func (s *FileStore) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Events returns the store's notification bus.
func (s *FileStore) Events() *Bus {
	return s.bus
}

// Reload re-reads the file and publishes EventSessionChanged if its contents
// differ from the last observed state. Call it (or let the background
// refresh loop call it) to pick up logins and logouts made by another
// process sharing the same credentials file.
func (s *FileStore) Reload() {
	s.mu.Lock()
	creds := s.read()
	changed := creds != s.last
	s.last = creds
	s.mu.Unlock()
	if changed {
		s.bus.Publish(EventSessionChanged)
	}
}
