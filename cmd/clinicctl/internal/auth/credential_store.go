package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

const credentialsFile = "credentials.json"

// FileStore implements sdk.TokenStore using a JSON file.
// This is the CLI's credential persistence implementation.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// Ensure FileStore implements sdk.TokenStore at compile time.
var _ sdk.TokenStore = (*FileStore)(nil)

type credentialFile struct {
	Token sdk.Credential `json:"token"`
}

// DefaultDir returns $HOME/.clinic.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".clinic"), nil
}

// NewFileStore creates a FileStore rooted at dir, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return &FileStore{path: filepath.Join(dir, credentialsFile)}, nil
}

// Path returns the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get loads the token from the file.
func (s *FileStore) Get() (sdk.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", sdk.ErrNoCredential
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}
	var file credentialFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if file.Token == "" {
		return "", sdk.ErrNoCredential
	}
	return file.Token, nil
}

// Set replaces the stored token. The file is written to a temp path and
// renamed into place.
func (s *FileStore) Set(token sdk.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(credentialFile{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}

// Clear deletes the credentials file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
