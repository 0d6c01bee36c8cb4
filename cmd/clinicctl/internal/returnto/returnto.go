// Package returnto remembers where a signed-out user was headed so that
// `clinicctl auth login` can point them back there.
package returnto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FileName is the name of the pending-location file inside the config dir.
	FileName = "returnto.json"
	// FileVersion is the current schema version.
	FileVersion = "1"
	// MaxAge bounds how long a recorded location stays valid.
	MaxAge = 30 * time.Minute
)

// Entry is a location the user was denied entry to for lack of a session.
type Entry struct {
	Version string `json:"version"`
	// Location is the portal path that was being entered, e.g. /nurse/patients.
	Location string `json:"location"`
	// Command is the command line to re-run after login.
	Command    string    `json:"command"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate checks if the Entry is usable.
func (e *Entry) Validate() error {
	if e.Version != FileVersion {
		return fmt.Errorf("unsupported %s version: %s (expected %s)", FileName, e.Version, FileVersion)
	}
	if !strings.HasPrefix(e.Location, "/") {
		return fmt.Errorf("location must be an absolute path, got %q", e.Location)
	}
	if e.Command == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

// Expired reports whether the entry is older than MaxAge at now.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.RecordedAt) > MaxAge
}

// Record writes the entry for location and command atomically, replacing
// any previous one.
func Record(dir, location, command string) error {
	entry := Entry{
		Version:    FileVersion,
		Location:   location,
		Command:    command,
		RecordedAt: time.Now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid return location: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal return location: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, FileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}

// Take returns the recorded entry and removes it. It returns nil, nil when
// nothing is recorded or the entry has expired.
func Take(dir string) (*Entry, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove %s: %w", FileName, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupted %s (invalid JSON): %w", FileName, err)
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	if entry.Expired(time.Now()) {
		return nil, nil
	}
	return &entry, nil
}

// Discard removes any recorded entry.
func Discard(dir string) error {
	err := os.Remove(filepath.Join(dir, FileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", FileName, err)
	}
	return nil
}
