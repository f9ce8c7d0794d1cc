// Package storage reads and writes JSON files atomically: fetched snapshots,
// so a run can be replayed offline, and the analysis reports.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/tokenguard/internal/models"
)

// snapshotVersion is the current snapshot file format.
const snapshotVersion = "1.0"

const (
	filePermissions os.FileMode = 0644
	dirPermissions  os.FileMode = 0755
)

// SnapshotFile is the on-disk envelope of a saved snapshot.
type SnapshotFile struct {
	Version  string          `json:"version"`
	SavedAt  time.Time       `json:"saved_at"`
	Snapshot models.Snapshot `json:"snapshot"`
}

// WriteJSON marshals v and writes it to path. The data goes to a temporary
// file first and is renamed into place, so readers never see a partial file.
func WriteJSON(path string, v any) error {
	// Marshal to JSON
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	return WriteFile(path, jsonData)
}

// WriteFile writes data to path atomically.
func WriteFile(path string, data []byte) error {
	// Create target directory if needed
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	// Rename temp file to actual file
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// SaveSnapshot persists a fetched snapshot.
func SaveSnapshot(path string, snap models.Snapshot) error {
	return WriteJSON(path, SnapshotFile{
		Version:  snapshotVersion,
		SavedAt:  time.Now().UTC(),
		Snapshot: snap,
	})
}

// LoadSnapshot restores a snapshot written by SaveSnapshot. A bare snapshot
// object without the envelope is accepted too.
func LoadSnapshot(path string) (models.Snapshot, error) {
	// Clean up any stale temp files from previous crashes
	tempPath := path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	// Read file
	jsonData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Snapshot{}, fmt.Errorf("snapshot file %s does not exist", path)
		}
		return models.Snapshot{}, fmt.Errorf("failed to read file: %w", err)
	}

	// Unmarshal
	var file SnapshotFile
	if err := json.Unmarshal(jsonData, &file); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	snap := file.Snapshot
	if file.Version == "" {
		if err := json.Unmarshal(jsonData, &snap); err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to unmarshal data: %w", err)
		}
	} else if file.Version != snapshotVersion {
		return models.Snapshot{}, fmt.Errorf("unsupported snapshot version %q", file.Version)
	}

	if snap.TokenAddress == "" {
		return models.Snapshot{}, fmt.Errorf("snapshot in %s has no token_address", path)
	}
	if snap.Holders == nil {
		snap.Holders = []models.Holder{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []models.Transaction{}
	}
	return snap, nil
}
