package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StateStore provides file-based storage for board documents, one JSON file
// per user.
type StateStore struct {
	basePath string
}

// NewStateStore creates a new StateStore and ensures the base directory exists.
func NewStateStore(basePath string) (*StateStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &StateStore{basePath: basePath}, nil
}

// getPath returns the document path for a user.
func (s *StateStore) getPath(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(s.basePath, userID+".json"), nil
}

// GetState returns the stored document for userID, or nil when none exists.
func (s *StateStore) GetState(_ context.Context, userID string) ([]byte, error) {
	filePath, err := s.getPath(userID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// PutState replaces the document for userID. The file is written to a
// temporary sibling and renamed so readers never see a partial document.
func (s *StateStore) PutState(_ context.Context, userID string, data []byte) error {
	filePath, err := s.getPath(userID)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, userID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// UpdatedAt returns when the document for userID was last written, or the
// zero time when none exists.
func (s *StateStore) UpdatedAt(_ context.Context, userID string) (time.Time, error) {
	filePath, err := s.getPath(userID)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to stat state file: %w", err)
	}
	return info.ModTime().UTC(), nil
}
