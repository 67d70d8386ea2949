package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"contexto/internal/game"
	"contexto/internal/types"
)

// FileRepository persists each session as a JSON file named after its id.
// Files older than maxAge are treated as missing and removed on sight.
type FileRepository struct {
	dir    string
	maxAge time.Duration
	mu     sync.Mutex
}

// NewFileRepository creates dir if needed.
func NewFileRepository(dir string, maxAge time.Duration) (*FileRepository, error) {
	if !dirExists(dir) {
		logInfo("Creating sessions directory: %s", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileRepository{dir: dir, maxAge: maxAge}, nil
}

// sessionFile maps an id to its file. Only UUIDs are accepted so ids can
// never escape the sessions directory.
func (r *FileRepository) sessionFile(sessionID string) (string, bool) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", false
	}
	return filepath.Join(r.dir, sessionID+".json"), true
}

func (r *FileRepository) Get(_ context.Context, sessionID string) (*types.Session, error) {
	sessionFile, ok := r.sessionFile(sessionID)
	if !ok {
		logWarn("Invalid session ID for loading: %s", sessionID)
		return nil, game.ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(sessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, game.ErrSessionNotFound
		}
		return nil, err
	}

	if r.maxAge > 0 {
		if fileAge := time.Since(info.ModTime()); fileAge > r.maxAge {
			logInfo("Session file is too old (%v, max: %v), removing: %s", fileAge, r.maxAge, sessionFile)
			_ = os.Remove(sessionFile)
			return nil, game.ErrSessionNotFound
		}
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return nil, err
	}

	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		logWarn("Failed to unmarshal session file %s (corrupted), removing: %v", sessionFile, err)
		_ = os.Remove(sessionFile)
		return nil, game.ErrSessionNotFound
	}

	if s.ID != sessionID || s.TargetWord == "" {
		logWarn("Session file %s has invalid structure (id: %q, target set: %v), removing", sessionFile, s.ID, s.TargetWord != "")
		_ = os.Remove(sessionFile)
		return nil, game.ErrSessionNotFound
	}
	if s.Guesses == nil {
		s.Guesses = []types.GuessedWord{}
	}
	return &s, nil
}

func (r *FileRepository) Put(_ context.Context, s *types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(s)
}

func (r *FileRepository) Replace(_ context.Context, oldID string, s *types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.write(s); err != nil {
		return err
	}
	if oldID == "" || oldID == s.ID {
		return nil
	}
	if oldFile, ok := r.sessionFile(oldID); ok {
		if err := os.Remove(oldFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logWarn("Failed to remove superseded session file %s: %v", oldFile, err)
		}
	}
	return nil
}

// write must be called with mu held. The file is written to a temp name and
// renamed so readers never see a partial session.
func (r *FileRepository) write(s *types.Session) error {
	sessionFile, ok := r.sessionFile(s.ID)
	if !ok {
		return errors.New("refusing to save session with non-UUID id")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		logWarn("Failed to marshal game state for session %s: %v", s.ID, err)
		return err
	}
	tmp := sessionFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		logWarn("Failed to write session file %s: %v", tmp, err)
		return err
	}
	return os.Rename(tmp, sessionFile)
}

// Sweep removes session files older than maxAge.
func (r *FileRepository) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		logWarn("Failed to read sessions directory: %v", err)
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			errorCount++
			continue
		}
		if info.ModTime().Before(cutoff) {
			sessionFile := filepath.Join(r.dir, entry.Name())
			if err := os.Remove(sessionFile); err != nil {
				logWarn("Failed to remove old session file %s: %v", sessionFile, err)
				errorCount++
			} else {
				removedCount++
			}
		}
	}

	if removedCount > 0 || errorCount > 0 {
		logInfo("Session cleanup completed: removed %d files, %d errors", removedCount, errorCount)
	}
	return removedCount, nil
}
