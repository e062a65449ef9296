package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session records one cleanup run
type Session struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Mode         string    `json:"mode"`
	DryRun       bool      `json:"dry_run"`
	Trigger      string    `json:"trigger"` // cli or the schedule name
	Categories   []string  `json:"categories"`
	DeletedPaths []string  `json:"deleted_paths"`
	ItemsDeleted int       `json:"items_deleted"`
	ItemsFailed  int       `json:"items_failed"`
	ItemsSkipped int       `json:"items_skipped"`
	BytesFreed   int64     `json:"bytes_freed"`
	BackupDir    string    `json:"backup_dir,omitempty"`
	ManifestPath string    `json:"manifest_path,omitempty"`
	Aborted      bool      `json:"aborted"`
	Notes        string    `json:"notes,omitempty"`
}

// SessionManager manages session persistence
type SessionManager struct {
	sessionsDir string
}

// NewSessionManager creates a session manager storing records in dir
func NewSessionManager(dir string) (*SessionManager, error) {
	sessionsDir := ExpandPath(dir)
	if sessionsDir == "" {
		return nil, fmt.Errorf("sessions directory not set")
	}

	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &SessionManager{
		sessionsDir: sessionsDir,
	}, nil
}

// Save saves a session to disk
func (sm *SessionManager) Save(session *Session) error {
	if session.ID == "" {
		session.ID = generateSessionID()
	}

	if session.Timestamp.IsZero() {
		session.Timestamp = time.Now()
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	filename := filepath.Join(sm.sessionsDir, session.ID+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load loads a session from disk by ID
func (sm *SessionManager) Load(id string) (*Session, error) {
	filename := filepath.Join(sm.sessionsDir, id+".json")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns all saved sessions, newest first
func (sm *SessionManager) List() ([]*Session, error) {
	entries, err := os.ReadDir(sm.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		session, err := sm.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip invalid sessions
			continue
		}

		sessions = append(sessions, session)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})

	return sessions, nil
}

// Delete deletes a session by ID
func (sm *SessionManager) Delete(id string) error {
	filename := filepath.Join(sm.sessionsDir, id+".json")
	if err := os.Remove(filename); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// GetLatest returns the most recent session
func (sm *SessionManager) GetLatest() (*Session, error) {
	sessions, err := sm.List()
	if err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions found")
	}

	return sessions[0], nil
}

// CleanOldSessions removes sessions older than days and returns how many
// were removed. Zero keeps everything.
func (sm *SessionManager) CleanOldSessions(days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	sessions, err := sm.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)

	removed := 0
	for _, session := range sessions {
		if session.Timestamp.Before(cutoff) {
			if err := sm.Delete(session.ID); err != nil {
				continue
			}
			removed++
		}
	}

	return removed, nil
}

// GetSessionsDir returns the sessions directory path
func (sm *SessionManager) GetSessionsDir() string {
	return sm.sessionsDir
}

func generateSessionID() string {
	return time.Now().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}
