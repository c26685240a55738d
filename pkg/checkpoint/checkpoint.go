package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"tweetbot/pkg/config"
	"tweetbot/pkg/logger"
)

const currentVersion = 1

// Checkpoint is the position of an interrupted timeline walk
type Checkpoint struct {
	ScreenName string    `json:"screen_name"`
	MaxID      string    `json:"max_id"`
	Count      int       `json:"count"`
	Pages      int       `json:"pages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int       `json:"version"`
}

// Manager handles checkpoint operations for one screen name
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// DefaultDir is where checkpoints live: $XDG_DATA_HOME/tweetbot/checkpoints.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, config.AppName, "checkpoints")
}

// NewManager creates a checkpoint manager under DefaultDir.
func NewManager(screenName string) (*Manager, error) {
	return NewManagerInDir(DefaultDir(), screenName)
}

// NewManagerInDir creates a checkpoint manager storing its file in dir.
func NewManagerInDir(dir, screenName string) (*Manager, error) {
	name := sanitize(screenName)
	if name == "" {
		return nil, fmt.Errorf("screen name is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(dir, name+".checkpoint.json"),
		logger:         logger.GetLogger(),
	}, nil
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(l logger.Logger) {
	m.logger = l
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string { return m.checkpointPath }

// Create starts a fresh checkpoint and saves it.
func (m *Manager) Create(screenName string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		ScreenName: screenName,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    currentVersion,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"screen_name": screenName,
		"path":        m.checkpointPath,
	})
	return cp, nil
}

// Load reads the checkpoint. It returns nil, nil when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version > currentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", cp.Version, currentVersion)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"screen_name": cp.ScreenName,
		"count":       cp.Count,
		"max_id":      cp.MaxID,
		"updated_at":  cp.UpdatedAt,
	})
	return &cp, nil
}

// Save writes the checkpoint to disk atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"screen_name": cp.ScreenName,
		"count":       cp.Count,
		"max_id":      cp.MaxID,
	})
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// UpdateProgress records the cursor after a page and saves.
func (m *Manager) UpdateProgress(cp *Checkpoint, maxID string, count int) error {
	cp.MaxID = maxID
	cp.Count = count
	cp.Pages++
	return m.Save(cp)
}

// Info summarises the stored checkpoint, or returns nil when there is none.
func (m *Manager) Info() (map[string]interface{}, error) {
	cp, err := m.Load()
	if err != nil || cp == nil {
		return nil, err
	}
	return map[string]interface{}{
		"screen_name": cp.ScreenName,
		"count":       cp.Count,
		"pages":       cp.Pages,
		"max_id":      cp.MaxID,
		"created_at":  cp.CreatedAt,
		"updated_at":  cp.UpdatedAt,
		"age":         time.Since(cp.UpdatedAt),
	}, nil
}

func sanitize(screenName string) string {
	name := strings.TrimPrefix(strings.TrimSpace(screenName), "@")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, strings.ToLower(name))
}
