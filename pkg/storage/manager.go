package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Manager writes run artifacts into one output directory
type Manager struct {
	outputDir string
	written   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		written:   make(map[string]bool),
	}, nil
}

// WriteFile streams fn's output into name, replacing any previous file
// only once fn and the write have both succeeded.
func (m *Manager) WriteFile(name string, fn func(w io.Writer) error) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(m.outputDir, name)

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = fn(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.written[name] = true
	m.mu.Unlock()

	return path, nil
}

// WriteJSON stores v as indented JSON under name.
func (m *Manager) WriteJSON(name string, v interface{}) (string, error) {
	return m.WriteFile(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// Exists reports whether name is present in the output directory.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.written[name]
	m.mu.RUnlock()
	if known {
		return true
	}
	_, err := os.Stat(filepath.Join(m.outputDir, name))
	return err == nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Written lists the files this manager produced, sorted.
func (m *Manager) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.written))
	for name := range m.written {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
