package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Manager provides maintenance operations over the exports directory.
type Manager struct {
	exportsDir string
}

// NewManager creates a manager for the given exports directory.
func NewManager(exportsDir string) *Manager {
	return &Manager{exportsDir: exportsDir}
}

// FileExists reports whether a named export exists.
func (m *Manager) FileExists(name string) bool {
	_, err := os.Stat(filepath.Join(m.exportsDir, name))
	return err == nil
}

// ListExports lists all files currently in the exports directory,
// sorted by name.
func (m *Manager) ListExports() ([]FileInfo, error) {
	entries, err := os.ReadDir(m.exportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read exports directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(m.exportsDir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// RemoveExport deletes a named export file. Missing files are not an error.
func (m *Manager) RemoveExport(name string) error {
	path := filepath.Join(m.exportsDir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("remove export %s: %w", name, err)
	}
	slog.Debug("removed export", slog.String("name", name))
	return nil
}
