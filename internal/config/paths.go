package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for the file layout:
//
//	data/
//	  sources/   input Excel/CSV files
//	  exports/   generated CSV/XLSX/JSON/PDF outputs
//	  hsecli.db  snapshot store
//	logs/
type Paths struct {
	BaseDir    string
	SourcesDir string
	ExportsDir string
	LogsDir    string
	DBFile     string
}

// NewPaths resolves the configured directories against baseDir. Relative
// configured paths stay inside baseDir; absolute ones are used as-is.
func NewPaths(baseDir string, cfg PathsConfig) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		baseDir = wd
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	return &Paths{
		BaseDir:    baseDir,
		SourcesDir: resolve(cfg.SourcesDir),
		ExportsDir: resolve(cfg.ExportsDir),
		LogsDir:    resolve(cfg.LogsDir),
		DBFile:     resolve(cfg.DBFile),
	}, nil
}

// EnsureDirectories creates every directory the application writes to.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.SourcesDir, p.ExportsDir, p.LogsDir, filepath.Dir(p.DBFile)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExportPath returns the full path for a named export file.
func (p *Paths) ExportPath(name string) string {
	return filepath.Join(p.ExportsDir, name)
}

// LogPath returns the full path for a named log file.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
