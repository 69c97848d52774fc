package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hsecli/internal/config"
)

// JSONWriter writes report documents as JSON exports.
type JSONWriter struct {
	paths *config.Paths
}

func NewJSONWriter(paths *config.Paths) *JSONWriter {
	return &JSONWriter{paths: paths}
}

// WriteJSON marshals v indented and writes it atomically: the document
// is written to a temp file first so readers never see a partial export.
func (w *JSONWriter) WriteJSON(name string, v any) error {
	path := w.paths.ExportPath(name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}

	slog.Info("wrote json export",
		slog.String("file", name),
		slog.Int("bytes", len(data)))

	return nil
}
