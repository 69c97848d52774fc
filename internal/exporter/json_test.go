package exporter

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsecli/pkg/contracts/domain"
)

func TestWriteJSON(t *testing.T) {
	paths := testPaths(t)
	w := NewJSONWriter(paths)

	report := domain.QualityReport{
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Categories: map[domain.Category]domain.CategoryQuality{
			domain.CategoryIncidents: {Category: domain.CategoryIncidents, TotalRows: 5, QualityScore: 88},
		},
		SourceErrors: []domain.SourceError{{Source: "bad.xlsx", Err: "no header row"}},
	}

	require.NoError(t, w.WriteJSON("quality.json", report))

	data, err := os.ReadFile(paths.ExportPath("quality.json"))
	require.NoError(t, err)

	var decoded domain.QualityReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 5, decoded.Categories[domain.CategoryIncidents].TotalRows)
	require.Len(t, decoded.SourceErrors, 1)

	// No temp file left behind.
	_, err = os.Stat(paths.ExportPath("quality.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}
