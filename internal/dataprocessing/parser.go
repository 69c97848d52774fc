package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "hsecli/internal/errors"
	"hsecli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile reads a source file and extracts one raw table per data
// sheet. The file kind is decided by extension; sheets or files where no
// header row can be located are skipped with a log entry, not an error.
func ParseFile(path string) ([]domain.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return ParseExcelFile(path)
	case ".csv":
		table, err := ParseCSVFile(path)
		if err != nil {
			return nil, err
		}
		return []domain.RawTable{table}, nil
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported file type: %s", filepath.Base(path)), nil)
	}
}

// ParseExcelFile opens a workbook and extracts every sheet that contains
// a recognizable table. Sheet names vary wildly across source files, so
// each sheet is probed for a header row instead of trusting its name.
func ParseExcelFile(path string) ([]domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("open workbook %s", filepath.Base(path)), err)
	}
	defer f.Close()

	source := filepath.Base(path)
	var tables []domain.RawTable

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			slog.Warn("skipping unreadable sheet",
				slog.String("source", source),
				slog.String("sheet", sheet),
				slog.String("error", err.Error()))
			continue
		}

		table, ok := buildTable(source, sheet, rows)
		if !ok {
			slog.Debug("no header row found in sheet",
				slog.String("source", source),
				slog.String("sheet", sheet))
			continue
		}
		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("no data tables found in %s", source), nil)
	}

	slog.Info("parsed workbook",
		slog.String("source", source),
		slog.Int("tables", len(tables)))

	return tables, nil
}

// ParseCSVFile reads a CSV file with an encoding fallback chain: UTF-8
// with BOM, plain UTF-8, then Windows-1256 for legacy Arabic exports.
func ParseCSVFile(path string) (domain.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawTable{}, apperrors.NewParsingError(fmt.Sprintf("read %s", filepath.Base(path)), err)
	}

	decoded, err := decodeCSVBytes(data)
	if err != nil {
		return domain.RawTable{}, apperrors.NewEncodingError(fmt.Sprintf("decode %s", filepath.Base(path)), err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.RawTable{}, apperrors.NewParsingError(fmt.Sprintf("read csv %s", filepath.Base(path)), err)
		}
		rows = append(rows, record)
	}

	source := filepath.Base(path)
	table, ok := buildTable(source, "", rows)
	if !ok {
		return domain.RawTable{}, apperrors.NewParsingError(fmt.Sprintf("no header row found in %s", source), nil)
	}

	slog.Info("parsed csv file",
		slog.String("source", source),
		slog.Int("rows", len(table.Rows)))

	return table, nil
}

// decodeCSVBytes returns valid UTF-8 text for the raw file bytes.
func decodeCSVBytes(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, _, err := transform.Bytes(charmap.Windows1256.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("windows-1256 decode: %w", err)
	}
	return decoded, nil
}

// buildTable locates the header row, detects column roles and collects
// the data rows below the header. Empty rows and totals rows are
// dropped; short rows are padded so role indexes stay valid.
func buildTable(source, sheet string, rows [][]string) (domain.RawTable, bool) {
	headerRow := DetectHeaderRow(rows)
	if headerRow < 0 {
		return domain.RawTable{}, false
	}

	headers := CleanHeaders(rows[headerRow])
	roles, conflicts := DetectRoles(headers)

	var dataRows [][]string
	for _, row := range rows[headerRow+1:] {
		if isEmptyRow(row) || isTotalsRow(row) {
			continue
		}
		dataRows = append(dataRows, padRow(row, len(headers)))
	}

	return domain.RawTable{
		Source:        source,
		Sheet:         sheet,
		Headers:       headers,
		Rows:          dataRows,
		Roles:         roles,
		RoleConflicts: conflicts,
	}, true
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// totalsMarkers flag summary rows appended below data tables.
var totalsMarkers = []string{"total", "المجموع", "الإجمالي", "الاجمالي", "إجمالي"}

func isTotalsRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(NormalizeText(row[0]))
	return matchesAny(first, totalsMarkers)
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
