package dataprocessing

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"hsecli/pkg/contracts/domain"
)

// statusMappings resolves the mixed Arabic/English status variants seen
// across source files to the canonical vocabulary.
var statusMappings = map[string]domain.Status{
	"مفتوح - open":   domain.StatusOpen,
	"مغلق - close":   domain.StatusClosed,
	"مغلق - closed":  domain.StatusClosed,
	"closed - close": domain.StatusClosed,
	"open":           domain.StatusOpen,
	"close":          domain.StatusClosed,
	"closed":         domain.StatusClosed,
	"مفتوح":          domain.StatusOpen,
	"مغلق":           domain.StatusClosed,
	"قيد التنفيذ":    domain.StatusInProgress,
	"in progress":    domain.StatusInProgress,
	"in-progress":    domain.StatusInProgress,
	"ongoing":        domain.StatusInProgress,
}

// NormalizeStatus maps a raw status cell to the canonical vocabulary.
// Exact variants are tried first, then substring heuristics; anything
// unrecognized stays StatusUnknown so it is visible in distributions
// under its raw value.
func NormalizeStatus(raw string) domain.Status {
	clean := strings.ToLower(NormalizeText(raw))
	if clean == "" {
		return domain.StatusUnknown
	}
	if status, ok := statusMappings[clean]; ok {
		return status
	}
	switch {
	case strings.Contains(clean, "مغلق") || strings.Contains(clean, "غلاق") || strings.Contains(clean, "clos"):
		return domain.StatusClosed
	case strings.Contains(clean, "مفتوح") || strings.Contains(clean, "open"):
		return domain.StatusOpen
	case strings.Contains(clean, "قيد") || strings.Contains(clean, "جاري") || strings.Contains(clean, "progress"):
		return domain.StatusInProgress
	}
	return domain.StatusUnknown
}

// NormalizeText cleans a cell value: NFKC folding (collapses Arabic
// presentation forms), whitespace collapsing, and placeholder removal.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	switch strings.ToLower(s) {
	case "nan", "none", "null", "n/a", "-", "--":
		return ""
	}
	return s
}

var digitFolder = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", ",",
)

// FoldDigits rewrites Arabic-Indic and Extended Arabic-Indic digits to
// ASCII, including the Arabic decimal and thousands separators.
func FoldDigits(s string) string {
	return digitFolder.Replace(s)
}

// ParseNumber parses a numeric cell tolerantly: Arabic digits, thousands
// separators, percent signs and surrounding text noise are accepted.
func ParseNumber(s string) (float64, bool) {
	clean := FoldDigits(NormalizeText(s))
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSuffix(clean, "%")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// dateLayouts are tried in order. Day-first layouts come before
// month-first ones because the source files are produced by ar-locale
// Excel installations.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// Excel serial dates for the plausible working range (1954..2078).
const (
	minExcelSerial = 20000
	maxExcelSerial = 65000
)

// ParseDate parses a date cell tolerantly: several textual layouts plus
// Excel serial numbers (excelize returns serials as plain strings when a
// sheet carries no date formatting).
func ParseDate(s string) (time.Time, bool) {
	clean := FoldDigits(NormalizeText(s))
	if clean == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(clean, 64); err == nil {
		if serial >= minExcelSerial && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// NormalizeRisk maps a risk cell to the 0..1 range: percentage-style
// values (1..100] are scaled down, anything negative or above 100 is
// rejected.
func NormalizeRisk(s string) (float64, bool) {
	val, ok := ParseNumber(s)
	if !ok || val < 0 || val > 100 {
		return 0, false
	}
	if val > 1 {
		val = val / 100
	}
	return val, true
}

// NormalizeCompliance maps a compliance cell to the 0..100 range:
// ratio-style values [0..1] are scaled up.
func NormalizeCompliance(s string) (float64, bool) {
	val, ok := ParseNumber(s)
	if !ok || val < 0 || val > 100 {
		return 0, false
	}
	if val <= 1 {
		val = val * 100
	}
	return val, true
}
