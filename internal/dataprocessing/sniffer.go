package dataprocessing

import (
	"fmt"
	"strings"

	"hsecli/pkg/contracts/domain"
)

// roleProbe binds a column role to the header substrings that mark it.
// Probes run in declaration order and the first matching column wins, so
// more specific roles must come before broader ones: "تصنيف النشاط"
// (activity classification) must resolve to activity, not classification.
type roleProbe struct {
	role     domain.ColumnRole
	keywords []string
}

var roleProbes = []roleProbe{
	{domain.RoleStatus, []string{"حالة", "الموقف", "status", "state"}},
	{domain.RoleDate, []string{"تاريخ", "date"}},
	{domain.RoleRiskScore, []string{"مخاطر", "المخاطرة", "risk"}},
	{domain.RoleComplianceScore, []string{"التزام", "امتثال", "compliance"}},
	{domain.RoleDepartment, []string{"إدارة", "الادارة", "قطاع", "الجهة", "department", "sector"}},
	{domain.RoleActivity, []string{"نشاط", "activity"}},
	{domain.RoleClassification, []string{"تصنيف", "classification", "severity", "priority"}},
	{domain.RoleUnit, []string{"وحدة", "الوحدة", "موقع", "unit", "site", "location"}},
	{domain.RoleRecordID, []string{"رقم", "الرقم", "ر.م", "id", "number", "no."}},
}

// DetectRoles guesses the semantic role of each header column. Roles are
// probed in a fixed order and columns left to right; the first match per
// role wins. Later columns matching an already-assigned role are returned
// as conflicts for the quality report.
func DetectRoles(headers []string) (map[domain.ColumnRole]int, []string) {
	roles := make(map[domain.ColumnRole]int)
	taken := make(map[int]bool)
	var conflicts []string

	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(NormalizeText(h))
	}

	for _, probe := range roleProbes {
		for i, header := range lowered {
			if header == "" || taken[i] {
				continue
			}
			if !matchesAny(header, probe.keywords) {
				continue
			}
			if _, assigned := roles[probe.role]; assigned {
				conflicts = append(conflicts, fmt.Sprintf("%s (%s)", headers[i], probe.role))
				continue
			}
			roles[probe.role] = i
			taken[i] = true
		}
	}

	return roles, conflicts
}

// roleHits counts how many cells of a row match any role keyword. Used
// to recognize header rows inside sheets that start with titles or
// merged banner cells.
func roleHits(row []string) int {
	hits := 0
	for _, cell := range row {
		lower := strings.ToLower(NormalizeText(cell))
		if lower == "" {
			continue
		}
		for _, probe := range roleProbes {
			if matchesAny(lower, probe.keywords) {
				hits++
				break
			}
		}
	}
	return hits
}

// DetectHeaderRow finds the header row within the first rows of a sheet:
// the first row with at least two role keyword hits. Returns -1 when no
// row qualifies.
func DetectHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		if roleHits(rows[i]) >= minHeaderRoleHits {
			return i
		}
	}
	return -1
}

const (
	headerScanLimit   = 10
	minHeaderRoleHits = 2
)

// CleanHeaders trims header cells and replaces blanks with positional
// names so every column stays addressable.
func CleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		clean := NormalizeText(h)
		if clean == "" || strings.HasPrefix(clean, "Unnamed") {
			clean = fmt.Sprintf("col_%d", i)
		}
		headers[i] = clean
	}
	return headers
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
