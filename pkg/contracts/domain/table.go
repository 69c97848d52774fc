package domain

// ColumnRole names the semantic meaning guessed for a source column.
type ColumnRole string

const (
	RoleRecordID        ColumnRole = "record_id"
	RoleDate            ColumnRole = "date"
	RoleStatus          ColumnRole = "status"
	RoleClassification  ColumnRole = "classification"
	RoleDepartment      ColumnRole = "department"
	RoleActivity        ColumnRole = "activity"
	RoleUnit            ColumnRole = "unit"
	RoleRiskScore       ColumnRole = "risk_score"
	RoleComplianceScore ColumnRole = "compliance_score"
)

// RawTable is one source table (a CSV file or a workbook sheet) after
// header detection but before unification. Cells stay untyped strings;
// role resolution decides how each column is interpreted.
type RawTable struct {
	Source  string             `json:"source"`
	Sheet   string             `json:"sheet,omitempty"`
	Headers []string           `json:"headers"`
	Rows    [][]string         `json:"rows"`
	Roles   map[ColumnRole]int `json:"roles"`

	// RoleConflicts lists columns that matched an already-assigned role.
	// First match wins; the rest are kept here for quality reporting.
	RoleConflicts []string `json:"role_conflicts,omitempty"`
}

// QualifiedName returns "source" or "source/sheet" for logging and
// record stamping.
func (t RawTable) QualifiedName() string {
	if t.Sheet == "" {
		return t.Source
	}
	return t.Source + "/" + t.Sheet
}

// SourceError records a source file that could not be ingested. Failed
// sources are skipped, never fatal, and surfaced in the quality report.
type SourceError struct {
	Source string `json:"source"`
	Err    string `json:"error"`
}
