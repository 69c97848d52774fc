package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsecli/pkg/contracts/domain"
)

func TestDetectRolesArabicHeaders(t *testing.T) {
	headers := []string{"رقم الملاحظة", "تاريخ التفتيش", "الإدارة", "تصنيف النشاط", "الحالة", "درجة المخاطرة"}

	roles, conflicts := DetectRoles(headers)

	assert.Empty(t, conflicts)
	assert.Equal(t, 0, roles[domain.RoleRecordID])
	assert.Equal(t, 1, roles[domain.RoleDate])
	assert.Equal(t, 2, roles[domain.RoleDepartment])
	assert.Equal(t, 4, roles[domain.RoleStatus])
	assert.Equal(t, 5, roles[domain.RoleRiskScore])
}

func TestDetectRolesActivityBeforeClassification(t *testing.T) {
	// "تصنيف النشاط" contains both markers; it must resolve to activity
	// so a separate "التصنيف" column can still claim classification.
	headers := []string{"تصنيف النشاط", "التصنيف"}

	roles, conflicts := DetectRoles(headers)

	assert.Empty(t, conflicts)
	assert.Equal(t, 0, roles[domain.RoleActivity])
	assert.Equal(t, 1, roles[domain.RoleClassification])
}

func TestDetectRolesEnglishHeaders(t *testing.T) {
	headers := []string{"ID", "Date", "Status", "Department", "Compliance %"}

	roles, _ := DetectRoles(headers)

	assert.Equal(t, 0, roles[domain.RoleRecordID])
	assert.Equal(t, 1, roles[domain.RoleDate])
	assert.Equal(t, 2, roles[domain.RoleStatus])
	assert.Equal(t, 3, roles[domain.RoleDepartment])
	assert.Equal(t, 4, roles[domain.RoleComplianceScore])
}

func TestDetectRolesReportsConflicts(t *testing.T) {
	headers := []string{"تاريخ الفتح", "تاريخ الإغلاق"}

	roles, conflicts := DetectRoles(headers)

	assert.Equal(t, 0, roles[domain.RoleDate])
	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], "تاريخ الإغلاق")
}

func TestDetectHeaderRowSkipsBanner(t *testing.T) {
	rows := [][]string{
		{"تقرير التفتيش الشهري"},
		{""},
		{"رقم", "تاريخ", "الحالة", "الإدارة"},
		{"1", "2024-01-05", "مفتوح", "التشغيل"},
	}

	assert.Equal(t, 2, DetectHeaderRow(rows))
}

func TestDetectHeaderRowNotFound(t *testing.T) {
	rows := [][]string{
		{"ملخص"},
		{"قيمة", "أخرى"},
	}

	assert.Equal(t, -1, DetectHeaderRow(rows))
}

func TestCleanHeaders(t *testing.T) {
	headers := CleanHeaders([]string{" الحالة ", "", "Unnamed: 2", "Department"})

	assert.Equal(t, []string{"الحالة", "col_1", "col_2", "Department"}, headers)
}
