package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsecli/pkg/contracts/domain"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Status
	}{
		{"مفتوح", domain.StatusOpen},
		{"مفتوح - Open", domain.StatusOpen},
		{"OPEN", domain.StatusOpen},
		{"مغلق", domain.StatusClosed},
		{"Closed - Close", domain.StatusClosed},
		{"closed", domain.StatusClosed},
		{"تم الإغلاق", domain.StatusClosed},
		{"قيد التنفيذ", domain.StatusInProgress},
		{"جاري العمل", domain.StatusInProgress},
		{"In Progress", domain.StatusInProgress},
		{"", domain.StatusUnknown},
		{"nan", domain.StatusUnknown},
		{"معلق", domain.StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "إدارة التشغيل", NormalizeText("  إدارة   التشغيل "))
	assert.Equal(t, "", NormalizeText("NaN"))
	assert.Equal(t, "", NormalizeText("n/a"))
	assert.Equal(t, "", NormalizeText("-"))
}

func TestFoldDigits(t *testing.T) {
	assert.Equal(t, "2024", FoldDigits("٢٠٢٤"))
	assert.Equal(t, "15.5", FoldDigits("١٥٫٥"))
	assert.Equal(t, "1,250", FoldDigits("۱٬۲۵۰"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"85%", 85, true},
		{"1,250", 1250, true},
		{"٧٥", 75, true},
		{"٠٫٨", 0.8, true},
		{"", 0, false},
		{"غير متوفر", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "raw=%q", tt.raw)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"5/3/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"١٥/٠٣/٢٠٢٤", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.raw)
		require.True(t, ok, "raw=%q", tt.raw)
		assert.True(t, tt.want.Equal(got), "raw=%q got=%v", tt.raw, got)
	}
}

func TestParseDateExcelSerial(t *testing.T) {
	// 45370 is 2024-03-19 in the 1900 date system.
	got, ok := ParseDate("45370")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 19, got.Day())
}

func TestParseDateRejectsJunk(t *testing.T) {
	for _, raw := range []string{"", "غير معروف", "12345678", "99"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestNormalizeRisk(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"0.75", 0.75, true},
		{"75", 0.75, true},
		{"75%", 0.75, true},
		{"0", 0, true},
		{"1", 1, true},
		{"120", 0, false},
		{"-5", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeRisk(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "raw=%q", tt.raw)
		}
	}
}

func TestNormalizeCompliance(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"0.85", 85, true},
		{"85", 85, true},
		{"85%", 85, true},
		{"1", 100, true},
		{"110", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeCompliance(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "raw=%q", tt.raw)
		}
	}
}
