package feature

import (
	"strconv"
	"testing"
	"time"

	errs "cardealworker/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"9.999", 9999},
		{"12.500", 12500},
		{"150.000 km", 150000},
		{"1.595 cm³", 1595},
		{"42", 42},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := ExtractNumber(tt.input)
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ExtractNumber("keine Angabe")
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnparsableNumeric), "got %v", err)
}

// formatThousands renders an integer with dotted thousands separators
// the way the site does.
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	return s
}

func TestExtractNumberInverseStable(t *testing.T) {
	for _, n := range []int{0, 7, 999, 1000, 9999, 100001, 1234567, 9999999} {
		formatted := formatThousands(n)
		got, err := ExtractNumber(formatted)
		assert.NoError(t, err, formatted)
		assert.Equal(t, n, got, formatted)
	}
}

func TestSecondNumber(t *testing.T) {
	// the power field lists kW first and PS second
	got, err := SecondNumber("90 kW (122 PS)")
	assert.NoError(t, err)
	assert.Equal(t, 122, got)

	_, err = SecondNumber("122 PS")
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnparsableNumeric), "got %v", err)
}

func TestYearsSince(t *testing.T) {
	now := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	age, err := YearsSince("06/2012", now)
	assert.NoError(t, err)
	assert.InDelta(t, 10.0, age, 0.05)

	_, err = YearsSince("not a date", now)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnparsableNumeric), "got %v", err)
}

func TestYearsUntil(t *testing.T) {
	now := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	// a fresh inspection maps to a fixed credit, not a parse error
	years, err := YearsUntil("Neu", now)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, years)

	years, err = YearsUntil("06/2023", now)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, years, 0.05)

	// overdue inspections go negative
	years, err = YearsUntil("06/2021", now)
	assert.NoError(t, err)
	assert.Less(t, years, 0.0)
}
