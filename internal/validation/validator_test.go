package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestValidateFilter(t *testing.T) {
	columns := []string{"CNIC", "District Name"}

	tests := []struct {
		name      string
		in        FilterInput
		valid     bool
		errors    int
		warnings  int
		wantRules []string
	}{
		{
			name:  "empty request",
			in:    FilterInput{},
			valid: true,
		},
		{
			name:  "ordered range",
			in:    FilterInput{DateFrom: day("2025-04-18"), DateTo: day("2025-04-20")},
			valid: true,
		},
		{
			name:  "single day range",
			in:    FilterInput{DateFrom: day("2025-04-18"), DateTo: day("2025-04-18")},
			valid: true,
		},
		{
			name:      "inverted range",
			in:        FilterInput{DateFrom: day("2025-04-21"), DateTo: day("2025-04-20")},
			valid:     false,
			errors:    1,
			wantRules: []string{RuleDateRange},
		},
		{
			name:      "unknown field",
			in:        FilterInput{Equals: map[string]string{"Agent": "A-1", "CNIC": "42"}},
			valid:     true,
			warnings:  1,
			wantRules: []string{RuleUnknownField},
		},
		{
			name:      "empty value",
			in:        FilterInput{Equals: map[string]string{"District Name": " "}},
			valid:     true,
			warnings:  1,
			wantRules: []string{RuleEmptyValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateFilter(tt.in, columns)
			assert.Equal(t, tt.valid, result.IsValid)
			assert.Equal(t, tt.errors, result.ErrorCount)
			assert.Equal(t, tt.warnings, result.WarningCount)

			var rules []string
			for _, e := range result.Errors {
				rules = append(rules, e.Rule)
			}
			assert.Equal(t, tt.wantRules, rules)
		})
	}
}

func TestValidateFilter_InvertedRangeIsInputRangeError(t *testing.T) {
	result := ValidateFilter(FilterInput{DateFrom: day("2025-05-01"), DateTo: day("2025-04-01")}, nil)
	require.Len(t, result.Errors, 1)

	var rangeErr *types.InputRangeError
	require.True(t, errors.As(result.Errors[0], &rangeErr))
	assert.Contains(t, result.Messages()[0], "2025-05-01..2025-04-01")
}

func TestValidateFilter_SameDayBoundsAreNotInverted(t *testing.T) {
	from := time.Date(2025, 4, 20, 15, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 20, 10, 0, 0, 0, time.UTC)

	result := ValidateFilter(FilterInput{DateFrom: &from, DateTo: &to}, nil)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateFilter_TracksUnknownFields(t *testing.T) {
	result := ValidateFilter(FilterInput{Equals: map[string]string{"Nope": "x"}}, []string{"CNIC"})
	assert.True(t, result.UnknownFields["Nope"])
	assert.False(t, result.UnknownFields["CNIC"])
}
