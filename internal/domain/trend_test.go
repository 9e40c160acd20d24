package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeYearlyTrend(t *testing.T) {
	roster := Table{
		Header: []string{"address", "district", "year", "student_count", "units"},
		Rows: []Row{
			{"district": "D2", "year": "2023", "student_count": "10", "units": "3"},
			{"district": "D1", "year": "2023", "student_count": "4", "units": "2"},
			{"district": "D2", "year": "2023", "student_count": "5", "units": "3"},
			{"district": "D1", "year": "2022", "student_count": "7", "units": ""},
			{"district": " ", "year": "", "student_count": "many", "units": "1"},
		},
	}

	got := SummarizeYearlyTrend(roster)

	want := []YearlyTrend{
		{Year: "2022", District: "D1", Records: 1, Students: 7, Units: 0, StudentsPerUnit: 0},
		{Year: "2023", District: "D1", Records: 1, Students: 4, Units: 2, StudentsPerUnit: 2},
		{Year: "2023", District: "D2", Records: 2, Students: 15, Units: 6, StudentsPerUnit: 2.5},
		{Year: UnknownDistrict, District: UnknownDistrict, Records: 1, Students: 0, Units: 1, StudentsPerUnit: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SummarizeYearlyTrend mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeYearlyTrend_RatioRounding(t *testing.T) {
	roster := Table{Rows: []Row{
		{"district": "D1", "year": "2024", "student_count": "10", "units": "3"},
	}}

	got := SummarizeYearlyTrend(roster)

	assert.Len(t, got, 1)
	assert.InDelta(t, 3.33, got[0].StudentsPerUnit, 1e-9)
}

func TestSummarizeYearlyTrend_Empty(t *testing.T) {
	assert.Empty(t, SummarizeYearlyTrend(Table{}))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{" 12 ", 12},
		{"012", 12},
		{"000", 0},
		{"", 0},
		{"-3", -3},
		{"+5", 5},
		{"twelve", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCount(tt.in))
		})
	}
}
