package domain

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// SummarizeYearlyTrend groups roster rows by year and district and sums
// records, students and units. Blank years or districts group under
// UnknownDistrict. Malformed counts contribute 0. Rows are sorted by year,
// then district.
func SummarizeYearlyTrend(t Table) []YearlyTrend {
	type groupKey struct{ year, district string }
	groups := make(map[groupKey]*YearlyTrend)
	for _, row := range t.Rows {
		k := groupKey{year: orUnknown(row["year"]), district: orUnknown(row["district"])}
		g, ok := groups[k]
		if !ok {
			g = &YearlyTrend{Year: k.year, District: k.district}
			groups[k] = g
		}
		g.Records++
		g.Students += parseCount(row["student_count"])
		g.Units += parseCount(row["units"])
	}

	out := make([]YearlyTrend, 0, len(groups))
	for _, g := range groups {
		if g.Units > 0 {
			g.StudentsPerUnit = Round2(float64(g.Students) / float64(g.Units))
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].District < out[j].District
	})
	return out
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return UnknownDistrict
	}
	return s
}

// parseCount reads a base-10 integer, returning 0 for blank or malformed
// input. Leading zeros are stripped so "012" is twelve.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	if trimmed := strings.TrimLeft(s, "0"); trimmed != s {
		if trimmed == "" {
			return 0
		}
		s = trimmed
	}
	if s == "" {
		return 0
	}
	return cast.ToInt(sign + s)
}
