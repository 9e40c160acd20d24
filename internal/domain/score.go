package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSeverityWeight applies when no severity keyword is found.
	DefaultSeverityWeight = 1.5
	// DefaultDecayLambda is the yearly exponential decay rate.
	DefaultDecayLambda = 0.25
	// ServiceRequestWeight scales 311 scores relative to formal violations.
	ServiceRequestWeight = 0.4

	daysPerYear   = 365.25
	maxDateLength = 19
)

type severityKeyword struct {
	keyword string
	weight  float64
}

// severityTable is scanned in order; the first keyword contained in the
// text wins, so "minor fire hazard" scores as minor.
var severityTable = []severityKeyword{
	{"low", 1.0},
	{"minor", 1.0},
	{"medium", 2.0},
	{"moderate", 2.0},
	{"high", 3.0},
	{"major", 3.0},
	{"severe", 4.0},
	{"critical", 5.0},
	{"unsafe", 5.0},
	{"hazard", 4.5},
	{"fire", 5.0},
	{"emergency", 5.0},
}

// dateLayouts are tried in order against the first 19 characters.
var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2006/1/2",
	"2006-1-2 15:4:5",
	"1/2/2006 15:4:5",
}

// leadingDateRe recovers ISO dates followed by anything, e.g. "2024-03-01T10:00:00Z".
var leadingDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// SeverityWeight maps free-text severity to a numeric weight.
func SeverityWeight(text string) float64 {
	t := strings.ToLower(text)
	for _, s := range severityTable {
		if strings.Contains(t, s.keyword) {
			return s.weight
		}
	}
	return DefaultSeverityWeight
}

// ParseDate reads a date in any of the supported export formats. The
// returned time is UTC midnight. ok is false for empty or unparseable text.
func ParseDate(text string) (time.Time, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return time.Time{}, false
	}

	head := raw
	if len(head) > maxDateLength {
		head = head[:maxDateLength]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, head); err == nil {
			return civilDate(t), true
		}
	}

	m := leadingDateRe.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (2024-02-30 → March 1); reject instead.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// YearsOld is the age of date relative to today in years of 365.25 days.
// A zero date and any non-positive span count as age 0.
func YearsOld(date, today time.Time) float64 {
	if date.IsZero() {
		return 0
	}
	days := int(civilDate(today).Sub(civilDate(date)).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return float64(days) / daysPerYear
}

// DecayWeight is exp(−lambda · YearsOld). It lies in (0, 1] for lambda ≥ 0
// and is exactly 1 for undated, same-day and future-dated events.
func DecayWeight(date time.Time, lambda float64, today time.Time) float64 {
	return math.Exp(-lambda * YearsOld(date, today))
}

// WeightedEventsScore sums severity × decay over events, rounded to 4 places.
func WeightedEventsScore(events []Event, lambda float64, today time.Time) float64 {
	score := 0.0
	for _, e := range events {
		date, _ := ParseDate(e.Date)
		score += SeverityWeight(e.Severity) * DecayWeight(date, lambda, today)
	}
	return Round4(score)
}

// Round4 rounds to 4 decimal places, half away from zero.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Round2 rounds to 2 decimal places, half away from zero. Ratios use it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
