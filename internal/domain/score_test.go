package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityWeight(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Critical", 5.0},
		{"UNSAFE structure", 5.0},
		{"Fire exit blocked", 5.0},
		{"emergency", 5.0},
		{"hazard", 4.5},
		{"Severe", 4.0},
		{"High", 3.0},
		{"major defect", 3.0},
		{"medium", 2.0},
		{"Moderate", 2.0},
		{"low", 1.0},
		{"minor fire hazard", 1.0},
		{"high fire risk", 3.0},
		{"", DefaultSeverityWeight},
		{"trash overflowing", 1.0},
		{"noise complaint", DefaultSeverityWeight},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityWeight(tt.text))
		})
	}
}

func TestParseDate(t *testing.T) {
	march1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		in     string
		want   time.Time
		wantOK bool
	}{
		{"iso", "2024-03-01", march1, true},
		{"us", "03/01/2024", march1, true},
		{"slashed iso", "2024/03/01", march1, true},
		{"iso with time", "2024-03-01 10:20:30", march1, true},
		{"us with time", "03/01/2024 10:20:30", march1, true},
		{"unpadded us", "3/1/2024", march1, true},
		{"rfc3339 via prefix", "2024-03-01T10:20:30Z", march1, true},
		{"long suffix truncated", "2024-03-01 10:20:30.123456", march1, true},
		{"surrounding space", "  2024-03-01  ", march1, true},
		{"invalid day", "2024-02-30", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			require.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestYearsOld(t *testing.T) {
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 366/daysPerYear, YearsOld(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), today), 1e-12)
	assert.Zero(t, YearsOld(today, today), "same day")
	assert.Zero(t, YearsOld(today.AddDate(0, 0, 10), today), "future")
	assert.Zero(t, YearsOld(time.Time{}, today), "undated")
}

func TestDecayWeight(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("one at age zero", func(t *testing.T) {
		assert.Equal(t, 1.0, DecayWeight(today, DefaultDecayLambda, today))
		assert.Equal(t, 1.0, DecayWeight(today.AddDate(1, 0, 0), DefaultDecayLambda, today))
		assert.Equal(t, 1.0, DecayWeight(time.Time{}, DefaultDecayLambda, today))
	})

	t.Run("monotonically non-increasing", func(t *testing.T) {
		prev := 1.0
		for _, days := range []int{0, 1, 30, 365, 366, 1000, 3650, 36500} {
			w := DecayWeight(today.AddDate(0, 0, -days), DefaultDecayLambda, today)
			assert.LessOrEqual(t, w, prev, "age %d days", days)
			assert.Greater(t, w, 0.0)
			prev = w
		}
	})

	t.Run("zero lambda never decays", func(t *testing.T) {
		assert.Equal(t, 1.0, DecayWeight(today.AddDate(-20, 0, 0), 0, today))
	})
}

func TestWeightedEventsScore(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedEventsScore(nil, DefaultDecayLambda, today))
	})

	t.Run("dated today", func(t *testing.T) {
		events := []Event{
			{Severity: "critical", Date: "2024-06-01"},
			{Severity: "minor", Date: "06/01/2024"},
		}
		assert.Equal(t, 6.0, WeightedEventsScore(events, DefaultDecayLambda, today))
	})

	t.Run("undated counts in full", func(t *testing.T) {
		events := []Event{{Severity: "high", Date: "unknown"}}
		assert.Equal(t, 3.0, WeightedEventsScore(events, DefaultDecayLambda, today))
	})

	t.Run("year old event decays", func(t *testing.T) {
		events := []Event{{Severity: "high", Date: "2023-06-01"}}
		want := Round4(3.0 * math.Exp(-DefaultDecayLambda*366/daysPerYear))
		assert.Equal(t, want, WeightedEventsScore(events, DefaultDecayLambda, today))
	})
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 2.6, Round4(2.0+ServiceRequestWeight*1.5))
	assert.Equal(t, 1.2346, Round4(1.23456))
	assert.Equal(t, 0.0, Round4(0.00004))
	assert.Equal(t, 5.0, Round4(4.99999))
}
