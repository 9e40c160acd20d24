package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testOptions() RiskOptions {
	opts := DefaultRiskOptions()
	opts.Today = testToday
	return opts
}

func TestAssess_BadLandlordAtThreshold(t *testing.T) {
	key := MakeKey("10 Acme Way", "D1")
	registry := []Property{{Key: key, Address: "10 Acme Way", District: "D1", Landlord: "Acme"}}
	violations := []Event{
		{Address: "10 Acme Way", Severity: "critical", Date: "2024-06-01"},
		{Address: "10 ACME WAY", Severity: "minor", Date: "2024-06-01"},
	}

	res := Assess(registry, violations, nil, testOptions())

	require.Len(t, res.Properties, 1)
	p := res.Properties[0]
	assert.Equal(t, key, p.Key)
	assert.Equal(t, 6.0, p.ViolationScore)
	assert.Equal(t, 0.0, p.ServiceScore)
	assert.Equal(t, 6.0, p.RiskScore)
	assert.Equal(t, 2, p.ViolationEvents)
	assert.True(t, p.BadLandlord)
	assert.False(t, p.Synthetic)

	require.Len(t, res.Landlords, 1)
	assert.Equal(t, LandlordRisk{
		Landlord:        "Acme",
		Properties:      1,
		RiskScore:       6.0,
		ViolationEvents: 2,
		BadLandlord:     true,
	}, res.Landlords[0])
	assert.Equal(t, 1, res.BadLandlordCount())
	assert.Equal(t, 2, res.MatchCounts[DatasetViolations][MatchExact])
}

func TestAssess_RiskFormula(t *testing.T) {
	registry := []Property{{Key: "k1", Address: "1 A St", Landlord: "Solo"}}
	violations := []Event{{Address: "1 A St", Severity: "medium"}}
	requests := []Event{{Address: "1 A Street", Severity: "noise"}}

	res := Assess(registry, violations, requests, testOptions())

	require.Len(t, res.Properties, 1)
	p := res.Properties[0]
	assert.Equal(t, 2.0, p.ViolationScore)
	assert.Equal(t, 1.5, p.ServiceScore)
	assert.Equal(t, 2.6, p.RiskScore)
	assert.Equal(t, 1, p.ServiceEvents)
	assert.False(t, p.BadLandlord)
	assert.Equal(t, 1, res.MatchCounts[DatasetServiceRequests][MatchExact])
}

func TestAssess_GeneratedKeyFormsSyntheticProperty(t *testing.T) {
	registry := []Property{{Key: "k1", Address: "10 Acme Way", District: "D1", Landlord: "Acme"}}
	violations := []Event{
		{Address: "77 Unrelated Blvd", District: "D9", Severity: ""},
		{Address: "77 unrelated boulevard", District: "d9", Severity: "high"},
	}

	res := Assess(registry, violations, nil, testOptions())

	wantKey := MakeKey("77 Unrelated Blvd", "D9")
	assert.NotEqual(t, "k1", wantKey)
	assert.Equal(t, 2, res.MatchCounts[DatasetViolations][MatchGenerated])

	require.Len(t, res.Properties, 2)
	synth := res.Properties[0]
	assert.Equal(t, wantKey, synth.Key)
	assert.True(t, synth.Synthetic)
	assert.Equal(t, "77 Unrelated Blvd", synth.Address)
	assert.Equal(t, "D9", synth.District)
	assert.Equal(t, UnknownLandlord, synth.Landlord)
	assert.Equal(t, 2, synth.ViolationEvents)
	assert.Equal(t, 4.5, synth.RiskScore)

	registered := res.Properties[1]
	assert.Equal(t, "k1", registered.Key)
	assert.Zero(t, registered.RiskScore)

	require.Len(t, res.Registry, 1, "synthetic properties are not registry entries")
	assert.Equal(t, "k1", res.Registry[0].Key)
}

func TestScoreRisk_LandlordGrouping(t *testing.T) {
	registry := []Property{
		{Key: "a", Address: "1 A St", Landlord: "Acme"},
		{Key: "b", Address: "2 B St", Landlord: "  ACME  "},
		{Key: "c", Address: "3 C St", Landlord: "Acme Corp"},
		{Key: "d", Address: "4 D St", Landlord: ""},
		{Key: "e", Address: "5 E St", Landlord: "   "},
	}
	violations := []LinkedEvent{
		{Event: Event{Severity: "high"}, Match: Match{Key: "a", Type: MatchExact, Score: 1}},
		{Event: Event{Severity: "high"}, Match: Match{Key: "b", Type: MatchExact, Score: 1}},
		{Event: Event{Severity: "severe"}, Match: Match{Key: "c", Type: MatchFuzzy, Score: 0.7}},
		{Event: Event{Severity: "low"}, Match: Match{Key: "d", Type: MatchExact, Score: 1}},
	}

	res := ScoreRisk(registry, violations, nil, testOptions())

	require.Len(t, res.Landlords, 3)
	assert.Equal(t, "Acme", res.Landlords[0].Landlord, "first spelling is displayed")
	assert.Equal(t, 2, res.Landlords[0].Properties)
	assert.Equal(t, 6.0, res.Landlords[0].RiskScore)
	assert.True(t, res.Landlords[0].BadLandlord)

	assert.Equal(t, "Acme Corp", res.Landlords[1].Landlord)
	assert.Equal(t, 4.0, res.Landlords[1].RiskScore)
	assert.False(t, res.Landlords[1].BadLandlord)

	assert.Equal(t, UnknownLandlord, res.Landlords[2].Landlord)
	assert.Equal(t, 2, res.Landlords[2].Properties)

	flagged := map[string]bool{}
	for _, p := range res.Properties {
		flagged[p.Key] = p.BadLandlord
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": false, "d": false, "e": false}, flagged,
		"flag propagates to every property of a bad landlord")
	assert.Equal(t, 1, res.MatchCounts[DatasetViolations][MatchFuzzy])
}

func TestScoreRisk_SortedDescendingStable(t *testing.T) {
	registry := []Property{
		{Key: "p1", Landlord: "L1"},
		{Key: "p2", Landlord: "L2"},
		{Key: "p3", Landlord: "L3"},
		{Key: "p4", Landlord: "L4"},
	}
	violations := []LinkedEvent{
		{Event: Event{Severity: "low"}, Match: Match{Key: "p1"}},
		{Event: Event{Severity: "critical"}, Match: Match{Key: "p2"}},
		{Event: Event{Severity: "low"}, Match: Match{Key: "p3"}},
	}

	res := ScoreRisk(registry, violations, nil, testOptions())

	var keys []string
	for _, p := range res.Properties {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"p2", "p1", "p3", "p4"}, keys)

	var names []string
	for _, l := range res.Landlords {
		names = append(names, l.Landlord)
	}
	assert.Equal(t, []string{"L2", "L1", "L3", "L4"}, names)
}

func TestScoreRisk_SpatialOverride(t *testing.T) {
	opts := testOptions()
	opts.Features = []Feature{{District: "Allston", Polygons: []Polygon{{square(-72, 42, -71, 43)}}}}

	registry := []Property{
		{Key: "in", District: "D1", Latitude: "42.35", Longitude: "-71.13"},
		{Key: "out", District: "D2", Latitude: "40.0", Longitude: "-71.13"},
		{Key: "bad", District: "D3", Latitude: "n/a", Longitude: "-71.13"},
		{Key: "none", District: ""},
	}

	res := ScoreRisk(registry, nil, nil, opts)

	byKey := map[string]PropertyRisk{}
	for _, p := range res.Properties {
		byKey[p.Key] = p
	}
	assert.Equal(t, "Allston", byKey["in"].District)
	assert.Equal(t, DistrictFromSpatial, byKey["in"].DistrictSource)
	assert.Equal(t, "D2", byKey["out"].District)
	assert.Equal(t, DistrictFromRegistry, byKey["out"].DistrictSource)
	assert.Equal(t, "D3", byKey["bad"].District)
	assert.Empty(t, byKey["none"].District)
	assert.Equal(t, 1, res.SpatialOverrides)

	var districts []string
	for _, d := range res.Districts {
		districts = append(districts, d.District)
	}
	assert.ElementsMatch(t, []string{"Allston", "D2", "D3", UnknownDistrict}, districts)
}

func TestScoreRisk_DuplicateRegistryKey(t *testing.T) {
	registry := []Property{
		{Key: "k", Address: "1 A St", Landlord: "First"},
		{Key: "other", Address: "2 B St", Landlord: "Other"},
		{Key: "k", Address: "1 A Street", Landlord: "Second"},
	}

	res := ScoreRisk(registry, nil, nil, testOptions())

	require.Len(t, res.Properties, 2)
	assert.Equal(t, "k", res.Properties[0].Key)
	assert.Equal(t, "Second", res.Properties[0].Landlord)
	require.Len(t, res.Registry, 2)
}

func TestScoreRisk_DefaultsToClock(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	registry := []Property{{Key: "k", Landlord: "Acme"}}
	violations := []LinkedEvent{{Event: Event{Severity: "critical", Date: "2024-06-01"}, Match: Match{Key: "k"}}}

	opts := DefaultRiskOptions()
	res := ScoreRisk(registry, violations, nil, opts)

	assert.Equal(t, testToday, res.ReferenceDate)
	assert.Equal(t, 5.0, res.Properties[0].RiskScore)
}

func TestScoreRisk_Empty(t *testing.T) {
	res := ScoreRisk(nil, nil, nil, testOptions())
	assert.Empty(t, res.Properties)
	assert.Empty(t, res.Landlords)
	assert.Empty(t, res.Districts)
	assert.Zero(t, res.BadLandlordCount())
	assert.NotNil(t, res.MatchCounts[DatasetViolations])
}

func TestLinkEvents_PreservesOrder(t *testing.T) {
	idx := NewAddressIndex(testRegistry())
	events := []Event{
		{Address: "45 Elm Ave"},
		{Address: "123 Main St"},
		{Address: "nowhere"},
	}

	linked := LinkEvents(events, idx, DefaultMatchThreshold)

	require.Len(t, linked, 3)
	assert.Equal(t, "k2", linked[0].Match.Key)
	assert.Equal(t, "k1", linked[1].Match.Key)
	assert.Equal(t, MatchGenerated, linked[2].Match.Type)
	assert.Equal(t, events[1], linked[1].Event)
}

func TestSummarizeDistricts(t *testing.T) {
	props := []PropertyRisk{
		{District: "D1", RiskScore: 1.0, BadLandlord: true},
		{District: "", RiskScore: 5.0},
		{District: "D1", RiskScore: 1.0},
		{District: "D1", RiskScore: 2.0},
		{District: " ", RiskScore: 0.5, BadLandlord: true},
		{District: "D2", RiskScore: 0},
	}

	got := SummarizeDistricts(props)

	assert.Equal(t, []DistrictRisk{
		{District: UnknownDistrict, Properties: 2, TotalRisk: 5.5, AvgRisk: 2.75, BadLandlordProperties: 1},
		{District: "D1", Properties: 3, TotalRisk: 4.0, AvgRisk: 1.3333, BadLandlordProperties: 1},
		{District: "D2", Properties: 1, TotalRisk: 0, AvgRisk: 0},
	}, got)
}
