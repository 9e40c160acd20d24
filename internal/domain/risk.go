package domain

import (
	"sort"
	"strings"
	"time"
)

// DefaultBadLandlordThreshold is the landlord risk at which the flag is set.
const DefaultBadLandlordThreshold = 6.0

// RiskOptions tunes a scoring run.
type RiskOptions struct {
	MatchThreshold       float64
	BadLandlordThreshold float64
	DecayLambda          float64
	// Today anchors event ages. Zero means the package clock's current date.
	Today time.Time
	// Features enables spatial district attribution when non-empty.
	Features []Feature
}

// DefaultRiskOptions returns the standard thresholds with no spatial layer.
func DefaultRiskOptions() RiskOptions {
	return RiskOptions{
		MatchThreshold:       DefaultMatchThreshold,
		BadLandlordThreshold: DefaultBadLandlordThreshold,
		DecayLambda:          DefaultDecayLambda,
	}
}

// LinkEvents resolves every event against idx in input order.
func LinkEvents(events []Event, idx *AddressIndex, threshold float64) []LinkedEvent {
	out := make([]LinkedEvent, len(events))
	for i, e := range events {
		out[i] = LinkedEvent{Event: e, Match: idx.Resolve(e.Address, e.District, threshold)}
	}
	return out
}

// Assess links raw violation and service request events to the registry and
// scores them in one call.
func Assess(registry []Property, violations, requests []Event, opts RiskOptions) Result {
	idx := NewAddressIndex(registry)
	return ScoreRisk(
		registry,
		LinkEvents(violations, idx, opts.MatchThreshold),
		LinkEvents(requests, idx, opts.MatchThreshold),
		opts,
	)
}

// propertyEvents accumulates the events resolved to one property key.
type propertyEvents struct {
	violations []Event
	requests   []Event
	synthetic  *Property
}

// landlordTotals accumulates a landlord's properties before rounding.
type landlordTotals struct {
	name       string
	properties int
	risk       float64
	violations int
	requests   int
}

// ScoreRisk aggregates linked events per property and landlord. Every
// registry property gets a row. Events whose key is not in the registry
// (generated matches) form synthetic properties appended in first-seen
// order. Properties, landlords and districts are each sorted by descending
// risk; ties keep input order.
func ScoreRisk(registry []Property, violations, requests []LinkedEvent, opts RiskOptions) Result {
	today := opts.Today
	if today.IsZero() {
		today = Today()
	}
	today = civilDate(today)

	order, props := dedupeRegistry(registry)
	events := make(map[string]*propertyEvents, len(order))
	for _, key := range order {
		events[key] = &propertyEvents{}
	}

	counts := map[string]map[MatchType]int{
		DatasetViolations:      make(map[MatchType]int),
		DatasetServiceRequests: make(map[MatchType]int),
	}
	attach := func(dataset string, linked []LinkedEvent, isViolation bool) {
		for _, le := range linked {
			counts[dataset][le.Match.Type]++
			pe, ok := events[le.Match.Key]
			if !ok {
				pe = &propertyEvents{synthetic: &Property{
					Key:               le.Match.Key,
					NormalizedAddress: Normalize(le.Address),
					Address:           le.Address,
					District:          le.District,
				}}
				events[le.Match.Key] = pe
				order = append(order, le.Match.Key)
				props[le.Match.Key] = *pe.synthetic
			}
			if isViolation {
				pe.violations = append(pe.violations, le.Event)
			} else {
				pe.requests = append(pe.requests, le.Event)
			}
		}
	}
	attach(DatasetViolations, violations, true)
	attach(DatasetServiceRequests, requests, false)

	rows := make([]PropertyRisk, 0, len(order))
	landlordOrder := make([]string, 0)
	landlords := make(map[string]*landlordTotals)
	overrides := 0

	for _, key := range order {
		p := props[key]
		pe := events[key]
		vScore := WeightedEventsScore(pe.violations, opts.DecayLambda, today)
		rScore := WeightedEventsScore(pe.requests, opts.DecayLambda, today)

		name := strings.TrimSpace(p.Landlord)
		if name == "" {
			name = UnknownLandlord
		}

		row := PropertyRisk{
			Key:             key,
			Address:         p.Address,
			District:        p.District,
			DistrictSource:  DistrictFromRegistry,
			Landlord:        name,
			Latitude:        p.Latitude,
			Longitude:       p.Longitude,
			ViolationEvents: len(pe.violations),
			ServiceEvents:   len(pe.requests),
			ViolationScore:  vScore,
			ServiceScore:    rScore,
			RiskScore:       Round4(vScore + ServiceRequestWeight*rScore),
			Synthetic:       pe.synthetic != nil,
		}
		if d, ok := ResolveDistrictText(p.Latitude, p.Longitude, opts.Features); ok && d != "" {
			row.District = d
			row.DistrictSource = DistrictFromSpatial
			overrides++
		}
		rows = append(rows, row)

		gk := LandlordGroupKey(name)
		lt, ok := landlords[gk]
		if !ok {
			lt = &landlordTotals{name: name}
			landlords[gk] = lt
			landlordOrder = append(landlordOrder, gk)
		}
		lt.properties++
		lt.risk += row.RiskScore
		lt.violations += row.ViolationEvents
		lt.requests += row.ServiceEvents
	}

	// Sort on the unrounded sums, then round for output.
	sort.SliceStable(landlordOrder, func(i, j int) bool {
		return landlords[landlordOrder[i]].risk > landlords[landlordOrder[j]].risk
	})
	landlordRows := make([]LandlordRisk, 0, len(landlordOrder))
	bad := make(map[string]bool)
	for _, gk := range landlordOrder {
		lt := landlords[gk]
		risk := Round4(lt.risk)
		isBad := risk >= opts.BadLandlordThreshold
		bad[gk] = isBad
		landlordRows = append(landlordRows, LandlordRisk{
			Landlord:        lt.name,
			Properties:      lt.properties,
			RiskScore:       risk,
			ViolationEvents: lt.violations,
			ServiceEvents:   lt.requests,
			BadLandlord:     isBad,
		})
	}

	for i := range rows {
		rows[i].BadLandlord = bad[LandlordGroupKey(rows[i].Landlord)]
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RiskScore > rows[j].RiskScore })

	registryOut := make([]Property, 0, len(registry))
	for _, key := range order {
		if events[key].synthetic == nil {
			registryOut = append(registryOut, props[key])
		}
	}

	return Result{
		ReferenceDate:    today,
		Registry:         registryOut,
		Properties:       rows,
		Landlords:        landlordRows,
		Districts:        SummarizeDistricts(rows),
		MatchCounts:      counts,
		SpatialOverrides: overrides,
	}
}

// LandlordGroupKey is the identity used to group properties by landlord:
// trimmed, whitespace-collapsed, case-folded. Spelling variants stay distinct.
func LandlordGroupKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// dedupeRegistry returns keys in first-seen order. A repeated key keeps its
// first position and takes the later entry's fields.
func dedupeRegistry(registry []Property) ([]string, map[string]Property) {
	order := make([]string, 0, len(registry))
	props := make(map[string]Property, len(registry))
	for _, p := range registry {
		if _, ok := props[p.Key]; !ok {
			order = append(order, p.Key)
		}
		props[p.Key] = p
	}
	return order, props
}
