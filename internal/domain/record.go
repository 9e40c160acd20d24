package domain

import "time"

// Row is one parsed CSV record keyed by its original header names.
type Row map[string]string

// Table is a parsed dataset. A zero Table means the dataset was not supplied.
type Table struct {
	Header []string
	Rows   []Row
}

// Empty reports whether the table has neither a header nor rows.
func (t Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// Event is a violation or service request reduced to the fields scoring needs.
type Event struct {
	Address  string `json:"address"`
	District string `json:"district,omitempty"`
	Severity string `json:"severity,omitempty"`
	Date     string `json:"date,omitempty"`
}

// LinkedEvent is an event together with the property it resolved to.
type LinkedEvent struct {
	Event
	Match Match `json:"match"`
}

// Property is one entry of the property registry.
type Property struct {
	Key               string   `json:"property_key"`
	NormalizedAddress string   `json:"normalized_address"`
	Address           string   `json:"address"`
	District          string   `json:"district"`
	Latitude          string   `json:"latitude,omitempty"`
	Longitude         string   `json:"longitude,omitempty"`
	Landlord          string   `json:"landlord"`
	Sources           []string `json:"sources,omitempty"`
}

// District sources for PropertyRisk.DistrictSource.
const (
	DistrictFromRegistry = "registry"
	DistrictFromSpatial  = "spatial"
)

// UnknownLandlord labels properties with no owner on record.
const UnknownLandlord = "UNKNOWN"

// UnknownDistrict labels properties with no district after attribution.
const UnknownDistrict = "UNKNOWN"

// PropertyRisk is the scored output row for one property.
type PropertyRisk struct {
	Key             string  `json:"property_key"`
	Address         string  `json:"address"`
	District        string  `json:"district"`
	DistrictSource  string  `json:"district_source"`
	Landlord        string  `json:"landlord"`
	Latitude        string  `json:"latitude,omitempty"`
	Longitude       string  `json:"longitude,omitempty"`
	ViolationEvents int     `json:"violation_events"`
	ServiceEvents   int     `json:"service_311_events"`
	ViolationScore  float64 `json:"violation_score"`
	ServiceScore    float64 `json:"service_311_score"`
	RiskScore       float64 `json:"risk_score"`
	BadLandlord     bool    `json:"bad_landlord"`
	Synthetic       bool    `json:"synthetic,omitempty"`
}

// LandlordRisk is the scored output row for one landlord.
type LandlordRisk struct {
	Landlord        string  `json:"landlord"`
	Properties      int     `json:"properties"`
	RiskScore       float64 `json:"risk_score"`
	ViolationEvents int     `json:"violation_events"`
	ServiceEvents   int     `json:"service_311_events"`
	BadLandlord     bool    `json:"bad_landlord"`
}

// DistrictRisk summarizes scored properties per district.
type DistrictRisk struct {
	District              string  `json:"district"`
	Properties            int     `json:"properties"`
	TotalRisk             float64 `json:"total_risk"`
	AvgRisk               float64 `json:"avg_risk"`
	BadLandlordProperties int     `json:"bad_landlord_properties"`
}

// YearlyTrend totals the student housing roster for one (year, district).
type YearlyTrend struct {
	Year            string  `json:"year"`
	District        string  `json:"district"`
	Records         int     `json:"records"`
	Students        int     `json:"students"`
	Units           int     `json:"units"`
	StudentsPerUnit float64 `json:"students_per_unit"`
}

// Dataset names used in match provenance counts.
const (
	DatasetViolations      = "violations"
	DatasetServiceRequests = "service_requests"
)

// Result is the full output of one scoring run.
type Result struct {
	RunID            string                       `json:"run_id,omitempty"`
	ComputedAt       time.Time                    `json:"computed_at"`
	ReferenceDate    time.Time                    `json:"reference_date"`
	Registry         []Property                   `json:"-"`
	Properties       []PropertyRisk               `json:"properties"`
	Landlords        []LandlordRisk               `json:"landlords"`
	Districts        []DistrictRisk               `json:"districts"`
	YearlyTrend      []YearlyTrend                `json:"yearly_trend"`
	MatchCounts      map[string]map[MatchType]int `json:"match_counts"`
	SpatialOverrides int                          `json:"spatial_overrides"`
}

// BadLandlordCount returns the number of landlords flagged in r.
func (r *Result) BadLandlordCount() int {
	n := 0
	for _, l := range r.Landlords {
		if l.BadLandlord {
			n++
		}
	}
	return n
}
