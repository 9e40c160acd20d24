package domain

import (
	"fmt"
	"strings"
)

// Field declares a semantic column, the header names that may carry it
// (checked in order, case-insensitively), and whether it must be present.
type Field struct {
	Name       string
	Candidates []string
	Required   bool
}

// Semantic field names.
const (
	FieldAddress   = "address"
	FieldDistrict  = "district"
	FieldSeverity  = "severity"
	FieldDate      = "date"
	FieldOwner     = "owner"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldKey       = "property_key"
	FieldNormAddr  = "normalized_address"
	FieldSources   = "sources"
)

var (
	districtCandidates = []string{"district", "city_council_district", "council_district"}
	dateCandidates     = []string{
		"date", "date_issued", "violation_date", "open_dt", "closed_dt",
		"requested_datetime", "request_date", "issued_date", "event_date",
	}
	ownerCandidates     = []string{"owner_name", "owner", "landlord", "property_owner"}
	latitudeCandidates  = []string{"latitude", "lat", "y"}
	longitudeCandidates = []string{"longitude", "lon", "lng", "x"}
)

// ViolationFields selects columns from a code violations export.
var ViolationFields = []Field{
	{Name: FieldAddress, Candidates: []string{"address", "location", "street_address", "full_address", "violation_address"}, Required: true},
	{Name: FieldDistrict, Candidates: districtCandidates},
	{Name: FieldSeverity, Candidates: []string{"severity", "code_severity", "violation_level", "description"}},
	{Name: FieldDate, Candidates: dateCandidates},
}

// ServiceRequestFields selects columns from a 311 service request export.
var ServiceRequestFields = []Field{
	{Name: FieldAddress, Candidates: []string{"address", "location", "street_address", "full_address"}, Required: true},
	{Name: FieldDistrict, Candidates: districtCandidates},
	{Name: FieldSeverity, Candidates: []string{"case_title", "subject", "reason", "type"}},
	{Name: FieldDate, Candidates: dateCandidates},
}

// StudentHousingFields selects columns from the cleaned student housing roster.
var StudentHousingFields = []Field{
	{Name: FieldAddress, Candidates: []string{"address", "street_address", "property_address"}},
	{Name: FieldDistrict, Candidates: districtCandidates},
	{Name: FieldLatitude, Candidates: latitudeCandidates},
	{Name: FieldLongitude, Candidates: longitudeCandidates},
	{Name: FieldOwner, Candidates: []string{"landlord", "owner", "owner_name", "property_owner"}},
}

// AddressMasterFields selects columns from the street address master.
var AddressMasterFields = []Field{
	{Name: FieldAddress, Candidates: []string{"address", "full_address", "street_address"}},
	{Name: FieldDistrict, Candidates: districtCandidates},
	{Name: FieldLatitude, Candidates: latitudeCandidates},
	{Name: FieldLongitude, Candidates: longitudeCandidates},
}

// AssessmentFields selects columns from the property assessment roll.
var AssessmentFields = []Field{
	{Name: FieldAddress, Candidates: []string{"address", "property_address", "street_address"}},
	{Name: FieldDistrict, Candidates: districtCandidates},
	{Name: FieldOwner, Candidates: ownerCandidates},
}

// RegistryFields selects columns from a previously built registry file.
var RegistryFields = []Field{
	{Name: FieldKey, Candidates: []string{"property_key"}, Required: true},
	{Name: FieldAddress, Candidates: []string{"address"}, Required: true},
	{Name: FieldDistrict, Candidates: []string{"district"}},
	{Name: FieldLatitude, Candidates: []string{"latitude"}},
	{Name: FieldLongitude, Candidates: []string{"longitude"}},
	{Name: FieldOwner, Candidates: []string{"landlord"}},
	{Name: FieldNormAddr, Candidates: []string{"normalized_address"}},
	{Name: FieldSources, Candidates: []string{"sources"}},
}

// Columns maps semantic field names to the header names found in a dataset.
type Columns struct {
	byField map[string]string
}

// SelectColumns resolves each field against header. Header names are
// compared trimmed and lower-cased; the first candidate present wins.
// A missing required field is an error wrapping ErrMissingColumn.
func SelectColumns(header []string, fields []Field) (Columns, error) {
	lookup := make(map[string]string, len(header))
	for _, h := range header {
		lookup[strings.ToLower(strings.TrimSpace(h))] = h
	}

	cols := Columns{byField: make(map[string]string, len(fields))}
	for _, f := range fields {
		for _, c := range f.Candidates {
			if h, ok := lookup[c]; ok {
				cols.byField[f.Name] = h
				break
			}
		}
		if _, ok := cols.byField[f.Name]; !ok && f.Required {
			return Columns{}, fmt.Errorf("%w: %s (tried %s)", ErrMissingColumn, f.Name, strings.Join(f.Candidates, ", "))
		}
	}
	return cols, nil
}

// Has reports whether the field was found in the header.
func (c Columns) Has(field string) bool {
	_, ok := c.byField[field]
	return ok
}

// Get reads field from row, returning "" when the column is absent.
func (c Columns) Get(row Row, field string) string {
	h, ok := c.byField[field]
	if !ok {
		return ""
	}
	return row[h]
}

// EventsFromTable extracts scoring events from a violations or service request
// table. A table that was not supplied yields no events.
func EventsFromTable(t Table, fields []Field) ([]Event, error) {
	if t.Empty() {
		return nil, nil
	}
	cols, err := SelectColumns(t.Header, fields)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(t.Rows))
	for _, row := range t.Rows {
		events = append(events, Event{
			Address:  cols.Get(row, FieldAddress),
			District: cols.Get(row, FieldDistrict),
			Severity: cols.Get(row, FieldSeverity),
			Date:     cols.Get(row, FieldDate),
		})
	}
	return events, nil
}
