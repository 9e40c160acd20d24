package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Registry source names recorded in Property.Sources.
const (
	SourceStudent    = "student"
	SourceSAM        = "sam"
	SourceAssessment = "assessment"
)

// RegistrySources holds the datasets merged into the property registry.
// Student housing is required; the address master and assessment roll
// only enrich it.
type RegistrySources struct {
	StudentHousing Table
	AddressMaster  Table
	Assessment     Table
}

// registryPass describes one merge pass: which columns to read, which fields
// it may fill on an existing entry, and whether address-less rows count.
type registryPass struct {
	source        string
	fields        []Field
	fills         []string
	requireAddr   bool
	table         func(RegistrySources) Table
	requiredTable bool
}

var registryPasses = []registryPass{
	{
		source:        SourceStudent,
		fields:        StudentHousingFields,
		fills:         []string{FieldLatitude, FieldLongitude, FieldOwner},
		table:         func(s RegistrySources) Table { return s.StudentHousing },
		requiredTable: true,
	},
	{
		source:      SourceSAM,
		fields:      AddressMasterFields,
		fills:       []string{FieldLatitude, FieldLongitude, FieldDistrict},
		requireAddr: true,
		table:       func(s RegistrySources) Table { return s.AddressMaster },
	},
	{
		source:      SourceAssessment,
		fields:      AssessmentFields,
		fills:       []string{FieldDistrict, FieldOwner},
		requireAddr: true,
		table:       func(s RegistrySources) Table { return s.Assessment },
	},
}

// BuildRegistry merges the registry sources keyed by MakeKey. Passes run in
// a fixed order and only ever fill fields that are still empty, so the first
// source to supply a value wins. Two distinct buildings that happen to share
// a key are merged silently. The result is sorted by key.
func BuildRegistry(src RegistrySources) ([]Property, error) {
	byKey := make(map[string]*Property)
	sources := make(map[string]map[string]struct{})

	for _, pass := range registryPasses {
		t := pass.table(src)
		if t.Empty() {
			if pass.requiredTable {
				return nil, fmt.Errorf("%s registry source: %w", pass.source, ErrMissingInput)
			}
			continue
		}
		cols, err := SelectColumns(t.Header, pass.fields)
		if err != nil {
			return nil, fmt.Errorf("%s registry source: %w", pass.source, err)
		}

		for _, row := range t.Rows {
			address := cols.Get(row, FieldAddress)
			if pass.requireAddr && address == "" {
				continue
			}
			district := cols.Get(row, FieldDistrict)
			key := MakeKey(address, district)

			p, ok := byKey[key]
			if !ok {
				p = &Property{
					Key:               key,
					NormalizedAddress: Normalize(address),
					Address:           address,
					District:          district,
				}
				byKey[key] = p
				sources[key] = make(map[string]struct{})
			}
			for _, f := range pass.fills {
				if !cols.Has(f) {
					continue
				}
				fillEmpty(p, f, cols.Get(row, f))
			}
			sources[key][pass.source] = struct{}{}
		}
	}

	out := make([]Property, 0, len(byKey))
	for key, p := range byKey {
		p.Sources = sortedSet(sources[key])
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func fillEmpty(p *Property, field, value string) {
	var dst *string
	switch field {
	case FieldLatitude:
		dst = &p.Latitude
	case FieldLongitude:
		dst = &p.Longitude
	case FieldDistrict:
		dst = &p.District
	case FieldOwner:
		dst = &p.Landlord
	default:
		return
	}
	if *dst == "" {
		*dst = value
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// PropertiesFromTable reads a registry file written by a previous build.
// Rows without a property key are skipped.
func PropertiesFromTable(t Table) ([]Property, error) {
	if t.Empty() {
		return nil, fmt.Errorf("property registry: %w", ErrMissingInput)
	}
	cols, err := SelectColumns(t.Header, RegistryFields)
	if err != nil {
		return nil, fmt.Errorf("property registry: %w", err)
	}

	props := make([]Property, 0, len(t.Rows))
	for _, row := range t.Rows {
		key := strings.TrimSpace(cols.Get(row, FieldKey))
		if key == "" {
			continue
		}
		address := cols.Get(row, FieldAddress)
		norm := cols.Get(row, FieldNormAddr)
		if norm == "" {
			norm = Normalize(address)
		}
		var srcs []string
		if s := cols.Get(row, FieldSources); s != "" {
			srcs = strings.Split(s, "|")
		}
		props = append(props, Property{
			Key:               key,
			NormalizedAddress: norm,
			Address:           address,
			District:          cols.Get(row, FieldDistrict),
			Latitude:          cols.Get(row, FieldLatitude),
			Longitude:         cols.Get(row, FieldLongitude),
			Landlord:          cols.Get(row, FieldOwner),
			Sources:           srcs,
		})
	}
	return props, nil
}
