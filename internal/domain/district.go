package domain

import (
	"sort"
	"strings"
)

// SummarizeDistricts totals scored properties by district. Blank districts
// are grouped under UnknownDistrict. Rows are sorted by descending total risk.
func SummarizeDistricts(props []PropertyRisk) []DistrictRisk {
	var order []string
	totals := make(map[string]*DistrictRisk)
	for _, p := range props {
		name := strings.TrimSpace(p.District)
		if name == "" {
			name = UnknownDistrict
		}
		d, ok := totals[name]
		if !ok {
			d = &DistrictRisk{District: name}
			totals[name] = d
			order = append(order, name)
		}
		d.Properties++
		d.TotalRisk += p.RiskScore
		if p.BadLandlord {
			d.BadLandlordProperties++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]].TotalRisk > totals[order[j]].TotalRisk
	})

	out := make([]DistrictRisk, 0, len(order))
	for _, name := range order {
		d := *totals[name]
		d.TotalRisk = Round4(d.TotalRisk)
		if d.Properties > 0 {
			d.AvgRisk = Round4(d.TotalRisk / float64(d.Properties))
		}
		out = append(out, d)
	}
	return out
}
