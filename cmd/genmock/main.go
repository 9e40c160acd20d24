// Command genmock generates a deterministic synthetic city export: a student
// housing roster, address master, assessment roll, code violations, 311
// requests and council district boundaries. It then scores the data with the
// real domain package under a fixed clock and prints the figures tests and
// demos assert on.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data -properties 200 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
)

var referenceDate = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

// City bounding box, split into equal-width district strips west to east.
const (
	minLon, maxLon = -71.20, -71.00
	minLat, maxLat = 42.30, 42.40
	districtCount  = 4
)

var (
	streets = []string{
		"Commonwealth Avenue", "Beacon Street", "Harvard Avenue", "Brighton Avenue",
		"Gordon Street", "Allston Street", "Park Drive", "Boylston Street",
		"Mission Hill Road", "Saint Alphonsus Street",
	}
	landlords = []string{
		"Acme Property Mgmt", "Beacon Holdings LLC", "Calm Realty", "Dorm Co",
		"Elm Street Trust", "Fenway Rentals", "Granite Partners", "Harbor Homes",
	}
	violationTypes = []string{
		"Unsafe structure", "Fire alarm missing", "Rodent infestation", "Heat not working",
		"Mold in unit", "Overcrowding", "Peeling paint", "Minor trash issue", "Debris on porch",
	}
	requestTypes = []string{
		"Noise disturbance", "Improper trash storage", "Rodent activity", "Heat complaint",
		"Unsafe building", "Graffiti removal",
	}
)

type property struct {
	address  string
	district string
	landlord string
	lon, lat float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data", "root directory for raw/ and processed/ outputs")
	nProps := flag.Int("properties", 200, "number of student housing properties")
	nViolations := flag.Int("violations", 1500, "number of code violations")
	nRequests := flag.Int("requests", 800, "number of 311 service requests")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *nProps < 1 {
		flag.Usage()
		return fmt.Errorf("-properties must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	raw := filepath.Join(*outDir, "raw")
	processed := filepath.Join(*outDir, "processed")

	props := genProperties(rng, *nProps)

	tables := []struct {
		path  string
		table domain.Table
	}{
		{filepath.Join(processed, "student_housing_clean.csv"), studentTable(rng, props)},
		{filepath.Join(raw, "sam_addresses.csv"), samTable(props)},
		{filepath.Join(raw, "property_assessment.csv"), assessmentTable(props)},
		{filepath.Join(raw, "violations.csv"), eventTable(rng, props, *nViolations, violationTypes, []string{"address", "description", "date_issued"})},
		{filepath.Join(raw, "service_requests_311.csv"), eventTable(rng, props, *nRequests, requestTypes, []string{"full_address", "case_title", "open_dt"})},
	}
	for _, t := range tables {
		if err := writeCSV(t.path, t.table); err != nil {
			return fmt.Errorf("writing %s: %w", t.path, err)
		}
		log.Printf("wrote %s: %d rows", t.path, len(t.table.Rows))
	}

	districtsPath := filepath.Join(raw, "city_council_districts.geojson")
	features, err := writeDistricts(districtsPath)
	if err != nil {
		return fmt.Errorf("writing districts: %w", err)
	}
	log.Printf("wrote %s: %d features", districtsPath, len(features))

	// Freeze "today" so printed scores are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(referenceDate.Add(6 * time.Hour)))
	defer domain.SetClock(nil)

	return printStats(tables[0].table, tables[1].table, tables[2].table, tables[3].table, tables[4].table, features)
}

func genProperties(rng *rand.Rand, n int) []property {
	props := make([]property, n)
	for i := range props {
		lon := minLon + rng.Float64()*(maxLon-minLon)
		props[i] = property{
			address: fmt.Sprintf("%d %s", 10+rng.IntN(490), streets[rng.IntN(len(streets))]),
			// Skewed so a few landlords own most of the stock.
			landlord: landlords[min(rng.IntN(len(landlords)), rng.IntN(len(landlords)))],
			lon:      lon,
			lat:      minLat + rng.Float64()*(maxLat-minLat),
			district: stripDistrict(lon),
		}
	}
	return props
}

func stripDistrict(lon float64) string {
	width := (maxLon - minLon) / districtCount
	i := min(int((lon-minLon)/width), districtCount-1)
	return fmt.Sprintf("District %d", i+1)
}

// studentTable writes the roster. One row in ten carries a stale district
// label so that spatial attribution has something to correct.
func studentTable(rng *rand.Rand, props []property) domain.Table {
	t := domain.Table{Header: []string{"address", "district", "year", "student_count", "units", "landlord", "latitude", "longitude"}}
	for i, p := range props {
		district := p.district
		if i%10 == 0 {
			district = fmt.Sprintf("District %d", 1+rng.IntN(districtCount))
		}
		t.Rows = append(t.Rows, domain.Row{
			"address":       p.address,
			"district":      district,
			"year":          fmt.Sprint(2020 + rng.IntN(5)),
			"student_count": fmt.Sprint(1 + rng.IntN(12)),
			"units":         fmt.Sprint(1 + rng.IntN(4)),
			"landlord":      p.landlord,
			"latitude":      fmt.Sprintf("%.6f", p.lat),
			"longitude":     fmt.Sprintf("%.6f", p.lon),
		})
	}
	return t
}

func samTable(props []property) domain.Table {
	t := domain.Table{Header: []string{"full_address", "district", "latitude", "longitude"}}
	for _, p := range props {
		t.Rows = append(t.Rows, domain.Row{
			"full_address": abbreviate(p.address),
			"district":     p.district,
			"latitude":     fmt.Sprintf("%.6f", p.lat),
			"longitude":    fmt.Sprintf("%.6f", p.lon),
		})
	}
	return t
}

func assessmentTable(props []property) domain.Table {
	t := domain.Table{Header: []string{"property_address", "owner_name"}}
	for _, p := range props {
		t.Rows = append(t.Rows, domain.Row{
			"property_address": strings.ToUpper(p.address),
			"owner_name":       strings.ToUpper(p.landlord),
		})
	}
	return t
}

// eventTable draws events against the properties with the spelling noise
// real exports have. About one event in twenty names an unknown building.
func eventTable(rng *rand.Rand, props []property, n int, kinds, header []string) domain.Table {
	t := domain.Table{Header: header}
	addrCol, kindCol, dateCol := header[0], header[1], header[2]
	for range n {
		var addr string
		switch r := rng.IntN(20); {
		case r == 0:
			addr = fmt.Sprintf("%d Unlisted Way", 1+rng.IntN(99))
		case r < 6:
			addr = abbreviate(props[rng.IntN(len(props))].address)
		case r < 8:
			addr = props[rng.IntN(len(props))].address + " Rear"
		default:
			addr = props[rng.IntN(len(props))].address
		}
		date := referenceDate.AddDate(0, 0, -rng.IntN(5*365))
		t.Rows = append(t.Rows, domain.Row{
			addrCol: addr,
			kindCol: kinds[rng.IntN(len(kinds))],
			dateCol: date.Format("2006-01-02 15:04:05"),
		})
	}
	return t
}

func abbreviate(address string) string {
	r := strings.NewReplacer(" Street", " St", " Avenue", " Ave", " Road", " Rd", " Drive", " Dr", "Saint ", "St. ")
	return r.Replace(address)
}

func writeCSV(path string, t domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Header))
		for i, h := range t.Header {
			rec[i] = row[h]
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeDistricts(path string) ([]domain.Feature, error) {
	fc := orbjson.NewFeatureCollection()
	var features []domain.Feature
	width := (maxLon - minLon) / districtCount
	for i := range districtCount {
		x0, x1 := minLon+float64(i)*width, minLon+float64(i+1)*width
		ring := orb.Ring{{x0, minLat}, {x1, minLat}, {x1, maxLat}, {x0, maxLat}, {x0, minLat}}
		name := fmt.Sprintf("District %d", i+1)

		f := orbjson.NewFeature(orb.Polygon{ring})
		f.Properties["district"] = name
		fc.Append(f)

		r := make(domain.Ring, len(ring))
		for j, pt := range ring {
			r[j] = domain.Point{X: pt.Lon(), Y: pt.Lat()}
		}
		features = append(features, domain.Feature{District: name, Polygons: []domain.Polygon{{r}}})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return features, os.WriteFile(path, append(data, '\n'), 0o600)
}

func printStats(student, sam, assessment, violations, requests domain.Table, features []domain.Feature) error {
	registry, err := domain.BuildRegistry(domain.RegistrySources{
		StudentHousing: student,
		AddressMaster:  sam,
		Assessment:     assessment,
	})
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	vEvents, err := domain.EventsFromTable(violations, domain.ViolationFields)
	if err != nil {
		return err
	}
	rEvents, err := domain.EventsFromTable(requests, domain.ServiceRequestFields)
	if err != nil {
		return err
	}

	opts := domain.DefaultRiskOptions()
	opts.Features = features
	res := domain.Assess(registry, vEvents, rEvents, opts)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Reference date: %s\n", res.ReferenceDate.Format("2006-01-02"))
	fmt.Printf("Registry: %d, scored properties: %d\n", len(registry), len(res.Properties))
	fmt.Printf("Landlords: %d, bad: %d\n", len(res.Landlords), res.BadLandlordCount())
	fmt.Printf("Spatial overrides: %d\n", res.SpatialOverrides)
	for _, ds := range []string{domain.DatasetViolations, domain.DatasetServiceRequests} {
		fmt.Printf("%s matches:", ds)
		for _, mt := range domain.MatchTypes {
			fmt.Printf(" %s=%d", mt, res.MatchCounts[ds][mt])
		}
		fmt.Println()
	}

	fmt.Println("\nTop landlords:")
	for _, l := range res.Landlords[:min(5, len(res.Landlords))] {
		fmt.Printf("  %-22s props=%-3d risk=%.4f bad=%t\n", l.Landlord, l.Properties, l.RiskScore, l.BadLandlord)
	}

	fmt.Println("\nDistricts:")
	for _, d := range res.Districts {
		fmt.Printf("  %-12s props=%-3d total=%.4f avg=%.4f\n", d.District, d.Properties, d.TotalRisk, d.AvgRisk)
	}

	trend := domain.SummarizeYearlyTrend(student)
	fmt.Printf("\nYearly trend rows: %d\n", len(trend))
	for _, y := range trend[:min(5, len(trend))] {
		fmt.Printf("  %s %-12s records=%-3d students=%-4d units=%-3d per_unit=%.2f\n",
			y.Year, y.District, y.Records, y.Students, y.Units, y.StudentsPerUnit)
	}
	return nil
}
