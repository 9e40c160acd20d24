// Command validate runs data quality checks on the cleaned student housing
// roster and the risk model outputs. It verifies required columns, that each
// file has data rows, and that no required column is mostly empty. Risk
// outputs are also checked for numeric scores, 0/1 flags and sort order.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -student-clean data/processed/student_housing_clean.csv \
//	  -property-risk data/processed/property_risk_model.csv \
//	  -landlord-risk data/processed/landlord_risk_model.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/couchcryptid/landlord-risk-etl/internal/adapter/csvio"
	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/spf13/cast"
)

// maxEmptyRatio is the largest tolerated share of blank cells in a required column.
const maxEmptyRatio = 0.2

var (
	studentRequired  = []string{"address", "district", "year", "student_count"}
	propertyRequired = []string{"property_key", "address", "district", "risk_score"}
	landlordRequired = []string{"landlord", "properties", "risk_score", "bad_landlord"}
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	studentPath := flag.String("student-clean", "data/processed/student_housing_clean.csv", "cleaned student housing CSV")
	propertyPath := flag.String("property-risk", "data/processed/property_risk_model.csv", "property risk model CSV")
	landlordPath := flag.String("landlord-risk", "", "landlord risk model CSV (optional)")
	flag.Parse()

	os.Exit(run(os.Stdout, *studentPath, *propertyPath, *landlordPath))
}

func run(out io.Writer, studentPath, propertyPath, landlordPath string) int {
	phases := []*phase{
		validateStudentHousing(studentPath),
		validatePropertyRisk(propertyPath),
	}
	if landlordPath != "" {
		phases = append(phases, validateLandlordRisk(landlordPath))
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d issues)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	if allPassed {
		fmt.Fprintln(out, "\nData quality checks passed.")
		return 0
	}

	fmt.Fprintln(out, "\nData quality checks failed:")
	for _, p := range phases {
		for _, e := range p.errors {
			fmt.Fprintf(out, "- %s\n", e)
		}
	}
	return 1
}

func validateStudentHousing(path string) *phase {
	p := &phase{name: "Student housing roster"}
	checkRequired(p, path, studentRequired)
	return p
}

func validatePropertyRisk(path string) *phase {
	p := &phase{name: "Property risk model"}
	t, ok := checkRequired(p, path, propertyRequired)
	if !ok {
		return p
	}
	checkScores(p, path, t, "risk_score")
	checkFlags(p, path, t, "bad_landlord")
	return p
}

func validateLandlordRisk(path string) *phase {
	p := &phase{name: "Landlord risk model"}
	t, ok := checkRequired(p, path, landlordRequired)
	if !ok {
		return p
	}
	checkScores(p, path, t, "risk_score")
	checkFlags(p, path, t, "bad_landlord")
	return p
}

// checkRequired records missing-file, header, column, row-count and
// empty-ratio issues. It reports whether the table has rows to inspect further.
func checkRequired(p *phase, path string, required []string) (domain.Table, bool) {
	t, err := csvio.ReadTable(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.errorf("Missing file: %s", path)
		} else {
			p.errorf("%s: %v", path, err)
		}
		return t, false
	}
	if len(t.Header) == 0 {
		p.errorf("No header row: %s", path)
		return t, false
	}

	present := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		p.errorf("%s: missing required columns: %s", path, strings.Join(missing, ", "))
	}

	if len(t.Rows) == 0 {
		p.errorf("%s: no data rows", path)
		return t, false
	}

	for _, col := range required {
		empty := 0
		for _, row := range t.Rows {
			if strings.TrimSpace(row[col]) == "" {
				empty++
			}
		}
		ratio := float64(empty) / float64(len(t.Rows))
		if ratio > maxEmptyRatio {
			p.errorf("%s: column '%s' empty ratio too high (%.1f%%)", path, col, ratio*100)
		}
	}
	return t, len(missing) == 0
}

// checkScores verifies col is numeric, non-negative and sorted descending.
func checkScores(p *phase, path string, t domain.Table, col string) {
	prev, seen := 0.0, false
	for i, row := range t.Rows {
		s := strings.TrimSpace(row[col])
		if s == "" {
			continue
		}
		v, err := cast.ToFloat64E(s)
		if err != nil {
			p.errorf("%s: row %d: %s %q is not numeric", path, i+2, col, s)
			continue
		}
		if v < 0 {
			p.errorf("%s: row %d: %s is negative (%v)", path, i+2, col, v)
		}
		if seen && v > prev {
			p.errorf("%s: row %d: not sorted by %s descending", path, i+2, col)
		}
		prev, seen = v, true
	}
}

func checkFlags(p *phase, path string, t domain.Table, col string) {
	for i, row := range t.Rows {
		switch v := row[col]; v {
		case "0", "1", "":
		default:
			p.errorf("%s: row %d: %s must be 0 or 1, got %q", path, i+2, col, v)
		}
	}
}
