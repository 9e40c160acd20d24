package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/spf13/cast"
)

// Output file names written by Writer.
const (
	RegistryFile     = "property_registry.csv"
	PropertyRiskFile = "property_risk_model.csv"
	LandlordRiskFile = "landlord_risk_model.csv"
	DistrictRiskFile = "spatial_district_risk.csv"
	YearlyTrendFile  = "district_yearly_trend.csv"
)

var (
	registryHeader = []string{
		"property_key", "normalized_address", "address", "district",
		"latitude", "longitude", "landlord", "sources",
	}
	propertyHeader = []string{
		"property_key", "address", "district", "landlord", "latitude", "longitude",
		"violation_events", "service_311_events", "violation_score", "service_311_score",
		"risk_score", "bad_landlord", "district_source",
	}
	landlordHeader = []string{
		"landlord", "properties", "risk_score", "violation_events", "service_311_events", "bad_landlord",
	}
	districtHeader = []string{
		"district", "properties", "total_risk", "avg_risk", "bad_landlord_properties",
	}
	trendHeader = []string{
		"year", "district", "records", "students", "units", "students_per_unit",
	}
)

// Writer writes a run's outputs as CSV files into a directory.
// It implements pipeline.Sink.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer targeting dir. The directory is created on first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Write replaces the five output files. Each file is written to a temporary
// name and renamed, so readers never observe a half-written file.
func (w *Writer) Write(ctx context.Context, res *domain.Result) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{RegistryFile, registryHeader, registryRows(res.Registry)},
		{PropertyRiskFile, propertyHeader, propertyRows(res.Properties)},
		{LandlordRiskFile, landlordHeader, landlordRows(res.Landlords)},
		{DistrictRiskFile, districtHeader, districtRows(res.Districts)},
		{YearlyTrendFile, trendHeader, trendRows(res.YearlyTrend)},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.dir, f.name)
		if err := writeFileAtomic(path, f.header, f.rows); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		w.logger.Debug("output written", "path", path, "rows", len(f.rows))
	}
	w.logger.Info("csv outputs written", "dir", w.dir, "properties", len(res.Properties), "landlords", len(res.Landlords))
	return nil
}

func writeFileAtomic(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func registryRows(props []domain.Property) [][]string {
	rows := make([][]string, len(props))
	for i, p := range props {
		rows[i] = []string{
			p.Key, p.NormalizedAddress, p.Address, p.District,
			p.Latitude, p.Longitude, p.Landlord, strings.Join(p.Sources, "|"),
		}
	}
	return rows
}

func propertyRows(props []domain.PropertyRisk) [][]string {
	rows := make([][]string, len(props))
	for i, p := range props {
		rows[i] = []string{
			p.Key, p.Address, p.District, p.Landlord, p.Latitude, p.Longitude,
			cast.ToString(p.ViolationEvents), cast.ToString(p.ServiceEvents),
			score(p.ViolationScore), score(p.ServiceScore), score(p.RiskScore),
			flag(p.BadLandlord), p.DistrictSource,
		}
	}
	return rows
}

func landlordRows(landlords []domain.LandlordRisk) [][]string {
	rows := make([][]string, len(landlords))
	for i, l := range landlords {
		rows[i] = []string{
			l.Landlord, cast.ToString(l.Properties), score(l.RiskScore),
			cast.ToString(l.ViolationEvents), cast.ToString(l.ServiceEvents), flag(l.BadLandlord),
		}
	}
	return rows
}

func districtRows(districts []domain.DistrictRisk) [][]string {
	rows := make([][]string, len(districts))
	for i, d := range districts {
		rows[i] = []string{
			d.District, cast.ToString(d.Properties), score(d.TotalRisk),
			score(d.AvgRisk), cast.ToString(d.BadLandlordProperties),
		}
	}
	return rows
}

func trendRows(trend []domain.YearlyTrend) [][]string {
	rows := make([][]string, len(trend))
	for i, y := range trend {
		rows[i] = []string{
			y.Year, y.District, cast.ToString(y.Records), cast.ToString(y.Students),
			cast.ToString(y.Units), fmt.Sprintf("%.2f", y.StudentsPerUnit),
		}
	}
	return rows
}

func score(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
