package csvio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/couchcryptid/landlord-risk-etl/internal/adapter/geojson"
	"github.com/couchcryptid/landlord-risk-etl/internal/config"
	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/couchcryptid/landlord-risk-etl/internal/pipeline"
)

// Source loads run inputs from CSV and GeoJSON files on disk.
// It implements pipeline.Source.
type Source struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewSource creates a Source reading the paths in cfg.
func NewSource(cfg *config.Config, logger *slog.Logger) *Source {
	return &Source{cfg: cfg, logger: logger}
}

// Load reads every dataset. Files are re-read on each call so a scheduled
// run picks up refreshed exports.
func (s *Source) Load(ctx context.Context) (pipeline.Inputs, error) {
	var in pipeline.Inputs

	if s.cfg.RegistryPath != "" {
		t, err := readRequired(s.cfg.RegistryPath)
		if err != nil {
			return in, fmt.Errorf("property registry: %w", err)
		}
		in.Registry, err = domain.PropertiesFromTable(t)
		if err != nil {
			return in, err
		}
		// The roster still feeds the yearly trend.
		if in.RegistrySources.StudentHousing, err = s.readOptional(ctx, "student housing", s.cfg.StudentHousingPath); err != nil {
			return in, err
		}
	} else {
		t, err := readRequired(s.cfg.StudentHousingPath)
		if err != nil {
			return in, fmt.Errorf("student housing: %w", err)
		}
		in.RegistrySources.StudentHousing = t
		if in.RegistrySources.AddressMaster, err = s.readOptional(ctx, "address master", s.cfg.AddressMasterPath); err != nil {
			return in, err
		}
		if in.RegistrySources.Assessment, err = s.readOptional(ctx, "assessment", s.cfg.AssessmentPath); err != nil {
			return in, err
		}
	}

	if err := ctx.Err(); err != nil {
		return in, err
	}
	t, err := readRequired(s.cfg.ViolationsPath)
	if err != nil {
		return in, fmt.Errorf("violations: %w", err)
	}
	in.Violations = t

	if in.ServiceRequests, err = s.readOptional(ctx, "service requests", s.cfg.ServiceRequestsPath); err != nil {
		return in, err
	}

	if err := ctx.Err(); err != nil {
		return in, err
	}
	in.Features, err = s.loadFeatures()
	if err != nil {
		return in, err
	}

	s.logger.Debug("inputs loaded",
		"prebuilt_registry", in.Registry != nil,
		"violations", len(in.Violations.Rows),
		"service_requests", len(in.ServiceRequests.Rows),
		"district_features", len(in.Features),
	)
	return in, nil
}

func (s *Source) readOptional(ctx context.Context, name, path string) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}
	if path == "" {
		return domain.Table{}, nil
	}
	t, err := ReadTable(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("optional input not found, continuing without it", "input", name, "path", path)
		return domain.Table{}, nil
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func (s *Source) loadFeatures() ([]domain.Feature, error) {
	if s.cfg.DistrictsPath == "" {
		return nil, nil
	}
	features, err := geojson.LoadFeatures(s.cfg.DistrictsPath, s.cfg.DistrictFeatureProperty)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("district boundaries not found, spatial attribution disabled", "path", s.cfg.DistrictsPath)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("district boundaries: %w", err)
	}
	return features, nil
}

// readRequired reads a dataset that must exist. A missing file wraps
// domain.ErrMissingInput.
func readRequired(path string) (domain.Table, error) {
	if path == "" {
		return domain.Table{}, domain.ErrMissingInput
	}
	t, err := ReadTable(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Table{}, fmt.Errorf("%s: %w", path, domain.ErrMissingInput)
	}
	return t, err
}
