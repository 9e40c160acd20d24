package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
)

const maxWorkers = 64

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Input datasets. RegistryPath, when set, replaces the three registry sources.
	// DistrictFeatureProperty is the GeoJSON property tried first for a
	// district name, before district, name and DISTRICT.
	StudentHousingPath      string
	AddressMasterPath       string
	AssessmentPath          string
	RegistryPath            string
	ViolationsPath          string
	ServiceRequestsPath     string
	DistrictsPath           string
	DistrictFeatureProperty string
	OutputDir               string

	// Scoring parameters.
	MatchThreshold       float64
	BadLandlordThreshold float64
	DecayLambda          float64
	ReferenceDate        time.Time

	Workers          int
	ResolveCacheSize int
	Schedule         string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	matchThreshold, err := envFloat("ADDRESS_MATCH_THRESHOLD", domain.DefaultMatchThreshold)
	if err != nil {
		return nil, err
	}
	badThreshold, err := envFloat("BAD_LANDLORD_THRESHOLD", domain.DefaultBadLandlordThreshold)
	if err != nil {
		return nil, err
	}
	lambda, err := envFloat("DECAY_LAMBDA", domain.DefaultDecayLambda)
	if err != nil {
		return nil, err
	}
	workers, err := envInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cacheSize, err := envInt("RESOLVE_CACHE_SIZE", 10000)
	if err != nil {
		return nil, err
	}

	var refDate time.Time
	if s := strings.TrimSpace(os.Getenv("REFERENCE_DATE")); s != "" {
		d, ok := domain.ParseDate(s)
		if !ok {
			return nil, fmt.Errorf("invalid REFERENCE_DATE %q", s)
		}
		refDate = d
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled, err = cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("invalid KAFKA_ENABLED %q", v)
		}
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", "data")
	processed := filepath.Join(dataDir, "processed")
	raw := filepath.Join(dataDir, "raw")

	cfg := &Config{
		StudentHousingPath:      sharedcfg.EnvOrDefault("STUDENT_HOUSING_PATH", filepath.Join(processed, "student_housing_clean.csv")),
		AddressMasterPath:       sharedcfg.EnvOrDefault("SAM_PATH", filepath.Join(raw, "sam_addresses.csv")),
		AssessmentPath:          sharedcfg.EnvOrDefault("ASSESSMENT_PATH", filepath.Join(raw, "property_assessment.csv")),
		RegistryPath:            os.Getenv("REGISTRY_PATH"),
		ViolationsPath:          sharedcfg.EnvOrDefault("VIOLATIONS_PATH", filepath.Join(raw, "violations.csv")),
		ServiceRequestsPath:     sharedcfg.EnvOrDefault("SERVICE_REQUESTS_PATH", filepath.Join(raw, "service_requests_311.csv")),
		DistrictsPath:           sharedcfg.EnvOrDefault("DISTRICTS_PATH", filepath.Join(raw, "city_council_districts.geojson")),
		DistrictFeatureProperty: sharedcfg.EnvOrDefault("DISTRICT_FEATURE_PROPERTY", "district"),
		OutputDir:               sharedcfg.EnvOrDefault("OUTPUT_DIR", processed),

		MatchThreshold:       matchThreshold,
		BadLandlordThreshold: badThreshold,
		DecayLambda:          lambda,
		ReferenceDate:        refDate,

		Workers:          workers,
		ResolveCacheSize: cacheSize,
		Schedule:         strings.TrimSpace(os.Getenv("SCHEDULE")),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "landlord-risk-scores"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return errors.New("ADDRESS_MATCH_THRESHOLD must be between 0 and 1")
	}
	if c.BadLandlordThreshold < 0 {
		return errors.New("BAD_LANDLORD_THRESHOLD must not be negative")
	}
	if c.DecayLambda < 0 {
		return errors.New("DECAY_LAMBDA must not be negative")
	}
	if c.Workers < 1 || c.Workers > maxWorkers {
		return fmt.Errorf("WORKERS must be between 1 and %d", maxWorkers)
	}
	if c.ResolveCacheSize < 0 {
		return errors.New("RESOLVE_CACHE_SIZE must not be negative")
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid SCHEDULE: %w", err)
		}
	}
	if c.ViolationsPath == "" {
		return errors.New("VIOLATIONS_PATH is required")
	}
	if c.RegistryPath == "" && c.StudentHousingPath == "" {
		return errors.New("STUDENT_HOUSING_PATH or REGISTRY_PATH is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	return nil
}

// RiskOptions maps the scoring settings onto domain options.
func (c *Config) RiskOptions() domain.RiskOptions {
	return domain.RiskOptions{
		MatchThreshold:       c.MatchThreshold,
		BadLandlordThreshold: c.BadLandlordThreshold,
		DecayLambda:          c.DecayLambda,
		Today:                c.ReferenceDate,
	}
}

func envFloat(key string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := cast.ToIntE(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}
