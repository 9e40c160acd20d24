package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/couchcryptid/landlord-risk-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Inputs is everything one run reads. Registry, when non-nil, is used as-is;
// otherwise the registry is built from RegistrySources. The student housing
// roster feeds the yearly trend either way.
type Inputs struct {
	Registry        []domain.Property
	RegistrySources domain.RegistrySources
	Violations      domain.Table
	ServiceRequests domain.Table
	Features        []domain.Feature
}

// Source loads the datasets for a run.
type Source interface {
	Load(ctx context.Context) (Inputs, error)
}

// Sink publishes a finished run.
type Sink interface {
	Write(ctx context.Context, res *domain.Result) error
}

// Options tunes a Pipeline.
type Options struct {
	Risk      domain.RiskOptions
	Workers   int
	CacheSize int
	// Clock stamps Result.ComputedAt. Nil means the real clock.
	Clock clockwork.Clock
}

// Pipeline orchestrates the load-resolve-score-write run.
type Pipeline struct {
	source  Source
	sinks   []Sink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics

	runMu  sync.Mutex
	ready  atomic.Bool
	latest atomic.Pointer[domain.Result]
}

// New creates a Pipeline reading from src and writing every result to sinks in order.
func New(src Source, sinks []Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:  src,
		sinks:   sinks,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no risk run has completed yet")
	}
	return nil
}

// Latest returns the most recent successful result, or nil before the first.
func (p *Pipeline) Latest() *domain.Result {
	return p.latest.Load()
}

// RunOnce executes one full run. Runs are serialized. On any error nothing
// is published and the previous result stays current.
func (p *Pipeline) RunOnce(ctx context.Context) (*domain.Result, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := p.opts.Clock.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("risk run started", "workers", p.opts.Workers)

	res, err := p.run(ctx, runID, logger)
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		logger.Error("risk run failed", "error", err)
		return nil, err
	}

	elapsed := p.opts.Clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.Runs.WithLabelValues("success").Inc()
	p.latest.Store(res)
	p.ready.Store(true)

	logger.Info("risk run complete",
		"properties", len(res.Properties),
		"landlords", len(res.Landlords),
		"bad_landlords", res.BadLandlordCount(),
		"spatial_overrides", res.SpatialOverrides,
		"duration", elapsed,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, logger *slog.Logger) (*domain.Result, error) {
	in, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	registry := in.Registry
	if registry == nil {
		registry, err = domain.BuildRegistry(in.RegistrySources)
		if err != nil {
			return nil, fmt.Errorf("build registry: %w", err)
		}
	}

	if in.Violations.Empty() {
		return nil, fmt.Errorf("violations: %w", domain.ErrMissingInput)
	}
	violations, err := domain.EventsFromTable(in.Violations, domain.ViolationFields)
	if err != nil {
		return nil, fmt.Errorf("violations: %w", err)
	}
	requests, err := domain.EventsFromTable(in.ServiceRequests, domain.ServiceRequestFields)
	if err != nil {
		return nil, fmt.Errorf("service requests: %w", err)
	}
	p.metrics.RowsRead.WithLabelValues(domain.DatasetViolations).Add(float64(len(violations)))
	p.metrics.RowsRead.WithLabelValues(domain.DatasetServiceRequests).Add(float64(len(requests)))

	idx := domain.NewAddressIndex(registry)
	cache := newResolveCache(p.opts.CacheSize)
	logger.Debug("address index built", "registry", len(registry), "index_entries", idx.Len())

	linkedViolations, err := p.link(ctx, idx, cache, violations)
	if err != nil {
		return nil, fmt.Errorf("resolve violations: %w", err)
	}
	linkedRequests, err := p.link(ctx, idx, cache, requests)
	if err != nil {
		return nil, fmt.Errorf("resolve service requests: %w", err)
	}

	opts := p.opts.Risk
	opts.Features = in.Features
	res := domain.ScoreRisk(registry, linkedViolations, linkedRequests, opts)
	res.YearlyTrend = domain.SummarizeYearlyTrend(in.RegistrySources.StudentHousing)
	res.RunID = runID
	res.ComputedAt = p.opts.Clock.Now().UTC()

	for dataset, byType := range res.MatchCounts {
		for mt, n := range byType {
			p.metrics.Matches.WithLabelValues(dataset, string(mt)).Add(float64(n))
		}
	}
	p.metrics.SpatialOverrides.Add(float64(res.SpatialOverrides))

	for _, sink := range p.sinks {
		if err := sink.Write(ctx, &res); err != nil {
			return nil, fmt.Errorf("write results: %w", err)
		}
	}

	p.metrics.PropertiesScored.Set(float64(len(res.Properties)))
	p.metrics.BadLandlords.Set(float64(res.BadLandlordCount()))
	return &res, nil
}

// link resolves events in parallel. Each worker owns a contiguous chunk and
// writes into its own slots, so the output is in input order regardless of
// scheduling.
func (p *Pipeline) link(ctx context.Context, idx *domain.AddressIndex, cache *resolveCache, events []domain.Event) ([]domain.LinkedEvent, error) {
	out := make([]domain.LinkedEvent, len(events))
	if len(events) == 0 {
		return out, nil
	}

	chunk := (len(events) + p.opts.Workers - 1) / p.opts.Workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for lo := 0; lo < len(events); lo += chunk {
		hi := min(lo+chunk, len(events))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = domain.LinkedEvent{Event: events[i], Match: p.resolve(idx, cache, events[i])}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) resolve(idx *domain.AddressIndex, cache *resolveCache, e domain.Event) domain.Match {
	key := cacheKey(e.Address, e.District)
	if m, ok := cache.get(key); ok {
		p.metrics.ResolveCache.WithLabelValues("hit").Inc()
		return m
	}
	p.metrics.ResolveCache.WithLabelValues("miss").Inc()
	m := idx.Resolve(e.Address, e.District, p.opts.Risk.MatchThreshold)
	cache.put(key, m)
	return m
}
