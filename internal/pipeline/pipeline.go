package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/ipintel/internal/aggregate"
	"github.com/ppiankov/ipintel/internal/cache"
	"github.com/ppiankov/ipintel/internal/history"
	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/provider"
	"github.com/ppiankov/ipintel/internal/score"
	"github.com/ppiankov/ipintel/internal/validate"
)

// Aggregator produces the unified record for a validated IP
type Aggregator interface {
	AggregateThreatData(ctx context.Context, ip string) (*model.Record, error)
}

// Pipeline orchestrates a single lookup: validate, aggregate, assess, remember
type Pipeline struct {
	aggregator Aggregator
	scorer     *score.Scorer
	history    *history.Store // nil when history is disabled
	logger     *slog.Logger
}

// Result is a completed lookup
type Result struct {
	Record *model.Record `json:"record"`
	Risk   model.Risk    `json:"risk"`
}

// NewPipeline wires a pipeline from its parts. hist may be nil.
func NewPipeline(agg Aggregator, hist *history.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		aggregator: agg,
		scorer:     score.NewScorer(),
		history:    hist,
		logger:     logger,
	}
}

// New builds the full lookup stack from configuration. pacer may be nil.
// Missing provider keys are reported here, before any lookup is attempted.
func New(cfg *model.Config, logger *slog.Logger, pacer provider.Pacer) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	clients, err := provider.NewClients(cfg.Providers, provider.Options{
		Logger: logger,
		Pacer:  pacer,
	})
	if err != nil {
		return nil, fmt.Errorf("create providers: %w", err)
	}

	var hist *history.Store
	if cfg.History.Enabled {
		hist = history.NewStore(cache.New(cfg.History), cfg.History.MaxItems, cfg.History.TTL)
	}

	agg := aggregate.New(clients.Abuse, clients.Quality, logger)
	return NewPipeline(agg, hist, logger), nil
}

// History returns the history store, or nil when disabled
func (p *Pipeline) History() *history.Store {
	return p.history
}

// CheckIP validates input and returns the aggregated record with its risk.
// Invalid input fails with validate.ErrEmpty or validate.ErrInvalidIP before
// any provider is contacted. Provider failures are returned unchanged.
func (p *Pipeline) CheckIP(ctx context.Context, input string) (*Result, error) {
	ip, err := validate.Normalize(input)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	record, err := p.aggregator.AggregateThreatData(ctx, ip)
	if err != nil {
		return nil, err
	}

	risk := p.scorer.Assess(*record)

	if p.history != nil {
		// A lookup that succeeded is not failed by a history write
		if _, err := p.history.Add(*record, risk); err != nil {
			p.logger.Warn("failed to record history", "ip", ip, "error", err)
		}
	}

	p.logger.Debug("lookup complete",
		"ip", ip,
		"risk", risk.Level,
		"duration", time.Since(start),
	)

	return &Result{Record: record, Risk: risk}, nil
}
