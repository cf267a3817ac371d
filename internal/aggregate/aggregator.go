package aggregate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/provider"
)

// Aggregator queries both providers concurrently and merges their answers
type Aggregator struct {
	abuse   provider.AbuseChecker
	quality provider.QualityChecker
	logger  *slog.Logger
}

// New creates an Aggregator. A nil logger discards output.
func New(abuse provider.AbuseChecker, quality provider.QualityChecker, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		abuse:   abuse,
		quality: quality,
		logger:  logger,
	}
}

// AggregateThreatData returns the unified record for ip.
//
// Both providers are called at the same time. The first failure is returned
// as-is (a classified *provider.Error) and the sibling call is cancelled; no
// partial record is ever produced. ip is expected to be validated already.
func (a *Aggregator) AggregateThreatData(ctx context.Context, ip string) (*model.Record, error) {
	start := time.Now()

	var (
		abuse   *model.AbuseResponse
		quality *model.QualityReport
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := a.abuse.CheckIP(gctx, ip)
		if err != nil {
			return err
		}
		abuse = resp
		return nil
	})

	g.Go(func() error {
		resp, err := a.quality.CheckIP(gctx, ip)
		if err != nil {
			return err
		}
		quality = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("threat data lookup failed",
			"ip", ip,
			"kind", provider.KindOf(err),
			"error", err,
			"duration", time.Since(start),
		)
		return nil, err
	}

	record := Transform(abuse, quality)

	a.logger.Info("threat data aggregated",
		"ip", ip,
		"abuse_score", record.AbuseScore,
		"threat_score", record.ThreatScore,
		"duration", time.Since(start),
	)

	return &record, nil
}
