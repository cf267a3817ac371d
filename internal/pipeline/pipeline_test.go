package pipeline

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ipintel/internal/cache"
	"github.com/ppiankov/ipintel/internal/history"
	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/provider"
	"github.com/ppiankov/ipintel/internal/validate"
)

type stubAggregator struct {
	record *model.Record
	err    error
	calls  atomic.Int32
	lastIP atomic.Value
}

func (s *stubAggregator) AggregateThreatData(ctx context.Context, ip string) (*model.Record, error) {
	s.calls.Add(1)
	s.lastIP.Store(ip)
	if s.err != nil {
		return nil, s.err
	}
	r := *s.record
	r.IPAddress = ip
	return &r, nil
}

func TestPipeline_CheckIP(t *testing.T) {
	agg := &stubAggregator{record: &model.Record{AbuseScore: 80, ThreatScore: 10}}
	hist := history.NewStore(cache.NewMemoryCache(time.Hour, time.Minute), 10, 0)
	p := NewPipeline(agg, hist, nil)

	result, err := p.CheckIP(context.Background(), "  8.8.8.8 ")
	require.NoError(t, err)

	assert.Equal(t, "8.8.8.8", agg.lastIP.Load(), "input is trimmed before lookup")
	assert.Equal(t, model.RiskHigh, result.Risk.Level)
	assert.Equal(t, 80, result.Risk.Score)

	items, err := hist.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "8.8.8.8", items[0].IPAddress)
	assert.Equal(t, model.RiskHigh, items[0].Risk.Level)
}

func TestPipeline_CheckIP_InvalidInput(t *testing.T) {
	agg := &stubAggregator{record: &model.Record{}}
	p := NewPipeline(agg, nil, nil)

	_, err := p.CheckIP(context.Background(), "invalid-ip")
	assert.ErrorIs(t, err, validate.ErrInvalidIP)

	_, err = p.CheckIP(context.Background(), "")
	assert.ErrorIs(t, err, validate.ErrEmpty)

	assert.Equal(t, int32(0), agg.calls.Load(), "providers must not be contacted")
}

func TestPipeline_CheckIP_ProviderError(t *testing.T) {
	classified := provider.Classify(provider.Failure{StatusCode: http.StatusServiceUnavailable}, "AbuseIPDB")
	agg := &stubAggregator{err: classified}
	hist := history.NewStore(cache.NewMemoryCache(time.Hour, time.Minute), 10, 0)
	p := NewPipeline(agg, hist, nil)

	result, err := p.CheckIP(context.Background(), "1.1.1.1")
	assert.Nil(t, result)
	assert.Same(t, classified, err)

	items, err := hist.List()
	require.NoError(t, err)
	assert.Empty(t, items, "failed lookups are not remembered")
}

func TestNew_MissingKeys(t *testing.T) {
	cfg := model.DefaultConfig()

	_, err := New(cfg, nil, nil)
	assert.ErrorIs(t, err, provider.ErrMissingAbuseIPDBKey)
}

func TestNew_HistoryToggle(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Providers.AbuseIPDB.APIKey = "a"
	cfg.Providers.IPQualityScore.APIKey = "b"

	p, err := New(cfg, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, p.History())

	cfg.History.Enabled = false
	p, err = New(cfg, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p.History())
}
