package provider

import (
	"fmt"

	"github.com/ppiankov/ipintel/internal/model"
)

// Clients bundles the two provider clients the aggregator needs
type Clients struct {
	Abuse   *AbuseIPDBClient
	Quality *IPQualityScoreClient
}

// NewClients builds both provider clients from configuration.
// Either key missing is fatal: no partially configured set is returned.
func NewClients(cfg model.ProvidersConfig, opts Options) (*Clients, error) {
	if opts.HTTPProxy == "" {
		opts.HTTPProxy = cfg.HTTPProxy
	}
	if opts.HTTPSProxy == "" {
		opts.HTTPSProxy = cfg.HTTPSProxy
	}

	abuse, err := NewAbuseIPDBClient(AbuseIPDBConfigFromModel(cfg.AbuseIPDB), opts)
	if err != nil {
		return nil, fmt.Errorf("abuseipdb: %w", err)
	}

	quality, err := NewIPQualityScoreClient(IPQualityScoreConfigFromModel(cfg.IPQualityScore), opts)
	if err != nil {
		return nil, fmt.Errorf("ipqualityscore: %w", err)
	}

	return &Clients{Abuse: abuse, Quality: quality}, nil
}

// AbuseIPDBConfigFromModel converts model.AbuseIPDBConfig to AbuseIPDBConfig
func AbuseIPDBConfigFromModel(m model.AbuseIPDBConfig) AbuseIPDBConfig {
	return AbuseIPDBConfig{
		APIKey:       m.APIKey,
		BaseURL:      m.BaseURL,
		Timeout:      m.Timeout,
		MaxAgeInDays: m.MaxAgeInDays,
	}
}

// IPQualityScoreConfigFromModel converts model.IPQualityScoreConfig to IPQualityScoreConfig
func IPQualityScoreConfigFromModel(m model.IPQualityScoreConfig) IPQualityScoreConfig {
	return IPQualityScoreConfig{
		APIKey:     m.APIKey,
		BaseURL:    m.BaseURL,
		Timeout:    m.Timeout,
		Strictness: m.Strictness,
	}
}
