package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/ipintel/internal/model"
)

const (
	ipQualityScoreName    = "IPQualityScore"
	ipQualityScoreBaseURL = "https://ipqualityscore.com/api/json/ip"

	// DefaultStrictness is the least strict IPQualityScore lookup level
	DefaultStrictness = 0
)

// ErrMissingIPQualityScoreKey is returned when constructing a client without a key
var ErrMissingIPQualityScoreKey = errors.New("IPQualityScore API key is required")

// IPQualityScoreConfig configures an IPQualityScore client
type IPQualityScoreConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Strictness int
}

// IPQualityScoreClient queries the IPQualityScore IP reputation endpoint
type IPQualityScoreClient struct {
	apiKey     string
	baseURL    string
	strictness int
	req        *requester
}

// NewIPQualityScoreClient creates an IPQualityScore client
func NewIPQualityScoreClient(cfg IPQualityScoreConfig, opts Options) (*IPQualityScoreClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingIPQualityScoreKey
	}
	if cfg.Strictness < 0 || cfg.Strictness > 3 {
		return nil, fmt.Errorf("IPQualityScore strictness must be between 0 and 3, got %d", cfg.Strictness)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ipQualityScoreBaseURL
	}

	return &IPQualityScoreClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		strictness: cfg.Strictness,
		req: &requester{
			name:       ipQualityScoreName,
			httpClient: opts.httpClient(requestTimeout(cfg.Timeout)),
			timeout:    requestTimeout(cfg.Timeout),
			pacer:      opts.Pacer,
			logger:     opts.logger(),
		},
	}, nil
}

// Name returns the provider name
func (c *IPQualityScoreClient) Name() string {
	return ipQualityScoreName
}

// CheckIP returns the VPN/proxy and fraud score report for ip
func (c *IPQualityScoreClient) CheckIP(ctx context.Context, ip string) (*model.QualityReport, error) {
	params := url.Values{}
	params.Set("strictness", strconv.Itoa(c.strictness))
	params.Set("allow_public_access_points", "true")

	// The key is part of the path
	rawURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(ip), params.Encode())

	body, err := c.req.get(ctx, rawURL, http.Header{})
	if err != nil {
		return nil, err
	}

	var report model.QualityReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, Classify(Failure{Err: fmt.Errorf("decode response: %w", err)}, ipQualityScoreName)
	}

	// Rejected lookups come back as 200 with success=false
	if report.Success != nil && !*report.Success {
		return nil, Classify(Failure{StatusCode: http.StatusBadRequest, Payload: body}, ipQualityScoreName)
	}

	return &report, nil
}
