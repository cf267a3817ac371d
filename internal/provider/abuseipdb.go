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
	abuseIPDBName    = "AbuseIPDB"
	abuseIPDBBaseURL = "https://api.abuseipdb.com/api/v2"

	// DefaultMaxAgeInDays is the report window sent to AbuseIPDB
	DefaultMaxAgeInDays = 90
)

// ErrMissingAbuseIPDBKey is returned when constructing a client without a key
var ErrMissingAbuseIPDBKey = errors.New("AbuseIPDB API key is required")

// AbuseIPDBConfig configures an AbuseIPDB client
type AbuseIPDBConfig struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	MaxAgeInDays int
}

// AbuseIPDBClient queries the AbuseIPDB /check endpoint
type AbuseIPDBClient struct {
	apiKey       string
	baseURL      string
	maxAgeInDays int
	req          *requester
}

// NewAbuseIPDBClient creates an AbuseIPDB client. A missing key is a configuration
// error and no client is returned.
func NewAbuseIPDBClient(cfg AbuseIPDBConfig, opts Options) (*AbuseIPDBClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAbuseIPDBKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = abuseIPDBBaseURL
	}

	maxAge := cfg.MaxAgeInDays
	if maxAge == 0 {
		maxAge = DefaultMaxAgeInDays
	}
	if maxAge < 1 || maxAge > 365 {
		return nil, fmt.Errorf("AbuseIPDB maxAgeInDays must be between 1 and 365, got %d", maxAge)
	}

	return &AbuseIPDBClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		maxAgeInDays: maxAge,
		req: &requester{
			name:       abuseIPDBName,
			httpClient: opts.httpClient(requestTimeout(cfg.Timeout)),
			timeout:    requestTimeout(cfg.Timeout),
			pacer:      opts.Pacer,
			logger:     opts.logger(),
		},
	}, nil
}

// Name returns the provider name
func (c *AbuseIPDBClient) Name() string {
	return abuseIPDBName
}

// CheckIP returns the abuse report for ip. The address is expected to be validated by the caller.
func (c *AbuseIPDBClient) CheckIP(ctx context.Context, ip string) (*model.AbuseResponse, error) {
	params := url.Values{}
	params.Set("ipAddress", ip)
	params.Set("maxAgeInDays", strconv.Itoa(c.maxAgeInDays))
	params.Set("verbose", "true")

	header := http.Header{}
	header.Set("Key", c.apiKey)

	body, err := c.req.get(ctx, c.baseURL+"/check?"+params.Encode(), header)
	if err != nil {
		return nil, err
	}

	var resp model.AbuseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, Classify(Failure{Err: fmt.Errorf("decode response: %w", err)}, abuseIPDBName)
	}
	if resp.Data == nil {
		return nil, Classify(Failure{Err: errors.New("response has no data")}, abuseIPDBName)
	}

	return &resp, nil
}
