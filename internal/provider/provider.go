package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/util"
)

const (
	// DefaultTimeout is the ceiling for a single provider request
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a provider response is read
	maxBodyBytes = 1 << 20
)

// AbuseChecker looks up abuse reports for an IP address
type AbuseChecker interface {
	Name() string
	CheckIP(ctx context.Context, ip string) (*model.AbuseResponse, error)
}

// QualityChecker looks up VPN/proxy detection and fraud scoring for an IP address
type QualityChecker interface {
	Name() string
	CheckIP(ctx context.Context, ip string) (*model.QualityReport, error)
}

// Pacer delays outbound requests per host. worker.Limiter satisfies it.
// Wait fails only when ctx is done or its deadline cannot be met.
type Pacer interface {
	Wait(ctx context.Context, rawURL string) error
}

// Options are shared by both clients
type Options struct {
	// HTTPClient overrides the client built from proxy settings.
	// The per-request Timeout still applies through the request context.
	HTTPClient *http.Client

	// Logger receives raw provider responses at debug level
	Logger *slog.Logger

	// Pacer, when set, is waited on before each request
	Pacer Pacer

	HTTPProxy  string
	HTTPSProxy string
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func requestTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

func (o Options) httpClient(timeout time.Duration) *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(o.HTTPProxy, o.HTTPSProxy),
		},
	}
}

// requester performs exactly one GET and classifies any failure
type requester struct {
	name       string
	httpClient *http.Client
	timeout    time.Duration
	pacer      Pacer
	logger     *slog.Logger
}

// get returns the response body of a 2xx response, or a classified *Error
func (r *requester) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	if r.pacer != nil {
		if err := r.pacer.Wait(ctx, rawURL); err != nil {
			return nil, Classify(Failure{Err: pacerError(ctx, err)}, r.name)
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, Classify(Failure{Err: fmt.Errorf("create request: %w", err)}, r.name)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, Classify(Failure{Err: err}, r.name)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, Classify(Failure{StatusCode: statusIfFailed(resp.StatusCode), Err: fmt.Errorf("read response: %w", err)}, r.name)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Debug("provider request failed",
			"provider", r.name,
			"status", resp.StatusCode,
		)
		return nil, Classify(Failure{StatusCode: resp.StatusCode, Payload: body}, r.name)
	}

	r.logger.Debug("provider raw response",
		"provider", r.name,
		"status", resp.StatusCode,
		"body", string(body),
	)

	return body, nil
}

// pacerError reports a refusal under a live context with a deadline as
// context.DeadlineExceeded, since the pacer gave up before the deadline arrived.
func pacerError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func statusIfFailed(status int) int {
	if status >= 200 && status < 300 {
		return 0
	}
	return status
}
