package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/pipeline"
	"github.com/ppiankov/ipintel/internal/validate"
)

// Checker defines the interface for looking up a single IP
type Checker interface {
	CheckIP(ctx context.Context, ip string) (*pipeline.Result, error)
}

// CheckJob represents a single IP lookup
type CheckJob struct {
	Index   int
	IP      string
	Checker Checker
}

// Execute executes the lookup
func (j *CheckJob) Execute(ctx context.Context) Result {
	res := &CheckResult{Index: j.Index, IP: j.IP}

	out, err := j.Checker.CheckIP(ctx, j.IP)
	if err != nil {
		res.Error = err
		return res
	}

	res.Record = out.Record
	res.Risk = out.Risk
	return res
}

// CheckResult represents the outcome for one IP of a batch
type CheckResult struct {
	Index   int
	IP      string
	Record  *model.Record
	Risk    model.Risk
	Skipped string // reason the IP was not looked up, empty otherwise
	Error   error
}

// GetError returns the error from the lookup
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor looks up many IPs concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	skipPrivate bool
}

// NewBatchProcessor creates a new batch processor. With skipPrivate set,
// private and loopback addresses are reported as skipped instead of sent to providers.
func NewBatchProcessor(checker Checker, concurrency int, skipPrivate bool) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		skipPrivate: skipPrivate,
	}
}

// ProcessIPs looks up every IP and returns one result per input, in input order
func (b *BatchProcessor) ProcessIPs(ctx context.Context, ips []string) []*CheckResult {
	results := make([]*CheckResult, len(ips))
	if len(ips) == 0 {
		return results
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, ip := range ips {
		switch {
		case !validate.IsValid(ip):
			results[i] = &CheckResult{Index: i, IP: ip, Error: validate.ErrInvalidIP}
			continue
		case b.skipPrivate && validate.IsPrivate(ip):
			results[i] = &CheckResult{Index: i, IP: ip, Skipped: "private address"}
			continue
		}

		if !pool.Submit(&CheckJob{Index: i, IP: ip, Checker: b.checker}) {
			results[i] = &CheckResult{Index: i, IP: ip, Error: ctx.Err()}
		}
	}

	for _, r := range pool.Wait() {
		cr := r.(*CheckResult)
		results[cr.Index] = cr
	}

	// Jobs still queued when ctx was cancelled never ran
	for i, r := range results {
		if r == nil {
			results[i] = &CheckResult{Index: i, IP: ips[i], Error: context.Cause(ctx)}
		}
	}

	return results
}

// ProcessFile reads IPs from a file ("-" for stdin) and looks them up concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	ips, err := ReadIPsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read IPs: %w", err)
	}

	return b.ProcessIPs(ctx, ips), nil
}

// ReadIPsFromFile reads IPs from a file, or from stdin when filePath is "-"
func ReadIPsFromFile(filePath string) ([]string, error) {
	if filePath == "-" {
		return ReadIPs(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadIPs(file)
}

// ReadIPs reads addresses separated by newlines, commas, semicolons, tabs or
// spaces. Lines starting with # are comments. Valid addresses are normalized
// before deduplication; invalid tokens are kept so they can be reported.
func ReadIPs(r io.Reader) ([]string, error) {
	var ips []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == '\t' || r == ' '
		})
		for _, tok := range tokens {
			if normalized, err := validate.Normalize(tok); err == nil {
				tok = normalized
			}
			if !seen[tok] {
				seen[tok] = true
				ips = append(ips, tok)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return ips, nil
}
