package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ipintel/internal/pipeline"
	"github.com/ppiankov/ipintel/internal/worker"
)

var (
	batchTimeout   time.Duration
	batchJSON      bool
	includePrivate bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Look up many IP addresses from a file",
	Long: `Batch reads IP addresses from a file (or stdin with "-") and looks them up
concurrently:
- Addresses may be separated by newlines, commas, semicolons, tabs or spaces
- Lines starting with # are ignored; duplicates are looked up once
- Private and loopback addresses are skipped unless --include-private is set
- Requests to each provider are paced to stay inside its rate limit

Example:
  ipintel batch ips.txt
  ipintel batch ips.txt --workers 8 --json > results.jsonl
  cat ips.txt | ipintel batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", 4, "number of concurrent lookups")
	batchCmd.Flags().Float64("rps", 1, "requests per second per provider")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print one JSON object per line")
	batchCmd.Flags().BoolVar(&includePrivate, "include-private", false, "look up private and loopback addresses too")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("rate_limiting.provider_requests_per_second", batchCmd.Flags().Lookup("rps"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	limiter := worker.NewLimiter(cfg.RateLimiting.ProviderRequestsPerSecond, cfg.RateLimiting.ProviderBurst)

	p, err := pipeline.New(cfg, logger, limiter)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ipintel Batch Lookup\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Pacing:       %.2f req/s per provider\n", cfg.RateLimiting.ProviderRequestsPerSecond)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, !includePrivate)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out := cmd.OutOrStdout()
	if batchJSON {
		if err := writeBatchJSON(out, results); err != nil {
			return err
		}
	} else {
		writeBatchTable(out, results)
	}

	s := summarize(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d IPs\n", s.total)
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", s.success)
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", s.skipped)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", s.failed)
	fmt.Fprintf(os.Stderr, "\n")

	if s.failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", s.failed, s.total)
	}
	return nil
}

type batchSummary struct {
	total, success, skipped, failed int
}

func summarize(results []*worker.CheckResult) batchSummary {
	s := batchSummary{total: len(results)}
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.failed++
		case r.Skipped != "":
			s.skipped++
		default:
			s.success++
		}
	}
	return s
}

// batchLine is the JSON shape of one batch result
type batchLine struct {
	IP      string `json:"ip"`
	Record  any    `json:"record,omitempty"`
	Risk    any    `json:"risk,omitempty"`
	Skipped string `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeBatchJSON(w io.Writer, results []*worker.CheckResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := batchLine{IP: r.IP, Skipped: r.Skipped}
		if r.Error != nil {
			line.Error = describeError(r.Error).Error()
		} else if r.Record != nil {
			line.Record = r.Record
			line.Risk = r.Risk
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}

func writeBatchTable(w io.Writer, results []*worker.CheckResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "IP\tRISK\tABUSE\tTHREAT\tVPN\tCOUNTRY\tISP")

	for _, r := range results {
		switch {
		case r.Error != nil:
			_, _ = fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\t\n", r.IP, describeError(r.Error))
		case r.Skipped != "":
			_, _ = fmt.Fprintf(tw, "%s\tskipped (%s)\t\t\t\t\t\n", r.IP, r.Skipped)
		default:
			rec := r.Record
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\t%s\t%s\n",
				r.IP, r.Risk.Level, rec.AbuseScore, rec.ThreatScore, rec.VPNDetected, rec.Country, rec.ISP)
		}
	}

	_ = tw.Flush()
}
