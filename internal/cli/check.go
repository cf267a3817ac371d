package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ipintel/internal/pipeline"
	"github.com/ppiankov/ipintel/internal/provider"
)

var (
	checkJSON    bool
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <ip>",
	Short: "Look up a single IP address",
	Long: `Check queries AbuseIPDB and IPQualityScore for one IPv4 or IPv6 address
and prints the merged threat summary with a risk level.

Example:
  ipintel check 8.8.8.8
  ipintel check 2001:4860:4860::8888 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the record as JSON")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "overall lookup timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	result, err := p.CheckIP(ctx, args[0])
	if err != nil {
		return describeError(err)
	}

	if checkJSON {
		return writeRecordJSON(cmd.OutOrStdout(), result)
	}
	writeResult(cmd.OutOrStdout(), result)
	return nil
}

// describeError turns a classified provider error into its user-facing message
func describeError(err error) error {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return fmt.Errorf("%s: %s", pe.Provider, pe.Message)
	}
	return err
}

func writeRecordJSON(w io.Writer, result *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Record); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// writeResult prints a human-readable summary
func writeResult(w io.Writer, result *pipeline.Result) {
	r := result.Record

	hostname := r.HostnameOrEmpty()
	if hostname == "" {
		hostname = "-"
	}
	vpn := "no"
	if r.VPNDetected {
		vpn = "yes"
	}

	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintf(w, "  %s\n", r.IPAddress)
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintf(w, "  Risk:            %s (%d/100)\n", result.Risk.Level, result.Risk.Score)
	_, _ = fmt.Fprintf(w, "  Hostname:        %s\n", hostname)
	_, _ = fmt.Fprintf(w, "  ISP:             %s\n", r.ISP)
	_, _ = fmt.Fprintf(w, "  Country:         %s\n", r.Country)
	_, _ = fmt.Fprintf(w, "  Abuse score:     %d/100\n", r.AbuseScore)
	_, _ = fmt.Fprintf(w, "  Recent reports:  %d\n", r.RecentReports)
	_, _ = fmt.Fprintf(w, "  VPN/proxy:       %s\n", vpn)
	_, _ = fmt.Fprintf(w, "  Threat score:    %d/100\n", r.ThreatScore)
	_, _ = fmt.Fprintln(w)
}
