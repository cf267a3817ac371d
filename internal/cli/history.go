package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ipintel/internal/cache"
	"github.com/ppiankov/ipintel/internal/history"
	"github.com/ppiankov/ipintel/internal/model"
)

var historyJSON bool

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recent lookups",
	Long: `History lists the most recent lookups, newest first. Each IP appears once,
with the result of its latest lookup.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent lookups",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent lookups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ History cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "print history as JSON")
}

var errHistoryDisabled = errors.New("history is disabled (history.enabled: false)")

func openHistory() (*history.Store, error) {
	cfg, _, err := setup()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	return history.NewStore(cache.New(cfg.History), cfg.History.MaxItems, cfg.History.TTL), nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	items, err := store.List()
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	writeHistoryTable(cmd.OutOrStdout(), items)
	return nil
}

func writeHistoryTable(w io.Writer, items []model.HistoryItem) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "No lookups yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CHECKED\tIP\tRISK\tCOUNTRY\tISP")
	for _, it := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.CheckedAt.Local().Format(time.DateTime), it.IPAddress, it.Risk.Level, it.Record.Country, it.Record.ISP)
	}
	_ = tw.Flush()
}
