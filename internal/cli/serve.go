package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ipintel/internal/pipeline"
	"github.com/ppiankov/ipintel/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes lookups over HTTP:

  GET    /health                 liveness check
  GET    /api/intel?ip=<address>  merged threat record
  GET    /api/history            recent lookups, newest first
  DELETE /api/history            forget recent lookups

Lookups are limited per client IP (10 per minute by default).

Example:
  ipintel serve
  ipintel serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "listen address")
	serveCmd.Flags().Int("port", 3001, "listen port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, logger, nil)
	if err != nil {
		return err
	}

	return server.New(cfg, p, p.History(), logger).Run(cmd.Context())
}
