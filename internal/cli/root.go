package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ipintel/internal/model"
)

// version is overridden at build time with -ldflags "-X .../internal/cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ipintel",
	Short: "ipintel - IP threat intelligence from AbuseIPDB and IPQualityScore",
	Long: `ipintel looks up an IP address with two reputation providers at once
and merges their answers into a single threat summary:

- AbuseIPDB supplies abuse confidence, report counts, ISP, country and hostname
- IPQualityScore supplies VPN/proxy detection and a fraud score

Both providers must answer for a lookup to succeed. Provider failures are
reported with their cause (rate limit, bad key, outage, timeout).

API keys are read from ABUSEIPDB_API_KEY and IPQUALITYSCORE_API_KEY.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ipintel %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ipintel/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// configDir returns ~/.ipintel
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".ipintel"), nil
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}

		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv maps IPINTEL_* variables onto config keys (IPINTEL_SERVER_PORT -> server.port)
// and accepts the providers' conventional key variables
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("IPINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("providers.abuseipdb.api_key", "IPINTEL_PROVIDERS_ABUSEIPDB_API_KEY", "ABUSEIPDB_API_KEY")
	_ = v.BindEnv("providers.ipqualityscore.api_key", "IPINTEL_PROVIDERS_IPQUALITYSCORE_API_KEY", "IPQUALITYSCORE_API_KEY")
}

// setDefaults registers every config key so env variables are picked up by Unmarshal
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.trust_proxy_headers", d.Server.TrustProxyHeaders)

	v.SetDefault("providers.abuseipdb.api_key", "")
	v.SetDefault("providers.abuseipdb.base_url", d.Providers.AbuseIPDB.BaseURL)
	v.SetDefault("providers.abuseipdb.timeout", d.Providers.AbuseIPDB.Timeout)
	v.SetDefault("providers.abuseipdb.max_age_in_days", d.Providers.AbuseIPDB.MaxAgeInDays)
	v.SetDefault("providers.ipqualityscore.api_key", "")
	v.SetDefault("providers.ipqualityscore.base_url", d.Providers.IPQualityScore.BaseURL)
	v.SetDefault("providers.ipqualityscore.timeout", d.Providers.IPQualityScore.Timeout)
	v.SetDefault("providers.ipqualityscore.strictness", d.Providers.IPQualityScore.Strictness)
	v.SetDefault("providers.http_proxy", d.Providers.HTTPProxy)
	v.SetDefault("providers.https_proxy", d.Providers.HTTPSProxy)

	v.SetDefault("rate_limiting.requests_per_window", d.RateLimiting.RequestsPerWindow)
	v.SetDefault("rate_limiting.window", d.RateLimiting.Window)
	v.SetDefault("rate_limiting.provider_requests_per_second", d.RateLimiting.ProviderRequestsPerSecond)
	v.SetDefault("rate_limiting.provider_burst", d.RateLimiting.ProviderBurst)

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_items", d.History.MaxItems)
	v.SetDefault("history.dir", d.History.Dir)
	v.SetDefault("history.ttl", d.History.TTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig resolves the effective configuration: flags > env > file > defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.History.Dir == "" {
		if dir, err := configDir(); err == nil {
			cfg.History.Dir = filepath.Join(dir, "history")
		}
	}

	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}

	return cfg, nil
}

// newLogger builds the process logger. Logs go to w (stderr) so stdout stays
// clean for results.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// setup loads configuration and builds the logger for a command
func setup() (*model.Config, *slog.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format), nil
}
