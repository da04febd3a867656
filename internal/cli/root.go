// Package cli provides the command-line interface for the option chain
// application.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"angel-options/internal/broker"
	"angel-options/internal/config"
	"angel-options/internal/logging"
	"angel-options/internal/master"
	"angel-options/internal/quotes"
	"angel-options/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Client    *broker.Client
	Cache     *master.Cache
	Fetcher   *quotes.Fetcher
	Store     *store.SQLiteStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, configDir string, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
	}
	if app.ConfigDir == "" {
		app.ConfigDir = config.DefaultConfigDir()
	}

	creds := cfg.Credentials.Angel
	app.Client = broker.New(broker.Config{
		Session: broker.Session{
			APIKey:         creds.APIKey,
			AuthToken:      creds.AuthToken,
			ClientLocalIP:  creds.ClientLocalIP,
			ClientPublicIP: creds.ClientPublicIP,
			MACAddress:     creds.MACAddress,
		},
		Logger: logger,
	})
	if !app.Client.IsAuthenticated() {
		logger.Debug().Msg("No session credentials, live data unavailable")
	}

	app.Cache = master.NewCache(cfg.CachePath(app.ConfigDir), logger)
	app.Fetcher = quotes.NewFetcher(app.Client, quotes.Config{
		ChunkSize:  cfg.Polling.ChunkSize,
		ChunkDelay: cfg.Polling.ChunkDelay,
		Parallel:   cfg.Polling.ParallelQuotes,
		Logger:     logger,
	})

	// Cycle journal is best-effort: the chain still works without it.
	dbPath := filepath.Join(app.ConfigDir, "cycles.db")
	if cycleStore, err := store.NewSQLiteStore(dbPath); err != nil {
		logger.Warn().Err(err).Msg("Failed to open cycle journal, history unavailable")
	} else {
		app.Store = cycleStore
	}

	rootCmd := &cobra.Command{
		Use:   "angel-options",
		Short: "Live option chain viewer for Angel One SmartAPI",
		Long: `angel-options maintains a live option chain for Indian index and stock
options via the Angel One SmartAPI.

It downloads and caches the scrip master, selects a strike window around
spot, fetches quotes in batches and prices every leg with a Black-Scholes
model, flagging strikes trading at a discount to theoretical value.

Use 'angel-options help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/angel-options)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newExpiriesCmd(app))
	rootCmd.AddCommand(newMasterCmd(app))
	rootCmd.AddCommand(newCalcCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("angel-options v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.ConfigDir})
			} else {
				output.Println(app.ConfigDir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Pricing")
	output.Printf("  Risk-Free Rate:   %.2f%%\n", cfg.Pricing.RiskFreeRate*100)
	output.Printf("  Model Volatility: %.2f%%\n", cfg.Pricing.ModelVolatility*100)
	output.Printf("  IV Iterations:    %d\n", cfg.Pricing.IVIterations)
	output.Println()

	output.Bold("Chain")
	output.Printf("  Default Underlying: %s\n", cfg.Chain.DefaultUnderlying)
	output.Printf("  Strike Radius:      %d\n", cfg.Chain.StrikeRadius)
	output.Printf("  Alert Threshold:    %.2f\n", cfg.Chain.DiscountAlertThreshold)
	output.Println()

	output.Bold("Polling")
	output.Printf("  Interval:    %s\n", cfg.Polling.Interval)
	output.Printf("  Chunk Size:  %d\n", cfg.Polling.ChunkSize)
	output.Printf("  Chunk Delay: %s\n", cfg.Polling.ChunkDelay)
	output.Printf("  Parallel:    %v\n", cfg.Polling.ParallelQuotes)
	output.Println()

	output.Bold("Cache")
	output.Printf("  Max Age: %s\n", cfg.Cache.MaxAge)
}
