package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/readshelf/internal/app"
	"github.com/five82/readshelf/internal/config"
	"github.com/five82/readshelf/internal/logging"
)

var (
	// Global flags
	configPath string
	prefsPath  string
	envFile    string
	poll       time.Duration
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "readshelf",
	Short: "Terminal client for your reading library",
	Long: `readshelf shows your library as three shelves (To Read, Read and
Abandoned), lets you move and rate books, and adds recommendations to your
To Read shelf.

Run without arguments to start the interactive interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err = logging.New(cfg.LogPath(), verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debug("config loaded", zap.String("api_url", cfg.APIURL), zap.Bool("token", cfg.Token != ""))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), cfg, logger, app.Options{
			PrefsPath: prefsPath,
			PollEvery: poll,
		})
	},
}

var shelvesCmd = &cobra.Command{
	Use:   "shelves",
	Short: "Print the library grouped by shelf",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.PrintShelves(cmd.Context(), cfg, logger, cmd.OutOrStdout())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config path (default ~/.config/readshelf/config.toml)")
	flags.StringVar(&prefsPath, "prefs", "", "preferences path (default ~/.config/readshelf/prefs.toml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with READSHELF_* overrides; empty disables")
	flags.DurationVar(&poll, "poll", 0, "library reload interval (default 10s)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(shelvesCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "readshelf: %v\n", err)
		return 1
	}
	return 0
}
