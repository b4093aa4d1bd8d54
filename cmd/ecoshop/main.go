package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/app"
	"github.com/five82/ecoshop/internal/config"
	"github.com/five82/ecoshop/internal/logging"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/pages"
)

var (
	// Global flags
	verbose      bool
	configPath   string
	prefsPath    string
	pollSeconds  int
	outputFormat string

	cfg config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd launches the storefront TUI.
var rootCmd = &cobra.Command{
	Use:   "ecoshop",
	Short: "Terminal client for the eco storefront",
	Long: `ecoshop browses products, manages your cart, checks out and signs in
against the storefront API.

Run without arguments to start the interactive storefront.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		// The terminal belongs to the TUI, so logs go to a file.
		logger, err = logging.New(cfg.LogPath, cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), app.Options{
			Config:    cfg,
			Logger:    logger,
			PrefsPath: prefsPath,
			PollEvery: pollSeconds,
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/ecoshop/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "UI preferences file (default ~/.config/ecoshop/prefs.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "Output format: table, json or yaml")
	rootCmd.Flags().IntVar(&pollSeconds, "poll", 0, "Cart refresh interval in seconds (default from config)")

	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logsCmd)
}

// withServices builds the storefront services for one command. Notifications
// are printed to stderr.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Services) error) error {
	ctx := cmd.Context()
	svc, err := app.Build(ctx, cfg, logger, notify.NewWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()
	return fn(ctx, svc)
}

// reportError prints err unless a page handler has already shown it.
func reportError(w io.Writer, err error) {
	if err == nil || pages.IsNotified(err) {
		return
	}
	fmt.Fprintf(w, "ecoshop: %v\n", err)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
