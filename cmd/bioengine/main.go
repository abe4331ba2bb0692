package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/chat"
	"github.com/csheth/bioengine/internal/config"
	"github.com/csheth/bioengine/internal/content"
	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/logging"
	"github.com/csheth/bioengine/internal/tui"
	"github.com/csheth/bioengine/internal/web"
)

var version = "dev"

var (
	configPath  string
	verbose     bool
	noAltScreen bool
	serveAddr   string
)

var rootCmd = &cobra.Command{
	Use:   "bioengine",
	Short: "BioEngine - biology knowledge assistant",
	Long: `BioEngine is a terminal front end for the biology knowledge assistant.

Browse the home, features and about pages, log in, and chat with the
assistant. Run without arguments to start the interactive interface, or use
"serve" to expose the same sessions over HTTP and WebSocket.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve visitor sessions over HTTP and WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "bioengine", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/bioengine/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.FileEnv, configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runtimeOptions(cfg config.Config, logger *zap.Logger) core.Options {
	return core.Options{
		TransitionDelay: cfg.Timing.TransitionDelay,
		ReplyDelay:      cfg.Timing.ReplyDelay,
		Responder:       chat.NewScriptedResponder(cfg.Chat.ReplyText),
		Logger:          logger,
	}
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The UI owns the terminal, so logs always go to a file.
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Verbose: verbose})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt := core.NewRuntime(runtimeOptions(cfg, logger))
	defer rt.Close()

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.UI.AltScreen && !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Runtime:  rt,
			Copy:     content.Default(),
			Logger:   logger,
			WidthCap: cfg.UI.WidthCap,
		}),
		opts...,
	)
	logger.Info("starting terminal ui", zap.String("version", version))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	// A server has its stderr free, so the log file setting is ignored.
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Verbose: verbose})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(web.Options{
		Addr:        cfg.Server.Addr,
		MaxSessions: cfg.Server.MaxSessions,
		Runtime:     runtimeOptions(cfg, logger),
		Logger:      logger,
	})
	logger.Info("starting server", zap.String("version", version))
	return server.Run(ctx)
}
