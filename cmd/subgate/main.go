package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subgate/subgate/pkg/api"
	"github.com/subgate/subgate/pkg/config"
	"github.com/subgate/subgate/pkg/events"
	"github.com/subgate/subgate/pkg/gate"
	"github.com/subgate/subgate/pkg/log"
	"github.com/subgate/subgate/pkg/membership"
	"github.com/subgate/subgate/pkg/metrics"
	"github.com/subgate/subgate/pkg/provision"
	"github.com/subgate/subgate/pkg/reconciler"
	"github.com/subgate/subgate/pkg/registry"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "subgate",
	Short: "Subgate - Subscription-gated VPN access service",
	Long: `Subgate grants VPN access to users who hold an active channel
subscription and keeps revisiting that decision over time.

It issues per-user credentials through an Xray provisioning backend and
periodically reconciles every known user against the channel membership
oracle, so access state never drifts far from reality.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Subgate version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	serveCmd.Flags().String("config", "", "Path to YAML config file")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Subgate version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the subgate daemon",
	Long: `Run the subgate daemon: the HTTP access API, the membership
reconciliation loop, and the provisioning backend configured in the
config file or environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return runServe(configPath)
	},
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogFormat == "json",
	})
	metrics.SetVersion(Version)

	logger := log.WithComponent("main")
	logger.Info().
		Str("backend", string(cfg.Backend)).
		Str("listen_addr", cfg.ListenAddr).
		Dur("check_interval", cfg.CheckInterval).
		Msg("Starting subgate")

	oracle := membership.NewFailClosed(
		membership.NewTelegramChecker(cfg.TelegramAPIBase, cfg.BotToken, cfg.ChannelID, cfg.OracleTimeout),
		log.WithComponent("membership"),
	)

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}

	provisioner := provision.NewClient(backend, provision.Options{
		Attempts:     cfg.RetryAttempts,
		RetryDelay:   cfg.RetryDelay,
		ServerDomain: cfg.ServerDomain,
		ServerPort:   cfg.ServerPort,
		EmailDomain:  cfg.EmailDomain,
		Flow:         cfg.Flow,
	}, log.WithComponent("provision"))

	broker := events.NewBroker()
	broker.Start()
	broker.Attach(events.NewLogDispatcher(log.WithComponent("events")))

	reg := registry.New()
	recon := reconciler.New(reg, oracle, broker, cfg.CheckInterval, log.WithComponent("reconciler"))
	g := gate.New(reg, oracle, provisioner, broker, log.WithComponent("gate"))
	server := api.NewServer(cfg.ListenAddr, g, log.WithComponent("api"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go recon.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("API server error: %w", err)
		}
	}()

	logger.Info().Msg("Subgate is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("Shutting down")
	}

	// Stop taking new requests first, then stop the sweep loop and broker.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown failed")
	}
	cancel()
	broker.Stop()

	logger.Info().Msg("Shutdown complete")
	return nil
}

// buildBackend wires the provisioning backend selected in the config.
func buildBackend(cfg *config.Config) (provision.Backend, error) {
	switch cfg.Backend {
	case config.BackendAPI:
		return provision.NewAPIBackend(cfg.ControlURL, cfg.InboundTag), nil
	case config.BackendFile:
		var reloader provision.Reloader = provision.NopReloader{}
		if cfg.ReloadURL != "" {
			reloader = provision.NewHTTPReloader(cfg.ReloadURL)
		}
		return provision.NewFileBackend(cfg.XrayConfigPath, cfg.InboundPort, cfg.InboundProtocol, reloader), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
