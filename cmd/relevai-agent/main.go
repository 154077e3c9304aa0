// Package main is the entry point for the RelevAI credential agent, a
// sidecar that keeps OAuth2-style tokens renewed and serves them to
// co-located workloads over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relev-ai/relevai-go/config"
	"github.com/relev-ai/relevai-go/internal/agent"
	"github.com/relev-ai/relevai-go/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	cfg := loadConfig(flags)
	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting relevai-agent",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.Int("keys", len(cfg.Keys)),
	)

	ctx := context.Background()

	a, err := agent.New(ctx, cfg, agent.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialize agent", observability.Error(err))
	}

	if err := a.Start(ctx); err != nil {
		logger.Fatal("failed to start agent", observability.Error(err))
	}

	watcher := startConfigWatcher(a, flags.configPath, logger)

	waitForShutdown(a, watcher, cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config",
		getEnvOrDefault("RELEVAI_AGENT_CONFIG_PATH", "configs/agent.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", os.Getenv("RELEVAI_AGENT_LOG_LEVEL"),
		"Log level override (debug, info, warn, error)")
	logFormat := flag.String("log-format", os.Getenv("RELEVAI_AGENT_LOG_FORMAT"),
		"Log format override (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("relevai-agent version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// loadConfig loads and validates the configuration, applying any command
// line log overrides.
func loadConfig(flags cliFlags) *config.AgentConfig {
	cfg, err := config.LoadAndValidate(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	return cfg
}

// initLogger initializes the logger from the loaded configuration.
func initLogger(cfg *config.AgentConfig) observability.Logger {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// startConfigWatcher hot-reloads the credential set when the config file
// changes. A watcher failure degrades to a static configuration.
func startConfigWatcher(a *agent.Agent, configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath,
		func(newCfg *config.AgentConfig) {
			logger.Info("configuration changed, reloading keys")
			if reloadErr := a.Reload(context.Background(), newCfg); reloadErr != nil {
				logger.Error("configuration reload failed", observability.Error(reloadErr))
			}
		},
		config.WithWatcherLogger(logger),
	)
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// waitForShutdown blocks until SIGINT or SIGTERM, then stops everything
// within the configured shutdown timeout.
func waitForShutdown(a *agent.Agent, watcher *config.Watcher, cfg *config.AgentConfig, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := a.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop agent gracefully", observability.Error(err))
	}
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
