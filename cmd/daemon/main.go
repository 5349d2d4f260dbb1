// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/geoanonymizer/internal/api"
	"github.com/ManuGH/geoanonymizer/internal/audit"
	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/daemon"
	"github.com/ManuGH/geoanonymizer/internal/health"
	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/jobs"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/sink"
	"github.com/ManuGH/geoanonymizer/internal/store"
	"github.com/ManuGH/geoanonymizer/internal/telemetry"
	"github.com/ManuGH/geoanonymizer/internal/version"
	"github.com/ManuGH/geoanonymizer/internal/watch"
)

// resolveConfigPath picks the config file to load. An explicit -config wins;
// otherwise <dataDir>/config.yaml is auto-loaded when it exists.
func resolveConfigPath(explicit, dataDir string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if dataDir = strings.TrimSpace(dataDir); dataDir == "" {
		dataDir = "data"
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	// Safe defaults until the configuration is loaded.
	log.Configure(log.Config{})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	explicitConfigPath := strings.TrimSpace(*configPath)
	effectiveConfigPath := resolveConfigPath(explicitConfigPath, config.ParseString(config.EnvDataDir, config.DefaultDataDir))

	// Load configuration with precedence: ENV > File > Defaults.
	loader := config.NewLoader(effectiveConfigPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	// Logging came up with defaults before the file was read; apply the
	// configured level now.
	log.SetLevel(cfg.LogLevel)

	// Log config source
	if explicitConfigPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", explicitConfigPath).
			Msg("loaded configuration from file")
	} else if effectiveConfigPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file(auto)").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	// Startup checks expect the data dir to exist.
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "data_dir.create_failed").
			Str("path", cfg.DataDir).
			Msg("failed to create data directory")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed; verify configuration and permissions")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.API.ListenAddr).
		Msg("starting geoanonymizer")

	// Log key configuration
	strategy := cfg.Run.Strategy
	if strategy == "" {
		strategy = "none"
	}
	logger.Info().Msgf("→ Strategy: %s", strategy)
	if cfg.Run.FencePath != "" {
		logger.Info().Msgf("→ Fence: %s (%s)", cfg.Run.FencePath, cfg.Run.FencePolicy)
	}
	switch cfg.Store.Backend {
	case "badger":
		logger.Info().Msgf("→ Store: badger (%s)", cfg.Store.Dir)
	case "redis":
		logger.Info().Msgf("→ Store: redis (%s)", cfg.Store.Redis.Addr)
	default:
		logger.Info().Msgf("→ Store: %s", cfg.Store.Backend)
	}
	logger.Info().Msgf("→ History: %s (keep %d)", cfg.History.Path, cfg.History.Keep)
	switch {
	case cfg.API.Token != "":
		logger.Info().Msg("→ API token: configured")
	case cfg.API.Anonymous:
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: anonymous access enabled (api.anonymous)")
	default:
		logger.Warn().
			Str("security", "fail-closed").
			Msg("→ API token: NOT configured. /v1 requests are rejected until GEOANON_API_TOKEN is set.")
	}
	if cfg.Watch.Enabled {
		logger.Info().Msgf("→ Watch: %s (pattern %s)", cfg.Watch.Dir, cfg.Watch.Pattern)
	}
	if cfg.Sink.PostGIS.DSN != "" {
		// Never log the DSN, it carries credentials.
		logger.Info().Msgf("→ PostGIS mirror: table %s", cfg.Sink.PostGIS.Table)
	}
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Protocol:       cfg.Telemetry.Protocol,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.init_failed").
			Msg("failed to initialize telemetry")
	}

	st, err := store.Open(store.Config{
		Backend: cfg.Store.Backend,
		Dir:     cfg.Store.Dir,
		Redis: store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		},
	}, log.WithComponent("store"))
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "store.open_failed").
			Str("backend", cfg.Store.Backend).
			Msg("failed to open consistency store")
	}

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "history.open_failed").
			Str("path", cfg.History.Path).
			Msg("failed to open run history")
	}

	var mirror *sink.PostGIS
	if cfg.Sink.PostGIS.DSN != "" {
		mirror, err = sink.OpenPostGIS(ctx, sink.PostGISConfig{
			DSN:   cfg.Sink.PostGIS.DSN,
			Table: cfg.Sink.PostGIS.Table,
		})
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "postgis.open_failed").
				Msg("failed to connect to PostGIS mirror")
		}
	}

	// One auditor and one runner, shared by the API and the watcher.
	auditor := audit.NewLogger()
	runner := jobs.NewRunner(jobs.RunnerOptions{
		Store:   st,
		History: hist,
		Audit:   auditor,
		Mirror:  mirror,
	})

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))
	hm.RegisterChecker(health.NewPingChecker("history", hist.Ping))
	if mirror != nil {
		hm.RegisterChecker(health.NewPingChecker("postgis", mirror.Ping))
	}
	hm.RegisterChecker(health.NewLastRunChecker(runner.LastRun))

	apiServer := api.New(cfg, api.Options{
		Runner:  runner,
		History: hist,
		Health:  hm,
		Auditor: auditor,
	})

	deps := daemon.Deps{
		Logger: logger,
		Config: cfg,
		Server: apiServer,
	}

	if cfg.Watch.Enabled {
		// The watcher always masks consistently so re-dropped files keep
		// their mappings.
		watcher, err := watch.New(watch.Config{
			Dir:        cfg.Watch.Dir,
			OutDir:     cfg.Watch.OutDir,
			Pattern:    cfg.Watch.Pattern,
			Settle:     cfg.Watch.Settle,
			Settings:   cfg.Run,
			Consistent: true,
		}, runner)
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "watch.init_failed").
				Str("dir", cfg.Watch.Dir).
				Msg("failed to create drop-folder watcher")
		}
		deps.Watcher = watcher
	}

	mgr, err := daemon.NewManager(deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.creation.failed").
			Msg("failed to create daemon manager")
	}

	// LIFO: the mirror and history close first, telemetry flushes last so
	// shutdown spans still get exported.
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	mgr.RegisterShutdownHook("store", func(context.Context) error {
		return st.Close()
	})
	mgr.RegisterShutdownHook("history", func(context.Context) error {
		return hist.Close()
	})
	if mirror != nil {
		mgr.RegisterShutdownHook("postgis", func(context.Context) error {
			mirror.Close()
			return nil
		})
	}

	// Start daemon app (blocks until shutdown)
	app := daemon.NewApp(logger, mgr, cfg, hist, st)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon failed")
	}

	logger.Info().Msg("server exiting")
}
