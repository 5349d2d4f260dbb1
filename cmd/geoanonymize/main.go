// SPDX-License-Identifier: MIT

// geoanonymize anonymizes geographic coordinates in CSV streams.
//
// Usage:
//
//	geoanonymize -in points.csv -out masked.csv -strategy donut:100m,500m
//	cat points.csv | geoanonymize -strategy round:2 > masked.csv
//	geoanonymize strategies
//	geoanonymize validate -f config.yaml
//	geoanonymize history -limit 10
//
// Exit codes:
//   - 0: Run completed
//   - 1: Run failed (I/O or processing error)
//   - 2: Usage or configuration error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/jobs"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/store"
	"github.com/ManuGH/geoanonymizer/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "strategies":
			os.Exit(runStrategies(os.Args[2:]))
		case "validate":
			os.Exit(runValidate(os.Args[2:]))
		case "history":
			os.Exit(runHistory(os.Args[2:]))
		}
	}
	os.Exit(runAnonymize(os.Args[1:]))
}

// resolveDefaultConfigPath returns ${GEOANON_DATA_DIR}/config.yaml when it
// exists, so runs without -config pick up the operator's configuration.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(config.ParseString(config.EnvDataDir, config.DefaultDataDir))
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

// runFlags carries the per-run flag values so explicitly set flags can
// override the configured defaults.
type runFlags struct {
	strategy    string
	lat         string
	lon         string
	alt         string
	decimals    int
	seed        int64
	fence       string
	fencePolicy string
	onError     string
}

// mergeRunSettings lays flags over the configured defaults. Only flags the
// user actually set override; set holds their names as reported by fs.Visit.
func mergeRunSettings(base config.RunSettings, f runFlags, set map[string]bool) config.RunSettings {
	if set["strategy"] {
		base.Strategy = f.strategy
	}
	if set["lat"] {
		base.LatColumn = f.lat
	}
	if set["lon"] {
		base.LonColumn = f.lon
	}
	if set["alt"] {
		base.AltColumn = f.alt
	}
	if set["decimals"] {
		base.Decimals = f.decimals
	}
	if set["seed"] {
		base.Seed = f.seed
	}
	if set["fence"] {
		base.FencePath = f.fence
	}
	if set["fence-policy"] {
		base.FencePolicy = f.fencePolicy
	}
	if set["on-error"] {
		base.OnError = f.onError
	}
	return base
}

func runAnonymize(args []string) int {
	fs := flag.NewFlagSet("geoanonymize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		in          = fs.String("in", "-", "input CSV file (- for stdin)")
		out         = fs.String("out", "-", "output CSV file (- for stdout)")
		strategy    = fs.String("strategy", "", "masking strategy, see the strategies subcommand")
		lat         = fs.String("lat", "", "latitude column name or index")
		lon         = fs.String("lon", "", "longitude column name or index")
		alt         = fs.String("alt", "", "altitude column name or index")
		decimals    = fs.Int("decimals", 0, "decimal places for written coordinates (0 = full precision)")
		seed        = fs.Int64("seed", 0, "random seed for reproducible runs (0 = random)")
		fence       = fs.String("fence", "", "GeoJSON fence file")
		fencePolicy = fs.String("fence-policy", "", "fence policy: mask-inside, mask-outside, drop-inside or drop-outside")
		onError     = fs.String("on-error", "", "bad row handling: fail, skip or keep")
		noHeader    = fs.Bool("no-header", false, "treat the first record as data, not a header")
		consistent  = fs.String("consistent", "", "mask consistently via a store backend: memory, badger or redis")
		storeDir    = fs.String("store-dir", "", "badger store directory")
		redisAddr   = fs.String("redis", "", "redis address for the redis store backend")
		configPath  = fs.String("config", "", "path to config file (YAML)")
		showVersion = fs.Bool("version", false, "print version and exit")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		return 0
	}

	log.Configure(log.Config{})
	logger := log.WithComponent("cli")

	configFile := strings.TrimSpace(*configPath)
	if configFile == "" {
		configFile = resolveDefaultConfigPath()
	}
	loader := config.NewLoader(configFile, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 2
	}
	log.SetLevel(cfg.LogLevel)

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	settings := mergeRunSettings(cfg.Run, runFlags{
		strategy:    *strategy,
		lat:         *lat,
		lon:         *lon,
		alt:         *alt,
		decimals:    *decimals,
		seed:        *seed,
		fence:       *fence,
		fencePolicy: *fencePolicy,
		onError:     *onError,
	}, set)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := strings.TrimSpace(*consistent)
	var st store.Store
	if backend != "" {
		storeCfg := store.Config{
			Backend: backend,
			Dir:     cfg.Store.Dir,
			Redis: store.RedisConfig{
				Addr:     cfg.Store.Redis.Addr,
				Password: cfg.Store.Redis.Password,
				DB:       cfg.Store.Redis.DB,
			},
		}
		if *storeDir != "" {
			storeCfg.Dir = *storeDir
		}
		if *redisAddr != "" {
			storeCfg.Redis.Addr = *redisAddr
		}
		if storeCfg.Backend == "badger" && storeCfg.Dir == "" {
			storeCfg.Dir = filepath.Join(cfg.DataDir, "store")
		}
		st, err = store.Open(storeCfg, log.WithComponent("store"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open %s store: %v\n", backend, err)
			return 2
		}
		defer func() { _ = st.Close() }()
	}

	// Run history is best effort for one-shot runs; a read-only or missing
	// data dir must not block the pipe.
	var hist *history.Store
	if cfg.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o750); err == nil {
			hist, err = history.Open(cfg.History.Path)
			if err != nil {
				logger.Debug().Err(err).Str("path", cfg.History.Path).Msg("run history unavailable")
				hist = nil
			} else {
				defer func() { _ = hist.Close() }()
			}
		}
	}

	runner := jobs.NewRunner(jobs.RunnerOptions{Store: st, History: hist})
	res, err := runner.Run(ctx, jobs.Request{
		Input:      *in,
		Output:     *out,
		Mode:       "cli",
		Actor:      "cli",
		Settings:   settings,
		NoHeader:   *noHeader,
		Consistent: backend != "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, jobs.ErrInvalidRequest) {
			return 2
		}
		return 1
	}

	// Stdout may carry the CSV stream, so the summary goes to stderr.
	fmt.Fprintf(os.Stderr, "✓ %d rows in %s: %d masked, %d kept, %d dropped, %d errors\n",
		res.Stats.Rows, res.Duration().Round(time.Millisecond),
		res.Stats.Masked, res.Stats.Kept, res.Stats.Dropped, res.Stats.Errors)
	return 0
}
