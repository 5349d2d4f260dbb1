// SPDX-License-Identifier: MIT

// Package watch anonymizes CSV files dropped into a folder. A file is
// picked up once it stops changing for a settle period, runs through the
// jobs pipeline and lands in the output directory under an ".anon" name.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/geoanonymizer/internal/audit"
	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/fsutil"
	"github.com/ManuGH/geoanonymizer/internal/jobs"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/metrics"
)

// Config describes one watched drop folder.
type Config struct {
	Dir     string        // watched folder
	OutDir  string        // destination for anonymized copies, defaults to Dir
	Pattern string        // glob matched against base names, default "*.csv"
	Settle  time.Duration // quiet period before pickup, default 2s

	// Settings apply to every picked-up file.
	Settings   config.RunSettings
	NoHeader   bool
	Consistent bool
}

// Watcher turns file-system events into anonymization runs.
type Watcher struct {
	cfg     Config
	runner  *jobs.Runner
	auditor *audit.Logger
	logger  zerolog.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	pending map[string]*time.Timer
	work    chan string
}

// New validates cfg and builds a Watcher around the runner.
func New(cfg Config, runner *jobs.Runner) (*Watcher, error) {
	if runner == nil {
		return nil, errors.New("watch: runner is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("watch: directory is required")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = cfg.Dir
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*.csv"
	}
	if _, err := filepath.Match(cfg.Pattern, "probe.csv"); err != nil {
		return nil, fmt.Errorf("watch: pattern %q: %w", cfg.Pattern, err)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}

	return &Watcher{
		cfg:     cfg,
		runner:  runner,
		auditor: audit.NewLogger(),
		logger:  log.WithComponent("watch"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
		pending: make(map[string]*time.Timer),
		work:    make(chan string, 256),
	}, nil
}

// Run watches the drop folder until ctx is canceled. Files already in the
// folder at start are picked up too.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := os.MkdirAll(w.cfg.OutDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", w.cfg.Dir, err)
	}

	w.logger.Info().
		Str("event", "watch.start").
		Str("dir", w.cfg.Dir).
		Str("out_dir", w.cfg.OutDir).
		Str("pattern", w.cfg.Pattern).
		Dur("settle", w.cfg.Settle).
		Msg("watching drop folder")

	w.scanExisting()

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.logger.Info().Str("event", "watch.stop").Msg("watcher stopped")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			// Write and Create cover both copied and streamed uploads.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.observe(filepath.Base(event.Name))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.logger.Error().
				Err(err).
				Str("event", "watch.error").
				Msg("watcher error")

		case base := <-w.work:
			w.process(ctx, base)
			w.updateQueueDepth()
		}
	}
}

// scanExisting queues the files already sitting in the folder, through the
// same settle delay as fresh drops.
func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("event", "watch.scan_failed").
			Msg("initial folder scan failed")
		return
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.observe(entry.Name())
		}
	}
}

// observe resets the settle timer for one file name. The file is queued
// only after Settle passes without further events.
func (w *Watcher) observe(base string) {
	if !w.eligible(base) {
		return
	}
	w.mu.Lock()
	if t, ok := w.pending[base]; ok {
		t.Stop()
	}
	w.pending[base] = time.AfterFunc(w.cfg.Settle, func() { w.enqueue(base) })
	w.mu.Unlock()
	w.updateQueueDepth()
}

func (w *Watcher) eligible(base string) bool {
	if strings.HasPrefix(base, ".") {
		return false
	}
	// Our own outputs match the pattern when OutDir is the watched folder.
	if strings.Contains(base, ".anon.") {
		return false
	}
	ok, err := filepath.Match(w.cfg.Pattern, base)
	return err == nil && ok
}

func (w *Watcher) enqueue(base string) {
	w.mu.Lock()
	delete(w.pending, base)
	w.mu.Unlock()

	select {
	case w.work <- base:
	default:
		w.logger.Warn().
			Str("event", "watch.overflow").
			Str(log.FieldPath, base).
			Msg("work queue full, file skipped")
		metrics.IncWatchFile("skipped")
	}
	w.updateQueueDepth()
}

func (w *Watcher) process(ctx context.Context, base string) {
	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	in, err := fsutil.ConfineRelPath(w.cfg.Dir, base)
	if err != nil {
		w.reject(base, err)
		return
	}
	out, err := fsutil.ConfineRelPath(w.cfg.OutDir, outputName(base))
	if err != nil {
		w.reject(base, err)
		return
	}

	res, err := w.runner.Run(ctx, jobs.Request{
		Input:      in,
		Output:     out,
		Mode:       "watch",
		Actor:      "watcher",
		Settings:   w.cfg.Settings,
		NoHeader:   w.cfg.NoHeader,
		Consistent: w.cfg.Consistent,
	})
	if err != nil {
		metrics.IncWatchFile("failed")
		w.auditor.WatchFile(in, "failure")
		w.logger.Error().
			Err(err).
			Str("event", "watch.failed").
			Str(log.FieldInput, in).
			Msg("watched file failed")
		return
	}

	metrics.IncWatchFile("processed")
	w.auditor.WatchFile(in, "success")
	w.logger.Info().
		Str("event", "watch.processed").
		Str(log.FieldInput, in).
		Str(log.FieldOutput, out).
		Int(log.FieldRows, res.Stats.Rows).
		Int(log.FieldMasked, res.Stats.Masked).
		Msg("watched file anonymized")
}

func (w *Watcher) reject(base string, err error) {
	metrics.IncWatchFile("skipped")
	w.logger.Warn().
		Err(err).
		Str("event", "watch.rejected").
		Str(log.FieldPath, base).
		Msg("file rejected")
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for base, t := range w.pending {
		t.Stop()
		delete(w.pending, base)
	}
}

func (w *Watcher) updateQueueDepth() {
	w.mu.Lock()
	n := len(w.pending)
	w.mu.Unlock()
	metrics.SetWatchQueueDepth(n + len(w.work))
}

// outputName derives the destination name: points.csv becomes
// points.anon.csv.
func outputName(base string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".anon" + ext
}
