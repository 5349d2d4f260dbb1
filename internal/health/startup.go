// SPDX-License-Identifier: MIT
package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/persistence/sqlite"
)

// PerformStartupChecks validates the environment before the daemon starts
// serving. Config validation has already run; these checks cover what only
// the runtime environment can answer.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	if err := checkListenAddr(logger, cfg.API.ListenAddr); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}

	if cfg.Run.FencePath != "" {
		if err := checkFileReadable(cfg.Run.FencePath); err != nil {
			return fmt.Errorf("fence file error: %w", err)
		}
		logger.Info().Str("path", cfg.Run.FencePath).Msg("✓ Fence file is readable")
	}

	if cfg.History.Path != "" {
		if err := checkHistoryIntegrity(logger, cfg.History.Path); err != nil {
			return fmt.Errorf("run history check failed: %w", err)
		}
	}

	if cfg.Watch.Enabled && strings.EqualFold(cfg.Store.Backend, "memory") {
		logger.Warn().
			Str("store_backend", cfg.Store.Backend).
			Msg("watcher uses in-memory store; consistency does not survive restarts")
	}

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; run history and mappings may be lost on reboot")
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("✓ API listen address is valid")
	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}

// checkHistoryIntegrity quick-checks an existing history database before the
// daemon opens it. A missing file is a fresh start, not a failure.
func checkHistoryIntegrity(logger zerolog.Logger, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	issues, err := sqlite.VerifyIntegrity(path, "quick")
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return fmt.Errorf("history database is corrupt: %s", strings.Join(issues, "; "))
	}
	logger.Info().Str("path", path).Msg("✓ Run history database is intact")
	return nil
}
