package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/relay"
	"github.com/MeKo-Tech/photocore/internal/stats"
)

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newService wires the editor from the global flags plus extra. The
// returned cleanup flushes and closes the counter store.
func newService(extra ...editor.Option) (*editor.Service, func(), error) {
	opts := []editor.Option{editor.WithLogger(logger)}
	cleanup := func() {}

	if path := viper.GetString("stats.db"); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create stats directory: %w", err)
			}
		}
		db, err := stats.OpenSQLite(path, editor.DefaultCounters())
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, editor.WithCounter(db))
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close stats database", "path", path, "error", err)
			}
		}
	} else {
		opts = append(opts, editor.WithCounter(stats.NewMemory(editor.DefaultCounters())))
	}

	if url := viper.GetString("relay.url"); url != "" {
		copts := []relay.ClientOption{relay.WithLogger(logger)}
		if d := viper.GetDuration("relay.timeout"); d > 0 {
			copts = append(copts, relay.WithTimeouts(0, d))
		}
		opts = append(opts, editor.WithRemover(relay.NewClient(url, copts...)))
		logger.Debug("Using background removal relay", "url", url)
	}

	return editor.New(append(opts, extra...)...), cleanup, nil
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to a file, or stdout for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// parseTarget parses a CSS color into a relay target. Empty means none.
func parseTarget(s string) (*relay.TargetColor, error) {
	if s == "" {
		return nil, nil
	}
	c, err := colorspace.ParseColor(s)
	if err != nil {
		return nil, fmt.Errorf("invalid target color %q: %w", s, err)
	}
	return &relay.TargetColor{R: int(c.R), G: int(c.G), B: int(c.B)}, nil
}
