package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/pipeline"
	"github.com/MeKo-Tech/photocore/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor operations over HTTP",
	Long: `Serve the editor operations as a JSON API.

The background removal endpoints speak the same protocol as the relay, so
one photocore instance can act as the relay of another.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:3001", "Listen address (host:port)")
	serveCmd.Flags().Int("max-concurrent", runtime.NumCPU(), "Max concurrent image jobs (default: number of CPUs)")
	serveCmd.Flags().Duration("request-timeout", 2*time.Minute, "Timeout per image job")
	serveCmd.Flags().Int64("max-body", 50<<20, "Max request body size in bytes")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for responses")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Grace period for running jobs on shutdown")
	serveCmd.Flags().Int("max-width", pipeline.MaxExportWidth, "Max width of rendered images")
	serveCmd.Flags().Int("max-height", pipeline.MaxExportHeight, "Max height of rendered images")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.max_concurrent", "max-concurrent")
	mustBind("serve.request_timeout", "request-timeout")
	mustBind("serve.max_body", "max-body")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.shutdown_timeout", "shutdown-timeout")
	mustBind("serve.max_width", "max-width")
	mustBind("serve.max_height", "max-height")
}

// serveRenderer builds the scene renderer with the configured export bounds.
func serveRenderer() (*pipeline.Renderer, error) {
	w, h := viper.GetInt("serve.max_width"), viper.GetInt("serve.max_height")
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid max render size %dx%d", w, h)
	}
	return pipeline.NewRenderer(pipeline.WithLogger(logger), pipeline.WithMaxSize(w, h)), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	maxConc := viper.GetInt("serve.max_concurrent")
	reqTimeout := viper.GetDuration("serve.request_timeout")

	renderer, err := serveRenderer()
	if err != nil {
		return err
	}

	svc, cleanup, err := newService(editor.WithRenderer(renderer))
	if err != nil {
		return err
	}
	defer cleanup()

	api := server.NewAPI(svc, server.Config{
		CacheControl:   viper.GetString("serve.cache_control"),
		MaxConcurrent:  maxConc,
		RequestTimeout: reqTimeout,
		MaxBodyBytes:   viper.GetInt64("serve.max_body"),
	}, logger)

	logger.Info("api server listening",
		"addr", addr,
		"max_concurrent", maxConc,
		"request_timeout", reqTimeout,
		"max_width", viper.GetInt("serve.max_width"),
		"max_height", viper.GetInt("serve.max_height"),
		"relay", viper.GetString("relay.url"),
		"stats_db", viper.GetString("stats.db"),
	)

	ctx, stop := signalContext()
	defer stop()

	srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "active_jobs", api.Status().Jobs.ActiveJobs)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("serve.shutdown_timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
