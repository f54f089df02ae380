package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/xraph/beans/internal/config"
	"github.com/xraph/beans/internal/definitions"
	"github.com/xraph/beans/internal/di"
	"github.com/xraph/beans/internal/inspect"
	"github.com/xraph/beans/internal/logger"
)

const (
	serveTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// newInspectHandler builds a container over the definitions in path and
// the diagnostics handler that serves it.
func newInspectHandler(path string, log logger.Logger) (http.Handler, *di.Container, error) {
	defs, err := definitions.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := definitions.Graph(defs)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Tracing.Enabled = false
	container, err := di.New(store, di.WithConfig(cfg), di.WithLogger(log), di.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	return inspect.Handler(container, inspect.WithGatherer(reg), inspect.WithLogger(log)), container, nil
}

func serveAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing definitions file")
	}
	log := logger.NewNoopLogger()
	handler, container, err := newInspectHandler(path, log)
	if err != nil {
		return err
	}

	addr := c.String("addr")
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  serveTimeout,
		WriteTimeout: serveTimeout,
		IdleTimeout:  serveTimeout * 2,
	}

	// Channel for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	fmt.Fprintf(c.App.Writer, "%s serving %d beans on %s\n", Green("✓"), len(container.Order()), addr)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)
	case <-shutdown:
	case <-c.Context.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
