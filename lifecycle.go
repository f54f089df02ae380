package beans

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownOnSignal blocks until one of signals arrives or ctx is done, then
// shuts c down. Without signals it waits for SIGINT and SIGTERM. Hooks run
// with a context that keeps ctx's values but not its cancellation.
func ShutdownOnSignal(ctx context.Context, c *Container, signals ...os.Signal) error {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	// Channel for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, signals...)
	defer signal.Stop(shutdown)

	return shutdownOn(ctx, c, shutdown)
}

func shutdownOn(ctx context.Context, c *Container, shutdown <-chan os.Signal) error {
	select {
	case <-ctx.Done():
	case <-shutdown:
	}
	return c.Shutdown(context.WithoutCancel(ctx))
}
