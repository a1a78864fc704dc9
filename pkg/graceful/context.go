// Package graceful ties process lifetime to OS termination signals.
package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Context returns a context that is canceled on SIGINT or SIGTERM, so
// consumers and servers can drain in-flight work before exiting. A second
// signal is left at default disposition and kills the process.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received termination signal, starting graceful shutdown...")
		signal.Stop(sigChan)
		cancel()
	}()

	return ctx, cancel
}
