package signal

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a channel closed on the first SIGTERM or
// interrupt. A second signal before shutdown completes exits forcefully.
func SetupSignalHandler() <-chan struct{} {
	stop := make(chan struct{})
	shutdownCh := make(chan os.Signal, 2)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		fmt.Fprint(os.Stderr, "Received shutdown signal, exiting gracefully...\n")
		close(stop)
		<-shutdownCh
		fmt.Fprint(os.Stderr, "Received second shutdown signal, exiting forcefully...\n")
		os.Exit(1)
	}()

	return stop
}
