package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ragchat/internal/logger"
)

// notifyHangup subscribes c to SIGHUP. Replaced in tests.
var notifyHangup = func(c chan<- os.Signal) {
	signal.Notify(c, syscall.SIGHUP)
}

// onHangup calls reload on every SIGHUP until ctx ends or the returned
// stop function runs. A nil reload installs nothing.
func onHangup(ctx context.Context, reload func()) (stop func()) {
	if reload == nil {
		return func() {}
	}

	sig := make(chan os.Signal, 1)
	notifyHangup(sig)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				reload()
				logger.Info("Reloaded prompts")
			}
		}
	}()

	return func() {
		signal.Stop(sig)
		cancel()
		<-done
	}
}
