package sigctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// ErrStopped is the cause of a context canceled by its CancelFunc.
var ErrStopped = errors.New("stopped")

// NotifyContext returns a context canceled on SIGINT, SIGTERM or SIGQUIT.
// context.Cause reports which signal arrived.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			cancel(fmt.Errorf("received signal %s", sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(ErrStopped) }
}
