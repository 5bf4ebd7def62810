package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikolayk812/fieldops-cart/config"
	"github.com/nikolayk812/fieldops-cart/internal/app"
	"github.com/nikolayk812/fieldops-cart/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext(context.Background())
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	cartService := app.New(sigCtx, cfg)

	cartService.Run(closeApp)

	<-sigCtx.Done()
	slog.Info("shutting down", "cause", context.Cause(sigCtx))
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	cartService.Close(ctx)
}
