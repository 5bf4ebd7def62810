package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fieldops-cart/config"
	"github.com/nikolayk812/fieldops-cart/internal/cart"
	"github.com/nikolayk812/fieldops-cart/internal/domain"
	"github.com/nikolayk812/fieldops-cart/internal/httphandler"
	"github.com/nikolayk812/fieldops-cart/internal/repository"
	"github.com/nikolayk812/fieldops-cart/pkg/retry"
	"github.com/shopspring/decimal"
)

type App struct {
	ctx        context.Context
	cfg        config.Config
	pool       *pgxpool.Pool
	session    *cart.Session
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initSession()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	pool, err := pgxpool.New(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	if err := pool.Ping(app.ctx); err != nil {
		app.fallDown(op, fmt.Errorf("database unavailable: %w", err))
	}
	slog.Info("database is available", "op", op)

	app.pool = pool
}

func (app *App) initSession() {
	const op = "App.initSession"

	taxRate, err := decimal.NewFromString(app.cfg.Pricing.TaxRate)
	if err != nil {
		app.fallDown(op, fmt.Errorf("invalid tax rate %q: %w", app.cfg.Pricing.TaxRate, err))
	}

	unit := domain.CurrencyForPackage(app.cfg.Pricing.PackageName, app.cfg.Pricing.OmanPackage)
	unit = domain.CurrencyFromCode(app.cfg.Pricing.Currency, unit)

	app.session = cart.NewSession(
		cart.NewStore(),
		repository.NewCartStorage(app.pool),
		cart.TaxRateOpt(taxRate),
		cart.CurrencyOpt(unit),
		cart.RetryOpt(retry.RetryConfig{
			MaxAttempts: app.cfg.Storage.RetryAttempts,
			Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
		}),
	)

	slog.Info("cart session is ready", "op", op, "currency", unit.String(), "taxRate", taxRate.String())
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterCart(mux, app.session)

	handler := httphandler.AllowJSON(mux)
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.pool.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
