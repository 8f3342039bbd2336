package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CryptoPrep/internal/handler/api"
	"CryptoPrep/internal/services/dataset"
	"CryptoPrep/internal/usecase"
	pkgch "CryptoPrep/pkg/clickhouse"
	"CryptoPrep/pkg/config"
	xhttp "CryptoPrep/pkg/http"
	applogger "CryptoPrep/pkg/logger"
	"CryptoPrep/pkg/util"
)

// App encapsulates the entire application lifecycle: run the preparation
// pipeline once, export the dataset, then optionally serve the result over
// HTTP until interrupted.
type App struct {
	cfg      *config.Config
	preparer *usecase.Preparer
	exporter *usecase.DatasetExporter
	query    *usecase.DatasetQuery
	handler  *api.DatasetHandler
	chClient *pkgch.Client

	httpServer *xhttp.Server
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	preparer *usecase.Preparer,
	exporter *usecase.DatasetExporter,
	query *usecase.DatasetQuery,
	handler *api.DatasetHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		preparer: preparer,
		exporter: exporter,
		query:    query,
		handler:  handler,
		chClient: chClient,
	}
}

// SetLogger injects a structured logger.
func (a *App) SetLogger(l *applogger.Logger) { a.l = l }

// Run executes the pipeline and, when the server is enabled, serves the
// dataset until interrupted. Without the server it exits after export.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	start, _ := util.ParseDate(a.cfg.Data.Start)
	end, _ := util.ParseDate(a.cfg.Data.End)

	l.Info("starting pipeline",
		applogger.Strings("currencies", a.cfg.Data.Currencies),
		applogger.String("from", a.cfg.Data.Start),
		applogger.String("to", a.cfg.Data.End),
	)
	ds, err := a.preparer.Run(ctx, a.cfg.Data.Currencies, start, end)
	if err != nil {
		l.Error("pipeline failed", applogger.Error(err))
		return err
	}

	if err := a.exporter.ExportAll(ctx, ds); err != nil {
		l.Error("export failed", applogger.Error(err))
		return err
	}
	l.Info("dataset exported",
		applogger.Int("rows", len(ds.Rows)),
		applogger.Strings("backends", a.cfg.Export.Backends),
	)
	a.query.SetLatest(ds)

	if a.cfg.Pipeline.TrainFrac > 0 {
		for cur, ss := range dataset.Split(ds, a.cfg.Pipeline.TrainFrac, a.cfg.Pipeline.ValidateFrac) {
			l.Info("chronological split",
				applogger.String("currency", cur),
				applogger.Int("train", len(ss.Train)),
				applogger.Int("validate", len(ss.Validate)),
				applogger.Int("test", len(ss.Test)),
			)
		}
	}

	if !a.cfg.Server.Enabled {
		return a.shutdown(ctx, l)
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("dataset api listening", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	a.exporter.Close()

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
