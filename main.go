package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sheetsearch/config"
	"sheetsearch/loader"
	"sheetsearch/session"
	"sheetsearch/web"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	listen := flag.String("listen", "", "listen address, overrides the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	logger := cfg.Logger()
	store := session.NewStore(cfg.SnapshotTTL, cfg.MaxSnapshots)
	ld := loader.New(cfg.LoaderOptions(), logger)
	srv := web.New(cfg, store, ld, logger)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("server running", "addr", cfg.Listen, "date_columns", cfg.DateColumns)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
