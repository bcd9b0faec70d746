package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verse-labs/presence-server/config"
	"github.com/verse-labs/presence-server/internal/broadcast"
	"github.com/verse-labs/presence-server/internal/dispatch"
	"github.com/verse-labs/presence-server/internal/logger"
	"github.com/verse-labs/presence-server/internal/metrics"
	"github.com/verse-labs/presence-server/internal/registry"
	"github.com/verse-labs/presence-server/internal/server"
	httpx "github.com/verse-labs/presence-server/internal/transport/http"
	"github.com/verse-labs/presence-server/internal/transport/ws"
	"github.com/verse-labs/presence-server/internal/userstore"
	pgstore "github.com/verse-labs/presence-server/internal/userstore/postgres"
	"github.com/verse-labs/presence-server/internal/wire"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (default $CONFIG_PATH or ./config/config.yaml)")
	flag.Parse()

	// --- config ---
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		File:      cfg.Logging.File,
	})
	slog.Info("starting presence-server",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- user store ---
	ctx := context.Background()
	var users userstore.Store
	if cfg.Postgres.DSN != "" {
		pg, err := pgstore.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pg.Close()
		users = pg
		slog.Info("user store: postgres")
	} else {
		users = userstore.NewMemory()
		slog.Info("user store: in-memory")
	}

	// --- core ---
	m := metrics.New()
	reg := registry.New()
	codec := wire.Codec{MaxFrame: uint32(cfg.Limits.MaxFrameBytes)}
	engine := broadcast.New(codec, reg, m)

	disp := dispatch.New()
	dispatch.NewHandlers(reg, engine, users).Register(disp)

	srv := server.New(server.Config{
		DefaultRoom:   cfg.DefaultRoom,
		SendQueueSize: cfg.Limits.SendQueueSize,
		IdleTimeout:   cfg.IdleTimeout(),
		Codec:         codec,
	}, reg, disp, engine, m)

	// --- listeners ---
	lis, err := net.Listen("tcp", cfg.TCP.Addr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.TCP.Addr, err)
	}

	wsHandler := ws.NewHandler(srv.HandleConn)
	router := httpx.NewRouter(reg, m, wsHandler)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("tcp listen", "addr", cfg.TCP.Addr)
		if err := srv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = lis.Close()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
