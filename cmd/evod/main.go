package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evod"
	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/runner"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"google.golang.org/grpc"
)

func main() {
	var configPath string
	var grpcAddr string
	var httpAddr string
	var logLevel string

	flag.StringVar(&configPath, "config", "", "path to the daemon config YAML")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	flag.Parse()

	cfg := config.DefaultDaemonConfig()
	if configPath != "" {
		loaded, err := config.LoadDaemonConfig(configPath)
		if err != nil {
			logger.Error("failed to load daemon config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if grpcAddr != "" {
		cfg.GRPCAddr = grpcAddr
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	var log *slog.Logger
	if cfg.LogFormat == "text" {
		log = logger.NewText(cfg.LogLevel, os.Stdout)
	} else {
		log = logger.New(cfg.LogLevel, os.Stdout)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store := evod.NewRunStore()
	registry := runner.DefaultRegistry()
	exporter := metrics.NewExporter()
	notifier := evod.NewNotifier(cfg.Callback, log)
	executor := evod.NewRunExecutor(store, registry, exporter, notifier, evod.ExecutorConfig{
		MaxParallelRuns: cfg.MaxParallelRuns,
		QueueCapacity:   cfg.QueueCapacity,
		Logger:          log,
	})

	// TODO: Configure gRPC server security (e.g., TLS, authentication, rate limiting)
	// before using this service in a production environment.
	grpcServer := grpc.NewServer()
	evod.RegisterEvolutionServiceServer(grpcServer, evod.NewGRPCServer(store, executor, log))

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", cfg.GRPCAddr, "error", err)
		stop()
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           evod.NewHTTPServer(store, executor, registry, exporter, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr,
			"max_parallel_runs", cfg.MaxParallelRuns,
			"problems", registry.Names())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// cancelling the runs first ends their event streams
	executor.Shutdown()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
