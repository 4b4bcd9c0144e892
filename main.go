package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/danielhkuo/quorumvote/cliparse"
	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/middleware"
	"github.com/danielhkuo/quorumvote/router"
)

const programName = "quorumvote"

var (
	configFile string
	debug      bool
)

// shutdownTimeout bounds how long in-flight requests get on SIGTERM
const shutdownTimeout = 10 * time.Second

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), "component", programName)
}

// commonRun installs the JSON logger and sizes GOMAXPROCS to the container.
func commonRun(debug bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: debug,
		Level:     level,
	}))
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		slog.Error("failed to set GOMAXPROCS", "error", err)
		os.Exit(1)
	}
	return logger
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Quorum-gated shareholder attendance and voting",
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		StringVarP(&configFile, "config", "c", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().
		BoolVarP(&debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(tokenCommand())
	rootCmd.AddCommand(importCommand())
	rootCmd.AddCommand(statusCommand())

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "serve [-p port] [-d database-url] [-t sqlite|postgres] [-c config.yaml]",
		Short:              "Run the HTTP API",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(args)
		},
	}
}

func serveRun(args []string) error {
	cfg, err := cliparse.ParseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	logger := commonRun(cfg.Debug, os.Stdout)

	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	logger.Info("database schema ready", "type", cfg.DatabaseType)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := router.NewServices(dbConn, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := http.Server{
		Handler:           middleware.CORS(router.NewRouter(svc, cfg)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// ends open event streams so Shutdown does not wait on them
	server.RegisterOnShutdown(svc.Close)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	logger.Info("listening",
		"port", cfg.Port,
		"lock_scope", cfg.LockScope,
		"event_buffer", cfg.EventBuffer,
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server closed: %w", err)
	}
	logger.Info("server closed")
	return nil
}
