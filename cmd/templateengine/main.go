// Command templateengine runs the template engine in server mode
// (HTTP API) or stdio mode (MCP API), selected by --mode.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pdftpl/templateengine/internal/config"
	"github.com/pdftpl/templateengine/internal/engine"
	"github.com/pdftpl/templateengine/internal/extract"
	"github.com/pdftpl/templateengine/internal/httpapi"
	"github.com/pdftpl/templateengine/internal/mcpapi"
	"github.com/pdftpl/templateengine/internal/repository"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if cfg.IsDebug() {
		logger.Debug("starting with configuration", "config", cfg.String())
	}

	repo, err := repository.NewJSONFile(cfg.TemplatesPath)
	if err != nil {
		logger.Error("failed to open template store", "path", cfg.TemplatesPath, "error", err)
		os.Exit(1)
	}

	extractor := extract.NewDefaultChain()
	applier := engine.New(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, cfg, repo, extractor, applier, logger)
		return
	}
	runStdioMode(ctx, cfg, repo, extractor, applier, logger)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// runServerMode serves the HTTP API and waits for a shutdown signal.
func runServerMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, repo *repository.JSONFile, extractor *extract.Chain, applier engine.Applier, logger *slog.Logger) {
	handler := httpapi.New(cfg, repo, extractor, applier, logger)
	srv := &http.Server{Addr: cfg.Address(), Handler: handler}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("http server shutdown error", "error", err)
			os.Exit(1)
		}
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped successfully")
}

// runStdioMode runs the MCP server over stdio; the parent process
// controls this process's lifecycle.
func runStdioMode(ctx context.Context, cfg *config.Config, repo *repository.JSONFile, extractor *extract.Chain, applier engine.Applier, logger *slog.Logger) {
	server := mcpapi.New(cfg, repo, extractor, applier, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("templateengine\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
