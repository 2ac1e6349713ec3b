// Web server for the codelist assistant using Gin framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/cli"
	"github.com/kusy2009/Codelist-Genius/internal/config"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Printf("codelist-genius web: %v", err)
		os.Exit(1)
	}
}

// run starts the server and blocks until it stops. Every failure is
// returned so deferred cleanup runs.
func run(args []string) error {
	fs := flag.NewFlagSet("codelist-genius-web", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to a YAML config file")
	addr := fs.String("addr", "", "Listen address (overrides web.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := cli.BuildComponents(ctx, cfg, zl)
	if err != nil {
		zl.Error("failed to build assistant", zap.Error(err))
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			zl.Warn("failed to release resources", zap.Error(err))
		}
	}()

	// Use release mode in production
	gin.SetMode(gin.ReleaseMode)

	r, err := newRouter(comps.Assistant, comps.History, zl)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	zl.Info("starting gin server",
		zap.String("addr", cfg.Web.Addr),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("history_store", cfg.History.Store))
	if err := serve(ctx, cfg.Web.Addr, r, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
