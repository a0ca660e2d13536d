// Command callcache-mcp is an MCP stdio server exposing the instrumented
// cache and the cached web fetcher as tools.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/leonardcser/callcache/internal/backend"
	"github.com/leonardcser/callcache/internal/callcache"
	"github.com/leonardcser/callcache/internal/config"
	"github.com/leonardcser/callcache/internal/logger"
	"github.com/leonardcser/callcache/internal/telemetry"
	"github.com/leonardcser/callcache/internal/tools"
	"github.com/leonardcser/callcache/internal/web"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	if err := run(); err != nil {
		logger.Errorf("server error: %v", err)
		_ = logger.Close()
		os.Exit(1)
	}
}

func run() error {
	logger.Infof("Starting callcache MCP server")
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Infof("Opened %s backend", cfg.Backend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	cache, err := callcache.New(ctx, store, callcache.WithMetrics(metrics))
	if err != nil {
		return err
	}
	fetcher := web.NewFetcher(web.FetcherOptions{})
	searcher := web.NewSearcher("")
	deps := tools.Deps{
		Pages:    tools.NewPageCache(store, fetcher.FetchContent, cfg.PageTTL, metrics),
		Searches: tools.NewSearchCache(store, searcher.SearchContent, cfg.SearchTTL, metrics),
		Cache:    cache,
		Store:    store,
	}
	logger.Infof("Initialized caches (page ttl %s, search ttl %s)", cfg.PageTTL, cfg.SearchTTL)

	s := server.NewMCPServer(
		"callcache",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)
	tools.Register(s, deps)
	logger.Infof("Registered tools")

	g, gctx := errgroup.WithContext(ctx)
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Infof("Serving metrics on %s", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Infof("Starting MCP server on stdio")
		err := server.ServeStdio(s)
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return err
	})
	return g.Wait()
}
