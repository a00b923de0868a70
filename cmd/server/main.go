package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/consolewatch/backend/internal/activity"
	"github.com/consolewatch/backend/internal/config"
	"github.com/consolewatch/backend/internal/dispatch"
	"github.com/consolewatch/backend/internal/klog"
	"github.com/consolewatch/backend/internal/metadata"
	"github.com/consolewatch/backend/internal/metrics"
	"github.com/consolewatch/backend/internal/mock"
	"github.com/consolewatch/backend/internal/monitor"
	"github.com/consolewatch/backend/internal/stats"
	"github.com/consolewatch/backend/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Run against a built-in mock console")
	configPath := flag.String("config", "", "Path to config file")
	consoleHost := flag.String("console", "", "Override console host")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *consoleHost != "" {
		cfg.Console.Host = *consoleHost
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *mockMode); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Fatal: %v", err)
	}
	log.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, mockMode bool) error {
	m := metrics.New()

	cache, err := metadata.OpenCache(cfg.Catalog.CachePath)
	if err != nil {
		return fmt.Errorf("open metadata cache: %w", err)
	}
	resolver := metadata.NewResolver(metadata.ResolverConfig{
		PS4BaseURL:   cfg.Catalog.PS4BaseURL,
		PS5BaseURL:   cfg.Catalog.PS5BaseURL,
		FetchTimeout: cfg.Catalog.FetchTimeout,
	})
	library := metadata.NewLibrary(cache, resolver, m)

	broadcaster := ws.NewBroadcaster(cfg.Server.MaxClients)
	dispatcher := dispatch.NewDispatcher(m, dispatch.NewLogSink(), broadcaster)
	defer dispatcher.Close()

	tracker := activity.NewTracker()
	mon := monitor.NewMonitor(ctx, tracker, library, dispatcher, m)

	klogAddr := cfg.KlogAddr()
	statsURL := cfg.StatsURL()
	g, ctx := errgroup.WithContext(ctx)

	if mockMode {
		console, err := mock.Listen("127.0.0.1:0")
		if err != nil {
			return err
		}
		console.Speedup = 4
		klogAddr = console.Addr()
		statsURL = ""
		log.Printf("Mock console on %s", klogAddr)
		g.Go(func() error {
			if err := console.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mock console: %w", err)
			}
			return nil
		})
	}

	reader := klog.NewReader(klogAddr, mon, klog.ReaderConfig{
		ReadTimeout:    cfg.Monitor.ReadTimeout,
		IdleAfter:      cfg.Monitor.IdleAfter,
		ReconnectDelay: cfg.Monitor.ReconnectDelay,
		Metrics:        m,
	})
	g.Go(func() error {
		return reader.Run(ctx)
	})

	var providers []stats.Provider
	if statsURL != "" {
		providers = append(providers, stats.NewConsoleProvider(statsURL, cfg.Stats.Timeout))
	}
	if cfg.Stats.HostTelemetry {
		providers = append(providers, stats.NewHostProvider())
	}
	poller := stats.NewPoller(dispatcher, cfg.Stats.Interval, providers...)
	g.Go(func() error {
		return poller.Run(ctx)
	})

	if cfg.Server.Enabled {
		server := ws.NewServer(broadcaster, m.Handler(), cfg.Server.AllowedOrigins, cfg.Server.AuthToken)
		mux := http.NewServeMux()
		server.SetupRoutes(mux)

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: mux,
		}
		g.Go(func() error {
			log.Printf("Server listening on %s", httpSrv.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
