package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/grismview/internal/api"
	"github.com/banshee-data/grismview/internal/config"
	"github.com/banshee-data/grismview/internal/db"
	"github.com/banshee-data/grismview/internal/footprint"
	"github.com/banshee-data/grismview/internal/health"
	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/percentile"
	"github.com/banshee-data/grismview/internal/projection"
	"github.com/banshee-data/grismview/internal/session"
	"github.com/banshee-data/grismview/internal/version"
)

var (
	configFile  = flag.String("config", "", "Viewer config JSON (default: "+config.DefaultConfigPath+" when present)")
	listen      = flag.String("listen", "", "HTTP listen address (overrides config)")
	dbPath      = flag.String("db", "", "SQLite database path (overrides config)")
	grpcListen  = flag.String("grpc-listen", "", "gRPC health listen address (overrides config)")
	debugLog    = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// loadConfig reads path, or the default config file when path is empty and
// the file exists. Without either every setting takes its built-in default.
func loadConfig(path string) (*config.ViewerConfig, error) {
	if path != "" {
		return config.LoadViewerConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadViewerConfig(config.DefaultConfigPath)
	}
	return config.EmptyViewerConfig(), nil
}

// applyFlags copies non-empty flag values over the file config.
func applyFlags(cfg *config.ViewerConfig, listen, dbPath, grpcListen string) {
	if listen != "" {
		cfg.Listen = &listen
	}
	if dbPath != "" {
		cfg.DBPath = &dbPath
	}
	if grpcListen != "" {
		cfg.GRPCListen = &grpcListen
	}
}

func newSession(cfg *config.ViewerConfig) *session.Session {
	return session.New(session.Options{
		View:          projection.NewViewState(0, 0, cfg.GetDefaultScale()),
		InitialRadius: cfg.GetInitialRadius(),
		MinScale:      cfg.GetMinScale(),
		MaxScale:      cfg.GetMaxScale(),
		Norm:          percentile.NormParams{PMin: cfg.GetDefaultPMin(), PMax: cfg.GetDefaultPMax()},
		ExcludeZero:   cfg.GetExcludeZero(),
	})
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*debugLog)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applyFlags(cfg, *listen, *dbPath, *grpcListen)

	if flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], cfg.GetDBPath(), os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	monitoring.Logf("starting %s", version.String())

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	sess := newSession(cfg)
	defer sess.Close()

	srv := api.NewServer(api.Config{
		Session:    sess,
		Footprints: footprint.NewStore(database.DB),
		Bookmarks:  session.NewBookmarkStore(database.DB),
		Viewer:     cfg,
	})
	mux := srv.ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		log.Fatalf("failed to attach admin routes: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := api.Run(ctx, cfg.GetListen(), api.LoggingMiddleware(mux)); err != nil {
			monitoring.Logf("HTTP server failed: %v", err)
			stop()
		}
		monitoring.Logf("HTTP server routine stopped")
	}()

	if addr := cfg.GetGRPCListen(); addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hs := health.NewServer(health.Config{ListenAddr: addr})
			if err := hs.Run(ctx); err != nil {
				monitoring.Logf("gRPC health server failed: %v", err)
			}
		}()
	}

	wg.Wait()
	monitoring.Logf("Graceful shutdown complete")
}
