package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"subwaydash.nyc/internal/api"
	"subwaydash.nyc/internal/app"
	"subwaydash.nyc/internal/logging"
	"subwaydash.nyc/internal/mta"
)

func main() {
	// A .env file seeds the defaults; flags still win.
	_ = godotenv.Load()

	var cfg app.Config
	flag.IntVar(&cfg.Port, "port", envInt("PORT", 4000), "API server port")
	flag.StringVar(&cfg.Env, "env", envString("ENV", "development"), "Environment (development|staging|production)")
	flag.StringVar(&cfg.StaticSource, "static-source", envString("STATIC_SOURCE", mta.DefaultStaticURL), "URL or local path of the static GTFS zip archive")
	flag.StringVar(&cfg.CacheDir, "cache-dir", envString("CACHE_DIR", "mta_data_cache"), "Directory for the cached station dataset")
	flag.StringVar(&cfg.FeedBaseURL, "feed-base-url", envString("FEED_BASE_URL", mta.DefaultFeedBaseURL), "Base URL for realtime feeds")
	flag.StringVar(&cfg.FeedGroupsPath, "feed-groups", envString("FEED_GROUPS", ""), "Optional YAML file overriding the line-to-feed grouping")
	flag.IntVar(&cfg.FeedTTLSeconds, "feed-ttl", envInt("FEED_TTL_SECONDS", 15), "Seconds to reuse a fetched feed snapshot (0 disables)")
	flag.IntVar(&cfg.HTTPTimeoutSec, "http-timeout", envInt("HTTP_TIMEOUT_SECONDS", 30), "Timeout for upstream requests, in seconds")
	flag.Parse()

	logger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)
	slog.SetDefault(logger)

	groups := mta.DefaultFeedGroups()
	if cfg.FeedGroupsPath != "" {
		loaded, err := mta.LoadFeedGroups(cfg.FeedGroupsPath)
		if err != nil {
			logger.Error("failed to load feed groups", "error", err, "path", cfg.FeedGroupsPath)
			os.Exit(1)
		}
		groups = loaded
	}

	directory := mta.NewStationDirectory(mta.DirectoryConfig{
		StaticSource: cfg.StaticSource,
		CacheDir:     cfg.CacheDir,
		HTTPTimeout:  time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		Logger:       logger,
	})
	if err := directory.Load(false); err != nil {
		logger.Error("failed to load station directory", "error", err)
		os.Exit(1)
	}

	fetcher := mta.NewFeedFetcher(mta.FetcherConfig{
		BaseURL:     cfg.FeedBaseURL,
		Groups:      groups,
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		SnapshotTTL: time.Duration(cfg.FeedTTLSeconds) * time.Second,
		Logger:      logger,
	})

	resolver := mta.NewArrivalResolver(directory, fetcher, mta.ResolverConfig{
		Aliases:       mta.DefaultStationAliases(),
		FallbackStops: mta.DefaultFallbackStops(),
		Logger:        logger,
	})

	application := &app.Application{
		Config:    cfg,
		Logger:    logger,
		Directory: directory,
		Feeds:     fetcher,
		Resolver:  resolver,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.New(application).Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env,
		"stations", directory.StationCount())
	err := srv.ListenAndServe()
	logger.Error(err.Error())
	os.Exit(1)
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
