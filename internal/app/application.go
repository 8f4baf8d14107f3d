package app

import (
	"log/slog"

	"subwaydash.nyc/internal/mta"
)

// Application holds the dependencies for the HTTP handlers, helpers, and
// middleware: the loaded station directory, the realtime feed fetcher, and
// the resolver built over both.
type Application struct {
	Config    Config
	Logger    *slog.Logger
	Directory *mta.StationDirectory
	Feeds     *mta.FeedFetcher
	Resolver  *mta.ArrivalResolver
}

// Config holds all the configuration settings for the Application, read from
// command-line flags (optionally seeded from a .env file) when the server
// starts.
type Config struct {
	Port           int
	Env            string
	StaticSource   string
	CacheDir       string
	FeedBaseURL    string
	FeedGroupsPath string
	FeedTTLSeconds int
	HTTPTimeoutSec int
}
