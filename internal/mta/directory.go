package mta

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/jamespfennell/gtfs"

	"subwaydash.nyc/internal/logging"
)

// DefaultStaticURL is the canonical location of the NYCT static GTFS archive.
const DefaultStaticURL = "http://web.mta.info/developers/data/nyct/subway/google_transit.zip"

const (
	stopsCacheFile  = "stops.csv"
	routesCacheFile = "routes.csv"

	// Cached station data is considered fresh for one calendar day.
	cacheMaxAge = 24 * time.Hour
)

// stopRow and routeRow are the on-disk cache schema: the two tabular files
// extracted from the static archive, written back out with gocsv.
type stopRow struct {
	StopID string  `csv:"stop_id"`
	Name   string  `csv:"stop_name"`
	Lat    float64 `csv:"stop_lat"`
	Lon    float64 `csv:"stop_lon"`
}

type routeRow struct {
	RouteID  string `csv:"route_id"`
	LongName string `csv:"route_long_name"`
	Color    string `csv:"route_color"`
}

// directoryTables is an immutable snapshot of the loaded reference data.
// A load replaces the whole snapshot by atomic swap, so concurrent readers
// never observe a partially-updated table.
type directoryTables struct {
	stations []Station
	routes   []Route
	loadedAt time.Time
}

// DirectoryConfig configures a StationDirectory.
type DirectoryConfig struct {
	// StaticSource is a URL or a local path to a static GTFS zip archive.
	// Defaults to DefaultStaticURL.
	StaticSource string
	// CacheDir holds stops.csv and routes.csv between runs.
	CacheDir string
	// HTTPTimeout bounds the archive download. Defaults to 60s.
	HTTPTimeout time.Duration
	Logger      *slog.Logger
}

// StationDirectory loads and serves the static station/route reference
// tables. Load populates the tables; lookups are lock-free reads of the
// current snapshot.
type StationDirectory struct {
	staticSource string
	cacheDir     string
	isLocalFile  bool
	client       *http.Client
	logger       *slog.Logger

	tables atomic.Pointer[directoryTables]
	loadMu sync.Mutex
}

// NewStationDirectory creates a directory. Call Load before querying it.
func NewStationDirectory(cfg DirectoryConfig) *StationDirectory {
	source := cfg.StaticSource
	if source == "" {
		source = DefaultStaticURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	isLocalFile := !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")

	return &StationDirectory{
		staticSource: source,
		cacheDir:     cfg.CacheDir,
		isLocalFile:  isLocalFile,
		client:       &http.Client{Timeout: timeout},
		logger:       logger.With(slog.String("component", "station_directory")),
	}
}

// Load populates the in-memory station and route tables. A cache younger
// than one calendar day is preferred; otherwise the static archive is
// fetched, parsed, and the cache rewritten. When the fetch fails a stale
// cache is still usable; with neither, Load returns a DataUnavailableError.
// force skips the fresh-cache check.
func (d *StationDirectory) Load(force bool) error {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()

	if !force && d.cacheDir != "" {
		if tables, err := d.readCache(false); err == nil {
			logging.LogOperation(d.logger, "loaded_station_cache",
				slog.Int("stations", len(tables.stations)),
				slog.Int("routes", len(tables.routes)))
			d.tables.Store(tables)
			return nil
		}
	}

	tables, fetchErr := d.fetchStatic()
	if fetchErr == nil {
		if d.cacheDir != "" {
			if err := d.writeCache(tables); err != nil {
				// A failed cache write only costs the next run a download.
				logging.LogError(d.logger, "failed to write station cache", err)
			}
		}
		d.tables.Store(tables)
		return nil
	}

	if d.cacheDir != "" {
		if tables, err := d.readCache(true); err == nil {
			logging.LogError(d.logger, "static dataset fetch failed, using stale cache", fetchErr)
			d.tables.Store(tables)
			return nil
		}
	}

	return &DataUnavailableError{Source: d.staticSource, Err: fetchErr}
}

// Loaded reports whether reference tables are available.
func (d *StationDirectory) Loaded() bool {
	return d.tables.Load() != nil
}

// LoadedAt returns when the current tables were built, or the zero time.
func (d *StationDirectory) LoadedAt() time.Time {
	if t := d.tables.Load(); t != nil {
		return t.loadedAt
	}
	return time.Time{}
}

// StationCount returns the number of stations in the current tables.
func (d *StationDirectory) StationCount() int {
	if t := d.tables.Load(); t != nil {
		return len(t.stations)
	}
	return 0
}

// FindByName returns stations whose raw name contains query
// (case-insensitive), or equals it exactly when exact is set. Both
// directional platforms are returned; deduplication by core ID is the
// caller's concern. No matches yields an empty result, not an error.
func (d *StationDirectory) FindByName(query string, exact bool) []Station {
	tables := d.tables.Load()
	if tables == nil {
		return nil
	}

	var matches []Station
	lowered := strings.ToLower(query)
	for _, station := range tables.stations {
		if exact {
			if station.RawName == query {
				matches = append(matches, station)
			}
		} else if strings.Contains(strings.ToLower(station.RawName), lowered) {
			matches = append(matches, station)
		}
	}
	return matches
}

// FindByID returns stations whose stop ID contains idOrPartial. A bare core
// ID matches both directional platforms.
func (d *StationDirectory) FindByID(idOrPartial string) []Station {
	tables := d.tables.Load()
	if tables == nil {
		return nil
	}

	var matches []Station
	for _, station := range tables.stations {
		if strings.Contains(station.StopID, idOrPartial) {
			matches = append(matches, station)
		}
	}
	return matches
}

// ListRoutes returns the route table ordered by route ID.
func (d *StationDirectory) ListRoutes() []Route {
	tables := d.tables.Load()
	if tables == nil {
		return nil
	}
	return tables.routes
}

func (d *StationDirectory) stopsCachePath() string {
	return filepath.Join(d.cacheDir, stopsCacheFile)
}

func (d *StationDirectory) routesCachePath() string {
	return filepath.Join(d.cacheDir, routesCacheFile)
}

func (d *StationDirectory) readCache(ignoreAge bool) (*directoryTables, error) {
	info, err := os.Stat(d.stopsCachePath())
	if err != nil {
		return nil, err
	}
	if !ignoreAge && time.Since(info.ModTime()) >= cacheMaxAge {
		return nil, fmt.Errorf("station cache from %v is stale", info.ModTime())
	}

	var stops []stopRow
	if err := readCSVFile(d.stopsCachePath(), &stops); err != nil {
		return nil, err
	}
	var routes []routeRow
	if err := readCSVFile(d.routesCachePath(), &routes); err != nil {
		return nil, err
	}

	return buildTables(stops, routes), nil
}

func (d *StationDirectory) writeCache(tables *directoryTables) error {
	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return err
	}

	stops := make([]stopRow, 0, len(tables.stations))
	for _, station := range tables.stations {
		stops = append(stops, stopRow{
			StopID: station.StopID,
			Name:   station.RawName,
			Lat:    station.Lat,
			Lon:    station.Lon,
		})
	}
	if err := writeCSVFile(d.stopsCachePath(), &stops); err != nil {
		return err
	}

	routes := make([]routeRow, 0, len(tables.routes))
	for _, route := range tables.routes {
		routes = append(routes, routeRow{
			RouteID:  route.ID,
			LongName: route.LongName,
			Color:    route.Color,
		})
	}
	return writeCSVFile(d.routesCachePath(), &routes)
}

func (d *StationDirectory) fetchStatic() (*directoryTables, error) {
	var raw []byte
	var err error

	if d.isLocalFile {
		raw, err = os.ReadFile(d.staticSource)
		if err != nil {
			return nil, fmt.Errorf("reading local static archive: %w", err)
		}
	} else {
		logging.LogOperation(d.logger, "downloading_static_dataset",
			slog.String("url", d.staticSource))
		resp, err := d.client.Get(d.staticSource)
		if err != nil {
			return nil, fmt.Errorf("downloading static archive: %w", err)
		}
		defer logging.SafeCloseWithLogging(resp.Body, d.logger, "static_archive_body")

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("static archive download returned status %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading static archive: %w", err)
		}
	}

	static, err := gtfs.ParseStatic(raw, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing static archive: %w", err)
	}

	stops := make([]stopRow, 0, len(static.Stops))
	for _, stop := range static.Stops {
		row := stopRow{StopID: stop.Id, Name: stop.Name}
		if stop.Latitude != nil {
			row.Lat = *stop.Latitude
		}
		if stop.Longitude != nil {
			row.Lon = *stop.Longitude
		}
		stops = append(stops, row)
	}

	routes := make([]routeRow, 0, len(static.Routes))
	for _, route := range static.Routes {
		routes = append(routes, routeRow{
			RouteID:  route.Id,
			LongName: route.LongName,
			Color:    route.Color,
		})
	}

	return buildTables(stops, routes), nil
}

func buildTables(stops []stopRow, routes []routeRow) *directoryTables {
	tables := &directoryTables{
		stations: make([]Station, 0, len(stops)),
		routes:   make([]Route, 0, len(routes)),
		loadedAt: time.Now(),
	}

	for _, stop := range stops {
		tables.stations = append(tables.stations, newStation(stop.StopID, stop.Name, stop.Lat, stop.Lon))
	}
	sort.Slice(tables.stations, func(i, j int) bool {
		a, b := tables.stations[i], tables.stations[j]
		if a.CoreID != b.CoreID {
			return a.CoreID < b.CoreID
		}
		return a.Direction < b.Direction
	})

	for _, route := range routes {
		tables.routes = append(tables.routes, Route{
			ID:       route.RouteID,
			LongName: route.LongName,
			Color:    route.Color,
		})
	}
	sort.Slice(tables.routes, func(i, j int) bool {
		return tables.routes[i].ID < tables.routes[j].ID
	})

	return tables
}

func readCSVFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() // nolint
	return gocsv.UnmarshalFile(f, out)
}

func writeCSVFile(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close() // nolint
		return err
	}
	return f.Close()
}
