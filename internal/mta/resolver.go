package mta

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"

	"subwaydash.nyc/internal/logging"
)

// TransitTimezone is the civil timezone arrival times are reported in,
// regardless of where the caller runs.
const TransitTimezone = "America/New_York"

// DefaultArrivalLimit is the truncation applied when a caller does not ask
// for a specific number of arrivals.
const DefaultArrivalLimit = 5

// TripUpdate is one predicted arrival: a single trip reaching a single
// platform at a single time.
type TripUpdate struct {
	RouteID     string    `json:"route_id"`
	TripID      string    `json:"trip_id"`
	StopID      string    `json:"stop_id"`
	ArrivalTime time.Time `json:"arrival_time"`
}

// LineFailure records that one line of a multi-line aggregation could not be
// resolved, so partial results stay distinguishable from complete ones.
type LineFailure struct {
	Line string
	Err  error
}

// FeedSource is the slice of FeedFetcher the resolver depends on; tests
// substitute a fake.
type FeedSource interface {
	GroupForLine(line string) (FeedGroup, error)
	FetchGroup(ctx context.Context, groupKey string) (*gtfs.Realtime, error)
}

// ResolverConfig carries the optional name-resolution tables.
type ResolverConfig struct {
	// Aliases maps a lowercased query fragment to alternate name queries
	// tried when the primary lookup finds nothing. Purely best-effort.
	Aliases map[string][]string
	// FallbackStops maps a lowercased query fragment to line-specific core
	// station IDs tried as a last resort after every name lookup failed.
	FallbackStops map[string]map[string]string
	Logger        *slog.Logger
}

// DefaultStationAliases returns alternate name queries for stations whose
// common names do not appear verbatim in the stops table. Consulted only
// after the primary lookup fails; a convenience, not a correctness
// guarantee.
func DefaultStationAliases() map[string][]string {
	return map[string][]string{
		"times sq": {"42 St-Times", "Times Sq", "42 St", "Port Authority"},
	}
}

// DefaultFallbackStops returns known core station IDs per line for stations
// that name matching routinely misses. Last resort only, and always logged.
func DefaultFallbackStops() map[string]map[string]string {
	return map[string]map[string]string{
		"times sq": {
			"1": "127", "2": "127", "3": "127",
			"N": "140", "Q": "140", "R": "140", "W": "140",
			"7": "725",
			"A": "A27", "C": "A27", "E": "A27",
		},
	}
}

// ArrivalResolver turns decoded feed snapshots into time-ordered arrival
// lists. It holds no mutable state; every call is independent given the
// loaded directory tables.
type ArrivalResolver struct {
	directory     *StationDirectory
	feeds         FeedSource
	aliases       map[string][]string
	fallbackStops map[string]map[string]string
	logger        *slog.Logger
	location      *time.Location
}

// NewArrivalResolver creates a resolver over a loaded directory and a feed
// source.
func NewArrivalResolver(directory *StationDirectory, feeds FeedSource, cfg ResolverConfig) *ArrivalResolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "arrival_resolver"))

	location, err := time.LoadLocation(TransitTimezone)
	if err != nil {
		logging.LogError(logger, "transit timezone unavailable, falling back to UTC", err)
		location = time.UTC
	}

	return &ArrivalResolver{
		directory:     directory,
		feeds:         feeds,
		aliases:       cfg.Aliases,
		fallbackStops: cfg.FallbackStops,
		logger:        logger,
		location:      location,
	}
}

// UpcomingTrains returns the next arrivals for one line at one station
// platform, ascending by arrival time and truncated to limit. A limit of
// zero or less means no truncation. No matching predictions is an empty
// result, not an error; an unserved line or a failed fetch propagates as its
// typed error.
func (r *ArrivalResolver) UpcomingTrains(ctx context.Context, line, stationCoreID string, direction Direction, limit int) ([]TripUpdate, error) {
	group, err := r.feeds.GroupForLine(line)
	if err != nil {
		return nil, err
	}

	feed, err := r.feeds.FetchGroup(ctx, group.Key)
	if err != nil {
		return nil, err
	}

	updates := collectArrivals(feed, line, stationCoreID+string(direction), r.location)
	sortByArrival(updates)
	return truncate(updates, limit), nil
}

// UpcomingTrainsMultiLine aggregates UpcomingTrains across lines into one
// sorted, truncated list. One line failing never discards another line's
// results: failures come back beside the (possibly partial) merged list, and
// the caller decides how to report degraded lines. When every line fails the
// list is empty and every failure is still reported.
func (r *ArrivalResolver) UpcomingTrainsMultiLine(ctx context.Context, lines []string, stationCoreID string, direction Direction, limit int) ([]TripUpdate, []LineFailure) {
	var merged []TripUpdate
	var failures []LineFailure

	for _, line := range lines {
		updates, err := r.UpcomingTrains(ctx, line, stationCoreID, direction, limit)
		if err != nil {
			logging.LogError(r.logger, "line degraded during aggregation", err,
				slog.String("line", line),
				slog.String("station", stationCoreID))
			failures = append(failures, LineFailure{Line: line, Err: err})
			continue
		}
		merged = append(merged, updates...)
	}

	sortByArrival(merged)
	return truncate(merged, limit), failures
}

// ArrivalsByStationName resolves a station name to a platform and returns
// its upcoming arrivals. The directional platform is preferred; when the
// name only matches the opposite platform the first match is used and the
// fallback is logged. Alias queries and the per-line fallback table are
// consulted, in that order, only after the primary lookup fails. A name that
// resolves nowhere is a StationNotFoundError.
func (r *ArrivalResolver) ArrivalsByStationName(ctx context.Context, name, line string, direction Direction, limit int) ([]TripUpdate, error) {
	stations := r.directory.FindByName(name, false)

	if len(stations) == 0 {
		stations = r.aliasLookup(name)
	}

	if len(stations) == 0 {
		if coreID, ok := r.fallbackStop(name, line); ok {
			logging.LogOperation(r.logger, "using_fallback_station_id",
				slog.String("query", name),
				slog.String("line", line),
				slog.String("core_id", coreID))
			return r.UpcomingTrains(ctx, line, coreID, direction, limit)
		}
		return nil, &StationNotFoundError{Query: name}
	}

	chosen := r.chooseStation(stations, name, direction)
	return r.UpcomingTrains(ctx, line, chosen.CoreID, direction, limit)
}

// ArrivalsByStationNameMultiLine resolves a station name once and aggregates
// arrivals across lines, with the same per-line failure reporting as
// UpcomingTrainsMultiLine. The fallback table is line-keyed, so when name
// resolution falls through to it each line gets its own core ID; a line
// without a fallback entry is reported as a failure. A name that resolves
// nowhere for any line is a StationNotFoundError.
func (r *ArrivalResolver) ArrivalsByStationNameMultiLine(ctx context.Context, name string, lines []string, direction Direction, limit int) ([]TripUpdate, []LineFailure, error) {
	stations := r.directory.FindByName(name, false)
	if len(stations) == 0 {
		stations = r.aliasLookup(name)
	}
	if len(stations) > 0 {
		chosen := r.chooseStation(stations, name, direction)
		updates, failures := r.UpcomingTrainsMultiLine(ctx, lines, chosen.CoreID, direction, limit)
		return updates, failures, nil
	}

	var merged []TripUpdate
	var failures []LineFailure
	matched := false
	for _, line := range lines {
		coreID, ok := r.fallbackStop(name, line)
		if !ok {
			failures = append(failures, LineFailure{Line: line, Err: &StationNotFoundError{Query: name}})
			continue
		}
		matched = true
		logging.LogOperation(r.logger, "using_fallback_station_id",
			slog.String("query", name),
			slog.String("line", line),
			slog.String("core_id", coreID))
		updates, err := r.UpcomingTrains(ctx, line, coreID, direction, limit)
		if err != nil {
			logging.LogError(r.logger, "line degraded during aggregation", err,
				slog.String("line", line),
				slog.String("station", coreID))
			failures = append(failures, LineFailure{Line: line, Err: err})
			continue
		}
		merged = append(merged, updates...)
	}
	if !matched {
		return nil, nil, &StationNotFoundError{Query: name}
	}

	sortByArrival(merged)
	return truncate(merged, limit), failures, nil
}

// chooseStation prefers the platform matching the requested direction; when
// the name only matches other platforms the first match is used and the
// fallback logged.
func (r *ArrivalResolver) chooseStation(stations []Station, name string, direction Direction) Station {
	for _, station := range stations {
		if station.Direction == direction {
			return station
		}
	}
	chosen := stations[0]
	r.logger.Warn("no platform matches requested direction, using first match",
		slog.String("query", name),
		slog.String("direction", direction.Label()),
		slog.String("stop_id", chosen.StopID))
	return chosen
}

func (r *ArrivalResolver) aliasLookup(name string) []Station {
	lowered := strings.ToLower(name)
	for fragment, queries := range r.aliases {
		if !strings.Contains(lowered, fragment) {
			continue
		}
		for _, query := range queries {
			if stations := r.directory.FindByName(query, false); len(stations) > 0 {
				logging.LogOperation(r.logger, "alias_lookup_matched",
					slog.String("query", name),
					slog.String("alias", query),
					slog.Int("matches", len(stations)))
				return stations
			}
		}
	}
	return nil
}

func (r *ArrivalResolver) fallbackStop(name, line string) (string, bool) {
	lowered := strings.ToLower(name)
	for fragment, byLine := range r.fallbackStops {
		if strings.Contains(lowered, fragment) {
			coreID, ok := byLine[strings.ToUpper(line)]
			return coreID, ok
		}
	}
	return "", false
}

// collectArrivals filters a decoded feed to the trip updates for one line at
// one platform. The predicted arrival time is used when present, else the
// predicted departure; a stop-time update carrying neither is discarded, not
// zero-filled.
func collectArrivals(feed *gtfs.Realtime, line, stopID string, location *time.Location) []TripUpdate {
	var updates []TripUpdate

	for _, trip := range feed.Trips {
		if trip.ID.RouteID != line {
			continue
		}

		for _, stopTime := range trip.StopTimeUpdates {
			if stopTime.StopID == nil || *stopTime.StopID != stopID {
				continue
			}

			at := stopTime.GetArrival().Time
			if at == nil {
				at = stopTime.GetDeparture().Time
			}
			if at == nil {
				continue
			}

			updates = append(updates, TripUpdate{
				RouteID:     trip.ID.RouteID,
				TripID:      trip.ID.ID,
				StopID:      *stopTime.StopID,
				ArrivalTime: at.In(location),
			})
		}
	}

	return updates
}

func sortByArrival(updates []TripUpdate) {
	sort.Slice(updates, func(i, j int) bool {
		return updates[i].ArrivalTime.Before(updates[j].ArrivalTime)
	})
}

func truncate(updates []TripUpdate, limit int) []TripUpdate {
	if limit > 0 && len(updates) > limit {
		return updates[:limit]
	}
	return updates
}
