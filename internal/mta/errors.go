package mta

import "fmt"

// DataUnavailableError indicates that the static station dataset could not be
// loaded from either the local cache or the upstream source.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("station data unavailable from %s: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// FeedFetchError indicates an HTTP-level failure while fetching a realtime
// feed. Timeout is set when the request timed out rather than returning a
// non-200 status.
type FeedFetchError struct {
	Group   string
	Status  int
	Body    string
	Timeout bool
	Err     error
}

func (e *FeedFetchError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("feed %q: request timed out: %v", e.Group, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("feed %q: unexpected status %d: %s", e.Group, e.Status, e.Body)
	}
	return fmt.Sprintf("feed %q: fetch failed: %v", e.Group, e.Err)
}

func (e *FeedFetchError) Unwrap() error { return e.Err }

// FeedDecodeError indicates that a feed payload could not be parsed as a
// GTFS-realtime FeedMessage.
type FeedDecodeError struct {
	Group string
	Err   error
}

func (e *FeedDecodeError) Error() string {
	return fmt.Sprintf("feed %q: cannot decode payload: %v", e.Group, e.Err)
}

func (e *FeedDecodeError) Unwrap() error { return e.Err }

// UnknownLineError indicates a line that no configured feed group serves.
type UnknownLineError struct {
	Line string
}

func (e *UnknownLineError) Error() string {
	return fmt.Sprintf("no feed group serves line %q", e.Line)
}

// StationNotFoundError indicates that a station query matched nothing and no
// fallback was available.
type StationNotFoundError struct {
	Query string
}

func (e *StationNotFoundError) Error() string {
	return fmt.Sprintf("no station matches %q", e.Query)
}
