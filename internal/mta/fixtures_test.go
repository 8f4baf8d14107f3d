package mta

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamespfennell/gtfs"
	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

// staticFixture describes the contents of a test GTFS archive.
type staticFixture struct {
	stops  [][4]string // stop_id, stop_name, stop_lat, stop_lon
	routes [][3]string // route_id, route_long_name, route_color
}

func defaultStaticFixture() staticFixture {
	return staticFixture{
		stops: [][4]string{
			{"127", "Times Sq-42 St (123)", "40.75529", "-73.987495"},
			{"127N", "Times Sq-42 St (123)", "40.75529", "-73.987495"},
			{"127S", "Times Sq-42 St (123)", "40.75529", "-73.987495"},
			{"137", "Chambers St Uptown", "40.715478", "-74.009266"},
			{"137N", "Chambers St Uptown", "40.715478", "-74.009266"},
			{"137S", "Chambers St Uptown", "40.715478", "-74.009266"},
			{"140N", "South Ferry", "40.702068", "-74.013664"},
		},
		routes: [][3]string{
			{"1", "Broadway - 7 Avenue Local", "EE352E"},
			{"A", "8 Avenue Express", "2850AD"},
		},
	}
}

// writeStaticArchive builds a minimal static GTFS zip and returns its path.
func writeStaticArchive(t *testing.T, fixture staticFixture) string {
	t.Helper()

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	writeMember := func(name, content string) {
		member, err := archive.Create(name)
		require.NoError(t, err)
		_, err = member.Write([]byte(content))
		require.NoError(t, err)
	}

	writeMember("agency.txt",
		"agency_id,agency_name,agency_url,agency_timezone\n"+
			"MTA NYCT,MTA New York City Transit,http://www.mta.info,America/New_York\n")

	routes := "route_id,agency_id,route_short_name,route_long_name,route_type,route_color\n"
	for _, row := range fixture.routes {
		routes += row[0] + ",MTA NYCT," + row[0] + "," + row[1] + ",1," + row[2] + "\n"
	}
	writeMember("routes.txt", routes)

	stops := "stop_id,stop_name,stop_lat,stop_lon\n"
	for _, row := range fixture.stops {
		stops += row[0] + "," + row[1] + "," + row[2] + "," + row[3] + "\n"
	}
	writeMember("stops.txt", stops)

	writeMember("trips.txt", "route_id,service_id,trip_id\n")
	writeMember("stop_times.txt", "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n")

	require.NoError(t, archive.Close())

	path := filepath.Join(t.TempDir(), "google_transit.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// loadedDirectory builds a StationDirectory over a fixture archive.
func loadedDirectory(t *testing.T, fixture staticFixture) *StationDirectory {
	t.Helper()

	directory := NewStationDirectory(DirectoryConfig{
		StaticSource: writeStaticArchive(t, fixture),
		CacheDir:     t.TempDir(),
	})
	require.NoError(t, directory.Load(false))
	return directory
}

// stopTimePrediction is one stop-time update in a fixture feed. A zero time
// leaves the prediction unset.
type stopTimePrediction struct {
	stopID    string
	arrival   int64
	departure int64
}

type tripFixture struct {
	routeID  string
	tripID   string
	stopTime stopTimePrediction
}

func buildFeed(t *testing.T, trips ...tripFixture) *gtfsrt.FeedMessage {
	t.Helper()

	feed := &gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
		},
	}
	for i, trip := range trips {
		update := &gtfsrt.TripUpdate{
			Trip: &gtfsrt.TripDescriptor{
				RouteId: proto.String(trip.routeID),
				TripId:  proto.String(trip.tripID),
			},
		}
		stopTime := &gtfsrt.TripUpdate_StopTimeUpdate{
			StopId: proto.String(trip.stopTime.stopID),
		}
		if trip.stopTime.arrival != 0 {
			stopTime.Arrival = &gtfsrt.TripUpdate_StopTimeEvent{Time: proto.Int64(trip.stopTime.arrival)}
		}
		if trip.stopTime.departure != 0 {
			stopTime.Departure = &gtfsrt.TripUpdate_StopTimeEvent{Time: proto.Int64(trip.stopTime.departure)}
		}
		update.StopTimeUpdate = []*gtfsrt.TripUpdate_StopTimeUpdate{stopTime}

		feed.Entity = append(feed.Entity, &gtfsrt.FeedEntity{
			Id:         proto.String(string(rune('a' + i))),
			TripUpdate: update,
		})
	}
	return feed
}

func marshalFeed(t *testing.T, feed *gtfsrt.FeedMessage) []byte {
	t.Helper()
	data, err := proto.Marshal(feed)
	require.NoError(t, err)
	return data
}

// parsedFeed round-trips a fixture feed through the wire format and the real
// decoder, so resolver tests see exactly what a fetch would produce.
func parsedFeed(t *testing.T, trips ...tripFixture) *gtfs.Realtime {
	t.Helper()
	feed, err := gtfs.ParseRealtime(marshalFeed(t, buildFeed(t, trips...)), &gtfs.ParseRealtimeOptions{})
	require.NoError(t, err)
	return feed
}
