package mta

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationDirectory_LoadFromArchive(t *testing.T) {
	directory := loadedDirectory(t, defaultStaticFixture())

	assert.True(t, directory.Loaded())
	assert.Equal(t, 7, directory.StationCount())
	assert.False(t, directory.LoadedAt().IsZero())
}

func TestStationDirectory_FindByName(t *testing.T) {
	directory := loadedDirectory(t, defaultStaticFixture())

	t.Run("substring match is case-insensitive", func(t *testing.T) {
		matches := directory.FindByName("times sq", false)
		require.Len(t, matches, 3)
		for _, station := range matches {
			assert.Equal(t, "127", station.CoreID)
			assert.Equal(t, "Times Sq-42 St", station.CleanName)
		}
	})

	t.Run("both directional platforms are returned", func(t *testing.T) {
		matches := directory.FindByName("Chambers", false)
		directions := make(map[Direction]bool)
		for _, station := range matches {
			directions[station.Direction] = true
		}
		assert.True(t, directions[Northbound])
		assert.True(t, directions[Southbound])
	})

	t.Run("exact match", func(t *testing.T) {
		assert.Len(t, directory.FindByName("Chambers St Uptown", true), 3)
		assert.Empty(t, directory.FindByName("Chambers", true))
	})

	t.Run("no match is empty, not an error", func(t *testing.T) {
		assert.Empty(t, directory.FindByName("Hogwarts", false))
	})

	t.Run("results ordered by core id then direction", func(t *testing.T) {
		matches := directory.FindByName("Times Sq", false)
		require.Len(t, matches, 3)
		assert.Equal(t, "127", matches[0].StopID)
		assert.Equal(t, "127N", matches[1].StopID)
		assert.Equal(t, "127S", matches[2].StopID)
	})
}

func TestStationDirectory_FindByID(t *testing.T) {
	directory := loadedDirectory(t, defaultStaticFixture())

	t.Run("core id matches both platforms", func(t *testing.T) {
		matches := directory.FindByID("127")
		require.Len(t, matches, 3)
	})

	t.Run("full stop id matches exactly one", func(t *testing.T) {
		matches := directory.FindByID("127N")
		require.Len(t, matches, 1)
		assert.Equal(t, "127N", matches[0].StopID)
		assert.Equal(t, Northbound, matches[0].Direction)
	})

	t.Run("no match is empty", func(t *testing.T) {
		assert.Empty(t, directory.FindByID("999"))
	})
}

func TestStationDirectory_ListRoutes(t *testing.T) {
	directory := loadedDirectory(t, defaultStaticFixture())

	routes := directory.ListRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, "1", routes[0].ID)
	assert.Equal(t, "Broadway - 7 Avenue Local", routes[0].LongName)
	assert.Equal(t, "EE352E", routes[0].Color)
	assert.Equal(t, "A", routes[1].ID)
}

func TestStationDirectory_CacheRoundTrip(t *testing.T) {
	cacheDir := t.TempDir()

	first := NewStationDirectory(DirectoryConfig{
		StaticSource: writeStaticArchive(t, defaultStaticFixture()),
		CacheDir:     cacheDir,
	})
	require.NoError(t, first.Load(false))

	// The source is gone; only the written cache can serve this load.
	second := NewStationDirectory(DirectoryConfig{
		StaticSource: filepath.Join(t.TempDir(), "missing.zip"),
		CacheDir:     cacheDir,
	})
	require.NoError(t, second.Load(false))

	assert.Equal(t, first.FindByID(""), second.FindByID(""), "station tables must round-trip through the cache")
	assert.Equal(t, first.ListRoutes(), second.ListRoutes(), "route tables must round-trip through the cache")
}

func TestStationDirectory_ForceRefreshBypassesCache(t *testing.T) {
	cacheDir := t.TempDir()

	directory := NewStationDirectory(DirectoryConfig{
		StaticSource: writeStaticArchive(t, defaultStaticFixture()),
		CacheDir:     cacheDir,
	})
	require.NoError(t, directory.Load(false))
	require.Equal(t, 7, directory.StationCount())

	grown := defaultStaticFixture()
	grown.stops = append(grown.stops, [4]string{"142N", "South Ferry Loop", "40.701", "-74.013"})
	refreshed := NewStationDirectory(DirectoryConfig{
		StaticSource: writeStaticArchive(t, grown),
		CacheDir:     cacheDir,
	})

	// A plain load prefers the fresh cache and misses the new stop.
	require.NoError(t, refreshed.Load(false))
	assert.Equal(t, 7, refreshed.StationCount())

	require.NoError(t, refreshed.Load(true))
	assert.Equal(t, 8, refreshed.StationCount())
}

func TestStationDirectory_StaleCacheFallback(t *testing.T) {
	cacheDir := t.TempDir()

	directory := NewStationDirectory(DirectoryConfig{
		StaticSource: writeStaticArchive(t, defaultStaticFixture()),
		CacheDir:     cacheDir,
	})
	require.NoError(t, directory.Load(false))

	// Age the cache past the freshness window and break the source.
	twoDaysAgo := time.Now().Add(-48 * time.Hour)
	for _, name := range []string{"stops.csv", "routes.csv"} {
		require.NoError(t, os.Chtimes(filepath.Join(cacheDir, name), twoDaysAgo, twoDaysAgo))
	}

	stale := NewStationDirectory(DirectoryConfig{
		StaticSource: filepath.Join(t.TempDir(), "missing.zip"),
		CacheDir:     cacheDir,
	})
	require.NoError(t, stale.Load(false), "a stale cache still beats no data")
	assert.Equal(t, 7, stale.StationCount())
}

func TestStationDirectory_DataUnavailable(t *testing.T) {
	directory := NewStationDirectory(DirectoryConfig{
		StaticSource: filepath.Join(t.TempDir(), "missing.zip"),
		CacheDir:     t.TempDir(),
	})

	err := directory.Load(false)
	require.Error(t, err)

	var unavailable *DataUnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.False(t, directory.Loaded())
	assert.Empty(t, directory.FindByName("Times", false))
}

func TestStationDirectory_DownloadFromURL(t *testing.T) {
	archive, err := os.ReadFile(writeStaticArchive(t, defaultStaticFixture()))
	require.NoError(t, err)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	directory := NewStationDirectory(DirectoryConfig{
		StaticSource: server.URL + "/google_transit.zip",
		CacheDir:     t.TempDir(),
	})
	require.NoError(t, directory.Load(false))
	assert.Equal(t, 1, requests)
	assert.Equal(t, 7, directory.StationCount())

	// The freshly written cache serves the next load without a download.
	require.NoError(t, directory.Load(false))
	assert.Equal(t, 1, requests)
}

func TestStationDirectory_DownloadErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	directory := NewStationDirectory(DirectoryConfig{
		StaticSource: server.URL,
		CacheDir:     t.TempDir(),
	})

	err := directory.Load(false)
	var unavailable *DataUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.ErrorContains(t, err, "503")
}
