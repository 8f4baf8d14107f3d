package mta

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedGroup is a named partition of subway lines that share one realtime
// feed source. Path is the group-specific segment appended to the feed base
// URL.
type FeedGroup struct {
	Key   string   `yaml:"key"`
	Path  string   `yaml:"path"`
	Lines []string `yaml:"lines"`
}

// FeedGroups is the line-to-feed mapping. The table is configuration data:
// it can be loaded from YAML so new groups (or whole systems) need no code
// change. Every supported line belongs to exactly one group.
type FeedGroups struct {
	groups []FeedGroup
	byLine map[string]FeedGroup
	byKey  map[string]FeedGroup
}

// DefaultFeedGroups returns the NYCT subway grouping.
func DefaultFeedGroups() *FeedGroups {
	groups, err := NewFeedGroups([]FeedGroup{
		{Key: "123456", Path: "gtfs", Lines: []string{"1", "2", "3", "4", "5", "6"}},
		{Key: "7", Path: "gtfs-7", Lines: []string{"7"}},
		{Key: "ace", Path: "gtfs-ace", Lines: []string{"A", "C", "E"}},
		{Key: "bdfm", Path: "gtfs-bdfm", Lines: []string{"B", "D", "F", "M"}},
		{Key: "g", Path: "gtfs-g", Lines: []string{"G"}},
		{Key: "jz", Path: "gtfs-jz", Lines: []string{"J", "Z"}},
		{Key: "nqrw", Path: "gtfs-nqrw", Lines: []string{"N", "Q", "R", "W"}},
		{Key: "l", Path: "gtfs-l", Lines: []string{"L"}},
		{Key: "si", Path: "gtfs-si", Lines: []string{"SI"}},
	})
	if err != nil {
		// The built-in table is validated by tests; this cannot happen.
		panic(err)
	}
	return groups
}

// NewFeedGroups validates a grouping table and builds its lookup indexes.
func NewFeedGroups(groups []FeedGroup) (*FeedGroups, error) {
	fg := &FeedGroups{
		groups: groups,
		byLine: make(map[string]FeedGroup),
		byKey:  make(map[string]FeedGroup),
	}
	for _, group := range groups {
		if group.Key == "" || group.Path == "" {
			return nil, fmt.Errorf("feed group %+v needs both a key and a path", group)
		}
		if _, dup := fg.byKey[group.Key]; dup {
			return nil, fmt.Errorf("duplicate feed group key %q", group.Key)
		}
		fg.byKey[group.Key] = group
		for _, line := range group.Lines {
			line = strings.ToUpper(line)
			if existing, dup := fg.byLine[line]; dup {
				return nil, fmt.Errorf("line %q is claimed by groups %q and %q", line, existing.Key, group.Key)
			}
			fg.byLine[line] = group
		}
	}
	return fg, nil
}

// LoadFeedGroups reads a grouping table from a YAML file of the form:
//
//	groups:
//	  - key: ace
//	    path: gtfs-ace
//	    lines: [A, C, E]
func LoadFeedGroups(path string) (*FeedGroups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Groups []FeedGroup `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing feed groups %s: %w", path, err)
	}
	if len(doc.Groups) == 0 {
		return nil, fmt.Errorf("feed groups file %s defines no groups", path)
	}
	return NewFeedGroups(doc.Groups)
}

// GroupForLine resolves the feed group serving a line. A line outside every
// group is an UnknownLineError, never a silent default.
func (fg *FeedGroups) GroupForLine(line string) (FeedGroup, error) {
	group, ok := fg.byLine[strings.ToUpper(strings.TrimSpace(line))]
	if !ok {
		return FeedGroup{}, &UnknownLineError{Line: line}
	}
	return group, nil
}

// GroupByKey resolves a group by its key.
func (fg *FeedGroups) GroupByKey(key string) (FeedGroup, bool) {
	group, ok := fg.byKey[key]
	return group, ok
}

// Groups returns the table in declaration order.
func (fg *FeedGroups) Groups() []FeedGroup {
	return fg.groups
}
