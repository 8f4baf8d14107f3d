package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseIntParam retrieves an integer value from the provided URL query
// parameters. A missing key yields fallback; an invalid value yields
// fallback and records a field error.
func ParseIntParam(params url.Values, key string, fallback int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return fallback, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return fallback, fieldErrors
	}
	return n, fieldErrors
}

// ParseBoolParam retrieves a boolean value ("true"/"false") from the query
// parameters, defaulting to fallback when absent or malformed.
func ParseBoolParam(params url.Values, key string, fallback bool) bool {
	val := params.Get(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

// ParseListParam splits a comma-separated query value into trimmed,
// uppercased entries. Empty entries are dropped.
func ParseListParam(params url.Values, key string) []string {
	val := params.Get(key)
	if val == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
