package template

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	filtersOnce sync.Once

	sanitizePolicyOnce sync.Once
	sanitizePolicy     *bluemonday.Policy
)

// registerDefaultFilters installs the document filters on the engine. The
// engine keeps filters in a process-wide table, so existing names are left
// alone.
func registerDefaultFilters() {
	filtersOnce.Do(func() {
		for name, fn := range map[string]pongo2.FilterFunction{
			"json":     filterJSON,
			"sanitize": filterSanitize,
			"rfc3339":  filterRFC3339,
		} {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

// filterJSON encodes any value as JSON so helper output can be embedded in a
// document without manual quoting: {{ name()|json }} yields "Ada Lovelace".
func filterJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var raw any
	if !in.IsNil() {
		raw = in.Interface()
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:json", OrigError: err}
	}
	return pongo2.AsSafeValue(string(encoded)), nil
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	trimmed := strings.TrimSpace(in.String())
	if trimmed == "" {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsSafeValue(sanitizer().Sanitize(trimmed)), nil
}

func sanitizer() *bluemonday.Policy {
	sanitizePolicyOnce.Do(func() {
		sanitizePolicy = bluemonday.UGCPolicy()
	})
	return sanitizePolicy
}

// filterRFC3339 formats unix seconds, as produced by timestamp(), in UTC.
func filterRFC3339(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if !in.IsInteger() && !in.IsFloat() {
		return nil, &pongo2.Error{Sender: "filter:rfc3339", OrigError: errNotUnixSeconds}
	}
	sec := int64(in.Float())
	if in.IsInteger() {
		sec = int64(in.Integer())
	}
	return pongo2.AsValue(time.Unix(sec, 0).UTC().Format(time.RFC3339)), nil
}
