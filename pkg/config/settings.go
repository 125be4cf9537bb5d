// Package config provides the configuration surface for docsink.
//
// Store connectivity is expressed as a flat, string-keyed Settings map with
// typed optional lookups; absent keys report ok=false so callers can apply
// their documented defaults, while malformed values surface as errors.
// Job-level options (batching, pacing, logging) live in JobConfig, loaded
// from YAML with environment-variable substitution.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/vortexlabs/docsink/pkg/errors"
)

// Well-known setting keys consumed by the transport configuration builder.
const (
	KeyEndpoint              = "endpoint"
	KeyCredential            = "credential"
	KeyDatabase              = "database"
	KeyCollection            = "collection"
	KeyConnectionMode        = "connectionMode"
	KeyMaxPoolSize           = "connectionMaxPoolSize"
	KeyRequestTimeout        = "connectionRequestTimeout"
	KeyIdleConnectionTimeout = "connectionIdleTimeout"
	KeyRetryMaxAttempts      = "queryMaxRetryOnThrottled"
	KeyRetryMaxWaitTime      = "queryMaxRetryWaitTime"
	KeyPreferredRegions      = "preferredRegions"
	KeyConsistencyLevel      = "consistencyLevel"
)

// Settings is a flat set of named options for a single store connection.
// Lookups are optional: a missing key is not an error, a malformed value is.
type Settings map[string]string

// GetString returns the raw value for key and whether it was present.
// Empty values are treated as absent.
func (s Settings) GetString(key string) (string, bool) {
	v, ok := s[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// GetInt parses the value for key as a base-10 integer.
func (s Settings) GetInt(key string) (int, bool, error) {
	v, ok := s.GetString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, true, errors.Wrap(err, errors.ErrorTypeConfig, "invalid integer for "+key)
	}
	return n, true, nil
}

// GetBool parses the value for key as a boolean.
func (s Settings) GetBool(key string) (bool, bool, error) {
	v, ok := s.GetString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, true, errors.Wrap(err, errors.ErrorTypeConfig, "invalid boolean for "+key)
	}
	return b, true, nil
}

// GetDuration parses the value for key as a Go duration string ("30s", "1m").
func (s Settings) GetDuration(key string) (time.Duration, bool, error) {
	v, ok := s.GetString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, true, errors.Wrap(err, errors.ErrorTypeConfig, "invalid duration for "+key)
	}
	return d, true, nil
}

// GetStringList parses the value for key as a delimiter-separated list.
// Entries are trimmed and empty entries are dropped.
func (s Settings) GetStringList(key, delimiter string) ([]string, bool) {
	v, ok := s.GetString(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, part := range strings.Split(v, delimiter) {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, true
}

// Require returns the value for key or a fatal configuration error.
func (s Settings) Require(key string) (string, error) {
	v, ok := s.GetString(key)
	if !ok {
		return "", errors.New(errors.ErrorTypeConfig, "missing required setting: "+key)
	}
	return v, nil
}

// Clone returns an independent copy of the settings
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
