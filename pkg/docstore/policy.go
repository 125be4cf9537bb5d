// Package docstore provides the transport layer for the remote document
// store: connection policy construction from flat settings, an
// initialize-once client provider, and the write primitive used by the
// batched import pipeline.
package docstore

import (
	"fmt"
	"os"
	"time"
)

// connectorIdentifier is the fixed identifier reported to the server as
// part of the user agent suffix. Observability only; no functional effect.
const connectorIdentifier = "docsink/0.9.0"

// ConnectionMode selects how the client reaches the store
type ConnectionMode string

const (
	// ConnectionModeGateway routes requests through the service gateway
	ConnectionModeGateway ConnectionMode = "Gateway"
	// ConnectionModeDirect connects directly to the target node
	ConnectionModeDirect ConnectionMode = "Direct"
)

// ParseConnectionMode parses a connection mode literal
func ParseConnectionMode(s string) (ConnectionMode, error) {
	switch ConnectionMode(s) {
	case ConnectionModeGateway, ConnectionModeDirect:
		return ConnectionMode(s), nil
	default:
		return "", fmt.Errorf("invalid connection mode %q", s)
	}
}

// ConsistencyLevel is the named read/write visibility guarantee negotiated
// with the store. It is configured here, not implemented.
type ConsistencyLevel string

const (
	ConsistencyStrong           ConsistencyLevel = "Strong"
	ConsistencyBoundedStaleness ConsistencyLevel = "BoundedStaleness"
	ConsistencySession          ConsistencyLevel = "Session"
	ConsistencyConsistentPrefix ConsistencyLevel = "ConsistentPrefix"
	ConsistencyEventual         ConsistencyLevel = "Eventual"
)

// ParseConsistencyLevel parses a consistency level literal
func ParseConsistencyLevel(s string) (ConsistencyLevel, error) {
	switch ConsistencyLevel(s) {
	case ConsistencyStrong, ConsistencyBoundedStaleness, ConsistencySession,
		ConsistencyConsistentPrefix, ConsistencyEventual:
		return ConsistencyLevel(s), nil
	default:
		return "", fmt.Errorf("invalid consistency level %q", s)
	}
}

// Defaults applied by the transport configuration builder when the
// corresponding setting is absent.
const (
	DefaultConnectionMode        = ConnectionModeGateway
	DefaultConsistencyLevel      = ConsistencySession
	DefaultMaxPoolSize           = 100
	DefaultRequestTimeout        = 60 * time.Second
	DefaultIdleConnectionTimeout = 2 * time.Minute
	DefaultMaxRetryAttempts      = 9
	DefaultMaxRetryWaitTime      = 30 * time.Second
)

// RetryOptions tunes the transport's retry-on-throttle behavior. The
// import pipeline never retries; throttling is absorbed entirely here.
type RetryOptions struct {
	// MaxAttemptsOnThrottled is the number of retries after a throttled write
	MaxAttemptsOnThrottled int
	// MaxWaitTime caps the backoff delay between throttle retries
	MaxWaitTime time.Duration
}

// ConnectionPolicy is the fully-formed connection policy handed to the
// transport client.
type ConnectionPolicy struct {
	Mode                  ConnectionMode
	MaxPoolSize           int
	RequestTimeout        time.Duration
	IdleConnectionTimeout time.Duration
	// UserAgentSuffix identifies this connector to the server
	UserAgentSuffix string
	// PreferredRegions is the ordered list of regions to route to
	PreferredRegions []string
	Retry            RetryOptions
}

// TransportConfig is the immutable result of the configuration builder.
// It is constructed at most once per provider instance.
type TransportConfig struct {
	// Endpoint is the store account URI
	Endpoint string
	// Credential is the opaque account secret
	Credential string
	Policy     ConnectionPolicy
	Consistency ConsistencyLevel
}

// userAgentSuffix builds the deterministic connector identification string
// reported to the server: fixed identifier plus the process id.
func userAgentSuffix() string {
	return fmt.Sprintf("%s pid-%d", connectorIdentifier, os.Getpid())
}
