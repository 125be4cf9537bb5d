package docstore

import (
	"github.com/vortexlabs/docsink/pkg/config"
	"github.com/vortexlabs/docsink/pkg/errors"
)

// BuildTransportConfig translates flat settings into a fully-formed
// transport configuration. It is a pure function of the settings: no
// network calls, no side effects beyond reading configuration.
//
// The endpoint and credential settings are required and their absence is a
// fatal configuration error. Every other setting has a documented default
// that applies silently when the key is absent.
func BuildTransportConfig(settings config.Settings) (*TransportConfig, error) {
	endpoint, err := settings.Require(config.KeyEndpoint)
	if err != nil {
		return nil, err
	}
	credential, err := settings.Require(config.KeyCredential)
	if err != nil {
		return nil, err
	}

	policy := ConnectionPolicy{
		Mode:                  DefaultConnectionMode,
		MaxPoolSize:           DefaultMaxPoolSize,
		RequestTimeout:        DefaultRequestTimeout,
		IdleConnectionTimeout: DefaultIdleConnectionTimeout,
		UserAgentSuffix:       userAgentSuffix(),
		Retry: RetryOptions{
			MaxAttemptsOnThrottled: DefaultMaxRetryAttempts,
			MaxWaitTime:            DefaultMaxRetryWaitTime,
		},
	}

	if raw, ok := settings.GetString(config.KeyConnectionMode); ok {
		mode, err := ParseConnectionMode(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid "+config.KeyConnectionMode)
		}
		policy.Mode = mode
	}

	if v, ok, err := settings.GetInt(config.KeyMaxPoolSize); err != nil {
		return nil, err
	} else if ok {
		policy.MaxPoolSize = v
	}

	if v, ok, err := settings.GetDuration(config.KeyRequestTimeout); err != nil {
		return nil, err
	} else if ok {
		policy.RequestTimeout = v
	}

	if v, ok, err := settings.GetDuration(config.KeyIdleConnectionTimeout); err != nil {
		return nil, err
	} else if ok {
		policy.IdleConnectionTimeout = v
	}

	if v, ok, err := settings.GetInt(config.KeyRetryMaxAttempts); err != nil {
		return nil, err
	} else if ok {
		policy.Retry.MaxAttemptsOnThrottled = v
	}

	if v, ok, err := settings.GetDuration(config.KeyRetryMaxWaitTime); err != nil {
		return nil, err
	} else if ok {
		policy.Retry.MaxWaitTime = v
	}

	// Semicolon-delimited, trimmed, empty entries dropped.
	if regions, ok := settings.GetStringList(config.KeyPreferredRegions, ";"); ok {
		policy.PreferredRegions = regions
	}

	consistency := DefaultConsistencyLevel
	if raw, ok := settings.GetString(config.KeyConsistencyLevel); ok {
		level, err := ParseConsistencyLevel(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid "+config.KeyConsistencyLevel)
		}
		consistency = level
	}

	return &TransportConfig{
		Endpoint:    endpoint,
		Credential:  credential,
		Policy:      policy,
		Consistency: consistency,
	}, nil
}
