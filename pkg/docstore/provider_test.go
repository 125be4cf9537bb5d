package docstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexlabs/docsink/pkg/config"
	"github.com/vortexlabs/docsink/pkg/errors"
	"github.com/vortexlabs/docsink/pkg/record"
)

type nopWriter struct{}

func (nopWriter) Create(ctx context.Context, doc record.Document) error { return nil }
func (nopWriter) Upsert(ctx context.Context, doc record.Document) error { return nil }
func (nopWriter) Close(ctx context.Context) error                       { return nil }

func providerSettings() config.Settings {
	return config.Settings{
		config.KeyEndpoint:   "mongodb://account.example.com:10255",
		config.KeyCredential: "secret-key",
		config.KeyDatabase:   "appdb",
		config.KeyCollection: "events",
	}
}

func TestProvider_ConstructsClientExactlyOnce(t *testing.T) {
	var dials int32
	provider := NewProvider(providerSettings()).WithDial(
		func(ctx context.Context, cfg *TransportConfig, database, collection string) (Writer, error) {
			atomic.AddInt32(&dials, 1)
			assert.Equal(t, "appdb", database)
			assert.Equal(t, "events", collection)
			return nopWriter{}, nil
		})

	const goroutines = 16
	var wg sync.WaitGroup
	writers := make([]Writer, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := provider.Writer(context.Background())
			assert.NoError(t, err)
			writers[i] = w
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
	for _, w := range writers {
		assert.Equal(t, writers[0], w)
	}
}

func TestProvider_FailsBeforeAnyWrite(t *testing.T) {
	settings := providerSettings()
	delete(settings, config.KeyCredential)

	dialed := false
	provider := NewProvider(settings).WithDial(
		func(ctx context.Context, cfg *TransportConfig, database, collection string) (Writer, error) {
			dialed = true
			return nopWriter{}, nil
		})

	_, err := provider.Writer(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.False(t, dialed, "no client construction on configuration error")

	// The failure is sticky across calls.
	_, again := provider.Writer(context.Background())
	assert.Equal(t, err, again)
}

func TestProvider_ConfigExposesBuiltConfiguration(t *testing.T) {
	provider := NewProvider(providerSettings()).WithDial(
		func(ctx context.Context, cfg *TransportConfig, database, collection string) (Writer, error) {
			return nopWriter{}, nil
		})

	cfg, err := provider.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mongodb://account.example.com:10255", cfg.Endpoint)
	assert.Equal(t, DefaultConsistencyLevel, cfg.Consistency)
}

func TestProvider_SettingsAreCopied(t *testing.T) {
	settings := providerSettings()
	provider := NewProvider(settings).WithDial(
		func(ctx context.Context, cfg *TransportConfig, database, collection string) (Writer, error) {
			return nopWriter{}, nil
		})

	// Mutating the caller's map after construction has no effect.
	settings[config.KeyEndpoint] = "mongodb://other.example.com:10255"

	cfg, err := provider.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mongodb://account.example.com:10255", cfg.Endpoint)
}
