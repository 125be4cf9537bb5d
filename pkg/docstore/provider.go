package docstore

import (
	"context"
	"sync"

	"github.com/vortexlabs/docsink/pkg/config"
	"github.com/vortexlabs/docsink/pkg/logger"
	"go.uber.org/zap"
)

// DialFunc constructs a Writer from a built transport configuration and
// target addresses. The default dials the real store; tests substitute
// their own.
type DialFunc func(ctx context.Context, cfg *TransportConfig, database, collection string) (Writer, error)

// Provider owns the shared transport client for one pipeline instance.
//
// The transport configuration and client are constructed lazily on first
// use and exactly once, guarded so concurrent first access cannot race
// into double construction. A construction failure is sticky: every later
// call observes the same error and no partial client escapes.
type Provider struct {
	settings   config.Settings
	database   string
	collection string
	dial       DialFunc
	log        *zap.Logger

	once   sync.Once
	cfg    *TransportConfig
	writer Writer
	err    error
}

// NewProvider creates a provider over the given settings. Construction of
// the transport configuration and client is deferred until first use.
func NewProvider(settings config.Settings) *Provider {
	database, _ := settings.GetString(config.KeyDatabase)
	collection, _ := settings.GetString(config.KeyCollection)
	return &Provider{
		settings:   settings.Clone(),
		database:   database,
		collection: collection,
		dial:       dialMongo,
		log:        logger.With(zap.String("component", "docstore")),
	}
}

// WithDial overrides the dial function. For tests.
func (p *Provider) WithDial(dial DialFunc) *Provider {
	p.dial = dial
	return p
}

// Writer returns the shared write primitive, constructing the transport
// configuration and client on first call.
func (p *Provider) Writer(ctx context.Context) (Writer, error) {
	p.once.Do(func() {
		p.cfg, p.err = BuildTransportConfig(p.settings)
		if p.err != nil {
			return
		}
		p.log.Info("connecting to document store",
			zap.String("endpoint", p.cfg.Endpoint),
			zap.String("database", p.database),
			zap.String("collection", p.collection),
			zap.String("mode", string(p.cfg.Policy.Mode)),
			zap.String("consistency", string(p.cfg.Consistency)))
		p.writer, p.err = p.dial(ctx, p.cfg, p.database, p.collection)
	})
	return p.writer, p.err
}

// Config returns the built transport configuration, or the construction
// error if building it failed. It triggers construction if needed.
func (p *Provider) Config(ctx context.Context) (*TransportConfig, error) {
	if _, err := p.Writer(ctx); err != nil {
		return nil, err
	}
	return p.cfg, nil
}

// Close releases the shared client if it was ever constructed
func (p *Provider) Close(ctx context.Context) error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close(ctx)
}
