package docstore

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/tag"
	"go.uber.org/zap"

	"github.com/vortexlabs/docsink/pkg/errors"
	"github.com/vortexlabs/docsink/pkg/logger"
	"github.com/vortexlabs/docsink/pkg/record"
)

// throttleErrorCode is the server error code for a request-rate rejection.
// Throttled writes are retried here, inside the transport, per the
// configured retry options; the import pipeline never sees them unless
// retries are exhausted.
const throttleErrorCode = 16500

// mongoWriter implements Writer on top of the MongoDB wire protocol
type mongoWriter struct {
	client *mongo.Client
	coll   *mongo.Collection
	retry  *RetryPolicy
	log    *zap.Logger
}

// dialMongo establishes the shared client connection according to the
// transport configuration and binds it to the target collection.
func dialMongo(ctx context.Context, cfg *TransportConfig, database, collection string) (Writer, error) {
	if database == "" || collection == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "database and collection settings are required")
	}

	opts := options.Client().
		ApplyURI(cfg.Endpoint).
		SetAppName(cfg.Policy.UserAgentSuffix).
		SetRetryWrites(true)

	if cfg.Credential != "" {
		opts.SetAuth(options.Credential{
			Username: accountName(cfg.Endpoint),
			Password: cfg.Credential,
		})
	}

	if cfg.Policy.Mode == ConnectionModeDirect {
		opts.SetDirect(true)
	}
	if cfg.Policy.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.Policy.MaxPoolSize))
	}
	if cfg.Policy.RequestTimeout > 0 {
		opts.SetTimeout(cfg.Policy.RequestTimeout)
	}
	if cfg.Policy.IdleConnectionTimeout > 0 {
		opts.SetMaxConnIdleTime(cfg.Policy.IdleConnectionTimeout)
	}

	wc, rc := concernsFor(cfg.Consistency)
	opts.SetWriteConcern(wc)
	opts.SetReadConcern(rc)

	if len(cfg.Policy.PreferredRegions) > 0 {
		tagSets := make([]tag.Set, 0, len(cfg.Policy.PreferredRegions))
		for _, region := range cfg.Policy.PreferredRegions {
			tagSets = append(tagSets, tag.Set{{Name: "region", Value: region}})
		}
		opts.SetReadPreference(readpref.Nearest(readpref.WithTagSets(tagSets...)))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to document store")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping document store")
	}

	return &mongoWriter{
		client: client,
		coll:   client.Database(database).Collection(collection),
		retry:  newThrottleRetryPolicy(cfg.Policy.Retry),
		log: logger.With(
			zap.String("component", "docstore"),
			zap.String("database", database),
			zap.String("collection", collection)),
	}, nil
}

// Create inserts a new document, failing on identity conflict
func (w *mongoWriter) Create(ctx context.Context, doc record.Document) error {
	return w.execute(ctx, "create", func() error {
		_, err := w.coll.InsertOne(ctx, wireDocument(doc))
		return err
	})
}

// Upsert replaces the identity-matching document, inserting if absent
func (w *mongoWriter) Upsert(ctx context.Context, doc record.Document) error {
	wire := wireDocument(doc)
	id, ok := wire["_id"]
	if !ok {
		// No identity to match against: an upsert degenerates to a create.
		return w.Create(ctx, doc)
	}
	return w.execute(ctx, "upsert", func() error {
		_, err := w.coll.ReplaceOne(ctx, bson.M{"_id": id}, wire,
			options.Replace().SetUpsert(true))
		return err
	})
}

// Close disconnects the shared client
func (w *mongoWriter) Close(ctx context.Context) error {
	return w.client.Disconnect(ctx)
}

// execute runs one write, absorbing throttles with backoff and mapping
// the final error into the pipeline's taxonomy.
func (w *mongoWriter) execute(ctx context.Context, operation string, fn func() error) error {
	err := w.retry.ExecuteWithCondition(ctx, fn, func(err error) bool {
		if isThrottled(err) {
			w.log.Debug("write throttled, backing off", zap.String("operation", operation))
			return true
		}
		return false
	})
	if err != nil {
		return w.classify(err, operation)
	}
	return nil
}

// classify maps a driver error into the structured taxonomy
func (w *mongoWriter) classify(err error, operation string) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(err, errors.ErrorTypeConflict, operation+" conflicts with an existing document")
	case isThrottled(err):
		return errors.Wrap(err, errors.ErrorTypeThrottle, operation+" throttled after retries exhausted")
	case mongo.IsTimeout(err):
		return errors.Wrap(err, errors.ErrorTypeTimeout, operation+" timed out")
	case mongo.IsNetworkError(err):
		return errors.Wrap(err, errors.ErrorTypeConnection, operation+" failed with a network error")
	default:
		return errors.Wrap(err, errors.ErrorTypeWrite, operation+" failed")
	}
}

// isThrottled reports whether err is a request-rate rejection
func isThrottled(err error) bool {
	var se mongo.ServerError
	if !stderrors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(throttleErrorCode)
}

// wireDocument normalizes the document identity: an "id" field becomes the
// store's "_id" so conflict semantics follow the document identity.
func wireDocument(doc record.Document) bson.M {
	wire := make(bson.M, len(doc))
	for k, v := range doc {
		wire[k] = v
	}
	if id, ok := wire["id"]; ok {
		if _, present := wire["_id"]; !present {
			wire["_id"] = id
		}
	}
	return wire
}

// accountName derives the account user from the endpoint host, taking the
// first DNS label of the host name.
func accountName(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
