package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string        `mapstructure:"uri" validate:"required"`
	Database   string        `mapstructure:"database" validate:"required"`
	Collection string        `mapstructure:"collection" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DefaultMongoConfig returns sensible defaults.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "content",
		Collection: "articles",
		Timeout:    10 * time.Second,
	}
}

// Mongo is a Store backed by a MongoDB collection with a unique index on url.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoOpener returns an Opener that connects a new client per run.
func MongoOpener(cfg MongoConfig) Opener {
	return func(ctx context.Context) (Store, error) {
		return OpenMongo(ctx, cfg)
	}
}

// OpenMongo connects, verifies the connection and ensures the url index.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultMongoConfig().Timeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, wrap("connect", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, wrap("ping", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: FieldURL, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("url_unique"),
	})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, wrap("ensure index", err)
	}

	logger.Debug("mongo store opened", "database", cfg.Database, "collection", cfg.Collection)
	return &Mongo{client: client, coll: coll}, nil
}

func (m *Mongo) Exists(ctx context.Context, url string) (bool, error) {
	err := m.coll.FindOne(ctx, urlFilter(url),
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, wrap("exists", err)
	}
	return true, nil
}

func (m *Mongo) Insert(ctx context.Context, doc Document) error {
	_, err := m.coll.InsertOne(ctx, map[string]any(doc))
	if mongo.IsDuplicateKeyError(err) {
		return wrap("insert", fmt.Errorf("%w: %s", ErrDuplicate, doc.URL()))
	}
	return wrap("insert", err)
}

func (m *Mongo) UpdateFields(ctx context.Context, url string, set map[string]any, unset []string) error {
	res, err := m.coll.UpdateOne(ctx, urlFilter(url), updateDocument(set, unset))
	if err != nil {
		return wrap("update", err)
	}
	if res.MatchedCount == 0 {
		return wrap("update", fmt.Errorf("%w: %s", ErrNotFound, url))
	}
	return nil
}

func (m *Mongo) FindMissingDate(ctx context.Context, siteName string) ([]Document, error) {
	cursor, err := m.coll.Find(ctx, missingDateFilter(siteName))
	if err != nil {
		return nil, wrap("find", err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, wrap("find", err)
	}

	docs := make([]Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, Document(r))
	}
	return docs, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return wrap("disconnect", m.client.Disconnect(ctx))
}

func urlFilter(url string) bson.D {
	return bson.D{{Key: FieldURL, Value: url}}
}

func missingDateFilter(siteName string) bson.D {
	return bson.D{
		{Key: FieldVisited, Value: true},
		{Key: FieldSiteName, Value: siteName},
		{Key: FieldParsedDate, Value: bson.D{{Key: "$exists", Value: false}}},
	}
}

func updateDocument(set map[string]any, unset []string) bson.D {
	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: bson.M(set)})
	}
	if len(unset) > 0 {
		fields := bson.M{}
		for _, k := range unset {
			fields[k] = ""
		}
		update = append(update, bson.E{Key: "$unset", Value: fields})
	}
	return update
}
