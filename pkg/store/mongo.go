package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// Default MongoDB names.
const (
	DefaultDatabase   = "setlistgen"
	DefaultCollection = "setlists"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string // mongodb:// or mongodb+srv:// connection string
	Database   string // defaults to DefaultDatabase
	Collection string // defaults to DefaultCollection
}

// MongoStore stores setlists as documents keyed by setlist ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures
// the owner index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(10*time.Second).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "mongodb connection failed")
	}

	s := &MongoStore{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect its client.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the (owner, created_at) index used by List.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create setlist index")
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, sl *setlist.Setlist) error {
	if sl.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "setlist has no id")
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sl.ID}, sl, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save setlist %s", sl.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*setlist.Setlist, error) {
	var sl setlist.Setlist
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sl)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeSetlistNotFound, "setlist %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get setlist %s", id)
	}
	return &sl, nil
}

func (s *MongoStore) List(ctx context.Context, owner string) ([]*setlist.Setlist, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(DefaultListLimit)
	cur, err := s.coll.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list setlists")
	}
	var out []*setlist.Setlist
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode setlists")
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, owner, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete setlist %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeSetlistNotFound, "setlist %s not found", id)
	}
	return nil
}

// Close disconnects the client if this store opened it.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ SetlistStore = (*MongoStore)(nil)
