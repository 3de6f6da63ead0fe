// Package mongostore maps collections onto MongoDB collections (one document per record, the
// record key stored as _id) and turns change streams into subscription updates. Change
// streams need a replica set or sharded cluster.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// ChangeStream is the subset of *mongo.ChangeStream a subscription reads.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// WatchFunc opens a change stream on one collection.
type WatchFunc func(ctx context.Context, collection string) (ChangeStream, error)

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// Store is a docstore.Client over a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	watch  WatchFunc
	logger *zap.Logger
}

var _ docstore.Client = (*Store)(nil)

// Connect dials uri and uses database for every collection.
func Connect(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if database == "" {
		database = "campuspass"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(database), logger: logger}
	s.watch = func(ctx context.Context, collection string) (ChangeStream, error) {
		stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
	return s, nil
}

// WithWatcher replaces how subscriptions open change streams.
func (s *Store) WithWatcher(f WatchFunc) *Store {
	s.watch = f
	return s
}

// Driver implements docstore.Client.
func (s *Store) Driver() string { return "mongo" }

// NewKey implements docstore.Client.
func (s *Store) NewKey() string { return docstore.NewKey() }

// Get implements docstore.Client.
func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Snapshot, error) {
	coll := s.db.Collection(path.Collection())
	value, err := docstore.ReadPath(path,
		func() (map[string]json.RawMessage, error) { return readAll(ctx, coll) },
		func(key string) (json.RawMessage, error) { return readOne(ctx, coll, key) },
	)
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{Path: path, Value: value}, nil
}

// Set implements docstore.Client.
func (s *Store) Set(ctx context.Context, path docstore.Path, value any) error {
	encoded, err := docstore.Encode(value)
	if err != nil {
		return err
	}
	if err := path.Validate(); err != nil {
		return err
	}
	coll := s.db.Collection(path.Collection())

	switch {
	case path.Depth() == 1:
		m, err := docstore.PlanSet(path, encoded, nil)
		if err != nil {
			return err
		}
		if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("mongo clear %s: %w", path, err)
		}
		if len(m.Children) == 0 {
			return nil
		}
		docs := make([]any, 0, len(m.Children))
		for key, record := range m.Children {
			doc, err := toDocument(key, record)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("mongo insert %s: %w", path, err)
		}
		return nil
	case path.Depth() == 2:
		if docstore.IsEmpty(encoded) {
			if _, err := coll.DeleteOne(ctx, bson.M{"_id": path.Key()}); err != nil {
				return fmt.Errorf("mongo delete %s: %w", path, err)
			}
			return nil
		}
		doc, err := toDocument(path.Key(), encoded)
		if err != nil {
			return err
		}
		if _, err := coll.ReplaceOne(ctx, bson.M{"_id": path.Key()}, doc, options.Replace().SetUpsert(true)); err != nil {
			return fmt.Errorf("mongo replace %s: %w", path, err)
		}
		return nil
	default:
		return s.setField(ctx, coll, path, encoded)
	}
}

// SetIfAbsent implements docstore.Client. Record writes rely on the unique _id; collection and
// field writes check first and are not atomic.
func (s *Store) SetIfAbsent(ctx context.Context, path docstore.Path, value any) (bool, error) {
	encoded, err := docstore.Encode(value)
	if err != nil {
		return false, err
	}
	if path.Depth() == 2 {
		if err := path.Validate(); err != nil {
			return false, err
		}
		doc, err := toDocument(path.Key(), encoded)
		if err != nil {
			return false, err
		}
		if _, err := s.db.Collection(path.Collection()).InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return false, nil
			}
			return false, fmt.Errorf("mongo insert %s: %w", path, err)
		}
		return true, nil
	}
	current, err := s.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if current.Exists() {
		return false, nil
	}
	return true, s.Set(ctx, path, encoded)
}

// Remove implements docstore.Client.
func (s *Store) Remove(ctx context.Context, path docstore.Path) error {
	return s.Set(ctx, path, nil)
}

// Subscribe implements docstore.Client.
func (s *Store) Subscribe(ctx context.Context, path docstore.Path, listener docstore.Listener) (*docstore.Subscription, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	return subscribe(ctx, path, s.watch, s.Get, listener, s.logger)
}

type readFunc func(ctx context.Context, path docstore.Path) (docstore.Snapshot, error)

func subscribe(ctx context.Context, path docstore.Path, watch WatchFunc, read readFunc, listener docstore.Listener, logger *zap.Logger) (*docstore.Subscription, error) {
	streamCtx, cancelStream := context.WithCancel(context.Background())
	stream, err := watch(streamCtx, path.Collection())
	if err != nil {
		cancelStream()
		return nil, fmt.Errorf("mongo watch %s: %w", path, err)
	}
	initial, err := read(ctx, path)
	if err != nil {
		cancelStream()
		_ = stream.Close(context.Background())
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go forwardChanges(streamCtx, stream, path.Key(), changes, logger.With(zap.String("path", path.String())))

	return docstore.StartStream(ctx, docstore.Stream{
		Path:    path,
		Initial: initial,
		Changes: changes,
		Read: func(ctx context.Context) (docstore.Snapshot, error) {
			return read(ctx, path)
		},
		OnStop: func() {
			cancelStream()
			_ = stream.Close(context.Background())
		},
		Logger: logger,
	}, listener), nil
}

// forwardChanges signals every change in the collection, or only those touching key when it
// is set. changes is closed when the stream ends.
func forwardChanges(ctx context.Context, stream ChangeStream, key string, changes chan<- struct{}, logger *zap.Logger) {
	defer close(changes)
	for stream.Next(ctx) {
		if key != "" && !touches(stream, key) {
			continue
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		logger.Warn("mongo change stream ended", zap.Error(err))
	}
}

func touches(stream ChangeStream, key string) bool {
	var ev changeEvent
	if err := stream.Decode(&ev); err != nil {
		return true
	}
	switch ev.OperationType {
	case "drop", "dropDatabase", "rename", "invalidate":
		return true
	}
	return ev.DocumentKey.ID == key
}

// Close implements docstore.Client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) setField(ctx context.Context, coll *mongo.Collection, path docstore.Path, value json.RawMessage) error {
	field := strings.Join(path.Fields(), ".")
	filter := bson.M{"_id": path.Key()}
	if docstore.IsEmpty(value) {
		if _, err := coll.UpdateOne(ctx, filter, bson.M{"$unset": bson.M{field: ""}}); err != nil {
			return fmt.Errorf("mongo unset %s: %w", path, err)
		}
		// a record left with only its _id no longer exists
		rest, err := readOne(ctx, coll, path.Key())
		if err != nil {
			return err
		}
		if rest == nil {
			if _, err := coll.DeleteOne(ctx, filter); err != nil {
				return fmt.Errorf("mongo delete %s: %w", path, err)
			}
		}
		return nil
	}
	var wrapped struct {
		V any `bson:"v"`
	}
	if err := bson.UnmarshalExtJSON(wrapValue(value), false, &wrapped); err != nil {
		return fmt.Errorf("mongo decode %s: %w", path, err)
	}
	if _, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: wrapped.V}}, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongo set %s: %w", path, err)
	}
	return nil
}

func readAll(ctx context.Context, coll *mongo.Collection) (map[string]json.RawMessage, error) {
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	out := map[string]json.RawMessage{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", coll.Name(), err)
		}
		key, record, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		if record != nil {
			out[key] = record
		}
	}
	return out, cur.Err()
}

func readOne(ctx context.Context, coll *mongo.Collection, key string) (json.RawMessage, error) {
	var doc bson.M
	err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s/%s: %w", coll.Name(), key, err)
	}
	_, record, err := fromDocument(doc)
	return record, err
}

func toDocument(key string, record json.RawMessage) (bson.M, error) {
	doc := bson.M{}
	if err := bson.UnmarshalExtJSON(record, false, &doc); err != nil {
		return nil, fmt.Errorf("record %s is not an object: %w", key, err)
	}
	doc["_id"] = key
	return doc, nil
}

func fromDocument(doc bson.M) (string, json.RawMessage, error) {
	key, _ := doc["_id"].(string)
	delete(doc, "_id")
	if len(doc) == 0 {
		return key, nil, nil
	}
	raw, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", nil, fmt.Errorf("mongo encode %s: %w", key, err)
	}
	record, err := docstore.Encode(json.RawMessage(raw))
	return key, record, err
}

func wrapValue(value json.RawMessage) []byte {
	return []byte(`{"v":` + string(value) + `}`)
}
