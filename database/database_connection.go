package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection     = "users"
	ReadingsCollection  = "readings"
	ChangelogCollection = "changelog"
)

// ErrNotFound is returned by the stores when no document matches.
var ErrNotFound = errors.New("document not found")

// DB is the long-lived connection shared by every store. The driver client
// is safe for concurrent use.
type DB struct {
	Client *mongo.Client
	Name   string
}

func Connect(ctx context.Context, uri, databaseName string) (*DB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	// Send a ping to confirm a successful connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Printf("Connected to MongoDB, database %q", databaseName)
	return &DB{Client: client, Name: databaseName}, nil
}

func (db *DB) OpenCollection(collectionName string) *mongo.Collection {
	return db.Client.Database(db.Name).Collection(collectionName)
}

func (db *DB) Disconnect(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

// notFound maps the driver's no-documents error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
