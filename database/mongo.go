package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "backend"

// MongoStore implements Store for MongoDB
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

// ConnectMongo establishes connection to MongoDB and verifies it with a primary ping.
func ConnectMongo(ctx context.Context, opts Options) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MongoDB URI: %w", err)
	}
	name := opts.Name
	if name == "" {
		name = cs.Database
	}
	if name == "" {
		name = defaultMongoDatabase
	}

	clientOptions := options.Client().
		ApplyURI(opts.URL).
		SetAppName(opts.AppName).
		SetConnectTimeout(opts.Timeout).
		SetServerSelectionTimeout(opts.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client:   client,
		database: client.Database(name),
	}, nil
}

// Kind reports the driver name.
func (m *MongoStore) Kind() string { return "mongodb" }

// Ping runs the ping command against the selected database
func (m *MongoStore) Ping(ctx context.Context) error {
	if m.database == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.database.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// Close disconnects the client
func (m *MongoStore) Close(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}
