package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection  = "users"
	AdminsCollection = "admins"
)

// Mongo owns the client and the application database. It is created once at
// startup and handed to the stores that need it.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, uri, databaseName string) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Mongo{Client: client, DB: client.Database(databaseName)}, nil
}

func (m *Mongo) OpenCollection(collectionName string) *mongo.Collection {
	return m.DB.Collection(collectionName)
}

// EnsureIndexes creates the lookup indexes. They are deliberately not
// unique: duplicate usernames are accepted and resolved by lookup order.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	byUsername := mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}}
	byNationalID := mongo.IndexModel{Keys: bson.D{{Key: "aadhaarNumber", Value: 1}}}

	if _, err := m.OpenCollection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{byUsername, byNationalID}); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}
	if _, err := m.OpenCollection(AdminsCollection).Indexes().CreateOne(ctx, byUsername); err != nil {
		return fmt.Errorf("create admins indexes: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
