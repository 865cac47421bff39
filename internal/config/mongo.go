package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection parameters
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DATABASE" env-default:"sghss"`
}

func (c MongoConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("MONGO_URI must be set for the mongo driver")
	}
	if !strings.HasPrefix(c.URI, "mongodb://") && !strings.HasPrefix(c.URI, "mongodb+srv://") {
		return fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://")
	}
	if c.Database == "" {
		return fmt.Errorf("MONGO_DATABASE must not be empty")
	}
	return nil
}

// ConnectMongo opens a client and checks the primary is reachable
func ConnectMongo(ctx context.Context, cfg MongoConfig, log *slog.Logger) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info("connected to MongoDB", slog.String("db", cfg.Database))
	return client, nil
}
