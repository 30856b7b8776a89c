package database

import (
	"context"
	"fmt"

	"raid-tracker/internal/config"
	"raid-tracker/internal/constants"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// New connects to MongoDB with majority read/write concern. The commit
// transaction relies on these defaults, so they are set client-wide.
func New(cfg *config.Config, logger zerolog.Logger) (*mongo.Database, error) {
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connecting to mongodb")

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to mongodb")
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error().Err(err).Msg("failed to ping mongodb")
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info().Msg("mongodb connection established")
	return client.Database(cfg.MongoDatabase), nil
}

// Close disconnects the underlying client.
func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}
