package repository

import (
	"context"
	"errors"
	"fmt"

	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/domain"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type GuildRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func NewGuildRepository(db *mongo.Database, logger zerolog.Logger) *GuildRepository {
	return &GuildRepository{
		coll:   db.Collection("guilds"),
		logger: logger,
	}
}

func (r *GuildRepository) Get(ctx context.Context, name, realm string) (*domain.GuildAggregate, error) {
	var agg domain.GuildAggregate
	err := r.coll.FindOne(ctx, bson.M{"name": name, "realm": realm}).Decode(&agg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guild %s-%s: %w", name, realm, err)
	}
	return &agg, nil
}

func (r *GuildRepository) Upsert(ctx context.Context, agg *domain.GuildAggregate) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"name": agg.Name, "realm": agg.Realm},
		agg,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert guild %s-%s: %w", agg.Name, agg.Realm, err)
	}
	return nil
}

// All streams every known guild; used by the guild-refresh job.
func (r *GuildRepository) All(ctx context.Context) ([]domain.GuildAggregate, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.GuildAggregate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode guilds: %w", err)
	}
	return out, nil
}

// Delete removes a guild the source has confirmed gone. The only delete
// path in the system.
func (r *GuildRepository) Delete(ctx context.Context, name, realm string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"name": name, "realm": realm})
	if err != nil {
		return fmt.Errorf("failed to delete guild %s-%s: %w", name, realm, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	r.logger.Info().Str("guild", name).Str("realm", realm).Msg("guild removed")
	return nil
}

func (r *GuildRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "realm", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
