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

type RaidBossRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func NewRaidBossRepository(db *mongo.Database, logger zerolog.Logger) *RaidBossRepository {
	return &RaidBossRepository{
		coll:   db.Collection("raid_bosses"),
		logger: logger,
	}
}

// Get loads one boss aggregate. ErrNotFound means first-seen identity,
// which merges treat as "create new".
func (r *RaidBossRepository) Get(ctx context.Context, encounterID, difficulty int) (*domain.RaidBossAggregate, error) {
	var agg domain.RaidBossAggregate
	err := r.coll.FindOne(ctx, bson.M{
		"encounterId": encounterID,
		"difficulty":  difficulty,
	}).Decode(&agg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load boss %d/%d: %w", encounterID, difficulty, err)
	}
	return &agg, nil
}

// Upsert replaces the boss document. Called inside the commit
// transaction's session context.
func (r *RaidBossRepository) Upsert(ctx context.Context, agg *domain.RaidBossAggregate) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"encounterId": agg.EncounterID, "difficulty": agg.Difficulty},
		agg,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert boss %d/%d: %w", agg.EncounterID, agg.Difficulty, err)
	}
	return nil
}

// GetAllForRaid loads every difficulty document of the given encounters.
func (r *RaidBossRepository) GetAllForRaid(ctx context.Context, encounterIDs []int, difficulty int) ([]domain.RaidBossAggregate, error) {
	cur, err := r.coll.Find(ctx, bson.M{
		"encounterId": bson.M{"$in": encounterIDs},
		"difficulty":  difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load raid bosses: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.RaidBossAggregate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode raid bosses: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the identity index. Idempotent.
func (r *RaidBossRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "encounterId", Value: 1}, {Key: "difficulty", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
