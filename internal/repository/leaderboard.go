package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/merge"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BossCollectionKey identifies one per-boss character collection.
type BossCollectionKey struct {
	EncounterID int
	Difficulty  int
	Metric      domain.Metric
}

func (k BossCollectionKey) CollectionName() string {
	return fmt.Sprintf("boss_chars_%d_%d_%s", k.EncounterID, k.Difficulty, k.Metric)
}

func leaderboardCollectionName(raid string, difficulty int, metric domain.Metric) string {
	slug := strings.ToLower(strings.NewReplacer(" ", "_", "'", "").Replace(raid))
	return fmt.Sprintf("leaderboard_%s_%d_%s", slug, difficulty, metric)
}

type LeaderboardRepository struct {
	db     *mongo.Database
	logger zerolog.Logger
}

func NewLeaderboardRepository(db *mongo.Database, logger zerolog.Logger) *LeaderboardRepository {
	return &LeaderboardRepository{db: db, logger: logger}
}

// characterRowUpdate builds the pipeline update for one per-boss
// character row. The value keeps max semantics, and the fields that
// describe the best kill (item level, log id, kill time) only move
// together with it, so replaying a stale batch can never pair an old
// kill's metadata with a better value. Identity fields only land when
// the document is first created.
func characterRowUpdate(row domain.CharacterPerformanceRecord) bson.A {
	better := bson.M{"$gt": bson.A{row.Value, bson.M{"$ifNull": bson.A{"$value", -1.0}}}}
	ifBetter := func(field string, v interface{}) bson.M {
		return bson.M{"$cond": bson.A{better, v, "$" + field}}
	}
	return bson.A{bson.M{"$set": bson.M{
		"value":     ifBetter("value", row.Value),
		"itemLevel": ifBetter("itemLevel", row.ItemLevel),
		"logId":     ifBetter("logId", row.LogID),
		"killedAt":  ifBetter("killedAt", row.KilledAt),
		"key":       bson.M{"$ifNull": bson.A{"$key", row.Key}},
		"class":     bson.M{"$ifNull": bson.A{"$class", row.Class}},
		"race":      bson.M{"$ifNull": bson.A{"$race", row.Race}},
		"faction":   bson.M{"$ifNull": bson.A{"$faction", row.Faction}},
		"metric":    bson.M{"$ifNull": bson.A{"$metric", row.Metric}},
	}}}
}

// UpsertCharacterRows bulk-writes per-boss character rows with keep-max
// semantics on the metric value.
func (r *LeaderboardRepository) UpsertCharacterRows(ctx context.Context, key BossCollectionKey, rows []domain.CharacterPerformanceRecord) error {
	if len(rows) == 0 {
		return nil
	}
	coll := r.db.Collection(key.CollectionName())

	models := make([]mongo.WriteModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"key.name":  row.Key.Name,
				"key.realm": row.Key.Realm,
				"key.spec":  row.Key.Spec,
			}).
			SetUpdate(characterRowUpdate(row)).
			SetUpsert(true))
	}

	return r.bulkWriteBatched(ctx, coll, models)
}

// leaderboardUpdate builds the pipeline update for one tier leaderboard
// document. The per-boss value keeps max semantics and the item level
// and update time only move when that value improves; identity fields
// only land when the document is first created.
func leaderboardUpdate(u merge.LeaderboardUpsert, id string) bson.A {
	path := "bossValues." + u.Boss
	better := bson.M{"$gt": bson.A{u.Value, bson.M{"$ifNull": bson.A{"$" + path, -1.0}}}}
	ifBetter := func(field string, v interface{}) bson.M {
		return bson.M{"$cond": bson.A{better, v, "$" + field}}
	}
	return bson.A{bson.M{"$set": bson.M{
		path:        bson.M{"$cond": bson.A{better, u.Value, "$" + path}},
		"itemLevel": ifBetter("itemLevel", u.ItemLevel),
		"updatedAt": ifBetter("updatedAt", u.UpdatedAt),
		"_id":       bson.M{"$ifNull": bson.A{"$_id", id}},
		"faction":   bson.M{"$ifNull": bson.A{"$faction", u.Faction}},
		"race":      bson.M{"$ifNull": bson.A{"$race", u.Race}},
	}}}
}

// UpsertLeaderboard bulk-writes tier leaderboard documents with
// keep-max semantics on each per-boss value.
func (r *LeaderboardRepository) UpsertLeaderboard(ctx context.Context, upserts []merge.LeaderboardUpsert) error {
	byColl := make(map[string][]merge.LeaderboardUpsert)
	for _, u := range upserts {
		name := leaderboardCollectionName(u.Raid, u.Difficulty, u.Metric)
		byColl[name] = append(byColl[name], u)
	}

	for name, batch := range byColl {
		coll := r.db.Collection(name)
		models := make([]mongo.WriteModel, 0, len(batch))
		for _, u := range batch {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate leaderboard id: %w", err)
			}
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"name": u.Name, "class": u.Class, "realm": u.Realm}).
				SetUpdate(leaderboardUpdate(u, id)).
				SetUpsert(true))
		}
		if err := r.bulkWriteBatched(ctx, coll, models); err != nil {
			return err
		}
	}
	return nil
}

func (r *LeaderboardRepository) bulkWriteBatched(ctx context.Context, coll *mongo.Collection, models []mongo.WriteModel) error {
	for i := 0; i < len(models); i += constants.BulkWriteBatchSize {
		end := i + constants.BulkWriteBatchSize
		if end > len(models) {
			end = len(models)
		}
		if _, err := coll.BulkWrite(ctx, models[i:end]); err != nil {
			return fmt.Errorf("bulk write to %s failed: %w", coll.Name(), err)
		}
	}
	return nil
}

// RecomputeRanks re-sorts one boss collection by value and rewrites the
// rank, class-rank and spec-rank fields. Ranks are a read optimization,
// so this runs outside the commit transaction.
func (r *LeaderboardRepository) RecomputeRanks(ctx context.Context, key BossCollectionKey) error {
	coll := r.db.Collection(key.CollectionName())

	if err := r.ensureValueIndex(ctx, coll); err != nil {
		return err
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "value", Value: -1}}))
	if err != nil {
		return fmt.Errorf("failed to load %s for ranking: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	var rows []domain.CharacterPerformanceRecord
	if err := cur.All(ctx, &rows); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	if len(rows) == 0 {
		return nil
	}

	// Find with a sort option already ordered these; keep the invariant
	// explicit for rank assignment.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })

	classSeen := make(map[int]int)
	specSeen := make(map[int]int)
	models := make([]mongo.WriteModel, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		classSeen[row.Class]++
		specSeen[row.Key.Spec]++
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"key.name":  row.Key.Name,
				"key.realm": row.Key.Realm,
				"key.spec":  row.Key.Spec,
			}).
			SetUpdate(bson.M{"$set": bson.M{
				"rank":      i + 1,
				"classRank": classSeen[row.Class],
				"specRank":  specSeen[row.Key.Spec],
			}}))
	}

	if err := r.bulkWriteBatched(ctx, coll, models); err != nil {
		return err
	}
	r.logger.Debug().Str("collection", coll.Name()).Int("rows", len(rows)).Msg("ranks recomputed")
	return nil
}

// GetLeaderboard loads one tier leaderboard's documents.
func (r *LeaderboardRepository) GetLeaderboard(ctx context.Context, raid string, difficulty int, metric domain.Metric) ([]domain.LeaderboardCharacter, error) {
	coll := r.db.Collection(leaderboardCollectionName(raid, difficulty, metric))
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.LeaderboardCharacter
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return out, nil
}

func (r *LeaderboardRepository) ensureValueIndex(ctx context.Context, coll *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "value", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure value index on %s: %w", coll.Name(), err)
	}
	return nil
}
