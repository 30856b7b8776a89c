package repository

import (
	"reflect"
	"testing"
	"time"

	"raid-tracker/internal/domain"
	"raid-tracker/internal/merge"

	"go.mongodb.org/mongo-driver/bson"
)

func setStage(t *testing.T, update bson.A) bson.M {
	t.Helper()
	if len(update) != 1 {
		t.Fatalf("expected a single pipeline stage, got %d", len(update))
	}
	root, ok := update[0].(bson.M)
	if !ok {
		t.Fatalf("stage is %T, want bson.M", update[0])
	}
	stage, ok := root["$set"].(bson.M)
	if !ok {
		t.Fatalf("stage has no $set document")
	}
	return stage
}

// assertFollowsValue checks that a field only takes the incoming value
// when the guard condition holds and otherwise keeps its stored value.
func assertFollowsValue(t *testing.T, stage bson.M, field string, incoming interface{}, guard bson.M) {
	t.Helper()
	expr, ok := stage[field].(bson.M)
	if !ok {
		t.Fatalf("%s is %T, want a $cond document", field, stage[field])
	}
	cond, ok := expr["$cond"].(bson.A)
	if !ok || len(cond) != 3 {
		t.Fatalf("%s is not guarded by $cond: %v", field, expr)
	}
	if !reflect.DeepEqual(cond[0], guard) {
		t.Errorf("%s guard = %v, want %v", field, cond[0], guard)
	}
	if !reflect.DeepEqual(cond[1], incoming) {
		t.Errorf("%s true branch = %v, want %v", field, cond[1], incoming)
	}
	if cond[2] != "$"+field {
		t.Errorf("%s false branch = %v, want $%s", field, cond[2], field)
	}
}

func assertInsertOnly(t *testing.T, stage bson.M, field string, incoming interface{}) {
	t.Helper()
	expr, ok := stage[field].(bson.M)
	if !ok {
		t.Fatalf("%s is %T, want an $ifNull document", field, stage[field])
	}
	ifNull, ok := expr["$ifNull"].(bson.A)
	if !ok || len(ifNull) != 2 {
		t.Fatalf("%s is not guarded by $ifNull: %v", field, expr)
	}
	if ifNull[0] != "$"+field {
		t.Errorf("%s prefers %v over the stored value", field, ifNull[0])
	}
	if !reflect.DeepEqual(ifNull[1], incoming) {
		t.Errorf("%s insert value = %v, want %v", field, ifNull[1], incoming)
	}
}

func TestCharacterRowUpdate_KillFieldsFollowValue(t *testing.T) {
	killedAt := time.Date(2026, time.March, 1, 20, 30, 0, 0, time.UTC)
	row := domain.CharacterPerformanceRecord{
		Key:       domain.CharacterKey{Name: "Arthasdk", Realm: "Lordaeron", Spec: 252},
		Class:     6,
		Race:      5,
		Faction:   domain.FactionHorde,
		Metric:    domain.MetricDPS,
		Value:     8421.5,
		ItemLevel: 271,
		LogID:     "log-77",
		KilledAt:  killedAt,
	}

	stage := setStage(t, characterRowUpdate(row))
	guard := bson.M{"$gt": bson.A{row.Value, bson.M{"$ifNull": bson.A{"$value", -1.0}}}}

	// A replayed batch with a lower value must leave the stored best
	// kill's metadata untouched, so every kill field rides the same
	// guard as the value itself.
	assertFollowsValue(t, stage, "value", row.Value, guard)
	assertFollowsValue(t, stage, "itemLevel", row.ItemLevel, guard)
	assertFollowsValue(t, stage, "logId", row.LogID, guard)
	assertFollowsValue(t, stage, "killedAt", row.KilledAt, guard)

	assertInsertOnly(t, stage, "key", row.Key)
	assertInsertOnly(t, stage, "class", row.Class)
	assertInsertOnly(t, stage, "race", row.Race)
	assertInsertOnly(t, stage, "faction", row.Faction)
	assertInsertOnly(t, stage, "metric", row.Metric)
}

func TestLeaderboardUpdate_MetadataFollowsBossValue(t *testing.T) {
	updatedAt := time.Date(2026, time.March, 2, 21, 0, 0, 0, time.UTC)
	u := merge.LeaderboardUpsert{
		Raid:       "Icecrown Citadel",
		Difficulty: 6,
		Metric:     domain.MetricDPS,
		Name:       "Jainamage",
		Class:      8,
		Realm:      "Lordaeron",
		Boss:       "The Lich King",
		Value:      9120.0,
		Faction:    domain.FactionAlliance,
		Race:       1,
		ItemLevel:  277,
		UpdatedAt:  updatedAt,
	}

	stage := setStage(t, leaderboardUpdate(u, "nanoid-1"))
	path := "bossValues.The Lich King"
	guard := bson.M{"$gt": bson.A{u.Value, bson.M{"$ifNull": bson.A{"$" + path, -1.0}}}}

	assertFollowsValue(t, stage, path, u.Value, guard)
	assertFollowsValue(t, stage, "itemLevel", u.ItemLevel, guard)
	assertFollowsValue(t, stage, "updatedAt", u.UpdatedAt, guard)

	assertInsertOnly(t, stage, "_id", "nanoid-1")
	assertInsertOnly(t, stage, "faction", u.Faction)
	assertInsertOnly(t, stage, "race", u.Race)
}
