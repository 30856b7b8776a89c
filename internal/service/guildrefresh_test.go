package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"raid-tracker/internal/api"
	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/cache"
	"raid-tracker/internal/config"
	"raid-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type fakeGuildSource struct {
	missing map[int64]bool
	failing map[int64]bool
}

func (f *fakeGuildSource) GetGuild(ctx context.Context, guildID int64, realm string) (*api.RawGuild, error) {
	if f.missing[guildID] {
		return nil, apperrors.ErrNotFound
	}
	if f.failing[guildID] {
		return nil, apperrors.ErrSourceUnavailable
	}
	return &api.RawGuild{ID: guildID, Realm: realm}, nil
}

type fakeGuildCatalog struct {
	guilds  []domain.GuildAggregate
	deleted []string
}

func (f *fakeGuildCatalog) All(ctx context.Context) ([]domain.GuildAggregate, error) {
	return f.guilds, nil
}

func (f *fakeGuildCatalog) Delete(ctx context.Context, name, realm string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

type fakeWatermarkWriter struct {
	current *domain.Maintenance
	written *domain.Maintenance
}

func (f *fakeWatermarkWriter) Get(ctx context.Context) (*domain.Maintenance, error) {
	if f.current == nil {
		return domain.NewMaintenance(), nil
	}
	return f.current, nil
}

func (f *fakeWatermarkWriter) Put(ctx context.Context, m *domain.Maintenance) error {
	f.written = m
	return nil
}

type refresherFixture struct {
	refresher *GuildRefresher
	updater   *UpdateOrchestrator
	cache     *fakeCache
}

func newRefresherFixture(source *fakeGuildSource, catalog *fakeGuildCatalog, wm *fakeWatermarkWriter) *refresherFixture {
	cfg := &config.Config{Realms: []string{"Lordaeron"}, GuildRefreshInterval: 24 * time.Hour}
	viewCache := &fakeCache{}
	updater := NewUpdateOrchestrator(
		cfg, &fakeSource{}, nil, &fakeBossStore{}, &fakeGuildStore{},
		&fakeWatermarkStore{}, &fakeCommitter{}, &fakeRanker{}, viewCache,
		zerolog.Nop(),
	)
	return &refresherFixture{
		refresher: NewGuildRefresher(cfg, source, catalog, wm, viewCache, updater, zerolog.Nop()),
		updater:   updater,
		cache:     viewCache,
	}
}

func trackedGuild(id int64, name string) domain.GuildAggregate {
	return domain.GuildAggregate{GuildID: id, Name: name, Realm: "Lordaeron"}
}

func TestGuildRefresher_RemovesVanishedGuilds(t *testing.T) {
	source := &fakeGuildSource{
		missing: map[int64]bool{2: true},
		failing: map[int64]bool{3: true},
	}
	catalog := &fakeGuildCatalog{guilds: []domain.GuildAggregate{
		trackedGuild(1, "Still Here"),
		trackedGuild(2, "Disbanded"),
		trackedGuild(3, "Flaky Lookup"),
	}}
	wm := &fakeWatermarkWriter{}
	f := newRefresherFixture(source, catalog, wm)

	if err := f.refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if len(catalog.deleted) != 1 || catalog.deleted[0] != "Disbanded" {
		t.Errorf("only the vanished guild may be deleted, got %v", catalog.deleted)
	}
	if wm.written == nil || wm.written.LastGuildsUpdate.IsZero() {
		t.Error("refresh must advance LastGuildsUpdate")
	}
	if len(f.cache.set) != 1 || f.cache.set[0] != cache.KeyGuildList {
		t.Errorf("refresh must re-warm the guild list view, set = %v", f.cache.set)
	}
}

func TestGuildRefresher_SkipsWhenNotDue(t *testing.T) {
	catalog := &fakeGuildCatalog{guilds: []domain.GuildAggregate{trackedGuild(2, "Disbanded")}}
	wm := &fakeWatermarkWriter{current: &domain.Maintenance{
		ID:               domain.MaintenanceID,
		LastGuildsUpdate: time.Now().Add(-time.Hour),
	}}
	f := newRefresherFixture(&fakeGuildSource{missing: map[int64]bool{2: true}}, catalog, wm)

	if err := f.refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(catalog.deleted) != 0 {
		t.Error("an early refresh must be a no-op")
	}
	if wm.written != nil {
		t.Error("an early refresh must not rewrite the watermark")
	}
}

func TestGuildRefresher_SharesSingleFlightGuard(t *testing.T) {
	f := newRefresherFixture(&fakeGuildSource{}, &fakeGuildCatalog{}, &fakeWatermarkWriter{})

	f.updater.running.Store(true)
	defer f.updater.running.Store(false)

	if err := f.refresher.Refresh(context.Background()); !errors.Is(err, apperrors.ErrAlreadyUpdating) {
		t.Errorf("refresh during an update cycle must be rejected, got %v", err)
	}
}
