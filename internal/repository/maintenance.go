package repository

import (
	"context"
	"errors"
	"fmt"

	"raid-tracker/internal/domain"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MaintenanceRepository struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

func NewMaintenanceRepository(db *mongo.Database, logger zerolog.Logger) *MaintenanceRepository {
	return &MaintenanceRepository{
		coll:   db.Collection("maintenance"),
		logger: logger,
	}
}

// Get loads the watermark record, returning a fresh uninitialized one
// when the system has never run.
func (r *MaintenanceRepository) Get(ctx context.Context) (*domain.Maintenance, error) {
	var m domain.Maintenance
	err := r.coll.FindOne(ctx, bson.M{"_id": domain.MaintenanceID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NewMaintenance(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load maintenance record: %w", err)
	}
	if m.LastLogIDPerRealm == nil {
		m.LastLogIDPerRealm = make(map[string]string)
	}
	return &m, nil
}

// Put writes the watermark. The update cycle calls it inside its commit
// transaction so the watermark and the cycle's writes land atomically;
// the guild refresh writes it directly to advance LastGuildsUpdate.
func (r *MaintenanceRepository) Put(ctx context.Context, m *domain.Maintenance) error {
	m.ID = domain.MaintenanceID
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": domain.MaintenanceID}, m,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write maintenance record: %w", err)
	}
	return nil
}
