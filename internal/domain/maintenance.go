package domain

import "time"

// Maintenance is the singleton watermark record. It is read at cycle
// start and written inside the commit transaction, so the watermark
// advances if and only if the cycle's writes land.
type Maintenance struct {
	ID                string            `bson:"_id"`
	LastUpdated       time.Time         `bson:"lastUpdated"`
	LastGuildsUpdate  time.Time         `bson:"lastGuildsUpdate"`
	LastLogIDPerRealm map[string]string `bson:"lastLogIdPerRealm"`
	IsInitialized     bool              `bson:"isInitialized"`
}

const MaintenanceID = "maintenance"

func NewMaintenance() *Maintenance {
	return &Maintenance{
		ID:                MaintenanceID,
		LastLogIDPerRealm: make(map[string]string),
	}
}
