// Package storetest opens throwaway SQLite-backed stores and seeds fixtures for tests.
package storetest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"patrol_tracker/internal/models"
	"patrol_tracker/internal/store"
)

// New returns a migrated in-memory store. A single connection keeps every
// goroutine on the same in-memory database.
func New(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, store.Migrate(db))
	return store.New(db), db
}

func Guard(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	return user(t, db, name, models.RoleGuard)
}

func Admin(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	return user(t, db, name, models.RoleAdmin)
}

func user(t *testing.T, db *gorm.DB, name, role string) models.User {
	u := models.User{Name: name, Username: fmt.Sprintf("%s-%s", role, name), Password: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func Site(t *testing.T, db *gorm.DB, name string) models.Site {
	t.Helper()
	s := models.Site{Name: name}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func Checkpoint(t *testing.T, db *gorm.DB, siteID uint, name string, lat, lon float64) models.Checkpoint {
	t.Helper()
	cp := models.Checkpoint{Name: name, SiteID: siteID, Latitude: lat, Longitude: lon}
	require.NoError(t, db.Omit("Site").Create(&cp).Error)
	return cp
}

// Route creates a route visiting checkpoints in the given order.
func Route(t *testing.T, db *gorm.DB, name string, isDefault bool, checkpoints ...models.Checkpoint) models.PatrolRoute {
	t.Helper()
	r := models.PatrolRoute{Name: name, IsDefault: isDefault}
	require.NoError(t, db.Omit("Stops").Create(&r).Error)
	for i, cp := range checkpoints {
		stop := models.RouteCheckpoint{RouteID: r.ID, Position: i, CheckpointID: cp.ID}
		require.NoError(t, db.Omit("Checkpoint").Create(&stop).Error)
	}
	return r
}
