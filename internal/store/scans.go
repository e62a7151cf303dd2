package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"patrol_tracker/internal/models"
)

// CreatePatrolLog appends a scan event.
func (s *Store) CreatePatrolLog(ctx context.Context, log *models.PatrolLog) error {
	log.ScannedAt = log.ScannedAt.UTC()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error; err != nil {
		return s.internal(err, "create patrol log", logrus.Fields{
			"guard_id":      log.GuardID,
			"checkpoint_id": log.CheckpointID,
		})
	}
	return nil
}

// ScannedCheckpointIDsSince returns the distinct checkpoints the guard scanned at or after since.
func (s *Store) ScannedCheckpointIDsSince(ctx context.Context, guardID uint, since time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.PatrolLog{}).
		Where("guard_id = ? AND scanned_at >= ?", guardID, since.UTC()).
		Distinct().
		Pluck("checkpoint_id", &ids).Error
	if err != nil {
		return nil, s.internal(err, "load scanned checkpoints", logrus.Fields{"guard_id": guardID})
	}
	return ids, nil
}

// ListPatrolLogsSince returns all scans at or after since, newest first.
func (s *Store) ListPatrolLogsSince(ctx context.Context, since time.Time) ([]models.PatrolLog, error) {
	var logs []models.PatrolLog
	err := s.db.WithContext(ctx).
		Preload("Guard").Preload("Checkpoint").
		Where("scanned_at >= ?", since.UTC()).
		Order("scanned_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, s.internal(err, "list patrol logs", nil)
	}
	return logs, nil
}

// UpsertGuardLocation stores the guard's latest position; the last write wins.
func (s *Store) UpsertGuardLocation(ctx context.Context, loc *models.GuardLocation) error {
	loc.UpdatedAt = loc.UpdatedAt.UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guard_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "accuracy", "updated_at"}),
	}).Create(loc).Error
	if err != nil {
		return s.internal(err, "upsert guard location", logrus.Fields{"guard_id": loc.GuardID})
	}
	return nil
}

// GuardLocations returns the latest known position of every guard.
func (s *Store) GuardLocations(ctx context.Context) ([]models.GuardLocation, error) {
	var locs []models.GuardLocation
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&locs).Error; err != nil {
		return nil, s.internal(err, "list guard locations", nil)
	}
	return locs, nil
}
