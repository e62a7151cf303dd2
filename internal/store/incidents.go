package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"patrol_tracker/internal/models"
)

func (s *Store) CreateIncident(ctx context.Context, inc *models.Incident) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(inc).Error; err != nil {
		return s.internal(err, "create incident", logrus.Fields{"guard_id": inc.GuardID})
	}
	return nil
}

// ListIncidents returns up to limit incidents, newest first. limit <= 0 means no limit.
func (s *Store) ListIncidents(ctx context.Context, limit int) ([]models.Incident, error) {
	var incidents []models.Incident
	q := s.db.WithContext(ctx).Preload("Guard").Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&incidents).Error; err != nil {
		return nil, s.internal(err, "list incidents", nil)
	}
	return incidents, nil
}
