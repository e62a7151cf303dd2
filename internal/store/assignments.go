package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
)

// AssignRoute makes routeID the guard's only active assignment, starting at at.
// The guard row is locked for the duration of the transaction so concurrent
// assigns for one guard serialize; the (guard, route) row is reused if present.
func (s *Store) AssignRoute(ctx context.Context, guardID, routeID uint, at time.Time) (*models.GuardRouteAssignment, error) {
	var out models.GuardRouteAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var route models.PatrolRoute
		if err := tx.Select("id").First(&route, routeID).Error; err != nil {
			if isNotFound(err) {
				return apperr.NotFound("route %d not found", routeID)
			}
			return err
		}

		var guard models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND role = ?", guardID, models.RoleGuard).
			First(&guard).Error
		if err != nil {
			if isNotFound(err) {
				return apperr.NotFound("guard %d not found", guardID)
			}
			return err
		}

		if err := tx.Model(&models.GuardRouteAssignment{}).
			Where("guard_id = ? AND is_active = ?", guardID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		a := models.GuardRouteAssignment{
			GuardID:    guardID,
			RouteID:    routeID,
			IsActive:   true,
			AssignedAt: at.UTC(),
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guard_id"}, {Name: "route_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_active", "assigned_at", "updated_at"}),
		}).Create(&a).Error; err != nil {
			return err
		}

		return tx.Preload("Route").
			Where("guard_id = ? AND route_id = ?", guardID, routeID).
			First(&out).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ConflictBlocked("guard %d already has an active assignment", guardID)
		}
		return nil, s.internal(err, "assign route", logrus.Fields{"guard_id": guardID, "route_id": routeID})
	}
	return &out, nil
}

// DeactivateGuard clears the guard's active assignment and reports how many
// rows changed. Calling it with nothing active is a no-op.
func (s *Store) DeactivateGuard(ctx context.Context, guardID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.GuardRouteAssignment{}).
		Where("guard_id = ? AND is_active = ?", guardID, true).
		Update("is_active", false)
	if res.Error != nil {
		return 0, s.internal(res.Error, "deactivate assignment", logrus.Fields{"guard_id": guardID})
	}
	return res.RowsAffected, nil
}

// ExpireAssignments deactivates, in one UPDATE, every active assignment that
// started before cutoff and returns those rows with guard and route loaded.
// Rows another caller expired first are not returned.
func (s *Store) ExpireAssignments(ctx context.Context, cutoff time.Time) ([]models.GuardRouteAssignment, error) {
	var expired []models.GuardRouteAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.GuardRouteAssignment{}).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("is_active = ? AND assigned_at < ?", true, cutoff.UTC()).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Model(&models.GuardRouteAssignment{}).
			Where("id IN ? AND is_active = ?", ids, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		return tx.Preload("Guard").Preload("Route").
			Where("id IN ?", ids).
			Order("assigned_at ASC").
			Find(&expired).Error
	})
	if err != nil {
		return nil, s.internal(err, "expire assignments", logrus.Fields{"cutoff": cutoff})
	}
	return expired, nil
}

// ActiveAssignments returns every active assignment keyed by guard.
func (s *Store) ActiveAssignments(ctx context.Context) (map[uint]models.GuardRouteAssignment, error) {
	var rows []models.GuardRouteAssignment
	if err := s.db.WithContext(ctx).Preload("Route").Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return nil, s.internal(err, "list active assignments", nil)
	}
	out := make(map[uint]models.GuardRouteAssignment, len(rows))
	for _, r := range rows {
		out[r.GuardID] = r
	}
	return out, nil
}
