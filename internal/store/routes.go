package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
)

// DefaultRouteName is used when a default route is saved without a name.
const DefaultRouteName = "Default Patrol Route"

func withStops(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Stops.Checkpoint")
}

// Route loads a route with its ordered checkpoints.
func (s *Store) Route(ctx context.Context, id uint) (*models.PatrolRoute, error) {
	var route models.PatrolRoute
	if err := withStops(s.db.WithContext(ctx)).First(&route, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("route %d not found", id)
		}
		return nil, s.internal(err, "load route", logrus.Fields{"route_id": id})
	}
	return &route, nil
}

// DefaultRoute returns the route flagged as default, or nil when none is.
func (s *Store) DefaultRoute(ctx context.Context) (*models.PatrolRoute, error) {
	var route models.PatrolRoute
	err := withStops(s.db.WithContext(ctx)).Where("is_default = ?", true).First(&route).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.internal(err, "load default route", nil)
	}
	return &route, nil
}

// ActiveRoute returns the route of the guard's active assignment, or nil.
func (s *Store) ActiveRoute(ctx context.Context, guardID uint) (*models.PatrolRoute, error) {
	var a models.GuardRouteAssignment
	err := s.db.WithContext(ctx).
		Where("guard_id = ? AND is_active = ?", guardID, true).
		First(&a).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.internal(err, "load active assignment", logrus.Fields{"guard_id": guardID})
	}
	return s.Route(ctx, a.RouteID)
}

func (s *Store) ListRoutes(ctx context.Context) ([]models.PatrolRoute, error) {
	var routes []models.PatrolRoute
	if err := withStops(s.db.WithContext(ctx)).Order("name ASC").Find(&routes).Error; err != nil {
		return nil, s.internal(err, "list routes", nil)
	}
	return routes, nil
}

// SaveDefaultRoute replaces the default route's checkpoints with checkpointIDs,
// in that order. The current default route is renamed and reused; if there is
// none a new route becomes the default.
func (s *Store) SaveDefaultRoute(ctx context.Context, name string, checkpointIDs []uint) (*models.PatrolRoute, error) {
	if name == "" {
		name = DefaultRouteName
	}
	seen := make(map[uint]struct{}, len(checkpointIDs))
	for _, id := range checkpointIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.InvalidInput("checkpoint %d appears more than once", id)
		}
		seen[id] = struct{}{}
	}

	var routeID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(checkpointIDs) > 0 {
			var n int64
			if err := tx.Model(&models.Checkpoint{}).Where("id IN ?", checkpointIDs).Count(&n).Error; err != nil {
				return err
			}
			if int(n) != len(checkpointIDs) {
				return apperr.NotFound("one or more checkpoints not found")
			}
		}

		var route models.PatrolRoute
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("is_default = ?", true).First(&route).Error
		switch {
		case err == nil:
			if err := tx.Where("route_id = ?", route.ID).Delete(&models.RouteCheckpoint{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&route).Update("name", name).Error; err != nil {
				return err
			}
		case isNotFound(err):
			route = models.PatrolRoute{Name: name, IsDefault: true}
			if err := tx.Omit(clause.Associations).Create(&route).Error; err != nil {
				return err
			}
		default:
			return err
		}

		stops := make([]models.RouteCheckpoint, 0, len(checkpointIDs))
		for i, id := range checkpointIDs {
			stops = append(stops, models.RouteCheckpoint{RouteID: route.ID, Position: i, CheckpointID: id})
		}
		if len(stops) > 0 {
			if err := tx.Omit("Checkpoint").Create(&stops).Error; err != nil {
				return err
			}
		}
		routeID = route.ID
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ConflictBlocked("route name %q already taken", name)
		}
		return nil, s.internal(err, "save default route", logrus.Fields{"name": name})
	}
	return s.Route(ctx, routeID)
}

// EnsureDefaultRoute creates a one-stop default route from the first checkpoint
// when no route exists yet. It returns the default route, which may be nil if
// routes exist but none is flagged default.
func (s *Store) EnsureDefaultRoute(ctx context.Context) (*models.PatrolRoute, error) {
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.PatrolRoute{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		var first models.Checkpoint
		if err := tx.Order("id ASC").First(&first).Error; err != nil {
			if isNotFound(err) {
				return apperr.InvalidInput("no checkpoints found, create checkpoints first")
			}
			return err
		}

		route := models.PatrolRoute{Name: DefaultRouteName, IsDefault: true}
		if err := tx.Omit(clause.Associations).Create(&route).Error; err != nil {
			return err
		}
		stop := models.RouteCheckpoint{RouteID: route.ID, Position: 0, CheckpointID: first.ID}
		if err := tx.Omit("Checkpoint").Create(&stop).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, s.internal(err, "ensure default route", nil)
	}
	if created {
		logrus.Info("Created default patrol route")
	}
	return s.DefaultRoute(ctx)
}
