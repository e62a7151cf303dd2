package store

import (
	"context"

	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
)

// CreateUser inserts an account; a taken username is a conflict.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.ConflictBlocked("username already taken")
		}
		return s.internal(err, "create user", logrus.Fields{"username": u.Username})
	}
	return nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, s.internal(err, "load user", logrus.Fields{"username": username})
	}
	return &user, nil
}

// Guard loads an account with the GUARD role.
func (s *Store) Guard(ctx context.Context, id uint) (*models.User, error) {
	var guard models.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", id, models.RoleGuard).First(&guard).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("guard %d not found", id)
		}
		return nil, s.internal(err, "load guard", logrus.Fields{"guard_id": id})
	}
	return &guard, nil
}

// ListGuards returns every guard ordered by name.
func (s *Store) ListGuards(ctx context.Context) ([]models.User, error) {
	var guards []models.User
	err := s.db.WithContext(ctx).Where("role = ?", models.RoleGuard).Order("name ASC").Find(&guards).Error
	if err != nil {
		return nil, s.internal(err, "list guards", nil)
	}
	return guards, nil
}
