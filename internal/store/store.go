// Package store is the GORM-backed persistence layer. It is the only package that
// sees driver errors: everything it returns is an *apperr.Error.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return s.internal(err, "ping", nil)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return s.internal(err, "ping", nil)
	}
	return nil
}

// Migrate creates or updates the schema. Partial unique indexes back the
// one-active-assignment-per-guard and single-default-route rules.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Site{},
		&models.Checkpoint{},
		&models.PatrolRoute{},
		&models.RouteCheckpoint{},
		&models.GuardRouteAssignment{},
		&models.PatrolLog{},
		&models.GuardLocation{},
		&models.Incident{},
	)
	if err != nil {
		return err
	}

	partial := []struct{ name, table, column string }{
		{"idx_one_active_assignment", "guard_route_assignments", "guard_id"},
		{"idx_one_default_route", "patrol_routes", "is_default"},
	}
	predicates := map[string]string{
		"guard_route_assignments": "is_active",
		"patrol_routes":           "is_default",
	}
	for _, idx := range partial {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE %s",
			pq.QuoteIdentifier(idx.name), pq.QuoteIdentifier(idx.table),
			pq.QuoteIdentifier(idx.column), pq.QuoteIdentifier(predicates[idx.table]))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// internal logs a storage failure and hides it behind a generic error.
// Errors that are already *apperr.Error pass through untouched.
func (s *Store) internal(err error, op string, fields logrus.Fields) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	logrus.WithError(err).WithFields(fields).WithField("operation", op).Error("Database operation failed")
	return apperr.Internal(err, "%s failed", op)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
