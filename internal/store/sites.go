package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
)

func (s *Store) CreateSite(ctx context.Context, name string) (*models.Site, error) {
	site := models.Site{Name: name}
	if err := s.db.WithContext(ctx).Create(&site).Error; err != nil {
		return nil, s.internal(err, "create site", logrus.Fields{"name": name})
	}
	return &site, nil
}

func (s *Store) ListSites(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	if err := s.db.WithContext(ctx).Preload("Checkpoints").Order("name ASC").Find(&sites).Error; err != nil {
		return nil, s.internal(err, "list sites", nil)
	}
	return sites, nil
}

// DeleteSite refuses to remove a site that still has checkpoints.
func (s *Store) DeleteSite(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var site models.Site
		if err := tx.First(&site, id).Error; err != nil {
			if isNotFound(err) {
				return apperr.NotFound("site %d not found", id)
			}
			return err
		}

		var n int64
		if err := tx.Model(&models.Checkpoint{}).Where("site_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.ConflictBlocked("cannot delete site with checkpoints")
		}
		return tx.Delete(&site).Error
	})
	if err != nil {
		return s.internal(err, "delete site", logrus.Fields{"site_id": id})
	}
	return nil
}

func (s *Store) Checkpoint(ctx context.Context, id uint) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	if err := s.db.WithContext(ctx).First(&cp, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("checkpoint %d not found", id)
		}
		return nil, s.internal(err, "load checkpoint", logrus.Fields{"checkpoint_id": id})
	}
	return &cp, nil
}

func (s *Store) ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	err := s.db.WithContext(ctx).Preload("Site").Order("site_id ASC").Order("name ASC").Find(&cps).Error
	if err != nil {
		return nil, s.internal(err, "list checkpoints", nil)
	}
	return cps, nil
}

// CreateCheckpoint inserts cp after checking its site exists.
func (s *Store) CreateCheckpoint(ctx context.Context, cp *models.Checkpoint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSite(tx, cp.SiteID); err != nil {
			return err
		}
		return tx.Omit("Site").Create(cp).Error
	})
	if err != nil {
		return s.internal(err, "create checkpoint", logrus.Fields{"site_id": cp.SiteID})
	}
	return nil
}

// UpdateCheckpoint rewrites name, site and coordinates. A checkpoint with scan
// history is frozen: its logs were verified against the stored coordinates.
func (s *Store) UpdateCheckpoint(ctx context.Context, cp *models.Checkpoint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Checkpoint
		if err := tx.First(&existing, cp.ID).Error; err != nil {
			if isNotFound(err) {
				return apperr.NotFound("checkpoint %d not found", cp.ID)
			}
			return err
		}
		if err := requireSite(tx, cp.SiteID); err != nil {
			return err
		}
		if n, err := countLogs(tx, cp.ID); err != nil {
			return err
		} else if n > 0 {
			return apperr.ConflictBlocked("cannot modify checkpoint with patrol history")
		}
		return tx.Model(&existing).Updates(map[string]any{
			"name":      cp.Name,
			"site_id":   cp.SiteID,
			"latitude":  cp.Latitude,
			"longitude": cp.Longitude,
		}).Error
	})
	if err != nil {
		return s.internal(err, "update checkpoint", logrus.Fields{"checkpoint_id": cp.ID})
	}
	return nil
}

// DeleteCheckpoint refuses to remove a checkpoint referenced by scan history
// or by a route; nothing is cascaded.
func (s *Store) DeleteCheckpoint(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp models.Checkpoint
		if err := tx.First(&cp, id).Error; err != nil {
			if isNotFound(err) {
				return apperr.NotFound("checkpoint %d not found", id)
			}
			return err
		}

		if n, err := countLogs(tx, id); err != nil {
			return err
		} else if n > 0 {
			return apperr.ConflictBlocked("cannot delete checkpoint with patrol history")
		}

		var stops int64
		if err := tx.Model(&models.RouteCheckpoint{}).Where("checkpoint_id = ?", id).Count(&stops).Error; err != nil {
			return err
		}
		if stops > 0 {
			return apperr.ConflictBlocked("cannot delete checkpoint that is part of a patrol route")
		}
		return tx.Delete(&cp).Error
	})
	if err != nil {
		return s.internal(err, "delete checkpoint", logrus.Fields{"checkpoint_id": id})
	}
	return nil
}

func requireSite(tx *gorm.DB, siteID uint) error {
	var n int64
	if err := tx.Model(&models.Site{}).Where("id = ?", siteID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("site %d not found", siteID)
	}
	return nil
}

func countLogs(tx *gorm.DB, checkpointID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.PatrolLog{}).Where("checkpoint_id = ?", checkpointID).Count(&n).Error
	return n, err
}
