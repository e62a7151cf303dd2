// Package patrol ingests checkpoint scans and location pings and tells a guard
// which checkpoint to visit next.
package patrol

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/clock"
	"patrol_tracker/internal/geofence"
	"patrol_tracker/internal/metrics"
	"patrol_tracker/internal/models"
	"patrol_tracker/internal/sequencer"
)

type Store interface {
	Guard(ctx context.Context, id uint) (*models.User, error)
	Checkpoint(ctx context.Context, id uint) (*models.Checkpoint, error)
	CreatePatrolLog(ctx context.Context, log *models.PatrolLog) error
	ScannedCheckpointIDsSince(ctx context.Context, guardID uint, since time.Time) ([]uint, error)
	UpsertGuardLocation(ctx context.Context, loc *models.GuardLocation) error
}

// RouteResolver picks the route a guard is currently walking.
type RouteResolver interface {
	CurrentRoute(ctx context.Context, guardID uint) (*models.PatrolRoute, error)
}

// Publisher receives accepted location pings for live monitoring.
type Publisher interface {
	PublishLocation(update LocationUpdate)
}

type Service struct {
	store     Store
	routes    RouteResolver
	verifier  geofence.Verifier
	clock     clock.Clock
	publisher Publisher
	metrics   *metrics.PatrolMetrics
}

type Option func(*Service)

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithMetrics(m *metrics.PatrolMetrics) Option { return func(s *Service) { s.metrics = m } }

func NewService(store Store, routes RouteResolver, verifier geofence.Verifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		routes:   routes,
		verifier: verifier,
		clock:    clock.Real{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanRequest is a guard's claim to be at a checkpoint. Lat and Lon are
// pointers so a missing fix can be told apart from (0, 0).
type ScanRequest struct {
	CheckpointID uint
	GuardID      uint
	Lat          *float64
	Lon          *float64
}

type ScanResult struct {
	Verified       bool    `json:"verified"`
	DistanceMeters float64 `json:"distance_meters"`
	LogID          uint    `json:"log_id"`
}

// SubmitScan verifies a scan against the checkpoint's coordinates and appends
// a patrol log. Unverified scans are still recorded.
func (s *Service) SubmitScan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	if req.Lat == nil || req.Lon == nil {
		return ScanResult{}, apperr.InvalidInput("GPS location is required to verify a scan")
	}
	if !geofence.ValidCoordinates(*req.Lat, *req.Lon) {
		return ScanResult{}, apperr.InvalidInput("GPS location is out of range")
	}
	if req.CheckpointID == 0 {
		return ScanResult{}, apperr.InvalidInput("checkpoint id is required")
	}

	guard, err := s.resolveGuard(ctx, req.GuardID)
	if err != nil {
		return ScanResult{}, err
	}
	cp, err := s.store.Checkpoint(ctx, req.CheckpointID)
	if err != nil {
		return ScanResult{}, err
	}

	res := s.verifier.Verify(*req.Lat, *req.Lon, cp.Latitude, cp.Longitude)
	log := models.PatrolLog{
		GuardID:        guard.ID,
		CheckpointID:   cp.ID,
		GPSLat:         *req.Lat,
		GPSLong:        *req.Lon,
		DistanceMeters: res.DistanceMeters,
		IsVerified:     res.Verified,
		ScannedAt:      s.clock.Now(),
	}
	if err := s.store.CreatePatrolLog(ctx, &log); err != nil {
		return ScanResult{}, err
	}

	s.metrics.RecordScan(res.Verified, res.DistanceMeters)
	entry := logrus.WithFields(logrus.Fields{
		"guard_id":      guard.ID,
		"checkpoint_id": cp.ID,
		"distance_m":    res.DistanceMeters,
	})
	if res.Verified {
		entry.Info("Checkpoint scan verified")
	} else {
		entry.Warn("Checkpoint scan outside geofence")
	}

	return ScanResult{Verified: res.Verified, DistanceMeters: res.DistanceMeters, LogID: log.ID}, nil
}

// RouteView is a guard's current route with today's progress on it.
type RouteView struct {
	Route    *models.PatrolRoute `json:"route"`
	Next     *models.Checkpoint  `json:"next_checkpoint"`
	Progress sequencer.Progress  `json:"progress"`
	Scanned  []uint              `json:"scanned_checkpoint_ids"`
}

// NextCheckpointFor returns the first checkpoint of the guard's route not yet
// scanned since local midnight, or the route's first checkpoint once all are.
// Route and Next are nil when the guard has no route.
func (s *Service) NextCheckpointFor(ctx context.Context, guardID uint) (*RouteView, error) {
	if _, err := s.resolveGuard(ctx, guardID); err != nil {
		return nil, err
	}

	route, err := s.routes.CurrentRoute(ctx, guardID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return &RouteView{Scanned: []uint{}}, nil
	}

	ids, err := s.store.ScannedCheckpointIDsSince(ctx, guardID, sequencer.StartOfDay(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint{}
	}
	scanned := sequencer.NewScannedSet(ids...)

	return &RouteView{
		Route:    route,
		Next:     sequencer.Next(route, scanned),
		Progress: sequencer.ComputeProgress(route, scanned),
		Scanned:  ids,
	}, nil
}

// LocationUpdate is a guard position as broadcast to monitors.
type LocationUpdate struct {
	GuardID   uint      `json:"guard_id"`
	GuardName string    `json:"guard_name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Bearing   *float64  `json:"bearing,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateLocation records the guard's latest position and forwards it to the publisher.
func (s *Service) UpdateLocation(ctx context.Context, guardID uint, lat, lon, accuracy float64) (*models.GuardLocation, error) {
	if !geofence.ValidCoordinates(lat, lon) {
		return nil, apperr.InvalidInput("GPS location is out of range")
	}
	if accuracy < 0 {
		accuracy = 0
	}
	guard, err := s.resolveGuard(ctx, guardID)
	if err != nil {
		return nil, err
	}

	loc := models.GuardLocation{
		GuardID:   guard.ID,
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  accuracy,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.store.UpsertGuardLocation(ctx, &loc); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishLocation(LocationUpdate{
			GuardID:   guard.ID,
			GuardName: guard.Name,
			Latitude:  lat,
			Longitude: lon,
			Accuracy:  accuracy,
			Timestamp: loc.UpdatedAt,
		})
	}
	return &loc, nil
}

// resolveGuard maps a missing or unknown guard to SessionInvalid: the caller's
// identity no longer matches an account.
func (s *Service) resolveGuard(ctx context.Context, guardID uint) (*models.User, error) {
	if guardID == 0 {
		return nil, apperr.SessionInvalid("session expired, please sign in again")
	}
	guard, err := s.store.Guard(ctx, guardID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.SessionInvalid("session expired, please sign in again")
		}
		return nil, err
	}
	return guard, nil
}
