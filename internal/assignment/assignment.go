// Package assignment drives the guard-to-route duty lifecycle: assigning,
// releasing and time-expiring assignments, and reporting duty status.
package assignment

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/clock"
	"patrol_tracker/internal/duty"
	"patrol_tracker/internal/metrics"
	"patrol_tracker/internal/models"
)

// Store is the persistence the manager needs.
type Store interface {
	AssignRoute(ctx context.Context, guardID, routeID uint, at time.Time) (*models.GuardRouteAssignment, error)
	DeactivateGuard(ctx context.Context, guardID uint) (int64, error)
	ExpireAssignments(ctx context.Context, cutoff time.Time) ([]models.GuardRouteAssignment, error)
	ActiveAssignments(ctx context.Context) (map[uint]models.GuardRouteAssignment, error)
	ActiveRoute(ctx context.Context, guardID uint) (*models.PatrolRoute, error)
	DefaultRoute(ctx context.Context) (*models.PatrolRoute, error)
	ListGuards(ctx context.Context) ([]models.User, error)
}

type Manager struct {
	store    Store
	clock    clock.Clock
	duration time.Duration
	metrics  *metrics.PatrolMetrics
}

// NewManager returns a Manager. A non-positive duration means duty.DefaultDuration;
// m may be nil.
func NewManager(store Store, clk clock.Clock, duration time.Duration, m *metrics.PatrolMetrics) *Manager {
	if clk == nil {
		clk = clock.Real{}
	}
	if duration <= 0 {
		duration = duty.DefaultDuration
	}
	return &Manager{store: store, clock: clk, duration: duration, metrics: m}
}

// Duration is the configured length of one duty cycle.
func (m *Manager) Duration() time.Duration { return m.duration }

// Assign starts a fresh duty for guardID on routeID, ending any other active one.
func (m *Manager) Assign(ctx context.Context, guardID, routeID uint) (*models.GuardRouteAssignment, error) {
	if guardID == 0 {
		return nil, apperr.InvalidInput("guard id is required")
	}
	if routeID == 0 {
		return nil, apperr.InvalidInput("route id is required")
	}

	a, err := m.store.AssignRoute(ctx, guardID, routeID, m.clock.Now())
	if err != nil {
		return nil, err
	}
	m.metrics.RecordAssignment("assign")
	logrus.WithFields(logrus.Fields{
		"guard_id": guardID,
		"route_id": routeID,
	}).Info("Route assigned")
	return a, nil
}

// Deactivate ends the guard's active duty, if any. It backs both unassign and
// reset; calling it twice is harmless.
func (m *Manager) Deactivate(ctx context.Context, guardID uint) (int64, error) {
	if guardID == 0 {
		return 0, apperr.InvalidInput("guard id is required")
	}
	n, err := m.store.DeactivateGuard(ctx, guardID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.metrics.RecordAssignment("deactivate")
		logrus.WithField("guard_id", guardID).Info("Duty deactivated")
	}
	return n, nil
}

// Expired describes one assignment ended by SweepExpired.
type Expired struct {
	GuardID    uint          `json:"guard_id"`
	GuardName  string        `json:"guard_name"`
	RouteID    uint          `json:"route_id"`
	RouteName  string        `json:"route_name"`
	AssignedAt time.Time     `json:"assigned_at"`
	Served     time.Duration `json:"-"`
	ServedText string        `json:"served"`
}

// SweepExpired deactivates every active assignment older than one duty cycle.
// There is no background timer: expiry happens only when something calls this.
func (m *Manager) SweepExpired(ctx context.Context) ([]Expired, error) {
	now := m.clock.Now()
	rows, err := m.store.ExpireAssignments(ctx, now.Add(-m.duration))
	if err != nil {
		return nil, err
	}

	out := make([]Expired, 0, len(rows))
	for _, r := range rows {
		served := now.Sub(r.AssignedAt).Truncate(time.Minute)
		out = append(out, Expired{
			GuardID:    r.GuardID,
			GuardName:  r.Guard.Name,
			RouteID:    r.RouteID,
			RouteName:  r.Route.Name,
			AssignedAt: r.AssignedAt,
			Served:     served,
			ServedText: served.String(),
		})
		logrus.WithFields(logrus.Fields{
			"guard":  r.Guard.Name,
			"route":  r.Route.Name,
			"served": served.String(),
		}).Info("Duty expired")
	}
	if len(out) > 0 {
		m.metrics.RecordExpired(len(out))
	}
	return out, nil
}

// RouteRef is the short form of a route used in duty listings.
type RouteRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// GuardDuty is one row of the duty dashboard.
type GuardDuty struct {
	GuardID       uint                `json:"guard_id"`
	Name          string              `json:"name"`
	Username      string              `json:"username"`
	Status        duty.Status         `json:"status"`
	Route         *RouteRef           `json:"route,omitempty"`
	AssignedAt    *time.Time          `json:"assigned_at,omitempty"`
	TimeRemaining *duty.TimeRemaining `json:"time_remaining,omitempty"`
}

// ListGuardsWithDutyStatus sweeps expired duties, then reports every guard
// ordered by name. Guards without an active assignment are UNASSIGNED.
func (m *Manager) ListGuardsWithDutyStatus(ctx context.Context) ([]GuardDuty, error) {
	if _, err := m.SweepExpired(ctx); err != nil {
		return nil, err
	}

	guards, err := m.store.ListGuards(ctx)
	if err != nil {
		return nil, err
	}
	active, err := m.store.ActiveAssignments(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	out := make([]GuardDuty, 0, len(guards))
	counts := make(map[string]int, 4)
	for _, g := range guards {
		row := GuardDuty{GuardID: g.ID, Name: g.Name, Username: g.Username, Status: duty.StatusUnassigned}
		if a, ok := active[g.ID]; ok {
			info := duty.Calculate(a.AssignedAt, now, m.duration)
			remaining := info.Breakdown()
			assignedAt := a.AssignedAt
			row.Status = info.Status
			row.Route = &RouteRef{ID: a.RouteID, Name: a.Route.Name}
			row.AssignedAt = &assignedAt
			row.TimeRemaining = &remaining
		}
		counts[string(row.Status)]++
		out = append(out, row)
	}
	m.metrics.SetDutyCounts(counts)
	return out, nil
}

// Statistics summarizes ListGuardsWithDutyStatus.
func (m *Manager) Statistics(ctx context.Context) (duty.Stats, error) {
	guards, err := m.ListGuardsWithDutyStatus(ctx)
	if err != nil {
		return duty.Stats{}, err
	}
	statuses := make([]duty.Status, len(guards))
	for i, g := range guards {
		statuses[i] = g.Status
	}
	return duty.Summarize(statuses), nil
}

// CurrentRoute is the route a guard should be walking: the active assignment's
// route, else the default route. It returns nil when there is neither.
func (m *Manager) CurrentRoute(ctx context.Context, guardID uint) (*models.PatrolRoute, error) {
	route, err := m.store.ActiveRoute(ctx, guardID)
	if err != nil || route != nil {
		return route, err
	}
	return m.store.DefaultRoute(ctx)
}
