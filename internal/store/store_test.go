package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/models"
	"patrol_tracker/internal/store/storetest"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func activeCount(t *testing.T, db *gorm.DB, guardID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.GuardRouteAssignment{}).
		Where("guard_id = ? AND is_active = ?", guardID, true).Count(&n).Error)
	return n
}

func TestAssignRoute_ReusesRowAndKeepsSingleActive(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	site := storetest.Site(t, db, "HQ")
	cp := storetest.Checkpoint(t, db, site.ID, "Gate", 0, 0)
	routeA := storetest.Route(t, db, "A", false, cp)
	routeB := storetest.Route(t, db, "B", false, cp)

	first, err := s.AssignRoute(ctx, guard.ID, routeA.ID, t0)
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Equal(t, "A", first.Route.Name)
	assert.True(t, first.AssignedAt.Equal(t0))

	_, err = s.AssignRoute(ctx, guard.ID, routeB.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), activeCount(t, db, guard.ID))

	again, err := s.AssignRoute(ctx, guard.ID, routeA.ID, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "assignment row for (guard, route) should be reused")
	assert.True(t, again.AssignedAt.Equal(t0.Add(2*time.Hour)))

	var rows int64
	require.NoError(t, db.Model(&models.GuardRouteAssignment{}).Where("guard_id = ?", guard.ID).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, int64(1), activeCount(t, db, guard.ID))
}

func TestAssignRoute_NotFound(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	admin := storetest.Admin(t, db, "boss")
	route := storetest.Route(t, db, "A", false)

	_, err := s.AssignRoute(ctx, guard.ID, 999, t0)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.AssignRoute(ctx, 999, route.ID, t0)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.AssignRoute(ctx, admin.ID, route.ID, t0)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "admins cannot hold assignments")
}

func TestAssignRoute_ConcurrentCallsLeaveOneActive(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	var routes []models.PatrolRoute
	for _, name := range []string{"A", "B", "C", "D"} {
		routes = append(routes, storetest.Route(t, db, name, false))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AssignRoute(ctx, guard.ID, routes[i%len(routes)].ID, t0.Add(time.Duration(i)*time.Minute))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), activeCount(t, db, guard.ID))
}

func TestPartialIndexRejectsSecondActiveRow(t *testing.T) {
	_, db := storetest.New(t)

	guard := storetest.Guard(t, db, "amina")
	a := storetest.Route(t, db, "A", false)
	b := storetest.Route(t, db, "B", false)

	require.NoError(t, db.Omit("Guard", "Route").Create(&models.GuardRouteAssignment{
		GuardID: guard.ID, RouteID: a.ID, IsActive: true, AssignedAt: t0,
	}).Error)
	err := db.Omit("Guard", "Route").Create(&models.GuardRouteAssignment{
		GuardID: guard.ID, RouteID: b.ID, IsActive: true, AssignedAt: t0,
	}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestDeactivateGuard_Idempotent(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	route := storetest.Route(t, db, "A", false)
	_, err := s.AssignRoute(ctx, guard.ID, route.ID, t0)
	require.NoError(t, err)

	n, err := s.DeactivateGuard(ctx, guard.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeactivateGuard(ctx, guard.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, activeCount(t, db, guard.ID))
}

func TestExpireAssignments(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	old := storetest.Guard(t, db, "old")
	fresh := storetest.Guard(t, db, "fresh")
	route := storetest.Route(t, db, "A", false)

	_, err := s.AssignRoute(ctx, old.ID, route.ID, t0)
	require.NoError(t, err)
	_, err = s.AssignRoute(ctx, fresh.ID, route.ID, t0.Add(4*time.Hour))
	require.NoError(t, err)

	cutoff := t0.Add(time.Hour)
	expired, err := s.ExpireAssignments(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].GuardID)
	assert.Equal(t, "old", expired[0].Guard.Name)
	assert.Equal(t, "A", expired[0].Route.Name)

	again, err := s.ExpireAssignments(ctx, cutoff)
	require.NoError(t, err)
	assert.Empty(t, again)

	active, err := s.ActiveAssignments(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Contains(t, active, fresh.ID)
}

func TestRoutes_DefaultAndActive(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	site := storetest.Site(t, db, "HQ")
	c1 := storetest.Checkpoint(t, db, site.ID, "one", 0, 0)
	c2 := storetest.Checkpoint(t, db, site.ID, "two", 0, 0.001)
	c3 := storetest.Checkpoint(t, db, site.ID, "three", 0, 0.002)

	def, err := s.DefaultRoute(ctx)
	require.NoError(t, err)
	assert.Nil(t, def)

	// Stops inserted out of order must come back ordered by position.
	r := storetest.Route(t, db, "Night", true, c3, c1, c2)
	def, err = s.DefaultRoute(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, r.ID, def.ID)
	ordered := def.OrderedCheckpoints()
	require.Len(t, ordered, 3)
	assert.Equal(t, []string{"three", "one", "two"}, []string{ordered[0].Name, ordered[1].Name, ordered[2].Name})

	guard := storetest.Guard(t, db, "amina")
	active, err := s.ActiveRoute(ctx, guard.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = s.AssignRoute(ctx, guard.ID, r.ID, t0)
	require.NoError(t, err)
	active, err = s.ActiveRoute(ctx, guard.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Len(t, active.Stops, 3)
}

func TestSaveDefaultRoute(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	site := storetest.Site(t, db, "HQ")
	c1 := storetest.Checkpoint(t, db, site.ID, "one", 0, 0)
	c2 := storetest.Checkpoint(t, db, site.ID, "two", 0, 0.001)

	route, err := s.SaveDefaultRoute(ctx, "", []uint{c2.ID, c1.ID})
	require.NoError(t, err)
	assert.Equal(t, "Default Patrol Route", route.Name)
	assert.True(t, route.IsDefault)
	ordered := route.OrderedCheckpoints()
	require.Len(t, ordered, 2)
	assert.Equal(t, c2.ID, ordered[0].ID)

	replaced, err := s.SaveDefaultRoute(ctx, "Evening", []uint{c1.ID})
	require.NoError(t, err)
	assert.Equal(t, route.ID, replaced.ID, "the existing default route is reused")
	assert.Equal(t, "Evening", replaced.Name)
	require.Len(t, replaced.Stops, 1)
	assert.Equal(t, 0, replaced.Stops[0].Position)

	_, err = s.SaveDefaultRoute(ctx, "x", []uint{c1.ID, c1.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = s.SaveDefaultRoute(ctx, "x", []uint{c1.ID, 999})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestEnsureDefaultRoute(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	_, err := s.EnsureDefaultRoute(ctx)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	site := storetest.Site(t, db, "HQ")
	cp := storetest.Checkpoint(t, db, site.ID, "Gate", 1, 1)

	route, err := s.EnsureDefaultRoute(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	require.Len(t, route.Stops, 1)
	assert.Equal(t, cp.ID, route.Stops[0].CheckpointID)

	again, err := s.EnsureDefaultRoute(ctx)
	require.NoError(t, err)
	assert.Equal(t, route.ID, again.ID)
}

func TestDeleteCheckpoint_BlockedByHistoryAndRoutes(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	site := storetest.Site(t, db, "HQ")
	scanned := storetest.Checkpoint(t, db, site.ID, "scanned", 0, 0)
	onRoute := storetest.Checkpoint(t, db, site.ID, "on-route", 0, 0)
	loose := storetest.Checkpoint(t, db, site.ID, "loose", 0, 0)
	storetest.Route(t, db, "A", false, onRoute)

	require.NoError(t, s.CreatePatrolLog(ctx, &models.PatrolLog{
		GuardID: guard.ID, CheckpointID: scanned.ID, ScannedAt: t0,
	}))

	err := s.DeleteCheckpoint(ctx, scanned.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflictBlocked))
	err = s.UpdateCheckpoint(ctx, &models.Checkpoint{Model: gorm.Model{ID: scanned.ID}, Name: "moved", SiteID: site.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindConflictBlocked))

	err = s.DeleteCheckpoint(ctx, onRoute.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflictBlocked))

	require.NoError(t, s.DeleteCheckpoint(ctx, loose.ID))
	_, err = s.Checkpoint(ctx, loose.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = s.DeleteCheckpoint(ctx, loose.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSites(t *testing.T) {
	s, _ := storetest.New(t)
	ctx := context.Background()

	site, err := s.CreateSite(ctx, "HQ")
	require.NoError(t, err)
	empty, err := s.CreateSite(ctx, "Annex")
	require.NoError(t, err)

	cp := models.Checkpoint{Name: "Gate", SiteID: site.ID, Latitude: -1.28, Longitude: 36.82}
	require.NoError(t, s.CreateCheckpoint(ctx, &cp))
	assert.NotZero(t, cp.ID)

	err = s.CreateCheckpoint(ctx, &models.Checkpoint{Name: "ghost", SiteID: 999})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	cp.Name = "Main Gate"
	cp.Latitude = -1.29
	require.NoError(t, s.UpdateCheckpoint(ctx, &cp))
	got, err := s.Checkpoint(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main Gate", got.Name)
	assert.InDelta(t, -1.29, got.Latitude, 1e-9)

	err = s.DeleteSite(ctx, site.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflictBlocked))
	require.NoError(t, s.DeleteSite(ctx, empty.ID))

	sites, err := s.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Len(t, sites[0].Checkpoints, 1)
}

func TestUsers(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	u := models.User{Name: "Amina", Username: "amina", Password: "hash", Role: models.RoleGuard}
	require.NoError(t, s.CreateUser(ctx, &u))

	err := s.CreateUser(ctx, &models.User{Name: "Other", Username: "amina", Password: "hash", Role: models.RoleGuard})
	assert.True(t, apperr.IsKind(err, apperr.KindConflictBlocked))

	got, err := s.UserByUsername(ctx, "amina")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.UserByUsername(ctx, "nobody")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	admin := storetest.Admin(t, db, "boss")
	_, err = s.Guard(ctx, admin.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	guards, err := s.ListGuards(ctx)
	require.NoError(t, err)
	require.Len(t, guards, 1)
	assert.Equal(t, "Amina", guards[0].Name)
}

func TestScansSince(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	other := storetest.Guard(t, db, "juma")
	site := storetest.Site(t, db, "HQ")
	c1 := storetest.Checkpoint(t, db, site.ID, "one", 0, 0)
	c2 := storetest.Checkpoint(t, db, site.ID, "two", 0, 0)

	for _, l := range []models.PatrolLog{
		{GuardID: guard.ID, CheckpointID: c1.ID, ScannedAt: t0.Add(-time.Hour)},
		{GuardID: guard.ID, CheckpointID: c2.ID, ScannedAt: t0.Add(time.Hour)},
		{GuardID: guard.ID, CheckpointID: c2.ID, ScannedAt: t0.Add(2 * time.Hour)},
		{GuardID: other.ID, CheckpointID: c1.ID, ScannedAt: t0.Add(time.Hour)},
	} {
		l := l
		require.NoError(t, s.CreatePatrolLog(ctx, &l))
	}

	ids, err := s.ScannedCheckpointIDsSince(ctx, guard.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, []uint{c2.ID}, ids)

	logs, err := s.ListPatrolLogsSince(ctx, t0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].ScannedAt.Equal(t0.Add(2*time.Hour)))
	require.NotNil(t, logs[0].Checkpoint)
	assert.Equal(t, "two", logs[0].Checkpoint.Name)
}

func TestUpsertGuardLocation_LastWriteWins(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()
	guard := storetest.Guard(t, db, "amina")

	require.NoError(t, s.UpsertGuardLocation(ctx, &models.GuardLocation{GuardID: guard.ID, Latitude: 1, Longitude: 1, UpdatedAt: t0}))
	require.NoError(t, s.UpsertGuardLocation(ctx, &models.GuardLocation{GuardID: guard.ID, Latitude: 2, Longitude: 3, UpdatedAt: t0.Add(time.Minute)}))

	locs, err := s.GuardLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.InDelta(t, 2.0, locs[0].Latitude, 1e-9)
	assert.InDelta(t, 3.0, locs[0].Longitude, 1e-9)
}

func TestIncidents(t *testing.T) {
	s, db := storetest.New(t)
	ctx := context.Background()
	guard := storetest.Guard(t, db, "amina")

	for _, d := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateIncident(ctx, &models.Incident{GuardID: guard.ID, Description: d, Severity: "LOW"}))
	}

	got, err := s.ListIncidents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Description)
	require.NotNil(t, got[0].Guard)
	assert.Equal(t, "amina", got[0].Guard.Name)
}
