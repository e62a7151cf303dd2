package assignment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/clock"
	"patrol_tracker/internal/duty"
	"patrol_tracker/internal/metrics"
	"patrol_tracker/internal/models"
	"patrol_tracker/internal/store/storetest"
)

var t0 = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

func setupManager(t *testing.T) (*Manager, *clock.Mock, *gorm.DB) {
	t.Helper()
	s, db := storetest.New(t)
	clk := clock.NewMock(t0)
	m, err := metrics.NewPatrolMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewManager(s, clk, duty.DefaultDuration, m), clk, db
}

func statusOf(t *testing.T, mgr *Manager, guardID uint) GuardDuty {
	t.Helper()
	rows, err := mgr.ListGuardsWithDutyStatus(context.Background())
	require.NoError(t, err)
	for _, r := range rows {
		if r.GuardID == guardID {
			return r
		}
	}
	t.Fatalf("guard %d missing from duty list", guardID)
	return GuardDuty{}
}

func TestDutyLifecycleScenario(t *testing.T) {
	mgr, clk, db := setupManager(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	routeA := storetest.Route(t, db, "Route A", false)

	_, err := mgr.Assign(ctx, guard.ID, routeA.ID)
	require.NoError(t, err)

	clk.Set(t0.Add(7*time.Hour - time.Minute))
	row := statusOf(t, mgr, guard.ID)
	assert.Equal(t, duty.StatusActive, row.Status)
	require.NotNil(t, row.Route)
	assert.Equal(t, "Route A", row.Route.Name)
	require.NotNil(t, row.TimeRemaining)
	assert.Equal(t, 1, row.TimeRemaining.Hours)
	assert.Equal(t, 1, row.TimeRemaining.Minutes)

	clk.Set(t0.Add(7*time.Hour + 30*time.Minute))
	assert.Equal(t, duty.StatusExpiringSoon, statusOf(t, mgr, guard.ID).Status)

	clk.Set(t0.Add(8*time.Hour + time.Minute))
	expired, err := mgr.SweepExpired(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, guard.ID, expired[0].GuardID)
	assert.Equal(t, "amina", expired[0].GuardName)
	assert.Equal(t, "Route A", expired[0].RouteName)
	assert.Equal(t, 8*time.Hour+time.Minute, expired[0].Served)

	row = statusOf(t, mgr, guard.ID)
	assert.Equal(t, duty.StatusUnassigned, row.Status)
	assert.Nil(t, row.Route)
	assert.Nil(t, row.TimeRemaining)
}

func TestListGuardsWithDutyStatus_SweepsFirst(t *testing.T) {
	mgr, clk, db := setupManager(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	route := storetest.Route(t, db, "A", false)
	_, err := mgr.Assign(ctx, guard.ID, route.ID)
	require.NoError(t, err)

	clk.Advance(9 * time.Hour)
	assert.Equal(t, duty.StatusUnassigned, statusOf(t, mgr, guard.ID).Status)

	var active int64
	require.NoError(t, db.Model(&models.GuardRouteAssignment{}).Where("is_active = ?", true).Count(&active).Error)
	assert.Zero(t, active)
}

func TestSweepExpired_IdempotentAndConcurrent(t *testing.T) {
	mgr, clk, db := setupManager(t)
	ctx := context.Background()

	route := storetest.Route(t, db, "A", false)
	for _, name := range []string{"a", "b", "c"} {
		g := storetest.Guard(t, db, name)
		_, err := mgr.Assign(ctx, g.ID, route.ID)
		require.NoError(t, err)
	}
	clk.Advance(10 * time.Hour)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := mgr.SweepExpired(ctx)
			assert.NoError(t, err)
			mu.Lock()
			total += len(got)
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, total, "each assignment is reported by exactly one sweep")

	again, err := mgr.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestAssign_ConcurrentForOneGuard(t *testing.T) {
	mgr, _, db := setupManager(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	routes := []models.PatrolRoute{
		storetest.Route(t, db, "A", false),
		storetest.Route(t, db, "B", false),
		storetest.Route(t, db, "C", false),
	}

	var wg sync.WaitGroup
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(r models.PatrolRoute) {
			defer wg.Done()
			_, err := mgr.Assign(ctx, guard.ID, r.ID)
			assert.NoError(t, err)
		}(routes[i%len(routes)])
	}
	wg.Wait()

	var active int64
	require.NoError(t, db.Model(&models.GuardRouteAssignment{}).
		Where("guard_id = ? AND is_active = ?", guard.ID, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestAssign_Validation(t *testing.T) {
	mgr, _, db := setupManager(t)
	ctx := context.Background()
	guard := storetest.Guard(t, db, "amina")

	_, err := mgr.Assign(ctx, guard.ID, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = mgr.Assign(ctx, guard.ID, 42)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeactivate(t *testing.T) {
	mgr, _, db := setupManager(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	route := storetest.Route(t, db, "A", false)
	_, err := mgr.Assign(ctx, guard.ID, route.ID)
	require.NoError(t, err)

	n, err := mgr.Deactivate(ctx, guard.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = mgr.Deactivate(ctx, guard.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, duty.StatusUnassigned, statusOf(t, mgr, guard.ID).Status)
}

func TestStatistics(t *testing.T) {
	mgr, clk, db := setupManager(t)
	ctx := context.Background()

	route := storetest.Route(t, db, "A", false)
	early := storetest.Guard(t, db, "early")
	late := storetest.Guard(t, db, "late")
	storetest.Guard(t, db, "idle")

	_, err := mgr.Assign(ctx, early.ID, route.ID)
	require.NoError(t, err)
	clk.Advance(6*time.Hour + 30*time.Minute)
	_, err = mgr.Assign(ctx, late.ID, route.ID)
	require.NoError(t, err)
	clk.Advance(time.Hour)

	stats, err := mgr.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, duty.Stats{Total: 3, Unassigned: 1, Active: 1, ExpiringSoon: 1}, stats)
}

func TestCurrentRoute_FallsBackToDefault(t *testing.T) {
	mgr, _, db := setupManager(t)
	ctx := context.Background()

	guard := storetest.Guard(t, db, "amina")
	route, err := mgr.CurrentRoute(ctx, guard.ID)
	require.NoError(t, err)
	assert.Nil(t, route)

	def := storetest.Route(t, db, "Default", true)
	route, err = mgr.CurrentRoute(ctx, guard.ID)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, def.ID, route.ID)

	assigned := storetest.Route(t, db, "Assigned", false)
	_, err = mgr.Assign(ctx, guard.ID, assigned.ID)
	require.NoError(t, err)
	route, err = mgr.CurrentRoute(ctx, guard.ID)
	require.NoError(t, err)
	assert.Equal(t, assigned.ID, route.ID)
}

type failingStore struct{ Store }

func (failingStore) ExpireAssignments(context.Context, time.Time) ([]models.GuardRouteAssignment, error) {
	return nil, apperr.Internal(errors.New("connection reset"), "expire assignments failed")
}

func TestListGuardsWithDutyStatus_PropagatesStoreFailure(t *testing.T) {
	mgr := NewManager(failingStore{}, clock.NewMock(t0), 0, nil)
	_, err := mgr.ListGuardsWithDutyStatus(context.Background())
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.Equal(t, "internal server error", apperr.Message(err))
}
