package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/assignment"
	"patrol_tracker/internal/clock"
	"patrol_tracker/internal/config"
	"patrol_tracker/internal/controllers"
	"patrol_tracker/internal/geofence"
	"patrol_tracker/internal/incident"
	"patrol_tracker/internal/metrics"
	"patrol_tracker/internal/middleware"
	"patrol_tracker/internal/patrol"
	"patrol_tracker/internal/routes"
	"patrol_tracker/internal/store"
)

// app bundles the wired services for one process.
type app struct {
	store       *store.Store
	metrics     *metrics.PatrolMetrics
	assignments *assignment.Manager
	hub         *controllers.LocationHub
	router      *gin.Engine
}

// newApp connects to the database and wires every service. The hub is only
// started when withHTTP is set; callers must call close.
func newApp(ctx context.Context, cfg config.Config, withHTTP bool) (*app, error) {
	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	st := store.New(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewPatrolMetrics(registry)
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	a := &app{
		store:       st,
		metrics:     m,
		assignments: assignment.NewManager(st, clk, cfg.DutyDuration, m),
	}
	if !withHTTP {
		return a, nil
	}

	a.hub = controllers.NewLocationHub()
	patrolSvc := patrol.NewService(st, a.assignments, geofence.NewVerifier(cfg.GeofenceToleranceM),
		patrol.WithClock(clk),
		patrol.WithPublisher(a.hub),
		patrol.WithMetrics(m),
	)
	incidents := incident.NewService(st, newClassifier(ctx, cfg, m), m)
	auth := middleware.NewAuth(cfg.JWTSecret)

	h := controllers.NewHandler(controllers.Deps{
		Store:          st,
		Auth:           auth,
		Assignments:    a.assignments,
		Patrol:         patrolSvc,
		Incidents:      incidents,
		Hub:            a.hub,
		Clock:          clk,
		AdminAccessKey: cfg.AdminAccessKey,
	})
	a.router = routes.SetupRouter(h, auth, m)
	return a, nil
}

// newClassifier tries the generative model first when a key is configured,
// always backed by the keyword rules.
func newClassifier(ctx context.Context, cfg config.Config, m *metrics.PatrolMetrics) *incident.Pipeline {
	var strategies []incident.Strategy
	if cfg.GeminiAPIKey != "" {
		gen, err := incident.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logrus.WithError(err).Warn("Generative classifier unavailable, using keyword rules only")
		} else {
			strategies = append(strategies, incident.NewGenAIStrategy(gen, cfg.ClassifierTimeout))
		}
	} else {
		logrus.Info("GEMINI_API_KEY not set, incidents are classified by keyword rules")
	}
	strategies = append(strategies, incident.KeywordStrategy{})
	return incident.NewPipeline(m, strategies...)
}

func (a *app) close() {
	if a.hub != nil {
		a.hub.Stop()
	}
}
