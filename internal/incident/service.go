package incident

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/metrics"
	"patrol_tracker/internal/models"
)

type Store interface {
	Guard(ctx context.Context, id uint) (*models.User, error)
	CreateIncident(ctx context.Context, inc *models.Incident) error
	ListIncidents(ctx context.Context, limit int) ([]models.Incident, error)
}

// Classifier is satisfied by *Pipeline.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

type Service struct {
	store      Store
	classifier Classifier
	metrics    *metrics.PatrolMetrics
}

func NewService(store Store, classifier Classifier, m *metrics.PatrolMetrics) *Service {
	return &Service{store: store, classifier: classifier, metrics: m}
}

// Report classifies text and stores it as an incident by guardID.
// Classification problems never fail the report: it is stored as LOW at worst.
func (s *Service) Report(ctx context.Context, text string, guardID uint) (*models.Incident, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidInput("no report text received")
	}
	if guardID == 0 {
		return nil, apperr.SessionInvalid("session invalid, please log in again")
	}

	if _, err := s.store.Guard(ctx, guardID); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.SessionInvalid("session invalid, please log out and log in again")
		}
		return nil, err
	}

	c, err := s.classifier.Classify(ctx, text)
	if err != nil {
		logrus.WithError(err).Warn("All incident classifiers failed, defaulting to LOW")
		c = Classification{Summary: FallbackSummary(text), Severity: SeverityLow}
	}

	inc := models.Incident{
		GuardID:     guardID,
		Description: text,
		AISummary:   c.Label(),
		Severity:    string(c.Severity),
	}
	if err := s.store.CreateIncident(ctx, &inc); err != nil {
		return nil, err
	}

	s.metrics.RecordIncident(inc.Severity)
	logrus.WithFields(logrus.Fields{
		"guard_id": guardID,
		"severity": inc.Severity,
		"strategy": c.Strategy,
	}).Info("Incident logged")
	return &inc, nil
}

// List returns the most recent incidents first.
func (s *Service) List(ctx context.Context, limit int) ([]models.Incident, error) {
	return s.store.ListIncidents(ctx, limit)
}
